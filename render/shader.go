// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	nagaspirv "github.com/gogpu/naga/spirv"

	"github.com/gogpu/meshdraw/internal/cache"
	"github.com/gogpu/meshdraw/internal/spirv"
)

// compiled holds bytecode for recently compiled (source, entry, stage)
// triples. Failures are not cached.
var compiled = cache.New[compileKey, *Bytecode](32)

type compileKey struct {
	source string
	entry  string
	stage  Stage
}

// Stage is a programmable pipeline stage.
type Stage int

const (
	// StageVertex transforms each vertex.
	StageVertex Stage = iota
	// StageFragment shades each pixel. The pixel shader of the pipeline.
	StageFragment
)

func (s Stage) String() string {
	switch s {
	case StageVertex:
		return "vertex"
	case StageFragment:
		return "fragment"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

func (s Stage) irStage() ir.ShaderStage {
	if s == StageFragment {
		return ir.StageFragment
	}
	return ir.StageVertex
}

// ShaderInput is one @location input of a vertex entry point.
type ShaderInput struct {
	Name       string
	Location   uint32
	Components uint32
	// Float is set for f32 scalars and vectors.
	Float bool
}

// Bytecode is a compiled shader stage. The words are retained after module
// creation, and the entry point's inputs are kept so an input layout can be
// checked against the vertex stage.
type Bytecode struct {
	Stage  Stage
	Entry  string
	words  []uint32
	inputs []ShaderInput
}

// Words returns the SPIR-V words. The slice is shared and must not be
// modified.
func (b *Bytecode) Words() []uint32 { return b.words }

// Size returns the bytecode size in bytes.
func (b *Bytecode) Size() int { return len(b.words) * 4 }

// Inputs returns the @location inputs of the entry point, ordered by
// location.
func (b *Bytecode) Inputs() []ShaderInput { return slices.Clone(b.inputs) }

// CompileShader compiles WGSL source and checks that it declares
// entryPoint for stage. Validation is always strict.
//
// Any failure returns *CompileError with the compiler's diagnostic.
// Successful results are cached, so compiling the same source twice returns
// the same *Bytecode.
func CompileShader(source, entryPoint string, stage Stage) (*Bytecode, error) {
	key := compileKey{source: source, entry: entryPoint, stage: stage}
	return compiled.GetOrCreate(key, func() (*Bytecode, error) {
		return compileShader(source, entryPoint, stage)
	})
}

// ShaderCacheStats reports the compiled shader cache counters.
func ShaderCacheStats() cache.Stats { return compiled.Stats() }

func compileShader(source, entryPoint string, stage Stage) (*Bytecode, error) {
	fail := func(status string, diag string) error {
		return &CompileError{Entry: entryPoint, Stage: stage, Status: status, Diagnostic: diag}
	}

	if strings.TrimSpace(source) == "" {
		return nil, fail("empty source", "")
	}

	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fail("compilation failed", err.Error())
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fail("compilation failed", err.Error())
	}
	verrs, err := naga.Validate(module)
	if err != nil {
		return nil, fail("validation failed", err.Error())
	}
	if len(verrs) > 0 {
		msgs := make([]string, len(verrs))
		for i := range verrs {
			msgs[i] = verrs[i].Error()
		}
		return nil, fail("validation failed", strings.Join(msgs, "\n"))
	}

	ep := findEntryPoint(module, entryPoint, stage.irStage())
	if ep == nil {
		return nil, fail("entry point not found", fmt.Sprintf("no @%s function named %s", stage, entryPoint))
	}
	var inputs []ShaderInput
	if stage == StageVertex {
		inputs = entryInputs(module, &ep.Function)
	}

	raw, err := naga.GenerateSPIRV(module, nagaspirv.Options{Version: nagaspirv.Version1_3})
	if err != nil {
		return nil, fail("compilation failed", err.Error())
	}
	words, err := spirv.Words(raw)
	if err != nil {
		return nil, fail("invalid SPIR-V output", err.Error())
	}

	Logger().Debug("render: shader compiled",
		"entry", entryPoint,
		"stage", stage.String(),
		"inputs", len(inputs),
		"bytes", len(raw))

	return &Bytecode{Stage: stage, Entry: entryPoint, words: words, inputs: inputs}, nil
}

func findEntryPoint(module *ir.Module, name string, stage ir.ShaderStage) *ir.EntryPoint {
	for i := range module.EntryPoints {
		ep := &module.EntryPoints[i]
		if ep.Name == name && ep.Stage == stage {
			return ep
		}
	}
	return nil
}

// entryInputs collects the @location arguments of fn, looking through
// struct arguments at their members.
func entryInputs(module *ir.Module, fn *ir.Function) []ShaderInput {
	var inputs []ShaderInput
	for _, arg := range fn.Arguments {
		if loc, ok := location(arg.Binding); ok {
			inputs = append(inputs, shaderInput(module, arg.Name, loc, arg.Type))
			continue
		}
		if int(arg.Type) >= len(module.Types) {
			continue
		}
		st, ok := module.Types[arg.Type].Inner.(ir.StructType)
		if !ok {
			continue
		}
		for _, m := range st.Members {
			if loc, ok := location(m.Binding); ok {
				inputs = append(inputs, shaderInput(module, m.Name, loc, m.Type))
			}
		}
	}
	slices.SortFunc(inputs, func(a, b ShaderInput) int { return int(a.Location) - int(b.Location) })
	return inputs
}

func location(b *ir.Binding) (uint32, bool) {
	if b == nil || *b == nil {
		return 0, false
	}
	switch v := (*b).(type) {
	case ir.LocationBinding:
		return v.Location, true
	case *ir.LocationBinding:
		return v.Location, true
	}
	return 0, false
}

func shaderInput(module *ir.Module, name string, loc uint32, th ir.TypeHandle) ShaderInput {
	in := ShaderInput{Name: name, Location: loc}
	if int(th) >= len(module.Types) {
		return in
	}
	isF32 := func(s ir.ScalarType) bool { return s.Kind == ir.ScalarFloat && s.Width == 4 }
	switch t := module.Types[th].Inner.(type) {
	case ir.ScalarType:
		in.Components, in.Float = 1, isF32(t)
	case ir.VectorType:
		in.Components, in.Float = uint32(t.Size), isF32(t.Scalar)
	}
	return in
}
