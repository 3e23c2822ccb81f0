// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
)

// InputElement describes one vertex attribute of an interleaved buffer.
// Offsets are not given: each element follows the previous one.
type InputElement struct {
	Semantic string
	Format   gputypes.VertexFormat
	Location uint32
}

// DefaultInputElements matches meshdraw.Vertex: position then colour.
var DefaultInputElements = []InputElement{
	{Semantic: "POSITION", Format: gputypes.VertexFormatFloat32x3, Location: 0},
	{Semantic: "COLOR", Format: gputypes.VertexFormatFloat32x4, Location: 1},
}

// vertexFormatComponents returns the component count of the float formats
// the renderer accepts in an input layout. Each component is 4 bytes.
func vertexFormatComponents(f gputypes.VertexFormat) (uint32, bool) {
	switch f {
	case gputypes.VertexFormatFloat32:
		return 1, true
	case gputypes.VertexFormatFloat32x2:
		return 2, true
	case gputypes.VertexFormatFloat32x3:
		return 3, true
	case gputypes.VertexFormatFloat32x4:
		return 4, true
	default:
		return 0, false
	}
}

// matchInputs checks that every input the vertex shader reads is fed by an
// element of the same width. Elements the shader ignores are allowed.
func matchInputs(inputs []ShaderInput, elements []InputElement) error {
	for _, in := range inputs {
		i := slices.IndexFunc(elements, func(e InputElement) bool { return e.Location == in.Location })
		if i < 0 {
			return fmt.Errorf("%w: shader input %s at location %d has no element", ErrLayoutMismatch, in.Name, in.Location)
		}
		e := elements[i]
		n, _ := vertexFormatComponents(e.Format)
		if !in.Float || in.Components != n {
			return fmt.Errorf("%w: %s (%v) does not match shader input %s at location %d (%d components, float %t)",
				ErrLayoutMismatch, e.Semantic, e.Format, in.Name, in.Location, in.Components, in.Float)
		}
	}
	return nil
}

// buildVertexLayout appends the elements into a single per-vertex buffer
// layout. Offsets are aligned to 4 bytes.
func buildVertexLayout(elements []InputElement) (gputypes.VertexBufferLayout, error) {
	if len(elements) == 0 {
		return gputypes.VertexBufferLayout{}, fmt.Errorf("%w: no input elements", ErrLayoutMismatch)
	}

	attrs := make([]gputypes.VertexAttribute, 0, len(elements))
	seen := make(map[uint32]string, len(elements))
	var offset uint64
	for _, e := range elements {
		n, ok := vertexFormatComponents(e.Format)
		if !ok {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("%w: %s has unsupported format %v", ErrLayoutMismatch, e.Semantic, e.Format)
		}
		if prev, dup := seen[e.Location]; dup {
			return gputypes.VertexBufferLayout{}, fmt.Errorf("%w: %s and %s share location %d", ErrLayoutMismatch, prev, e.Semantic, e.Location)
		}
		seen[e.Location] = e.Semantic

		offset = (offset + 3) &^ 3
		attrs = append(attrs, gputypes.VertexAttribute{
			Format:         e.Format,
			Offset:         offset,
			ShaderLocation: e.Location,
		})
		offset += uint64(n) * 4
	}

	return gputypes.VertexBufferLayout{
		ArrayStride: (offset + 3) &^ 3,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes:  attrs,
	}, nil
}
