// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"
	"slices"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshdraw/shaders"
)

// ShaderPipeline holds the compiled vertex and pixel stages, the input
// layout derived from the vertex bytecode and the render pipeline built
// from them. It is created once and bound at the start of every frame.
type ShaderPipeline struct {
	state  *State
	device hal.Device
	format gputypes.TextureFormat

	vertex   *Bytecode
	fragment *Bytecode

	vertexModule   hal.ShaderModule
	fragmentModule hal.ShaderModule
	layout         gputypes.VertexBufferLayout
	hasLayout      bool

	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
}

// NewShaderPipeline loads VertexShader and PixelShader from src, compiles
// them with entry points vs_main and fs_main, builds the default input
// layout and creates a triangle-list pipeline writing to format.
func NewShaderPipeline(state *State, src shaders.Source, format gputypes.TextureFormat) (*ShaderPipeline, error) {
	device, _, err := state.live()
	if err != nil {
		return nil, err
	}

	vs, err := compileNamed(src, shaders.Vertex, shaders.VertexEntry, StageVertex)
	if err != nil {
		return nil, err
	}
	fs, err := compileNamed(src, shaders.Pixel, shaders.PixelEntry, StageFragment)
	if err != nil {
		return nil, err
	}

	p := &ShaderPipeline{
		state:    state,
		device:   device,
		format:   format,
		vertex:   vs,
		fragment: fs,
	}

	p.vertexModule, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "meshdraw_vertex_shader",
		Source: hal.ShaderSource{SPIRV: vs.words},
	})
	if err != nil {
		return nil, apiError("create vertex shader", err)
	}
	p.fragmentModule, err = device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "meshdraw_pixel_shader",
		Source: hal.ShaderSource{SPIRV: fs.words},
	})
	if err != nil {
		p.destroyResources()
		return nil, apiError("create pixel shader", err)
	}

	if err := p.BuildInputLayout(vs, DefaultInputElements); err != nil {
		p.destroyResources()
		return nil, err
	}
	if err := p.createPipeline(); err != nil {
		p.destroyResources()
		return nil, err
	}

	state.Retain()
	return p, nil
}

func compileNamed(src shaders.Source, name, entry string, stage Stage) (*Bytecode, error) {
	code, err := src.Source(name)
	if err != nil {
		return nil, &CompileError{
			Entry:      entry,
			Stage:      stage,
			Status:     "source not found",
			Diagnostic: err.Error(),
		}
	}
	return CompileShader(code, entry, stage)
}

// BuildInputLayout builds the vertex buffer layout from elements for the
// given vertex bytecode, which must be this pipeline's vertex stage. Every
// @location input of the vertex entry point must be fed by an element of
// the same width. If the pipeline already exists it is rebuilt with the
// new layout.
func (p *ShaderPipeline) BuildInputLayout(vertex *Bytecode, elements []InputElement) error {
	if vertex == nil || vertex.Stage != StageVertex {
		return apiError("create input layout", fmt.Errorf("%w: bytecode is not a vertex stage", ErrLayoutMismatch))
	}
	if vertex != p.vertex && !slices.Equal(vertex.words, p.vertex.words) {
		return apiError("create input layout", fmt.Errorf("%w: bytecode of %q is not the pipeline's vertex shader", ErrLayoutMismatch, vertex.Entry))
	}
	layout, err := buildVertexLayout(elements)
	if err != nil {
		return apiError("create input layout", err)
	}
	if err := matchInputs(vertex.inputs, elements); err != nil {
		return apiError("create input layout", err)
	}
	p.layout = layout
	p.hasLayout = true

	Logger().Debug("render: input layout built",
		"attributes", len(layout.Attributes),
		"stride", layout.ArrayStride)

	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
		return p.createPipeline()
	}
	return nil
}

func (p *ShaderPipeline) createPipeline() error {
	if !p.hasLayout {
		return apiError("create render pipeline", fmt.Errorf("%w: no input layout", ErrLayoutMismatch))
	}

	if p.pipeLayout == nil {
		pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
			Label:            "meshdraw_pipe_layout",
			BindGroupLayouts: []hal.BindGroupLayout{},
		})
		if err != nil {
			return apiError("create pipeline layout", err)
		}
		p.pipeLayout = pipeLayout
	}

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "meshdraw_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.vertexModule,
			EntryPoint: p.vertex.Entry,
			Buffers:    []gputypes.VertexBufferLayout{p.layout},
		},
		Fragment: &hal.FragmentState{
			Module:     p.fragmentModule,
			EntryPoint: p.fragment.Entry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    p.format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return apiError("create render pipeline", err)
	}
	p.pipeline = pipeline

	Logger().Debug("render: pipeline created", "format", p.format)
	return nil
}

// VertexBytecode returns the retained vertex stage.
func (p *ShaderPipeline) VertexBytecode() *Bytecode { return p.vertex }

// PixelBytecode returns the retained pixel stage.
func (p *ShaderPipeline) PixelBytecode() *Bytecode { return p.fragment }

// Layout returns the vertex buffer layout in use.
func (p *ShaderPipeline) Layout() gputypes.VertexBufferLayout { return p.layout }

// Format returns the colour format the pipeline renders to.
func (p *ShaderPipeline) Format() gputypes.TextureFormat { return p.format }

// State returns the fixed-function state for a target of the given size:
// the pipeline and a full-extent viewport with depth range [0, 1].
func (p *ShaderPipeline) State(width, height uint32) PipelineState {
	return PipelineState{
		Pipeline: p.pipeline,
		Viewport: Viewport{
			Width:    float32(width),
			Height:   float32(height),
			MinDepth: 0,
			MaxDepth: 1,
		},
	}
}

// Bind applies the pipeline state for a target of the given size.
func (p *ShaderPipeline) Bind(pass hal.RenderPassEncoder, width, height uint32) {
	p.State(width, height).Apply(pass)
}

// Destroy releases the pipeline, its layout and both shader modules, and
// drops the pipeline's reference on the State.
func (p *ShaderPipeline) Destroy() {
	if p.device == nil {
		return
	}
	p.destroyResources()
	p.device = nil
	p.state.Release()
}

func (p *ShaderPipeline) destroyResources() {
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.fragmentModule != nil {
		p.device.DestroyShaderModule(p.fragmentModule)
		p.fragmentModule = nil
	}
	if p.vertexModule != nil {
		p.device.DestroyShaderModule(p.vertexModule)
		p.vertexModule = nil
	}
}

// Viewport maps normalized device coordinates to the target.
type Viewport struct {
	X, Y          float32
	Width, Height float32
	MinDepth      float32
	MaxDepth      float32
}

// PipelineState is the state re-applied at the start of every frame.
type PipelineState struct {
	Pipeline hal.RenderPipeline
	Viewport Viewport
}

// Apply sets the pipeline and viewport on pass.
func (s PipelineState) Apply(pass hal.RenderPassEncoder) {
	v := s.Viewport
	pass.SetPipeline(s.Pipeline)
	pass.SetViewport(v.X, v.Y, v.Width, v.Height, v.MinDepth, v.MaxDepth)
}
