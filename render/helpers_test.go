// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"testing"

	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"

	"github.com/gogpu/meshdraw/shaders"
)

// newNoopState opens a State on the noop backend. Every remaining
// reference is dropped when the test ends.
func newNoopState(t *testing.T) *State {
	t.Helper()
	s, err := NewState(WithHAL(&noop.API{}), WithSoftwareAdapter())
	if err != nil {
		t.Fatalf("NewState(noop) failed: %v", err)
	}
	t.Cleanup(func() {
		for s.Refs() > 0 {
			s.Release()
		}
	})
	return s
}

type drawCall struct {
	indexCount    uint32
	instanceCount uint32
	firstIndex    uint32
	baseVertex    int32
	firstInstance uint32
}

// recordingPass wraps a real pass encoder and records draws and the
// viewport.
type recordingPass struct {
	hal.RenderPassEncoder

	desc      *hal.RenderPassDescriptor
	passes    int
	pipelines int
	draws     []drawCall
	viewport  [6]float32
}

func (p *recordingPass) SetPipeline(pipeline hal.RenderPipeline) {
	p.pipelines++
	p.RenderPassEncoder.SetPipeline(pipeline)
}

func (p *recordingPass) SetViewport(x, y, width, height, minDepth, maxDepth float32) {
	p.viewport = [6]float32{x, y, width, height, minDepth, maxDepth}
}

func (p *recordingPass) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	p.draws = append(p.draws, drawCall{indexCount, instanceCount, firstIndex, baseVertex, firstInstance})
	p.RenderPassEncoder.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *recordingPass) option() RendererOption {
	return withPassEncoder(func(enc hal.CommandEncoder, desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
		p.RenderPassEncoder = enc.BeginRenderPass(desc)
		p.desc = desc
		p.passes++
		return p
	})
}

type fixture struct {
	state    *State
	target   *SwapchainTarget
	pipeline *ShaderPipeline
	renderer *Renderer
	pass     *recordingPass
}

// newFixture builds the full chain on the noop backend with a 64x48
// offscreen target and a recording pass.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := newNoopState(t)

	target, err := NewOffscreenTarget(state, 64, 48)
	if err != nil {
		t.Fatalf("NewOffscreenTarget failed: %v", err)
	}
	t.Cleanup(target.Destroy)

	pipeline, err := NewShaderPipeline(state, shaders.Embedded(), target.Format())
	if err != nil {
		t.Fatalf("NewShaderPipeline failed: %v", err)
	}
	t.Cleanup(pipeline.Destroy)

	rec := &recordingPass{}
	renderer, err := NewRenderer(state, target, pipeline, rec.option())
	if err != nil {
		t.Fatalf("NewRenderer failed: %v", err)
	}
	t.Cleanup(renderer.Destroy)

	return &fixture{
		state:    state,
		target:   target,
		pipeline: pipeline,
		renderer: renderer,
		pass:     rec,
	}
}
