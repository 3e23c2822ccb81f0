// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshdraw"
)

// beginPassFunc opens the frame's render pass on enc.
type beginPassFunc func(enc hal.CommandEncoder, desc *hal.RenderPassDescriptor) hal.RenderPassEncoder

func halBeginPass(enc hal.CommandEncoder, desc *hal.RenderPassDescriptor) hal.RenderPassEncoder {
	return enc.BeginRenderPass(desc)
}

// FrameStats counts the work recorded in one frame.
type FrameStats struct {
	// Frame is the 1-based number of the presented frame.
	Frame   uint64
	Draws   int
	Indices uint64
}

// Renderer records and presents frames: Clear opens a frame, Bind and
// Draw record indexed draws, Present submits and flips.
//
// Present is the only place the renderer waits for the GPU. A Renderer is
// used from one goroutine.
type Renderer struct {
	state    *State
	device   hal.Device
	queue    hal.Queue
	target   *SwapchainTarget
	pipeline *ShaderPipeline

	submitTimeout time.Duration
	beginPass     beginPassFunc

	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	bound   *MeshBuffer

	frame  FrameStats
	last   FrameStats
	frames uint64
}

// NewRenderer creates a renderer drawing with pipeline into target. The
// target and pipeline stay owned by the caller.
func NewRenderer(state *State, target *SwapchainTarget, pipeline *ShaderPipeline, opts ...RendererOption) (*Renderer, error) {
	if target == nil || pipeline == nil {
		return nil, errors.New("render: renderer needs a target and a pipeline")
	}
	device, queue, err := state.live()
	if err != nil {
		return nil, err
	}
	o := defaultRendererOptions()
	for _, opt := range opts {
		opt(&o)
	}
	state.Retain()
	return &Renderer{
		state:         state,
		device:        device,
		queue:         queue,
		target:        target,
		pipeline:      pipeline,
		submitTimeout: o.submitTimeout,
		beginPass:     o.beginPass,
	}, nil
}

// InFrame reports whether a frame is open.
func (r *Renderer) InFrame() bool { return r.pass != nil }

// Clear opens a frame: it starts a command encoder and a render pass that
// clears the target to c, then applies the pipeline state.
func (r *Renderer) Clear(c meshdraw.Color8) error {
	if r.pass != nil {
		return ErrFrameInProgress
	}
	if r.device == nil {
		return ErrStateReleased
	}

	view, err := r.target.view()
	if err != nil {
		return err
	}

	encoder, err := r.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "meshdraw_frame_encoder",
	})
	if err != nil {
		return apiError("create command encoder", err)
	}
	if err := encoder.BeginEncoding("meshdraw_frame"); err != nil {
		encoder.DiscardEncoding()
		return apiError("begin encoding", err)
	}

	pass := r.beginPass(encoder, &hal.RenderPassDescriptor{
		Label: "meshdraw_frame_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: r.target.ClearValue(c),
		}},
	})

	w, h := r.target.Size()
	r.pipeline.Bind(pass, w, h)

	r.encoder = encoder
	r.pass = pass
	r.bound = nil
	r.frame = FrameStats{Frame: r.frames + 1}
	return nil
}

// Bind selects m for the following Draw calls.
func (r *Renderer) Bind(m *MeshBuffer) error {
	if r.pass == nil {
		return ErrFrameNotStarted
	}
	if m == nil {
		return ErrNoMeshBound
	}
	if err := m.bind(r.pass); err != nil {
		return err
	}
	r.bound = m
	return nil
}

// Draw records one indexed draw of indexCount indices from the bound mesh,
// starting at index 0 with base vertex 0.
func (r *Renderer) Draw(indexCount uint32) error {
	if r.pass == nil {
		return ErrFrameNotStarted
	}
	if r.bound == nil {
		return ErrNoMeshBound
	}
	if r.bound.Released() {
		return ErrReleased
	}
	r.pass.DrawIndexed(indexCount, 1, 0, 0, 0)
	r.frame.Draws++
	r.frame.Indices += uint64(indexCount)
	return nil
}

// DrawMesh binds m and draws all of its indices.
func (r *Renderer) DrawMesh(m *MeshBuffer) error {
	if err := r.Bind(m); err != nil {
		return err
	}
	return r.Draw(m.IndexCount())
}

// Present ends the frame, submits it, waits for the GPU and presents the
// target. Every failure is an *APIError; the frame is closed either way.
func (r *Renderer) Present() error {
	if r.pass == nil {
		return ErrFrameNotStarted
	}
	pass, encoder := r.pass, r.encoder
	r.pass, r.encoder, r.bound = nil, nil, nil

	pass.End()
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return apiError("end encoding", err)
	}
	defer r.device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(r.queue, cmdBuf, r.submitTimeout); err != nil {
		return err
	}
	if err := r.target.Present(); err != nil {
		return err
	}

	r.frames++
	r.last = r.frame
	return nil
}

// Abort discards an open frame without submitting it.
func (r *Renderer) Abort() {
	if r.pass == nil {
		return
	}
	r.pass.End()
	r.encoder.DiscardEncoding()
	r.pass, r.encoder, r.bound = nil, nil, nil
}

// Stats returns the counters of the last presented frame.
func (r *Renderer) Stats() FrameStats { return r.last }

// Frames returns the number of presented frames.
func (r *Renderer) Frames() uint64 { return r.frames }

// Destroy aborts any open frame and drops the renderer's reference on the
// State.
func (r *Renderer) Destroy() {
	if r.device == nil {
		return
	}
	r.Abort()
	r.device = nil
	r.queue = nil
	r.state.Release()
}
