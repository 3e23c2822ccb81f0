// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshdraw"
)

// MeshBuffer is an immutable vertex buffer and index buffer pair.
//
// Both buffers are sized exactly to their contents and uploaded at
// creation. A MeshBuffer holds a reference on its State and has a single
// owner, which must call Release.
type MeshBuffer struct {
	state        *State
	device       hal.Device
	vertexBuffer hal.Buffer
	indexBuffer  hal.Buffer
	vertexCount  uint32
	indexCount   uint32
	released     bool
}

// NewMeshBuffer uploads vertices and indices to the GPU.
//
// Empty input returns ErrEmptyGeometry and an index past the last vertex
// returns ErrIndexOutOfRange. Buffer creation failures are *APIError.
func NewMeshBuffer(state *State, vertices []meshdraw.Vertex, indices []uint32) (*MeshBuffer, error) {
	if len(vertices) == 0 || len(indices) == 0 {
		return nil, fmt.Errorf("%w: %d vertices, %d indices", ErrEmptyGeometry, len(vertices), len(indices))
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return nil, fmt.Errorf("%w: indices[%d] = %d, %d vertices", ErrIndexOutOfRange, i, idx, len(vertices))
		}
	}

	device, queue, err := state.live()
	if err != nil {
		return nil, err
	}

	vb, err := createAndUploadBuffer(device, queue, "meshdraw_vertices",
		meshdraw.EncodeVertices(vertices), gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	ib, err := createAndUploadBuffer(device, queue, "meshdraw_indices",
		meshdraw.EncodeIndices(indices), gputypes.BufferUsageIndex|gputypes.BufferUsageCopyDst)
	if err != nil {
		device.DestroyBuffer(vb)
		return nil, err
	}

	Logger().Debug("render: mesh uploaded",
		"vertices", len(vertices),
		"indices", len(indices),
		"bytes", len(vertices)*meshdraw.VertexStride+len(indices)*meshdraw.IndexSize)

	state.Retain()
	return &MeshBuffer{
		state:        state,
		device:       device,
		vertexBuffer: vb,
		indexBuffer:  ib,
		vertexCount:  uint32(len(vertices)),
		indexCount:   uint32(len(indices)),
	}, nil
}

// NewMeshBufferFrom uploads the geometry held by obj.
func NewMeshBufferFrom(state *State, obj meshdraw.ObjectData) (*MeshBuffer, error) {
	return NewMeshBuffer(state, obj.Vertices, obj.Indices)
}

func createAndUploadBuffer(device hal.Device, queue hal.Queue, label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, apiError("create "+label, err)
	}
	if err := queue.WriteBuffer(buf, 0, data); err != nil {
		device.DestroyBuffer(buf)
		return nil, apiError("upload "+label, err)
	}
	return buf, nil
}

// IndexCount returns the number of indices to draw.
func (m *MeshBuffer) IndexCount() uint32 { return m.indexCount }

// VertexCount returns the number of vertices uploaded.
func (m *MeshBuffer) VertexCount() uint32 { return m.vertexCount }

// Released reports whether Release has been called.
func (m *MeshBuffer) Released() bool { return m.released }

// Release destroys both buffers and drops the mesh's reference on the
// State. It is safe to call more than once.
func (m *MeshBuffer) Release() {
	if m.released {
		return
	}
	m.released = true
	if m.device != nil {
		if m.indexBuffer != nil {
			m.device.DestroyBuffer(m.indexBuffer)
			m.indexBuffer = nil
		}
		if m.vertexBuffer != nil {
			m.device.DestroyBuffer(m.vertexBuffer)
			m.vertexBuffer = nil
		}
	}
	if m.state != nil {
		m.state.Release()
		m.state = nil
	}
}

// bind sets both buffers on pass: vertex slot 0 at offset 0 and 32-bit
// indices.
func (m *MeshBuffer) bind(pass hal.RenderPassEncoder) error {
	if m.released {
		return ErrReleased
	}
	pass.SetVertexBuffer(0, m.vertexBuffer, 0)
	pass.SetIndexBuffer(m.indexBuffer, gputypes.IndexFormatUint32, 0)
	return nil
}
