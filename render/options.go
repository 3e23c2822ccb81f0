// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// InstanceFactory creates HAL instances. Registered hal backends and
// noop.API satisfy it.
type InstanceFactory interface {
	CreateInstance(desc *hal.InstanceDescriptor) (hal.Instance, error)
}

// StateOption configures NewState.
type StateOption func(*stateOptions)

type stateOptions struct {
	backend       gputypes.Backend
	factory       InstanceFactory
	allowSoftware bool
}

func defaultStateOptions() stateOptions {
	return stateOptions{
		backend: gputypes.BackendVulkan,
	}
}

// WithBackend selects a registered HAL backend by type. The default is
// Vulkan.
func WithBackend(b gputypes.Backend) StateOption {
	return func(o *stateOptions) {
		o.backend = b
	}
}

// WithHAL uses f to create the instance instead of looking up a registered
// backend. Tests pass &noop.API{}.
func WithHAL(f InstanceFactory) StateOption {
	return func(o *stateOptions) {
		o.factory = f
	}
}

// WithSoftwareAdapter accepts CPU and virtual adapters when no discrete or
// integrated GPU is found.
func WithSoftwareAdapter() StateOption {
	return func(o *stateOptions) {
		o.allowSoftware = true
	}
}

// TargetOption configures NewOffscreenTarget.
type TargetOption func(*targetOptions)

type targetOptions struct {
	bufferCount int
	format      gputypes.TextureFormat
}

const defaultBufferCount = 2

func defaultTargetOptions() targetOptions {
	return targetOptions{
		bufferCount: defaultBufferCount,
		format:      gputypes.TextureFormatRGBA8Unorm,
	}
}

// WithBufferCount sets the number of offscreen back buffers. Values below
// one are ignored.
func WithBufferCount(n int) TargetOption {
	return func(o *targetOptions) {
		if n >= 1 {
			o.bufferCount = n
		}
	}
}

// WithTargetFormat sets the colour format of the offscreen buffers.
// Snapshot only decodes RGBA8Unorm and BGRA8Unorm.
func WithTargetFormat(f gputypes.TextureFormat) TargetOption {
	return func(o *targetOptions) {
		o.format = f
	}
}

// RendererOption configures NewRenderer.
type RendererOption func(*rendererOptions)

type rendererOptions struct {
	submitTimeout time.Duration
	beginPass     beginPassFunc
}

const defaultSubmitTimeout = 5 * time.Second

func defaultRendererOptions() rendererOptions {
	return rendererOptions{
		submitTimeout: defaultSubmitTimeout,
		beginPass:     halBeginPass,
	}
}

// WithSubmitTimeout bounds the wait for the GPU in Present.
func WithSubmitTimeout(d time.Duration) RendererOption {
	return func(o *rendererOptions) {
		if d > 0 {
			o.submitTimeout = d
		}
	}
}

// withPassEncoder replaces the way a frame's render pass is opened.
func withPassEncoder(f beginPassFunc) RendererOption {
	return func(o *rendererOptions) {
		o.beginPass = f
	}
}
