// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"image"
	"time"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshdraw"
)

// Surface is a window surface owned by the host. The host creates it,
// reconfigures it on resize and owns the event loop.
type Surface interface {
	// Format returns the colour format of the surface textures.
	Format() gputypes.TextureFormat

	// Size returns the current surface size in pixels.
	Size() (width, height uint32)

	// CurrentView returns a view of the texture to render this frame.
	CurrentView() (hal.TextureView, error)

	// Present shows the rendered texture. Hosts that present on their own
	// after the frame callback return nil.
	Present() error
}

// backBuffer is one offscreen colour buffer and its view.
type backBuffer struct {
	tex  hal.Texture
	view hal.TextureView
}

// SwapchainTarget is the presentation target of a Renderer: a window
// surface, or a ring of offscreen back buffers that Present flips.
//
// The render-target view always refers to the current back buffer. It is
// derived again after every Present and Resize.
type SwapchainTarget struct {
	state  *State
	device hal.Device
	queue  hal.Queue

	surface Surface

	buffers []backBuffer
	current int
	front   int

	format        gputypes.TextureFormat
	width, height uint32

	rtv      hal.TextureView
	presents uint64
}

// NewSwapchainTarget wraps a host window surface. A zero width or height
// is taken from the surface.
func NewSwapchainTarget(state *State, surface Surface, width, height uint32) (*SwapchainTarget, error) {
	if surface == nil {
		return nil, ErrNilSurface
	}
	device, queue, err := state.live()
	if err != nil {
		return nil, err
	}
	if width == 0 || height == 0 {
		width, height = surface.Size()
	}
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	t := &SwapchainTarget{
		state:   state,
		device:  device,
		queue:   queue,
		surface: surface,
		front:   -1,
		format:  surface.Format(),
		width:   width,
		height:  height,
	}
	state.Retain()
	Logger().Info("render: surface target created",
		"width", width,
		"height", height,
		"format", t.format)
	return t, nil
}

// NewOffscreenTarget creates a swapchain of offscreen back buffers. It is
// used for headless runs and tests, and supports Snapshot.
func NewOffscreenTarget(state *State, width, height uint32, opts ...TargetOption) (*SwapchainTarget, error) {
	if width == 0 || height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	device, queue, err := state.live()
	if err != nil {
		return nil, err
	}
	o := defaultTargetOptions()
	for _, opt := range opts {
		opt(&o)
	}

	t := &SwapchainTarget{
		state:   state,
		device:  device,
		queue:   queue,
		buffers: make([]backBuffer, o.bufferCount),
		front:   -1,
		format:  o.format,
		width:   width,
		height:  height,
	}
	if err := t.createBuffers(); err != nil {
		return nil, err
	}
	state.Retain()
	Logger().Info("render: offscreen target created",
		"width", width,
		"height", height,
		"buffers", o.bufferCount,
		"format", t.format)
	return t, nil
}

func (t *SwapchainTarget) createBuffers() error {
	size := hal.Extent3D{Width: t.width, Height: t.height, DepthOrArrayLayers: 1}
	for i := range t.buffers {
		tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
			Label:         fmt.Sprintf("meshdraw_back_buffer_%d", i),
			Size:          size,
			MipLevelCount: 1,
			SampleCount:   1,
			Dimension:     gputypes.TextureDimension2D,
			Format:        t.format,
			Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			t.destroyBuffers()
			return apiError("create back buffer", err)
		}
		t.buffers[i].tex = tex

		view, err := t.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
			Label: fmt.Sprintf("meshdraw_back_buffer_%d_view", i),
		})
		if err != nil {
			t.destroyBuffers()
			return apiError("create back buffer view", err)
		}
		t.buffers[i].view = view
	}
	t.current = 0
	t.front = -1
	t.rtv = nil
	return nil
}

func (t *SwapchainTarget) destroyBuffers() {
	t.rtv = nil
	for i := range t.buffers {
		if t.buffers[i].view != nil {
			t.device.DestroyTextureView(t.buffers[i].view)
			t.buffers[i].view = nil
		}
		if t.buffers[i].tex != nil {
			t.device.DestroyTexture(t.buffers[i].tex)
			t.buffers[i].tex = nil
		}
	}
}

// Offscreen reports whether the target owns its back buffers.
func (t *SwapchainTarget) Offscreen() bool { return t.surface == nil }

// Format returns the colour format of the back buffers.
func (t *SwapchainTarget) Format() gputypes.TextureFormat { return t.format }

// Size returns the target size in pixels.
func (t *SwapchainTarget) Size() (width, height uint32) { return t.width, t.height }

// BufferCount returns the number of offscreen back buffers, or zero for a
// surface target.
func (t *SwapchainTarget) BufferCount() int { return len(t.buffers) }

// Presents returns how many frames have been presented.
func (t *SwapchainTarget) Presents() uint64 { return t.presents }

// ClearValue converts an 8-bit clear colour to the normalized value used
// by the render pass.
func (t *SwapchainTarget) ClearValue(c meshdraw.Color8) gputypes.Color {
	n := c.Normalize()
	return gputypes.Color{R: n.R, G: n.G, B: n.B, A: n.A}
}

// CreateRenderTargetView derives the render-target view from the current
// back buffer.
func (t *SwapchainTarget) CreateRenderTargetView() (hal.TextureView, error) {
	if t.device == nil {
		return nil, ErrStateReleased
	}
	if t.surface != nil {
		view, err := t.surface.CurrentView()
		if err != nil {
			return nil, apiError("acquire surface texture", err)
		}
		if view == nil {
			return nil, apiError("acquire surface texture", errors.New("surface returned no view"))
		}
		t.rtv = view
		return view, nil
	}
	t.rtv = t.buffers[t.current].view
	Logger().Debug("render: render target view derived", "buffer", t.current)
	return t.rtv, nil
}

// view returns the render-target view, deriving it when needed.
func (t *SwapchainTarget) view() (hal.TextureView, error) {
	if t.rtv != nil {
		return t.rtv, nil
	}
	return t.CreateRenderTargetView()
}

// Resize recreates the back buffers and the render-target view at the new
// size. Resizing to the current size is a no-op.
func (t *SwapchainTarget) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	if t.device == nil {
		return ErrStateReleased
	}
	if width == t.width && height == t.height {
		return nil
	}
	t.width, t.height = width, height
	t.rtv = nil
	if t.surface != nil {
		return nil
	}
	t.destroyBuffers()
	if err := t.createBuffers(); err != nil {
		return err
	}
	Logger().Debug("render: target resized", "width", width, "height", height)
	return nil
}

// Present flips the rendered back buffer to the front. Failure is an
// *APIError.
func (t *SwapchainTarget) Present() error {
	if t.device == nil {
		return ErrStateReleased
	}
	if t.surface != nil {
		if err := t.surface.Present(); err != nil {
			return apiError("present", err)
		}
	} else {
		t.front = t.current
		t.current = (t.current + 1) % len(t.buffers)
	}
	t.rtv = nil
	t.presents++
	return nil
}

// Snapshot reads the most recently presented back buffer into an image.
// Before the first Present it reads the current back buffer.
func (t *SwapchainTarget) Snapshot() (*image.RGBA, error) {
	if t.device == nil {
		return nil, ErrStateReleased
	}
	if t.surface != nil {
		return nil, ErrNotOffscreen
	}
	idx := t.front
	if idx < 0 {
		idx = t.current
	}
	return readTexture(t.device, t.queue, t.buffers[idx].tex, t.format, t.width, t.height)
}

// copyPitchAlignment is the required BytesPerRow alignment of a texture to
// buffer copy.
const copyPitchAlignment = 256

func readTexture(device hal.Device, queue hal.Queue, tex hal.Texture, format gputypes.TextureFormat, w, h uint32) (*image.RGBA, error) {
	swapRB := false
	switch format {
	case gputypes.TextureFormatRGBA8Unorm:
	case gputypes.TextureFormatBGRA8Unorm:
		swapRB = true
	default:
		return nil, fmt.Errorf("render: snapshot of format %v is not supported", format)
	}

	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "meshdraw_snapshot_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, apiError("create snapshot buffer", err)
	}
	defer device.DestroyBuffer(staging)

	encoder, err := device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "meshdraw_snapshot_encoder",
	})
	if err != nil {
		return nil, apiError("create command encoder", err)
	}
	if err := encoder.BeginEncoding("meshdraw_snapshot"); err != nil {
		encoder.DiscardEncoding()
		return nil, apiError("begin encoding", err)
	}

	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		encoder.DiscardEncoding()
		return nil, apiError("end encoding", err)
	}
	defer device.FreeCommandBuffer(cmdBuf)

	if err := submitAndWait(queue, cmdBuf, defaultSubmitTimeout); err != nil {
		return nil, err
	}

	mapping, err := device.MapBuffer(staging, 0, stagingSize)
	if err != nil {
		return nil, apiError("map snapshot buffer", err)
	}
	readback := make([]byte, stagingSize)
	copy(readback, unsafe.Slice((*byte)(mapping.Ptr), stagingSize))
	if err := device.UnmapBuffer(staging); err != nil {
		return nil, apiError("unmap snapshot buffer", err)
	}

	img := image.NewRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := 0; row < int(h); row++ {
		src := readback[row*int(alignedBytesPerRow) : row*int(alignedBytesPerRow)+int(bytesPerRow)]
		dst := img.Pix[row*img.Stride : row*img.Stride+int(bytesPerRow)]
		copy(dst, src)
		if swapRB {
			for i := 0; i < len(dst); i += 4 {
				dst[i], dst[i+2] = dst[i+2], dst[i]
			}
		}
	}
	return img, nil
}

// submitPollInterval is how often submitAndWait polls for completion.
const submitPollInterval = 100 * time.Microsecond

// submitAndWait submits one command buffer and polls the queue until its
// submission index completes or timeout passes.
func submitAndWait(queue hal.Queue, cmdBuf hal.CommandBuffer, timeout time.Duration) error {
	idx, err := queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		return apiError("submit", fmt.Errorf("%w: %w", ErrDeviceLost, err))
	}
	deadline := time.Now().Add(timeout)
	for queue.PollCompleted() < idx {
		if time.Now().After(deadline) {
			return apiError("wait for GPU", fmt.Errorf("%w: %v", ErrSubmitTimeout, timeout))
		}
		time.Sleep(submitPollInterval)
	}
	return nil
}

// Destroy releases the back buffers and the target's reference on the
// State. A surface stays owned by the host.
func (t *SwapchainTarget) Destroy() {
	if t.device == nil {
		return
	}
	t.destroyBuffers()
	t.device = nil
	t.queue = nil
	t.state.Release()
}
