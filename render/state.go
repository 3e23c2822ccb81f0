// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// State is the shared graphics state: one device and its immediate queue.
//
// A State is reference counted. NewState returns it with one reference;
// every long-lived holder calls Retain and later Release. The device is
// destroyed when the last reference is released, unless it was adopted
// from a host with StateFromProvider.
//
// State is not safe for concurrent use.
type State struct {
	instance    hal.Instance
	device      hal.Device
	queue       hal.Queue
	adapterName string
	refs        int
	external    bool
}

// NewState opens a hardware GPU device at the default feature level.
//
// Adapters are scanned in enumeration order and the first discrete or
// integrated GPU wins. There is no software fallback unless
// WithSoftwareAdapter is given. Every failure is returned as *APIError.
func NewState(opts ...StateOption) (*State, error) {
	o := defaultStateOptions()
	for _, opt := range opts {
		opt(&o)
	}

	factory := o.factory
	if factory == nil {
		backend, ok := hal.GetBackend(o.backend)
		if !ok {
			return nil, apiError("get backend", fmt.Errorf("%w: %v", ErrBackendUnavailable, o.backend))
		}
		factory = backend
	}

	instance, err := factory.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, apiError("create instance", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	types := make([]gputypes.DeviceType, len(adapters))
	for i := range adapters {
		types[i] = adapters[i].Info.DeviceType
	}
	idx, ok := pickAdapter(types, o.allowSoftware)
	if !ok {
		instance.Destroy()
		return nil, apiError("select adapter", fmt.Errorf("%w: %d adapters enumerated", ErrNoHardwareAdapter, len(adapters)))
	}
	selected := &adapters[idx]

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, apiError("open device", err)
	}

	Logger().Info("render: adapter selected",
		"name", selected.Info.Name,
		"type", selected.Info.DeviceType)

	return &State{
		instance:    instance,
		device:      openDev.Device,
		queue:       openDev.Queue,
		adapterName: selected.Info.Name,
		refs:        1,
	}, nil
}

// pickAdapter returns the index of the first discrete or integrated GPU.
// With allowSoftware it falls back to the first adapter of any type.
func pickAdapter(types []gputypes.DeviceType, allowSoftware bool) (int, bool) {
	for i, t := range types {
		if t == gputypes.DeviceTypeDiscreteGPU || t == gputypes.DeviceTypeIntegratedGPU {
			return i, true
		}
	}
	if allowSoftware && len(types) > 0 {
		return 0, true
	}
	return -1, false
}

// halBacked is implemented by devices that wrap a HAL device and queue,
// such as the *wgpu.Device a gogpu.App hands out through its provider.
type halBacked interface {
	HalDevice() hal.Device
	HalQueue() hal.Queue
}

// StateFromProvider adopts the device and queue of a host application.
// The returned State never destroys the host's device.
func StateFromProvider(provider gpucontext.DeviceProvider) (*State, error) {
	if provider == nil {
		return nil, apiError("adopt device", errors.New("nil provider"))
	}
	hb, ok := provider.Device().(halBacked)
	if !ok {
		return nil, apiError("adopt device", fmt.Errorf("provider device %T does not expose a HAL device", provider.Device()))
	}
	device, queue := hb.HalDevice(), hb.HalQueue()
	if device == nil || queue == nil {
		return nil, apiError("adopt device", errors.New("provider device has no HAL device or queue"))
	}
	name := provider.AdapterInfo().Name
	if name == "" {
		name = "host"
	}
	Logger().Info("render: adopted host device", "name", name)
	return &State{
		device:      device,
		queue:       queue,
		adapterName: name,
		refs:        1,
		external:    true,
	}, nil
}

// Device returns the GPU device, or nil once the State is released.
func (s *State) Device() hal.Device {
	if s.refs <= 0 {
		return nil
	}
	return s.device
}

// Context returns the immediate command queue, or nil once the State is
// released.
func (s *State) Context() hal.Queue {
	if s.refs <= 0 {
		return nil
	}
	return s.queue
}

// AdapterName returns the name of the selected adapter.
func (s *State) AdapterName() string { return s.adapterName }

// Refs returns the current reference count.
func (s *State) Refs() int { return s.refs }

// Retain adds a reference.
func (s *State) Retain() {
	if s.refs <= 0 {
		Logger().Warn("render: retain on released state")
		return
	}
	s.refs++
}

// Release drops a reference and destroys the device when none remain.
// Extra calls are ignored.
func (s *State) Release() {
	if s.refs <= 0 {
		return
	}
	s.refs--
	if s.refs > 0 {
		return
	}
	if !s.external {
		if s.device != nil {
			s.device.Destroy()
		}
		if s.instance != nil {
			s.instance.Destroy()
		}
	}
	s.device = nil
	s.queue = nil
	s.instance = nil
	Logger().Debug("render: graphics state released")
}

// live returns the device and queue or ErrStateReleased.
func (s *State) live() (hal.Device, hal.Queue, error) {
	if s == nil || s.refs <= 0 || s.device == nil {
		return nil, nil, ErrStateReleased
	}
	return s.device, s.queue, nil
}
