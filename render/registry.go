// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/meshdraw"
)

// Handle identifies an object in a Registry. Handles are assigned from 0
// upwards and never reused.
type Handle uint64

// Registry maps handles to uploaded meshes so a frame can draw any number
// of objects. It owns the meshes it creates and holds a reference on the
// State until Destroy.
type Registry struct {
	state     *State
	renderer  *Renderer
	objects   map[Handle]*MeshBuffer
	next      Handle
	destroyed bool
}

// NewRegistry creates an empty registry drawing through renderer.
func NewRegistry(state *State, renderer *Renderer) (*Registry, error) {
	if renderer == nil {
		return nil, errors.New("render: registry needs a renderer")
	}
	if _, _, err := state.live(); err != nil {
		return nil, err
	}
	state.Retain()
	return &Registry{
		state:    state,
		renderer: renderer,
		objects:  make(map[Handle]*MeshBuffer),
	}, nil
}

// AddObject uploads obj and returns its handle. The counter only advances
// on success.
func (r *Registry) AddObject(obj meshdraw.ObjectData) (Handle, error) {
	if r.destroyed {
		return 0, ErrRegistryDestroyed
	}
	mesh, err := NewMeshBufferFrom(r.state, obj)
	if err != nil {
		return 0, err
	}
	h := r.next
	r.next++
	r.objects[h] = mesh
	Logger().Debug("render: object added", "handle", uint64(h), "indices", mesh.IndexCount())
	return h, nil
}

// RemoveObject releases the object's mesh and forgets the handle.
func (r *Registry) RemoveObject(h Handle) error {
	mesh, ok := r.objects[h]
	if !ok {
		return fmt.Errorf("%w: handle %d", ErrUnknownObject, h)
	}
	mesh.Release()
	delete(r.objects, h)
	return nil
}

// Draw binds the object's mesh and draws all of its indices. The frame
// must have been opened with Clear.
func (r *Registry) Draw(h Handle) error {
	mesh, ok := r.objects[h]
	if !ok {
		return fmt.Errorf("%w: handle %d", ErrUnknownObject, h)
	}
	return r.renderer.DrawMesh(mesh)
}

// DrawAll draws every object in ascending handle order and stops at the
// first error.
func (r *Registry) DrawAll() error {
	for _, h := range r.Handles() {
		if err := r.Draw(h); err != nil {
			return err
		}
	}
	return nil
}

// Mesh returns the mesh stored under h.
func (r *Registry) Mesh(h Handle) (*MeshBuffer, bool) {
	m, ok := r.objects[h]
	return m, ok
}

// Len returns the number of live objects.
func (r *Registry) Len() int { return len(r.objects) }

// Handles returns the live handles in ascending order.
func (r *Registry) Handles() []Handle {
	hs := make([]Handle, 0, len(r.objects))
	for h := range r.objects {
		hs = append(hs, h)
	}
	slices.Sort(hs)
	return hs
}

// Destroy releases every mesh and the registry's reference on the State.
// The handle counter is not reset. Extra calls are ignored.
func (r *Registry) Destroy() {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for h, m := range r.objects {
		m.Release()
		delete(r.objects, h)
	}
	r.state.Release()
}
