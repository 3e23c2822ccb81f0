// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"slices"
	"testing"

	"github.com/gogpu/meshdraw"
)

func TestRegistryHandlesAreSequential(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)
	defer reg.Destroy()

	for want := Handle(0); want < 3; want++ {
		h, err := reg.AddObject(meshdraw.Triangle())
		if err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
		if h != want {
			t.Errorf("handle = %d, want %d", h, want)
		}
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestRegistryHandlesNeverReused(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)
	defer reg.Destroy()

	h0, _ := reg.AddObject(meshdraw.Triangle())
	h1, _ := reg.AddObject(meshdraw.Triangle())
	if err := reg.RemoveObject(h0); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}
	if err := reg.RemoveObject(h1); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}

	h2, err := reg.AddObject(meshdraw.Triangle())
	if err != nil {
		t.Fatalf("AddObject failed: %v", err)
	}
	if h2 != 2 {
		t.Errorf("handle after removals = %d, want 2", h2)
	}

	// A failed add does not consume a handle.
	if _, err := reg.AddObject(meshdraw.ObjectData{}); !errors.Is(err, ErrEmptyGeometry) {
		t.Fatalf("AddObject(empty) error = %v, want ErrEmptyGeometry", err)
	}
	h3, _ := reg.AddObject(meshdraw.Triangle())
	if h3 != 3 {
		t.Errorf("handle after failed add = %d, want 3", h3)
	}
}

func TestRegistryUnknownHandle(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)
	defer reg.Destroy()

	h, _ := reg.AddObject(meshdraw.Triangle())
	if err := reg.RemoveObject(h); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}

	if err := f.renderer.Clear(meshdraw.DefaultClearColor); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	tests := []struct {
		name string
		call func() error
	}{
		{"remove removed", func() error { return reg.RemoveObject(h) }},
		{"remove never added", func() error { return reg.RemoveObject(99) }},
		{"draw removed", func() error { return reg.Draw(h) }},
		{"draw never added", func() error { return reg.Draw(7) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if !errors.Is(err, ErrUnknownObject) {
				t.Errorf("error = %v, want ErrUnknownObject", err)
			}
			if IsFatal(err) {
				t.Error("lookup failure must be recoverable")
			}
		})
	}

	// The frame continues after a lookup failure.
	if err := f.renderer.Present(); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
	if len(f.pass.draws) != 0 {
		t.Errorf("draws = %d, want 0", len(f.pass.draws))
	}
}

func TestRegistryDrawTriangle(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)
	defer reg.Destroy()

	h, err := reg.AddObject(meshdraw.Triangle())
	if err != nil {
		t.Fatalf("AddObject failed: %v", err)
	}

	if err := f.renderer.Clear(meshdraw.DefaultClearColor); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := reg.Draw(h); err != nil {
		t.Fatalf("Draw failed: %v", err)
	}
	if err := f.renderer.Present(); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	want := drawCall{indexCount: 3, instanceCount: 1, firstIndex: 0, baseVertex: 0, firstInstance: 0}
	if len(f.pass.draws) != 1 || f.pass.draws[0] != want {
		t.Errorf("draws = %+v, want exactly %+v", f.pass.draws, want)
	}
}

func TestRegistryDrawAll(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)
	defer reg.Destroy()

	objects := []meshdraw.ObjectData{
		meshdraw.Triangle(),
		meshdraw.Quad(0, 0, 0.5, 0.5, [4]float32{1, 0, 0, 1}),
		meshdraw.Triangle(),
	}
	for _, obj := range objects {
		if _, err := reg.AddObject(obj); err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
	}
	if err := reg.RemoveObject(0); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}

	if got := reg.Handles(); !slices.Equal(got, []Handle{1, 2}) {
		t.Errorf("Handles() = %v, want [1 2]", got)
	}

	if err := f.renderer.Clear(meshdraw.DefaultClearColor); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if err := reg.DrawAll(); err != nil {
		t.Fatalf("DrawAll failed: %v", err)
	}
	if err := f.renderer.Present(); err != nil {
		t.Fatalf("Present failed: %v", err)
	}

	var counts []uint32
	for _, d := range f.pass.draws {
		counts = append(counts, d.indexCount)
	}
	if !slices.Equal(counts, []uint32{6, 3}) {
		t.Errorf("drawn index counts = %v, want [6 3]", counts)
	}
}

func TestRegistryDrawAllOutsideFrame(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)
	defer reg.Destroy()

	if _, err := reg.AddObject(meshdraw.Triangle()); err != nil {
		t.Fatalf("AddObject failed: %v", err)
	}
	if err := reg.DrawAll(); !errors.Is(err, ErrFrameNotStarted) {
		t.Errorf("DrawAll before Clear = %v, want ErrFrameNotStarted", err)
	}
}

func TestRegistryDestroyReleasesMeshes(t *testing.T) {
	f := newFixture(t)
	reg := newRegistry(t, f)

	var meshes []*MeshBuffer
	for i := 0; i < 3; i++ {
		h, err := reg.AddObject(meshdraw.Triangle())
		if err != nil {
			t.Fatalf("AddObject failed: %v", err)
		}
		m, ok := reg.Mesh(h)
		if !ok {
			t.Fatalf("Mesh(%d) not found", h)
		}
		meshes = append(meshes, m)
	}

	if err := reg.RemoveObject(1); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}
	if !meshes[1].Released() {
		t.Error("RemoveObject did not release the mesh")
	}

	reg.Destroy()
	if reg.Len() != 0 {
		t.Errorf("Len() = %d after Destroy, want 0", reg.Len())
	}
	for i, m := range meshes {
		if !m.Released() {
			t.Errorf("mesh %d not released", i)
		}
	}

	if _, err := reg.AddObject(meshdraw.Triangle()); !errors.Is(err, ErrRegistryDestroyed) {
		t.Errorf("AddObject after Destroy = %v, want ErrRegistryDestroyed", err)
	}
	reg.Destroy()
}

func newRegistry(t *testing.T, f *fixture) *Registry {
	t.Helper()
	reg, err := NewRegistry(f.state, f.renderer)
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	return reg
}

func TestNewRegistryErrors(t *testing.T) {
	f := newFixture(t)
	refs := f.state.Refs()

	if _, err := NewRegistry(f.state, nil); err == nil {
		t.Error("NewRegistry with nil renderer should fail")
	}

	released := newNoopState(t)
	released.Release()
	if _, err := NewRegistry(released, f.renderer); !errors.Is(err, ErrStateReleased) {
		t.Errorf("NewRegistry on released state = %v, want ErrStateReleased", err)
	}

	if got := f.state.Refs(); got != refs {
		t.Errorf("failed constructions changed refs: %d, want %d", got, refs)
	}
}

// The state stays alive while the registry or any of its meshes is held,
// even after every other owner has let go.
func TestRegistryHoldsStateReference(t *testing.T) {
	f := newFixture(t)
	base := f.state.Refs()

	reg := newRegistry(t, f)
	if got := f.state.Refs(); got != base+1 {
		t.Fatalf("refs after NewRegistry = %d, want %d", got, base+1)
	}

	h0, _ := reg.AddObject(meshdraw.Triangle())
	if _, err := reg.AddObject(meshdraw.Triangle()); err != nil {
		t.Fatalf("AddObject failed: %v", err)
	}
	if got := f.state.Refs(); got != base+3 {
		t.Errorf("refs after two adds = %d, want %d", got, base+3)
	}

	// A rejected add holds nothing.
	if _, err := reg.AddObject(meshdraw.ObjectData{}); err == nil {
		t.Fatal("AddObject(empty) should fail")
	}
	if got := f.state.Refs(); got != base+3 {
		t.Errorf("refs after failed add = %d, want %d", got, base+3)
	}

	if err := reg.RemoveObject(h0); err != nil {
		t.Fatalf("RemoveObject failed: %v", err)
	}
	if got := f.state.Refs(); got != base+2 {
		t.Errorf("refs after remove = %d, want %d", got, base+2)
	}

	reg.Destroy()
	if got := f.state.Refs(); got != base {
		t.Errorf("refs after Destroy = %d, want %d", got, base)
	}
	reg.Destroy()
	if got := f.state.Refs(); got != base {
		t.Errorf("refs after second Destroy = %d, want %d", got, base)
	}
}
