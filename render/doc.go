// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package render owns the GPU side of meshdraw: the device, the
// presentation target, the shader pipeline, mesh buffers, the per-frame
// renderer and the object registry.
//
// # Lifecycle
//
// A [State] is created once and shared. Every component created from it
// uses the same device and queue and holds a reference on the State, so
// the device lives until the last of them is released:
//
//	state, err := render.NewState()
//	if err != nil {
//	    return err // *APIError, fatal
//	}
//	defer state.Release()
//
// A [SwapchainTarget] wraps either a window [Surface] supplied by the host
// or a set of offscreen back buffers. The [ShaderPipeline] compiles the
// VertexShader and PixelShader sources and builds the input layout from
// the vertex bytecode. A [MeshBuffer] is an immutable pair of vertex and
// index buffers.
//
// # Frames
//
// Each frame runs Clear, then Bind and Draw for every mesh, then Present:
//
//	if err := renderer.Clear(meshdraw.DefaultClearColor); err != nil {
//	    return err
//	}
//	if err := registry.DrawAll(); err != nil {
//	    return err
//	}
//	return renderer.Present()
//
// Present is the only point at which the CPU waits for the GPU.
//
// # Errors
//
// Errors come in three classes. [*APIError] wraps a failed GPU call and
// [*CompileError] a rejected shader; both are fatal and [IsFatal] reports
// true. [ErrUnknownObject] is returned for a handle the [Registry] does not
// hold and is recoverable.
//
// # Logging
//
// The package is silent by default. Use [SetLogger] to route its
// diagnostics to a [log/slog.Logger].
package render
