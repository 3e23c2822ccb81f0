// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import (
	"errors"
	"fmt"
)

// Sentinel causes carried inside an *APIError.
var (
	// ErrNoHardwareAdapter is returned when no discrete or integrated GPU
	// is available and software adapters are not allowed.
	ErrNoHardwareAdapter = errors.New("render: no hardware adapter")

	// ErrBackendUnavailable is returned when the requested HAL backend is
	// not registered in the binary.
	ErrBackendUnavailable = errors.New("render: HAL backend not available")

	// ErrDeviceLost is returned when a frame is submitted but the queue
	// rejects it.
	ErrDeviceLost = errors.New("render: device lost")

	// ErrSubmitTimeout is returned when the queue does not report the
	// frame's submission complete within the renderer's submit timeout.
	ErrSubmitTimeout = errors.New("render: GPU did not finish in time")

	// ErrLayoutMismatch is returned when an input layout is built from
	// bytecode that is not the pipeline's vertex shader, or when the
	// described elements cannot feed it.
	ErrLayoutMismatch = errors.New("render: input layout does not match vertex shader")
)

// Recoverable and usage errors.
var (
	// ErrUnknownObject is returned by the registry for a handle it does
	// not hold. The caller may continue.
	ErrUnknownObject = errors.New("render: unknown object")

	ErrStateReleased   = errors.New("render: graphics state released")
	ErrEmptyGeometry   = errors.New("render: mesh has no vertices or no indices")
	ErrIndexOutOfRange = errors.New("render: index references a missing vertex")
	ErrReleased        = errors.New("render: mesh buffer released")
	ErrFrameNotStarted = errors.New("render: frame not started, call Clear first")
	ErrFrameInProgress = errors.New("render: frame already in progress")
	ErrNoMeshBound     = errors.New("render: no mesh bound")
	ErrInvalidSize     = errors.New("render: width and height must be positive")
	ErrNotOffscreen    = errors.New("render: target has no offscreen buffers")
	ErrNilSurface      = errors.New("render: nil surface")

	ErrRegistryDestroyed = errors.New("render: registry destroyed")
)

// APIError reports a failed GPU API call. It is fatal: the device or one of
// its resources could not be created, used or presented.
type APIError struct {
	// Op names the call that failed, e.g. "create vertex buffer".
	Op  string
	Err error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("render: %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error { return e.Err }

func apiError(op string, err error) error {
	return &APIError{Op: op, Err: err}
}

// CompileError reports a shader that failed to compile. It is fatal.
// Status is the short reason; Diagnostic is the compiler's own text.
type CompileError struct {
	Entry      string
	Stage      Stage
	Status     string
	Diagnostic string
}

func (e *CompileError) Error() string {
	msg := fmt.Sprintf("render: %s shader %q: %s", e.Stage, e.Entry, e.Status)
	if e.Diagnostic != "" {
		msg += "\n" + e.Diagnostic
	}
	return msg
}

// IsFatal reports whether err belongs to a fatal class (API or shader
// compilation failure). Lookup and usage errors are not fatal.
func IsFatal(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return true
	}
	var compileErr *CompileError
	return errors.As(err, &compileErr)
}
