// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package shaders supplies WGSL shader source text by logical name.
//
// The renderer asks for two names, [Vertex] and [Pixel]. Sources come
// either from the copies embedded in the binary or from any fs.FS, where
// each name maps to "<name>.wgsl".
package shaders

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// Logical shader names.
const (
	Vertex = "VertexShader"
	Pixel  = "PixelShader"
)

// Entry points of the embedded shaders.
const (
	VertexEntry = "vs_main"
	PixelEntry  = "fs_main"
)

// ErrNotFound is returned when no source exists for a name.
var ErrNotFound = errors.New("shaders: source not found")

//go:embed wgsl/*.wgsl
var embedded embed.FS

// Source supplies shader source text by logical name.
type Source interface {
	Source(name string) (string, error)
}

// fsSource reads "<name>.wgsl" from a file system.
type fsSource struct {
	fsys fs.FS
	dir  string
}

// Embedded returns the shaders compiled into the binary.
func Embedded() Source {
	return fsSource{fsys: embedded, dir: "wgsl"}
}

// FromFS returns a Source reading "<name>.wgsl" from the root of fsys.
func FromFS(fsys fs.FS) Source {
	return fsSource{fsys: fsys, dir: "."}
}

// Source implements Source.
func (s fsSource) Source(name string) (string, error) {
	if name == "" || !fs.ValidPath(name) {
		return "", fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	p := path.Join(s.dir, name+".wgsl")
	b, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return "", fmt.Errorf("shaders: read %s: %w", p, err)
	}
	if len(b) == 0 {
		return "", fmt.Errorf("shaders: %s is empty", p)
	}
	return string(b), nil
}

// Map is a Source backed by in-memory text. Useful for tests and for
// generated shaders.
type Map map[string]string

// Source implements Source.
func (m Map) Source(name string) (string, error) {
	src, ok := m[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return src, nil
}

// Overlay returns a Source that consults each source in order and returns
// the first hit. Errors other than ErrNotFound stop the search.
func Overlay(sources ...Source) Source {
	return overlay(sources)
}

type overlay []Source

func (o overlay) Source(name string) (string, error) {
	for _, s := range o {
		src, err := s.Source(name)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return "", err
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotFound, name)
}
