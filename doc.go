// Package meshdraw holds the geometry and colour types shared by the
// meshdraw renderer.
//
// # Overview
//
// meshdraw draws indexed triangle meshes with the Pure Go WebGPU stack
// (gogpu/wgpu). The root package is GPU-free: it defines the interleaved
// [Vertex] record, the [ObjectData] pair uploaded for each drawable object,
// and the 8-bit [Color8] used to clear frames. GPU resources live in the
// render subpackage.
//
// # Quick Start
//
//	state, err := render.NewState()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer state.Release()
//
//	target, _ := render.NewOffscreenTarget(state, 1280, 720)
//	pipeline, _ := render.NewShaderPipeline(state, shaders.Embedded(), target.Format())
//	renderer, _ := render.NewRenderer(state, target, pipeline)
//	registry, _ := render.NewRegistry(state, renderer)
//
//	h, _ := registry.AddObject(meshdraw.Triangle())
//
//	renderer.Clear(meshdraw.DefaultClearColor)
//	registry.Draw(h)
//	renderer.Present()
//
// # Vertex Layout
//
// Every vertex is 28 bytes: a float32x3 position followed by a float32x4
// colour, little-endian, with no padding. The render package's input
// layout and the embedded WGSL shaders agree on this layout.
package meshdraw
