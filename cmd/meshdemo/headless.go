package main

import (
	"fmt"
	"log"

	"github.com/gogpu/wgpu/hal/noop"
	_ "github.com/gogpu/wgpu/hal/vulkan" // register the Vulkan backend

	"github.com/gogpu/meshdraw/render"
)

// stateOptions maps the -backend flag to State options.
func stateOptions(backend string) ([]render.StateOption, error) {
	switch backend {
	case "", "vulkan":
		return nil, nil
	case "noop":
		return []render.StateOption{render.WithHAL(&noop.API{}), render.WithSoftwareAdapter()}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q (want vulkan or noop)", backend)
	}
}

// runHeadless renders opts.frames frames into an offscreen swapchain and
// optionally captures the last one.
func runHeadless(opts options) error {
	stateOpts, err := stateOptions(opts.backend)
	if err != nil {
		return err
	}
	state, err := render.NewState(stateOpts...)
	if err != nil {
		return err
	}
	defer state.Release()
	log.Printf("Adapter: %s", state.AdapterName())

	target, err := render.NewOffscreenTarget(state, uint32(opts.width), uint32(opts.height))
	if err != nil {
		return err
	}
	defer target.Destroy()

	sc, err := newScene(state, target, shaderSource(opts.shaders))
	if err != nil {
		return err
	}
	defer sc.close()

	frames := max(opts.frames, 1)
	for i := 0; i < frames; i++ {
		if err := sc.frame(opts.clear); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
	}
	stats := sc.renderer.Stats()
	log.Printf("Rendered %d frames (%d draws, %d indices in the last)", sc.renderer.Frames(), stats.Draws, stats.Indices)

	if opts.output == "" {
		return nil
	}
	img, err := target.Snapshot()
	if err != nil {
		return err
	}
	if err := saveImage(opts.output, img); err != nil {
		return err
	}
	log.Printf("Frame saved to %s (%dx%d)", opts.output, opts.width, opts.height)
	return nil
}
