// Command meshdemo opens a window and draws a colour-interpolated triangle
// on a green background every frame until the window is closed.
//
// With -headless it renders -frames frames into offscreen buffers instead
// and can write the last one to -output (.png, .bmp or .tiff).
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/meshdraw"
	"github.com/gogpu/meshdraw/render"
	"github.com/gogpu/meshdraw/shaders"
)

type options struct {
	width    int
	height   int
	title    string
	headless bool
	backend  string
	frames   int
	output   string
	shaders  string
	clear    meshdraw.Color8
	verbose  bool
}

func main() {
	var (
		width    = flag.Int("width", 1280, "window width")
		height   = flag.Int("height", 720, "window height")
		title    = flag.String("title", "meshdraw", "window title")
		headless = flag.Bool("headless", false, "render offscreen without a window")
		backend  = flag.String("backend", "vulkan", "headless HAL backend: vulkan or noop")
		frames   = flag.Int("frames", 1, "frames to render in headless mode")
		output   = flag.String("output", "", "write the last headless frame to this file")
		shaderFS = flag.String("shaders", "", "directory with VertexShader.wgsl and PixelShader.wgsl")
		clearHex = flag.String("clear", "", "clear colour as #RRGGBB or #RRGGBBAA")
		verbose  = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	opts := options{
		width:    *width,
		height:   *height,
		title:    *title,
		headless: *headless,
		backend:  *backend,
		frames:   *frames,
		output:   *output,
		shaders:  *shaderFS,
		clear:    meshdraw.DefaultClearColor,
		verbose:  *verbose,
	}
	if *clearHex != "" {
		c, ok := meshdraw.Hex(*clearHex)
		if !ok {
			log.Fatalf("Invalid -clear colour %q", *clearHex)
		}
		opts.clear = c
	}
	if opts.width <= 0 || opts.height <= 0 {
		log.Fatalf("Invalid size %dx%d", opts.width, opts.height)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	render.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var err error
	if opts.headless {
		err = runHeadless(opts)
	} else {
		err = runWindow(opts)
	}
	if err != nil {
		fail(err)
	}
}

// fail prints the diagnostic and exits with status 1.
func fail(err error) {
	kind := "error"
	if render.IsFatal(err) {
		kind = "fatal"
	}
	fmt.Fprintf(os.Stderr, "meshdemo: %s: %v\n", kind, err)
	os.Exit(1)
}

// shaderSource returns the embedded shaders, overlaid by dir when set.
func shaderSource(dir string) shaders.Source {
	if dir == "" {
		return shaders.Embedded()
	}
	return shaders.Overlay(shaders.FromFS(os.DirFS(dir)), shaders.Embedded())
}

// scene is the per-run set of GPU objects shared by both modes.
type scene struct {
	state    *render.State
	target   *render.SwapchainTarget
	pipeline *render.ShaderPipeline
	renderer *render.Renderer
	registry *render.Registry
	handles  []render.Handle
}

// newScene builds the pipeline, renderer and registry on target and adds
// the triangle.
func newScene(state *render.State, target *render.SwapchainTarget, src shaders.Source) (*scene, error) {
	pipeline, err := render.NewShaderPipeline(state, src, target.Format())
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewRenderer(state, target, pipeline)
	if err != nil {
		pipeline.Destroy()
		return nil, err
	}
	registry, err := render.NewRegistry(state, renderer)
	if err != nil {
		renderer.Destroy()
		pipeline.Destroy()
		return nil, err
	}

	h, err := registry.AddObject(meshdraw.Triangle())
	if err != nil {
		registry.Destroy()
		renderer.Destroy()
		pipeline.Destroy()
		return nil, err
	}

	return &scene{
		state:    state,
		target:   target,
		pipeline: pipeline,
		renderer: renderer,
		registry: registry,
		handles:  []render.Handle{h},
	}, nil
}

// frame runs one clear, draw, present cycle.
func (s *scene) frame(bg meshdraw.Color8) error {
	if err := s.renderer.Clear(bg); err != nil {
		return err
	}
	for _, h := range s.handles {
		if err := s.registry.Draw(h); err != nil {
			if render.IsFatal(err) {
				s.renderer.Abort()
				return err
			}
			log.Printf("Skipping object %d: %v", h, err)
		}
	}
	return s.renderer.Present()
}

// close releases everything in reverse creation order. The target and the
// state are released by their owners.
func (s *scene) close() {
	s.registry.Destroy()
	s.renderer.Destroy()
	s.pipeline.Destroy()
}
