package main

import (
	"errors"
	"log"
	"runtime"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/meshdraw/render"
)

func init() {
	// The window host must stay on the main thread.
	runtime.LockOSThread()
}

// hostSurface presents through the gogpu window. The current frame's
// context is swapped in before every draw; gogpu presents with vsync after
// the draw callback returns.
type hostSurface struct {
	dc     *gogpu.Context
	format gputypes.TextureFormat
}

func (s *hostSurface) Format() gputypes.TextureFormat { return s.format }

func (s *hostSurface) Size() (uint32, uint32) {
	if s.dc == nil {
		return 0, 0
	}
	return s.dc.SurfaceSize()
}

func (s *hostSurface) CurrentView() (hal.TextureView, error) {
	if s.dc == nil {
		return nil, errors.New("no frame in progress")
	}
	return halView(s.dc.SurfaceView())
}

// halView unwraps the HAL view behind a gogpu surface view.
func halView(v *wgpu.TextureView) (hal.TextureView, error) {
	if v == nil {
		return nil, errors.New("window has no surface view")
	}
	hv := v.HalTextureView()
	if hv == nil {
		return nil, errors.New("window surface view is released")
	}
	return hv, nil
}

func (s *hostSurface) Present() error { return nil }

// runWindow opens the window and draws every frame until it is closed.
// A fatal error quits the app and is returned after Run.
func runWindow(opts options) error {
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(opts.title).
		WithSize(opts.width, opts.height))

	var (
		state    *render.State
		target   *render.SwapchainTarget
		sc       *scene
		surface  *hostSurface
		frameErr error
	)
	stop := func(err error) {
		frameErr = err
		app.Quit()
	}

	app.OnDraw(func(dc *gogpu.Context) {
		if frameErr != nil {
			return
		}
		w, h := dc.Width(), dc.Height()
		if w <= 0 || h <= 0 {
			return
		}

		if sc == nil {
			provider := app.GPUContextProvider()
			if provider == nil {
				return
			}
			var err error
			state, err = render.StateFromProvider(provider)
			if err != nil {
				stop(err)
				return
			}
			surface = &hostSurface{dc: dc, format: provider.SurfaceFormat()}
			target, err = render.NewSwapchainTarget(state, surface, 0, 0)
			if err != nil {
				stop(err)
				return
			}
			sc, err = newScene(state, target, shaderSource(opts.shaders))
			if err != nil {
				stop(err)
				return
			}
			log.Printf("Rendering %dx%d", w, h)
		}

		surface.dc = dc
		sw, sh := surface.Size()
		if err := target.Resize(sw, sh); err != nil {
			stop(err)
			return
		}
		if err := sc.frame(opts.clear); err != nil {
			stop(err)
		}
	})

	app.OnClose(func() {
		if sc != nil {
			sc.close()
		}
		if target != nil {
			target.Destroy()
		}
		if state != nil {
			state.Release()
		}
	})

	if err := app.Run(); err != nil {
		return err
	}
	return frameErr
}
