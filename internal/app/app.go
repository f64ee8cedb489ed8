// Package app runs the viewer inside an SDL2 window.
package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/meshspy/internal/config"
	"github.com/Faultbox/meshspy/internal/engine/gpu/glbackend"
	"github.com/Faultbox/meshspy/internal/engine/input"
	"github.com/Faultbox/meshspy/internal/engine/window"
	"github.com/Faultbox/meshspy/internal/loader"
	"github.com/Faultbox/meshspy/internal/logger"
	"github.com/Faultbox/meshspy/internal/viewer"
)

// Title is the window title prefix.
const Title = "meshspy"

// App owns the window, the GL device and the view.
type App struct {
	cfg     *config.Config
	log     *zap.Logger
	running bool
	window  *window.Window
	input   *input.Input
	view    *viewer.View

	// Paths picked in the open dialog, consumed on the frame loop.
	picked     chan string
	dialogOpen atomic.Bool
}

// New opens the window, loads GL and initializes the view.
func New(cfg *config.Config) (*App, error) {
	a := &App{
		cfg:    cfg,
		log:    logger.Named("app"),
		picked: make(chan string, 1),
	}
	a.log.Info("initializing viewer",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      Title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// GL entry points exist only once a context is current.
	dev, err := glbackend.New()
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}

	a.view, err = viewer.New(dev, viewer.OptionsFromConfig(cfg))
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create view: %w", err)
	}
	a.view.SetStatusHandler(func(s string) {
		a.window.SetTitle(Title + " - " + s)
	})

	w, h := a.window.DrawableSize()
	if err := a.view.Initialize(w, h); err != nil {
		// Rendering recovers on the next successful resize.
		a.log.Error("renderer initialization incomplete", zap.Error(err))
	}

	a.input = input.New()

	if cfg.ModelPath != "" {
		a.load(cfg.ModelPath)
	}

	a.log.Info("viewer initialized")
	return a, nil
}

// Run drives the frame loop until the window is closed.
func (a *App) Run() error {
	a.running = true

	var tick <-chan time.Time
	if interval := a.cfg.Graphics.FrameInterval(); interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	a.log.Info("starting frame loop")

	for a.running {
		if tick != nil {
			<-tick
		}
		now := time.Now()
		dt := now.Sub(lastTime)
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		for _, ev := range a.input.Events() {
			a.handle(ev)
		}
		select {
		case path := <-a.picked:
			a.load(path)
		default:
		}

		a.view.Frame(dt)
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.Duration("dt", dt))
			frameCount = 0
			fpsTimer = time.Now()
		}
	}

	return nil
}

func (a *App) handle(ev input.Event) {
	switch ev.Type {
	case input.EventWindowResize:
		a.view.Resize(a.window.DrawableSize())

	case input.EventKeyDown:
		if ev.Repeat {
			return
		}
		switch ev.Key {
		case sdl.SCANCODE_ESCAPE:
			a.running = false
		case sdl.SCANCODE_O:
			a.openDialog()
		default:
			if action, ok := KeyAction(ev.Key); ok {
				a.view.Do(action)
			}
		}

	case input.EventMouseDown:
		if b, ok := MouseButton(ev.Button); ok {
			a.view.MouseDown(b, ev.MouseX, ev.MouseY)
		}
	case input.EventMouseUp:
		if b, ok := MouseButton(ev.Button); ok {
			a.view.MouseUp(b)
		}
	case input.EventMouseMove:
		a.view.MouseMove(ev.MouseX, ev.MouseY)
	case input.EventMouseWheel:
		a.view.Scroll(ev.WheelY)

	case input.EventDropFile:
		a.load(ev.Path)
	}
}

// openDialog shows the native file picker without blocking the frame loop.
// The chosen path is loaded on the next frame, since GL and SDL calls must
// stay on the main thread.
func (a *App) openDialog() {
	if !a.dialogOpen.CompareAndSwap(false, true) {
		return
	}
	start := a.cfg.ModelPath
	if p := a.view.Path(); p != "" {
		start = p
	}
	d := dialog.File().
		Filter("glTF models", "glb", "gltf").
		Filter("All Files", "*").
		Title("Open model")
	if start != "" {
		d = d.SetStartDir(filepath.Dir(start))
	}

	go func() {
		defer a.dialogOpen.Store(false)
		path, err := d.Load()
		if err != nil {
			if !errors.Is(err, dialog.ErrCancelled) {
				a.log.Warn("open dialog failed", zap.Error(err))
			}
			return
		}
		select {
		case a.picked <- path:
		default:
		}
	}()
}

func (a *App) load(path string) {
	if err := a.view.Load(path); err != nil {
		if errors.Is(err, loader.ErrBusy) {
			a.window.SetTitle(Title + " - still loading, try again")
		}
		a.log.Warn("load request rejected", zap.String("path", path), zap.Error(err))
	}
}

// Close releases the view and the window.
func (a *App) Close() {
	a.log.Info("closing viewer")

	if a.view != nil {
		a.view.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
