package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/input"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/profiler"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/scene"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/window"
)

// ErrFramePanic wraps a panic recovered while producing a frame.
var ErrFramePanic = errors.New("frame panicked")

// modeKeys maps the number keys to the render modes they select.
var modeKeys = map[int]renderer.Mode{
	common.Key1: renderer.ModeForward,
	common.Key2: renderer.ModeDeferred,
	common.Key3: renderer.ModeBloom,
}

// engine implements the Engine interface.
// Everything runs on the goroutine that created the window.
type engine struct {
	window   window.Window
	backend  backend.Backend
	renderer renderer.Renderer
	scene    scene.Scene
	input    *input.Input

	profiler         *profiler.Profiler
	profilingEnabled bool
	profilerInterval time.Duration

	tickCallback     func(deltaTime float32)
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	running bool
	now     func() time.Time
}

// Engine runs the frame loop: it owns the window, backend, renderer, scene and input, and releases
// them when the loop ends.
type Engine interface {
	// Window returns the underlying window.
	Window() window.Window

	// Renderer returns the renderer.
	Renderer() renderer.Renderer

	// Scene returns the scene being drawn.
	Scene() scene.Scene

	// SetScene replaces the scene drawn from the next frame on.
	//
	// Parameters:
	//   - s: the new scene
	SetScene(s scene.Scene)

	// Input returns the input state fed by the window.
	Input() *input.Input

	// EnableProfiler enables periodic frame statistics in the log.
	EnableProfiler()

	// DisableProfiler disables frame statistics.
	DisableProfiler()

	// SetTickCallback registers a function called at the start of every frame, before the camera update.
	//
	// Parameters:
	//   - callback: function receiving the frame time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderFrameLimit sets an optional frame rate cap in frames per second.
	// Pass 0 to uncap the loop (default).
	//
	// Parameters:
	//   - fps: maximum frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Frame produces one frame after events were polled: handles mode keys, updates the camera,
	// reloads changed programs, renders, presents and advances the input state. A panic is recovered
	// and returned as ErrFramePanic.
	//
	// Parameters:
	//   - dt: the frame time in seconds
	//
	// Returns:
	//   - error: a render error or a recovered panic
	Frame(dt float32) error

	// Run polls events and produces frames until the window closes, Quit is called or a frame fails.
	// Resources are released before it returns.
	//
	// Returns:
	//   - error: the error that stopped the loop, nil on a normal close
	Run() error

	// Quit stops the loop after the current frame. Safe to call multiple times.
	Quit()
}

// NewEngine creates an Engine over an already created window, backend and renderer.
// Window events are routed into the engine's input state, and framebuffer resizes reconfigure the
// renderer and the camera aspect.
//
// Parameters:
//   - w: the window
//   - b: the backend the renderer draws with
//   - r: the renderer
//   - s: the scene to draw
//   - options: functional options
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(w window.Window, b backend.Backend, r renderer.Renderer, s scene.Scene, options ...EngineBuilderOption) Engine {
	e := &engine{
		window:   w,
		backend:  b,
		renderer: r,
		scene:    s,
		input:    input.NewInput(),
		now:      time.Now,
	}
	for _, opt := range options {
		opt(e)
	}
	e.profiler = profiler.NewProfiler(e.profilerInterval)

	w.SetKeyDownCallback(e.input.KeyDown)
	w.SetKeyUpCallback(e.input.KeyUp)
	w.SetMouseButtonCallback(func(button int, pressed bool) {
		if pressed {
			e.input.MouseButtonDown(button)
		} else {
			e.input.MouseButtonUp(button)
		}
	})
	w.SetMouseMoveCallback(e.input.MouseMove)
	w.SetScrollCallback(e.input.Scroll)
	w.SetResizeCallback(e.resize)

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Scene() scene.Scene {
	return e.scene
}

func (e *engine) SetScene(s scene.Scene) {
	e.scene = s
	if cam := s.Camera(); cam != nil {
		cam.SetAspect(float32(e.window.Width()) / float32(max(e.window.Height(), 1)))
	}
}

func (e *engine) Input() *input.Input {
	return e.input
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}

// resize reconfigures the renderer's targets and the backend surface, then the camera aspect.
func (e *engine) resize(width, height int) {
	if err := e.renderer.Resize(width, height); err != nil {
		common.Logger().Error("resize failed", "width", width, "height", height, "error", err)
		e.Quit()
		return
	}
	if e.scene != nil {
		if cam := e.scene.Camera(); cam != nil && height > 0 {
			cam.SetAspect(float32(width) / float32(height))
		}
	}
}

// applyModeKeys switches the render mode when 1, 2 or 3 went down this frame.
func (e *engine) applyModeKeys() {
	for key, mode := range modeKeys {
		if e.input.KeyPressed(key) && e.renderer.Mode() != mode {
			e.renderer.SetMode(mode)
		}
	}
}

func (e *engine) Frame(dt float32) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrFramePanic, r)
		}
	}()

	e.applyModeKeys()
	if e.tickCallback != nil {
		e.tickCallback(dt)
	}

	e.scene.Tick(dt)
	if cam := e.scene.Camera(); cam != nil {
		if ctrl := cam.Controller(); ctrl != nil {
			ctrl.Update(dt, e.input)
		}
		cam.Update()
	}

	e.renderer.ReloadPrograms()

	if err := e.renderer.Render(e.scene); err != nil {
		return err
	}
	e.window.SwapBuffers()
	e.input.Advance()

	if e.profilingEnabled {
		e.profiler.Tick()
	}
	return nil
}

func (e *engine) Run() error {
	defer e.release()

	e.running = true
	last := e.now()
	for e.running && e.window.PollEvents() {
		start := e.now()
		dt := float32(start.Sub(last).Seconds())
		last = start

		if err := e.Frame(dt); err != nil {
			common.Logger().Error("frame failed, stopping", "mode", e.renderer.Mode().String(), "error", err)
			return err
		}

		if e.renderFrameLimit > 0 {
			if remaining := e.renderFrameLimit - e.now().Sub(start); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
	return nil
}

func (e *engine) Quit() {
	e.running = false
	e.window.RequestClose()
}

// release tears down in reverse creation order: renderer resources, backend, then window.
func (e *engine) release() {
	e.running = false
	if e.renderer != nil {
		e.renderer.Release()
	}
	if e.backend != nil {
		e.backend.Release()
	}
	if e.window != nil {
		if err := e.window.Close(); err != nil {
			common.Logger().Warn("window close failed", "error", err)
		}
	}
	common.Logger().Info("engine stopped")
}
