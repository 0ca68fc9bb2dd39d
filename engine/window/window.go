package window

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/cogentcore/webgpu/wgpu"
)

// Window provides the platform window, its graphics context and input events.
// Wraps the GLFW implementation with a common interface.
type Window interface {
	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetScrollCallback sets the callback for mouse scroll wheel events.
	//
	// Parameters:
	//   - callback: function receiving the vertical scroll delta
	SetScrollCallback(callback func(delta float32))

	// SetKeyDownCallback sets the callback for key press events. Auto-repeat is reported as a press.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(key int))

	// SetKeyUpCallback sets the callback for key release events.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyUpCallback(callback func(key int))

	// SetMouseButtonCallback sets the callback for mouse button presses and releases.
	//
	// Parameters:
	//   - callback: function receiving the button index (0 left, 1 right, 2 middle) and whether it went down
	SetMouseButtonCallback(callback func(button int, pressed bool))

	// SetMouseMoveCallback sets the callback for cursor movement.
	//
	// Parameters:
	//   - callback: function receiving the cursor position in window coordinates
	SetMouseMoveCallback(callback func(x, y float32))

	// Backend returns the graphics API the window was created for.
	Backend() backend.BackendType

	// SurfaceDescriptor returns a wgpu.SurfaceDescriptor suitable for creating a WebGPU surface.
	// The descriptor is created by the wgpuglfw bridge from the underlying GLFW window.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the surface descriptor, or nil for an OpenGL window
	SurfaceDescriptor() *wgpu.SurfaceDescriptor

	// SwapBuffers presents the back buffer of an OpenGL window. WebGPU windows present through
	// their surface, so this does nothing for them.
	SwapBuffers()

	// PollEvents dispatches pending window events to the callbacks without blocking.
	//
	// Returns:
	//   - bool: true while the window is still running
	PollEvents() bool

	// Time returns the seconds elapsed since the window system was initialized.
	Time() float64

	// IsRunning returns true if the window is still active.
	//
	// Returns:
	//   - bool: true if window is running, false if closed
	IsRunning() bool

	// RequestClose asks the window to close at the next poll.
	RequestClose()

	// Close destroys the window and releases platform resources.
	//
	// Returns:
	//   - error: error if the window was never created
	Close() error

	// Width returns the current framebuffer width in pixels.
	Width() int

	// Height returns the current framebuffer height in pixels.
	Height() int
}

// engineWindow is the implementation of the Window interface.
// Holds window configuration, GLFW state, and event callbacks.
type engineWindow struct {
	// title is the window title displayed in the title bar.
	title string

	// minWidth and minHeight bound the window size during resize.
	minWidth  int
	minHeight int

	// maxWidth and maxHeight bound the window size during resize.
	maxWidth  int
	maxHeight int

	// width is the current framebuffer width in pixels.
	width int

	// height is the current framebuffer height in pixels.
	height int

	// backend selects the context created for the window.
	backend backend.BackendType

	// vsync enables a swap interval of 1 on OpenGL windows.
	vsync bool

	// internalWindow holds the platform-specific window data (glfwWindow).
	internalWindow any

	onResize      func(width, height int)
	onScroll      func(delta float32)
	onKeyDown     func(key int)
	onKeyUp       func(key int)
	onMouseButton func(button int, pressed bool)
	onMouseMove   func(x, y float32)
}

var _ Window = &engineWindow{}

// NewWindow creates and shows a window with the specified options.
// Applies default values first, then each option in order. It must be called from the main goroutine.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the created window
//   - error: error if GLFW or the graphics context could not be initialized
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &engineWindow{
		title:     "oxy-pipeline",
		minWidth:  320,
		minHeight: 200,
		maxWidth:  glfwDontCare,
		maxHeight: glfwDontCare,
		width:     1280,
		height:    720,
		backend:   backend.BackendTypeOpenGL,
		vsync:     true,
	}
	for _, opt := range options {
		opt(w)
	}
	if err := newPlatformWindow(w); err != nil {
		return nil, fmt.Errorf("failed to create platform window: %w", err)
	}
	return w, nil
}

// MustNewWindow is NewWindow that panics on failure.
func MustNewWindow(options ...WindowBuilderOption) Window {
	w, err := NewWindow(options...)
	if err != nil {
		panic(err)
	}
	return w
}

func (w *engineWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *engineWindow) SetScrollCallback(callback func(delta float32)) {
	w.onScroll = callback
}

func (w *engineWindow) SetKeyDownCallback(callback func(key int)) {
	w.onKeyDown = callback
}

func (w *engineWindow) SetKeyUpCallback(callback func(key int)) {
	w.onKeyUp = callback
}

func (w *engineWindow) SetMouseButtonCallback(callback func(button int, pressed bool)) {
	w.onMouseButton = callback
}

func (w *engineWindow) SetMouseMoveCallback(callback func(x, y float32)) {
	w.onMouseMove = callback
}

func (w *engineWindow) Backend() backend.BackendType {
	return w.backend
}

func (w *engineWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	if w.backend != backend.BackendTypeWGPU {
		return nil
	}
	return platformGetSurfaceDescriptor(w)
}

func (w *engineWindow) SwapBuffers() {
	if w.backend == backend.BackendTypeOpenGL {
		platformSwapBuffers(w)
	}
}

func (w *engineWindow) PollEvents() bool {
	return platformProcessMessages(w)
}

func (w *engineWindow) Time() float64 {
	return platformTime()
}

func (w *engineWindow) IsRunning() bool {
	return platformIsRunningCheck(w)
}

func (w *engineWindow) RequestClose() {
	platformRequestClose(w)
}

func (w *engineWindow) Close() error {
	return platformCloseWindow(w)
}

func (w *engineWindow) Width() int {
	return w.width
}

func (w *engineWindow) Height() int {
	return w.height
}

// handleResize records the new framebuffer size and forwards it. Minimized windows report 0x0 and are
// not forwarded.
func (w *engineWindow) handleResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	if width == w.width && height == w.height {
		return
	}
	w.width = width
	w.height = height
	if w.onResize != nil {
		w.onResize(width, height)
	}
}

func (w *engineWindow) handleKey(key int, down bool) {
	switch {
	case down && w.onKeyDown != nil:
		w.onKeyDown(key)
	case !down && w.onKeyUp != nil:
		w.onKeyUp(key)
	}
}

func (w *engineWindow) handleMouseButton(button int, pressed bool) {
	if w.onMouseButton != nil {
		w.onMouseButton(button, pressed)
	}
}

func (w *engineWindow) handleMouseMove(x, y float64) {
	if w.onMouseMove != nil {
		w.onMouseMove(float32(x), float32(y))
	}
}

func (w *engineWindow) handleScroll(yoff float64) {
	if w.onScroll != nil {
		w.onScroll(float32(yoff))
	}
}
