// Package input tracks keyboard and mouse button state across frames.
package input

import "github.com/go-gl/mathgl/mgl32"

// ButtonState is the per-frame state of a key or mouse button.
type ButtonState int

const (
	// ButtonIdle means the button is up.
	ButtonIdle ButtonState = iota
	// ButtonPress means the button went down this frame.
	ButtonPress
	// ButtonPressed means the button has been held since an earlier frame.
	ButtonPressed
	// ButtonRelease means the button went up this frame.
	ButtonRelease
)

const mouseButtonCount = 3

// Input collects window events between frames. Events move a button to Press or Release, and Advance
// settles Press into Pressed and Release into Idle once the frame has consumed them.
type Input struct {
	keys         map[int]ButtonState
	mouseButtons [mouseButtonCount]ButtonState
	mousePos     mgl32.Vec2
	mouseLastPos mgl32.Vec2
	scroll       float32
}

// NewInput creates an Input with every button idle.
//
// Returns:
//   - *Input: the input state
func NewInput() *Input {
	return &Input{keys: make(map[int]ButtonState)}
}

// KeyDown records a key press. Auto-repeat events for a held key are ignored.
//
// Parameters:
//   - key: the GLFW key code
func (in *Input) KeyDown(key int) {
	in.keys[key] = press(in.keys[key])
}

// KeyUp records a key release.
//
// Parameters:
//   - key: the GLFW key code
func (in *Input) KeyUp(key int) {
	in.keys[key] = release(in.keys[key])
}

// MouseButtonDown records a mouse button press.
//
// Parameters:
//   - button: the GLFW mouse button (0 left, 1 right, 2 middle)
func (in *Input) MouseButtonDown(button int) {
	if button >= 0 && button < mouseButtonCount {
		in.mouseButtons[button] = press(in.mouseButtons[button])
	}
}

// MouseButtonUp records a mouse button release.
//
// Parameters:
//   - button: the GLFW mouse button (0 left, 1 right, 2 middle)
func (in *Input) MouseButtonUp(button int) {
	if button >= 0 && button < mouseButtonCount {
		in.mouseButtons[button] = release(in.mouseButtons[button])
	}
}

// MouseMove records the cursor position in window pixels.
//
// Parameters:
//   - x, y: cursor position
func (in *Input) MouseMove(x, y float32) {
	in.mousePos = mgl32.Vec2{x, y}
}

// Scroll accumulates wheel movement for the current frame.
//
// Parameters:
//   - delta: wheel delta, positive away from the user
func (in *Input) Scroll(delta float32) {
	in.scroll += delta
}

// Key returns the state of a key.
func (in *Input) Key(key int) ButtonState {
	return in.keys[key]
}

// KeyPressed reports whether a key went down this frame.
func (in *Input) KeyPressed(key int) bool {
	return in.keys[key] == ButtonPress
}

// MouseButton returns the state of a mouse button.
func (in *Input) MouseButton(button int) ButtonState {
	if button < 0 || button >= mouseButtonCount {
		return ButtonIdle
	}
	return in.mouseButtons[button]
}

// MousePos returns the current cursor position.
func (in *Input) MousePos() mgl32.Vec2 {
	return in.mousePos
}

// MouseLastPos returns the cursor position last consumed by a drag.
func (in *Input) MouseLastPos() mgl32.Vec2 {
	return in.mouseLastPos
}

// SetMouseLastPos stores the cursor position consumed by a drag.
func (in *Input) SetMouseLastPos(p mgl32.Vec2) {
	in.mouseLastPos = p
}

// ScrollDelta returns the wheel movement accumulated this frame.
func (in *Input) ScrollDelta() float32 {
	return in.scroll
}

// Advance ends the frame: Press becomes Pressed, Release becomes Idle, and the scroll delta resets.
func (in *Input) Advance() {
	for k, s := range in.keys {
		in.keys[k] = settle(s)
	}
	for i, s := range in.mouseButtons {
		in.mouseButtons[i] = settle(s)
	}
	in.scroll = 0
}

func press(s ButtonState) ButtonState {
	if s == ButtonPress || s == ButtonPressed {
		return s
	}
	return ButtonPress
}

func release(s ButtonState) ButtonState {
	if s == ButtonIdle {
		return s
	}
	return ButtonRelease
}

func settle(s ButtonState) ButtonState {
	switch s {
	case ButtonPress:
		return ButtonPressed
	case ButtonRelease:
		return ButtonIdle
	}
	return s
}
