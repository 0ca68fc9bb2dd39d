package camera

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/input"
	"github.com/go-gl/mathgl/mgl32"
)

// InputSource is the per-frame input a fly controller reads.
// *input.Input satisfies it.
type InputSource interface {
	Key(key int) input.ButtonState
	MouseButton(button int) input.ButtonState
	MousePos() mgl32.Vec2
	MouseLastPos() mgl32.Vec2
	SetMouseLastPos(p mgl32.Vec2)
}

// CameraController owns the camera's position and orientation.
// The camera reads from the controller to build its view matrix.
type CameraController interface {
	// Position returns the world-space eye position.
	//
	// Returns:
	//   - mgl32.Vec3: the eye position
	Position() mgl32.Vec3

	// SetPosition moves the eye to a world-space position.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p mgl32.Vec3)

	// Front returns the normalized viewing direction derived from yaw and pitch.
	//
	// Returns:
	//   - mgl32.Vec3: unit forward vector
	Front() mgl32.Vec3

	// Yaw returns the horizontal angle in degrees. -90 looks down -Z.
	Yaw() float32

	// Pitch returns the vertical angle in degrees, within [-89, 89].
	Pitch() float32

	// SetOrientation sets yaw and pitch in degrees. Pitch is clamped to [-89, 89].
	//
	// Parameters:
	//   - yaw: horizontal angle in degrees
	//   - pitch: vertical angle in degrees
	SetOrientation(yaw, pitch float32)

	// MoveSpeed returns the translation speed in world units per second.
	MoveSpeed() float32

	// Sensitivity returns the degrees of rotation per pixel of mouse drag.
	Sensitivity() float32

	// Update applies one frame of input: W/S move along the front vector, A/D strafe,
	// and dragging with the right mouse button rotates.
	//
	// Parameters:
	//   - dt: frame time in seconds
	//   - in: the input state for this frame
	Update(dt float32, in InputSource)
}
