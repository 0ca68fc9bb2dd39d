package entity

import "github.com/go-gl/mathgl/mgl32"

// EntityBuilderOption is a functional option for configuring an Entity during construction.
type EntityBuilderOption func(*entityImpl)

// WithModel sets the model index the entity draws.
//
// Parameters:
//   - model: index into the renderer's model table
//
// Returns:
//   - EntityBuilderOption: functional option to set the model
func WithModel(model int) EntityBuilderOption {
	return func(e *entityImpl) {
		e.model = model
	}
}

// WithPosition sets the world-space translation.
//
// Parameters:
//   - p: position
//
// Returns:
//   - EntityBuilderOption: functional option to set the position
func WithPosition(p mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.position = p
	}
}

// WithRotation sets the Euler rotation in degrees.
//
// Parameters:
//   - r: rotation in degrees
//
// Returns:
//   - EntityBuilderOption: functional option to set the rotation
func WithRotation(r mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.rotation = r
	}
}

// WithRotationSpeed sets the spin in degrees per second.
//
// Parameters:
//   - r: degrees per second per axis
//
// Returns:
//   - EntityBuilderOption: functional option to set the rotation speed
func WithRotationSpeed(r mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.rotationSpeed = r
	}
}

// WithScale sets the per-axis scale.
//
// Parameters:
//   - s: scale
//
// Returns:
//   - EntityBuilderOption: functional option to set the scale
func WithScale(s mgl32.Vec3) EntityBuilderOption {
	return func(e *entityImpl) {
		e.scale = s
	}
}

// WithUniformScale sets the same scale on every axis.
//
// Parameters:
//   - s: scale factor
//
// Returns:
//   - EntityBuilderOption: functional option to set the scale
func WithUniformScale(s float32) EntityBuilderOption {
	return func(e *entityImpl) {
		e.scale = mgl32.Vec3{s, s, s}
	}
}

// WithEnabled sets whether the entity is drawn.
//
// Parameters:
//   - enabled: true to draw the entity
//
// Returns:
//   - EntityBuilderOption: functional option to set the enabled state
func WithEnabled(enabled bool) EntityBuilderOption {
	return func(e *entityImpl) {
		e.enabled.Store(enabled)
	}
}
