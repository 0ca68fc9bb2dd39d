// Package entity holds the placed instances of models that make up a scene.
package entity

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/staging"
	"github.com/go-gl/mathgl/mgl32"
)

type entityImpl struct {
	id      uint64
	enabled atomic.Bool
	model   int

	position      mgl32.Vec3
	rotation      mgl32.Vec3
	rotationSpeed mgl32.Vec3
	scale         mgl32.Vec3

	uniformRange staging.Range
}

// Entity is a model placed in the world with its own transform.
// Rotation is stored as Euler angles in degrees and applied Y, then X, then Z.
type Entity interface {
	// ID returns the entity's identifier.
	ID() uint64

	// Enabled returns whether the entity is drawn.
	Enabled() bool

	// Model returns the index of the model this entity draws in the renderer's model table.
	//
	// Returns:
	//   - int: the model index
	Model() int

	// Position returns the world-space translation.
	Position() mgl32.Vec3

	// Rotation returns the Euler rotation in degrees.
	Rotation() mgl32.Vec3

	// RotationSpeed returns the spin applied by Tick in degrees per second.
	RotationSpeed() mgl32.Vec3

	// Scale returns the per-axis scale.
	Scale() mgl32.Vec3

	// WorldMatrix composes translation * rotation * scale.
	//
	// Returns:
	//   - mgl32.Mat4: the model-to-world matrix
	WorldMatrix() mgl32.Mat4

	// UniformRange returns where this entity's block was written in the staging buffer this frame.
	//
	// Returns:
	//   - staging.Range: the byte range, zero sized before the first frame
	UniformRange() staging.Range

	// Tick advances the rotation by RotationSpeed * dt.
	//
	// Parameters:
	//   - dt: elapsed seconds
	Tick(dt float32)

	// SetEnabled sets whether the entity is drawn.
	SetEnabled(enabled bool)

	// SetModel points the entity at another model index.
	SetModel(model int)

	// SetPosition sets the world-space translation.
	SetPosition(p mgl32.Vec3)

	// SetRotation sets the Euler rotation in degrees.
	SetRotation(r mgl32.Vec3)

	// SetRotationSpeed sets the spin applied by Tick in degrees per second.
	SetRotationSpeed(r mgl32.Vec3)

	// SetScale sets the per-axis scale.
	SetScale(s mgl32.Vec3)

	// SetUniformRange records the staging range of this entity's block for the current frame.
	//
	// Parameters:
	//   - r: the range returned by the staging write
	SetUniformRange(r staging.Range)
}

var _ Entity = &entityImpl{}

var nextID atomic.Uint64

// NewEntity creates an enabled Entity at the origin with unit scale.
//
// Parameters:
//   - options: functional options to configure the entity
//
// Returns:
//   - Entity: the newly created entity
func NewEntity(options ...EntityBuilderOption) Entity {
	e := &entityImpl{
		id:    nextID.Add(1),
		scale: mgl32.Vec3{1, 1, 1},
	}
	e.enabled.Store(true)
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *entityImpl) ID() uint64 {
	return e.id
}

func (e *entityImpl) Enabled() bool {
	return e.enabled.Load()
}

func (e *entityImpl) Model() int {
	return e.model
}

func (e *entityImpl) Position() mgl32.Vec3 {
	return e.position
}

func (e *entityImpl) Rotation() mgl32.Vec3 {
	return e.rotation
}

func (e *entityImpl) RotationSpeed() mgl32.Vec3 {
	return e.rotationSpeed
}

func (e *entityImpl) Scale() mgl32.Vec3 {
	return e.scale
}

func (e *entityImpl) WorldMatrix() mgl32.Mat4 {
	rot := mgl32.HomogRotate3DY(mgl32.DegToRad(e.rotation.Y())).
		Mul4(mgl32.HomogRotate3DX(mgl32.DegToRad(e.rotation.X()))).
		Mul4(mgl32.HomogRotate3DZ(mgl32.DegToRad(e.rotation.Z())))
	return mgl32.Translate3D(e.position.Elem()).
		Mul4(rot).
		Mul4(mgl32.Scale3D(e.scale.Elem()))
}

func (e *entityImpl) UniformRange() staging.Range {
	return e.uniformRange
}

func (e *entityImpl) Tick(dt float32) {
	if e.rotationSpeed == (mgl32.Vec3{}) {
		return
	}
	e.rotation = e.rotation.Add(e.rotationSpeed.Mul(dt))
	for i := range 3 {
		for e.rotation[i] >= 360 {
			e.rotation[i] -= 360
		}
		for e.rotation[i] < 0 {
			e.rotation[i] += 360
		}
	}
}

func (e *entityImpl) SetEnabled(enabled bool) {
	e.enabled.Store(enabled)
}

func (e *entityImpl) SetModel(model int) {
	e.model = model
}

func (e *entityImpl) SetPosition(p mgl32.Vec3) {
	e.position = p
}

func (e *entityImpl) SetRotation(r mgl32.Vec3) {
	e.rotation = r
}

func (e *entityImpl) SetRotationSpeed(r mgl32.Vec3) {
	e.rotationSpeed = r
}

func (e *entityImpl) SetScale(s mgl32.Vec3) {
	e.scale = s
}

func (e *entityImpl) SetUniformRange(r staging.Range) {
	e.uniformRange = r
}
