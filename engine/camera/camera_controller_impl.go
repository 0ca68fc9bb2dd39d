package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/input"
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

const maxPitch = 89.0

var worldUp = mgl32.Vec3{0, 1, 0}

// cameraControllerImpl is a free-flying first person controller.
type cameraControllerImpl struct {
	mu *sync.Mutex

	position mgl32.Vec3
	front    mgl32.Vec3

	yaw   float32
	pitch float32

	moveSpeed   float32
	sensitivity float32
}

var _ CameraController = &cameraControllerImpl{}

// NewCameraController creates a fly controller at (0, 5, 15) looking down -Z.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewCameraController(options ...CameraControllerOption) CameraController {
	cc := &cameraControllerImpl{
		mu:          &sync.Mutex{},
		position:    mgl32.Vec3{0, 5, 15},
		yaw:         -90,
		pitch:       0,
		moveSpeed:   10,
		sensitivity: 0.1,
	}
	for _, option := range options {
		option(cc)
	}
	cc.pitch = common.Clamp(cc.pitch, -maxPitch, maxPitch)
	cc.updateFront()
	return cc
}

// updateFront recomputes the forward vector from yaw and pitch.
// Caller must hold the mutex.
func (cc *cameraControllerImpl) updateFront() {
	yaw := mgl32.DegToRad(cc.yaw)
	pitch := mgl32.DegToRad(cc.pitch)
	cc.front = mgl32.Vec3{
		math32.Cos(yaw) * math32.Cos(pitch),
		math32.Sin(pitch),
		math32.Sin(yaw) * math32.Cos(pitch),
	}.Normalize()
}

func (cc *cameraControllerImpl) Position() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *cameraControllerImpl) SetPosition(p mgl32.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = p
}

func (cc *cameraControllerImpl) Front() mgl32.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.front
}

func (cc *cameraControllerImpl) Yaw() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.yaw
}

func (cc *cameraControllerImpl) Pitch() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.pitch
}

func (cc *cameraControllerImpl) SetOrientation(yaw, pitch float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.yaw = yaw
	cc.pitch = common.Clamp(pitch, -maxPitch, maxPitch)
	cc.updateFront()
}

func (cc *cameraControllerImpl) MoveSpeed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.moveSpeed
}

func (cc *cameraControllerImpl) Sensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.sensitivity
}

func (cc *cameraControllerImpl) Update(dt float32, in InputSource) {
	if in == nil {
		return
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()

	step := cc.moveSpeed * dt
	right := cc.front.Cross(worldUp).Normalize()

	if in.Key(common.KeyW) == input.ButtonPressed {
		cc.position = cc.position.Add(cc.front.Mul(step))
	}
	if in.Key(common.KeyS) == input.ButtonPressed {
		cc.position = cc.position.Sub(cc.front.Mul(step))
	}
	if in.Key(common.KeyA) == input.ButtonPressed {
		cc.position = cc.position.Sub(right.Mul(step))
	}
	if in.Key(common.KeyD) == input.ButtonPressed {
		cc.position = cc.position.Add(right.Mul(step))
	}

	switch in.MouseButton(common.MouseButtonRight) {
	case input.ButtonPress:
		in.SetMouseLastPos(in.MousePos())
	case input.ButtonPressed:
		pos := in.MousePos()
		last := in.MouseLastPos()
		cc.yaw += (pos.X() - last.X()) * cc.sensitivity
		cc.pitch = common.Clamp(cc.pitch+(last.Y()-pos.Y())*cc.sensitivity, -maxPitch, maxPitch)
		in.SetMouseLastPos(pos)
		cc.updateFront()
	}
}
