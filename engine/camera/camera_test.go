package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/input"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestDefaultControllerLooksDownNegativeZ(t *testing.T) {
	cc := NewCameraController()
	assert.Equal(t, mgl32.Vec3{0, 5, 15}, cc.Position())
	assert.True(t, cc.Front().ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5))
}

func TestForwardAndStrafe(t *testing.T) {
	cc := NewCameraController(WithPosition(mgl32.Vec3{}), WithMoveSpeed(2))
	in := input.NewInput()

	// the first frame only registers the press
	in.KeyDown(common.KeyW)
	cc.Update(1, in)
	assert.Equal(t, mgl32.Vec3{}, cc.Position())

	in.Advance()
	cc.Update(0.5, in)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{0, 0, -1}, 1e-5))

	in.KeyUp(common.KeyW)
	in.KeyDown(common.KeyD)
	in.Advance()
	cc.Update(1, in)
	assert.True(t, cc.Position().ApproxEqualThreshold(mgl32.Vec3{2, 0, -1}, 1e-5))
}

func TestRightMouseDragRotates(t *testing.T) {
	cc := NewCameraController(WithSensitivity(1))
	in := input.NewInput()

	in.MouseMove(100, 100)
	in.MouseButtonDown(common.MouseButtonRight)
	cc.Update(0, in)
	assert.Equal(t, mgl32.Vec2{100, 100}, in.MouseLastPos())

	in.Advance()
	in.MouseMove(110, 90)
	cc.Update(0, in)
	assert.InDelta(t, -80, cc.Yaw(), 1e-5)
	assert.InDelta(t, 10, cc.Pitch(), 1e-5)
	assert.Equal(t, mgl32.Vec2{110, 90}, in.MouseLastPos())
}

func TestPitchIsClamped(t *testing.T) {
	cc := NewCameraController()
	cc.SetOrientation(0, 120)
	assert.Equal(t, float32(89), cc.Pitch())
	cc.SetOrientation(0, -120)
	assert.Equal(t, float32(-89), cc.Pitch())
}

func TestDepthRemapMapsNearPlaneToZero(t *testing.T) {
	cc := NewCameraController(WithPosition(mgl32.Vec3{}))
	gl := NewCamera(WithController(cc), WithClipPlanes(1, 10))
	zo := NewCamera(WithController(cc), WithClipPlanes(1, 10), WithDepthZeroToOne(true))

	near := mgl32.Vec4{0, 0, -1, 1}
	glClip := gl.ViewProjectionMatrix().Mul4x1(near)
	zoClip := zo.ViewProjectionMatrix().Mul4x1(near)
	assert.InDelta(t, -1, glClip.Z()/glClip.W(), 1e-5)
	assert.InDelta(t, 0, zoClip.Z()/zoClip.W(), 1e-5)
}

func TestSetAspectIgnoresDegenerateValues(t *testing.T) {
	c := NewCamera(WithAspect(2))
	c.SetAspect(0)
	assert.Equal(t, float32(2), c.Aspect())
	c.SetAspect(1.5)
	assert.Equal(t, float32(1.5), c.Aspect())
}

func TestUpdateWithoutControllerKeepsIdentityView(t *testing.T) {
	c := NewCamera()
	c.Update()
	assert.Equal(t, mgl32.Ident4(), c.ViewMatrix())
	assert.Equal(t, mgl32.Vec3{}, c.Position())
}
