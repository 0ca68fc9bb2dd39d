package entity

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestWorldMatrixComposesTranslationAndScale(t *testing.T) {
	e := NewEntity(
		WithPosition(mgl32.Vec3{-10, 0, -2}),
		WithScale(mgl32.Vec3{10, 1, 10}),
	)
	p := e.WorldMatrix().Mul4x1(mgl32.Vec4{1, 1, 1, 1})
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec4{0, 1, 8, 1}, 1e-5))
}

func TestWorldMatrixRotatesAboutY(t *testing.T) {
	e := NewEntity(WithRotation(mgl32.Vec3{0, 90, 0}))
	p := e.WorldMatrix().Mul4x1(mgl32.Vec4{1, 0, 0, 1})
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec4{0, 0, -1, 1}, 1e-5))
}

func TestTickWrapsRotation(t *testing.T) {
	e := NewEntity(WithRotation(mgl32.Vec3{0, 350, 0}), WithRotationSpeed(mgl32.Vec3{0, 20, 0}))
	e.Tick(1)
	assert.InDelta(t, 10, e.Rotation().Y(), 1e-4)
}

func TestDefaultsAndIDs(t *testing.T) {
	a := NewEntity()
	b := NewEntity(WithEnabled(false), WithModel(2))
	assert.True(t, a.Enabled())
	assert.False(t, b.Enabled())
	assert.Equal(t, 2, b.Model())
	assert.Equal(t, mgl32.Vec3{1, 1, 1}, a.Scale())
	assert.NotEqual(t, a.ID(), b.ID())
}
