package input

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestKeyLifecycle(t *testing.T) {
	in := NewInput()
	assert.Equal(t, ButtonIdle, in.Key(common.KeyW))

	in.KeyDown(common.KeyW)
	assert.Equal(t, ButtonPress, in.Key(common.KeyW))
	assert.True(t, in.KeyPressed(common.KeyW))

	in.Advance()
	assert.Equal(t, ButtonPressed, in.Key(common.KeyW))
	assert.False(t, in.KeyPressed(common.KeyW))

	// auto-repeat keeps the held state
	in.KeyDown(common.KeyW)
	assert.Equal(t, ButtonPressed, in.Key(common.KeyW))

	in.KeyUp(common.KeyW)
	assert.Equal(t, ButtonRelease, in.Key(common.KeyW))
	in.Advance()
	assert.Equal(t, ButtonIdle, in.Key(common.KeyW))
}

func TestMouseButtonsAndPosition(t *testing.T) {
	in := NewInput()
	in.MouseButtonDown(common.MouseButtonRight)
	in.MouseMove(10, 20)
	assert.Equal(t, ButtonPress, in.MouseButton(common.MouseButtonRight))
	assert.Equal(t, mgl32.Vec2{10, 20}, in.MousePos())

	in.Advance()
	assert.Equal(t, ButtonPressed, in.MouseButton(common.MouseButtonRight))
	assert.Equal(t, ButtonIdle, in.MouseButton(7))

	in.MouseButtonUp(common.MouseButtonRight)
	in.Advance()
	assert.Equal(t, ButtonIdle, in.MouseButton(common.MouseButtonRight))
}

func TestScrollResetsEachFrame(t *testing.T) {
	in := NewInput()
	in.Scroll(1)
	in.Scroll(0.5)
	assert.Equal(t, float32(1.5), in.ScrollDelta())
	in.Advance()
	assert.Zero(t, in.ScrollDelta())
}
