package profiler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestTickReportsAtInterval(t *testing.T) {
	clock := &fakeClock{t: time.Unix(0, 0)}
	p := NewProfiler(time.Second)
	p.now = clock.now
	p.reset(clock.now())

	for _, d := range []time.Duration{200, 300, 100, 300} {
		clock.advance(d * time.Millisecond)
		assert.False(t, p.Tick())
	}
	clock.advance(100 * time.Millisecond)
	require.True(t, p.Tick())

	s := p.Last()
	assert.Equal(t, 5, s.Frames)
	assert.InDelta(t, 5.0, s.FPS, 1e-9)
	assert.Equal(t, 200*time.Millisecond, s.FrameAvg)
	assert.Equal(t, 100*time.Millisecond, s.FrameMin)
	assert.Equal(t, 300*time.Millisecond, s.FrameMax)

	clock.advance(10 * time.Millisecond)
	assert.False(t, p.Tick())
}

func TestDefaultInterval(t *testing.T) {
	p := NewProfiler(0)
	assert.Equal(t, time.Second, p.updateInterval)
}
