package staging

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestBuffer(t *testing.T, capacity int) (StagingBuffer, *backendtest.Recorder) {
	t.Helper()
	rec := backendtest.NewDefault()
	s, err := NewStagingBuffer(rec, WithCapacity(capacity))
	require.NoError(t, err)
	return s, rec
}

func TestNewStagingBufferDefaultsToMaxUniformBlockSize(t *testing.T) {
	rec := backendtest.NewDefault()
	s, err := NewStagingBuffer(rec)
	require.NoError(t, err)

	assert.Equal(t, 64*1024, s.Capacity())
	assert.Equal(t, 0, s.Head())
	assert.False(t, s.IsMapped())
	assert.Len(t, rec.BufferData(s.Handle()), 64*1024)
}

func TestNewStagingBufferAllocationFailure(t *testing.T) {
	rec := backendtest.NewDefault()
	rec.FailBufferCreation = true

	_, err := NewStagingBuffer(rec)
	assert.ErrorIs(t, err, ErrAllocationFailed)
}

func TestAcquireTwiceFails(t *testing.T) {
	s, _ := newTestBuffer(t, 1024)
	require.NoError(t, s.AcquireForWriting())
	assert.ErrorIs(t, s.AcquireForWriting(), ErrAlreadyMapped)
	require.NoError(t, s.Release())
	assert.ErrorIs(t, s.Release(), ErrNotMapped)
}

func TestWriteRequiresMapping(t *testing.T) {
	s, _ := newTestBuffer(t, 1024)
	_, err := s.Write([]byte{1, 2, 3})
	assert.ErrorIs(t, err, ErrNotMapped)
}

func TestAlignProducesMultiples(t *testing.T) {
	s, _ := newTestBuffer(t, 4096)
	require.NoError(t, s.AcquireForWriting())

	for _, n := range []int{1, 3, 16, 100, 255, 256, 300} {
		_, err := s.Write(make([]byte, n))
		require.NoError(t, err)
		before := s.Head()
		require.NoError(t, s.Align(256))
		assert.Zero(t, s.Head()%256)
		assert.GreaterOrEqual(t, s.Head(), before)
		assert.Less(t, s.Head()-before, 256)
	}
}

func TestHeadIsMonotonicAndResets(t *testing.T) {
	s, rec := newTestBuffer(t, 2048)
	require.NoError(t, s.AcquireForWriting())

	prev := s.Head()
	for i := range 5 {
		r, err := s.Write([]byte{byte(i), byte(i), byte(i)})
		require.NoError(t, err)
		assert.Equal(t, prev, r.Offset)
		assert.GreaterOrEqual(t, s.Head(), prev)
		prev = s.Head()
		require.NoError(t, s.Align(16))
		assert.GreaterOrEqual(t, s.Head(), prev)
		prev = s.Head()
	}
	require.NoError(t, s.Release())

	s.Reset()
	assert.Equal(t, 0, s.Head())

	require.NoError(t, s.AcquireForWriting())
	r, err := s.Write([]byte{9})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Offset)
	require.NoError(t, s.Release())

	assert.Equal(t, byte(9), rec.BufferData(s.Handle())[0])
	assert.Len(t, rec.Ops(backendtest.OpMapBuffer), 2)
	assert.Len(t, rec.Ops(backendtest.OpUnmapBuffer), 2)
}

func TestOverflowIsReported(t *testing.T) {
	s, _ := newTestBuffer(t, 300)
	require.NoError(t, s.AcquireForWriting())

	_, err := s.Write(make([]byte, 200))
	require.NoError(t, err)

	_, err = s.Write(make([]byte, 101))
	assert.ErrorIs(t, err, ErrOverflow)
	assert.Equal(t, 200, s.Head())

	_, err = s.Write(make([]byte, 100))
	require.NoError(t, err)
	assert.Equal(t, s.Capacity(), s.Head())

	assert.ErrorIs(t, s.Align(256), ErrOverflow)
	assert.Equal(t, 300, s.Head())
}

func TestDestroyReleasesBuffer(t *testing.T) {
	s, rec := newTestBuffer(t, 512)
	h := s.Handle()
	require.NoError(t, s.AcquireForWriting())
	s.Destroy()

	assert.NotContains(t, rec.Buffers, h)
	assert.False(t, s.IsMapped())
	assert.Equal(t, backend.InvalidBuffer, s.Handle())
}
