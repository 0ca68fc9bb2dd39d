// Package staging implements the per-frame uniform staging buffer: one linear, alignment-aware
// buffer that every draw of a frame takes its uniform ranges from.
package staging

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
)

var (
	// ErrAllocationFailed is returned when the backing buffer could not be created.
	ErrAllocationFailed = errors.New("staging buffer allocation failed")

	// ErrAlreadyMapped is returned by AcquireForWriting when the buffer is already mapped.
	ErrAlreadyMapped = errors.New("staging buffer already mapped")

	// ErrNotMapped is returned when writing to or releasing a buffer that is not mapped.
	ErrNotMapped = errors.New("staging buffer not mapped")

	// ErrOverflow is returned when a write or alignment would move the head past capacity.
	ErrOverflow = errors.New("staging buffer overflow")
)

// Range is a byte range of the staging buffer recorded for a later BindUniformRange.
type Range struct {
	Offset int
	Size   int
}

// stagingBuffer is the implementation of the StagingBuffer interface.
type stagingBuffer struct {
	label    string
	backend  backend.Backend
	handle   backend.BufferHandle
	capacity int
	head     int
	mapped   []byte
}

// StagingBuffer is a linear allocator over one GPU uniform buffer.
// The head only advances while mapped and is rewound with Reset before the next frame.
type StagingBuffer interface {
	// Handle returns the backing buffer handle.
	//
	// Returns:
	//   - backend.BufferHandle: the GPU buffer bound by BindUniformRange
	Handle() backend.BufferHandle

	// Capacity returns the size of the backing buffer in bytes.
	//
	// Returns:
	//   - int: capacity in bytes
	Capacity() int

	// Head returns the current write offset.
	//
	// Returns:
	//   - int: the next byte written
	Head() int

	// IsMapped reports whether the buffer is currently mapped for writing.
	//
	// Returns:
	//   - bool: true between AcquireForWriting and Release
	IsMapped() bool

	// Reset rewinds the head to zero.
	Reset()

	// AcquireForWriting maps the buffer for CPU writes.
	//
	// Returns:
	//   - error: ErrAlreadyMapped if already mapped, or the backend map error
	AcquireForWriting() error

	// Align advances the head to the next multiple of boundary.
	//
	// Parameters:
	//   - boundary: the alignment in bytes
	//
	// Returns:
	//   - error: ErrOverflow if the aligned head exceeds capacity
	Align(boundary int) error

	// Write copies data at the head and advances it.
	//
	// Parameters:
	//   - data: the bytes to append
	//
	// Returns:
	//   - Range: the range the data now occupies
	//   - error: ErrNotMapped or ErrOverflow
	Write(data []byte) (Range, error)

	// Release unmaps the buffer, making the written bytes visible to the GPU.
	//
	// Returns:
	//   - error: ErrNotMapped if the buffer was not mapped
	Release() error

	// Destroy frees the backing buffer.
	Destroy()
}

var _ StagingBuffer = &stagingBuffer{}

// NewStagingBuffer allocates the staging buffer. Unless overridden with WithCapacity, it is sized to the
// backend's maximum uniform block size.
//
// Parameters:
//   - b: the backend that owns the GPU buffer
//   - options: functional options
//
// Returns:
//   - StagingBuffer: the allocated buffer, unmapped with head 0
//   - error: an error wrapping ErrAllocationFailed
func NewStagingBuffer(b backend.Backend, options ...StagingBufferBuilderOption) (StagingBuffer, error) {
	s := &stagingBuffer{
		label:    "Uniform Staging Buffer",
		backend:  b,
		capacity: b.Limits().MaxUniformBlockSize,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", ErrAllocationFailed, s.capacity)
	}

	h, err := b.CreateBuffer(backend.BufferDescriptor{
		Label: s.label,
		Usage: backend.BufferUsageUniform,
		Size:  s.capacity,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
	}
	s.handle = h

	common.Logger().Debug("staging buffer created", "label", s.label, "capacity", s.capacity)
	return s, nil
}

func (s *stagingBuffer) Handle() backend.BufferHandle {
	return s.handle
}

func (s *stagingBuffer) Capacity() int {
	return s.capacity
}

func (s *stagingBuffer) Head() int {
	return s.head
}

func (s *stagingBuffer) IsMapped() bool {
	return s.mapped != nil
}

func (s *stagingBuffer) Reset() {
	s.head = 0
}

func (s *stagingBuffer) AcquireForWriting() error {
	if s.mapped != nil {
		return ErrAlreadyMapped
	}
	if !s.handle.Valid() {
		return ErrAllocationFailed
	}
	data, err := s.backend.MapBuffer(s.handle)
	if err != nil {
		return fmt.Errorf("map %s: %w", s.label, err)
	}
	if len(data) < s.capacity {
		_ = s.backend.UnmapBuffer(s.handle)
		return fmt.Errorf("%w: mapped %d of %d bytes", ErrAllocationFailed, len(data), s.capacity)
	}
	s.mapped = data
	return nil
}

func (s *stagingBuffer) Align(boundary int) error {
	aligned := common.AlignUp(s.head, boundary)
	if aligned > s.capacity {
		return fmt.Errorf("%w: align to %d moves head to %d past capacity %d", ErrOverflow, boundary, aligned, s.capacity)
	}
	s.head = aligned
	return nil
}

func (s *stagingBuffer) Write(data []byte) (Range, error) {
	if s.mapped == nil {
		return Range{}, ErrNotMapped
	}
	end := s.head + len(data)
	if end > s.capacity {
		return Range{}, fmt.Errorf("%w: writing %d bytes at %d exceeds capacity %d", ErrOverflow, len(data), s.head, s.capacity)
	}
	copy(s.mapped[s.head:end], data)
	r := Range{Offset: s.head, Size: len(data)}
	s.head = end
	return r, nil
}

func (s *stagingBuffer) Release() error {
	if s.mapped == nil {
		return ErrNotMapped
	}
	s.mapped = nil
	if err := s.backend.UnmapBuffer(s.handle); err != nil {
		return fmt.Errorf("unmap %s: %w", s.label, err)
	}
	return nil
}

func (s *stagingBuffer) Destroy() {
	if s.mapped != nil {
		_ = s.Release()
	}
	if s.handle.Valid() {
		s.backend.DestroyBuffer(s.handle)
		s.handle = backend.InvalidBuffer
	}
}
