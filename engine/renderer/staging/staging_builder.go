package staging

// StagingBufferBuilderOption is a functional option for configuring a stagingBuffer.
type StagingBufferBuilderOption func(s *stagingBuffer)

// WithCapacity overrides the buffer size, which otherwise defaults to the backend's maximum uniform block size.
//
// Parameters:
//   - capacity: size in bytes
//
// Returns:
//   - StagingBufferBuilderOption: option function to apply
func WithCapacity(capacity int) StagingBufferBuilderOption {
	return func(s *stagingBuffer) {
		s.capacity = capacity
	}
}

// WithLabel sets the debug label of the backing buffer.
//
// Parameters:
//   - label: the buffer label
//
// Returns:
//   - StagingBufferBuilderOption: option function to apply
func WithLabel(label string) StagingBufferBuilderOption {
	return func(s *stagingBuffer) {
		s.label = label
	}
}
