package common

import (
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/go-gl/mathgl/mgl32"
)

// AlignUp rounds value up to the next multiple of alignment.
// An alignment of 0 or 1 leaves the value unchanged. Alignment does not need to be a power of two,
// some drivers report offset alignments like 48 or 96.
//
// Parameters:
//   - value: the value to align
//   - alignment: the boundary to align to
//
// Returns:
//   - int: value rounded up to a multiple of alignment
func AlignUp(value, alignment int) int {
	if alignment <= 1 {
		return value
	}
	if rem := value % alignment; rem != 0 {
		return value + alignment - rem
	}
	return value
}

// Clamp restricts v to the closed range [lo, hi].
//
// Parameters:
//   - v: the value to clamp
//   - lo: lower bound
//   - hi: upper bound
//
// Returns:
//   - T: the clamped value
func Clamp[T ~int | ~int32 | ~uint32 | ~float32 | ~float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SliceToBytes converts any slice to a byte slice for GPU buffer uploads.
// Uses unsafe pointer operations to create a view into the original data.
// WARNING: The returned slice shares memory with the input - do not modify.
//
// Parameters:
//   - data: source slice of any type
//
// Returns:
//   - []byte: byte slice view of the input data, or nil if input is empty
func SliceToBytes[T any](data []T) []byte {
	if len(data) == 0 {
		return nil
	}
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(&data[0])), int(size)*len(data))
}

// PutMat4 writes a column-major 4x4 matrix into buf as 16 little-endian float32 values.
//
// Parameters:
//   - buf: destination slice (must be at least 64 bytes)
//   - m: the matrix to write
func PutMat4(buf []byte, m mgl32.Mat4) {
	for i := range 16 {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(m[i]))
	}
}

// PutVec3 writes a vec3 into buf as 3 little-endian float32 values.
//
// Parameters:
//   - buf: destination slice (must be at least 12 bytes)
//   - v: the vector to write
func PutVec3(buf []byte, v mgl32.Vec3) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(v[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(v[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(v[2]))
}
