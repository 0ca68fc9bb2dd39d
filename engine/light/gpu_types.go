package light

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// MaxLights is the capacity of the light array declared by the lit shaders.
// Lights beyond it are not packed.
const MaxLights = 16

// GPULightSize is the size in bytes of one packed light record.
const GPULightSize = 48

// GPULight is the uniform-block representation of a single light.
// The layout is valid for both std140 and WGSL uniform address space rules.
// Size: 48 bytes.
type GPULight struct {
	Color     [3]float32 // offset  0
	LightType uint32     // offset 12: 0 = directional, 1 = point
	Direction [3]float32 // offset 16
	_pad0     uint32     // offset 28
	Position  [3]float32 // offset 32
	_pad1     uint32     // offset 44
}

// Size returns the size of the GPULight struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (48)
func (g *GPULight) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the light into a 48-byte little-endian buffer.
//
// Returns:
//   - []byte: 48-byte buffer ready for GPU upload
func (g *GPULight) Marshal() []byte {
	buf := make([]byte, GPULightSize)
	g.MarshalInto(buf)
	return buf
}

// MarshalInto writes the light into the first 48 bytes of buf.
//
// Parameters:
//   - buf: destination, at least 48 bytes long
func (g *GPULight) MarshalInto(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Color[2]))
	binary.LittleEndian.PutUint32(buf[12:16], g.LightType)
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Direction[0]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Direction[1]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.Direction[2]))
	binary.LittleEndian.PutUint32(buf[28:32], 0)
	binary.LittleEndian.PutUint32(buf[32:36], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[36:40], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[40:44], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[44:48], 0)
}

// ToGPULight converts a Light into its packed representation.
//
// Parameters:
//   - l: the Light to convert
//
// Returns:
//   - GPULight: the GPU-aligned representation
func ToGPULight(l Light) GPULight {
	return GPULight{
		Color:     l.Color(),
		LightType: uint32(l.Type()),
		Direction: l.Direction(),
		Position:  l.Position(),
	}
}
