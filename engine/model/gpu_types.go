package model

import (
	"encoding/binary"
	"math"
	"unsafe"
)

// GPUVertex is the interleaved vertex used by lit meshes.
// Size: 32 bytes.
type GPUVertex struct {
	Position [3]float32 // offset  0, location 0
	Normal   [3]float32 // offset 12, location 1
	TexCoord [2]float32 // offset 24, location 2
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the struct size in bytes (32)
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the vertex into a 32-byte little-endian buffer.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Normal[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Normal[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Normal[2]))
	binary.LittleEndian.PutUint32(buf[24:28], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[28:32], math.Float32bits(g.TexCoord[1]))
	return buf
}

// GPUVertexLayout is the layout of GPUVertex: position@0, normal@1, uv@2.
var GPUVertexLayout = VertexBufferLayout{
	Attributes: []VertexBufferAttribute{
		{Location: 0, Components: 3, Offset: 0},
		{Location: 1, Components: 3, Offset: 12},
		{Location: 2, Components: 2, Offset: 24},
	},
	Stride: 32,
}

// GPUQuadVertex is the position and uv vertex used by fullscreen passes.
// Size: 20 bytes.
type GPUQuadVertex struct {
	Position [3]float32 // offset  0, location 0
	TexCoord [2]float32 // offset 12, location 1
}

// Marshal serializes the vertex into a 20-byte little-endian buffer.
//
// Returns:
//   - []byte: 20-byte buffer ready for GPU upload
func (g *GPUQuadVertex) Marshal() []byte {
	buf := make([]byte, 20)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.TexCoord[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.TexCoord[1]))
	return buf
}

// GPUQuadVertexLayout is the layout of GPUQuadVertex: position@0, uv@1.
var GPUQuadVertexLayout = VertexBufferLayout{
	Attributes: []VertexBufferAttribute{
		{Location: 0, Components: 3, Offset: 0},
		{Location: 1, Components: 2, Offset: 12},
	},
	Stride: 20,
}
