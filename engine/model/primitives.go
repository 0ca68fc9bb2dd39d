package model

import (
	"encoding/binary"
	"math"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/chewxy/math32"
)

// QuadIndexCount is the number of indices of the fullscreen quad.
const QuadIndexCount = 6

// Quad builds the fullscreen quad used by composite and post-process passes: four GPUQuadVertex
// corners spanning clip space and the uint16 indices 0,1,2,0,2,3.
//
// Returns:
//   - MeshData: a single-submesh quad
func Quad() MeshData {
	verts := []GPUQuadVertex{
		{Position: [3]float32{-1, -1, 0}, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{1, -1, 0}, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{1, 1, 0}, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-1, 1, 0}, TexCoord: [2]float32{0, 1}},
	}
	vb := make([]byte, 0, len(verts)*20)
	for i := range verts {
		vb = append(vb, verts[i].Marshal()...)
	}
	indices := []uint16{0, 1, 2, 0, 2, 3}
	ib := make([]byte, len(indices)*2)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(ib[i*2:], idx)
	}
	return MeshData{
		Name:        "quad",
		Vertices:    vb,
		Indices:     ib,
		IndexFormat: backend.IndexFormatUint16,
		SubMeshes: []SubMeshData{{
			Layout:     GPUQuadVertexLayout,
			IndexCount: QuadIndexCount,
		}},
	}
}

// Cube builds a unit cube centered on the origin with per-face normals and uvs.
//
// Returns:
//   - MeshData: 24 vertices and 36 uint32 indices in one submesh
func Cube() MeshData {
	type face struct {
		normal, u, v [3]float32
	}
	faces := []face{
		{normal: [3]float32{0, 0, 1}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 0, -1}, u: [3]float32{-1, 0, 0}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{1, 0, 0}, u: [3]float32{0, 0, -1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{-1, 0, 0}, u: [3]float32{0, 0, 1}, v: [3]float32{0, 1, 0}},
		{normal: [3]float32{0, 1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, -1}},
		{normal: [3]float32{0, -1, 0}, u: [3]float32{1, 0, 0}, v: [3]float32{0, 0, 1}},
	}
	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

	verts := make([]GPUVertex, 0, 24)
	indices := make([]uint32, 0, 36)
	for _, f := range faces {
		base := uint32(len(verts))
		for _, c := range corners {
			var p [3]float32
			for k := range 3 {
				p[k] = 0.5 * (f.normal[k] + c[0]*f.u[k] + c[1]*f.v[k])
			}
			verts = append(verts, GPUVertex{
				Position: p,
				Normal:   f.normal,
				TexCoord: [2]float32{(c[0] + 1) / 2, (c[1] + 1) / 2},
			})
		}
		indices = append(indices, base, base+1, base+2, base, base+2, base+3)
	}
	return buildMeshData("cube", verts, indices)
}

// Plane builds a 2x2 plane on the XZ axis facing +Y.
//
// Returns:
//   - MeshData: 4 vertices and 6 uint32 indices in one submesh
func Plane() MeshData {
	up := [3]float32{0, 1, 0}
	verts := []GPUVertex{
		{Position: [3]float32{-1, 0, 1}, Normal: up, TexCoord: [2]float32{0, 0}},
		{Position: [3]float32{1, 0, 1}, Normal: up, TexCoord: [2]float32{1, 0}},
		{Position: [3]float32{1, 0, -1}, Normal: up, TexCoord: [2]float32{1, 1}},
		{Position: [3]float32{-1, 0, -1}, Normal: up, TexCoord: [2]float32{0, 1}},
	}
	return buildMeshData("plane", verts, []uint32{0, 1, 2, 0, 2, 3})
}

// Sphere builds a UV sphere of radius 0.5.
//
// Parameters:
//   - stacks: latitude subdivisions (minimum 2)
//   - sectors: longitude subdivisions (minimum 3)
//
// Returns:
//   - MeshData: (stacks+1)*(sectors+1) vertices in one submesh
func Sphere(stacks, sectors int) MeshData {
	stacks = max(stacks, 2)
	sectors = max(sectors, 3)

	verts := make([]GPUVertex, 0, (stacks+1)*(sectors+1))
	for i := 0; i <= stacks; i++ {
		phi := math32.Pi/2 - float32(i)*math32.Pi/float32(stacks)
		y := math32.Sin(phi)
		r := math32.Cos(phi)
		for j := 0; j <= sectors; j++ {
			theta := float32(j) * 2 * math32.Pi / float32(sectors)
			n := [3]float32{r * math32.Cos(theta), y, r * math32.Sin(theta)}
			verts = append(verts, GPUVertex{
				Position: [3]float32{n[0] * 0.5, n[1] * 0.5, n[2] * 0.5},
				Normal:   n,
				TexCoord: [2]float32{float32(j) / float32(sectors), float32(i) / float32(stacks)},
			})
		}
	}

	indices := make([]uint32, 0, stacks*sectors*6)
	for i := range stacks {
		k1 := uint32(i * (sectors + 1))
		k2 := k1 + uint32(sectors+1)
		for j := 0; j < sectors; j, k1, k2 = j+1, k1+1, k2+1 {
			if i != 0 {
				indices = append(indices, k1, k2, k1+1)
			}
			if i != stacks-1 {
				indices = append(indices, k1+1, k2, k2+1)
			}
		}
	}
	return buildMeshData("sphere", verts, indices)
}

// Merge concatenates uint32-indexed meshes into one mesh whose submeshes keep their own vertex and
// index ranges. Each part's submeshes are rebased onto the merged buffers.
//
// Parameters:
//   - name: the merged mesh name
//   - parts: the meshes to concatenate, all using IndexFormatUint32
//
// Returns:
//   - MeshData: the merged mesh with one submesh per input submesh
func Merge(name string, parts ...MeshData) MeshData {
	out := MeshData{Name: name, IndexFormat: backend.IndexFormatUint32}
	for _, p := range parts {
		vbase, ibase := len(out.Vertices), len(out.Indices)
		out.Vertices = append(out.Vertices, p.Vertices...)
		out.Indices = append(out.Indices, p.Indices...)
		for _, sm := range p.SubMeshes {
			sm.VertexOffset += vbase
			sm.IndexOffset += ibase
			out.SubMeshes = append(out.SubMeshes, sm)
		}
	}
	return out
}

// Transform returns a copy of uint32-indexed GPUVertex mesh data with every position scaled then offset.
//
// Parameters:
//   - scale: per-axis scale applied to positions
//   - offset: translation applied after scaling
//
// Returns:
//   - MeshData: the transformed copy
func (d MeshData) Transform(scale, offset [3]float32) MeshData {
	out := d
	out.Vertices = make([]byte, len(d.Vertices))
	copy(out.Vertices, d.Vertices)
	for v := 0; v+32 <= len(out.Vertices); v += 32 {
		for k := range 3 {
			at := v + k*4
			f := math.Float32frombits(binary.LittleEndian.Uint32(out.Vertices[at:]))
			binary.LittleEndian.PutUint32(out.Vertices[at:], math.Float32bits(f*scale[k]+offset[k]))
		}
	}
	return out
}

func buildMeshData(name string, verts []GPUVertex, indices []uint32) MeshData {
	vb := make([]byte, 0, len(verts)*32)
	for i := range verts {
		vb = append(vb, verts[i].Marshal()...)
	}
	ib := make([]byte, len(indices)*4)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(ib[i*4:], idx)
	}
	return MeshData{
		Name:        name,
		Vertices:    vb,
		Indices:     ib,
		IndexFormat: backend.IndexFormatUint32,
		SubMeshes: []SubMeshData{{
			Layout:     GPUVertexLayout,
			IndexCount: len(indices),
		}},
	}
}
