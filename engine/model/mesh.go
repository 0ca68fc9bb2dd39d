// Package model holds the CPU-side description of meshes and models: vertex layouts, submesh ranges,
// the per-submesh vertex array bindings, and the procedural primitives used by the default scene.
package model

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
)

// VertexBufferAttribute is one attribute of an interleaved vertex layout.
type VertexBufferAttribute struct {
	// Location is the shader input location the attribute feeds.
	Location uint32

	// Components is the number of float32 components (1-4).
	Components int

	// Offset is the byte offset of the attribute within one vertex.
	Offset int
}

// VertexBufferLayout describes an interleaved vertex format.
type VertexBufferLayout struct {
	Attributes []VertexBufferAttribute
	Stride     int
}

// Find returns the attribute bound to a shader location.
//
// Parameters:
//   - location: the shader input location
//
// Returns:
//   - VertexBufferAttribute: the attribute at that location
//   - bool: false if the layout has no attribute at that location
func (l VertexBufferLayout) Find(location uint32) (VertexBufferAttribute, bool) {
	for _, a := range l.Attributes {
		if a.Location == location {
			return a, true
		}
	}
	return VertexBufferAttribute{}, false
}

// VAOBinding pairs a program with the vertex array built for it.
type VAOBinding struct {
	Program     backend.ProgramHandle
	VertexArray backend.VertexArrayHandle
}

// SubMesh is a contiguous index range of a Mesh drawn with one material.
// Layout and ranges are fixed after load. Only VAOs grows, one entry per program that drew it.
type SubMesh struct {
	Layout VertexBufferLayout

	// VertexOffset is the byte offset of the submesh's first vertex in the mesh vertex buffer.
	VertexOffset int

	// IndexOffset is the byte offset of the submesh's first index in the mesh index buffer.
	IndexOffset int

	// IndexCount is the number of indices drawn.
	IndexCount int

	// VAOs holds at most one binding per program handle.
	VAOs []VAOBinding
}

// Mesh owns one vertex buffer and one index buffer shared by its submeshes.
type Mesh struct {
	Name         string
	VertexBuffer backend.BufferHandle
	IndexBuffer  backend.BufferHandle
	IndexFormat  backend.IndexFormat
	SubMeshes    []*SubMesh
}

// Model references a mesh and one material per submesh by index into the renderer's resource tables.
type Model struct {
	Name      string
	Mesh      int
	Materials []int
}

// MeshData is the CPU form of a mesh before upload.
type MeshData struct {
	Name        string
	Vertices    []byte
	Indices     []byte
	IndexFormat backend.IndexFormat
	SubMeshes   []SubMeshData
}

// SubMeshData is the CPU form of a submesh before upload.
type SubMeshData struct {
	Layout       VertexBufferLayout
	VertexOffset int
	IndexOffset  int
	IndexCount   int
}

// Upload creates the vertex and index buffers for the mesh data.
//
// Parameters:
//   - b: the backend that will own the buffers
//
// Returns:
//   - *Mesh: the GPU mesh with empty VAO binding lists
//   - error: error if either buffer could not be created
func (d MeshData) Upload(b backend.Backend) (*Mesh, error) {
	vb, err := b.CreateBuffer(backend.BufferDescriptor{
		Label: d.Name + " Vertex Buffer",
		Usage: backend.BufferUsageVertex,
		Data:  d.Vertices,
	})
	if err != nil {
		return nil, err
	}
	ib, err := b.CreateBuffer(backend.BufferDescriptor{
		Label: d.Name + " Index Buffer",
		Usage: backend.BufferUsageIndex,
		Data:  d.Indices,
	})
	if err != nil {
		b.DestroyBuffer(vb)
		return nil, err
	}

	m := &Mesh{
		Name:         d.Name,
		VertexBuffer: vb,
		IndexBuffer:  ib,
		IndexFormat:  d.IndexFormat,
		SubMeshes:    make([]*SubMesh, 0, len(d.SubMeshes)),
	}
	for _, sd := range d.SubMeshes {
		m.SubMeshes = append(m.SubMeshes, &SubMesh{
			Layout:       sd.Layout,
			VertexOffset: sd.VertexOffset,
			IndexOffset:  sd.IndexOffset,
			IndexCount:   sd.IndexCount,
		})
	}
	return m, nil
}

// Destroy releases the mesh buffers and every vertex array cached on its submeshes.
//
// Parameters:
//   - b: the backend that owns the buffers
func (m *Mesh) Destroy(b backend.Backend) {
	for _, sm := range m.SubMeshes {
		for _, vao := range sm.VAOs {
			b.DestroyVertexArray(vao.VertexArray)
		}
		sm.VAOs = nil
	}
	if m.VertexBuffer.Valid() {
		b.DestroyBuffer(m.VertexBuffer)
	}
	if m.IndexBuffer.Valid() {
		b.DestroyBuffer(m.IndexBuffer)
	}
	m.VertexBuffer, m.IndexBuffer = backend.InvalidBuffer, backend.InvalidBuffer
}
