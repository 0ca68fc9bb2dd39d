package model

import (
	"encoding/binary"
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuadMatchesFullscreenLayout(t *testing.T) {
	q := Quad()
	require.Len(t, q.SubMeshes, 1)
	assert.Equal(t, backend.IndexFormatUint16, q.IndexFormat)
	assert.Equal(t, QuadIndexCount, q.SubMeshes[0].IndexCount)
	assert.Len(t, q.Vertices, 4*20)

	var idx []uint16
	for i := 0; i < len(q.Indices); i += 2 {
		idx = append(idx, binary.LittleEndian.Uint16(q.Indices[i:]))
	}
	assert.Equal(t, []uint16{0, 1, 2, 0, 2, 3}, idx)
	assert.Equal(t, 20, q.SubMeshes[0].Layout.Stride)
}

func TestPrimitiveSizes(t *testing.T) {
	cube := Cube()
	assert.Len(t, cube.Vertices, 24*32)
	assert.Equal(t, 36, cube.SubMeshes[0].IndexCount)
	assert.Len(t, cube.Indices, 36*4)

	plane := Plane()
	assert.Equal(t, 6, plane.SubMeshes[0].IndexCount)

	sphere := Sphere(8, 12)
	assert.Len(t, sphere.Vertices, 9*13*32)
	assert.Equal(t, (8-1)*12*6, sphere.SubMeshes[0].IndexCount)
}

func TestSphereIndicesInRange(t *testing.T) {
	s := Sphere(6, 6)
	n := uint32(len(s.Vertices) / 32)
	for i := 0; i < len(s.Indices); i += 4 {
		assert.Less(t, binary.LittleEndian.Uint32(s.Indices[i:]), n)
	}
}

func TestMergeRebasesSubMeshes(t *testing.T) {
	cube, sphere := Cube(), Sphere(4, 4)
	m := Merge("statue", cube, sphere)

	require.Len(t, m.SubMeshes, 2)
	assert.Equal(t, 0, m.SubMeshes[0].VertexOffset)
	assert.Equal(t, len(cube.Vertices), m.SubMeshes[1].VertexOffset)
	assert.Equal(t, len(cube.Indices), m.SubMeshes[1].IndexOffset)
	assert.Len(t, m.Vertices, len(cube.Vertices)+len(sphere.Vertices))
}

func TestTransformMovesPositionsOnly(t *testing.T) {
	p := Plane().Transform([3]float32{2, 1, 2}, [3]float32{0, 3, 0})
	first := GPUVertex{Position: [3]float32{-2, 3, 2}, Normal: [3]float32{0, 1, 0}}
	assert.Equal(t, first.Marshal(), p.Vertices[:32])
}

func TestLayoutFind(t *testing.T) {
	a, ok := GPUVertexLayout.Find(2)
	require.True(t, ok)
	assert.Equal(t, 24, a.Offset)
	_, ok = GPUVertexLayout.Find(7)
	assert.False(t, ok)
}

func TestUploadAndDestroy(t *testing.T) {
	rec := backendtest.NewDefault()
	mesh, err := Merge("statue", Cube(), Sphere(4, 4)).Upload(rec)
	require.NoError(t, err)

	assert.True(t, mesh.VertexBuffer.Valid())
	assert.True(t, mesh.IndexBuffer.Valid())
	require.Len(t, mesh.SubMeshes, 2)
	assert.Empty(t, mesh.SubMeshes[1].VAOs)

	mesh.SubMeshes[0].VAOs = append(mesh.SubMeshes[0].VAOs, VAOBinding{Program: 1, VertexArray: 42})
	mesh.Destroy(rec)
	assert.Len(t, rec.Ops(backendtest.OpDestroyVertexArray), 1)
	assert.Len(t, rec.Ops(backendtest.OpDestroyBuffer), 2)
	assert.Empty(t, mesh.SubMeshes[0].VAOs)
}
