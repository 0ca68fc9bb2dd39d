package vao_cache

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/model"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litProgram(h backend.ProgramHandle, name string) *program.Program {
	return &program.Program{
		Handle: h,
		Name:   name,
		Attributes: []backend.AttributeInfo{
			{Name: "aNormal", Location: 1, Components: 3},
			{Name: "aPosition", Location: 0, Components: 3},
		},
	}
}

func uploadStatue(t *testing.T, rec *backendtest.Recorder) *model.Mesh {
	t.Helper()
	m, err := model.Merge("statue", model.Cube(), model.Sphere(4, 4)).Upload(rec)
	require.NoError(t, err)
	return m
}

func TestFindOrCreateIsIdempotent(t *testing.T) {
	rec := backendtest.NewDefault()
	mesh := uploadStatue(t, rec)
	cache := NewVAOCache(rec)
	p := litProgram(7, "forward")
	sm := mesh.SubMeshes[0]

	first, err := cache.FindOrCreate(mesh, sm, p)
	require.NoError(t, err)
	for range 10 {
		again, err := cache.FindOrCreate(mesh, sm, p)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}

	assert.Len(t, rec.Ops(backendtest.OpCreateVertexArray), 1)
	assert.Len(t, sm.VAOs, 1)
	assert.Equal(t, 1, cache.Created())
}

func TestDistinctProgramsGetDistinctBindings(t *testing.T) {
	rec := backendtest.NewDefault()
	mesh := uploadStatue(t, rec)
	cache := NewVAOCache(rec)
	sm := mesh.SubMeshes[0]

	a, err := cache.FindOrCreate(mesh, sm, litProgram(7, "forward"))
	require.NoError(t, err)
	b, err := cache.FindOrCreate(mesh, sm, litProgram(8, "deferred_geometry"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Len(t, sm.VAOs, 2)
	assert.Empty(t, mesh.SubMeshes[1].VAOs)
}

func TestBindingFollowsProgramOrderAndSubmeshOffset(t *testing.T) {
	rec := backendtest.NewDefault()
	mesh := uploadStatue(t, rec)
	cache := NewVAOCache(rec)
	sm := mesh.SubMeshes[1]
	require.NotZero(t, sm.VertexOffset)

	h, err := cache.FindOrCreate(mesh, sm, litProgram(7, "forward"))
	require.NoError(t, err)

	desc := rec.VertexArrays[h]
	require.Len(t, desc.Attributes, 2)
	assert.Equal(t, uint32(1), desc.Attributes[0].Location)
	assert.Equal(t, 12+sm.VertexOffset, desc.Attributes[0].Offset)
	assert.Equal(t, uint32(0), desc.Attributes[1].Location)
	assert.Equal(t, sm.VertexOffset, desc.Attributes[1].Offset)
	assert.Equal(t, 32, desc.Stride)
	assert.Equal(t, mesh.VertexBuffer, desc.VertexBuffer)
	assert.Equal(t, mesh.IndexBuffer, desc.IndexBuffer)
}

func TestMissingAttributeFails(t *testing.T) {
	rec := backendtest.NewDefault()
	mesh := uploadStatue(t, rec)
	cache := NewVAOCache(rec)
	p := litProgram(7, "tangent_space")
	p.Attributes = append(p.Attributes, backend.AttributeInfo{Name: "aTangent", Location: 3, Components: 3})

	_, err := cache.FindOrCreate(mesh, mesh.SubMeshes[0], p)
	assert.ErrorIs(t, err, ErrMissingAttribute)
	assert.Empty(t, rec.Ops(backendtest.OpCreateVertexArray))
	assert.Empty(t, mesh.SubMeshes[0].VAOs)
}

func TestInvalidateDropsOnlyRetiredProgram(t *testing.T) {
	rec := backendtest.NewDefault()
	mesh := uploadStatue(t, rec)
	cache := NewVAOCache(rec)

	for _, sm := range mesh.SubMeshes {
		_, err := cache.FindOrCreate(mesh, sm, litProgram(7, "forward"))
		require.NoError(t, err)
		_, err = cache.FindOrCreate(mesh, sm, litProgram(8, "deferred_geometry"))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, cache.Invalidate([]*model.Mesh{mesh}, 7))
	for _, sm := range mesh.SubMeshes {
		require.Len(t, sm.VAOs, 1)
		assert.Equal(t, backend.ProgramHandle(8), sm.VAOs[0].Program)
	}
	assert.Len(t, rec.Ops(backendtest.OpDestroyVertexArray), 2)
}
