package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func litProgram() *program.Program {
	return &program.Program{
		Handle: 1,
		Name:   "forward",
		Uniforms: map[string]backend.UniformLocation{
			"uAlbedo":    3,
			"useTexture": 4,
		},
	}
}

func TestBindSetsAlbedoFlagAndTexture(t *testing.T) {
	rec := backendtest.NewDefault()
	m := NewMaterial(WithAlbedo(mgl32.Vec3{1, 0, 0}), WithAlbedoTexture(1))
	m.Bind(rec, litProgram(), []backend.TextureHandle{10, 11})

	vec := rec.Ops(backendtest.OpSetUniformVec3)
	require.Len(t, vec, 1)
	assert.Equal(t, backend.UniformLocation(3), vec[0].Location)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, vec[0].Vec3)

	ints := rec.Ops(backendtest.OpSetUniformInt)
	require.Len(t, ints, 1)
	assert.Equal(t, int32(1), ints[0].Int)

	tex := rec.Ops(backendtest.OpBindTexture)
	require.Len(t, tex, 1)
	assert.Equal(t, AlbedoUnit, tex[0].Unit)
	assert.Equal(t, backend.TextureHandle(11), tex[0].Texture)
}

func TestBindFallsBackToDefaultTexture(t *testing.T) {
	rec := backendtest.NewDefault()
	m := NewMaterial(WithAlbedoTexture(7), WithUseTexture(false))
	m.Bind(rec, litProgram(), []backend.TextureHandle{10})

	assert.Equal(t, int32(0), rec.Ops(backendtest.OpSetUniformInt)[0].Int)
	assert.Equal(t, backend.TextureHandle(10), rec.Ops(backendtest.OpBindTexture)[0].Texture)
}

func TestUndeclaredUniformsResolveInvalid(t *testing.T) {
	rec := backendtest.NewDefault()
	NewMaterial().Bind(rec, &program.Program{Handle: 2}, nil)

	assert.Equal(t, backend.InvalidUniformLocation, rec.Ops(backendtest.OpSetUniformVec3)[0].Location)
	assert.Equal(t, backend.InvalidTexture, rec.Ops(backendtest.OpBindTexture)[0].Texture)
}
