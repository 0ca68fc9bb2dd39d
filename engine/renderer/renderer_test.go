package renderer

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/entity"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/model"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend/backendtest"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/render_target"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/staging"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/vao_cache"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScene struct {
	cam      camera.Camera
	lights   []light.Light
	entities []entity.Entity
}

func (s *testScene) Camera() camera.Camera     { return s.cam }
func (s *testScene) Lights() []light.Light     { return s.lights }
func (s *testScene) Entities() []entity.Entity { return s.entities }

var quadAttributes = []backend.AttributeInfo{
	{Name: "aPosition", Location: 0, Components: 3},
	{Name: "aUV", Location: 1, Components: 2},
}

func newRecorder() *backendtest.Recorder {
	rec := backendtest.NewDefault()
	uniforms := map[string]backend.UniformLocation{"threshold": 0, "horizontal": 0, "maxLod": 0}
	for _, name := range []string{shader.ProgramDeferredComposite, shader.ProgramBrightPass, shader.ProgramBlur, shader.ProgramBloomComposite, shader.ProgramPassthrough} {
		rec.Programs[name] = backendtest.ProgramStub{Attributes: quadAttributes, Uniforms: uniforms}
	}
	return rec
}

func newTestRenderer(t *testing.T, rec *backendtest.Recorder, options ...RendererBuilderOption) Renderer {
	t.Helper()
	r, err := NewRenderer(rec, 800, 600, options...)
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

// newTestScene adds a cube model and builds three entities sharing it, lit by one directional and
// one point light.
func newTestScene(t *testing.T, r Renderer) *testScene {
	t.Helper()
	ctx := r.Context()
	mesh, err := ctx.AddMesh(model.Cube())
	require.NoError(t, err)
	mi, err := ctx.AddModel(model.Model{Name: "cube", Mesh: mesh, Materials: []int{DefaultMaterial}})
	require.NoError(t, err)

	cam := camera.NewCamera(
		camera.WithAspect(800.0/600.0),
		camera.WithController(camera.NewCameraController()),
	)
	return &testScene{
		cam: cam,
		lights: []light.Light{
			light.NewLight(light.LightTypeDirectional, light.WithDirection(mgl32.Vec3{1, -1, 1})),
			light.NewLight(light.LightTypePoint, light.WithColor(mgl32.Vec3{0, 1, 0})),
		},
		entities: []entity.Entity{
			entity.NewEntity(entity.WithModel(mi), entity.WithPosition(mgl32.Vec3{-10, 0, -2})),
			entity.NewEntity(entity.WithModel(mi), entity.WithPosition(mgl32.Vec3{0, 0, -2})),
			entity.NewEntity(entity.WithModel(mi), entity.WithPosition(mgl32.Vec3{-5, 0, -2})),
		},
	}
}

// geometryCalls returns the entity binds and draws recorded inside the first pass of the frame.
func geometryCalls(rec *backendtest.Recorder) []backendtest.Call {
	var out []backendtest.Call
	inPass := false
	for _, c := range rec.Calls {
		switch c.Op {
		case backendtest.OpBeginPass:
			if inPass {
				return out
			}
			inPass = true
		case backendtest.OpEndPass:
			return out
		case backendtest.OpBindUniformRange, backendtest.OpDrawIndexed:
			if inPass {
				out = append(out, c)
			}
		}
	}
	return out
}

func TestPackedBlockSizes(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec, WithMode(ModeForward))
	sc := newTestScene(t, r)

	require.NoError(t, r.Render(sc))

	binds := rec.Ops(backendtest.OpBindUniformRange)
	require.Len(t, binds, 4)
	assert.Equal(t, shader.GlobalParamsBinding, binds[0].Binding)
	assert.Equal(t, 0, binds[0].Offset)
	assert.Equal(t, GlobalHeaderSize+2*light.GPULightSize, binds[0].Size)

	data := rec.BufferData(r.Staging().Handle())
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[12:16]))

	prev := -1
	for i, e := range sc.entities {
		ur := e.UniformRange()
		assert.Equal(t, EntityBlockSize, ur.Size)
		assert.Zero(t, ur.Offset%256)
		assert.Greater(t, ur.Offset, prev)
		prev = ur.Offset

		assert.Equal(t, shader.EntityParamsBinding, binds[i+1].Binding)
		assert.Equal(t, ur.Offset, binds[i+1].Offset)
		assert.Equal(t, ur.Size, binds[i+1].Size)
	}
}

func TestPackSkipsDisabledAndCapsLights(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec, WithMode(ModeForward))
	sc := newTestScene(t, r)

	sc.lights = nil
	for range light.MaxLights + 3 {
		sc.lights = append(sc.lights, light.NewLight(light.LightTypePoint))
	}
	sc.lights = append(sc.lights, light.NewLight(light.LightTypePoint, light.WithEnabled(false)))
	sc.entities[1].SetEnabled(false)

	require.NoError(t, r.Render(sc))

	data := rec.BufferData(r.Staging().Handle())
	assert.Equal(t, uint32(light.MaxLights), binary.LittleEndian.Uint32(data[12:16]))
	assert.Len(t, rec.Ops(backendtest.OpDrawIndexed), 2)
}

func TestDeferredFrame(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec)
	sc := newTestScene(t, r)
	assert.Equal(t, ModeDeferred, r.Mode())

	require.NoError(t, r.Render(sc))

	gbuf := r.Targets().Target(render_target.GBufferLabel)
	require.NotNil(t, gbuf)

	passes := rec.Passes()
	require.Len(t, passes, 2)
	assert.Equal(t, gbuf.Framebuffer, passes[0].Target)
	assert.Equal(t, [4]float32{0.1, 0.1, 0.1, 1}, passes[0].Color)
	assert.True(t, passes[0].DepthTest)
	assert.Equal(t, backend.DefaultFramebuffer, passes[1].Target)

	textures := rec.Ops(backendtest.OpBindTexture)
	// three material binds on unit 0, then the four G-buffer inputs
	require.Len(t, textures, 3+4)
	composite := textures[3:]
	assert.Equal(t, gbuf.Attachment(render_target.GBufferAlbedo), composite[0].Texture)
	assert.Equal(t, gbuf.Attachment(render_target.GBufferNormals), composite[1].Texture)
	assert.Equal(t, gbuf.Attachment(render_target.GBufferPosition), composite[2].Texture)
	assert.Equal(t, gbuf.Attachment(render_target.GBufferViewDir), composite[3].Texture)
	for i, c := range composite {
		assert.Equal(t, i, c.Unit)
	}

	draws := rec.Ops(backendtest.OpDrawIndexed)
	require.Len(t, draws, 4)
	assert.Equal(t, model.QuadIndexCount, draws[3].Count)
	assert.Equal(t, backend.IndexFormatUint16, draws[3].IndexFormat)

	assert.Len(t, rec.Ops(backendtest.OpBeginFrame), 1)
	assert.Len(t, rec.Ops(backendtest.OpEndFrame), 1)
}

func TestModeSwitchOnlyChangesGeometryTarget(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec)
	sc := newTestScene(t, r)

	require.NoError(t, r.Render(sc))
	deferredBytes := append([]byte(nil), rec.BufferData(r.Staging().Handle())...)
	deferredCalls := geometryCalls(rec)
	deferredTarget := rec.Passes()[0].Target

	rec.ResetCalls()
	r.SetMode(ModeForward)
	assert.Equal(t, ModeForward, r.Mode())
	require.NoError(t, r.Render(sc))

	assert.Equal(t, deferredBytes, rec.BufferData(r.Staging().Handle()))
	assert.Equal(t, deferredCalls, geometryCalls(rec))
	assert.NotEqual(t, deferredTarget, rec.Passes()[0].Target)
	assert.Equal(t, backend.DefaultFramebuffer, rec.Passes()[0].Target)
	assert.Len(t, rec.Passes(), 1)
}

func TestVertexArraysReusedAcrossFrames(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec)
	sc := newTestScene(t, r)

	require.NoError(t, r.Render(sc))
	// one for the shared cube submesh, one for the composite quad
	assert.Equal(t, 2, r.VAOCache().Created())

	require.NoError(t, r.Render(sc))
	assert.Equal(t, 2, r.VAOCache().Created())
	assert.Len(t, rec.Ops(backendtest.OpCreateVertexArray), 2)

	mesh := r.Context().Mesh(0)
	assert.Len(t, mesh.SubMeshes[0].VAOs, 1)
}

func TestBloomFrame(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec, WithMode(ModeBloom))
	sc := newTestScene(t, r)

	require.NoError(t, r.Render(sc))

	hdr := r.Targets().Target(render_target.HDRLabel)
	bloom := r.Targets().Bloom()
	require.NotNil(t, hdr)
	require.NotNil(t, bloom)

	passes := rec.Passes()
	require.Len(t, passes, 3+2*render_target.BloomMipLevels+1)

	assert.Equal(t, hdr.Framebuffer, passes[0].Target)

	bright := passes[1]
	assert.Equal(t, bloom.BrightLevels[0], bright.Target)
	assert.Nil(t, bright.DrawBuffers)
	assert.Equal(t, backend.Viewport{Width: 400, Height: 300}, bright.Viewport)

	for level := range render_target.BloomMipLevels {
		h, v := passes[2+2*level], passes[3+2*level]
		assert.Equal(t, bloom.BlurHLevels[level], h.Target)
		assert.Equal(t, bloom.BrightLevels[level], v.Target)
		assert.Equal(t, bloom.LevelViewport(level), h.Viewport)

		// each blur target attaches only the texture it writes, never the one it samples
		assert.Equal(t, []backend.Attachment{{Texture: bloom.BlurH, MipLevel: level}}, rec.Framebuffers[h.Target].ColorAttachments)
		assert.Equal(t, []backend.Attachment{{Texture: bloom.Bright, MipLevel: level}}, rec.Framebuffers[v.Target].ColorAttachments)
	}

	present, composite := passes[len(passes)-2], passes[len(passes)-1]
	assert.Equal(t, backend.DefaultFramebuffer, present.Target)
	assert.Equal(t, backend.BlendNone, present.Blend)
	assert.Equal(t, backend.DefaultFramebuffer, composite.Target)
	assert.Equal(t, backend.BlendAdditive, composite.Blend)
	assert.False(t, composite.ClearColor)

	var blurReads []backend.MipRange
	var chainReads []backend.TextureHandle
	for _, c := range rec.Ops(backendtest.OpBindTexture) {
		if c.Mips.Count == 1 {
			blurReads = append(blurReads, c.Mips)
			chainReads = append(chainReads, c.Texture)
		}
	}
	require.Len(t, blurReads, 2*render_target.BloomMipLevels)
	for level := range render_target.BloomMipLevels {
		assert.Equal(t, backend.SingleMip(max(level-1, 0)), blurReads[2*level])
		assert.Equal(t, bloom.Bright, chainReads[2*level])
		assert.Equal(t, backend.SingleMip(level), blurReads[2*level+1])
		assert.Equal(t, bloom.BlurH, chainReads[2*level+1])
	}

	ints := rec.Ops(backendtest.OpSetUniformInt)
	last := ints[len(ints)-1]
	assert.Equal(t, int32(render_target.BloomMipLevels-1), last.Int)

	floats := rec.Ops(backendtest.OpSetUniformFloat)
	require.Len(t, floats, 1)
	assert.Equal(t, BloomThreshold, floats[0].Float)
}

func TestInvalidProgramIsSkipped(t *testing.T) {
	rec := newRecorder()
	rec.Programs[shader.ProgramDeferredGeometry] = backendtest.ProgramStub{Fail: true}
	r := newTestRenderer(t, rec)
	sc := newTestScene(t, r)

	require.NoError(t, r.Render(sc))

	// only the composite quad draws
	draws := rec.Ops(backendtest.OpDrawIndexed)
	require.Len(t, draws, 1)
	assert.Equal(t, model.QuadIndexCount, draws[0].Count)
	assert.Len(t, rec.Passes(), 2)
}

func TestMissingAttributeIsFatal(t *testing.T) {
	rec := newRecorder()
	rec.Programs[shader.ProgramForward] = backendtest.ProgramStub{
		Attributes: []backend.AttributeInfo{{Name: "aTangent", Location: 5, Components: 4}},
	}
	r := newTestRenderer(t, rec, WithMode(ModeForward))
	sc := newTestScene(t, r)

	assert.ErrorIs(t, r.Render(sc), vao_cache.ErrMissingAttribute)
}

func TestStagingOverflowIsFatal(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec, WithStagingCapacity(256))
	sc := newTestScene(t, r)

	assert.ErrorIs(t, r.Render(sc), staging.ErrOverflow)
	assert.Empty(t, rec.Ops(backendtest.OpBeginFrame))
}

func TestResize(t *testing.T) {
	rec := newRecorder()
	r := newTestRenderer(t, rec)

	require.NoError(t, r.Resize(0, 0))
	assert.Empty(t, rec.Ops(backendtest.OpResize))

	require.NoError(t, r.Resize(1024, 768))
	w, h := rec.Size()
	assert.Equal(t, 1024, w)
	assert.Equal(t, 768, h)
	assert.Equal(t, 1024, r.Targets().Target(render_target.GBufferLabel).Spec.Width)
	assert.Equal(t, [2]int{512, 384}, r.Targets().Bloom().Sizes[0])
}

func TestReloadRetiresVertexArrays(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "glsl", "forward.glsl")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("void main() {}\n"), 0o644))

	rec := newRecorder()
	r := newTestRenderer(t, rec, WithMode(ModeForward), WithShaderDir(dir))
	sc := newTestScene(t, r)

	require.NoError(t, r.Render(sc))
	assert.Empty(t, r.ReloadPrograms())

	later := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, later, later))
	assert.Equal(t, []string{shader.ProgramForward}, r.ReloadPrograms())

	assert.Len(t, rec.Ops(backendtest.OpDestroyVertexArray), 1)
	assert.Empty(t, r.Context().Mesh(0).SubMeshes[0].VAOs)

	require.NoError(t, r.Render(sc))
	assert.Equal(t, 2, r.VAOCache().Created())
}
