package material

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
	"github.com/go-gl/mathgl/mgl32"
)

// AlbedoUnit is the texture unit the albedo map is bound to.
const AlbedoUnit = 0

// material is the implementation of the Material interface.
type material struct {
	name string

	albedo     mgl32.Vec3
	emissive   mgl32.Vec3
	smoothness float32
	metallic   float32
	ao         float32

	albedoTexture   int
	emissiveTexture int
	specularTexture int
	normalTexture   int
	bumpTexture     int
	useTexture      bool
}

// Material describes the surface of a submesh.
//
// Texture references are indices into the renderer's texture table, where index 0 is always a
// 1x1 white texture. Only the albedo color, the albedo texture and the use-texture flag reach the
// shaders today. The remaining properties are carried for scene files and future passes.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// Albedo retrieves the diffuse RGB color.
	//
	// Returns:
	//   - mgl32.Vec3: the albedo color
	Albedo() mgl32.Vec3

	// Emissive retrieves the emitted RGB color.
	Emissive() mgl32.Vec3

	// Smoothness retrieves the smoothness factor in [0, 1].
	Smoothness() float32

	// Metallic retrieves the metallic factor in [0, 1].
	Metallic() float32

	// AO retrieves the ambient occlusion factor in [0, 1].
	AO() float32

	// AlbedoTexture retrieves the albedo texture index.
	AlbedoTexture() int

	// EmissiveTexture retrieves the emissive texture index.
	EmissiveTexture() int

	// SpecularTexture retrieves the specular texture index.
	SpecularTexture() int

	// NormalTexture retrieves the normal map texture index.
	NormalTexture() int

	// BumpTexture retrieves the bump map texture index.
	BumpTexture() int

	// UseTexture reports whether the shaders sample the albedo texture instead of the flat color.
	UseTexture() bool

	// Bind uploads the material to the currently bound program: the "uAlbedo" vec3,
	// the "useTexture" int and the albedo texture on unit 0. Uniforms the program does not
	// declare are skipped by the backend. An out of range texture index falls back to index 0.
	//
	// Parameters:
	//   - b: the backend to issue the calls on
	//   - prog: the bound program, used to resolve uniform locations
	//   - textures: the renderer's texture table
	Bind(b backend.Backend, prog *program.Program, textures []backend.TextureHandle)
}

var _ Material = &material{}

// NewMaterial creates a Material with a light grey albedo and no textures.
//
// Parameters:
//   - options: functional options to configure the material
//
// Returns:
//   - Material: the newly created material
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		albedo:     mgl32.Vec3{0.8, 0.8, 0.8},
		smoothness: 0.5,
		ao:         1,
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) Albedo() mgl32.Vec3 {
	return m.albedo
}

func (m *material) Emissive() mgl32.Vec3 {
	return m.emissive
}

func (m *material) Smoothness() float32 {
	return m.smoothness
}

func (m *material) Metallic() float32 {
	return m.metallic
}

func (m *material) AO() float32 {
	return m.ao
}

func (m *material) AlbedoTexture() int {
	return m.albedoTexture
}

func (m *material) EmissiveTexture() int {
	return m.emissiveTexture
}

func (m *material) SpecularTexture() int {
	return m.specularTexture
}

func (m *material) NormalTexture() int {
	return m.normalTexture
}

func (m *material) BumpTexture() int {
	return m.bumpTexture
}

func (m *material) UseTexture() bool {
	return m.useTexture
}

func (m *material) Bind(b backend.Backend, prog *program.Program, textures []backend.TextureHandle) {
	b.SetUniformVec3(prog.Uniform("uAlbedo"), m.albedo)

	var use int32
	if m.useTexture {
		use = 1
	}
	b.SetUniformInt(prog.Uniform("useTexture"), use)

	tex := backend.InvalidTexture
	if m.albedoTexture >= 0 && m.albedoTexture < len(textures) {
		tex = textures[m.albedoTexture]
	} else if len(textures) > 0 {
		tex = textures[0]
	}
	b.BindTexture(AlbedoUnit, tex, backend.AllMips)
}
