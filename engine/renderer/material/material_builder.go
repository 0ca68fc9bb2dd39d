package material

import "github.com/go-gl/mathgl/mgl32"

// MaterialBuilderOption is a functional option for configuring a Material.
type MaterialBuilderOption func(*material)

// WithName sets the material identifier.
//
// Parameters:
//   - name: the name of the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithAlbedo sets the diffuse RGB color.
//
// Parameters:
//   - c: the albedo color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the albedo option
func WithAlbedo(c mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.albedo = c
	}
}

// WithEmissive sets the emitted RGB color.
//
// Parameters:
//   - c: the emissive color
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option
func WithEmissive(c mgl32.Vec3) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = c
	}
}

// WithSurface sets the smoothness, metallic and ambient occlusion factors.
//
// Parameters:
//   - smoothness: smoothness in [0, 1]
//   - metallic: metallic in [0, 1]
//   - ao: ambient occlusion in [0, 1]
//
// Returns:
//   - MaterialBuilderOption: a function that applies the surface factors
func WithSurface(smoothness, metallic, ao float32) MaterialBuilderOption {
	return func(m *material) {
		m.smoothness = smoothness
		m.metallic = metallic
		m.ao = ao
	}
}

// WithAlbedoTexture sets the albedo texture index and enables texturing.
//
// Parameters:
//   - index: index into the renderer's texture table
//
// Returns:
//   - MaterialBuilderOption: a function that applies the albedo texture option
func WithAlbedoTexture(index int) MaterialBuilderOption {
	return func(m *material) {
		m.albedoTexture = index
		m.useTexture = true
	}
}

// WithEmissiveTexture sets the emissive texture index.
func WithEmissiveTexture(index int) MaterialBuilderOption {
	return func(m *material) {
		m.emissiveTexture = index
	}
}

// WithSpecularTexture sets the specular texture index.
func WithSpecularTexture(index int) MaterialBuilderOption {
	return func(m *material) {
		m.specularTexture = index
	}
}

// WithNormalTexture sets the normal map texture index.
func WithNormalTexture(index int) MaterialBuilderOption {
	return func(m *material) {
		m.normalTexture = index
	}
}

// WithBumpTexture sets the bump map texture index.
func WithBumpTexture(index int) MaterialBuilderOption {
	return func(m *material) {
		m.bumpTexture = index
	}
}

// WithUseTexture overrides whether the albedo texture is sampled.
//
// Parameters:
//   - use: true to sample the albedo texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the flag
func WithUseTexture(use bool) MaterialBuilderOption {
	return func(m *material) {
		m.useTexture = use
	}
}
