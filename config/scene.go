package config

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
)

// Mesh kinds a model can be built from.
const (
	MeshCube   = "cube"
	MeshPlane  = "plane"
	MeshSphere = "sphere"
	MeshStatue = "statue"
)

// Texture kinds.
const (
	TextureFile    = "file"
	TextureChecker = "checker"
	TextureSolid   = "solid"
)

// SceneConfig describes a scene in place of the built-in default.
type SceneConfig struct {
	Textures  []TextureConfig  `yaml:"textures" toml:"textures"`
	Materials []MaterialConfig `yaml:"materials" toml:"materials"`
	Models    []ModelConfig    `yaml:"models" toml:"models"`
	Entities  []EntityConfig   `yaml:"entities" toml:"entities"`
	Lights    []LightConfig    `yaml:"lights" toml:"lights"`
}

// TextureConfig is a decoded or generated texture. Kind defaults to "file" when Path is set.
type TextureConfig struct {
	Name   string   `yaml:"name" toml:"name"`
	Kind   string   `yaml:"kind" toml:"kind"`
	Path   string   `yaml:"path" toml:"path"`
	Size   int      `yaml:"size" toml:"size"`
	Cell   int      `yaml:"cell" toml:"cell"`
	Colors [][4]int `yaml:"colors" toml:"colors"`
}

// MaterialConfig is a surface description. Texture names refer to TextureConfig entries.
type MaterialConfig struct {
	Name            string     `yaml:"name" toml:"name"`
	Albedo          [3]float32 `yaml:"albedo" toml:"albedo"`
	Emissive        [3]float32 `yaml:"emissive" toml:"emissive"`
	Smoothness      float32    `yaml:"smoothness" toml:"smoothness"`
	Metallic        float32    `yaml:"metallic" toml:"metallic"`
	AO              *float32   `yaml:"ao" toml:"ao"`
	AlbedoTexture   string     `yaml:"albedo_texture" toml:"albedo_texture"`
	EmissiveTexture string     `yaml:"emissive_texture" toml:"emissive_texture"`
}

// ModelConfig binds a procedural mesh to materials, one per submesh.
type ModelConfig struct {
	Name      string   `yaml:"name" toml:"name"`
	Mesh      string   `yaml:"mesh" toml:"mesh"`
	Materials []string `yaml:"materials" toml:"materials"`
}

// EntityConfig places a model. A zero scale means 1 on every axis.
type EntityConfig struct {
	Model         string     `yaml:"model" toml:"model"`
	Position      [3]float32 `yaml:"position" toml:"position"`
	Rotation      [3]float32 `yaml:"rotation" toml:"rotation"`
	RotationSpeed [3]float32 `yaml:"rotation_speed" toml:"rotation_speed"`
	Scale         [3]float32 `yaml:"scale" toml:"scale"`
	Disabled      bool       `yaml:"disabled" toml:"disabled"`
}

// LightConfig is a directional or point light.
type LightConfig struct {
	Type      string     `yaml:"type" toml:"type"`
	Color     [3]float32 `yaml:"color" toml:"color"`
	Direction [3]float32 `yaml:"direction" toml:"direction"`
	Position  [3]float32 `yaml:"position" toml:"position"`
	Disabled  bool       `yaml:"disabled" toml:"disabled"`
}

// TextureKind returns the texture kind with the default applied.
func (t TextureConfig) TextureKind() string {
	if t.Kind == "" && t.Path != "" {
		return TextureFile
	}
	return t.Kind
}

// Validate checks names and cross references.
//
// Returns:
//   - error: the first invalid entry
func (s *SceneConfig) Validate() error {
	textures := make(map[string]bool, len(s.Textures))
	for _, t := range s.Textures {
		if t.Name == "" {
			return fmt.Errorf("texture without a name")
		}
		switch t.TextureKind() {
		case TextureFile:
			if t.Path == "" {
				return fmt.Errorf("texture %s: file texture without a path", t.Name)
			}
		case TextureChecker:
			if len(t.Colors) != 2 {
				return fmt.Errorf("texture %s: checker needs 2 colors", t.Name)
			}
		case TextureSolid:
			if len(t.Colors) != 1 {
				return fmt.Errorf("texture %s: solid needs 1 color", t.Name)
			}
		default:
			return fmt.Errorf("texture %s: unknown kind %q", t.Name, t.Kind)
		}
		textures[t.Name] = true
	}

	materials := make(map[string]bool, len(s.Materials))
	for _, m := range s.Materials {
		if m.Name == "" {
			return fmt.Errorf("material without a name")
		}
		for _, ref := range []string{m.AlbedoTexture, m.EmissiveTexture} {
			if ref != "" && !textures[ref] {
				return fmt.Errorf("material %s: unknown texture %q", m.Name, ref)
			}
		}
		materials[m.Name] = true
	}

	models := make(map[string]bool, len(s.Models))
	for _, m := range s.Models {
		switch m.Mesh {
		case MeshCube, MeshPlane, MeshSphere, MeshStatue:
		default:
			return fmt.Errorf("model %s: unknown mesh %q", m.Name, m.Mesh)
		}
		for _, ref := range m.Materials {
			if !materials[ref] {
				return fmt.Errorf("model %s: unknown material %q", m.Name, ref)
			}
		}
		models[m.Name] = true
	}

	for i, e := range s.Entities {
		if !models[e.Model] {
			return fmt.Errorf("entity %d: unknown model %q", i, e.Model)
		}
	}
	for i, l := range s.Lights {
		if _, ok := light.ParseLightType(l.Type); !ok {
			return fmt.Errorf("light %d: unknown type %q", i, l.Type)
		}
	}
	return nil
}
