package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/model"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/texture"
)

// DefaultMaterial is the index of the material used when a model names no valid material.
const DefaultMaterial = 0

// Context owns the resource tables the frame reads: textures, materials, meshes, models and programs.
// Everything in it is referenced by index, and it is the only owner of the GPU objects behind them.
type Context struct {
	backend backend.Backend

	Textures *texture.Table
	Programs program.Library

	materials []material.Material
	meshes    []*model.Mesh
	models    []model.Model
}

// NewContext creates a Context holding the default white texture and a default grey material.
//
// Parameters:
//   - b: the backend resources are created on
//   - programs: the program library
//
// Returns:
//   - *Context: the context
//   - error: error if the default texture could not be created
func NewContext(b backend.Backend, programs program.Library) (*Context, error) {
	textures, err := texture.NewTable(b)
	if err != nil {
		return nil, fmt.Errorf("texture table: %w", err)
	}
	return &Context{
		backend:   b,
		Textures:  textures,
		Programs:  programs,
		materials: []material.Material{material.NewMaterial(material.WithName("default"))},
	}, nil
}

// AddMesh uploads mesh data and appends the mesh to the table.
//
// Parameters:
//   - d: the CPU mesh
//
// Returns:
//   - int: the mesh index
//   - error: error if the buffers could not be created
func (c *Context) AddMesh(d model.MeshData) (int, error) {
	m, err := d.Upload(c.backend)
	if err != nil {
		return -1, fmt.Errorf("upload mesh %q: %w", d.Name, err)
	}
	c.meshes = append(c.meshes, m)
	return len(c.meshes) - 1, nil
}

// Mesh returns a mesh by index, or nil.
func (c *Context) Mesh(i int) *model.Mesh {
	if i < 0 || i >= len(c.meshes) {
		return nil
	}
	return c.meshes[i]
}

// Meshes returns every mesh in the table.
func (c *Context) Meshes() []*model.Mesh {
	return c.meshes
}

// AddMaterial appends a material and returns its index.
func (c *Context) AddMaterial(m material.Material) int {
	c.materials = append(c.materials, m)
	return len(c.materials) - 1
}

// Material returns a material by index, falling back to the default material.
func (c *Context) Material(i int) material.Material {
	if i < 0 || i >= len(c.materials) {
		return c.materials[DefaultMaterial]
	}
	return c.materials[i]
}

// AddModel appends a model and returns its index.
//
// Parameters:
//   - m: the model, whose mesh index must already be in the table
//
// Returns:
//   - int: the model index
//   - error: error if the mesh index is out of range
func (c *Context) AddModel(m model.Model) (int, error) {
	if c.Mesh(m.Mesh) == nil {
		return -1, fmt.Errorf("model %q: mesh index %d out of range", m.Name, m.Mesh)
	}
	c.models = append(c.models, m)
	return len(c.models) - 1, nil
}

// Model returns a model by index.
//
// Returns:
//   - model.Model: the model
//   - bool: false if the index is out of range
func (c *Context) Model(i int) (model.Model, bool) {
	if i < 0 || i >= len(c.models) {
		return model.Model{}, false
	}
	return c.models[i], true
}

// Destroy releases every mesh, texture and program.
func (c *Context) Destroy() {
	for _, m := range c.meshes {
		m.Destroy(c.backend)
	}
	c.meshes = nil
	c.models = nil
	c.Textures.Destroy()
	if c.Programs != nil {
		_ = c.Programs.Close()
	}
}
