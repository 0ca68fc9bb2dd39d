// Package vao_cache lazily builds and reuses the vertex array that binds a submesh's vertex layout to a
// program's reflected inputs.
package vao_cache

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-pipeline/common"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/model"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer/program"
)

// ErrMissingAttribute is returned when a program input has no attribute at the same location in the submesh layout.
var ErrMissingAttribute = errors.New("submesh layout missing program attribute")

// vaoCache is the implementation of the VAOCache interface.
type vaoCache struct {
	backend backend.Backend
	created int
}

// VAOCache finds or creates the vertex array for a (submesh, program) pair.
// Bindings live on the submesh itself, so lookups are a linear scan of a short list.
type VAOCache interface {
	// FindOrCreate returns the vertex array binding sm to p, creating it on first use.
	// For every program attribute, in reflected order, the submesh attribute with the same location is bound
	// with its component count, the offset attribute offset + submesh vertex offset, and the layout stride.
	//
	// Parameters:
	//   - mesh: the mesh owning the vertex and index buffers
	//   - sm: the submesh, whose binding list is appended to on a miss
	//   - p: the program whose inputs are bound
	//
	// Returns:
	//   - backend.VertexArrayHandle: the cached or new vertex array
	//   - error: an error wrapping ErrMissingAttribute, or the backend creation error
	FindOrCreate(mesh *model.Mesh, sm *model.SubMesh, p *program.Program) (backend.VertexArrayHandle, error)

	// Invalidate destroys every binding created for a program handle across the given meshes.
	// Used when a program is reloaded and its old handle retired.
	//
	// Parameters:
	//   - meshes: the meshes to scan
	//   - handle: the retired program handle
	//
	// Returns:
	//   - int: the number of vertex arrays destroyed
	Invalidate(meshes []*model.Mesh, handle backend.ProgramHandle) int

	// Created returns the number of vertex arrays created since construction.
	//
	// Returns:
	//   - int: the creation count
	Created() int
}

var _ VAOCache = &vaoCache{}

// NewVAOCache creates a VAOCache over a backend.
//
// Parameters:
//   - b: the backend that creates vertex arrays
//
// Returns:
//   - VAOCache: the cache
func NewVAOCache(b backend.Backend) VAOCache {
	return &vaoCache{backend: b}
}

func (c *vaoCache) FindOrCreate(mesh *model.Mesh, sm *model.SubMesh, p *program.Program) (backend.VertexArrayHandle, error) {
	for _, vao := range sm.VAOs {
		if vao.Program == p.Handle {
			return vao.VertexArray, nil
		}
	}

	attrs := make([]backend.VertexAttributeBinding, 0, len(p.Attributes))
	for _, in := range p.Attributes {
		la, ok := sm.Layout.Find(in.Location)
		if !ok {
			return backend.InvalidVertexArray, fmt.Errorf("%w: program %q location %d (%s) in mesh %q", ErrMissingAttribute, p.Name, in.Location, in.Name, mesh.Name)
		}
		attrs = append(attrs, backend.VertexAttributeBinding{
			Location:   la.Location,
			Components: la.Components,
			Offset:     la.Offset + sm.VertexOffset,
		})
	}

	h, err := c.backend.CreateVertexArray(backend.VertexArrayDescriptor{
		Label:        mesh.Name + "/" + p.Name,
		Program:      p.Handle,
		VertexBuffer: mesh.VertexBuffer,
		IndexBuffer:  mesh.IndexBuffer,
		Attributes:   attrs,
		Stride:       sm.Layout.Stride,
		BaseOffset:   sm.VertexOffset,
	})
	if err != nil {
		return backend.InvalidVertexArray, fmt.Errorf("create vertex array for %q/%q: %w", mesh.Name, p.Name, err)
	}

	sm.VAOs = append(sm.VAOs, model.VAOBinding{Program: p.Handle, VertexArray: h})
	c.created++
	common.Logger().Debug("vertex array created", "mesh", mesh.Name, "program", p.Name, "attributes", len(attrs))
	return h, nil
}

func (c *vaoCache) Invalidate(meshes []*model.Mesh, handle backend.ProgramHandle) int {
	n := 0
	for _, m := range meshes {
		for _, sm := range m.SubMeshes {
			kept := sm.VAOs[:0]
			for _, vao := range sm.VAOs {
				if vao.Program == handle {
					c.backend.DestroyVertexArray(vao.VertexArray)
					n++
					continue
				}
				kept = append(kept, vao)
			}
			sm.VAOs = kept
		}
	}
	return n
}

func (c *vaoCache) Created() int {
	return c.created
}
