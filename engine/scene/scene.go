// Package scene holds the entities, lights and camera the renderer draws, and builds them from a
// scene description.
package scene

import (
	"slices"

	"github.com/Carmen-Shannon/oxy-pipeline/engine/camera"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/entity"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/renderer"
)

// Scene is an ordered set of entities and lights viewed through one camera.
// Entities are drawn and packed in insertion order.
type Scene interface {
	// Name returns the scene name.
	Name() string

	// Camera returns the scene camera.
	Camera() camera.Camera

	// SetCamera replaces the scene camera.
	//
	// Parameters:
	//   - cam: the new camera
	SetCamera(cam camera.Camera)

	// Lights returns the lights in packing order.
	Lights() []light.Light

	// AddLight appends a light.
	//
	// Parameters:
	//   - l: the light to add
	AddLight(l light.Light)

	// RemoveLight removes a light if present.
	//
	// Parameters:
	//   - l: the light to remove
	RemoveLight(l light.Light)

	// Entities returns the entities in draw order.
	Entities() []entity.Entity

	// AddEntity appends an entity.
	//
	// Parameters:
	//   - e: the entity to add
	//
	// Returns:
	//   - uint64: the entity ID
	AddEntity(e entity.Entity) uint64

	// Entity returns an entity by ID, or nil if it is not in the scene.
	Entity(id uint64) entity.Entity

	// RemoveEntity removes an entity by ID.
	//
	// Parameters:
	//   - id: the entity ID
	RemoveEntity(id uint64)

	// Count returns the number of entities.
	Count() int

	// Tick advances every entity's rotation by its rotation speed.
	//
	// Parameters:
	//   - dt: frame time in seconds
	Tick(dt float32)

	// Clear removes every entity and light.
	Clear()
}

// scene is the implementation of the Scene interface.
type scene struct {
	name     string
	cam      camera.Camera
	entities []entity.Entity
	lights   []light.Light
}

var _ Scene = &scene{}
var _ renderer.Scene = &scene{}

// NewScene creates a scene viewed through cam.
//
// Parameters:
//   - name: the scene name
//   - cam: the camera
//   - options: functional options
//
// Returns:
//   - Scene: the newly created scene
func NewScene(name string, cam camera.Camera, options ...SceneBuilderOption) Scene {
	s := &scene{
		name: name,
		cam:  cam,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	return s.name
}

func (s *scene) Camera() camera.Camera {
	return s.cam
}

func (s *scene) SetCamera(cam camera.Camera) {
	s.cam = cam
}

func (s *scene) Lights() []light.Light {
	return s.lights
}

func (s *scene) AddLight(l light.Light) {
	s.lights = append(s.lights, l)
}

func (s *scene) RemoveLight(l light.Light) {
	s.lights = slices.DeleteFunc(s.lights, func(x light.Light) bool { return x == l })
}

func (s *scene) Entities() []entity.Entity {
	return s.entities
}

func (s *scene) AddEntity(e entity.Entity) uint64 {
	s.entities = append(s.entities, e)
	return e.ID()
}

func (s *scene) Entity(id uint64) entity.Entity {
	for _, e := range s.entities {
		if e.ID() == id {
			return e
		}
	}
	return nil
}

func (s *scene) RemoveEntity(id uint64) {
	s.entities = slices.DeleteFunc(s.entities, func(e entity.Entity) bool { return e.ID() == id })
}

func (s *scene) Count() int {
	return len(s.entities)
}

func (s *scene) Tick(dt float32) {
	for _, e := range s.entities {
		if e.Enabled() {
			e.Tick(dt)
		}
	}
}

func (s *scene) Clear() {
	s.entities = nil
	s.lights = nil
}
