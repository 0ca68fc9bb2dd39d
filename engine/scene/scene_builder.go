package scene

import (
	"github.com/Carmen-Shannon/oxy-pipeline/engine/entity"
	"github.com/Carmen-Shannon/oxy-pipeline/engine/light"
)

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithEntities adds initial entities to the scene in draw order.
//
// Parameters:
//   - entities: the entities to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithEntities(entities ...entity.Entity) SceneBuilderOption {
	return func(s *scene) {
		s.entities = append(s.entities, entities...)
	}
}

// WithLights adds initial lights to the scene in packing order.
//
// Parameters:
//   - lights: the lights to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithLights(lights ...light.Light) SceneBuilderOption {
	return func(s *scene) {
		s.lights = append(s.lights, lights...)
	}
}
