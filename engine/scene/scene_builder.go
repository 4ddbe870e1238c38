package scene

import "github.com/Carmen-Shannon/oxy-clouds/engine/renderer"

// SceneBuilderOption is a functional option for configuring a Scene.
// Use the With* functions to create options.
type SceneBuilderOption func(s *scene)

// WithActive sets whether the scene is ticked by the engine.
//
// Parameters:
//   - active: whether the scene is active
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithActive(active bool) SceneBuilderOption {
	return func(s *scene) {
		s.active = active
	}
}

// WithRenderer sets the renderer shared by the scene's components.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithRenderer(r renderer.Renderer) SceneBuilderOption {
	return func(s *scene) {
		s.renderer = r
	}
}

// WithComponents appends initial components in tick order. They are not initialized until
// Initialize is called.
//
// Parameters:
//   - components: the components to add
//
// Returns:
//   - SceneBuilderOption: option function to apply
func WithComponents(components ...Component) SceneBuilderOption {
	return func(s *scene) {
		for _, c := range components {
			if c != nil {
				s.components = append(s.components, c)
			}
		}
	}
}
