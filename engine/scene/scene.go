package scene

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
)

// Component is a unit of per-object behavior driven by the engine. Components that do not
// use a cadence implement it as a no-op.
type Component interface {
	// Initialize is called once when the component is activated.
	//
	// Returns:
	//   - error: an error if activation failed; the component is still ticked
	Initialize() error

	// OnParameterChanged is called after the component's configuration was edited.
	OnParameterChanged()

	// Tick is called once per frame at a variable rate.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous frame in seconds
	Tick(deltaTime float32)

	// FixedTick is called at the engine's fixed tick rate.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous fixed tick in seconds
	FixedTick(deltaTime float32)

	// Shutdown is called when the component is disabled or the scene is torn down.
	Shutdown()
}

// scene is the implementation of the Scene interface.
type scene struct {
	mu sync.RWMutex

	name        string
	active      bool
	initialized bool

	renderer   renderer.Renderer
	components []Component
}

// Scene is an ordered collection of Components sharing a Renderer. Components are ticked in
// the order they were added and shut down in reverse order. Scenes can be toggled with the
// Active flag; the engine only ticks active scenes. Thread-safe for concurrent access.
type Scene interface {
	// Name returns the scene's identifier.
	Name() string

	// SetName sets the scene's identifier.
	SetName(name string)

	// Active returns whether this scene is currently ticked by the engine.
	Active() bool

	// SetActive sets whether this scene is ticked by the engine.
	SetActive(active bool)

	// Renderer returns the renderer shared by the scene's components, or nil.
	Renderer() renderer.Renderer

	// SetRenderer replaces the scene's renderer.
	//
	// Parameters:
	//   - r: the new renderer
	SetRenderer(r renderer.Renderer)

	// Add appends a component. If the scene has already been initialized the component is
	// initialized immediately.
	//
	// Parameters:
	//   - c: the component to add
	//
	// Returns:
	//   - error: the component's initialization error, if any
	Add(c Component) error

	// Remove shuts a component down and removes it from the scene.
	//
	// Parameters:
	//   - c: the component to remove
	//
	// Returns:
	//   - bool: true if the component was found
	Remove(c Component) bool

	// Components returns a copy of the components in tick order.
	//
	// Returns:
	//   - []Component: the components
	Components() []Component

	// Count returns the number of components in the scene.
	//
	// Returns:
	//   - int: the component count
	Count() int

	// Initialize activates every component in order. Every component is initialized even
	// if an earlier one fails; the failures are joined into the returned error.
	//
	// Returns:
	//   - error: the joined initialization errors, or nil
	Initialize() error

	// OnParameterChanged notifies every component that configuration changed.
	OnParameterChanged()

	// Tick advances every component by one frame.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous frame in seconds
	Tick(deltaTime float32)

	// FixedTick advances every component by one fixed step.
	//
	// Parameters:
	//   - deltaTime: elapsed time since the previous fixed tick in seconds
	FixedTick(deltaTime float32)

	// Shutdown shuts every component down in reverse order.
	Shutdown()
}

var _ Scene = &scene{}

// NewScene creates an empty, active scene.
//
// Parameters:
//   - name: the name of the scene
//   - options: functional options to further configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, options ...SceneBuilderOption) Scene {
	s := &scene{
		name:   name,
		active: true,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *scene) Name() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.name
}

func (s *scene) SetName(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
}

func (s *scene) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

func (s *scene) SetActive(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = active
}

func (s *scene) Renderer() renderer.Renderer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.renderer
}

func (s *scene) SetRenderer(r renderer.Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = r
}

func (s *scene) Add(c Component) error {
	if c == nil {
		return nil
	}
	s.mu.Lock()
	s.components = append(s.components, c)
	initialized := s.initialized
	s.mu.Unlock()

	if initialized {
		if err := c.Initialize(); err != nil {
			return fmt.Errorf("scene %s: failed to initialize component %T: %w", s.Name(), c, err)
		}
	}
	return nil
}

func (s *scene) Remove(c Component) bool {
	s.mu.Lock()
	idx := slices.Index(s.components, c)
	if idx < 0 {
		s.mu.Unlock()
		return false
	}
	s.components = slices.Delete(s.components, idx, idx+1)
	s.mu.Unlock()

	c.Shutdown()
	return true
}

func (s *scene) Components() []Component {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.components)
}

func (s *scene) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.components)
}

func (s *scene) Initialize() error {
	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()

	var errs []error
	for _, c := range s.Components() {
		if err := c.Initialize(); err != nil {
			errs = append(errs, fmt.Errorf("component %T: %w", c, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("scene %s: %w", s.Name(), err)
	}
	return nil
}

func (s *scene) OnParameterChanged() {
	for _, c := range s.Components() {
		c.OnParameterChanged()
	}
}

func (s *scene) Tick(deltaTime float32) {
	for _, c := range s.Components() {
		c.Tick(deltaTime)
	}
}

func (s *scene) FixedTick(deltaTime float32) {
	for _, c := range s.Components() {
		c.FixedTick(deltaTime)
	}
}

func (s *scene) Shutdown() {
	components := s.Components()
	for i := len(components) - 1; i >= 0; i-- {
		components[i].Shutdown()
	}
	s.mu.Lock()
	s.initialized = false
	s.mu.Unlock()
}
