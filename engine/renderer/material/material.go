package material

import (
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
)

// material is the implementation of the Material interface.
type material struct {
	name        string
	pipelineKey string
	props       *propertySet
}

// Material defines the interface for a shared render material. A Material is a named
// parameter surface read by the cloud fragment shader: textures, vectors, floats and ints
// keyed by shader property name. Every object that references the same Material observes
// writes to it, so per-object values belong on a PropertyBlock instead.
//
// All methods are safe for concurrent use.
type Material interface {
	// Name retrieves the material identifier.
	//
	// Returns:
	//   - string: the name of the material
	Name() string

	// PipelineKey retrieves the key identifying the pipeline that consumes this material.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// SetPipelineKey sets the pipeline key for this material.
	//
	// Parameters:
	//   - key: the pipeline key to associate with this material
	SetPipelineKey(key string)

	// SetFloat stores a float property.
	//
	// Parameters:
	//   - name: the shader property name
	//   - v: the value
	SetFloat(name string, v float32)

	// SetInt stores an integer property.
	//
	// Parameters:
	//   - name: the shader property name
	//   - v: the value
	SetInt(name string, v int32)

	// SetVector stores a 4-component vector property.
	//
	// Parameters:
	//   - name: the shader property name
	//   - v: the value
	SetVector(name string, v [4]float32)

	// SetTexture binds a texture to a property. Passing nil removes the binding.
	//
	// Parameters:
	//   - name: the shader property name
	//   - t: the texture to bind
	SetTexture(name string, t texture.Texture)

	// Float retrieves a float property.
	//
	// Parameters:
	//   - name: the shader property name
	//
	// Returns:
	//   - float32: the value
	//   - bool: false if the property is unset or not a float
	Float(name string) (float32, bool)

	// Int retrieves an integer property.
	//
	// Parameters:
	//   - name: the shader property name
	//
	// Returns:
	//   - int32: the value
	//   - bool: false if the property is unset or not an int
	Int(name string) (int32, bool)

	// Vector retrieves a vector property.
	//
	// Parameters:
	//   - name: the shader property name
	//
	// Returns:
	//   - [4]float32: the value
	//   - bool: false if the property is unset or not a vector
	Vector(name string) ([4]float32, bool)

	// Texture retrieves the texture bound to a property.
	//
	// Parameters:
	//   - name: the shader property name
	//
	// Returns:
	//   - texture.Texture: the bound texture
	//   - bool: false if no texture is bound under name
	Texture(name string) (texture.Texture, bool)

	// Kind reports the type stored under a property name.
	//
	// Parameters:
	//   - name: the shader property name
	//
	// Returns:
	//   - PropertyKind: the stored kind
	//   - bool: false if the property is unset
	Kind(name string) (PropertyKind, bool)

	// PropertyNames returns every property name currently set, sorted.
	//
	// Returns:
	//   - []string: the property names
	PropertyNames() []string

	// Revision returns a counter incremented by every write. Consumers compare revisions to
	// detect changes without diffing values.
	//
	// Returns:
	//   - uint64: the current revision
	Revision() uint64
}

var _ Material = &material{}

// NewMaterial creates a new Material instance configured with the provided options.
//
// Parameters:
//   - options: variadic list of MaterialBuilderOption functions to configure the material
//
// Returns:
//   - Material: a new Material instance
func NewMaterial(options ...MaterialBuilderOption) Material {
	m := &material{
		props: newPropertySet(),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *material) Name() string {
	return m.name
}

func (m *material) PipelineKey() string {
	m.props.mu.RLock()
	defer m.props.mu.RUnlock()
	return m.pipelineKey
}

func (m *material) SetPipelineKey(key string) {
	m.props.mu.Lock()
	defer m.props.mu.Unlock()
	m.pipelineKey = key
}

func (m *material) SetFloat(name string, v float32) {
	m.props.setFloat(name, v)
}

func (m *material) SetInt(name string, v int32) {
	m.props.setInt(name, v)
}

func (m *material) SetVector(name string, v [4]float32) {
	m.props.setVector(name, v)
}

func (m *material) SetTexture(name string, t texture.Texture) {
	m.props.setTexture(name, t)
}

func (m *material) Float(name string) (float32, bool) {
	return m.props.float(name)
}

func (m *material) Int(name string) (int32, bool) {
	return m.props.int(name)
}

func (m *material) Vector(name string) ([4]float32, bool) {
	return m.props.vector(name)
}

func (m *material) Texture(name string) (texture.Texture, bool) {
	return m.props.texture(name)
}

func (m *material) Kind(name string) (PropertyKind, bool) {
	return m.props.kind(name)
}

func (m *material) PropertyNames() []string {
	return m.props.names()
}

func (m *material) Revision() uint64 {
	return m.props.revision()
}
