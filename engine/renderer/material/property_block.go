package material

import "github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"

// propertyBlock is the implementation of the PropertyBlock interface.
type propertyBlock struct {
	props *propertySet
}

// PropertyBlock is a per-instance overlay of shader properties. Values set on a block apply
// only to the object that owns it and take precedence over the object's shared Material,
// leaving the Material untouched for every other object.
type PropertyBlock interface {
	SetFloat(name string, v float32)
	SetInt(name string, v int32)
	SetVector(name string, v [4]float32)
	SetTexture(name string, t texture.Texture)

	Float(name string) (float32, bool)
	Int(name string) (int32, bool)
	Vector(name string) ([4]float32, bool)
	Texture(name string) (texture.Texture, bool)
	Kind(name string) (PropertyKind, bool)
	PropertyNames() []string

	// Clear removes every property from the block.
	Clear()

	// IsEmpty reports whether the block holds no properties.
	//
	// Returns:
	//   - bool: true if no property is set
	IsEmpty() bool

	// Revision returns a counter incremented by every write.
	//
	// Returns:
	//   - uint64: the current revision
	Revision() uint64
}

var _ PropertyBlock = &propertyBlock{}

// NewPropertyBlock creates an empty PropertyBlock.
//
// Returns:
//   - PropertyBlock: a new, empty property block
func NewPropertyBlock() PropertyBlock {
	return &propertyBlock{props: newPropertySet()}
}

func (b *propertyBlock) SetFloat(name string, v float32)     { b.props.setFloat(name, v) }
func (b *propertyBlock) SetInt(name string, v int32)         { b.props.setInt(name, v) }
func (b *propertyBlock) SetVector(name string, v [4]float32) { b.props.setVector(name, v) }
func (b *propertyBlock) SetTexture(name string, t texture.Texture) {
	b.props.setTexture(name, t)
}

func (b *propertyBlock) Float(name string) (float32, bool)     { return b.props.float(name) }
func (b *propertyBlock) Int(name string) (int32, bool)         { return b.props.int(name) }
func (b *propertyBlock) Vector(name string) ([4]float32, bool) { return b.props.vector(name) }
func (b *propertyBlock) Texture(name string) (texture.Texture, bool) {
	return b.props.texture(name)
}
func (b *propertyBlock) Kind(name string) (PropertyKind, bool) { return b.props.kind(name) }
func (b *propertyBlock) PropertyNames() []string               { return b.props.names() }
func (b *propertyBlock) Clear()                                { b.props.clear() }
func (b *propertyBlock) IsEmpty() bool                         { return b.props.len() == 0 }
func (b *propertyBlock) Revision() uint64                      { return b.props.revision() }

// ResolveVector looks up a vector property on the block first and falls back to the material,
// mirroring how a renderer merges instance overrides over shared values. Either argument may be nil.
//
// Parameters:
//   - block: the instance property block
//   - mat: the shared material
//   - name: the shader property name
//
// Returns:
//   - [4]float32: the resolved value
//   - bool: false if neither source defines the property
func ResolveVector(block PropertyBlock, mat Material, name string) ([4]float32, bool) {
	if block != nil {
		if v, ok := block.Vector(name); ok {
			return v, true
		}
	}
	if mat != nil {
		return mat.Vector(name)
	}
	return [4]float32{}, false
}
