package shader

import "github.com/cogentcore/webgpu/wgpu"

// BindingKind classifies a resource declared with @group/@binding.
type BindingKind int

const (
	BindingKindUnknown BindingKind = iota
	BindingKindUniform
	BindingKindStorage
	BindingKindReadOnlyStorage
	BindingKindSampledTexture
	BindingKindStorageTexture
	BindingKindSampler
)

// Binding is the reflected form of a single @group(G) @binding(B) declaration.
type Binding struct {
	Group   int
	Binding int
	// Name is the WGSL variable name.
	Name string
	// TypeName is the declared WGSL type, e.g. "NoiseParams" or "texture_storage_3d<rgba32float, write>".
	TypeName string
	Kind     BindingKind
	// Size is the resolved byte size of buffer bindings, 0 if unknown.
	Size uint64
	// Entry is the layout entry derived from the declaration.
	Entry wgpu.BindGroupLayoutEntry
}

// sampledTextureInfo holds the view dimension and multisampled flag for a sampled texture type
type sampledTextureInfo struct {
	viewDimension wgpu.TextureViewDimension
	multisampled  bool
}

// wgslTypeLayout is the byte size and alignment of a WGSL type.
type wgslTypeLayout struct {
	size  uint64
	align uint64
}

// parsedField is one member of a WGSL struct.
type parsedField struct {
	name      string
	typeName  string
	isBuiltin bool
}

// parsedStruct is a WGSL struct block.
type parsedStruct struct {
	name   string
	fields []parsedField
}
