package texture

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// Dimension identifies whether a texture is a 2D image or a 3D volume.
type Dimension int

const (
	// Dimension2D is a flat texture; its depth is always 1.
	Dimension2D Dimension = iota

	// Dimension3D is a volume texture addressed by (x, y, z).
	Dimension3D
)

// Format identifies the texel format of a generated texture.
type Format int

const (
	// FormatRGBA32Float stores four 32-bit floats per texel (16 bytes).
	FormatRGBA32Float Format = iota
)

// WrapMode controls how texture coordinates outside [0, 1] are resolved when sampling.
type WrapMode int

const (
	// WrapRepeat tiles the texture.
	WrapRepeat WrapMode = iota

	// WrapClamp clamps coordinates to the edge texels.
	WrapClamp

	// WrapMirror tiles the texture, mirroring every other repetition.
	WrapMirror
)

// FilterMode controls texel filtering when sampling.
type FilterMode int

const (
	// FilterBilinear linearly interpolates neighboring texels.
	FilterBilinear FilterMode = iota

	// FilterPoint samples the nearest texel.
	FilterPoint
)

// ErrInvalidDescriptor is returned by Validate for descriptors that cannot be allocated.
var ErrInvalidDescriptor = errors.New("invalid texture descriptor")

// Descriptor describes a generated texture. A Descriptor is owned by the generator that
// produced it and is never shared between generators.
type Descriptor struct {
	// Label is a debug label applied to the GPU resources created for the texture.
	Label string
	// Dimension selects a 2D or 3D texture.
	Dimension Dimension
	// Width, Height and Depth are the texture extents in texels. Depth is forced to 1 for 2D textures.
	Width, Height, Depth uint32
	// Format is the texel format.
	Format Format
	// StorageBinding enables random-write access from compute kernels.
	StorageBinding bool
	// WrapMode is the sampling wrap mode consumers should use.
	WrapMode WrapMode
	// FilterMode is the sampling filter mode consumers should use.
	FilterMode FilterMode
}

// Validate reports whether the descriptor can be allocated.
//
// Returns:
//   - error: ErrInvalidDescriptor wrapped with the reason, or nil
func (d Descriptor) Validate() error {
	if d.Width == 0 || d.Height == 0 {
		return fmt.Errorf("%w: %q has zero width or height", ErrInvalidDescriptor, d.Label)
	}
	if d.Dimension == Dimension3D && d.Depth == 0 {
		return fmt.Errorf("%w: %q has zero depth", ErrInvalidDescriptor, d.Label)
	}
	return nil
}

// Normalized returns a copy of the descriptor with Depth forced to 1 for 2D textures.
func (d Descriptor) Normalized() Descriptor {
	if d.Dimension == Dimension2D {
		d.Depth = 1
	}
	return d
}

// TexelCount returns the number of texels in the texture.
func (d Descriptor) TexelCount() int {
	n := d.Normalized()
	return int(n.Width) * int(n.Height) * int(n.Depth)
}

// BytesPerTexel returns the size of a single texel in bytes.
func (d Descriptor) BytesPerTexel() uint32 {
	switch d.Format {
	case FormatRGBA32Float:
		return 16
	default:
		return 16
	}
}

// WGPUFormat maps the descriptor format onto its WebGPU texture format.
func (d Descriptor) WGPUFormat() wgpu.TextureFormat {
	switch d.Format {
	case FormatRGBA32Float:
		return wgpu.TextureFormatRGBA32Float
	default:
		return wgpu.TextureFormatRGBA32Float
	}
}

// WGPUDimension maps the descriptor dimension onto its WebGPU texture dimension.
func (d Descriptor) WGPUDimension() wgpu.TextureDimension {
	if d.Dimension == Dimension3D {
		return wgpu.TextureDimension3D
	}
	return wgpu.TextureDimension2D
}

// Texture is a backend-owned texture allocation. Textures are created and released through
// the renderer; a released texture must not be bound or read again.
type Texture interface {
	// ID returns a renderer-unique identifier for the allocation.
	//
	// Returns:
	//   - uint64: the allocation ID
	ID() uint64

	// Descriptor returns the normalized descriptor the texture was created from.
	//
	// Returns:
	//   - Descriptor: the texture descriptor
	Descriptor() Descriptor

	// Released reports whether the texture's backing memory has been freed.
	//
	// Returns:
	//   - bool: true once the renderer has released the texture
	Released() bool
}

// HostTexture is implemented by textures whose texels live in host memory, such as those
// created by the software backend. Texels are stored row-major, x fastest, then y, then z,
// four float32 channels per texel.
type HostTexture interface {
	Texture

	// Texels returns the backing texel slice. Writers must only touch texels they own.
	//
	// Returns:
	//   - []float32: the texel data, 4 floats per texel
	Texels() []float32
}

// TexelIndex returns the float offset of texel (x, y, z) in a host texel slice.
func TexelIndex(d Descriptor, x, y, z uint32) int {
	return ((int(z)*int(d.Height)+int(y))*int(d.Width) + int(x)) * 4
}
