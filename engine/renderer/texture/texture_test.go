package texture

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
)

func TestDescriptorValidate(t *testing.T) {
	tests := []struct {
		name  string
		desc  Descriptor
		valid bool
	}{
		{"2D", Descriptor{Dimension: Dimension2D, Width: 256, Height: 256}, true},
		{"3D", Descriptor{Dimension: Dimension3D, Width: 64, Height: 64, Depth: 64}, true},
		{"zero width", Descriptor{Dimension: Dimension2D, Height: 4}, false},
		{"zero height", Descriptor{Dimension: Dimension3D, Width: 4, Depth: 4}, false},
		{"3D zero depth", Descriptor{Dimension: Dimension3D, Width: 4, Height: 4}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.desc.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidDescriptor)
			}
		})
	}
}

func TestDescriptorNormalized(t *testing.T) {
	d := Descriptor{Dimension: Dimension2D, Width: 8, Height: 4, Depth: 12}
	n := d.Normalized()
	assert.Equal(t, uint32(1), n.Depth)
	assert.Equal(t, uint32(12), d.Depth, "Normalized returns a copy")
	assert.Equal(t, 32, d.TexelCount())

	v := Descriptor{Dimension: Dimension3D, Width: 2, Height: 3, Depth: 4}
	assert.Equal(t, v, v.Normalized())
	assert.Equal(t, 24, v.TexelCount())
}

func TestDescriptorWGPU(t *testing.T) {
	assert.Equal(t, wgpu.TextureFormatRGBA32Float, Descriptor{}.WGPUFormat())
	assert.Equal(t, uint32(16), Descriptor{}.BytesPerTexel())
	assert.Equal(t, wgpu.TextureDimension3D, Descriptor{Dimension: Dimension3D}.WGPUDimension())
	assert.Equal(t, wgpu.TextureDimension2D, Descriptor{Dimension: Dimension2D}.WGPUDimension())
}

func TestTexelIndex(t *testing.T) {
	d := Descriptor{Dimension: Dimension3D, Width: 4, Height: 3, Depth: 2}
	assert.Equal(t, 0, TexelIndex(d, 0, 0, 0))
	assert.Equal(t, 4, TexelIndex(d, 1, 0, 0))
	assert.Equal(t, 16, TexelIndex(d, 0, 1, 0))
	assert.Equal(t, 48, TexelIndex(d, 0, 0, 1))
	assert.Equal(t, (4*3*2-1)*4, TexelIndex(d, 3, 2, 1))
}
