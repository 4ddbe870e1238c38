package noise

import (
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
)

// VolumeGeneratorBuilderOption is a functional option applied to a VolumeGenerator during construction.
type VolumeGeneratorBuilderOption func(*volumeGenerator)

// WithVolumeRenderer sets the renderer the generator allocates textures and dispatches on.
// Without a renderer every generation is skipped.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - VolumeGeneratorBuilderOption: a function that applies the renderer
func WithVolumeRenderer(r renderer.Renderer) VolumeGeneratorBuilderOption {
	return func(v *volumeGenerator) {
		v.r = r
	}
}

// WithVolumeKernel sets the pipeline key of the compute kernel. An empty key disables generation.
//
// Parameters:
//   - pipelineKey: the key of a registered compute pipeline
//
// Returns:
//   - VolumeGeneratorBuilderOption: a function that applies the kernel key
func WithVolumeKernel(pipelineKey string) VolumeGeneratorBuilderOption {
	return func(v *volumeGenerator) {
		v.pipelineKey = pipelineKey
	}
}

// WithVolumeParams sets the initial kernel parameters.
//
// Parameters:
//   - p: the kernel parameters
//
// Returns:
//   - VolumeGeneratorBuilderOption: a function that applies the parameters
func WithVolumeParams(p KernelParams) VolumeGeneratorBuilderOption {
	return func(v *volumeGenerator) {
		v.params = p
	}
}

// WithVolumeMaterial sets the material the volume is bound to as _VolumeTex.
//
// Parameters:
//   - m: the volume material
//
// Returns:
//   - VolumeGeneratorBuilderOption: a function that applies the material
func WithVolumeMaterial(m material.Material) VolumeGeneratorBuilderOption {
	return func(v *volumeGenerator) {
		v.mat = m
	}
}

// WithVolumeAutoRecompute controls whether OnParameterChanged regenerates. Defaults to true.
func WithVolumeAutoRecompute(auto bool) VolumeGeneratorBuilderOption {
	return func(v *volumeGenerator) {
		v.autoRecompute = auto
	}
}

// WithDisplayPreview controls whether SlicePreviewLayout returns cells. Defaults to true.
func WithDisplayPreview(display bool) VolumeGeneratorBuilderOption {
	return func(v *volumeGenerator) {
		v.displayPreview = display
	}
}
