package noise

import (
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
)

// TextureGeneratorBuilderOption is a functional option applied to a TextureGenerator during construction.
type TextureGeneratorBuilderOption func(*textureGenerator)

// WithTextureRenderer sets the renderer the generator allocates textures and dispatches on.
// Without a renderer every generation is skipped.
//
// Parameters:
//   - r: the renderer
//
// Returns:
//   - TextureGeneratorBuilderOption: a function that applies the renderer
func WithTextureRenderer(r renderer.Renderer) TextureGeneratorBuilderOption {
	return func(t *textureGenerator) {
		t.r = r
	}
}

// WithTextureKernel sets the pipeline key of the compute kernel. An empty key disables generation.
//
// Parameters:
//   - pipelineKey: the key of a registered compute pipeline
//
// Returns:
//   - TextureGeneratorBuilderOption: a function that applies the kernel key
func WithTextureKernel(pipelineKey string) TextureGeneratorBuilderOption {
	return func(t *textureGenerator) {
		t.pipelineKey = pipelineKey
	}
}

// WithTextureParams sets the initial kernel parameters. Depth is forced to 1.
//
// Parameters:
//   - p: the kernel parameters
//
// Returns:
//   - TextureGeneratorBuilderOption: a function that applies the parameters
func WithTextureParams(p KernelParams) TextureGeneratorBuilderOption {
	return func(t *textureGenerator) {
		t.params = p
	}
}

// WithTextureMaterial sets the material the texture is bound to as _MainTex.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - TextureGeneratorBuilderOption: a function that applies the material
func WithTextureMaterial(m material.Material) TextureGeneratorBuilderOption {
	return func(t *textureGenerator) {
		t.mat = m
	}
}

// WithTextureAutoRecompute controls whether OnParameterChanged regenerates. Defaults to true.
func WithTextureAutoRecompute(auto bool) TextureGeneratorBuilderOption {
	return func(t *textureGenerator) {
		t.autoRecompute = auto
	}
}

// WithExportRoot sets the root directory ExportDefault writes under. Defaults to ".".
func WithExportRoot(root string) TextureGeneratorBuilderOption {
	return func(t *textureGenerator) {
		t.exportRoot = root
	}
}
