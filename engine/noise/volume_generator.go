package noise

import (
	"image"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
)

// VolumeGenerator produces a tileable 3D Worley noise volume for the volumetric cloud material.
//
// The generator allocates a fresh RGBA32Float storage texture on every generation, releasing
// the previous one first, dispatches the kernel with one invocation per texel and binds the
// result to _VolumeTex on the configured material.
type VolumeGenerator interface {
	scene.Component

	// Generate runs the kernel and returns the new volume. When no kernel is configured it logs
	// and returns (nil, nil).
	//
	// Returns:
	//   - texture.Texture: the generated volume, or nil if generation was skipped
	//   - error: an error if allocation, binding or dispatch failed
	Generate() (texture.Texture, error)

	// RequestRegenerate marks a generation that the next Tick performs.
	RequestRegenerate()

	// SetParams replaces the kernel parameters. It does not regenerate.
	//
	// Parameters:
	//   - p: the new parameters
	SetParams(p KernelParams)

	// Params returns the current kernel parameters.
	//
	// Returns:
	//   - KernelParams: the parameters
	Params() KernelParams

	// Texture returns the current volume, or nil if none has been generated.
	//
	// Returns:
	//   - texture.Texture: the current volume or nil
	Texture() texture.Texture

	// Generations returns the number of successful generations.
	//
	// Returns:
	//   - uint64: the generation count
	Generations() uint64

	// SlicePreviewLayout returns the 3x3 slice preview grid for a screen of the given width.
	//
	// Parameters:
	//   - screenWidth: the screen width in pixels
	//
	// Returns:
	//   - []SliceCell: nine cells in row-major order
	SlicePreviewLayout(screenWidth float32) []SliceCell

	// PreviewSheet reads the volume back and renders its nine preview slices into a contact sheet.
	//
	// Returns:
	//   - *image.NRGBA64: the contact sheet
	//   - error: ErrNoTexture, or a readback error
	PreviewSheet() (*image.NRGBA64, error)
}

type volumeGenerator struct {
	generator
	displayPreview bool
}

var _ VolumeGenerator = &volumeGenerator{}

// NewVolumeGenerator creates a VolumeGenerator with the default 64³ parameters and auto
// recompute enabled.
//
// Parameters:
//   - options: functional options configuring the generator
//
// Returns:
//   - VolumeGenerator: the generator
func NewVolumeGenerator(options ...VolumeGeneratorBuilderOption) VolumeGenerator {
	v := &volumeGenerator{
		generator: generator{
			tag:           "VolumeGenerator",
			pipelineKey:   PipelineKeyWorley3D,
			dimension:     texture.Dimension3D,
			params:        DefaultVolumeParams(),
			propertyName:  PropertyVolumeTexture,
			autoRecompute: true,
		},
		displayPreview: true,
	}
	for _, opt := range options {
		opt(v)
	}
	return v
}

func (v *volumeGenerator) Generate() (texture.Texture, error) {
	return v.generate()
}

func (v *volumeGenerator) RequestRegenerate() {
	v.pending.Store(true)
}

func (v *volumeGenerator) SetParams(p KernelParams) {
	v.setParams(p)
}

func (v *volumeGenerator) Params() KernelParams {
	return v.getParams()
}

func (v *volumeGenerator) Texture() texture.Texture {
	return v.texture()
}

func (v *volumeGenerator) Generations() uint64 {
	return v.generations.Load()
}

func (v *volumeGenerator) SlicePreviewLayout(screenWidth float32) []SliceCell {
	if !v.displayPreview {
		return nil
	}
	return SlicePreviewLayout(screenWidth)
}

func (v *volumeGenerator) PreviewSheet() (*image.NRGBA64, error) {
	texels, desc, err := v.readTexels()
	if err != nil {
		return nil, err
	}
	return renderPreviewSheet(texels, desc), nil
}

func (v *volumeGenerator) Initialize() error {
	return v.initialize()
}

func (v *volumeGenerator) OnParameterChanged() {
	v.onParameterChanged()
}

func (v *volumeGenerator) Tick(deltaTime float32) {
	v.tick()
}

func (v *volumeGenerator) FixedTick(deltaTime float32) {}

func (v *volumeGenerator) Shutdown() {
	v.release()
}
