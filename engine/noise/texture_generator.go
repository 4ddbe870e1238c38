package noise

import (
	"image"
	"path/filepath"
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
)

// DefaultExportName is the file ExportDefault writes under <root>/Textures.
const DefaultExportName = "WorleyNoise.png"

// TextureGenerator produces a tileable 2D Worley noise texture, binds it to _MainTex on the
// configured material, and can export it to an image file.
type TextureGenerator interface {
	scene.Component

	// Generate runs the kernel and returns the new texture. When no kernel is configured it logs
	// and returns (nil, nil).
	//
	// Returns:
	//   - texture.Texture: the generated texture, or nil if generation was skipped
	//   - error: an error if allocation, binding or dispatch failed
	Generate() (texture.Texture, error)

	// RequestRegenerate marks a generation that the next Tick performs.
	RequestRegenerate()

	// SetParams replaces the kernel parameters. Depth is forced to 1. It does not regenerate.
	//
	// Parameters:
	//   - p: the new parameters
	SetParams(p KernelParams)

	// Params returns the current kernel parameters.
	//
	// Returns:
	//   - KernelParams: the parameters
	Params() KernelParams

	// Texture returns the current texture, or nil if none has been generated.
	//
	// Returns:
	//   - texture.Texture: the current texture or nil
	Texture() texture.Texture

	// Generations returns the number of successful generations.
	//
	// Returns:
	//   - uint64: the generation count
	Generations() uint64

	// Image reads the texture back as a 16-bit image, clamping channels to [0, 1].
	//
	// Returns:
	//   - *image.NRGBA64: the image
	//   - error: ErrNoTexture, or a readback error
	Image() (*image.NRGBA64, error)

	// Export reads the texture back and writes it losslessly to path, overwriting any existing
	// file and creating missing directories. The format follows the extension: TIFF for .tif and
	// .tiff, PNG otherwise. Export blocks until the file is written.
	//
	// Parameters:
	//   - path: the destination file
	//
	// Returns:
	//   - error: ErrNoTexture, or a readback or I/O error
	Export(path string) error

	// ExportDefault exports to <root>/Textures/WorleyNoise.png.
	//
	// Returns:
	//   - string: the path written
	//   - error: any Export error
	ExportDefault() (string, error)
}

type textureGenerator struct {
	generator
	exportMu   sync.Mutex
	exportRoot string
}

var _ TextureGenerator = &textureGenerator{}

// NewTextureGenerator creates a TextureGenerator with the default 256² parameters.
//
// Parameters:
//   - options: functional options configuring the generator
//
// Returns:
//   - TextureGenerator: the generator
func NewTextureGenerator(options ...TextureGeneratorBuilderOption) TextureGenerator {
	t := &textureGenerator{
		generator: generator{
			tag:           "TextureGenerator",
			pipelineKey:   PipelineKeyWorley2D,
			dimension:     texture.Dimension2D,
			params:        DefaultTextureParams(),
			propertyName:  PropertyMainTexture,
			autoRecompute: true,
		},
		exportRoot: ".",
	}
	for _, opt := range options {
		opt(t)
	}
	t.params.Depth = 1
	return t
}

func (t *textureGenerator) Generate() (texture.Texture, error) {
	return t.generate()
}

func (t *textureGenerator) RequestRegenerate() {
	t.pending.Store(true)
}

func (t *textureGenerator) SetParams(p KernelParams) {
	t.setParams(p)
}

func (t *textureGenerator) Params() KernelParams {
	return t.getParams()
}

func (t *textureGenerator) Texture() texture.Texture {
	return t.texture()
}

func (t *textureGenerator) Generations() uint64 {
	return t.generations.Load()
}

func (t *textureGenerator) Image() (*image.NRGBA64, error) {
	texels, desc, err := t.readTexels()
	if err != nil {
		return nil, err
	}
	return texelsToNRGBA64(texels, desc, 0), nil
}

func (t *textureGenerator) Export(path string) error {
	t.exportMu.Lock()
	defer t.exportMu.Unlock()

	img, err := t.Image()
	if err != nil {
		return err
	}
	return writeImage(t.tag, path, img)
}

func (t *textureGenerator) ExportDefault() (string, error) {
	path := filepath.Join(t.exportRoot, "Textures", DefaultExportName)
	return path, t.Export(path)
}

func (t *textureGenerator) Initialize() error {
	return t.initialize()
}

func (t *textureGenerator) OnParameterChanged() {
	t.onParameterChanged()
}

func (t *textureGenerator) Tick(deltaTime float32) {
	t.tick()
}

func (t *textureGenerator) FixedTick(deltaTime float32) {}

func (t *textureGenerator) Shutdown() {
	t.release()
}
