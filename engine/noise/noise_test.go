package noise

import (
	"errors"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func newSoftwareRenderer(t *testing.T) renderer.Renderer {
	t.Helper()
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware,
		renderer.WithSoftwareKernels(SoftwareKernels()),
		renderer.WithSoftwareWorkers(4),
	)
	require.NoError(t, err)
	require.NoError(t, RegisterBuiltinKernels(r))
	t.Cleanup(r.Release)
	return r
}

func TestDispatchGroups(t *testing.T) {
	tests := []struct {
		name     string
		desc     texture.Descriptor
		wg       [3]uint32
		expected [3]uint32
	}{
		{"exact", texture.Descriptor{Dimension: texture.Dimension3D, Width: 64, Height: 64, Depth: 64}, [3]uint32{8, 8, 8}, [3]uint32{8, 8, 8}},
		{"rounds up", texture.Descriptor{Dimension: texture.Dimension3D, Width: 65, Height: 9, Depth: 1}, [3]uint32{8, 8, 8}, [3]uint32{9, 2, 1}},
		{"single texel", texture.Descriptor{Dimension: texture.Dimension3D, Width: 1, Height: 1, Depth: 1}, [3]uint32{8, 8, 8}, [3]uint32{1, 1, 1}},
		{"2D ignores depth", texture.Descriptor{Dimension: texture.Dimension2D, Width: 256, Height: 100, Depth: 40}, [3]uint32{8, 8, 1}, [3]uint32{32, 13, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DispatchGroups(tt.desc, tt.wg))
		})
	}
}

func TestDispatchGroupsCoverEveryTexel(t *testing.T) {
	for dim := uint32(1); dim <= 100; dim++ {
		g := DispatchGroups(texture.Descriptor{Dimension: texture.Dimension3D, Width: dim, Height: dim, Depth: dim}, [3]uint32{8, 8, 8})
		assert.GreaterOrEqual(t, g[0]*8, dim)
		assert.Less(t, (g[0]-1)*8, dim)
	}
}

func TestBuiltinKernelsReflect(t *testing.T) {
	p3, err := NewWorley3DPipeline()
	require.NoError(t, err)
	s := p3.ComputeShader()
	assert.Equal(t, "CSMain", s.EntryPoint())
	assert.Equal(t, [3]uint32{8, 8, 8}, s.WorkgroupSize())

	kb, err := resolveKernelBindings(s)
	require.NoError(t, err)
	assert.Equal(t, kernelBindings{group: 0, params: 0, output: 1}, kb)

	p2, err := NewWorley2DPipeline()
	require.NoError(t, err)
	assert.Equal(t, [3]uint32{8, 8, 1}, p2.ComputeShader().WorkgroupSize())
}

func TestVolumeGeneratorSkipsWithoutKernel(t *testing.T) {
	gen := NewVolumeGenerator()
	tex, err := gen.Generate()
	assert.NoError(t, err)
	assert.Nil(t, tex)
	assert.Zero(t, gen.Generations())

	r := newSoftwareRenderer(t)
	gen = NewVolumeGenerator(WithVolumeRenderer(r), WithVolumeKernel(""))
	tex, err = gen.Generate()
	assert.NoError(t, err)
	assert.Nil(t, tex)
	assert.Zero(t, r.LiveTextures())
}

func TestVolumeGeneratorRegenerationKeepsOneTexture(t *testing.T) {
	r := newSoftwareRenderer(t)
	mat := material.NewMaterial(material.WithName("clouds"))
	gen := NewVolumeGenerator(
		WithVolumeRenderer(r),
		WithVolumeMaterial(mat),
		WithVolumeParams(KernelParams{Width: 16, Height: 16, Depth: 16, CellSize: 4}),
	)

	var previous []texture.Texture
	for range 5 {
		tex, err := gen.Generate()
		require.NoError(t, err)
		require.NotNil(t, tex)
		assert.Equal(t, 1, r.LiveTextures())
		for _, old := range previous {
			assert.True(t, old.Released())
		}
		previous = append(previous, tex)
	}
	assert.Equal(t, uint64(5), gen.Generations())

	bound, ok := mat.Texture(PropertyVolumeTexture)
	require.True(t, ok)
	assert.Same(t, gen.Texture(), bound)

	desc := gen.Texture().Descriptor()
	assert.Equal(t, texture.Dimension3D, desc.Dimension)
	assert.Equal(t, texture.WrapRepeat, desc.WrapMode)
	assert.Equal(t, texture.FilterBilinear, desc.FilterMode)
	assert.True(t, desc.StorageBinding)

	gen.Shutdown()
	assert.Zero(t, r.LiveTextures())
	assert.Nil(t, gen.Texture())
	_, ok = mat.Texture(PropertyVolumeTexture)
	assert.False(t, ok)
}

func TestVolumeGeneratorInvalidParamsKeepPreviousTexture(t *testing.T) {
	r := newSoftwareRenderer(t)
	mat := material.NewMaterial(material.WithName("clouds"))
	gen := NewVolumeGenerator(
		WithVolumeRenderer(r),
		WithVolumeMaterial(mat),
		WithVolumeParams(KernelParams{Width: 8, Height: 8, Depth: 8, CellSize: 4}),
	)
	first, err := gen.Generate()
	require.NoError(t, err)

	gen.SetParams(KernelParams{Width: 0, Height: 8, Depth: 8, CellSize: 4})
	_, err = gen.Generate()
	require.ErrorIs(t, err, texture.ErrInvalidDescriptor)

	assert.Same(t, first, gen.Texture())
	assert.False(t, first.Released())
	assert.Equal(t, 1, r.LiveTextures())
	bound, ok := mat.Texture(PropertyVolumeTexture)
	require.True(t, ok)
	assert.Same(t, first, bound)
	assert.Equal(t, uint64(1), gen.Generations())

	gen.Shutdown()
	assert.Zero(t, r.LiveTextures())
	_, ok = mat.Texture(PropertyVolumeTexture)
	assert.False(t, ok)
}

func TestVolumeGeneratorFailedDispatchUnbindsReleasedTexture(t *testing.T) {
	var fail atomic.Bool
	worley := SoftwareKernels()[PipelineKeyWorley3D]
	r, err := renderer.NewRenderer(renderer.BackendTypeSoftware,
		renderer.WithSoftwareKernels(SoftwareKernels()),
		renderer.WithSoftwareKernel(PipelineKeyWorley3D, func(inv renderer.KernelInvocation) error {
			if fail.Load() {
				return errors.New("kernel fault")
			}
			return worley(inv)
		}),
	)
	require.NoError(t, err)
	require.NoError(t, RegisterBuiltinKernels(r))
	t.Cleanup(r.Release)

	mat := material.NewMaterial(material.WithName("clouds"))
	gen := NewVolumeGenerator(
		WithVolumeRenderer(r),
		WithVolumeMaterial(mat),
		WithVolumeParams(KernelParams{Width: 8, Height: 8, Depth: 8, CellSize: 4}),
	)
	first, err := gen.Generate()
	require.NoError(t, err)

	fail.Store(true)
	_, err = gen.Generate()
	require.Error(t, err)

	assert.True(t, first.Released())
	assert.Nil(t, gen.Texture())
	assert.Zero(t, r.LiveTextures())
	_, ok := mat.Texture(PropertyVolumeTexture)
	assert.False(t, ok, "a released texture must not stay bound")
}

func TestGeneratorsRunAsSceneComponents(t *testing.T) {
	r := newSoftwareRenderer(t)
	mat := material.NewMaterial(material.WithName("clouds"))
	volume := NewVolumeGenerator(
		WithVolumeRenderer(r),
		WithVolumeMaterial(mat),
		WithVolumeParams(KernelParams{Width: 8, Height: 8, Depth: 8, CellSize: 4}),
	)
	detail := NewTextureGenerator(
		WithTextureRenderer(r),
		WithTextureMaterial(mat),
		WithTextureParams(KernelParams{Width: 16, Height: 16, CellSize: 4}),
	)

	sc := scene.NewScene("noise", scene.WithComponents(volume, detail))
	require.NoError(t, sc.Initialize())
	assert.Equal(t, 2, r.LiveTextures())
	_, ok := mat.Texture(PropertyVolumeTexture)
	assert.True(t, ok)
	_, ok = mat.Texture(PropertyMainTexture)
	assert.True(t, ok)

	sc.Shutdown()
	assert.Zero(t, r.LiveTextures())
}

func TestVolumeGeneratorOutputIsDeterministic(t *testing.T) {
	r := newSoftwareRenderer(t)
	params := KernelParams{Width: 12, Height: 10, Depth: 9, CellSize: 4, Seed: 3}
	gen := NewVolumeGenerator(WithVolumeRenderer(r), WithVolumeParams(params))

	tex, err := gen.Generate()
	require.NoError(t, err)
	first, err := r.ReadTexture(tex)
	require.NoError(t, err)
	require.Len(t, first, 12*10*9*4)

	for i := 0; i < len(first); i += 4 {
		assert.GreaterOrEqual(t, first[i], float32(0))
		assert.LessOrEqual(t, first[i], float32(1))
		assert.Equal(t, float32(1), first[i+3])
	}

	tex, err = gen.Generate()
	require.NoError(t, err)
	second, err := r.ReadTexture(tex)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	gpu := material.GPUNoiseParams{TextureWidth: 12, TextureHeight: 10, TextureDepth: 9, CellSize: 4, Seed: 3}
	i := texture.TexelIndex(tex.Descriptor(), 5, 7, 8)
	assert.Equal(t, Worley3D(5, 7, 8, gpu), second[i])

	params.Seed = 4
	gen.SetParams(params)
	tex, err = gen.Generate()
	require.NoError(t, err)
	third, err := r.ReadTexture(tex)
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestVolumeGeneratorLifecycle(t *testing.T) {
	r := newSoftwareRenderer(t)
	gen := NewVolumeGenerator(
		WithVolumeRenderer(r),
		WithVolumeParams(KernelParams{Width: 8, Height: 8, Depth: 8, CellSize: 2}),
	)

	require.NoError(t, gen.Initialize())
	assert.Equal(t, uint64(1), gen.Generations())

	gen.Tick(0.016)
	assert.Equal(t, uint64(1), gen.Generations(), "Tick never generates on its own")

	gen.RequestRegenerate()
	gen.Tick(0.016)
	assert.Equal(t, uint64(2), gen.Generations())
	gen.Tick(0.016)
	assert.Equal(t, uint64(2), gen.Generations())

	gen.OnParameterChanged()
	assert.Equal(t, uint64(3), gen.Generations())

	manual := NewVolumeGenerator(
		WithVolumeRenderer(r),
		WithVolumeAutoRecompute(false),
		WithVolumeParams(KernelParams{Width: 8, Height: 8, Depth: 8, CellSize: 2}),
	)
	manual.OnParameterChanged()
	assert.Zero(t, manual.Generations())
}

func TestVolumeGeneratorRejectsZeroDepth(t *testing.T) {
	r := newSoftwareRenderer(t)
	gen := NewVolumeGenerator(WithVolumeRenderer(r), WithVolumeParams(KernelParams{Width: 8, Height: 8, CellSize: 2}))
	_, err := gen.Generate()
	assert.ErrorIs(t, err, texture.ErrInvalidDescriptor)
	assert.Zero(t, r.LiveTextures())
}

func TestSlicePreviewLayout(t *testing.T) {
	cells := SlicePreviewLayout(1920)
	require.Len(t, cells, 9)

	assert.Equal(t, float32(1920-320-10), cells[0].Rect.X)
	assert.Equal(t, float32(10), cells[0].Rect.Y)
	assert.Equal(t, float32(100), cells[0].Rect.Width)
	assert.Equal(t, float32(100), cells[0].Rect.Height)

	last := cells[8]
	assert.Equal(t, float32(1920-10), last.Rect.X+last.Rect.Width, "grid is anchored one margin from the right edge")
	assert.Equal(t, float32(10+2*110), last.Rect.Y)

	for i, c := range cells {
		assert.InDelta(t, (float64(i)+0.5)/9, float64(c.Slice), 1e-6)
	}

	hidden := NewVolumeGenerator(WithDisplayPreview(false))
	assert.Nil(t, hidden.SlicePreviewLayout(1920))
}

func TestPreviewSheet(t *testing.T) {
	gen := NewVolumeGenerator()
	_, err := gen.PreviewSheet()
	assert.ErrorIs(t, err, ErrNoTexture)

	r := newSoftwareRenderer(t)
	gen = NewVolumeGenerator(WithVolumeRenderer(r), WithVolumeParams(KernelParams{Width: 16, Height: 16, Depth: 9, CellSize: 4}))
	_, err = gen.Generate()
	require.NoError(t, err)

	sheet, err := gen.PreviewSheet()
	require.NoError(t, err)
	assert.Equal(t, 340, sheet.Bounds().Dx())
	assert.Equal(t, 340, sheet.Bounds().Dy())
	assert.InDelta(t, 0xffff, int(sheet.NRGBA64At(60, 60).A), 1)
}

func TestWorley2DTiles(t *testing.T) {
	p := material.GPUNoiseParams{TextureWidth: 32, TextureHeight: 32, TextureDepth: 1, CellSize: 8, Seed: 1.5}
	for y := uint32(0); y < 32; y += 5 {
		for x := uint32(0); x < 32; x += 3 {
			v := Worley2D(x, y, p)
			assert.InDelta(t, v, Worley2D(x+32, y, p), 1e-4)
			assert.InDelta(t, v, Worley2D(x, y+32, p), 1e-4)
		}
	}
}

func TestTextureGeneratorExport(t *testing.T) {
	r := newSoftwareRenderer(t)
	mat := material.NewMaterial()
	root := t.TempDir()
	gen := NewTextureGenerator(
		WithTextureRenderer(r),
		WithTextureMaterial(mat),
		WithTextureParams(KernelParams{Width: 24, Height: 16, Depth: 7, CellSize: 8}),
		WithExportRoot(root),
	)
	assert.Equal(t, uint32(1), gen.Params().Depth)

	assert.ErrorIs(t, gen.Export(filepath.Join(root, "none.png")), ErrNoTexture)

	require.NoError(t, gen.Initialize())
	bound, ok := mat.Texture(PropertyMainTexture)
	require.True(t, ok)
	assert.Same(t, gen.Texture(), bound)
	assert.Equal(t, texture.Dimension2D, bound.Descriptor().Dimension)

	path, err := gen.ExportDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "Textures", "WorleyNoise.png"), path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Contains(t, []color.Model{color.RGBA64Model, color.NRGBA64Model}, img.ColorModel(), "export keeps 16 bits per channel")
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 16, img.Bounds().Dy())

	want, err := gen.Image()
	require.NoError(t, err)
	wr, wg, wb, wa := want.At(3, 5).RGBA()
	gr, gg, gb, ga := img.At(3, 5).RGBA()
	assert.Equal(t, []uint32{wr, wg, wb, wa}, []uint32{gr, gg, gb, ga})

	// exporting again overwrites the file
	require.NoError(t, gen.Export(path))

	tifPath := filepath.Join(root, "out", "noise.tiff")
	require.NoError(t, gen.Export(tifPath))
	tf, err := os.Open(tifPath)
	require.NoError(t, err)
	defer tf.Close()
	timg, err := tiff.Decode(tf)
	require.NoError(t, err)
	assert.Equal(t, want.Bounds(), timg.Bounds())
}

func TestUnitToUint16Clamps(t *testing.T) {
	tests := []struct {
		in       float32
		expected uint16
	}{
		{-1, 0},
		{0, 0},
		{0.5, 32768},
		{0.25, 16384},
		{1, 0xffff},
		{4, 0xffff},
		{float32(math.NaN()), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, unitToUint16(tt.in))
	}
}
