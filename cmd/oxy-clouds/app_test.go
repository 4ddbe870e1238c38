package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/config"
	"github.com/Carmen-Shannon/oxy-clouds/engine/cloud"
	"github.com/Carmen-Shannon/oxy-clouds/engine/light"
	"github.com/Carmen-Shannon/oxy-clouds/engine/noise"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Renderer.SoftwareWorkers = 2
	cfg.Volume.Width, cfg.Volume.Height, cfg.Volume.Depth = 16, 16, 16
	cfg.Texture.Width, cfg.Texture.Height = 32, 32
	cfg.Export.Root = t.TempDir()
	require.NoError(t, cfg.Validate())
	return cfg
}

func startApp(t *testing.T, cfg *config.Config) *app {
	t.Helper()
	a, err := newApp(cfg, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		a.engine.Shutdown()
		a.close()
	})
	require.NoError(t, a.start())
	return a
}

func TestAppWiresEveryComponent(t *testing.T) {
	a := startApp(t, testConfig(t))

	assert.Equal(t, renderer.BackendTypeSoftware, a.renderer.BackendType())
	assert.Equal(t, 5, a.scene.Count())

	_, ok := a.cloudMaterial.Texture(noise.PropertyVolumeTexture)
	assert.True(t, ok, "volume texture bound after initialize")
	_, ok = a.cloudMaterial.Texture(noise.PropertyMainTexture)
	assert.True(t, ok, "2D texture bound after initialize")
	assert.Equal(t, 2, a.renderer.LiveTextures())

	a.engine.StepFrame(0.02)
	a.engine.StepFixed(0.02)

	block := a.cloudObject.PropertyBlock()
	require.NotNil(t, block)

	boxMin, ok := block.Vector(cloud.PropertyBoxMin)
	require.True(t, ok)
	assert.Equal(t, [4]float32{-50, -10, -50, 0}, boxMin)
	boxMax, ok := block.Vector(cloud.PropertyBoxMax)
	require.True(t, ok)
	assert.Equal(t, [4]float32{50, 10, 50, 0}, boxMax)

	frame, ok := block.Int(cloud.PropertyFrameCounter)
	require.True(t, ok)
	assert.Equal(t, int32(1), frame)

	steps, ok := block.Int(cloud.PropertyStepCount)
	require.True(t, ok)
	assert.Equal(t, int32(32), steps)

	dir, ok := a.cloudMaterial.Vector(light.PropertyLightDir)
	require.True(t, ok)
	assert.InDelta(t, 1, common.Length3([3]float32{dir[0], dir[1], dir[2]}), 1e-5)
	assert.InDelta(t, -0.70710677, dir[1], 1e-4, "light at height 50 and radius 50 looks down at 45 degrees")
}

func TestAppStartupPreset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clouds.Preset = "cirrus"
	a := startApp(t, cfg)

	a.engine.StepFrame(0.02)

	want := cloud.PresetCirrus.Apply(cloud.DefaultParams())
	got := a.clouds.Params()
	assert.Equal(t, want.DensityThreshold, got.DensityThreshold)
	assert.Equal(t, want.NoiseScale, got.NoiseScale)
	assert.Equal(t, 0, a.queue.Len())
}

func TestAppRegenerateCommandKeepsOneTexturePerGenerator(t *testing.T) {
	a := startApp(t, testConfig(t))
	before := a.volume.Generations()

	a.queue.Push(cloud.RegenerateCommand())
	a.engine.StepFrame(0.02) // synchronizer forwards the request
	a.engine.StepFrame(0.02) // generators pick it up

	assert.Greater(t, a.volume.Generations(), before)
	assert.Equal(t, 2, a.renderer.LiveTextures())
}

func TestAppDisabledGenerators(t *testing.T) {
	cfg := testConfig(t)
	cfg.Volume.Enabled = false
	cfg.Texture.Enabled = false
	a := startApp(t, cfg)

	assert.Nil(t, a.volume)
	assert.Nil(t, a.texture)
	assert.Equal(t, 3, a.scene.Count())
	assert.Error(t, a.exportTexture())
	assert.Error(t, a.writePreview(filepath.Join(t.TempDir(), "p.png")))
}

func TestAppExportAndPreview(t *testing.T) {
	cfg := testConfig(t)
	a := startApp(t, cfg)

	require.NoError(t, a.exportTexture())
	_, err := os.Stat(filepath.Join(cfg.Export.Root, "Textures", "WorleyNoise.png"))
	assert.NoError(t, err)

	preview := filepath.Join(t.TempDir(), "slices.png")
	require.NoError(t, a.writePreview(preview))
	_, err = os.Stat(preview)
	assert.NoError(t, err)
}

func TestAppApplyConfig(t *testing.T) {
	cfg := testConfig(t)
	a := startApp(t, cfg)

	next := *cfg
	next.Clouds.StepCount = 20
	next.Clouds.Preset = "low_performance"
	next.Bounds.Position = [3]float64{10, 0, 0}
	next.Volume.Seed = 3
	a.applyConfig(&next)

	assert.Equal(t, float32(3), a.volume.Params().Seed)
	assert.Equal(t, 16, a.clouds.Params().StepCount, "preset applied after the reloaded params")

	box, ok := a.bounds.Bounds()
	require.True(t, ok)
	assert.Equal(t, -40.0, box.Min.X)
	assert.Equal(t, 60.0, box.Max.X)
	assert.Same(t, &next, a.cfg)
}

func TestAppReloadKeepsConfiguredPreset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Clouds.Preset = "cumulus"
	a := startApp(t, cfg)
	a.engine.StepFrame(0.02)

	want := cloud.PresetCumulus.Apply(cloud.DefaultParams())
	require.Equal(t, want.DensityThreshold, a.clouds.Params().DensityThreshold)

	next := *cfg
	next.Engine.FrameLimit = 30
	a.applyConfig(&next)
	a.engine.StepFrame(0.02)

	got := a.clouds.Params()
	assert.Equal(t, want.DensityThreshold, got.DensityThreshold)
	assert.Equal(t, want.HeightFalloff, got.HeightFalloff)

	block := a.cloudObject.PropertyBlock()
	require.NotNil(t, block)
	v, ok := block.Float(cloud.PropertyDensityThreshold)
	require.True(t, ok)
	assert.Equal(t, want.DensityThreshold, v)
}

func TestKernelKeyFallsBackOnSoftware(t *testing.T) {
	a := startApp(t, testConfig(t))

	assert.Equal(t, noise.PipelineKeyWorley3D, a.kernelKey("", customVolumeKernel, noise.PipelineKeyWorley3D))
	assert.Equal(t, noise.PipelineKeyWorley3D, a.kernelKey("custom.wgsl", customVolumeKernel, noise.PipelineKeyWorley3D))
}

func TestNewRendererRejectsUnknownBackend(t *testing.T) {
	_, err := newRenderer(config.RendererConfig{Backend: "vulkan"})
	assert.Error(t, err)
}
