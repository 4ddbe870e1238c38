package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/Carmen-Shannon/oxy-clouds/config"
	"github.com/Carmen-Shannon/oxy-clouds/control"
	"github.com/Carmen-Shannon/oxy-clouds/engine"
	"github.com/Carmen-Shannon/oxy-clouds/engine/cloud"
	"github.com/Carmen-Shannon/oxy-clouds/engine/game_object"
	"github.com/Carmen-Shannon/oxy-clouds/engine/light"
	"github.com/Carmen-Shannon/oxy-clouds/engine/noise"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// Custom kernels loaded from config are registered under these keys.
const (
	customVolumeKernel  = "worley3d_custom"
	customTextureKernel = "worley2d_custom"
)

// app owns every runtime object built from a Config.
type app struct {
	cfg *config.Config

	renderer renderer.Renderer
	engine   engine.Engine
	scene    scene.Scene
	queue    *cloud.CommandQueue

	cloudMaterial material.Material
	cloudObject   game_object.GameObject
	lightObject   game_object.GameObject

	volume  noise.VolumeGenerator
	texture noise.TextureGenerator
	clouds  cloud.Synchronizer
	bounds  cloud.BoundsSynchronizer
	orbit   light.OrbitSynchronizer
	control control.Server
}

// newApp builds the renderer, components, scene and engine described by cfg. maxFrames
// overrides cfg.Engine.MaxFrames when non-zero.
func newApp(cfg *config.Config, maxFrames uint64) (*app, error) {
	r, err := newRenderer(cfg.Renderer)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		renderer: r,
		queue:    cloud.NewCommandQueue(),
		cloudMaterial: material.NewMaterial(
			material.WithName("CloudMaterial"),
		),
	}

	a.cloudObject = game_object.NewGameObject(
		game_object.WithPosition(toVec(cfg.Bounds.Position)),
		game_object.WithScale(toVec(cfg.Bounds.Scale)),
		game_object.WithMaterial(a.cloudMaterial),
	)
	a.lightObject = game_object.NewGameObject(
		game_object.WithPosition(toVec(cfg.Light.Position)),
	)

	var regenerators []cloud.Regenerator
	var components []scene.Component
	if cfg.Volume.Enabled {
		a.volume = noise.NewVolumeGenerator(
			noise.WithVolumeRenderer(r),
			noise.WithVolumeKernel(a.kernelKey(cfg.Volume.KernelPath, customVolumeKernel, noise.PipelineKeyWorley3D)),
			noise.WithVolumeParams(volumeParams(cfg.Volume)),
			noise.WithVolumeMaterial(a.cloudMaterial),
			noise.WithVolumeAutoRecompute(cfg.Volume.AutoRecompute),
			noise.WithDisplayPreview(cfg.Volume.DisplayPreview),
		)
		regenerators = append(regenerators, a.volume)
		components = append(components, a.volume)
	}
	if cfg.Texture.Enabled {
		a.texture = noise.NewTextureGenerator(
			noise.WithTextureRenderer(r),
			noise.WithTextureKernel(a.kernelKey(cfg.Texture.KernelPath, customTextureKernel, noise.PipelineKeyWorley2D)),
			noise.WithTextureParams(textureParams(cfg.Texture)),
			noise.WithTextureMaterial(a.cloudMaterial),
			noise.WithTextureAutoRecompute(cfg.Texture.AutoRecompute),
			noise.WithExportRoot(cfg.Export.Root),
		)
		regenerators = append(regenerators, a.texture)
		components = append(components, a.texture)
	}

	a.clouds = cloud.NewSynchronizer(
		cloud.WithTarget(a.cloudObject),
		cloud.WithParams(cfg.Clouds.Params()),
		cloud.WithCommandQueue(a.queue),
		cloud.WithRegenerators(regenerators...),
	)
	a.bounds = cloud.NewBoundsSynchronizer(
		cloud.WithBoundsTarget(a.cloudObject),
		cloud.WithCanonicalBounds(cfg.Bounds.Canonical),
	)
	a.orbit = light.NewOrbitSynchronizer(
		light.WithOrbitTarget(a.lightObject),
		light.WithSharedMaterial(a.cloudMaterial),
		light.WithLight(light.NewLight()),
		light.WithRotationSpeed(cfg.Light.RotationSpeed),
		light.WithAxis(toVec(cfg.Light.Axis)),
		light.WithCenter(toVec(cfg.Light.Center)),
	)
	components = append(components, a.clouds, a.bounds, a.orbit)

	if cfg.Clouds.Preset != "" {
		p, err := cloud.ParsePreset(cfg.Clouds.Preset)
		if err != nil {
			r.Release()
			return nil, err
		}
		a.queue.Push(cloud.PresetCommand(p))
	}

	a.scene = scene.NewScene("Clouds",
		scene.WithRenderer(r),
		scene.WithComponents(components...),
	)

	if maxFrames == 0 {
		maxFrames = cfg.Engine.MaxFrames
	}
	a.engine = engine.NewEngine(
		engine.WithProfiling(cfg.Engine.Profiling),
		engine.WithProfileInterval(cfg.Engine.ProfileInterval),
		engine.WithTickRate(cfg.Engine.TickRate),
		engine.WithFrameLimit(cfg.Engine.FrameLimit),
		engine.WithMaxFrames(maxFrames),
		engine.WithScene(0, a.scene),
	)

	if cfg.Control.Enabled {
		srv, err := control.NewServer(
			control.WithQueue(a.queue),
			control.WithAddress(cfg.Control.Address),
			control.WithPath(cfg.Control.Path),
		)
		if err != nil {
			r.Release()
			return nil, fmt.Errorf("creating control server: %w", err)
		}
		a.control = srv
	}
	return a, nil
}

// newRenderer creates the configured backend and registers the built-in Worley kernels on it.
func newRenderer(cfg config.RendererConfig) (renderer.Renderer, error) {
	name, err := cfg.BackendName()
	if err != nil {
		return nil, err
	}
	backend := renderer.BackendTypeSoftware
	if name == renderer.BackendTypeWGPU.String() {
		backend = renderer.BackendTypeWGPU
	}

	r, err := renderer.NewRenderer(backend,
		renderer.WithSoftwareKernels(noise.SoftwareKernels()),
		renderer.WithSoftwareWorkers(cfg.SoftwareWorkers),
		renderer.WithForceSoftwareRenderer(cfg.ForceFallbackAdapter),
		renderer.WithDeviceLabel(cfg.DeviceLabel),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s renderer: %w", name, err)
	}
	if err := noise.RegisterBuiltinKernels(r); err != nil {
		r.Release()
		return nil, err
	}
	return r, nil
}

// kernelKey registers a custom kernel file when one is configured and returns the pipeline key
// the generator should dispatch. Failures fall back to the built-in kernel.
func (a *app) kernelKey(path, customKey, builtinKey string) string {
	if path == "" {
		return builtinKey
	}
	if a.renderer.BackendType() != renderer.BackendTypeWGPU {
		log.Printf("[App] custom kernel %s needs the wgpu backend, using %s", path, builtinKey)
		return builtinKey
	}
	p, err := noise.NewKernelPipelineFromPath(customKey, path)
	if err == nil {
		err = a.renderer.RegisterPipelines(p)
	}
	if err != nil {
		log.Printf("[App] custom kernel %s rejected, using %s: %v", path, builtinKey, err)
		return builtinKey
	}
	return customKey
}

// start initializes the engine and opens the control socket.
func (a *app) start() error {
	if err := a.engine.Initialize(); err != nil {
		log.Printf("[App] %v", err)
	}
	if a.control != nil {
		if err := a.control.Start(); err != nil {
			return err
		}
	}
	return nil
}

// applyConfig pushes a reloaded configuration into the running components. It must run on the
// frame goroutine. Renderer and generator enablement changes need a restart.
func (a *app) applyConfig(cfg *config.Config) {
	if cfg.Renderer != a.cfg.Renderer || cfg.Volume.Enabled != a.cfg.Volume.Enabled || cfg.Texture.Enabled != a.cfg.Texture.Enabled {
		log.Printf("[App] renderer and generator enablement changes take effect on restart")
	}

	a.engine.SetTickRate(cfg.Engine.TickRate)
	a.engine.SetFrameLimit(cfg.Engine.FrameLimit)
	if cfg.Engine.Profiling {
		a.engine.EnableProfiler()
	} else {
		a.engine.DisableProfiler()
	}

	if a.volume != nil {
		a.volume.SetParams(volumeParams(cfg.Volume))
	}
	if a.texture != nil {
		a.texture.SetParams(textureParams(cfg.Texture))
	}

	// the preset overlays the file's values on every reload, as it does at startup
	a.clouds.SetParams(cfg.Clouds.Params())
	if cfg.Clouds.Preset != "" {
		p, err := cloud.ParsePreset(cfg.Clouds.Preset)
		if err == nil {
			err = a.clouds.ApplyPreset(p)
		}
		if err != nil {
			log.Printf("[App] %v", err)
		}
	}

	a.cloudObject.SetPosition(toVec(cfg.Bounds.Position))
	a.cloudObject.SetScale(toVec(cfg.Bounds.Scale))

	a.orbit.SetRotationSpeed(cfg.Light.RotationSpeed)
	a.orbit.SetAxis(toVec(cfg.Light.Axis))
	a.orbit.SetCenter(toVec(cfg.Light.Center))

	a.cfg = cfg
	a.scene.OnParameterChanged()
}

// exportTexture writes the 2D noise texture to the configured export root.
func (a *app) exportTexture() error {
	if a.texture == nil {
		return errors.New("texture generator is disabled")
	}
	path, err := a.texture.ExportDefault()
	if err != nil {
		return err
	}
	log.Printf("[App] exported noise texture to %s", path)
	return nil
}

// writePreview writes the volume slice contact sheet to path.
func (a *app) writePreview(path string) error {
	if a.volume == nil {
		return errors.New("volume generator is disabled")
	}
	img, err := a.volume.PreviewSheet()
	if err != nil {
		return fmt.Errorf("building preview sheet: %w", err)
	}
	if err := noise.WriteImage(path, img); err != nil {
		return err
	}
	log.Printf("[App] wrote volume preview to %s", path)
	return nil
}

// close stops the control socket and releases the renderer. The engine shuts the scene down.
func (a *app) close() {
	if a.control != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := a.control.Shutdown(ctx); err != nil {
			log.Printf("[App] control shutdown: %v", err)
		}
	}
	a.renderer.Release()
}

func toVec(v [3]float64) r3.Vec {
	return r3.Vec{X: v[0], Y: v[1], Z: v[2]}
}

func volumeParams(c config.VolumeConfig) noise.KernelParams {
	return noise.KernelParams{Width: c.Width, Height: c.Height, Depth: c.Depth, CellSize: c.CellSize, Seed: c.Seed}
}

func textureParams(c config.TextureConfig) noise.KernelParams {
	return noise.KernelParams{Width: c.Width, Height: c.Height, Depth: 1, CellSize: c.CellSize, Seed: c.Seed}
}
