// Package config provides configuration loading, validation and hot reload for the cloud
// pipeline host.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Carmen-Shannon/oxy-clouds/engine/cloud"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all host configuration.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Renderer RendererConfig `yaml:"renderer"`
	Volume   VolumeConfig   `yaml:"volume"`
	Texture  TextureConfig  `yaml:"texture"`
	Clouds   CloudsConfig   `yaml:"clouds"`
	Bounds   BoundsConfig   `yaml:"bounds"`
	Light    LightConfig    `yaml:"light"`
	Control  ControlConfig  `yaml:"control"`
	Export   ExportConfig   `yaml:"export"`
}

// EngineConfig controls the tick loops.
type EngineConfig struct {
	TickRate        float64       `yaml:"tick_rate"`
	FrameLimit      float64       `yaml:"frame_limit"`
	MaxFrames       uint64        `yaml:"max_frames"`
	Profiling       bool          `yaml:"profiling"`
	ProfileInterval time.Duration `yaml:"profile_interval"`
}

// RendererConfig selects and configures the compute backend.
type RendererConfig struct {
	Backend              string `yaml:"backend"`
	ForceFallbackAdapter bool   `yaml:"force_fallback_adapter"`
	DeviceLabel          string `yaml:"device_label"`
	SoftwareWorkers      int    `yaml:"software_workers"`
}

// VolumeConfig configures the 3D noise generator.
type VolumeConfig struct {
	Enabled        bool    `yaml:"enabled"`
	Width          uint32  `yaml:"width"`
	Height         uint32  `yaml:"height"`
	Depth          uint32  `yaml:"depth"`
	CellSize       float32 `yaml:"cell_size"`
	Seed           float32 `yaml:"seed"`
	AutoRecompute  bool    `yaml:"auto_recompute"`
	DisplayPreview bool    `yaml:"display_preview"`
	KernelPath     string  `yaml:"kernel_path"`
}

// TextureConfig configures the 2D noise generator.
type TextureConfig struct {
	Enabled       bool    `yaml:"enabled"`
	Width         uint32  `yaml:"width"`
	Height        uint32  `yaml:"height"`
	CellSize      float32 `yaml:"cell_size"`
	Seed          float32 `yaml:"seed"`
	AutoRecompute bool    `yaml:"auto_recompute"`
	KernelPath    string  `yaml:"kernel_path"`
}

// CloudsConfig mirrors cloud.Params plus an optional startup preset.
type CloudsConfig struct {
	FlowSpeed             [3]float32 `yaml:"flow_speed"`
	TimeScale             float32    `yaml:"time_scale"`
	FlowDirection         [3]float32 `yaml:"flow_direction"`
	TurbulenceScale       float32    `yaml:"turbulence_scale"`
	DensityThreshold      float32    `yaml:"density_threshold"`
	DensityMultiplier     float32    `yaml:"density_multiplier"`
	CloudSharpness        float32    `yaml:"cloud_sharpness"`
	DetailStrength        float32    `yaml:"detail_strength"`
	NoiseScale            float32    `yaml:"noise_scale"`
	HeightFalloff         float32    `yaml:"height_falloff"`
	StepCount             int        `yaml:"step_count"`
	MaxSteps              int        `yaml:"max_steps"`
	TransparencyThreshold float32    `yaml:"transparency_threshold"`
	EnableDirectionChange bool       `yaml:"enable_direction_change"`
	DirectionChangePeriod float32    `yaml:"direction_change_period"`
	DirectionChangeAmount float32    `yaml:"direction_change_amount"`
	Preset                string     `yaml:"preset"`
}

// BoundsConfig places the cloud volume.
type BoundsConfig struct {
	Position  [3]float64 `yaml:"position"`
	Scale     [3]float64 `yaml:"scale"`
	Canonical bool       `yaml:"canonical"`
}

// LightConfig configures the orbiting directional light.
type LightConfig struct {
	RotationSpeed float64    `yaml:"rotation_speed"`
	Axis          [3]float64 `yaml:"axis"`
	Center        [3]float64 `yaml:"center"`
	Position      [3]float64 `yaml:"position"`
}

// ControlConfig configures the remote trigger endpoint.
type ControlConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
	Path    string `yaml:"path"`
}

// ExportConfig configures texture export.
type ExportConfig struct {
	Root    string `yaml:"root"`
	OnStart bool   `yaml:"on_start"`
}

// Default returns the embedded default configuration.
//
// Returns:
//   - *Config: the defaults
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
//
// Parameters:
//   - path: the YAML file to overlay, or ""
//
// Returns:
//   - *Config: the validated configuration
//   - error: an error if the file cannot be read, parsed or validated
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes the embedded defaults, overlays data, and validates the result.
//
// Parameters:
//   - data: YAML to overlay on the defaults, may be empty
//
// Returns:
//   - *Config: the validated configuration
//   - error: an error if parsing or validation fails
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every section and returns all problems at once.
//
// Returns:
//   - error: ErrInvalidConfig wrapped with each problem, or nil
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if c.Engine.TickRate <= 0 {
		add("engine.tick_rate must be positive, got %v", c.Engine.TickRate)
	}
	if c.Engine.FrameLimit < 0 {
		add("engine.frame_limit must not be negative, got %v", c.Engine.FrameLimit)
	}
	if _, err := c.Renderer.BackendName(); err != nil {
		add("%v", err)
	}
	if c.Renderer.SoftwareWorkers < 0 {
		add("renderer.software_workers must not be negative, got %d", c.Renderer.SoftwareWorkers)
	}
	if c.Volume.Enabled && (c.Volume.Width == 0 || c.Volume.Height == 0 || c.Volume.Depth == 0) {
		add("volume dimensions must be positive, got %dx%dx%d", c.Volume.Width, c.Volume.Height, c.Volume.Depth)
	}
	if c.Texture.Enabled && (c.Texture.Width == 0 || c.Texture.Height == 0) {
		add("texture dimensions must be positive, got %dx%d", c.Texture.Width, c.Texture.Height)
	}
	if c.Clouds.Preset != "" {
		if _, err := cloud.ParsePreset(c.Clouds.Preset); err != nil {
			add("clouds.preset: %v", err)
		}
	}
	if c.Control.Enabled {
		if c.Control.Address == "" {
			add("control.address is required when control is enabled")
		}
		if !strings.HasPrefix(c.Control.Path, "/") {
			add("control.path must start with '/', got %q", c.Control.Path)
		}
	}
	if c.Export.Root == "" {
		add("export.root must not be empty")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// BackendName returns the normalized backend name.
//
// Returns:
//   - string: "software" or "wgpu"
//   - error: an error naming the unknown backend
func (r RendererConfig) BackendName() (string, error) {
	switch b := strings.ToLower(strings.TrimSpace(r.Backend)); b {
	case "software", "wgpu":
		return b, nil
	default:
		return "", fmt.Errorf("renderer.backend must be software or wgpu, got %q", r.Backend)
	}
}

// Params converts the clouds section into cloud.Params.
//
// Returns:
//   - cloud.Params: the appearance parameters
func (c CloudsConfig) Params() cloud.Params {
	return cloud.Params{
		Speed:                 c.FlowSpeed,
		TimeScale:             c.TimeScale,
		Direction:             c.FlowDirection,
		TurbulenceScale:       c.TurbulenceScale,
		DensityThreshold:      c.DensityThreshold,
		DensityMultiplier:     c.DensityMultiplier,
		CloudSharpness:        c.CloudSharpness,
		DetailStrength:        c.DetailStrength,
		NoiseScale:            c.NoiseScale,
		HeightFalloff:         c.HeightFalloff,
		StepCount:             c.StepCount,
		MaxSteps:              c.MaxSteps,
		TransparencyThreshold: c.TransparencyThreshold,
		EnableDirectionChange: c.EnableDirectionChange,
		DirectionChangePeriod: c.DirectionChangePeriod,
		DirectionChangeAmount: c.DirectionChangeAmount,
	}
}

// WriteYAML writes the configuration to a YAML file.
//
// Parameters:
//   - path: the destination file
//
// Returns:
//   - error: an error if marshaling or writing fails
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
