// Package cloud drives the per-instance shader parameters of a ray-marched cloud volume:
// appearance, flow animation and presets through Synchronizer, and the world-space bounds
// plus frame counter through BoundsSynchronizer.
package cloud

import (
	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/chewxy/math32"
)

// Shader property names written into the cloud object's property block.
const (
	PropertyFlowSpeed             = "_FlowSpeed"
	PropertyTimeScale             = "_TimeScale"
	PropertyFlowDirection         = "_FlowDirection"
	PropertyTurbulenceScale       = "_TurbulenceScale"
	PropertyDensityThreshold      = "_DensityThreshold"
	PropertyDensityMultiplier     = "_DensityMultiplier"
	PropertyCloudSharpness        = "_CloudSharpness"
	PropertyDetailStrength        = "_DetailStrength"
	PropertyNoiseScale            = "_NoiseScale"
	PropertyHeightFalloff         = "_HeightFalloff"
	PropertyStepCount             = "_StepCount"
	PropertyMaxSteps              = "_MaxSteps"
	PropertyTransparencyThreshold = "_TransparencyThreshold"

	PropertyBoxMin       = "_BoxMin"
	PropertyBoxMax       = "_BoxMax"
	PropertyFrameCounter = "_FrameCounter"
)

// Params holds every appearance parameter of the cloud shader.
type Params struct {
	// Flow
	Speed           [3]float32
	TimeScale       float32
	Direction       [3]float32
	TurbulenceScale float32

	// Shape
	DensityThreshold  float32
	DensityMultiplier float32
	CloudSharpness    float32
	DetailStrength    float32
	NoiseScale        float32
	HeightFalloff     float32

	// Performance
	StepCount             int
	MaxSteps              int
	TransparencyThreshold float32

	// Animation
	EnableDirectionChange bool
	DirectionChangePeriod float32
	DirectionChangeAmount float32
}

// DefaultParams returns the stock cloud appearance.
//
// Returns:
//   - Params: the default parameters
func DefaultParams() Params {
	return Params{
		Speed:                 [3]float32{0.1, 0.05, 0.08},
		TimeScale:             1,
		Direction:             [3]float32{1, 0, 0.5},
		TurbulenceScale:       0.5,
		DensityThreshold:      0.6,
		DensityMultiplier:     1,
		CloudSharpness:        1.5,
		DetailStrength:        0.7,
		NoiseScale:            1.5,
		HeightFalloff:         3,
		StepCount:             32,
		MaxSteps:              64,
		TransparencyThreshold: 0.1,
		EnableDirectionChange: false,
		DirectionChangePeriod: 20,
		DirectionChangeAmount: 0.3,
	}
}

// StepsExceedMax reports whether StepCount is larger than MaxSteps.
func (p Params) StepsExceedMax() bool {
	return p.StepCount > p.MaxSteps
}

// Clamp returns a copy of p with every ranged field limited to its valid range and StepCount
// limited to MaxSteps. Unranged fields (speed, direction, period) are left untouched.
//
// Returns:
//   - Params: the clamped parameters
func (p Params) Clamp() Params {
	p.Speed = finite3(p.Speed)
	p.Direction = finite3(p.Direction)
	p.TimeScale = common.Clamp(p.TimeScale, 0.1, 5)
	p.TurbulenceScale = common.Clamp(p.TurbulenceScale, 0, 2)

	p.DensityThreshold = common.Clamp(p.DensityThreshold, 0, 2)
	p.DensityMultiplier = common.Clamp(p.DensityMultiplier, 0.1, 20)
	p.CloudSharpness = common.Clamp(p.CloudSharpness, 0.1, 10)
	p.DetailStrength = common.Clamp(p.DetailStrength, 0.1, 2)
	p.NoiseScale = common.Clamp(p.NoiseScale, 0.1, 5)
	p.HeightFalloff = common.Clamp(p.HeightFalloff, 0, 10)

	p.StepCount = common.Clamp(p.StepCount, 8, 64)
	p.MaxSteps = common.Clamp(p.MaxSteps, 8, 64)
	p.StepCount = min(p.StepCount, p.MaxSteps)
	p.TransparencyThreshold = common.Clamp(p.TransparencyThreshold, 0.01, 0.5)

	p.DirectionChangeAmount = common.Clamp(p.DirectionChangeAmount, 0.1, 1)
	return p
}

// finite3 replaces NaN and infinite components with zero.
func finite3(v [3]float32) [3]float32 {
	for i, c := range v {
		if math32.IsNaN(c) || math32.IsInf(c, 0) {
			v[i] = 0
		}
	}
	return v
}
