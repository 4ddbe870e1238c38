package cloud

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownPreset is returned by ParsePreset for names that match no preset.
var ErrUnknownPreset = errors.New("unknown cloud preset")

// Preset is a named one-shot overwrite of a group of Params fields. Presets are ordered;
// when several are applied in the same tick they are evaluated in declaration order, so the
// later preset wins on any field both of them set.
type Preset int

const (
	// PresetCumulus produces loose, puffy clouds.
	PresetCumulus Preset = iota

	// PresetStratocumulus produces flat, layered clouds.
	PresetStratocumulus

	// PresetCirrus produces thin, high-altitude clouds.
	PresetCirrus

	// PresetLowPerformance trades quality for fewer ray-march steps.
	PresetLowPerformance

	// PresetHighPerformance trades speed for more ray-march steps.
	PresetHighPerformance

	presetCount
)

var presetNames = [presetCount]string{
	PresetCumulus:         "cumulus",
	PresetStratocumulus:   "stratocumulus",
	PresetCirrus:          "cirrus",
	PresetLowPerformance:  "low_performance",
	PresetHighPerformance: "high_performance",
}

// Presets returns every preset in evaluation order.
func Presets() []Preset {
	out := make([]Preset, 0, presetCount)
	for p := PresetCumulus; p < presetCount; p++ {
		out = append(out, p)
	}
	return out
}

func (p Preset) String() string {
	if p < 0 || p >= presetCount {
		return fmt.Sprintf("Preset(%d)", int(p))
	}
	return presetNames[p]
}

// Valid reports whether p names a declared preset.
func (p Preset) Valid() bool {
	return p >= 0 && p < presetCount
}

// ParsePreset resolves a preset from its name. Matching ignores case, and hyphens or
// spaces are accepted in place of underscores.
//
// Parameters:
//   - name: the preset name, e.g. "cumulus" or "low-performance"
//
// Returns:
//   - Preset: the matching preset
//   - error: ErrUnknownPreset wrapped with the name if nothing matches
func ParsePreset(name string) (Preset, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	n = strings.NewReplacer("-", "_", " ", "_").Replace(n)
	for p, pn := range presetNames {
		if pn == n {
			return Preset(p), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
}

// Apply overwrites the fields the preset controls and returns the result. Fields outside
// the preset's group are left unchanged.
//
// Parameters:
//   - params: the parameters to modify
//
// Returns:
//   - Params: the modified parameters
func (p Preset) Apply(params Params) Params {
	switch p {
	case PresetCumulus:
		params.DensityThreshold = 0.65
		params.DensityMultiplier = 2.0
		params.CloudSharpness = 2.0
		params.DetailStrength = 0.8
		params.NoiseScale = 1.8
		params.HeightFalloff = 4.0
	case PresetStratocumulus:
		params.DensityThreshold = 0.4
		params.DensityMultiplier = 1.5
		params.CloudSharpness = 1.2
		params.DetailStrength = 0.5
		params.NoiseScale = 1.3
		params.HeightFalloff = 8.0
	case PresetCirrus:
		params.DensityThreshold = 0.8
		params.DensityMultiplier = 0.8
		params.CloudSharpness = 0.8
		params.DetailStrength = 1.5
		params.NoiseScale = 2.2
		params.HeightFalloff = 1.5
	case PresetLowPerformance:
		params.StepCount = 16
		params.MaxSteps = 24
		params.TransparencyThreshold = 0.2
	case PresetHighPerformance:
		params.StepCount = 48
		params.MaxSteps = 64
		params.TransparencyThreshold = 0.05
	}
	return params
}
