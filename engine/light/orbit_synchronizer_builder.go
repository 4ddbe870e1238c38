package light

import (
	"github.com/Carmen-Shannon/oxy-clouds/engine/game_object"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"gonum.org/v1/gonum/spatial/r3"
)

// OrbitSynchronizerBuilderOption is a functional option for configuring an OrbitSynchronizer.
type OrbitSynchronizerBuilderOption func(*orbitSynchronizer)

// WithOrbitTarget sets the game object that orbits and supplies the light direction.
//
// Parameters:
//   - obj: the light's game object
//
// Returns:
//   - OrbitSynchronizerBuilderOption: option function to apply
func WithOrbitTarget(obj game_object.GameObject) OrbitSynchronizerBuilderOption {
	return func(o *orbitSynchronizer) {
		o.target = obj
	}
}

// WithSharedMaterial sets the material that receives _LightDir. The material is shared, so
// the write applies to every object that uses it.
//
// Parameters:
//   - m: the shared cloud material
//
// Returns:
//   - OrbitSynchronizerBuilderOption: option function to apply
func WithSharedMaterial(m material.Material) OrbitSynchronizerBuilderOption {
	return func(o *orbitSynchronizer) {
		o.material = m
	}
}

// WithLight attaches a Light whose direction follows the orbit.
//
// Parameters:
//   - l: the light
//
// Returns:
//   - OrbitSynchronizerBuilderOption: option function to apply
func WithLight(l Light) OrbitSynchronizerBuilderOption {
	return func(o *orbitSynchronizer) {
		o.light = l
	}
}

// WithRotationSpeed sets the orbit speed in degrees per second. Default is 10.
//
// Parameters:
//   - degreesPerSecond: the orbit speed
//
// Returns:
//   - OrbitSynchronizerBuilderOption: option function to apply
func WithRotationSpeed(degreesPerSecond float64) OrbitSynchronizerBuilderOption {
	return func(o *orbitSynchronizer) {
		o.rotationSpeed = degreesPerSecond
	}
}

// WithAxis sets the orbit axis. Default is +Y.
//
// Parameters:
//   - axis: the orbit axis
//
// Returns:
//   - OrbitSynchronizerBuilderOption: option function to apply
func WithAxis(axis r3.Vec) OrbitSynchronizerBuilderOption {
	return func(o *orbitSynchronizer) {
		o.axis = axis
	}
}

// WithCenter sets the orbit center. Default is the origin.
//
// Parameters:
//   - center: the orbit center
//
// Returns:
//   - OrbitSynchronizerBuilderOption: option function to apply
func WithCenter(center r3.Vec) OrbitSynchronizerBuilderOption {
	return func(o *orbitSynchronizer) {
		o.center = center
	}
}
