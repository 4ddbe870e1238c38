package light

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/game_object"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// PropertyLightDir is the shared-material property that receives the light direction.
const PropertyLightDir = "_LightDir"

const (
	// DefaultRotationSpeed is the default orbit speed in degrees per second.
	DefaultRotationSpeed = 10.0
)

// orbitSynchronizer is the implementation of the OrbitSynchronizer interface.
type orbitSynchronizer struct {
	mu sync.Mutex

	target   game_object.GameObject
	material material.Material
	light    Light

	rotationSpeed float64
	axis          r3.Vec
	center        r3.Vec

	warnedNoTarget   bool
	warnedNoMaterial bool
	warnedZeroAxis   bool
}

// OrbitSynchronizer orbits its game object around a center point on every fixed tick, keeps
// it facing the center, and broadcasts the resulting forward axis as the light direction.
// The direction is written to the shared material as _LightDir, so every object using that
// material sees the same light.
type OrbitSynchronizer interface {
	scene.Component

	// Direction returns the unit forward axis of the orbiting object, the current light direction.
	//
	// Returns:
	//   - [3]float32: the light direction
	//   - bool: false if no target is configured
	Direction() ([3]float32, bool)

	// Light returns the light whose direction is kept in sync, or nil.
	//
	// Returns:
	//   - Light: the attached light
	Light() Light

	// Target returns the orbiting game object.
	//
	// Returns:
	//   - game_object.GameObject: the target, or nil
	Target() game_object.GameObject

	// SetRotationSpeed sets the orbit speed in degrees per second.
	//
	// Parameters:
	//   - degreesPerSecond: the orbit speed
	SetRotationSpeed(degreesPerSecond float64)

	// SetAxis sets the orbit axis. It need not be normalized.
	//
	// Parameters:
	//   - axis: the orbit axis
	SetAxis(axis r3.Vec)

	// SetCenter sets the point the object orbits and faces.
	//
	// Parameters:
	//   - center: the orbit center
	SetCenter(center r3.Vec)
}

var _ OrbitSynchronizer = &orbitSynchronizer{}

// NewOrbitSynchronizer creates an OrbitSynchronizer orbiting the origin about +Y at
// DefaultRotationSpeed, with any provided options applied.
//
// Parameters:
//   - options: functional options such as WithOrbitTarget and WithSharedMaterial
//
// Returns:
//   - OrbitSynchronizer: the new synchronizer
func NewOrbitSynchronizer(options ...OrbitSynchronizerBuilderOption) OrbitSynchronizer {
	o := &orbitSynchronizer{
		rotationSpeed: DefaultRotationSpeed,
		axis:          common.WorldUp,
		center:        r3.Vec{},
	}
	for _, opt := range options {
		opt(o)
	}
	return o
}

func (o *orbitSynchronizer) Direction() ([3]float32, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.target == nil {
		return [3]float32{}, false
	}
	return common.FromVec(o.target.Forward()), true
}

func (o *orbitSynchronizer) Light() Light {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.light
}

func (o *orbitSynchronizer) Target() game_object.GameObject {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.target
}

func (o *orbitSynchronizer) SetRotationSpeed(degreesPerSecond float64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.rotationSpeed = degreesPerSecond
}

func (o *orbitSynchronizer) SetAxis(axis r3.Vec) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.axis = axis
	o.warnedZeroAxis = false
}

func (o *orbitSynchronizer) SetCenter(center r3.Vec) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.center = center
}

func (o *orbitSynchronizer) Initialize() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publishLocked()
	return nil
}

func (o *orbitSynchronizer) OnParameterChanged() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.publishLocked()
}

func (o *orbitSynchronizer) Tick(deltaTime float32) {}

func (o *orbitSynchronizer) FixedTick(deltaTime float32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.target == nil {
		if !o.warnedNoTarget {
			log.Printf("[LightSync] no target game object configured, skipping orbit")
			o.warnedNoTarget = true
		}
		return
	}

	if r3.Norm2(o.axis) == 0 {
		if !o.warnedZeroAxis {
			log.Printf("[LightSync] rotation axis is zero, skipping rotation")
			o.warnedZeroAxis = true
		}
	} else {
		o.target.RotateAround(o.center, o.axis, o.rotationSpeed*float64(deltaTime))
	}
	o.target.LookAt(o.center)
	o.publishLocked()
}

func (o *orbitSynchronizer) Shutdown() {}

// publishLocked writes the target's forward axis to the shared material and the light.
func (o *orbitSynchronizer) publishLocked() {
	if o.target == nil {
		return
	}
	dir := common.FromVec(o.target.Forward())

	if o.material != nil {
		o.material.SetVector(PropertyLightDir, common.Vec4(dir, 0))
	} else if !o.warnedNoMaterial {
		log.Printf("[LightSync] no target material configured, skipping %s", PropertyLightDir)
		o.warnedNoMaterial = true
	}

	if o.light != nil {
		o.light.SetDirection(dir)
	}
}
