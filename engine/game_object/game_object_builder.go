package game_object

import (
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"gonum.org/v1/gonum/spatial/r3"
)

// GameObjectBuilderOption is a functional option for configuring a GameObject during construction.
type GameObjectBuilderOption func(*gameObject)

// WithID sets the ID of the GameObject.
//
// Parameters:
//   - id: unique identifier for the GameObject
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the ID
func WithID(id uint64) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.id = id
	}
}

// WithEnabled sets whether the GameObject starts enabled. Objects are enabled by default.
//
// Parameters:
//   - enabled: false to create the object disabled
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the Enabled state
func WithEnabled(enabled bool) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.enabled.Store(enabled)
	}
}

// WithPosition sets the initial world-space position.
//
// Parameters:
//   - p: the position
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the position
func WithPosition(p r3.Vec) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.position = p
	}
}

// WithScale sets the initial scale.
//
// Parameters:
//   - s: the scale
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the scale
func WithScale(s r3.Vec) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.scale = s
	}
}

// WithOrientation sets the initial orientation.
//
// Parameters:
//   - q: the unit quaternion orientation
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the orientation
func WithOrientation(q r3.Rotation) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.orientation = q
	}
}

// WithMaterial binds a shared material.
//
// Parameters:
//   - m: the material
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the material
func WithMaterial(m material.Material) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.mat = m
	}
}

// WithPropertyBlock attaches a per-instance property block.
//
// Parameters:
//   - b: the property block
//
// Returns:
//   - GameObjectBuilderOption: functional option to set the property block
func WithPropertyBlock(b material.PropertyBlock) GameObjectBuilderOption {
	return func(obj *gameObject) {
		obj.propertyBlock = b
	}
}
