package game_object

import (
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"gonum.org/v1/gonum/spatial/r3"
)

type gameObject struct {
	id      uint64
	enabled atomic.Bool
	mu      sync.RWMutex

	position    r3.Vec
	scale       r3.Vec
	orientation r3.Rotation

	mat           material.Material
	propertyBlock material.PropertyBlock
}

// GameObject defines the interface for a scene entity: a transform plus the renderer binding
// (shared Material and optional per-instance PropertyBlock) that components write shader
// parameters into.
type GameObject interface {
	// ID returns the object's unique identifier.
	//
	// Returns:
	//   - uint64: the object ID
	ID() uint64

	// Enabled returns whether this object is enabled.
	//
	// Returns:
	//   - bool: true if enabled
	Enabled() bool

	// SetEnabled enables or disables the object.
	//
	// Parameters:
	//   - enabled: the new enabled state
	SetEnabled(enabled bool)

	// Position returns the world-space position.
	//
	// Returns:
	//   - r3.Vec: the position
	Position() r3.Vec

	// SetPosition sets the world-space position.
	//
	// Parameters:
	//   - p: the new position
	SetPosition(p r3.Vec)

	// Scale returns the local scale. Components may be negative.
	//
	// Returns:
	//   - r3.Vec: the scale
	Scale() r3.Vec

	// SetScale sets the local scale.
	//
	// Parameters:
	//   - s: the new scale
	SetScale(s r3.Vec)

	// Orientation returns the unit quaternion orientation.
	//
	// Returns:
	//   - r3.Rotation: the orientation
	Orientation() r3.Rotation

	// SetOrientation sets the orientation.
	//
	// Parameters:
	//   - q: the new orientation, expected to be unit length
	SetOrientation(q r3.Rotation)

	// Forward returns the world-space forward axis (+Z rotated by the orientation).
	//
	// Returns:
	//   - r3.Vec: the unit forward vector
	Forward() r3.Vec

	// RotateAround orbits the object about a world-space pivot, rotating both its position and
	// its orientation. A zero axis is a no-op.
	//
	// Parameters:
	//   - center: the pivot point
	//   - axis: the rotation axis
	//   - degrees: the rotation angle in degrees
	RotateAround(center, axis r3.Vec, degrees float64)

	// LookAt reorients the object so its forward axis points at target, keeping +Y as up.
	// Looking at the object's own position is a no-op.
	//
	// Parameters:
	//   - target: the world-space point to face
	LookAt(target r3.Vec)

	// Material returns the shared material bound to the object's renderer, or nil.
	//
	// Returns:
	//   - material.Material: the shared material
	Material() material.Material

	// SetMaterial binds a shared material.
	//
	// Parameters:
	//   - m: the material, or nil to unbind
	SetMaterial(m material.Material)

	// PropertyBlock returns the object's per-instance property block, or nil if none is attached.
	//
	// Returns:
	//   - material.PropertyBlock: the property block or nil
	PropertyBlock() material.PropertyBlock

	// SetPropertyBlock attaches a per-instance property block.
	//
	// Parameters:
	//   - b: the property block, or nil to detach
	SetPropertyBlock(b material.PropertyBlock)

	// AcquirePropertyBlock returns the attached property block, creating and attaching an empty
	// one first if none exists.
	//
	// Returns:
	//   - material.PropertyBlock: the attached property block
	AcquirePropertyBlock() material.PropertyBlock
}

var _ GameObject = &gameObject{}

// NewGameObject creates a new enabled GameObject at the origin with unit scale and identity
// orientation, then applies the given options.
//
// Parameters:
//   - options: functional options to configure the object
//
// Returns:
//   - GameObject: the newly created object
func NewGameObject(options ...GameObjectBuilderOption) GameObject {
	obj := &gameObject{
		scale:       r3.Vec{X: 1, Y: 1, Z: 1},
		orientation: common.IdentityRotation,
	}
	obj.enabled.Store(true)
	for _, option := range options {
		option(obj)
	}
	return obj
}

func (g *gameObject) ID() uint64 {
	return g.id
}

func (g *gameObject) Enabled() bool {
	return g.enabled.Load()
}

func (g *gameObject) SetEnabled(enabled bool) {
	g.enabled.Store(enabled)
}

func (g *gameObject) Position() r3.Vec {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.position
}

func (g *gameObject) SetPosition(p r3.Vec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position = p
}

func (g *gameObject) Scale() r3.Vec {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.scale
}

func (g *gameObject) SetScale(s r3.Vec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.scale = s
}

func (g *gameObject) Orientation() r3.Rotation {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.orientation
}

func (g *gameObject) SetOrientation(q r3.Rotation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.orientation = q
}

func (g *gameObject) Forward() r3.Vec {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return r3.Unit(common.Forward(g.orientation))
}

func (g *gameObject) RotateAround(center, axis r3.Vec, degrees float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.position, g.orientation = common.RotateAround(g.position, g.orientation, center, axis, degrees)
}

func (g *gameObject) LookAt(target r3.Vec) {
	g.mu.Lock()
	defer g.mu.Unlock()
	dir := r3.Sub(target, g.position)
	if r3.Norm2(dir) == 0 {
		return
	}
	g.orientation = common.LookRotation(dir, common.WorldUp)
}

func (g *gameObject) Material() material.Material {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mat
}

func (g *gameObject) SetMaterial(m material.Material) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mat = m
}

func (g *gameObject) PropertyBlock() material.PropertyBlock {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.propertyBlock
}

func (g *gameObject) SetPropertyBlock(b material.PropertyBlock) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.propertyBlock = b
}

func (g *gameObject) AcquirePropertyBlock() material.PropertyBlock {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.propertyBlock == nil {
		g.propertyBlock = material.NewPropertyBlock()
	}
	return g.propertyBlock
}
