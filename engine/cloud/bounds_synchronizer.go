package cloud

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/game_object"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
	"gonum.org/v1/gonum/spatial/r3"
)

// boundsSynchronizer is the implementation of the BoundsSynchronizer interface.
type boundsSynchronizer struct {
	mu sync.Mutex

	target    game_object.GameObject
	block     material.PropertyBlock
	canonical bool

	frameCounter int32

	warnedNoTarget bool
}

// BoundsSynchronizer writes the world-space box of the cloud volume and a frame counter
// into the target's property block every tick. The box is the object's position plus and
// minus half its scale.
type BoundsSynchronizer interface {
	scene.Component

	// Bounds computes the box from the target's current transform. The box is not stored.
	//
	// Returns:
	//   - r3.Box: the bounds
	//   - bool: false if no target is configured
	Bounds() (r3.Box, bool)

	// FrameCounter returns the number of ticks since the last Initialize.
	//
	// Returns:
	//   - int32: the frame counter
	FrameCounter() int32

	// Target returns the game object whose transform defines the bounds.
	//
	// Returns:
	//   - game_object.GameObject: the target, or nil
	Target() game_object.GameObject
}

var _ BoundsSynchronizer = &boundsSynchronizer{}

// NewBoundsSynchronizer creates a BoundsSynchronizer. Bounds are canonicalized by default.
//
// Parameters:
//   - options: functional options such as WithBoundsTarget
//
// Returns:
//   - BoundsSynchronizer: the new synchronizer
func NewBoundsSynchronizer(options ...BoundsSynchronizerBuilderOption) BoundsSynchronizer {
	b := &boundsSynchronizer{canonical: true}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// ComputeBounds returns the box centered on position with the extents of scale. With
// canonical set, corners are reordered so Min <= Max on every axis even for negative scale.
//
// Parameters:
//   - position: the box center
//   - scale: the box size per axis
//   - canonical: whether to reorder the corners
//
// Returns:
//   - r3.Box: the bounds
func ComputeBounds(position, scale r3.Vec, canonical bool) r3.Box {
	half := r3.Scale(0.5, scale)
	box := r3.Box{Min: r3.Sub(position, half), Max: r3.Add(position, half)}
	if canonical {
		return box.Canon()
	}
	return box
}

func (b *boundsSynchronizer) Bounds() (r3.Box, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.target == nil {
		return r3.Box{}, false
	}
	return ComputeBounds(b.target.Position(), b.target.Scale(), b.canonical), true
}

func (b *boundsSynchronizer) FrameCounter() int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frameCounter
}

func (b *boundsSynchronizer) Target() game_object.GameObject {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.target
}

func (b *boundsSynchronizer) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frameCounter = 0
	b.writeBoundsLocked()
	return nil
}

func (b *boundsSynchronizer) OnParameterChanged() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.block = nil
	b.writeBoundsLocked()
}

func (b *boundsSynchronizer) Tick(deltaTime float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	block := b.writeBoundsLocked()
	b.frameCounter++
	if block != nil {
		block.SetInt(PropertyFrameCounter, b.frameCounter)
	}
}

func (b *boundsSynchronizer) FixedTick(deltaTime float32) {}

func (b *boundsSynchronizer) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.block = nil
}

func (b *boundsSynchronizer) resolveBlockLocked() material.PropertyBlock {
	if b.target == nil {
		return nil
	}
	if b.block != nil && b.target.PropertyBlock() == b.block {
		return b.block
	}
	b.block = b.target.AcquirePropertyBlock()
	return b.block
}

// writeBoundsLocked writes _BoxMin and _BoxMax and returns the block written to, or nil
// when there is no target.
func (b *boundsSynchronizer) writeBoundsLocked() material.PropertyBlock {
	block := b.resolveBlockLocked()
	if block == nil {
		if !b.warnedNoTarget {
			log.Printf("[BoundsSync] no target game object configured, skipping sync")
			b.warnedNoTarget = true
		}
		return nil
	}
	box := ComputeBounds(b.target.Position(), b.target.Scale(), b.canonical)
	block.SetVector(PropertyBoxMin, common.Vec4(common.FromVec(box.Min), 0))
	block.SetVector(PropertyBoxMax, common.Vec4(common.FromVec(box.Max), 0))
	return block
}
