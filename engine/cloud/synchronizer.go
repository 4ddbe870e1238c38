package cloud

import (
	"log"
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/game_object"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/scene"
)

// Regenerator is implemented by texture generators that can rebuild their output on request.
type Regenerator interface {
	// RequestRegenerate marks the generator for regeneration on its next tick.
	RequestRegenerate()
}

// synchronizer is the implementation of the Synchronizer interface.
type synchronizer struct {
	mu sync.Mutex

	params   Params
	animator *FlowAnimator
	queue    *CommandQueue

	target       game_object.GameObject
	block        material.PropertyBlock
	regenerators []Regenerator

	// warnedNoTarget suppresses the per-tick log once a missing target has been reported
	warnedNoTarget bool
}

// Synchronizer pushes cloud appearance Params into the per-instance property block of the
// target game object every tick. It never writes the object's shared material. Presets and
// regeneration requests arrive through its CommandQueue and are consumed once per tick.
type Synchronizer interface {
	scene.Component

	// Params returns a copy of the current parameters.
	//
	// Returns:
	//   - Params: the current parameters
	Params() Params

	// SetParams replaces the parameters. Out-of-range values are clamped, and a StepCount
	// above MaxSteps is logged and lowered to MaxSteps. The caller should follow with
	// OnParameterChanged to reset the flow animation and push the values immediately.
	//
	// Parameters:
	//   - p: the new parameters
	SetParams(p Params)

	// ApplyPreset applies a preset immediately, outside the command queue.
	//
	// Parameters:
	//   - p: the preset to apply
	//
	// Returns:
	//   - error: ErrUnknownPreset if p is not a declared preset
	ApplyPreset(p Preset) error

	// Queue returns the command queue consumed by Tick.
	//
	// Returns:
	//   - *CommandQueue: the queue
	Queue() *CommandQueue

	// Target returns the game object whose property block is written.
	//
	// Returns:
	//   - game_object.GameObject: the target, or nil
	Target() game_object.GameObject

	// SetTarget replaces the target game object and drops the cached property block.
	//
	// Parameters:
	//   - obj: the new target
	SetTarget(obj game_object.GameObject)

	// AddRegenerator registers a generator that receives regenerate commands.
	//
	// Parameters:
	//   - r: the generator
	AddRegenerator(r Regenerator)

	// FlowDirection returns the flow direction that the next Sync will write.
	//
	// Returns:
	//   - [3]float32: the flow direction
	FlowDirection() [3]float32

	// Sync writes every parameter into the target's property block. A missing target is a
	// logged no-op.
	Sync()
}

var _ Synchronizer = &synchronizer{}

// NewSynchronizer creates a Synchronizer with DefaultParams and a fresh CommandQueue, then
// applies the provided options.
//
// Parameters:
//   - options: functional options such as WithTarget and WithParams
//
// Returns:
//   - Synchronizer: the new synchronizer
func NewSynchronizer(options ...SynchronizerBuilderOption) Synchronizer {
	s := &synchronizer{
		params: DefaultParams(),
	}
	for _, opt := range options {
		opt(s)
	}
	if s.queue == nil {
		s.queue = NewCommandQueue()
	}
	s.params = s.checkParams(s.params)
	s.animator = NewFlowAnimator(s.params.Direction)
	return s
}

func (s *synchronizer) Params() Params {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params
}

func (s *synchronizer) SetParams(p Params) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = s.checkParams(p)
}

func (s *synchronizer) ApplyPreset(p Preset) error {
	if !p.Valid() {
		return ErrUnknownPreset
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.params = p.Apply(s.params)
	return nil
}

func (s *synchronizer) Queue() *CommandQueue {
	return s.queue
}

func (s *synchronizer) Target() game_object.GameObject {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

func (s *synchronizer) SetTarget(obj game_object.GameObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = obj
	s.block = nil
	s.warnedNoTarget = false
}

func (s *synchronizer) AddRegenerator(r Regenerator) {
	if r == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.regenerators = append(s.regenerators, r)
}

func (s *synchronizer) FlowDirection() [3]float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params.Direction
}

func (s *synchronizer) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.animator.Reset(s.params.Direction)
	s.syncLocked()
	return nil
}

func (s *synchronizer) OnParameterChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = nil
	s.animator.Rebase(s.params.Direction)
	s.drainLocked()
	s.syncLocked()
}

func (s *synchronizer) Tick(deltaTime float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.params.EnableDirectionChange {
		s.params.Direction = s.animator.Advance(deltaTime, s.params.DirectionChangePeriod, s.params.DirectionChangeAmount)
	}
	s.drainLocked()
	s.syncLocked()
}

func (s *synchronizer) FixedTick(deltaTime float32) {}

func (s *synchronizer) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block = nil
}

func (s *synchronizer) Sync() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.syncLocked()
}

// checkParams logs a StepCount above MaxSteps and returns the clamped parameters.
func (s *synchronizer) checkParams(p Params) Params {
	if p.StepsExceedMax() {
		log.Printf("[CloudSync] step count %d exceeds max steps %d, clamping", p.StepCount, p.MaxSteps)
	}
	return p.Clamp()
}

// drainLocked consumes the command queue. Presets are deduplicated and applied in
// declaration order; regenerate requests are forwarded once however many were queued.
func (s *synchronizer) drainLocked() {
	cmds := s.queue.Drain()
	if len(cmds) == 0 {
		return
	}

	var requested [presetCount]bool
	regenerate := false
	for _, cmd := range cmds {
		switch cmd.Kind {
		case CommandApplyPreset:
			if !cmd.Preset.Valid() {
				log.Printf("[CloudSync] ignoring %v", cmd.Preset)
				continue
			}
			requested[cmd.Preset] = true
		case CommandRegenerate:
			regenerate = true
		default:
			log.Printf("[CloudSync] ignoring unknown command %v", cmd.Kind)
		}
	}

	for _, p := range Presets() {
		if requested[p] {
			s.params = p.Apply(s.params)
			log.Printf("[CloudSync] applied %s preset", p)
		}
	}

	if regenerate {
		if len(s.regenerators) == 0 {
			log.Printf("[CloudSync] regenerate requested but no generators are registered")
		}
		for _, r := range s.regenerators {
			r.RequestRegenerate()
		}
	}
}

// resolveBlockLocked returns the target's property block, creating and attaching one when
// the target has none. The cached block is dropped if the target's block was replaced.
func (s *synchronizer) resolveBlockLocked() material.PropertyBlock {
	if s.target == nil {
		return nil
	}
	if s.block != nil && s.target.PropertyBlock() == s.block {
		return s.block
	}
	s.block = s.target.AcquirePropertyBlock()
	return s.block
}

func (s *synchronizer) syncLocked() {
	block := s.resolveBlockLocked()
	if block == nil {
		if !s.warnedNoTarget {
			log.Printf("[CloudSync] no target game object configured, skipping sync")
			s.warnedNoTarget = true
		}
		return
	}

	p := s.params
	block.SetVector(PropertyFlowSpeed, common.Vec4(p.Speed, 0))
	block.SetFloat(PropertyTimeScale, p.TimeScale)
	block.SetVector(PropertyFlowDirection, common.Vec4(p.Direction, 0))
	block.SetFloat(PropertyTurbulenceScale, p.TurbulenceScale)

	block.SetFloat(PropertyDensityThreshold, p.DensityThreshold)
	block.SetFloat(PropertyDensityMultiplier, p.DensityMultiplier)
	block.SetFloat(PropertyCloudSharpness, p.CloudSharpness)
	block.SetFloat(PropertyDetailStrength, p.DetailStrength)
	block.SetFloat(PropertyNoiseScale, p.NoiseScale)
	block.SetFloat(PropertyHeightFalloff, p.HeightFalloff)

	block.SetInt(PropertyStepCount, int32(p.StepCount))
	block.SetInt(PropertyMaxSteps, int32(p.MaxSteps))
	block.SetFloat(PropertyTransparencyThreshold, p.TransparencyThreshold)
}
