package cloud

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/game_object"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

type countingRegenerator struct {
	mu       sync.Mutex
	requests int
}

func (c *countingRegenerator) RequestRegenerate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests++
}

func TestDefaultParamsAreWithinRange(t *testing.T) {
	p := DefaultParams()
	assert.Equal(t, p, p.Clamp())
	assert.False(t, p.StepsExceedMax())
}

func TestParamsClamp(t *testing.T) {
	p := DefaultParams()
	p.TimeScale = 100
	p.DensityMultiplier = 0
	p.HeightFalloff = -1
	p.StepCount = 64
	p.MaxSteps = 24
	p.TransparencyThreshold = 0
	p.DirectionChangeAmount = 5

	c := p.Clamp()
	assert.Equal(t, float32(5), c.TimeScale)
	assert.Equal(t, float32(0.1), c.DensityMultiplier)
	assert.Equal(t, float32(0), c.HeightFalloff)
	assert.Equal(t, 24, c.MaxSteps)
	assert.Equal(t, 24, c.StepCount)
	assert.Equal(t, float32(0.01), c.TransparencyThreshold)
	assert.Equal(t, float32(1), c.DirectionChangeAmount)
	assert.Equal(t, p.Direction, c.Direction)
}

func TestParamsClampReplacesNaN(t *testing.T) {
	p := DefaultParams()
	p.DensityThreshold = math32.NaN()
	p.NoiseScale = math32.NaN()
	p.DirectionChangeAmount = math32.NaN()
	p.Speed = [3]float32{math32.NaN(), 0.05, math32.Inf(1)}
	p.Direction = [3]float32{1, math32.NaN(), 0}

	c := p.Clamp()
	assert.Equal(t, float32(0), c.DensityThreshold)
	assert.Equal(t, float32(0.1), c.NoiseScale)
	assert.Equal(t, float32(0.1), c.DirectionChangeAmount)
	assert.Equal(t, [3]float32{0, 0.05, 0}, c.Speed)
	assert.Equal(t, [3]float32{1, 0, 0}, c.Direction)
}

func TestParsePreset(t *testing.T) {
	tests := []struct {
		name     string
		expected Preset
	}{
		{"cumulus", PresetCumulus},
		{"Stratocumulus", PresetStratocumulus},
		{" cirrus ", PresetCirrus},
		{"low-performance", PresetLowPerformance},
		{"HIGH_PERFORMANCE", PresetHighPerformance},
		{"high performance", PresetHighPerformance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePreset(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, p)
			assert.True(t, p.Valid())
		})
	}

	_, err := ParsePreset("nimbus")
	assert.ErrorIs(t, err, ErrUnknownPreset)
	assert.Equal(t, "Preset(9)", Preset(9).String())
	assert.Equal(t, []Preset{PresetCumulus, PresetStratocumulus, PresetCirrus, PresetLowPerformance, PresetHighPerformance}, Presets())
}

func TestPresetValues(t *testing.T) {
	type shape struct{ threshold, multiplier, sharpness, detail, scale, falloff float32 }
	type perf struct {
		steps, maxSteps int
		transparency    float32
	}
	shapes := map[Preset]shape{
		PresetCumulus:       {0.65, 2.0, 2.0, 0.8, 1.8, 4.0},
		PresetStratocumulus: {0.4, 1.5, 1.2, 0.5, 1.3, 8.0},
		PresetCirrus:        {0.8, 0.8, 0.8, 1.5, 2.2, 1.5},
	}
	perfs := map[Preset]perf{
		PresetLowPerformance:  {16, 24, 0.2},
		PresetHighPerformance: {48, 64, 0.05},
	}

	for p, want := range shapes {
		t.Run(p.String(), func(t *testing.T) {
			base := DefaultParams()
			got := p.Apply(base)
			assert.Equal(t, want, shape{got.DensityThreshold, got.DensityMultiplier, got.CloudSharpness, got.DetailStrength, got.NoiseScale, got.HeightFalloff})
			assert.Equal(t, base.StepCount, got.StepCount)
			assert.Equal(t, base.TransparencyThreshold, got.TransparencyThreshold)
		})
	}
	for p, want := range perfs {
		t.Run(p.String(), func(t *testing.T) {
			base := DefaultParams()
			got := p.Apply(base)
			assert.Equal(t, want, perf{got.StepCount, got.MaxSteps, got.TransparencyThreshold})
			assert.Equal(t, base.DensityThreshold, got.DensityThreshold)
		})
	}
}

func TestCommandQueue(t *testing.T) {
	q := NewCommandQueue()
	assert.Nil(t, q.Drain())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.Push(RegenerateCommand())
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, q.Len())
	assert.Len(t, q.Drain(), 50)
	assert.Equal(t, 0, q.Len())

	q.Push(PresetCommand(PresetCirrus))
	q.Push(RegenerateCommand())
	cmds := q.Drain()
	require.Len(t, cmds, 2)
	assert.Equal(t, Command{Kind: CommandApplyPreset, Preset: PresetCirrus}, cmds[0])
	assert.Equal(t, "regenerate", cmds[1].Kind.String())
}

func TestFlowAnimatorProducesUnitVectors(t *testing.T) {
	for _, amount := range []float32{0.1, 0.3, 0.55, 1} {
		a := NewFlowAnimator([3]float32{1, 0, 0.5})
		for i := 0; i < 500; i++ {
			dir := a.Advance(0.016*float32(i%7), 20, amount)
			assert.InDelta(t, 1.0, common.Length3(dir), 1e-5)
		}
	}

	a := NewFlowAnimator([3]float32{1, 0, 0})
	a.Advance(5, 20, 0.3)
	assert.InDelta(t, 5, a.Timer(), 1e-6)
	a.Reset([3]float32{0, 0, 2})
	assert.Equal(t, float32(0), a.Timer())
	assert.Equal(t, [3]float32{0, 0, 1}, a.Direction())
	assert.Equal(t, [3]float32{0, 0, 2}, a.Base())

	a.Advance(2, 20, 0.3)
	a.Rebase([3]float32{0, 3, 0})
	assert.InDelta(t, 2, a.Timer(), 1e-6)
	assert.Equal(t, [3]float32{0, 1, 0}, a.Direction())
	assert.Equal(t, [3]float32{0, 3, 0}, a.Base())
}

func TestFlowAnimatorMatchesFormula(t *testing.T) {
	a := NewFlowAnimator([3]float32{1, 0, 0.5})
	// a quarter period: phase = pi/2
	dir := a.Advance(5, 20, 0.3)
	want, ok := common.Normalize3([3]float32{1 + 0.3, 0 + 0.3*0.4539905, 0.5 + 0.3*0.8910065})
	require.True(t, ok)
	for i := range want {
		assert.InDelta(t, want[i], dir[i], 1e-4)
	}
}

func TestFlowAnimatorDegenerateInputs(t *testing.T) {
	a := NewFlowAnimator([3]float32{0, 0, 0})
	assert.Equal(t, fallbackDirection, a.Direction())

	// non-positive period behaves as one second
	b := NewFlowAnimator([3]float32{1, 0, 0})
	c := NewFlowAnimator([3]float32{1, 0, 0})
	assert.Equal(t, c.Advance(0.25, 1, 0.5), b.Advance(0.25, 0, 0.5))

	// base cancelled by the offset keeps the previous direction
	d := NewFlowAnimator([3]float32{0, -1, 0})
	assert.Equal(t, [3]float32{0, -1, 0}, d.Advance(0, 20, 1))
}

func TestSynchronizerWritesAllProperties(t *testing.T) {
	shared := material.NewMaterial(material.WithName("clouds"))
	obj := game_object.NewGameObject(game_object.WithMaterial(shared))
	s := NewSynchronizer(WithTarget(obj))

	require.NoError(t, s.Initialize())
	block := obj.PropertyBlock()
	require.NotNil(t, block)

	assert.ElementsMatch(t, []string{
		PropertyFlowSpeed, PropertyTimeScale, PropertyFlowDirection, PropertyTurbulenceScale,
		PropertyDensityThreshold, PropertyDensityMultiplier, PropertyCloudSharpness, PropertyDetailStrength,
		PropertyNoiseScale, PropertyHeightFalloff, PropertyStepCount, PropertyMaxSteps, PropertyTransparencyThreshold,
	}, block.PropertyNames())

	v, ok := block.Vector(PropertyFlowSpeed)
	require.True(t, ok)
	assert.Equal(t, [4]float32{0.1, 0.05, 0.08, 0}, v)
	v, _ = block.Vector(PropertyFlowDirection)
	assert.Equal(t, [4]float32{1, 0, 0.5, 0}, v)
	f, _ := block.Float(PropertyNoiseScale)
	assert.Equal(t, float32(1.5), f)
	n, ok := block.Int(PropertyStepCount)
	require.True(t, ok)
	assert.Equal(t, int32(32), n)
	n, _ = block.Int(PropertyMaxSteps)
	assert.Equal(t, int32(64), n)

	assert.Empty(t, shared.PropertyNames())
}

func TestSynchronizerWithoutTargetIsNoop(t *testing.T) {
	s := NewSynchronizer()
	assert.NotPanics(t, func() {
		require.NoError(t, s.Initialize())
		s.Tick(0.016)
		s.OnParameterChanged()
		s.Shutdown()
	})

	obj := game_object.NewGameObject()
	s.SetTarget(obj)
	s.Sync()
	assert.NotNil(t, obj.PropertyBlock())
	assert.Equal(t, obj, s.Target())
}

func TestSynchronizerReacquiresReplacedBlock(t *testing.T) {
	obj := game_object.NewGameObject()
	s := NewSynchronizer(WithTarget(obj))
	s.Sync()

	replacement := material.NewPropertyBlock()
	obj.SetPropertyBlock(replacement)
	s.Sync()
	_, ok := replacement.Float(PropertyTimeScale)
	assert.True(t, ok)

	obj.SetPropertyBlock(nil)
	s.Sync()
	require.NotNil(t, obj.PropertyBlock())
	_, ok = obj.PropertyBlock().Float(PropertyTimeScale)
	assert.True(t, ok)
}

func TestPresetCommandsAppliedOnTick(t *testing.T) {
	for _, p := range Presets() {
		t.Run(p.String(), func(t *testing.T) {
			obj := game_object.NewGameObject()
			s := NewSynchronizer(WithTarget(obj))
			s.Queue().Push(PresetCommand(p))
			s.Tick(0.016)

			assert.Equal(t, 0, s.Queue().Len())
			want := p.Apply(DefaultParams())
			assert.Equal(t, want, s.Params())

			f, _ := obj.PropertyBlock().Float(PropertyDensityThreshold)
			assert.Equal(t, want.DensityThreshold, f)
			n, _ := obj.PropertyBlock().Int(PropertyStepCount)
			assert.Equal(t, int32(want.StepCount), n)
		})
	}
}

func TestQueuedPresetsEvaluateInDeclarationOrder(t *testing.T) {
	tests := []struct {
		name    string
		queued  []Preset
		applied []Preset
	}{
		{"reverse arrival", []Preset{PresetCirrus, PresetCumulus}, []Preset{PresetCirrus}},
		{"shape and performance", []Preset{PresetHighPerformance, PresetStratocumulus, PresetLowPerformance}, []Preset{PresetStratocumulus, PresetHighPerformance}},
		{"duplicates", []Preset{PresetCumulus, PresetCumulus, PresetStratocumulus}, []Preset{PresetStratocumulus}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynchronizer(WithTarget(game_object.NewGameObject()))
			for _, p := range tt.queued {
				s.Queue().Push(PresetCommand(p))
			}
			s.Tick(0)

			want := DefaultParams()
			for _, p := range tt.applied {
				want = p.Apply(want)
			}
			assert.Equal(t, want, s.Params())
		})
	}
}

func TestRegenerateCommandForwarded(t *testing.T) {
	a, b := &countingRegenerator{}, &countingRegenerator{}
	q := NewCommandQueue()
	s := NewSynchronizer(WithCommandQueue(q), WithRegenerators(a, nil))
	s.AddRegenerator(b)
	s.AddRegenerator(nil)

	q.Push(RegenerateCommand())
	q.Push(RegenerateCommand())
	q.Push(PresetCommand(Preset(42)))
	s.Tick(0.016)

	assert.Equal(t, 1, a.requests)
	assert.Equal(t, 1, b.requests)
	assert.Same(t, q, s.Queue())
	assert.Equal(t, DefaultParams(), s.Params())
}

func TestDirectionAnimationKeepsUnitLength(t *testing.T) {
	for _, amount := range []float32{0.1, 0.5, 1} {
		p := DefaultParams()
		p.EnableDirectionChange = true
		p.DirectionChangeAmount = amount
		obj := game_object.NewGameObject()
		s := NewSynchronizer(WithTarget(obj), WithParams(p))
		require.NoError(t, s.Initialize())

		for i := 0; i < 200; i++ {
			s.Tick(0.1)
			v, ok := obj.PropertyBlock().Vector(PropertyFlowDirection)
			require.True(t, ok)
			assert.InDelta(t, 1.0, common.Length3([3]float32{v[0], v[1], v[2]}), 1e-5)
			assert.Equal(t, float32(0), v[3])
		}
	}
}

func TestDirectionStaticWhenAnimationDisabled(t *testing.T) {
	obj := game_object.NewGameObject()
	s := NewSynchronizer(WithTarget(obj))
	for i := 0; i < 10; i++ {
		s.Tick(1)
	}
	assert.Equal(t, [3]float32{1, 0, 0.5}, s.FlowDirection())
}

func TestOnParameterChangedResetsAnimationBase(t *testing.T) {
	p := DefaultParams()
	p.EnableDirectionChange = true
	obj := game_object.NewGameObject()
	s := NewSynchronizer(WithTarget(obj), WithParams(p))
	s.Tick(3)

	p.Direction = [3]float32{0, 0, 1}
	s.SetParams(p)
	s.OnParameterChanged()
	v, _ := obj.PropertyBlock().Vector(PropertyFlowDirection)
	assert.Equal(t, [4]float32{0, 0, 1, 0}, v)
}

func TestOnParameterChangedKeepsAnimationPhase(t *testing.T) {
	p := DefaultParams()
	p.EnableDirectionChange = true
	s := NewSynchronizer(WithTarget(game_object.NewGameObject()), WithParams(p))
	s.Tick(3)

	p.Direction = [3]float32{0, 0, 1}
	s.SetParams(p)
	s.OnParameterChanged()
	s.Tick(1)

	// the phase continues from 3s instead of restarting at zero
	ref := NewFlowAnimator([3]float32{0, 0, 1})
	want := ref.Advance(4, p.DirectionChangePeriod, p.DirectionChangeAmount)
	got := s.FlowDirection()
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-6)
	}
}

func TestStepCountAboveMaxIsClamped(t *testing.T) {
	p := DefaultParams()
	p.StepCount = 60
	p.MaxSteps = 30
	s := NewSynchronizer(WithParams(p))
	assert.Equal(t, 30, s.Params().StepCount)

	p.StepCount = 50
	s.SetParams(p)
	assert.Equal(t, 30, s.Params().StepCount)
	assert.Equal(t, 30, s.Params().MaxSteps)
}

func TestApplyPresetImmediately(t *testing.T) {
	s := NewSynchronizer()
	require.NoError(t, s.ApplyPreset(PresetLowPerformance))
	assert.Equal(t, 16, s.Params().StepCount)
	assert.ErrorIs(t, s.ApplyPreset(Preset(-1)), ErrUnknownPreset)
}

func TestComputeBounds(t *testing.T) {
	tests := []struct {
		name      string
		position  r3.Vec
		scale     r3.Vec
		canonical bool
		min, max  r3.Vec
	}{
		{"unit at origin", r3.Vec{}, r3.Vec{X: 1, Y: 1, Z: 1}, true, r3.Vec{X: -0.5, Y: -0.5, Z: -0.5}, r3.Vec{X: 0.5, Y: 0.5, Z: 0.5}},
		{"offset", r3.Vec{X: 10, Y: 2, Z: -4}, r3.Vec{X: 4, Y: 2, Z: 8}, true, r3.Vec{X: 8, Y: 1, Z: -8}, r3.Vec{X: 12, Y: 3, Z: 0}},
		{"negative canonical", r3.Vec{}, r3.Vec{X: -2, Y: 2, Z: 2}, true, r3.Vec{X: -1, Y: -1, Z: -1}, r3.Vec{X: 1, Y: 1, Z: 1}},
		{"negative raw", r3.Vec{}, r3.Vec{X: -2, Y: 2, Z: 2}, false, r3.Vec{X: 1, Y: -1, Z: -1}, r3.Vec{X: -1, Y: 1, Z: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			box := ComputeBounds(tt.position, tt.scale, tt.canonical)
			assert.Equal(t, tt.min, box.Min)
			assert.Equal(t, tt.max, box.Max)
		})
	}
}

func TestBoundsSynchronizerTick(t *testing.T) {
	obj := game_object.NewGameObject(
		game_object.WithPosition(r3.Vec{X: 1, Y: 2, Z: 3}),
		game_object.WithScale(r3.Vec{X: 2, Y: 4, Z: 6}),
	)
	b := NewBoundsSynchronizer(WithBoundsTarget(obj))
	require.NoError(t, b.Initialize())
	assert.Equal(t, int32(0), b.FrameCounter())

	for i := 1; i <= 5; i++ {
		b.Tick(0.016)
		assert.Equal(t, int32(i), b.FrameCounter())
		n, ok := obj.PropertyBlock().Int(PropertyFrameCounter)
		require.True(t, ok)
		assert.Equal(t, int32(i), n)
	}

	lo, _ := obj.PropertyBlock().Vector(PropertyBoxMin)
	hi, _ := obj.PropertyBlock().Vector(PropertyBoxMax)
	assert.Equal(t, [4]float32{0, 0, 0, 0}, lo)
	assert.Equal(t, [4]float32{2, 4, 6, 0}, hi)

	obj.SetPosition(r3.Vec{X: 10})
	b.Tick(0.016)
	lo, _ = obj.PropertyBlock().Vector(PropertyBoxMin)
	assert.Equal(t, [4]float32{9, -2, -3, 0}, lo)

	box, ok := b.Bounds()
	require.True(t, ok)
	assert.Equal(t, r3.Vec{X: 11, Y: 2, Z: 3}, box.Max)
	assert.Equal(t, obj, b.Target())
}

func TestFrameCounterResetsOnlyOnInitialize(t *testing.T) {
	obj := game_object.NewGameObject()
	b := NewBoundsSynchronizer(WithBoundsTarget(obj))
	for i := 0; i < 3; i++ {
		b.Tick(0)
	}
	b.OnParameterChanged()
	b.FixedTick(0.02)
	b.Shutdown()
	assert.Equal(t, int32(3), b.FrameCounter())

	require.NoError(t, b.Initialize())
	assert.Equal(t, int32(0), b.FrameCounter())
}

func TestBoundsSynchronizerRawCorners(t *testing.T) {
	obj := game_object.NewGameObject(game_object.WithScale(r3.Vec{X: -2, Y: 2, Z: 2}))
	b := NewBoundsSynchronizer(WithBoundsTarget(obj), WithCanonicalBounds(false))
	b.Tick(0)
	lo, _ := obj.PropertyBlock().Vector(PropertyBoxMin)
	assert.Equal(t, [4]float32{1, -1, -1, 0}, lo)
}

func TestBoundsSynchronizerWithoutTarget(t *testing.T) {
	b := NewBoundsSynchronizer()
	assert.NotPanics(t, func() { b.Tick(0) })
	assert.Equal(t, int32(1), b.FrameCounter())
	_, ok := b.Bounds()
	assert.False(t, ok)
}
