package material

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTexture struct{}

func (stubTexture) ID() uint64                     { return 1 }
func (stubTexture) Descriptor() texture.Descriptor { return texture.Descriptor{} }
func (stubTexture) Released() bool                 { return false }

func TestMaterialProperties(t *testing.T) {
	m := NewMaterial(
		WithName("clouds"),
		WithPipelineKey("raymarch"),
		WithFloat("_DensityThreshold", 0.6),
		WithVector("_LightDir", [4]float32{0, -1, 0, 0}),
	)
	assert.Equal(t, "clouds", m.Name())
	assert.Equal(t, "raymarch", m.PipelineKey())

	f, ok := m.Float("_DensityThreshold")
	require.True(t, ok)
	assert.Equal(t, float32(0.6), f)

	v, ok := m.Vector("_LightDir")
	require.True(t, ok)
	assert.Equal(t, [4]float32{0, -1, 0, 0}, v)

	m.SetInt("_StepCount", 32)
	i, ok := m.Int("_StepCount")
	require.True(t, ok)
	assert.Equal(t, int32(32), i)

	_, ok = m.Float("_StepCount")
	assert.False(t, ok, "getters are typed")

	kind, ok := m.Kind("_LightDir")
	require.True(t, ok)
	assert.Equal(t, PropertyVector, kind)

	assert.Equal(t, []string{"_DensityThreshold", "_LightDir", "_StepCount"}, m.PropertyNames())
}

func TestMaterialTextureNilRemoves(t *testing.T) {
	m := NewMaterial()
	m.SetTexture("_VolumeTex", stubTexture{})
	_, ok := m.Texture("_VolumeTex")
	assert.True(t, ok)

	m.SetTexture("_VolumeTex", nil)
	_, ok = m.Texture("_VolumeTex")
	assert.False(t, ok)
	assert.Empty(t, m.PropertyNames())
}

func TestMaterialRetyping(t *testing.T) {
	m := NewMaterial()
	m.SetFloat("_X", 1)
	m.SetInt("_X", 2)
	_, ok := m.Float("_X")
	assert.False(t, ok)
	kind, _ := m.Kind("_X")
	assert.Equal(t, PropertyInt, kind)
	assert.Len(t, m.PropertyNames(), 1)
}

func TestRevisionAdvancesOnWrite(t *testing.T) {
	m := NewMaterial()
	r0 := m.Revision()
	m.SetFloat("_A", 1)
	assert.Greater(t, m.Revision(), r0)
}

func TestPropertyBlock(t *testing.T) {
	b := NewPropertyBlock()
	assert.True(t, b.IsEmpty())

	b.SetVector("_BoxMin", [4]float32{-1, -1, -1, 0})
	b.SetInt("_FrameCounter", 3)
	assert.False(t, b.IsEmpty())

	fc, ok := b.Int("_FrameCounter")
	require.True(t, ok)
	assert.Equal(t, int32(3), fc)

	b.Clear()
	assert.True(t, b.IsEmpty())
}

func TestResolveVector(t *testing.T) {
	m := NewMaterial(WithVector("_FlowDirection", [4]float32{1, 0, 0, 0}))
	b := NewPropertyBlock()

	v, ok := ResolveVector(b, m, "_FlowDirection")
	require.True(t, ok)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, v)

	b.SetVector("_FlowDirection", [4]float32{0, 1, 0, 0})
	v, _ = ResolveVector(b, m, "_FlowDirection")
	assert.Equal(t, [4]float32{0, 1, 0, 0}, v, "the block overrides the material")

	v, ok = ResolveVector(nil, m, "_FlowDirection")
	require.True(t, ok)
	assert.Equal(t, [4]float32{1, 0, 0, 0}, v)

	_, ok = ResolveVector(nil, nil, "_FlowDirection")
	assert.False(t, ok)
}

func TestGPUNoiseParamsMarshal(t *testing.T) {
	p := GPUNoiseParams{TextureWidth: 64, TextureHeight: 32, TextureDepth: 16, CellSize: 8, Seed: 1.25}
	buf := p.Marshal()
	require.Len(t, buf, 32)
	assert.Equal(t, 32, p.Size())

	got, err := UnmarshalGPUNoiseParams(buf)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = UnmarshalGPUNoiseParams(buf[:10])
	assert.Error(t, err)
}
