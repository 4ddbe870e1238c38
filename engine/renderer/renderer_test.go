package renderer

import (
	"errors"
	"os"
	"testing"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fillKernelSource = `//@oxy:include noise_params
//@oxy:group 0 0 storage_uniform params noise_params

@group(0) @binding(1) var Result: texture_storage_2d<rgba32float, write>;

@compute @workgroup_size(4, 4, 1)
fn CSMain(@builtin(global_invocation_id) id: vec3<u32>) {
    if (id.x >= params.textureWidth || id.y >= params.textureHeight) {
        return;
    }
    textureStore(Result, vec2<i32>(id.xy), vec4<f32>(f32(id.x), f32(id.y), params.seed, 1.0));
}
`

// fillKernel mirrors fillKernelSource on the CPU.
func fillKernel(inv KernelInvocation) error {
	params, err := material.UnmarshalGPUNoiseParams(inv.Provider.BufferData(0))
	if err != nil {
		return err
	}
	out := inv.Provider.Texture(1).(texture.HostTexture)
	texels := out.Texels()
	for ly := range inv.WorkgroupSize[1] {
		for lx := range inv.WorkgroupSize[0] {
			id := inv.GlobalID(lx, ly, 0)
			if id[0] >= params.TextureWidth || id[1] >= params.TextureHeight {
				continue
			}
			i := texture.TexelIndex(out.Descriptor(), id[0], id[1], 0)
			texels[i], texels[i+1], texels[i+2], texels[i+3] = float32(id[0]), float32(id[1]), params.Seed, 1
		}
	}
	return nil
}

func newFillPipeline(t *testing.T, key string) pipeline.Pipeline {
	t.Helper()
	s, err := shader.NewShader(key, fillKernelSource)
	require.NoError(t, err)
	return pipeline.NewPipeline(key, pipeline.PipelineTypeCompute, pipeline.WithComputeShader(s))
}

func newSoftware(t *testing.T, kernels map[string]SoftwareKernel) Renderer {
	t.Helper()
	r, err := NewRenderer(BackendTypeSoftware, WithSoftwareKernels(kernels), WithSoftwareWorkers(3))
	require.NoError(t, err)
	t.Cleanup(r.Release)
	return r
}

// dispatchFill allocates a w x h texture and runs the named pipeline over it.
func dispatchFill(t *testing.T, r Renderer, key string, w, h uint32, seed float32) (texture.Texture, error) {
	t.Helper()
	tex, err := r.CreateTexture(texture.Descriptor{Label: "fill", Dimension: texture.Dimension2D, Width: w, Height: h, StorageBinding: true})
	require.NoError(t, err)

	p := r.Pipeline(key)
	require.NotNil(t, p)
	provider := bind_group_provider.NewBindGroupProvider("fill", bind_group_provider.WithTexture(1, tex))
	require.NoError(t, r.InitBindGroup(provider, p.ComputeShader().BindGroupLayoutDescriptor(0), nil, nil))

	params := material.GPUNoiseParams{TextureWidth: w, TextureHeight: h, TextureDepth: 1, Seed: seed}
	r.WriteBuffers([]bind_group_provider.BufferWrite{{Provider: provider, Binding: 0, Data: params.Marshal()}})

	require.NoError(t, r.BeginComputeFrame())
	require.NoError(t, r.DispatchCompute(key, provider, [3]uint32{(w + 3) / 4, (h + 3) / 4, 1}))
	return tex, r.EndComputeFrame()
}

func TestBackendTypeString(t *testing.T) {
	assert.Equal(t, "wgpu", BackendTypeWGPU.String())
	assert.Equal(t, "software", BackendTypeSoftware.String())
}

func TestSoftwareRendererDispatch(t *testing.T) {
	r := newSoftware(t, map[string]SoftwareKernel{"fill": fillKernel})
	require.NoError(t, r.RegisterPipelines(newFillPipeline(t, "fill")))
	assert.Equal(t, BackendTypeSoftware, r.BackendType())

	tex, err := dispatchFill(t, r, "fill", 10, 7, 2.5)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), r.DispatchCount())

	texels, err := r.ReadTexture(tex)
	require.NoError(t, err)
	require.Len(t, texels, 10*7*4)
	for y := uint32(0); y < 7; y++ {
		for x := uint32(0); x < 10; x++ {
			i := texture.TexelIndex(tex.Descriptor(), x, y, 0)
			assert.Equal(t, []float32{float32(x), float32(y), 2.5, 1}, texels[i:i+4])
		}
	}

	// ReadTexture returns a copy
	texels[0] = 99
	again, err := r.ReadTexture(tex)
	require.NoError(t, err)
	assert.Equal(t, float32(0), again[0])
}

func TestSoftwareRendererRequiresKernel(t *testing.T) {
	r := newSoftware(t, nil)
	err := r.RegisterPipelines(newFillPipeline(t, "fill"))
	assert.ErrorIs(t, err, ErrUnknownKernel)
	assert.Nil(t, r.Pipeline("fill"))
}

func TestDispatchUnknownPipeline(t *testing.T) {
	r := newSoftware(t, nil)
	require.NoError(t, r.BeginComputeFrame())
	err := r.DispatchCompute("missing", bind_group_provider.NewBindGroupProvider("x"), [3]uint32{1, 1, 1})
	assert.ErrorIs(t, err, ErrUnknownPipeline)
	assert.NoError(t, r.EndComputeFrame())
	assert.Zero(t, r.DispatchCount())
}

func TestTextureLifecycle(t *testing.T) {
	r := newSoftware(t, nil)

	_, err := r.CreateTexture(texture.Descriptor{Dimension: texture.Dimension3D, Width: 4, Height: 4})
	assert.ErrorIs(t, err, texture.ErrInvalidDescriptor)

	a, err := r.CreateTexture(texture.Descriptor{Dimension: texture.Dimension3D, Width: 4, Height: 4, Depth: 2})
	require.NoError(t, err)
	b, err := r.CreateTexture(texture.Descriptor{Dimension: texture.Dimension2D, Width: 4, Height: 4, Depth: 9})
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, uint32(1), b.Descriptor().Depth)
	assert.Equal(t, 2, r.LiveTextures())

	r.ReleaseTexture(a)
	r.ReleaseTexture(a)
	r.ReleaseTexture(nil)
	assert.True(t, a.Released())
	assert.Equal(t, 1, r.LiveTextures())

	_, err = r.ReadTexture(a)
	assert.ErrorIs(t, err, ErrTextureReleased)

	provider := bind_group_provider.NewBindGroupProvider("released", bind_group_provider.WithTexture(1, a))
	s, err := shader.NewShader("fill", fillKernelSource)
	require.NoError(t, err)
	err = r.InitBindGroup(provider, s.BindGroupLayoutDescriptor(0), nil, nil)
	assert.ErrorIs(t, err, ErrTextureReleased)
}

func TestSoftwareKernelErrorsPropagate(t *testing.T) {
	boom := errors.New("boom")
	r := newSoftware(t, map[string]SoftwareKernel{
		"fails":  func(KernelInvocation) error { return boom },
		"panics": func(KernelInvocation) error { panic("kernel bug") },
	})
	require.NoError(t, r.RegisterPipelines(newFillPipeline(t, "fails"), newFillPipeline(t, "panics")))

	_, err := dispatchFill(t, r, "fails", 8, 8, 0)
	assert.ErrorIs(t, err, boom)

	_, err = dispatchFill(t, r, "panics", 8, 8, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kernel bug")

	// the renderer is still usable after a failed frame
	require.NoError(t, r.BeginComputeFrame())
	assert.NoError(t, r.EndComputeFrame())
}

func TestInitBindGroupSizesBufferMirror(t *testing.T) {
	r := newSoftware(t, nil)
	s, err := shader.NewShader("fill", fillKernelSource)
	require.NoError(t, err)
	tex, err := r.CreateTexture(texture.Descriptor{Dimension: texture.Dimension2D, Width: 2, Height: 2, StorageBinding: true})
	require.NoError(t, err)

	provider := bind_group_provider.NewBindGroupProvider("mirror", bind_group_provider.WithTexture(1, tex))
	require.NoError(t, r.InitBindGroup(provider, s.BindGroupLayoutDescriptor(0), nil, nil))
	assert.Len(t, provider.BufferData(0), 32)

	missing := bind_group_provider.NewBindGroupProvider("missing")
	assert.Error(t, r.InitBindGroup(missing, s.BindGroupLayoutDescriptor(0), nil, nil))
}

func TestWGPURendererDispatch(t *testing.T) {
	if os.Getenv("OXY_GPU_TESTS") == "" {
		t.Skip("Need a GPU adapter; set OXY_GPU_TESTS=1 to run")
	}
	r, err := NewRenderer(BackendTypeWGPU, WithDeviceLabel("Test Device"))
	require.NoError(t, err)
	defer r.Release()
	require.NoError(t, r.RegisterPipelines(newFillPipeline(t, "fill")))

	tex, err := dispatchFill(t, r, "fill", 70, 5, 1)
	require.NoError(t, err)
	texels, err := r.ReadTexture(tex)
	require.NoError(t, err)
	i := texture.TexelIndex(tex.Descriptor(), 69, 4, 0)
	assert.Equal(t, []float32{69, 4, 1, 1}, texels[i:i+4])
}
