package renderer

import (
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the compute backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the headless WebGPU backend.
	BackendTypeWGPU RendererBackendType = iota

	// BackendTypeSoftware selects the CPU backend, which evaluates registered Go kernels
	// in place of WGSL and keeps texels in host memory.
	BackendTypeSoftware
)

// String returns the config name of the backend type.
func (t RendererBackendType) String() string {
	switch t {
	case BackendTypeSoftware:
		return "software"
	default:
		return "wgpu"
	}
}

// RendererBackend is the interface every compute backend implements. The Renderer owns
// pipeline and texture bookkeeping; backends only create, dispatch and read back.
type RendererBackend interface {
	RegisterComputePipeline(p pipeline.Pipeline) error
	CreateTexture(id uint64, desc texture.Descriptor) (texture.Texture, error)
	ReleaseTexture(t texture.Texture)
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error
	WriteBuffers(writes []bind_group_provider.BufferWrite)
	BeginComputeFrame() error
	DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error
	EndComputeFrame() error
	ReadTexture(t texture.Texture) ([]float32, error)
	Release()
}

// textureHandle carries the bookkeeping shared by every backend's texture type.
type textureHandle struct {
	id       uint64
	desc     texture.Descriptor
	released atomic.Bool
}

func (h *textureHandle) ID() uint64 {
	return h.id
}

func (h *textureHandle) Descriptor() texture.Descriptor {
	return h.desc
}

func (h *textureHandle) Released() bool {
	return h.released.Load()
}
