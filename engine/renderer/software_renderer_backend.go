package renderer

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

// SoftwareKernel is the Go counterpart of a WGSL compute entry point. The software backend calls
// it once per workgroup; the kernel is responsible for iterating the workgroup's local invocations.
// Kernels for different workgroups run concurrently and must only write texels they own.
type SoftwareKernel func(inv KernelInvocation) error

// KernelInvocation is the per-workgroup input handed to a SoftwareKernel.
type KernelInvocation struct {
	// Shader is the compute shader the kernel stands in for. Its declarations resolve binding indices.
	Shader shader.Shader
	// Provider holds the bound buffer data and textures.
	Provider bind_group_provider.BindGroupProvider
	// WorkgroupID is the index of the workgroup being executed.
	WorkgroupID [3]uint32
	// WorkgroupSize is the @workgroup_size of the entry point.
	WorkgroupSize [3]uint32
	// WorkgroupCount is the total dispatch size.
	WorkgroupCount [3]uint32
}

// GlobalID returns the global invocation ID of local invocation (lx, ly, lz).
func (inv KernelInvocation) GlobalID(lx, ly, lz uint32) [3]uint32 {
	return [3]uint32{
		inv.WorkgroupID[0]*inv.WorkgroupSize[0] + lx,
		inv.WorkgroupID[1]*inv.WorkgroupSize[1] + ly,
		inv.WorkgroupID[2]*inv.WorkgroupSize[2] + lz,
	}
}

// softwareTexture keeps its texels in host memory.
type softwareTexture struct {
	textureHandle
	texels []float32
}

var _ texture.HostTexture = &softwareTexture{}

func (t *softwareTexture) Texels() []float32 {
	return t.texels
}

type softwareDispatch struct {
	pipeline pipeline.Pipeline
	kernel   SoftwareKernel
	provider bind_group_provider.BindGroupProvider
	count    [3]uint32
}

type softwareRendererBackendImpl struct {
	mu       *sync.Mutex
	kernels  map[string]SoftwareKernel
	pool     worker.DynamicWorkerPool
	inFrame  bool
	recorded []softwareDispatch
}

var _ RendererBackend = &softwareRendererBackendImpl{}

func newSoftwareRendererBackend(kernels map[string]SoftwareKernel, workers int) *softwareRendererBackendImpl {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &softwareRendererBackendImpl{
		mu:      &sync.Mutex{},
		kernels: kernels,
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
	}
}

func (b *softwareRendererBackendImpl) RegisterComputePipeline(p pipeline.Pipeline) error {
	if p.ComputeShader() == nil {
		return errors.New("compute shader must be set to create a compute pipeline")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.kernels[p.PipelineKey()]; !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKernel, p.PipelineKey())
	}
	return nil
}

func (b *softwareRendererBackendImpl) CreateTexture(id uint64, desc texture.Descriptor) (texture.Texture, error) {
	return &softwareTexture{
		textureHandle: textureHandle{id: id, desc: desc},
		texels:        make([]float32, desc.TexelCount()*4),
	}, nil
}

func (b *softwareRendererBackendImpl) ReleaseTexture(t texture.Texture) {
	st, ok := t.(*softwareTexture)
	if !ok || !st.released.CompareAndSwap(false, true) {
		return
	}
	b.mu.Lock()
	st.texels = nil
	b.mu.Unlock()
}

func (b *softwareRendererBackendImpl) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	for _, entry := range descriptor.Entries {
		binding := int(entry.Binding)

		isStorageTexture := entry.StorageTexture.Format != wgpu.TextureFormatUndefined
		isTexture := entry.Texture.SampleType != wgpu.TextureSampleTypeUndefined
		isSampler := entry.Sampler.Type != wgpu.SamplerBindingTypeUndefined

		switch {
		case isStorageTexture || isTexture:
			t := provider.Texture(binding)
			if t == nil {
				return fmt.Errorf("texture binding %d has no texture bound", binding)
			}
			if t.Released() {
				return fmt.Errorf("binding %d: %w", binding, ErrTextureReleased)
			}
			if _, ok := t.(*softwareTexture); !ok {
				return fmt.Errorf("binding %d: %w", binding, ErrForeignTexture)
			}
		case isSampler:
			// samplers carry no host state
		default:
			size := entry.Buffer.MinBindingSize
			if overrideSize, ok := bufferSizeOverrides[binding]; ok {
				size = overrideSize
			}
			if uint64(len(provider.BufferData(binding))) < size {
				provider.SetBufferData(binding, 0, make([]byte, size))
			}
		}
	}
	return nil
}

// WriteBuffers is a no-op: the Renderer mirrors every write onto the provider, and the
// provider's mirror is the software backend's buffer storage.
func (b *softwareRendererBackendImpl) WriteBuffers(writes []bind_group_provider.BufferWrite) {}

func (b *softwareRendererBackendImpl) BeginComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFrame {
		return errors.New("compute frame already in progress")
	}
	b.inFrame = true
	b.recorded = b.recorded[:0]
	return nil
}

func (b *softwareRendererBackendImpl) DispatchCompute(p pipeline.Pipeline, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return errors.New("DispatchCompute called outside of a compute frame")
	}
	kernel, ok := b.kernels[p.PipelineKey()]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKernel, p.PipelineKey())
	}
	b.recorded = append(b.recorded, softwareDispatch{
		pipeline: p,
		kernel:   kernel,
		provider: provider,
		count:    workGroupCount,
	})
	return nil
}

func (b *softwareRendererBackendImpl) EndComputeFrame() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.inFrame {
		return nil
	}
	b.inFrame = false

	var errs []error
	for _, d := range b.recorded {
		if err := b.run(d); err != nil {
			errs = append(errs, fmt.Errorf("pipeline %q: %w", d.pipeline.PipelineKey(), err))
		}
	}
	b.recorded = b.recorded[:0]
	return errors.Join(errs...)
}

// run executes every workgroup of a dispatch on the worker pool and waits for all of them.
// Dispatches run one after another so later dispatches observe earlier writes.
func (b *softwareRendererBackendImpl) run(d softwareDispatch) error {
	s := d.pipeline.ComputeShader()
	size := s.WorkgroupSize()

	var (
		wg     sync.WaitGroup
		errMu  sync.Mutex
		errs   []error
		taskID int
	)
	for z := range d.count[2] {
		for y := range d.count[1] {
			for x := range d.count[0] {
				inv := KernelInvocation{
					Shader:         s,
					Provider:       d.provider,
					WorkgroupID:    [3]uint32{x, y, z},
					WorkgroupSize:  size,
					WorkgroupCount: d.count,
				}
				wg.Add(1)
				id := taskID
				taskID++
				b.pool.SubmitTask(worker.Task{
					ID: id,
					Do: func() (result any, err error) {
						defer wg.Done()
						defer func() {
							if r := recover(); r != nil {
								err = fmt.Errorf("kernel panic in workgroup %v: %v", inv.WorkgroupID, r)
							}
							if err != nil {
								errMu.Lock()
								errs = append(errs, err)
								errMu.Unlock()
							}
						}()
						return nil, d.kernel(inv)
					},
				})
			}
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (b *softwareRendererBackendImpl) ReadTexture(t texture.Texture) ([]float32, error) {
	st, ok := t.(*softwareTexture)
	if !ok {
		return nil, ErrForeignTexture
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if st.Released() {
		return nil, ErrTextureReleased
	}
	out := make([]float32, len(st.texels))
	copy(out, st.texels)
	return out, nil
}

func (b *softwareRendererBackendImpl) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorded = nil
	b.inFrame = false
	b.pool.Stop()
}
