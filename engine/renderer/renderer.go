package renderer

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/cogentcore/webgpu/wgpu"
)

var (
	// ErrTextureReleased is returned when a released texture is bound or read.
	ErrTextureReleased = errors.New("texture has been released")

	// ErrUnknownKernel is returned by the software backend when a pipeline has no Go kernel registered.
	ErrUnknownKernel = errors.New("no software kernel registered for pipeline")

	// ErrUnknownPipeline is returned when dispatching a pipeline key that was never registered.
	ErrUnknownPipeline = errors.New("pipeline not registered")

	// ErrForeignTexture is returned when a texture created by another backend is passed in.
	ErrForeignTexture = errors.New("texture was not created by this backend")
)

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline
	textures      map[uint64]texture.Texture
	nextTextureID uint64
	dispatches    atomic.Uint64

	backendType RendererBackendType
	backend     RendererBackend

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	deviceLabel          string
	softwareKernels      map[string]SoftwareKernel
	softwareWorkers      int
}

// Renderer defines the interface for the compute system.
//
// The Renderer owns the pipeline cache and every texture allocation, and forwards GPU work to
// a backend. Dispatches are batched between BeginComputeFrame and EndComputeFrame; submission
// happens on EndComputeFrame, so anything sampled afterwards observes the written texels.
type Renderer interface {
	// BackendType reports which backend the renderer was created with.
	//
	// Returns:
	//   - RendererBackendType: the backend type
	BackendType() RendererBackendType

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// RegisterPipelines creates the backend objects for one or more pipelines and caches them by
	// PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: an error if pipeline creation fails
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// CreateTexture allocates a texture from a descriptor. 2D descriptors are normalized to depth 1.
	//
	// Parameters:
	//   - desc: the texture descriptor
	//
	// Returns:
	//   - texture.Texture: the allocated texture
	//   - error: an error if the descriptor is invalid or allocation fails
	CreateTexture(desc texture.Descriptor) (texture.Texture, error)

	// ReleaseTexture frees a texture's backing memory. Releasing nil or an already released
	// texture is a no-op.
	//
	// Parameters:
	//   - t: the texture to release
	ReleaseTexture(t texture.Texture)

	// LiveTextures returns the number of textures created and not yet released.
	//
	// Returns:
	//   - int: the live texture count
	LiveTextures() int

	// InitBindGroup creates buffers and a bind group from a layout descriptor and stores them on
	// the provider. Texture bindings must already be bound on the provider via SetTexture.
	// Buffer usage and size can be overridden per binding.
	//
	// Parameters:
	//   - provider: the BindGroupProvider to store the created bind group on
	//   - descriptor: the layout descriptor defining the bind group entries
	//   - bufferUsageOverrides: additional buffer usage flags keyed by binding index (nil safe)
	//   - bufferSizeOverrides: custom buffer sizes keyed by binding index (nil safe)
	//
	// Returns:
	//   - error: an error if bind group creation fails
	InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error

	// WriteBuffers writes staged buffer data. Each write is also mirrored on its provider.
	//
	// Parameters:
	//   - writes: the buffer writes to apply
	WriteBuffers(writes []bind_group_provider.BufferWrite)

	// BeginComputeFrame starts batching compute dispatches. Must be paired with EndComputeFrame.
	//
	// Returns:
	//   - error: an error if the frame could not be started
	BeginComputeFrame() error

	// DispatchCompute looks up a registered compute pipeline and records a dispatch of
	// workGroupCount workgroups with the provider bound at its group index.
	//
	// Parameters:
	//   - pipelineKey: the key of the compute pipeline
	//   - provider: the bind group provider to bind
	//   - workGroupCount: the workgroup count in x, y and z
	//
	// Returns:
	//   - error: ErrUnknownPipeline or a backend error
	DispatchCompute(pipelineKey string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error

	// EndComputeFrame submits every dispatch recorded since BeginComputeFrame.
	//
	// Returns:
	//   - error: an error if submission or execution failed
	EndComputeFrame() error

	// ReadTexture copies a texture's texels to host memory, blocking until the copy completes.
	// Texels are returned x fastest, then y, then z, four floats per texel.
	//
	// Parameters:
	//   - t: the texture to read
	//
	// Returns:
	//   - []float32: the texel data
	//   - error: ErrTextureReleased or a backend error
	ReadTexture(t texture.Texture) ([]float32, error)

	// DispatchCount returns the number of dispatches recorded since creation.
	//
	// Returns:
	//   - uint64: the dispatch count
	DispatchCount() uint64

	// Release frees every pipeline, texture and backend resource held by the renderer.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer with the specified backend.
//
// Parameters:
//   - backendType: the backend to use (BackendTypeWGPU or BackendTypeSoftware)
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new Renderer instance
//   - error: an error if the backend could not be created
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:              &sync.Mutex{},
		pipelineCache:   make(map[string]pipeline.Pipeline),
		textures:        make(map[uint64]texture.Texture),
		backendType:     backendType,
		softwareKernels: make(map[string]SoftwareKernel),
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	switch backendType {
	case BackendTypeSoftware:
		r.backend = newSoftwareRendererBackend(r.softwareKernels, r.softwareWorkers)
	case BackendTypeWGPU:
		b, err := newWGPURendererBackend(r.deviceLabel, r.forceFallbackAdapter)
		if err != nil {
			return nil, fmt.Errorf("failed to create wgpu backend: %w", err)
		}
		r.backend = b
	default:
		return nil, fmt.Errorf("unknown renderer backend type %d", backendType)
	}
	log.Printf("[Renderer] using %s backend", backendType)
	return r, nil
}

func (r *renderer) BackendType() RendererBackendType {
	return r.backendType
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		switch p.Type() {
		case pipeline.PipelineTypeCompute:
			if err := r.backend.RegisterComputePipeline(p); err != nil {
				return fmt.Errorf("failed to register pipeline %q: %w", key, err)
			}
		default:
			return fmt.Errorf("pipeline %q has unsupported type %d", key, p.Type())
		}
		r.pipelineCache[key] = p
	}
	return nil
}

func (r *renderer) CreateTexture(desc texture.Descriptor) (texture.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	desc = desc.Normalized()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextTextureID++
	t, err := r.backend.CreateTexture(r.nextTextureID, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}
	r.textures[t.ID()] = t
	return t, nil
}

func (r *renderer) ReleaseTexture(t texture.Texture) {
	if t == nil || t.Released() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.ReleaseTexture(t)
	delete(r.textures, t.ID())
}

func (r *renderer) LiveTextures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.textures)
}

func (r *renderer) InitBindGroup(provider bind_group_provider.BindGroupProvider, descriptor wgpu.BindGroupLayoutDescriptor, bufferUsageOverrides map[int]wgpu.BufferUsage, bufferSizeOverrides map[int]uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.InitBindGroup(provider, descriptor, bufferUsageOverrides, bufferSizeOverrides)
}

func (r *renderer) WriteBuffers(writes []bind_group_provider.BufferWrite) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, w := range writes {
		w.Provider.SetBufferData(w.Binding, w.Offset, w.Data)
	}
	r.backend.WriteBuffers(writes)
}

func (r *renderer) BeginComputeFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.BeginComputeFrame()
}

func (r *renderer) EndComputeFrame() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.EndComputeFrame()
}

func (r *renderer) DispatchCompute(pipelineKey string, provider bind_group_provider.BindGroupProvider, workGroupCount [3]uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.pipelineCache[pipelineKey]
	if !exists {
		return fmt.Errorf("%w: %q", ErrUnknownPipeline, pipelineKey)
	}
	if err := r.backend.DispatchCompute(p, provider, workGroupCount); err != nil {
		return err
	}
	r.dispatches.Add(1)
	return nil
}

func (r *renderer) ReadTexture(t texture.Texture) ([]float32, error) {
	if t == nil {
		return nil, errors.New("cannot read a nil texture")
	}
	if t.Released() {
		return nil, ErrTextureReleased
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.backend.ReadTexture(t)
}

func (r *renderer) DispatchCount() uint64 {
	return r.dispatches.Load()
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.textures {
		r.backend.ReleaseTexture(t)
		delete(r.textures, id)
	}
	for key, p := range r.pipelineCache {
		p.Release()
		delete(r.pipelineCache, key)
	}
	r.backend.Release()
}
