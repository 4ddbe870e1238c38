package pipeline

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
)

// PipelineType identifies the kind of work a pipeline performs.
type PipelineType int

const (
	// PipelineTypeCompute indicates a compute pipeline with a single compute shader entry point.
	PipelineTypeCompute PipelineType = iota
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	mu sync.RWMutex

	// pipelineType indicates the type of pipeline this is
	pipelineType PipelineType
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string
	// label is the debug label applied to backend objects; defaults to the pipeline key
	label string

	// computeShader is required before the pipeline can be registered with a renderer.
	computeShader shader.Shader

	// computePipeline is set by the wgpu backend after registration, nil on other backends
	computePipeline *wgpu.ComputePipeline
	// pipelineLayout is the layout the compute pipeline was created with
	pipelineLayout *wgpu.PipelineLayout
	// bindGroupLayouts are created per group during registration, keyed by group index
	bindGroupLayouts map[int]*wgpu.BindGroupLayout
}

// Pipeline defines the interface for a GPU compute pipeline. It pairs a reflected compute
// shader with the backend objects created for it during renderer registration.
type Pipeline interface {
	// Type returns the type of the pipeline
	//
	// Returns:
	//   - PipelineType: the type of the pipeline
	Type() PipelineType

	// PipelineKey returns the unique key associated with this pipeline, used for caching and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Label returns the debug label for backend objects created for this pipeline.
	//
	// Returns:
	//   - string: the label
	Label() string

	// ComputeShader retrieves the compute shader, or nil if none was set.
	//
	// Returns:
	//   - shader.Shader: the compute shader
	ComputeShader() shader.Shader

	// ComputePipeline returns the wgpu compute pipeline, or nil before wgpu registration.
	//
	// Returns:
	//   - *wgpu.ComputePipeline: the compute pipeline
	ComputePipeline() *wgpu.ComputePipeline

	// BindGroupLayout returns the wgpu layout created for a group, or nil.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - *wgpu.BindGroupLayout: the layout
	BindGroupLayout(group int) *wgpu.BindGroupLayout

	// SetComputePipeline stores the backend objects created during registration.
	//
	// Parameters:
	//   - p: the compute pipeline
	//   - layout: the pipeline layout
	//   - groups: bind group layouts keyed by group index
	SetComputePipeline(p *wgpu.ComputePipeline, layout *wgpu.PipelineLayout, groups map[int]*wgpu.BindGroupLayout)

	// Release frees the backend objects held by the pipeline.
	Release()
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline interface. A PipelineType must be specified and provided upon creation.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - pipelineType: the type of pipeline to create
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified type and configuration
func NewPipeline(pipelineKey string, pipelineType PipelineType, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:      pipelineKey,
		pipelineType:     pipelineType,
		label:            pipelineKey,
		bindGroupLayouts: make(map[int]*wgpu.BindGroupLayout),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) Type() PipelineType {
	return p.pipelineType
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Label() string {
	return p.label
}

func (p *pipeline) ComputeShader() shader.Shader {
	return p.computeShader
}

func (p *pipeline) ComputePipeline() *wgpu.ComputePipeline {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.computePipeline
}

func (p *pipeline) BindGroupLayout(group int) *wgpu.BindGroupLayout {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.bindGroupLayouts[group]
}

func (p *pipeline) SetComputePipeline(cp *wgpu.ComputePipeline, layout *wgpu.PipelineLayout, groups map[int]*wgpu.BindGroupLayout) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.computePipeline = cp
	p.pipelineLayout = layout
	if groups != nil {
		p.bindGroupLayouts = groups
	}
}

func (p *pipeline) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.computePipeline != nil {
		p.computePipeline.Release()
		p.computePipeline = nil
	}
	if p.pipelineLayout != nil {
		p.pipelineLayout.Release()
		p.pipelineLayout = nil
	}
	for g, l := range p.bindGroupLayouts {
		if l != nil {
			l.Release()
		}
		delete(p.bindGroupLayouts, g)
	}
}
