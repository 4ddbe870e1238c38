package renderer

import (
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/pipeline"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithPipeline pre-registers a single Pipeline in the renderer's pipeline cache under the given key.
// Pipelines added this way skip backend registration and are only useful with backends that
// need no pipeline objects.
//
// Parameters:
//   - key: the unique identifier for the pipeline
//   - p: the Pipeline to cache
//
// Returns:
//   - RendererBuilderOption: a function that applies the pipeline option to a renderer
func WithPipeline(key string, p pipeline.Pipeline) RendererBuilderOption {
	return func(r *renderer) {
		r.pipelineCache[key] = p
	}
}

// WithForceSoftwareRenderer forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force software renderer option to a renderer
func WithForceSoftwareRenderer(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithDeviceLabel sets the debug label of the WebGPU device.
//
// Parameters:
//   - label: the device label
//
// Returns:
//   - RendererBuilderOption: a function that applies the label to a renderer
func WithDeviceLabel(label string) RendererBuilderOption {
	return func(r *renderer) {
		r.deviceLabel = label
	}
}

// WithSoftwareKernel registers the Go kernel the software backend runs for a pipeline key.
//
// Parameters:
//   - pipelineKey: the key of the compute pipeline the kernel implements
//   - kernel: the kernel function
//
// Returns:
//   - RendererBuilderOption: a function that registers the kernel on a renderer
func WithSoftwareKernel(pipelineKey string, kernel SoftwareKernel) RendererBuilderOption {
	return func(r *renderer) {
		r.softwareKernels[pipelineKey] = kernel
	}
}

// WithSoftwareKernels registers several software kernels at once.
//
// Parameters:
//   - kernels: kernels keyed by pipeline key
//
// Returns:
//   - RendererBuilderOption: a function that registers the kernels on a renderer
func WithSoftwareKernels(kernels map[string]SoftwareKernel) RendererBuilderOption {
	return func(r *renderer) {
		for k, fn := range kernels {
			r.softwareKernels[k] = fn
		}
	}
}

// WithSoftwareWorkers sets the number of worker goroutines the software backend runs
// workgroups on. Values below 1 use runtime.NumCPU().
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count to a renderer
func WithSoftwareWorkers(n int) RendererBuilderOption {
	return func(r *renderer) {
		r.softwareWorkers = n
	}
}
