// Package noise generates tileable Worley noise textures on the GPU. A VolumeGenerator produces
// a 3D volume for the volumetric cloud material and a TextureGenerator produces a 2D texture that
// can be exported to an image file. Both drive a compute kernel through the renderer and own the
// texture they produce.
package noise

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
)

//go:embed assets/worley3d.wgsl
var worley3DSource string

//go:embed assets/worley2d.wgsl
var worley2DSource string

const (
	// PipelineKeyWorley3D is the pipeline key of the 3D Worley kernel.
	PipelineKeyWorley3D = "worley3d"

	// PipelineKeyWorley2D is the pipeline key of the 2D Worley kernel.
	PipelineKeyWorley2D = "worley2d"

	// OutputVarName is the name of the kernel's writable output texture.
	OutputVarName = "Result"

	// ParamsVarName is the fallback name of the kernel's uniform parameter block.
	ParamsVarName = "params"

	// PropertyVolumeTexture is the material property the 3D volume is bound to.
	PropertyVolumeTexture = "_VolumeTex"

	// PropertyMainTexture is the material property the 2D texture is bound to.
	PropertyMainTexture = "_MainTex"

	// PropertySlice is the preview material property selecting a normalized volume depth.
	PropertySlice = "_Slice"
)

// ErrNoTexture is returned by operations that need a generated texture when none exists.
var ErrNoTexture = errors.New("no texture has been generated")

// KernelParams are the generator inputs forwarded to the noise kernel.
type KernelParams struct {
	// Width, Height and Depth are the texture extents in texels. Depth is ignored in 2D.
	Width, Height, Depth uint32
	// CellSize is the Worley cell edge length in texels.
	CellSize float32
	// Seed offsets the feature point hash.
	Seed float32
}

// DefaultVolumeParams returns the default 3D generator parameters: a 64³ volume with 8 texel cells.
func DefaultVolumeParams() KernelParams {
	return KernelParams{Width: 64, Height: 64, Depth: 64, CellSize: 8}
}

// DefaultTextureParams returns the default 2D generator parameters: a 256² texture with 8 texel cells.
func DefaultTextureParams() KernelParams {
	return KernelParams{Width: 256, Height: 256, Depth: 1, CellSize: 8}
}

// DispatchGroups returns the number of workgroups needed to cover a texture, one invocation per
// texel: ceil(extent / workgroupSize) on every axis.
//
// Parameters:
//   - desc: the texture descriptor
//   - workgroupSize: the kernel's @workgroup_size
//
// Returns:
//   - [3]uint32: the workgroup counts in x, y and z
func DispatchGroups(desc texture.Descriptor, workgroupSize [3]uint32) [3]uint32 {
	desc = desc.Normalized()
	return [3]uint32{
		common.CeilDiv(desc.Width, workgroupSize[0]),
		common.CeilDiv(desc.Height, workgroupSize[1]),
		common.CeilDiv(desc.Depth, workgroupSize[2]),
	}
}

// NewWorley3DPipeline reflects the bundled 3D Worley kernel into a compute pipeline keyed
// PipelineKeyWorley3D. It must be registered with a renderer before use.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the kernel fails to reflect
func NewWorley3DPipeline() (pipeline.Pipeline, error) {
	return newKernelPipeline(PipelineKeyWorley3D, worley3DSource)
}

// NewWorley2DPipeline reflects the bundled 2D Worley kernel into a compute pipeline keyed
// PipelineKeyWorley2D. It must be registered with a renderer before use.
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the kernel fails to reflect
func NewWorley2DPipeline() (pipeline.Pipeline, error) {
	return newKernelPipeline(PipelineKeyWorley2D, worley2DSource)
}

// NewKernelPipelineFromPath reflects a user supplied WGSL kernel that honors the noise kernel
// contract: entry point CSMain, a NoiseParams uniform and a writable Result storage texture.
//
// Parameters:
//   - key: the pipeline key
//   - path: the WGSL file to load
//
// Returns:
//   - pipeline.Pipeline: the unregistered pipeline
//   - error: an error if the file cannot be read or does not honor the contract
func NewKernelPipelineFromPath(key, path string) (pipeline.Pipeline, error) {
	s, err := shader.NewShaderFromPath(key, path)
	if err != nil {
		return nil, err
	}
	if err := checkKernelContract(s); err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(key, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(s),
		pipeline.WithLabel(key+" Noise Kernel"),
	), nil
}

// RegisterBuiltinKernels reflects both bundled kernels and registers them with the renderer.
//
// Parameters:
//   - r: the renderer to register with
//
// Returns:
//   - error: an error if reflection or registration fails
func RegisterBuiltinKernels(r renderer.Renderer) error {
	p3, err := NewWorley3DPipeline()
	if err != nil {
		return err
	}
	p2, err := NewWorley2DPipeline()
	if err != nil {
		return err
	}
	if err := r.RegisterPipelines(p3, p2); err != nil {
		return fmt.Errorf("failed to register noise kernels: %w", err)
	}
	return nil
}

func newKernelPipeline(key, source string) (pipeline.Pipeline, error) {
	s, err := shader.NewShader(key, source)
	if err != nil {
		return nil, err
	}
	if err := checkKernelContract(s); err != nil {
		return nil, err
	}
	return pipeline.NewPipeline(key, pipeline.PipelineTypeCompute,
		pipeline.WithComputeShader(s),
		pipeline.WithLabel(key+" Noise Kernel"),
	), nil
}

// kernelBindings locates the uniform and output bindings of a noise kernel.
type kernelBindings struct {
	group  int
	params int
	output int
}

// resolveKernelBindings finds the NoiseParams uniform (by annotation, then by name) and the
// Result output (by name, then by provider annotation). Both must share a group.
func resolveKernelBindings(s shader.Shader) (kernelBindings, error) {
	kb := kernelBindings{group: -1, params: -1, output: -1}

	if g, b, ok := s.DeclaredBinding(shader.AnnotationArgNoiseParams); ok {
		kb.group, kb.params = g, b
	}
	if g, b, ok := s.DeclaredBinding(shader.AnnotationArgNoiseOutput); ok {
		if kb.group < 0 {
			kb.group = g
		}
		if g == kb.group {
			kb.output = b
		}
	}
	if kb.group < 0 {
		kb.group = 0
	}
	if b, ok := s.BindGroupFromVarName(kb.group, OutputVarName); ok {
		kb.output = b
	}
	if kb.params < 0 {
		if b, ok := s.BindGroupFromVarName(kb.group, ParamsVarName); ok {
			kb.params = b
		}
	}

	switch {
	case kb.params < 0:
		return kb, fmt.Errorf("kernel %s has no NoiseParams uniform in group %d", s.Key(), kb.group)
	case kb.output < 0:
		return kb, fmt.Errorf("kernel %s has no %s output in group %d", s.Key(), OutputVarName, kb.group)
	}
	return kb, nil
}

func checkKernelContract(s shader.Shader) error {
	_, err := resolveKernelBindings(s)
	return err
}
