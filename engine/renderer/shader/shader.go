package shader

import (
	"errors"
	"fmt"
	"os"

	"github.com/cogentcore/webgpu/wgpu"
)

// ErrNoEntryPoint is returned when a compute shader source has no @compute function.
var ErrNoEntryPoint = errors.New("shader has no @compute entry point")

// shader is the implementation of the Shader interface.
// It holds the pre-processed source and everything reflected from it.
type shader struct {
	key                        string
	source                     string
	bindings                   []Binding
	bindGroupLayoutDescriptors map[int]wgpu.BindGroupLayoutDescriptor
	workGroupSize              [3]uint32
	entryPoint                 string
	module                     *wgpu.ShaderModuleDescriptor
	declarations               []Annotation
}

// Shader defines the interface for a loaded and reflected WGSL compute shader. It exposes the
// shader's key, pre-processed source, entry point, workgroup size, and the bind group layouts
// and variable names needed to create pipelines and wire resources.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the pre-processed WGSL source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the @compute function name.
	//
	// Returns:
	//   - string: the entry point name (e.g. "CSMain")
	EntryPoint() string

	// WorkgroupSize returns the @workgroup_size dimensions, [1, 1, 1] when unspecified.
	//
	// Returns:
	//   - [3]uint32: the workgroup size as [x, y, z]
	WorkgroupSize() [3]uint32

	// Module returns the shader module descriptor built from the pre-processed source.
	//
	// Returns:
	//   - *wgpu.ShaderModuleDescriptor: the descriptor containing the WGSL code and label
	Module() *wgpu.ShaderModuleDescriptor

	// Bindings returns every reflected resource binding ordered by group and binding.
	//
	// Returns:
	//   - []Binding: the reflected bindings
	Bindings() []Binding

	// BindGroupLayoutDescriptor retrieves the layout descriptor for a group index.
	//
	// Parameters:
	//   - group: the bind group index
	//
	// Returns:
	//   - wgpu.BindGroupLayoutDescriptor: the descriptor, or an empty descriptor if the group is unused
	BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor

	// BindGroupLayoutDescriptors retrieves every layout descriptor keyed by group index.
	//
	// Returns:
	//   - map[int]wgpu.BindGroupLayoutDescriptor: descriptors keyed by group index
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor

	// BindGroupVarName retrieves the variable name declared at a group and binding.
	//
	// Parameters:
	//   - group: the bind group index
	//   - binding: the binding index within the group
	//
	// Returns:
	//   - string: the variable name, or an empty string if not found
	BindGroupVarName(group, binding int) string

	// BindGroupFromVarName retrieves the binding index of a variable within a group.
	//
	// Parameters:
	//   - group: the bind group index
	//   - varName: the variable name within the group
	//
	// Returns:
	//   - int: the binding index, or -1 if not found
	//   - bool: true if the variable name was found
	BindGroupFromVarName(group int, varName string) (int, bool)

	// Declarations returns the @oxy:group and @oxy:provider annotations found in the source.
	//
	// Returns:
	//   - []Annotation: the declarations in source order
	Declarations() []Annotation

	// DeclaredBinding finds the first declaration whose struct type (for group annotations) or
	// provider identity (for provider annotations) equals arg.
	//
	// Parameters:
	//   - arg: a struct type or provider identity argument
	//
	// Returns:
	//   - int: the group index
	//   - int: the binding index
	//   - bool: false if no declaration matches
	DeclaredBinding(arg AnnotationArg) (int, int, bool)
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects a WGSL compute shader.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - source: the raw WGSL source, which may contain @oxy: annotations
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if pre-processing fails or the source has no @compute entry point
func NewShader(key string, source string) (Shader, error) {
	pp := NewPreProcessor()
	processed, err := pp.Process(source)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to pre-process source: %w", key, err)
	}
	s := &shader{
		key:          key,
		source:       processed,
		declarations: append([]Annotation(nil), pp.Declarations()...),
		module: &wgpu.ShaderModuleDescriptor{
			Label:          key,
			WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: processed},
		},
	}
	s.entryPoint = parseEntryPoint(processed)
	if s.entryPoint == "" {
		return nil, fmt.Errorf("shader %s: %w", key, ErrNoEntryPoint)
	}
	s.workGroupSize = parseWorkgroupSize(processed)
	s.bindings = parseBindings(processed, wgpu.ShaderStageCompute)
	s.bindGroupLayoutDescriptors = layoutDescriptors(s.bindings)
	return s, nil
}

// NewShaderFromPath reads a WGSL file and passes it to NewShader.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - path: the file path to read WGSL source from
//
// Returns:
//   - Shader: the reflected shader
//   - error: an error if the file cannot be read or the shader is invalid
func NewShaderFromPath(key, path string) (Shader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, path, err)
	}
	return NewShader(key, string(data))
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) WorkgroupSize() [3]uint32 {
	return s.workGroupSize
}

func (s *shader) Module() *wgpu.ShaderModuleDescriptor {
	return s.module
}

func (s *shader) Bindings() []Binding {
	return s.bindings
}

func (s *shader) BindGroupLayoutDescriptor(group int) wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors[group]
}

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.bindGroupLayoutDescriptors
}

func (s *shader) BindGroupVarName(group, binding int) string {
	for _, b := range s.bindings {
		if b.Group == group && b.Binding == binding {
			return b.Name
		}
	}
	return ""
}

func (s *shader) BindGroupFromVarName(group int, varName string) (int, bool) {
	for _, b := range s.bindings {
		if b.Group == group && b.Name == varName {
			return b.Binding, true
		}
	}
	return -1, false
}

func (s *shader) Declarations() []Annotation {
	return s.declarations
}

func (s *shader) DeclaredBinding(arg AnnotationArg) (int, int, bool) {
	for _, d := range s.declarations {
		if d.Group == nil || d.Binding == nil {
			continue
		}
		switch d.Type {
		case AnnotationTypeBindingGroup:
			if len(d.Args) > 2 && d.Args[2] == arg {
				return *d.Group, *d.Binding, true
			}
		case AnnotationTypeProvider:
			if len(d.Args) > 0 && d.Args[0] == arg {
				return *d.Group, *d.Binding, true
			}
		}
	}
	return 0, 0, false
}
