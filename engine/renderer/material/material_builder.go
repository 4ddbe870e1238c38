package material

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithPipelineKey is an option builder that sets the pipeline key of the material.
//
// Parameters:
//   - key: the pipeline key
//
// Returns:
//   - MaterialBuilderOption: a function that applies the pipeline key option to a material
func WithPipelineKey(key string) MaterialBuilderOption {
	return func(m *material) {
		m.pipelineKey = key
	}
}

// WithFloat is an option builder that seeds a float property on the material.
//
// Parameters:
//   - name: the shader property name
//   - v: the initial value
//
// Returns:
//   - MaterialBuilderOption: a function that seeds the property
func WithFloat(name string, v float32) MaterialBuilderOption {
	return func(m *material) {
		m.props.setFloat(name, v)
	}
}

// WithVector is an option builder that seeds a vector property on the material.
//
// Parameters:
//   - name: the shader property name
//   - v: the initial value
//
// Returns:
//   - MaterialBuilderOption: a function that seeds the property
func WithVector(name string, v [4]float32) MaterialBuilderOption {
	return func(m *material) {
		m.props.setVector(name, v)
	}
}
