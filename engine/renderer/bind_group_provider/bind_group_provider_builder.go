package bind_group_provider

import "github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"

// BindGroupProviderOption is a functional option used to configure a BindGroupProvider during construction.
type BindGroupProviderOption func(*bindGroupProvider)

// WithGroup sets the bind group index for this provider.
//
// Parameters:
//   - group: the @group index declared in the shader
//
// Returns:
//   - BindGroupProviderOption: a function that sets the group index for this provider
func WithGroup(group int) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		p.group = group
	}
}

// WithTexture binds a renderer texture at a specific binding index.
//
// Parameters:
//   - binding: the binding index for this texture
//   - t: the texture to associate with this binding
//
// Returns:
//   - BindGroupProviderOption: a function that binds the texture at the specified binding
func WithTexture(binding int, t texture.Texture) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		if t != nil {
			p.textures[binding] = t
		}
	}
}

// WithBufferData seeds the host mirror of a buffer binding.
//
// Parameters:
//   - binding: the binding index for this buffer
//   - data: the initial buffer contents
//
// Returns:
//   - BindGroupProviderOption: a function that seeds the buffer data for the specified binding
func WithBufferData(binding int, data []byte) BindGroupProviderOption {
	return func(p *bindGroupProvider) {
		buf := make([]byte, len(data))
		copy(buf, data)
		p.bufferData[binding] = buf
	}
}
