package material

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// GPUNoiseParamsSource is the canonical WGSL definition of the NoiseParams struct.
// Matches GPUNoiseParams layout exactly (32 bytes, uniform aligned).
//
//go:embed assets/noise_params.wgsl
var GPUNoiseParamsSource string

// GPUNoiseParams is the GPU-aligned uniform read by the Worley noise compute kernels.
// Matches the WGSL NoiseParams struct layout exactly (see GPUNoiseParamsSource).
// Size: 32 bytes (three u32, two f32, three f32 padding).
type GPUNoiseParams struct {
	TextureWidth  uint32     // offset 0: output width in texels (4 bytes)
	TextureHeight uint32     // offset 4: output height in texels (4 bytes)
	TextureDepth  uint32     // offset 8: output depth in texels, 1 for 2D kernels (4 bytes)
	CellSize      float32    // offset 12: Worley cell edge length in texels (4 bytes)
	Seed          float32    // offset 16: feature point hash seed (4 bytes)
	_             [3]float32 // offset 20: padding to 32 bytes (12 bytes)
}

// Size returns the size of the GPUNoiseParams struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUNoiseParams) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUNoiseParams struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 32-byte buffer ready for GPU upload.
func (g *GPUNoiseParams) Marshal() []byte {
	buf := make([]byte, 32)
	binary.LittleEndian.PutUint32(buf[0:4], g.TextureWidth)
	binary.LittleEndian.PutUint32(buf[4:8], g.TextureHeight)
	binary.LittleEndian.PutUint32(buf[8:12], g.TextureDepth)
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.CellSize))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Seed))
	// bytes 20-32: padding, left zeroed
	return buf
}

// UnmarshalGPUNoiseParams decodes a buffer produced by Marshal. The software backend uses it
// to read the kernel uniform from a bind group's host mirror.
//
// Parameters:
//   - buf: the uniform buffer contents
//
// Returns:
//   - GPUNoiseParams: the decoded parameters
//   - error: an error if buf is shorter than 20 bytes
func UnmarshalGPUNoiseParams(buf []byte) (GPUNoiseParams, error) {
	if len(buf) < 20 {
		return GPUNoiseParams{}, fmt.Errorf("noise params buffer too short: %d bytes", len(buf))
	}
	return GPUNoiseParams{
		TextureWidth:  binary.LittleEndian.Uint32(buf[0:4]),
		TextureHeight: binary.LittleEndian.Uint32(buf[4:8]),
		TextureDepth:  binary.LittleEndian.Uint32(buf[8:12]),
		CellSize:      math.Float32frombits(binary.LittleEndian.Uint32(buf[12:16])),
		Seed:          math.Float32frombits(binary.LittleEndian.Uint32(buf[16:20])),
	}, nil
}
