package noise

import (
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
	"github.com/chewxy/math32"
)

// SoftwareKernels returns the CPU twins of the bundled kernels keyed by pipeline key, for use
// with renderer.WithSoftwareKernels.
func SoftwareKernels() map[string]renderer.SoftwareKernel {
	return map[string]renderer.SoftwareKernel{
		PipelineKeyWorley3D: worleyKernel(3),
		PipelineKeyWorley2D: worleyKernel(2),
	}
}

// worleyKernel evaluates one workgroup of the Worley kernel with the given dimensionality.
func worleyKernel(dims int) renderer.SoftwareKernel {
	return func(inv renderer.KernelInvocation) error {
		kb, err := resolveKernelBindings(inv.Shader)
		if err != nil {
			return err
		}
		params, err := material.UnmarshalGPUNoiseParams(inv.Provider.BufferData(kb.params))
		if err != nil {
			return fmt.Errorf("binding %d: %w", kb.params, err)
		}
		out, ok := inv.Provider.Texture(kb.output).(texture.HostTexture)
		if !ok {
			return fmt.Errorf("binding %d is not a host texture", kb.output)
		}
		desc := out.Descriptor()
		texels := out.Texels()

		depth := params.TextureDepth
		if dims == 2 {
			depth = 1
		}
		size := inv.WorkgroupSize
		for lz := range size[2] {
			for ly := range size[1] {
				for lx := range size[0] {
					id := inv.GlobalID(lx, ly, lz)
					if id[0] >= params.TextureWidth || id[1] >= params.TextureHeight || id[2] >= depth {
						continue
					}
					if id[0] >= desc.Width || id[1] >= desc.Height || id[2] >= desc.Depth {
						continue
					}
					var v float32
					if dims == 2 {
						v = Worley2D(id[0], id[1], params)
					} else {
						v = Worley3D(id[0], id[1], id[2], params)
					}
					i := texture.TexelIndex(desc, id[0], id[1], id[2])
					texels[i], texels[i+1], texels[i+2], texels[i+3] = v, v, v, 1
				}
			}
		}
		return nil
	}
}

// Worley3D returns the clamped F1 Worley distance at texel (x, y, z). Feature points are jittered
// per cell and the cell grid wraps, so a texture whose extents are multiples of the cell size tiles.
//
// Parameters:
//   - x, y, z: the texel coordinates
//   - p: the kernel parameters
//
// Returns:
//   - float32: the distance to the nearest feature point in cell units, clamped to [0, 1]
func Worley3D(x, y, z uint32, p material.GPUNoiseParams) float32 {
	cellSize := kernelCellSize(p.CellSize)
	cx := cellCount(p.TextureWidth, cellSize)
	cy := cellCount(p.TextureHeight, cellSize)
	cz := cellCount(p.TextureDepth, cellSize)
	seedHash := pcg(math.Float32bits(p.Seed))

	px := (float32(x) + 0.5) / cellSize
	py := (float32(y) + 0.5) / cellSize
	pz := (float32(z) + 0.5) / cellSize
	bx, by, bz := int32(math32.Floor(px)), int32(math32.Floor(py)), int32(math32.Floor(pz))

	f1 := float32(1e9)
	for dz := int32(-1); dz <= 1; dz++ {
		for dy := int32(-1); dy <= 1; dy++ {
			for dx := int32(-1); dx <= 1; dx++ {
				ix, iy, iz := bx+dx, by+dy, bz+dz
				h0 := pcg(wrapCell(ix, cx) + pcg(wrapCell(iy, cy)+pcg(wrapCell(iz, cz)+seedHash)))
				h1 := pcg(h0)
				h2 := pcg(h1)
				fx := float32(ix) + unitFloat(h0) - px
				fy := float32(iy) + unitFloat(h1) - py
				fz := float32(iz) + unitFloat(h2) - pz
				f1 = min(f1, math32.Sqrt(fx*fx+fy*fy+fz*fz))
			}
		}
	}
	return min(max(f1, 0), 1)
}

// Worley2D is the two-dimensional counterpart of Worley3D.
func Worley2D(x, y uint32, p material.GPUNoiseParams) float32 {
	cellSize := kernelCellSize(p.CellSize)
	cx := cellCount(p.TextureWidth, cellSize)
	cy := cellCount(p.TextureHeight, cellSize)
	seedHash := pcg(math.Float32bits(p.Seed))

	px := (float32(x) + 0.5) / cellSize
	py := (float32(y) + 0.5) / cellSize
	bx, by := int32(math32.Floor(px)), int32(math32.Floor(py))

	f1 := float32(1e9)
	for dy := int32(-1); dy <= 1; dy++ {
		for dx := int32(-1); dx <= 1; dx++ {
			ix, iy := bx+dx, by+dy
			h0 := pcg(wrapCell(ix, cx) + pcg(wrapCell(iy, cy)+seedHash))
			h1 := pcg(h0)
			fx := float32(ix) + unitFloat(h0) - px
			fy := float32(iy) + unitFloat(h1) - py
			f1 = min(f1, math32.Sqrt(fx*fx+fy*fy))
		}
	}
	return min(max(f1, 0), 1)
}

// pcg is the PCG integer hash shared with the WGSL kernels.
func pcg(v uint32) uint32 {
	state := v*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

func unitFloat(h uint32) float32 {
	return float32(h>>8) / 16777216.0
}

func wrapCell(c, n int32) uint32 {
	return uint32(((c % n) + n) % n)
}

func cellCount(extent uint32, cellSize float32) int32 {
	return max(1, int32(math32.Ceil(float32(extent)/cellSize)))
}

func kernelCellSize(cellSize float32) float32 {
	if cellSize <= 0 || math32.IsNaN(cellSize) {
		return 1
	}
	return cellSize
}
