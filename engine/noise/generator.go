package noise

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/bind_group_provider"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
)

// generator is the state shared by the 2D and 3D generators. It owns at most one texture and
// the bind group that writes it; every generation releases both before allocating again.
type generator struct {
	mu  sync.Mutex
	tag string

	r           renderer.Renderer
	pipelineKey string
	dimension   texture.Dimension
	params      KernelParams

	mat          material.Material
	propertyName string

	autoRecompute bool
	pending       atomic.Bool
	generations   atomic.Uint64

	tex      texture.Texture
	provider bind_group_provider.BindGroupProvider
}

func (g *generator) descriptor() texture.Descriptor {
	return texture.Descriptor{
		Label:          g.tag + " Texture",
		Dimension:      g.dimension,
		Width:          g.params.Width,
		Height:         g.params.Height,
		Depth:          g.params.Depth,
		Format:         texture.FormatRGBA32Float,
		StorageBinding: true,
		WrapMode:       texture.WrapRepeat,
		FilterMode:     texture.FilterBilinear,
	}.Normalized()
}

func (g *generator) generate() (texture.Texture, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.r == nil || g.pipelineKey == "" {
		log.Printf("[%s] no compute kernel configured, skipping generation", g.tag)
		return nil, nil
	}
	p := g.r.Pipeline(g.pipelineKey)
	if p == nil || p.ComputeShader() == nil {
		log.Printf("[%s] no compute kernel configured, skipping generation", g.tag)
		return nil, nil
	}
	s := p.ComputeShader()
	kb, err := resolveKernelBindings(s)
	if err != nil {
		return nil, err
	}

	desc := g.descriptor()
	if err := desc.Validate(); err != nil {
		return nil, fmt.Errorf("failed to allocate noise texture: %w", err)
	}

	g.releaseLocked()

	tex, err := g.r.CreateTexture(desc)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate noise texture: %w", err)
	}

	provider := bind_group_provider.NewBindGroupProvider(g.tag,
		bind_group_provider.WithGroup(kb.group),
		bind_group_provider.WithTexture(kb.output, tex),
	)
	fail := func(err error) (texture.Texture, error) {
		provider.Release()
		g.r.ReleaseTexture(tex)
		return nil, err
	}

	if err := g.r.InitBindGroup(provider, s.BindGroupLayoutDescriptor(kb.group), nil, nil); err != nil {
		return fail(fmt.Errorf("failed to init noise bind group: %w", err))
	}

	params := material.GPUNoiseParams{
		TextureWidth:  desc.Width,
		TextureHeight: desc.Height,
		TextureDepth:  desc.Depth,
		CellSize:      g.params.CellSize,
		Seed:          g.params.Seed,
	}
	g.r.WriteBuffers([]bind_group_provider.BufferWrite{{
		Provider: provider,
		Binding:  kb.params,
		Offset:   0,
		Data:     params.Marshal(),
	}})

	groups := DispatchGroups(desc, s.WorkgroupSize())
	if err := g.r.BeginComputeFrame(); err != nil {
		return fail(err)
	}
	if err := g.r.DispatchCompute(g.pipelineKey, provider, groups); err != nil {
		// close the frame so the renderer is usable for the next generation
		_ = g.r.EndComputeFrame()
		return fail(err)
	}
	if err := g.r.EndComputeFrame(); err != nil {
		return fail(err)
	}

	g.tex = tex
	g.provider = provider
	g.generations.Add(1)

	if g.mat != nil {
		g.mat.SetTexture(g.propertyName, tex)
	}
	return tex, nil
}

// releaseLocked frees the owned texture and bind group, unbinding the texture from the material
// if it is still bound there. The caller holds g.mu.
func (g *generator) releaseLocked() {
	if g.mat != nil && g.tex != nil {
		if bound, ok := g.mat.Texture(g.propertyName); ok && bound == g.tex {
			g.mat.SetTexture(g.propertyName, nil)
		}
	}
	if g.provider != nil {
		g.provider.Release()
		g.provider = nil
	}
	if g.tex != nil {
		g.r.ReleaseTexture(g.tex)
		g.tex = nil
	}
}

func (g *generator) release() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.releaseLocked()
}

func (g *generator) texture() texture.Texture {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tex
}

func (g *generator) setParams(p KernelParams) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dimension == texture.Dimension2D {
		p.Depth = 1
	}
	g.params = p
}

func (g *generator) getParams() KernelParams {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.params
}

// readTexels reads the owned texture back to host memory while holding the generation lock,
// so no generation can release the texture mid-read.
func (g *generator) readTexels() ([]float32, texture.Descriptor, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.tex == nil {
		return nil, texture.Descriptor{}, ErrNoTexture
	}
	texels, err := g.r.ReadTexture(g.tex)
	if err != nil {
		return nil, texture.Descriptor{}, err
	}
	return texels, g.tex.Descriptor(), nil
}

func (g *generator) initialize() error {
	_, err := g.generate()
	if err != nil {
		log.Printf("[%s] generation failed: %v", g.tag, err)
	}
	return err
}

func (g *generator) onParameterChanged() {
	if !g.autoRecompute {
		return
	}
	if _, err := g.generate(); err != nil {
		log.Printf("[%s] generation failed: %v", g.tag, err)
	}
}

func (g *generator) tick() {
	if !g.pending.CompareAndSwap(true, false) {
		return
	}
	if _, err := g.generate(); err != nil {
		log.Printf("[%s] generation failed: %v", g.tag, err)
	}
}
