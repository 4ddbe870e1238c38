package material

import (
	"maps"
	"slices"
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/engine/renderer/texture"
)

// PropertyKind identifies the type of value stored under a shader property name.
type PropertyKind int

const (
	PropertyFloat PropertyKind = iota
	PropertyInt
	PropertyVector
	PropertyTexture
)

// propertySet is a thread-safe map of shader property names to typed values. It backs both
// Material and PropertyBlock. A name holds exactly one value; setting it with a different
// type replaces the previous value.
type propertySet struct {
	mu       sync.RWMutex
	floats   map[string]float32
	ints     map[string]int32
	vectors  map[string][4]float32
	textures map[string]texture.Texture
	kinds    map[string]PropertyKind
	version  uint64
}

func newPropertySet() *propertySet {
	return &propertySet{
		floats:   make(map[string]float32),
		ints:     make(map[string]int32),
		vectors:  make(map[string][4]float32),
		textures: make(map[string]texture.Texture),
		kinds:    make(map[string]PropertyKind),
	}
}

// forget removes name from every typed map. Callers must hold the write lock.
func (s *propertySet) forget(name string) {
	delete(s.floats, name)
	delete(s.ints, name)
	delete(s.vectors, name)
	delete(s.textures, name)
	delete(s.kinds, name)
}

func (s *propertySet) setFloat(name string, v float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(name)
	s.floats[name] = v
	s.kinds[name] = PropertyFloat
	s.version++
}

func (s *propertySet) setInt(name string, v int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(name)
	s.ints[name] = v
	s.kinds[name] = PropertyInt
	s.version++
}

func (s *propertySet) setVector(name string, v [4]float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(name)
	s.vectors[name] = v
	s.kinds[name] = PropertyVector
	s.version++
}

func (s *propertySet) setTexture(name string, t texture.Texture) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forget(name)
	if t != nil {
		s.textures[name] = t
		s.kinds[name] = PropertyTexture
	}
	s.version++
}

func (s *propertySet) float(name string) (float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.floats[name]
	return v, ok
}

func (s *propertySet) int(name string) (int32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.ints[name]
	return v, ok
}

func (s *propertySet) vector(name string) ([4]float32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vectors[name]
	return v, ok
}

func (s *propertySet) texture(name string) (texture.Texture, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.textures[name]
	return v, ok
}

func (s *propertySet) kind(name string) (PropertyKind, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	k, ok := s.kinds[name]
	return k, ok
}

func (s *propertySet) names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.kinds))
}

func (s *propertySet) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.floats)
	clear(s.ints)
	clear(s.vectors)
	clear(s.textures)
	clear(s.kinds)
	s.version++
}

func (s *propertySet) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.kinds)
}

func (s *propertySet) revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}
