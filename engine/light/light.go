package light

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-clouds/common"
)

// lightImpl is the implementation of the Light interface.
type lightImpl struct {
	mu sync.RWMutex

	direction [3]float32
	color     [3]float32
	intensity float32
	enabled   bool
}

// Light defines a directional light source such as the sun or moon. It has no position,
// only a unit direction, and affects every fragment uniformly with no distance attenuation.
// Safe for concurrent use; the orbit synchronizer writes it on the fixed tick while
// consumers read it on the frame tick.
type Light interface {
	// Direction returns the normalized direction the light travels in.
	//
	// Returns:
	//   - [3]float32: normalized direction as (x, y, z)
	Direction() [3]float32

	// Color returns the RGB color of the light.
	//
	// Returns:
	//   - [3]float32: color as (r, g, b)
	Color() [3]float32

	// Intensity returns the scalar intensity multiplier for the light.
	//
	// Returns:
	//   - float32: the intensity value
	Intensity() float32

	// Enabled returns whether this light contributes to shading.
	//
	// Returns:
	//   - bool: true if the light is enabled
	Enabled() bool

	// SetDirection sets the direction of the light and normalizes it. A zero or
	// non-finite vector is ignored and the previous direction is kept.
	//
	// Parameters:
	//   - d: direction components (will be normalized)
	SetDirection(d [3]float32)

	// SetColor sets the RGB color of the light.
	//
	// Parameters:
	//   - c: color components
	SetColor(c [3]float32)

	// SetIntensity sets the scalar intensity multiplier.
	//
	// Parameters:
	//   - intensity: the intensity value
	SetIntensity(intensity float32)

	// SetEnabled enables or disables the light.
	//
	// Parameters:
	//   - enabled: true to enable
	SetEnabled(enabled bool)
}

var _ Light = &lightImpl{}

// NewLight creates a new directional Light pointing straight down, white, at unit
// intensity, with any provided options applied.
//
// Parameters:
//   - opts: variadic list of LightBuilderOption functions to configure the light
//
// Returns:
//   - Light: a new Light instance
func NewLight(opts ...LightBuilderOption) Light {
	l := &lightImpl{
		direction: [3]float32{0, -1, 0},
		color:     [3]float32{1, 1, 1},
		intensity: 1.0,
		enabled:   true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *lightImpl) Direction() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.direction
}

func (l *lightImpl) Color() [3]float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.color
}

func (l *lightImpl) Intensity() float32 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.intensity
}

func (l *lightImpl) Enabled() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.enabled
}

func (l *lightImpl) SetDirection(d [3]float32) {
	n, ok := common.Normalize3(d)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.direction = n
}

func (l *lightImpl) SetColor(c [3]float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.color = c
}

func (l *lightImpl) SetIntensity(intensity float32) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.intensity = intensity
}

func (l *lightImpl) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}
