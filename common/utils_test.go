package common

import (
	"math"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	assert.Equal(t, "b", Coalesce("", "b", "c"))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, 3, Coalesce(0, 3))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 1, Clamp(-4, 1, 5))
	assert.Equal(t, 5, Clamp(9, 1, 5))
	assert.Equal(t, float32(0.5), Clamp(float32(0.5), 0, 1))
	assert.Equal(t, float32(0.1), Clamp(math32.NaN(), 0.1, 1))
	assert.Equal(t, 2.0, Clamp(math.NaN(), 2, 3))
	assert.Equal(t, float32(1), Clamp(math32.Inf(1), 0, 1))
}

func TestRectContains(t *testing.T) {
	r := Rect{X: 10, Y: 10, Width: 100, Height: 100}
	assert.True(t, r.Contains(10, 10))
	assert.True(t, r.Contains(109.9, 50))
	assert.False(t, r.Contains(110, 50))
	assert.False(t, r.Contains(9, 50))
}
