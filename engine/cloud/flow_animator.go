package cloud

import (
	"github.com/Carmen-Shannon/oxy-clouds/common"
	"github.com/chewxy/math32"
)

// fallbackDirection is used when the base direction itself has no length.
var fallbackDirection = [3]float32{1, 0, 0}

// FlowAnimator produces a periodically wobbling unit flow direction around a base direction.
// The offset added to the base is (sin(phase), cos(0.7*phase), sin(1.3*phase)) scaled by the
// change amount, with phase advancing by 2*pi every period.
type FlowAnimator struct {
	base    [3]float32
	timer   float32
	current [3]float32
}

// NewFlowAnimator creates an animator around base with its timer at zero.
//
// Parameters:
//   - base: the direction the animation oscillates around
//
// Returns:
//   - *FlowAnimator: the new animator
func NewFlowAnimator(base [3]float32) *FlowAnimator {
	a := &FlowAnimator{}
	a.Reset(base)
	return a
}

// Reset replaces the base direction and restarts the timer.
//
// Parameters:
//   - base: the new base direction
func (a *FlowAnimator) Reset(base [3]float32) {
	a.base = base
	a.timer = 0
	if n, ok := common.Normalize3(base); ok {
		a.current = n
	} else {
		a.current = fallbackDirection
	}
}

// Rebase replaces the base direction and keeps the timer, so the oscillation phase carries on
// around the new base.
//
// Parameters:
//   - base: the new base direction
func (a *FlowAnimator) Rebase(base [3]float32) {
	timer := a.timer
	a.Reset(base)
	a.timer = timer
}

// Advance moves the timer forward by dt and returns the new unit direction. A non-positive
// period is treated as 1 second. If base plus offset has no length the previous direction
// is kept.
//
// Parameters:
//   - dt: elapsed time in seconds
//   - period: seconds per full oscillation
//   - amount: offset magnitude per axis
//
// Returns:
//   - [3]float32: the unit flow direction
func (a *FlowAnimator) Advance(dt, period, amount float32) [3]float32 {
	if period <= 0 || math32.IsNaN(period) {
		period = 1
	}
	a.timer += dt
	phase := a.timer / period * 2 * math32.Pi

	dir := [3]float32{
		a.base[0] + math32.Sin(phase)*amount,
		a.base[1] + math32.Cos(phase*0.7)*amount,
		a.base[2] + math32.Sin(phase*1.3)*amount,
	}
	if n, ok := common.Normalize3(dir); ok {
		a.current = n
	}
	return a.current
}

// Direction returns the most recent unit direction.
func (a *FlowAnimator) Direction() [3]float32 {
	return a.current
}

// Base returns the direction the animation oscillates around.
func (a *FlowAnimator) Base() [3]float32 {
	return a.base
}

// Timer returns the accumulated animation time in seconds.
func (a *FlowAnimator) Timer() float32 {
	return a.timer
}
