package scene

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingComponent struct {
	name    string
	log     *[]string
	initErr error
}

func (c *recordingComponent) Initialize() error {
	*c.log = append(*c.log, c.name+".init")
	return c.initErr
}
func (c *recordingComponent) OnParameterChanged()         { *c.log = append(*c.log, c.name+".changed") }
func (c *recordingComponent) Tick(deltaTime float32)      { *c.log = append(*c.log, c.name+".tick") }
func (c *recordingComponent) FixedTick(deltaTime float32) { *c.log = append(*c.log, c.name+".fixed") }
func (c *recordingComponent) Shutdown()                   { *c.log = append(*c.log, c.name+".shutdown") }

func TestSceneLifecycleOrder(t *testing.T) {
	var calls []string
	a := &recordingComponent{name: "a", log: &calls}
	b := &recordingComponent{name: "b", log: &calls}
	s := NewScene("clouds", WithComponents(a, nil, b))

	assert.Equal(t, "clouds", s.Name())
	assert.True(t, s.Active())
	assert.Equal(t, 2, s.Count())

	require.NoError(t, s.Initialize())
	s.Tick(0.016)
	s.FixedTick(0.02)
	s.OnParameterChanged()
	s.Shutdown()

	assert.Equal(t, []string{
		"a.init", "b.init",
		"a.tick", "b.tick",
		"a.fixed", "b.fixed",
		"a.changed", "b.changed",
		"b.shutdown", "a.shutdown",
	}, calls)
}

func TestSceneInitializeJoinsErrors(t *testing.T) {
	var calls []string
	errA := errors.New("no adapter")
	errB := errors.New("bad kernel")
	s := NewScene("broken", WithComponents(
		&recordingComponent{name: "a", log: &calls, initErr: errA},
		&recordingComponent{name: "b", log: &calls},
		&recordingComponent{name: "c", log: &calls, initErr: errB},
	))

	err := s.Initialize()
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "scene broken")
	assert.Equal(t, []string{"a.init", "b.init", "c.init"}, calls)
}

func TestSceneAddAfterInitialize(t *testing.T) {
	var calls []string
	s := NewScene("late")
	require.NoError(t, s.Add(&recordingComponent{name: "early", log: &calls}))
	assert.Empty(t, calls)

	require.NoError(t, s.Initialize())
	failing := &recordingComponent{name: "late", log: &calls, initErr: errors.New("boom")}
	err := s.Add(failing)
	require.Error(t, err)
	assert.Equal(t, []string{"early.init", "late.init"}, calls)
	assert.Equal(t, 2, s.Count())
	assert.NoError(t, s.Add(nil))
}

func TestSceneRemove(t *testing.T) {
	var calls []string
	a := &recordingComponent{name: "a", log: &calls}
	b := &recordingComponent{name: "b", log: &calls}
	s := NewScene("remove", WithComponents(a, b), WithActive(false))
	assert.False(t, s.Active())

	assert.True(t, s.Remove(a))
	assert.False(t, s.Remove(a))
	assert.Equal(t, []string{"a.shutdown"}, calls)
	assert.Equal(t, []Component{b}, s.Components())

	s.SetActive(true)
	s.SetName("renamed")
	assert.True(t, s.Active())
	assert.Equal(t, "renamed", s.Name())
	assert.Nil(t, s.Renderer())
}
