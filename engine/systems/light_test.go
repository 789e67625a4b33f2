package systems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/scene"
)

func newLightWorld(t *testing.T) *scene.World {
	t.Helper()
	w, err := scene.NewWorld(scene.WorldConfig{FramesInFlight: 2})
	require.NoError(t, err)
	return w
}

func TestLightSystemGatherReportsWorldPositions(t *testing.T) {
	w := newLightWorld(t)
	ls, err := NewLightSystem(&LightSystemConfig{})
	require.NoError(t, err)

	e := w.CreateEntity()
	require.NoError(t, w.SetLocalTransform(e, math.TransformFromPosition(math.NewVec3(0, 8, 2))))
	require.NoError(t, ls.AddLight(e, 3.5, math.NewVec3(1, 0.9, 0.8)))
	require.NoError(t, w.Update())

	lights := ls.Gather(w)
	require.Len(t, lights, 1)
	assert.InDelta(t, 0.0, lights[0].Position.X, 1e-5)
	assert.InDelta(t, 8.0, lights[0].Position.Y, 1e-5)
	assert.InDelta(t, 2.0, lights[0].Position.Z, 1e-5)
	assert.InDelta(t, 3.5, lights[0].Intensity, 1e-6)
	assert.Equal(t, math.NewVec3(1, 0.9, 0.8), lights[0].Color)
}

func TestLightSystemGatherFollowsParentMotion(t *testing.T) {
	w := newLightWorld(t)
	ls, err := NewLightSystem(&LightSystemConfig{})
	require.NoError(t, err)

	pivot := w.CreateEntity()
	lamp := w.CreateEntity()
	require.NoError(t, w.SetParent(lamp, pivot))
	require.NoError(t, w.SetLocalTransform(lamp, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, ls.AddLight(lamp, 1, math.NewVec3One()))

	require.NoError(t, w.SetLocalTransform(pivot, math.TransformFromPosition(math.NewVec3(0, 4, 0))))
	require.NoError(t, w.Update())

	lights := ls.Gather(w)
	require.Len(t, lights, 1)
	assert.InDelta(t, 1.0, lights[0].Position.X, 1e-5)
	assert.InDelta(t, 4.0, lights[0].Position.Y, 1e-5)
}

func TestLightSystemPrunesDeadEntities(t *testing.T) {
	w := newLightWorld(t)
	ls, err := NewLightSystem(&LightSystemConfig{})
	require.NoError(t, err)

	e := w.CreateEntity()
	require.NoError(t, ls.AddLight(e, 1, math.NewVec3One()))
	require.NoError(t, w.DestroyEntity(e))
	require.NoError(t, w.Update())

	assert.Empty(t, ls.Gather(w))
	assert.Equal(t, 0, ls.Count())
}

func TestLightSystemRejectsDuplicates(t *testing.T) {
	w := newLightWorld(t)
	ls, err := NewLightSystem(&LightSystemConfig{})
	require.NoError(t, err)

	e := w.CreateEntity()
	require.NoError(t, ls.AddLight(e, 1, math.NewVec3One()))
	require.Error(t, ls.AddLight(e, 2, math.NewVec3One()))
}

func TestLightSystemEnforcesCapacity(t *testing.T) {
	w := newLightWorld(t)
	ls, err := NewLightSystem(&LightSystemConfig{MaxLightCount: 1})
	require.NoError(t, err)

	require.NoError(t, ls.AddLight(w.CreateEntity(), 1, math.NewVec3One()))
	require.Error(t, ls.AddLight(w.CreateEntity(), 1, math.NewVec3One()))
}

func TestLightSystemConfigCappedByUniformCapacity(t *testing.T) {
	_, err := NewLightSystem(&LightSystemConfig{MaxLightCount: uint16(metadata.MaxLights) + 1})
	require.Error(t, err)
}

func TestLightSystemResetClearsAll(t *testing.T) {
	w := newLightWorld(t)
	ls, err := NewLightSystem(&LightSystemConfig{})
	require.NoError(t, err)

	require.NoError(t, ls.AddLight(w.CreateEntity(), 1, math.NewVec3One()))
	require.NoError(t, ls.AddLight(w.CreateEntity(), 2, math.NewVec3One()))
	ls.Reset()
	assert.Equal(t, 0, ls.Count())
}
