package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/math"
)

func TestUpdateFeedsInstancedEntitiesToFrameSets(t *testing.T) {
	w := newTestWorld(t)
	mesh := registerTestMesh(t, w, "crate", 4)

	instanced := w.CreateEntity()
	bare := w.CreateEntity()
	require.NoError(t, w.AttachMesh(instanced, mesh))
	drainFrames(t, w)

	require.NoError(t, w.SetLocalTransform(instanced, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.SetLocalTransform(bare, math.TransformFromPosition(math.NewVec3(2, 0, 0))))
	require.NoError(t, w.Update())

	// Both recomputed, but only the instanced one reaches the renderer sets.
	set := dirtySet(w)
	assert.True(t, set[instanced.Index])
	assert.True(t, set[bare.Index])

	for slot := uint32(0); slot < w.FramesInFlight(); slot++ {
		entities, _, err := w.TakeAndClear(slot)
		require.NoError(t, err)
		assert.Contains(t, entities, instanced.Index)
		assert.NotContains(t, entities, bare.Index)
	}
}

func TestUpdateMarksDescendantsOfMovedParent(t *testing.T) {
	w := newTestWorld(t)
	mesh := registerTestMesh(t, w, "crate", 4)

	parent := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.SetLocalTransform(child, math.TransformFromPosition(math.NewVec3(0, 1, 0))))
	require.NoError(t, w.AttachMesh(parent, mesh))
	require.NoError(t, w.AttachMesh(child, mesh))
	require.NoError(t, w.Update())
	drainFrames(t, w)

	// Moving only the parent must surface the child too.
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromPosition(math.NewVec3(5, 0, 0))))
	require.NoError(t, w.Update())

	entities, _, err := w.TakeAndClear(0)
	require.NoError(t, err)
	assert.Contains(t, entities, parent.Index)
	assert.Contains(t, entities, child.Index)
	assertTranslation(t, math.NewVec3(5, 1, 0), worldOf(t, w, child))
}

func TestQuietTickProducesNoMarks(t *testing.T) {
	w := newTestWorld(t)
	mesh := registerTestMesh(t, w, "crate", 4)
	e := w.CreateEntity()
	require.NoError(t, w.SetLocalTransform(e, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.AttachMesh(e, mesh))
	require.NoError(t, w.Update())
	drainFrames(t, w)

	require.NoError(t, w.Update())
	for slot := uint32(0); slot < w.FramesInFlight(); slot++ {
		entities, meshes, err := w.TakeAndClear(slot)
		require.NoError(t, err)
		assert.Empty(t, entities)
		assert.Empty(t, meshes)
	}
}

// A dirty index whose entity was destroyed before consumption simply has
// no instance anymore; consumers resolve indices through the registry
// and skip it.
func TestStaleDirtyIndexResolvesToNothing(t *testing.T) {
	w := newTestWorld(t)
	mesh := registerTestMesh(t, w, "crate", 4)
	e := w.CreateEntity()
	require.NoError(t, w.SetLocalTransform(e, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.AttachMesh(e, mesh))
	require.NoError(t, w.Update())

	require.NoError(t, w.DestroyEntity(e))

	entities, _, err := w.TakeAndClear(0)
	require.NoError(t, err)
	require.Contains(t, entities, e.Index)
	_, _, ok := w.InstanceAt(e.Index)
	assert.False(t, ok)
}

func TestPlannerInputs(t *testing.T) {
	w := newTestWorld(t)
	stone := w.RegisterMaterial("stone")
	wood := w.RegisterMaterial("wood")

	_, err := w.RegisterMesh(MeshDefinition{Name: "bench", MaxInstances: 4,
		Primitives: []PrimitiveDef{{Material: stone, IndexCount: 24}, {Material: wood, IndexCount: 12}}})
	require.NoError(t, err)
	_, err = w.RegisterMesh(MeshDefinition{Name: "stool", MaxInstances: 8,
		Primitives: []PrimitiveDef{{Material: wood, IndexCount: 18}}})
	require.NoError(t, err)

	assert.Equal(t, 3, w.PrimitiveCount())
	assert.Equal(t, []uint32{4, 8}, w.MeshCapacities())
}
