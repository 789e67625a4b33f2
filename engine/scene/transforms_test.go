package scene

import (
	m "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/math"
)

const worldTolerance = 1e-5

func assertTranslation(t *testing.T, want math.Vec3, got math.Mat4) {
	t.Helper()
	tr := got.Translation()
	assert.InDelta(t, want.X, tr.X, worldTolerance)
	assert.InDelta(t, want.Y, tr.Y, worldTolerance)
	assert.InDelta(t, want.Z, tr.Z, worldTolerance)
}

func worldOf(t *testing.T, w *World, e Entity) math.Mat4 {
	t.Helper()
	m4, err := w.WorldTransform(e)
	require.NoError(t, err)
	return m4
}

func dirtySet(w *World) map[uint32]bool {
	set := make(map[uint32]bool)
	for _, id := range w.GloballyModified() {
		set[id] = true
	}
	return set
}

func TestPropagateParentChild(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.SetLocalTransform(child, math.TransformFromPosition(math.NewVec3(0, 1, 0))))

	require.NoError(t, w.Propagate())

	assertTranslation(t, math.NewVec3(1, 0, 0), worldOf(t, w, parent))
	assertTranslation(t, math.NewVec3(1, 1, 0), worldOf(t, w, child))

	set := dirtySet(w)
	assert.True(t, set[parent.Index])
	assert.True(t, set[child.Index])
}

func TestPropagateParentEditDirtiesSubtree(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()
	grandchild := w.CreateEntity()
	bystander := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))
	require.NoError(t, w.SetParent(grandchild, child))
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.SetLocalTransform(child, math.TransformFromPosition(math.NewVec3(0, 1, 0))))
	require.NoError(t, w.SetLocalTransform(grandchild, math.TransformFromPosition(math.NewVec3(0, 0, 1))))
	require.NoError(t, w.SetLocalTransform(bystander, math.TransformFromPosition(math.NewVec3(9, 9, 9))))
	require.NoError(t, w.Propagate())

	// Only the parent moves; the whole subtree must recompute, the bystander must not.
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromPosition(math.NewVec3(2, 0, 0))))
	require.NoError(t, w.Propagate())

	set := dirtySet(w)
	assert.True(t, set[parent.Index])
	assert.True(t, set[child.Index])
	assert.True(t, set[grandchild.Index])
	assert.False(t, set[bystander.Index])

	assertTranslation(t, math.NewVec3(2, 1, 0), worldOf(t, w, child))
	assertTranslation(t, math.NewVec3(2, 1, 1), worldOf(t, w, grandchild))
}

func TestPropagateQuietTickIsEmpty(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, w.SetLocalTransform(e, math.TransformFromPosition(math.NewVec3(1, 2, 3))))
	require.NoError(t, w.Propagate())
	require.NotEmpty(t, w.GloballyModified())

	require.NoError(t, w.Propagate())
	assert.Empty(t, w.GloballyModified())
	assertTranslation(t, math.NewVec3(1, 2, 3), worldOf(t, w, e))
}

func TestPropagateRotatedParent(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))

	rot := math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), math.K_HALF_PI, true)
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromRotation(rot)))
	require.NoError(t, w.SetLocalTransform(child, math.TransformFromPosition(math.NewVec3(0, 0, 1))))
	require.NoError(t, w.Propagate())

	// +Z in the child's frame lands on +X after the parent's 90 degree yaw.
	assertTranslation(t, math.NewVec3(1, 0, 0), worldOf(t, w, child))
}

func TestRemoveParentRecomputesAsRoot(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))
	require.NoError(t, w.SetLocalTransform(parent, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.SetLocalTransform(child, math.TransformFromPosition(math.NewVec3(0, 1, 0))))
	require.NoError(t, w.Propagate())
	assertTranslation(t, math.NewVec3(1, 1, 0), worldOf(t, w, child))

	require.NoError(t, w.RemoveParent(child))
	require.NoError(t, w.Propagate())

	assertTranslation(t, math.NewVec3(0, 1, 0), worldOf(t, w, child))
	assert.True(t, dirtySet(w)[child.Index])
}

func TestReparentRecomputesUnderNewParent(t *testing.T) {
	w := newTestWorld(t)
	first := w.CreateEntity()
	second := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetLocalTransform(first, math.TransformFromPosition(math.NewVec3(1, 0, 0))))
	require.NoError(t, w.SetLocalTransform(second, math.TransformFromPosition(math.NewVec3(0, 0, 5))))
	require.NoError(t, w.SetLocalTransform(child, math.TransformFromPosition(math.NewVec3(0, 1, 0))))
	require.NoError(t, w.SetParent(child, first))
	require.NoError(t, w.Propagate())
	assertTranslation(t, math.NewVec3(1, 1, 0), worldOf(t, w, child))

	require.NoError(t, w.SetParent(child, second))
	require.NoError(t, w.Propagate())
	assertTranslation(t, math.NewVec3(0, 1, 5), worldOf(t, w, child))
}

func TestSetLocalTransformRejectsNonFinite(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, w.SetLocalTransform(e, math.TransformFromPosition(math.NewVec3(1, 2, 3))))
	require.NoError(t, w.Propagate())

	bad := math.TransformFromPosition(math.NewVec3(float32(m.NaN()), 0, 0))
	assert.ErrorIs(t, w.SetLocalTransform(e, bad), ErrNonFiniteTransform)

	// the stored local is untouched
	local, err := w.LocalTransform(e)
	require.NoError(t, err)
	assert.Equal(t, float32(1), local.Position.X)
	require.NoError(t, w.Propagate())
	assertTranslation(t, math.NewVec3(1, 2, 3), worldOf(t, w, e))
}

func TestPropagateRejectsOverflowingComposition(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))

	// Each local is finite on its own but their product overflows float32.
	huge := math.TransformFromPositionRotationScale(math.NewVec3(0, 0, 0), math.NewQuatIdentity(), math.NewVec3(3e38, 1, 1))
	require.NoError(t, w.SetLocalTransform(parent, huge))
	require.NoError(t, w.SetLocalTransform(child, huge))

	assert.ErrorIs(t, w.Propagate(), ErrNonFiniteTransform)
}
