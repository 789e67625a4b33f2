package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/ombra/engine/math"
)

func newTestWorld(t *testing.T) *World {
	t.Helper()
	w, err := NewWorld(WorldConfig{FramesInFlight: 2})
	require.NoError(t, err)
	return w
}

func TestSetParentAndQuery(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()

	require.NoError(t, w.SetParent(child, parent))

	got, ok := w.Parent(child)
	require.True(t, ok)
	assert.Equal(t, parent, got)
	assert.Equal(t, []uint32{child.Index}, w.Children(parent))
}

func TestSetParentRejectsDeadEntities(t *testing.T) {
	w := newTestWorld(t)
	a := w.CreateEntity()
	b := w.CreateEntity()
	require.NoError(t, w.DestroyEntity(b))

	assert.ErrorIs(t, w.SetParent(a, b), ErrDeadEntity)
	assert.ErrorIs(t, w.SetParent(b, a), ErrDeadEntity)

	_, ok := w.Parent(a)
	assert.False(t, ok)
}

func TestSetParentRejectsCycles(t *testing.T) {
	w := newTestWorld(t)
	a := w.CreateEntity()
	b := w.CreateEntity()
	c := w.CreateEntity()

	require.NoError(t, w.SetParent(b, a))
	require.NoError(t, w.SetParent(c, b))

	// a -> b -> c; parenting a under c must fail and change nothing.
	err := w.SetParent(a, c)
	assert.ErrorIs(t, err, ErrCyclicParent)

	_, ok := w.Parent(a)
	assert.False(t, ok, "a must remain a root")
	gotB, _ := w.Parent(b)
	assert.Equal(t, a, gotB)
	gotC, _ := w.Parent(c)
	assert.Equal(t, b, gotC)

	// Self-parenting is a degenerate cycle.
	assert.ErrorIs(t, w.SetParent(a, a), ErrCyclicParent)
}

func TestReparentReplacesEdge(t *testing.T) {
	w := newTestWorld(t)
	first := w.CreateEntity()
	second := w.CreateEntity()
	child := w.CreateEntity()

	require.NoError(t, w.SetParent(child, first))
	require.NoError(t, w.SetParent(child, second))

	got, ok := w.Parent(child)
	require.True(t, ok)
	assert.Equal(t, second, got)
	assert.Empty(t, w.Children(first))
	assert.Equal(t, []uint32{child.Index}, w.Children(second))
}

func TestRemoveParentMakesRoot(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	child := w.CreateEntity()
	require.NoError(t, w.SetParent(child, parent))

	require.NoError(t, w.RemoveParent(child))

	_, ok := w.Parent(child)
	assert.False(t, ok)
	assert.Empty(t, w.Children(parent))

	// removing again is a no-op
	require.NoError(t, w.RemoveParent(child))
}

func TestDestroyDetachesChildren(t *testing.T) {
	w := newTestWorld(t)
	parent := w.CreateEntity()
	childA := w.CreateEntity()
	childB := w.CreateEntity()
	require.NoError(t, w.SetParent(childA, parent))
	require.NoError(t, w.SetParent(childB, parent))
	require.NoError(t, w.SetLocalTransform(childA, math.TransformFromPosition(math.NewVec3(0, 1, 0))))

	require.NoError(t, w.DestroyEntity(parent))

	_, ok := w.Parent(childA)
	assert.False(t, ok)
	_, ok = w.Parent(childB)
	assert.False(t, ok)
	assert.False(t, w.Alive(parent))
}

func TestStaleHandleGoesDead(t *testing.T) {
	w := newTestWorld(t)
	e := w.CreateEntity()
	require.NoError(t, w.DestroyEntity(e))

	// the recycled index gets a new generation
	reborn := w.CreateEntity()
	assert.Equal(t, e.Index, reborn.Index)
	assert.NotEqual(t, e.Generation, reborn.Generation)

	assert.False(t, w.Alive(e))
	assert.True(t, w.Alive(reborn))
	assert.ErrorIs(t, w.SetLocalTransform(e, math.TransformCreate()), ErrDeadEntity)
	assert.ErrorIs(t, w.DestroyEntity(e), ErrDeadEntity)
}
