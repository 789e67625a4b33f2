package scene

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
)

// SetLocalTransform records a new local transform for the entity and
// marks it modified. Non-finite values are rejected up front so NaN/Inf
// never enters the propagation pass; on error the store is unchanged.
func (w *World) SetLocalTransform(e Entity, t math.Transform) error {
	if !w.Alive(e) {
		err := fmt.Errorf("set local transform: %s: %w", e, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}
	if !t.IsFinite() {
		err := fmt.Errorf("set local transform: %s: %w", e, ErrNonFiniteTransform)
		core.LogError(err.Error())
		return err
	}

	w.locals[e.Index] = t
	w.hasLocal.Set(e.Index)
	w.localModified.Set(e.Index)
	return nil
}

// LocalTransform returns the entity's local transform.
func (w *World) LocalTransform(e Entity) (math.Transform, error) {
	if !w.Alive(e) {
		return math.Transform{}, fmt.Errorf("local transform: %s: %w", e, ErrDeadEntity)
	}
	if !w.hasLocal.Has(e.Index) {
		return math.TransformCreate(), nil
	}
	return w.locals[e.Index], nil
}

// WorldTransform returns the entity's world matrix as of the last
// propagation.
func (w *World) WorldTransform(e Entity) (math.Mat4, error) {
	if !w.Alive(e) {
		return math.Mat4{}, fmt.Errorf("world transform: %s: %w", e, ErrDeadEntity)
	}
	if !w.hasWorld.Has(e.Index) {
		return math.NewMat4Identity(), nil
	}
	return w.worlds[e.Index], nil
}

// WorldTransformAt is the index-keyed lookup used when consuming dirty
// sets. An index with no live entity or no derived matrix resolves to
// nothing.
func (w *World) WorldTransformAt(index uint32) (math.Mat4, bool) {
	if index >= uint32(len(w.worlds)) || !w.hasWorld.Has(index) {
		return math.Mat4{}, false
	}
	return w.worlds[index], true
}

// HasWorldTransform reports whether the entity's world matrix has been
// computed by a propagation pass.
func (w *World) HasWorldTransform(e Entity) bool {
	return w.Alive(e) && w.hasWorld.Has(e.Index)
}

// Propagate recomputes world transforms for every entity whose local
// transform changed, whose hierarchy edge changed, or whose parent's
// world transform changed this tick. Parents are always visited before
// their children. The set of recomputed entities is kept until the next
// call so the tick driver can feed it into the frame dirty tracker.
func (w *World) Propagate() error {
	// Entities with a local transform but no derived world matrix yet
	// are always included on their first tick.
	w.hasLocal.Range(func(index uint32) bool {
		if !w.hasWorld.Has(index) {
			w.localModified.Set(index)
		}
		return true
	})

	w.globalModified.Clear()

	// Roots: recompute from the local transform alone.
	var rootErr error
	w.hasLocal.Range(func(index uint32) bool {
		if w.hasParent.Has(index) {
			return true
		}
		if !w.localModified.Has(index) {
			return true
		}
		world := w.locals[index].Matrix()
		if !world.IsFinite() {
			rootErr = fmt.Errorf("propagate: root entity index %d: %w", index, ErrNonFiniteTransform)
			return false
		}
		w.worlds[index] = world
		w.hasWorld.Set(index)
		w.globalModified.Set(index)
		return true
	})
	if rootErr != nil {
		core.LogError(rootErr.Error())
		return rootErr
	}

	// Parented entities, parent before child. An entity recomputes when
	// its own local changed or its parent's world changed this tick.
	var walkErr error
	w.walkHierarchy(func(index uint32) {
		if walkErr != nil || !w.hasLocal.Has(index) {
			return
		}
		parent := w.parents[index].Index
		if !w.localModified.Has(index) && !w.globalModified.Has(parent) {
			return
		}

		world := w.locals[index].Matrix()
		if w.hasWorld.Has(parent) {
			world = world.Mul(w.worlds[parent])
		}
		if !world.IsFinite() {
			walkErr = fmt.Errorf("propagate: entity index %d: %w", index, ErrNonFiniteTransform)
			return
		}
		w.worlds[index] = world
		w.hasWorld.Set(index)
		w.globalModified.Set(index)
	})
	if walkErr != nil {
		core.LogError(walkErr.Error())
		return walkErr
	}

	w.localModified.Clear()
	return nil
}

// GloballyModified returns the indices of entities whose world transform
// was recomputed by the last Propagate call, in ascending order.
func (w *World) GloballyModified() []uint32 {
	return w.globalModified.ToSlice()
}
