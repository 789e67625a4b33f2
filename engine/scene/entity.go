package scene

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
)

/**
 * @brief An opaque, stable handle to an entity. The generation counter
 * detects reuse of a recycled index, so a handle held across a destroy
 * goes stale instead of silently aliasing the new occupant.
 * The zero value is never a live entity.
 */
type Entity struct {
	Index      uint32
	Generation uint32
}

func (e Entity) String() string {
	return fmt.Sprintf("entity(%d:%d)", e.Index, e.Generation)
}

// CreateEntity allocates a new entity handle, reusing a recycled index
// when one is available.
func (w *World) CreateEntity() Entity {
	if n := len(w.freeList); n > 0 {
		index := w.freeList[n-1]
		w.freeList = w.freeList[:n-1]
		return Entity{Index: index, Generation: w.generations[index]}
	}

	index := uint32(len(w.generations))
	w.generations = append(w.generations, 1)
	w.ensureIndex(index)
	return Entity{Index: index, Generation: 1}
}

// DestroyEntity releases the entity and every component it owns. Its
// children are detached and become roots; their world transforms are
// recomputed from their locals on the next propagation.
func (w *World) DestroyEntity(e Entity) error {
	if !w.Alive(e) {
		err := fmt.Errorf("destroy %s: %w", e, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}

	if w.registry.hasInstance.Has(e.Index) {
		w.registry.detach(e.Index)
	}

	w.detachChildren(e.Index)
	w.removeParentEdge(e.Index)

	w.hasLocal.Unset(e.Index)
	w.hasWorld.Unset(e.Index)
	w.localModified.Unset(e.Index)
	w.globalModified.Unset(e.Index)

	w.generations[e.Index]++
	w.freeList = append(w.freeList, e.Index)
	return nil
}

// Alive reports whether the handle references a live entity.
func (w *World) Alive(e Entity) bool {
	return e.Generation != 0 &&
		e.Index < uint32(len(w.generations)) &&
		w.generations[e.Index] == e.Generation
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.generations) - len(w.freeList)
}

// ensureIndex grows the per-entity component arrays to hold `index`.
func (w *World) ensureIndex(index uint32) {
	for uint32(len(w.locals)) <= index {
		w.locals = append(w.locals, math.TransformCreate())
		w.worlds = append(w.worlds, math.NewMat4Identity())
		w.parents = append(w.parents, Entity{})
		w.children = append(w.children, nil)
	}
	w.registry.ensureIndex(index)
}
