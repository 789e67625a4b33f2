package scene

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/core"
)

// SetParent attaches `child` under `parent`, replacing any previous edge.
// The relation graph stays acyclic and single-parent: assigning a parent
// that is a descendant of the child is rejected with ErrCyclicParent and
// the hierarchy is left untouched.
func (w *World) SetParent(child, parent Entity) error {
	if !w.Alive(child) {
		err := fmt.Errorf("set parent: child %s: %w", child, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}
	if !w.Alive(parent) {
		err := fmt.Errorf("set parent: parent %s: %w", parent, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}
	if child.Index == parent.Index {
		err := fmt.Errorf("set parent: %s onto itself: %w", child, ErrCyclicParent)
		core.LogError(err.Error())
		return err
	}

	// Walk the ancestor chain from the new parent; reaching the child
	// means the edge would close a loop.
	for cursor := parent.Index; w.hasParent.Has(cursor); {
		cursor = w.parents[cursor].Index
		if cursor == child.Index {
			err := fmt.Errorf("set parent: %s is a descendant of %s: %w", parent, child, ErrCyclicParent)
			core.LogError(err.Error())
			return err
		}
	}

	w.removeParentEdge(child.Index)
	w.parents[child.Index] = parent
	w.hasParent.Set(child.Index)
	w.children[parent.Index] = append(w.children[parent.Index], child.Index)

	// Hierarchy changed: the child's subtree re-derives on the next
	// propagation (descendants follow via the parent-dirty rule).
	w.localModified.Set(child.Index)
	return nil
}

// RemoveParent detaches the entity from its parent, making it a root.
// Its stale world transform is recomputed from the local transform on the
// next propagation instead of being reused. Removing from an entity that
// has no parent is a no-op.
func (w *World) RemoveParent(child Entity) error {
	if !w.Alive(child) {
		err := fmt.Errorf("remove parent: %s: %w", child, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}
	if !w.hasParent.Has(child.Index) {
		return nil
	}

	w.removeParentEdge(child.Index)
	w.localModified.Set(child.Index)
	return nil
}

// Parent returns the entity's parent handle, if it has one.
func (w *World) Parent(e Entity) (Entity, bool) {
	if !w.Alive(e) || !w.hasParent.Has(e.Index) {
		return Entity{}, false
	}
	return w.parents[e.Index], true
}

// Children returns the indices of the entity's direct children.
func (w *World) Children(e Entity) []uint32 {
	if !w.Alive(e) {
		return nil
	}
	out := make([]uint32, len(w.children[e.Index]))
	copy(out, w.children[e.Index])
	return out
}

// removeParentEdge unlinks the index from its parent's child list and
// clears the edge. Does not record a hierarchy event.
func (w *World) removeParentEdge(index uint32) {
	if !w.hasParent.Has(index) {
		return
	}
	parentIndex := w.parents[index].Index
	siblings := w.children[parentIndex]
	for i, c := range siblings {
		if c == index {
			w.children[parentIndex] = append(siblings[:i], siblings[i+1:]...)
			break
		}
	}
	w.parents[index] = Entity{}
	w.hasParent.Unset(index)
}

// detachChildren turns every direct child of the index into a root and
// marks it for re-derivation, as if its parent edge had been removed.
func (w *World) detachChildren(index uint32) {
	for _, c := range w.children[index] {
		w.parents[c] = Entity{}
		w.hasParent.Unset(c)
		w.localModified.Set(c)
	}
	w.children[index] = nil
}

// walkHierarchy visits every entity that has a parent edge, in an order
// where each parent comes before all of its descendants. Roots themselves
// are not visited.
func (w *World) walkHierarchy(visit func(index uint32)) {
	stack := make([]uint32, 0, 16)

	// Seed with children of roots (live entities without a parent edge).
	for i := range w.generations {
		index := uint32(i)
		if w.hasParent.Has(index) {
			continue
		}
		for j := len(w.children[index]) - 1; j >= 0; j-- {
			stack = append(stack, w.children[index][j])
		}
	}

	// The acyclicity invariant guarantees no node is pushed twice.
	for len(stack) > 0 {
		index := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(index)
		for j := len(w.children[index]) - 1; j >= 0; j-- {
			stack = append(stack, w.children[index][j])
		}
	}
}
