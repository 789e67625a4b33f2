package scene

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/ombra/engine/containers"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
)

/**
 * @brief Configuration for a scene world. FramesInFlight must match the
 * renderer's frame-in-flight count; it is fixed for the world's lifetime.
 */
type WorldConfig struct {
	FramesInFlight uint32
}

// World owns the entity allocator, the transform hierarchy, the mesh
// instance registry and the per-frame dirty tracking. All mutation is
// expected to happen on a single goroutine: one tick applies edits, runs
// propagation, reacts to membership changes and hands the current frame's
// dirty sets to the renderer, in that order.
type World struct {
	ID uuid.UUID

	// entity allocator
	generations []uint32
	freeList    []uint32

	// local transforms
	locals        []math.Transform
	hasLocal      *containers.Bitset
	localModified *containers.Bitset

	// derived world matrices, owned by the propagator
	worlds         []math.Mat4
	hasWorld       *containers.Bitset
	globalModified *containers.Bitset

	// hierarchy edges
	parents   []Entity
	hasParent *containers.Bitset
	children  [][]uint32

	registry *meshInstanceRegistry
	frames   *frameDirty
}

// NewWorld creates an empty world with the given number of frame slots.
func NewWorld(config WorldConfig) (*World, error) {
	frames, err := newFrameDirty(config.FramesInFlight)
	if err != nil {
		return nil, err
	}

	w := &World{
		ID:             uuid.New(),
		hasLocal:       containers.NewBitset(64),
		localModified:  containers.NewBitset(64),
		hasWorld:       containers.NewBitset(64),
		globalModified: containers.NewBitset(64),
		hasParent:      containers.NewBitset(64),
		frames:         frames,
		registry:       newMeshInstanceRegistry(frames),
	}

	core.LogDebug("world %s created with %d frames in flight", w.ID, config.FramesInFlight)
	return w, nil
}

// Update runs the per-tick derivation steps: propagate local edits into
// world transforms, then mark every moved entity that carries a mesh
// membership as dirty in all frame slots so each in-flight buffer copy
// rewrites its transform entry. External edits (set local, set parent,
// attach/detach mesh) must already have been applied this tick.
//
// A fatal error (non-finite derived transform) aborts the tick and is
// surfaced to the caller; nothing is retried internally.
func (w *World) Update() error {
	if err := w.Propagate(); err != nil {
		return fmt.Errorf("world update: %w", err)
	}

	w.globalModified.Range(func(index uint32) bool {
		if w.registry.hasInstance.Has(index) {
			w.frames.markEntity(index)
		}
		return true
	})
	return nil
}

// PrimitiveCount returns the total number of primitives across all
// registered meshes, in registration order. This is the planner's P.
func (w *World) PrimitiveCount() int {
	total := 0
	for _, def := range w.registry.defs {
		total += len(def.Primitives)
	}
	return total
}

// MeshCapacities returns each mesh's fixed instance capacity in MeshID
// order. This is the planner's per-mesh capacity vector.
func (w *World) MeshCapacities() []uint32 {
	caps := make([]uint32, len(w.registry.defs))
	for i, def := range w.registry.defs {
		caps[i] = def.MaxInstances
	}
	return caps
}
