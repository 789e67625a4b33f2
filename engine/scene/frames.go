package scene

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/containers"
	"github.com/spaghettifunk/ombra/engine/core"
)

// frameDirty keeps one dirty entity-index set and one dirty mesh-id set
// per frame-in-flight slot. A single logical change is broadcast into
// every slot, because each frame keeps its own GPU-visible copy of the
// data and every copy must be refreshed once before its dirty bits are
// cleared.
type frameDirty struct {
	entities []*containers.Bitset
	meshes   []*containers.Bitset
	current  uint32
	frames   uint32
}

func newFrameDirty(frames uint32) (*frameDirty, error) {
	if frames == 0 {
		err := fmt.Errorf("frames in flight must be positive")
		core.LogError(err.Error())
		return nil, err
	}
	fd := &frameDirty{
		entities: make([]*containers.Bitset, frames),
		meshes:   make([]*containers.Bitset, frames),
		frames:   frames,
	}
	for i := uint32(0); i < frames; i++ {
		fd.entities[i] = containers.NewBitset(64)
		fd.meshes[i] = containers.NewBitset(8)
	}
	return fd, nil
}

// markEntity broadcasts an entity change into every frame slot.
func (fd *frameDirty) markEntity(index uint32) {
	for _, set := range fd.entities {
		set.Set(index)
	}
}

// markMesh broadcasts a mesh change into every frame slot.
func (fd *frameDirty) markMesh(mesh MeshID) {
	for _, set := range fd.meshes {
		set.Set(uint32(mesh))
	}
}

// TakeAndClear returns the accumulated dirty entity indices and mesh ids
// for the frame slot and clears them. The caller must invoke this exactly
// once per use of the slot, after the fence for that slot has signalled
// that its previous GPU read finished: taking the sets without rewriting
// the slot's buffer copy under-updates that copy on its next reuse.
func (w *World) TakeAndClear(slot uint32) ([]uint32, []MeshID, error) {
	fd := w.frames
	if slot >= fd.frames {
		err := fmt.Errorf("take and clear: frame slot %d out of range (%d in flight)", slot, fd.frames)
		core.LogError(err.Error())
		return nil, nil, err
	}

	entities := fd.entities[slot].ToSlice()
	fd.entities[slot].Clear()

	meshes := make([]MeshID, 0, fd.meshes[slot].Count())
	fd.meshes[slot].Range(func(id uint32) bool {
		meshes = append(meshes, MeshID(id))
		return true
	})
	fd.meshes[slot].Clear()

	return entities, meshes, nil
}

// CurrentFrameSlot returns the frame slot the next buffer refresh should
// target. It matches the renderer's frame-in-flight index.
func (w *World) CurrentFrameSlot() uint32 {
	return w.frames.current
}

// AdvanceFrame moves the current frame slot pointer round-robin. Called
// once per tick, after the renderer consumed the current slot.
func (w *World) AdvanceFrame() {
	w.frames.current = (w.frames.current + 1) % w.frames.frames
}

// FramesInFlight returns the fixed number of frame slots.
func (w *World) FramesInFlight() uint32 {
	return w.frames.frames
}
