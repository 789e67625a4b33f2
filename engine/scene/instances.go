package scene

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/containers"
	"github.com/spaghettifunk/ombra/engine/core"
)

// MeshID identifies a mesh definition registered with the world.
type MeshID uint16

// MaterialID identifies an interned material name.
type MaterialID uint16

// PrimitiveDef binds one primitive of a mesh to a material. The index
// count feeds the indirect draw command for that primitive.
type PrimitiveDef struct {
	Material   MaterialID
	IndexCount uint32
}

// MeshDefinition describes a mesh at load time. Immutable once
// registered; in particular MaxInstances fixes the mesh's slot capacity
// for the lifetime of the scene.
type MeshDefinition struct {
	Name         string
	MaxInstances uint32
	Primitives   []PrimitiveDef
}

// meshInstanceRegistry maps each (mesh, dense slot) pair to exactly one
// owning entity. Slots for a mesh are always the contiguous range
// [0, count), which is what makes a single indirect instance count valid
// for a draw call. It also keeps a per-material index of owning entities
// for draw batching.
type meshInstanceRegistry struct {
	defs   []MeshDefinition
	counts []uint32

	// entity indices per mesh and per material
	meshEntities     []*containers.Bitset
	materialEntities []*containers.Bitset
	materialNames    []string

	// per entity index
	meshOf      []MeshID
	slotOf      []uint32
	hasInstance *containers.Bitset

	frames *frameDirty
}

func newMeshInstanceRegistry(frames *frameDirty) *meshInstanceRegistry {
	return &meshInstanceRegistry{
		hasInstance: containers.NewBitset(0),
		frames:      frames,
	}
}

func (r *meshInstanceRegistry) ensureIndex(index uint32) {
	for uint32(len(r.meshOf)) <= index {
		r.meshOf = append(r.meshOf, 0)
		r.slotOf = append(r.slotOf, 0)
	}
}

// RegisterMaterial interns a material name and returns its id. Calling
// it again with the same name returns the existing id.
func (w *World) RegisterMaterial(name string) MaterialID {
	r := w.registry
	for i, n := range r.materialNames {
		if n == name {
			return MaterialID(i)
		}
	}
	r.materialNames = append(r.materialNames, name)
	r.materialEntities = append(r.materialEntities, containers.NewBitset(0))
	return MaterialID(len(r.materialNames) - 1)
}

// RegisterMesh records a mesh definition and reserves its fixed instance
// capacity. Definitions are immutable after registration.
func (w *World) RegisterMesh(def MeshDefinition) (MeshID, error) {
	r := w.registry
	if def.MaxInstances == 0 {
		err := fmt.Errorf("register mesh %q: max instances must be positive", def.Name)
		core.LogError(err.Error())
		return 0, err
	}
	if len(def.Primitives) == 0 {
		err := fmt.Errorf("register mesh %q: at least one primitive is required", def.Name)
		core.LogError(err.Error())
		return 0, err
	}
	for _, p := range def.Primitives {
		if int(p.Material) >= len(r.materialNames) {
			err := fmt.Errorf("register mesh %q: unknown material id %d", def.Name, p.Material)
			core.LogError(err.Error())
			return 0, err
		}
	}

	r.defs = append(r.defs, def)
	r.counts = append(r.counts, 0)
	r.meshEntities = append(r.meshEntities, containers.NewBitset(def.MaxInstances))
	return MeshID(len(r.defs) - 1), nil
}

// AttachMesh gives the entity a mesh membership and the next free dense
// slot. When the mesh's fixed capacity is exhausted this fails with
// ErrCapacityExceeded and nothing is mutated: the reference policy is to
// halt rather than grow, evict or corrupt the slot table. The entity and
// mesh are marked dirty in every frame-in-flight slot.
func (w *World) AttachMesh(e Entity, mesh MeshID) error {
	r := w.registry
	if !w.Alive(e) {
		err := fmt.Errorf("attach mesh: %s: %w", e, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}
	if int(mesh) >= len(r.defs) {
		err := fmt.Errorf("attach mesh: unknown mesh id %d", mesh)
		core.LogError(err.Error())
		return err
	}
	if r.hasInstance.Has(e.Index) && r.meshOf[e.Index] == mesh {
		return nil
	}
	if r.counts[mesh] >= r.defs[mesh].MaxInstances {
		err := fmt.Errorf("attach mesh: mesh %q is at its fixed capacity %d: %w",
			r.defs[mesh].Name, r.defs[mesh].MaxInstances, ErrCapacityExceeded)
		core.LogError(err.Error())
		return err
	}

	// Re-attaching to a different mesh releases the old slot first.
	if r.hasInstance.Has(e.Index) {
		r.detach(e.Index)
	}

	slot := r.counts[mesh]
	r.meshOf[e.Index] = mesh
	r.slotOf[e.Index] = slot
	r.hasInstance.Set(e.Index)
	r.meshEntities[mesh].Set(e.Index)
	for _, p := range r.defs[mesh].Primitives {
		r.materialEntities[p.Material].Set(e.Index)
	}
	r.counts[mesh]++

	r.frames.markEntity(e.Index)
	r.frames.markMesh(mesh)
	return nil
}

// DetachMesh removes the entity's mesh membership and compacts the slot
// range. Detaching an entity without a membership is a no-op.
func (w *World) DetachMesh(e Entity) error {
	if !w.Alive(e) {
		err := fmt.Errorf("detach mesh: %s: %w", e, ErrDeadEntity)
		core.LogError(err.Error())
		return err
	}
	if !w.registry.hasInstance.Has(e.Index) {
		return nil
	}
	w.registry.detach(e.Index)
	return nil
}

// detach reclaims the slot held by the entity index. Every other entity
// of the same mesh occupying a higher slot shifts down by one so the
// range stays dense and 0-based; each shifted entity is marked dirty in
// every frame slot, as is the mesh itself (its indirect instance count
// changed).
func (r *meshInstanceRegistry) detach(index uint32) {
	mesh := r.meshOf[index]
	removedSlot := r.slotOf[index]

	r.hasInstance.Unset(index)
	r.meshEntities[mesh].Unset(index)
	for _, p := range r.defs[mesh].Primitives {
		r.materialEntities[p.Material].Unset(index)
	}
	r.counts[mesh]--

	// Single compaction pass over the mesh's remaining entities.
	r.meshEntities[mesh].Range(func(other uint32) bool {
		if r.slotOf[other] > removedSlot {
			r.slotOf[other]--
			r.frames.markEntity(other)
		}
		return true
	})

	r.frames.markMesh(mesh)
}

// InstanceOf returns the entity's mesh membership and dense slot.
func (w *World) InstanceOf(e Entity) (MeshID, uint32, bool) {
	if !w.Alive(e) {
		return 0, 0, false
	}
	return w.InstanceAt(e.Index)
}

// InstanceAt is the index-keyed lookup used when consuming dirty sets,
// where handles are no longer available. An index whose entity has died
// or lost its membership since it was marked resolves to nothing.
func (w *World) InstanceAt(index uint32) (MeshID, uint32, bool) {
	r := w.registry
	if index >= uint32(len(r.meshOf)) || !r.hasInstance.Has(index) {
		return 0, 0, false
	}
	return r.meshOf[index], r.slotOf[index], true
}

// InstanceCount returns the number of live instances of the mesh, which
// is also the indirect draw instance count.
func (w *World) InstanceCount(mesh MeshID) uint32 {
	if int(mesh) >= len(w.registry.counts) {
		return 0
	}
	return w.registry.counts[mesh]
}

// MeshDefinitions returns the registered definitions in MeshID order.
func (w *World) MeshDefinitions() []MeshDefinition {
	out := make([]MeshDefinition, len(w.registry.defs))
	copy(out, w.registry.defs)
	return out
}

// MeshEntities returns the indices of entities instancing the mesh, in
// ascending index order.
func (w *World) MeshEntities(mesh MeshID) []uint32 {
	if int(mesh) >= len(w.registry.meshEntities) {
		return nil
	}
	return w.registry.meshEntities[mesh].ToSlice()
}

// MaterialEntities returns the indices of entities whose mesh has at
// least one primitive bound to the material. Used to bucket draw calls.
func (w *World) MaterialEntities(material MaterialID) []uint32 {
	if int(material) >= len(w.registry.materialEntities) {
		return nil
	}
	return w.registry.materialEntities[material].ToSlice()
}

// MaterialName resolves an interned material id.
func (w *World) MaterialName(material MaterialID) string {
	if int(material) >= len(w.registry.materialNames) {
		return ""
	}
	return w.registry.materialNames[material]
}
