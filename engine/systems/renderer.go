package systems

import (
	"fmt"
	"unsafe"

	"github.com/spaghettifunk/ombra/engine/assets/loaders"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/renderer"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/scene"
)

// RendererSystem drives the per-frame buffer writes. Setup plans the
// byte layout from the world's static shape and sizes the backend
// buffers once; DrawFrame then streams the frame's uniform block, the
// dirty indirect commands and the dirty instance transforms through the
// planned offsets. The layout is never resized mid-flight: a world whose
// shape no longer matches is a fatal error for the tick.
type RendererSystem struct {
	backend renderer.RendererBackend

	layout *renderer.BufferLayout

	// first primitive index of each mesh in the frame's command table
	primitiveBases []int
}

func NewRendererSystem(backend renderer.RendererBackend) (*RendererSystem, error) {
	if backend == nil {
		err := fmt.Errorf("renderer system requires a backend")
		core.LogError(err.Error())
		return nil, err
	}
	return &RendererSystem{
		backend: backend,
	}, nil
}

// Layout is the buffer plan built by Setup, nil before the first Setup.
func (r *RendererSystem) Layout() *renderer.BufferLayout {
	return r.layout
}

// LayoutConfigFor derives the layout-relevant shape of a world.
func (r *RendererSystem) LayoutConfigFor(world *scene.World) renderer.LayoutConfig {
	return renderer.LayoutConfig{
		FramesInFlight: world.FramesInFlight(),
		Alignment:      r.backend.Alignment(),
		PrimitiveCount: world.PrimitiveCount(),
		MeshCapacities: world.MeshCapacities(),
	}
}

// MatchesScene verifies that a parsed scene would produce exactly the
// buffer layout currently built, without instantiating a world for it.
func (r *RendererSystem) MatchesScene(framesInFlight uint32, cfg *loaders.SceneConfig) error {
	if r.layout == nil {
		err := fmt.Errorf("renderer system used before Setup")
		core.LogError(err.Error())
		return err
	}

	primitives := 0
	capacities := make([]uint32, 0, len(cfg.Meshes))
	for _, mesh := range cfg.Meshes {
		primitives += len(mesh.Primitives)
		capacities = append(capacities, mesh.MaxInstances)
	}

	return r.layout.Matches(renderer.LayoutConfig{
		FramesInFlight: framesInFlight,
		Alignment:      r.backend.Alignment(),
		PrimitiveCount: primitives,
		MeshCapacities: capacities,
	})
}

// Setup plans the buffer layout for the world's shape and creates the
// backend resources at the planned sizes. Must run after the scene is
// applied and before the first DrawFrame.
func (r *RendererSystem) Setup(world *scene.World) error {
	layout, err := renderer.NewBufferLayout(r.LayoutConfigFor(world))
	if err != nil {
		return err
	}

	defs := world.MeshDefinitions()
	bases := make([]int, len(defs))
	next := 0
	for i, def := range defs {
		bases[i] = next
		next += len(def.Primitives)
	}

	if err := r.backend.Initialize(world.FramesInFlight(), layout.UniformIndirectBufferSize(), layout.TransformBufferSize()); err != nil {
		return err
	}

	r.layout = layout
	r.primitiveBases = bases

	core.LogInfo("renderer buffers planned: %d B uniform+indirect, %d B transforms, %d frames",
		layout.UniformIndirectBufferSize(), layout.TransformBufferSize(), world.FramesInFlight())
	return nil
}

// DrawFrame writes one frame slot: the uniform block built from the
// packet, one indirect command per primitive of each dirty mesh and one
// matrix per dirty instanced entity. The consumed dirty sets are cleared
// for this slot only; other in-flight slots keep their pending writes.
func (r *RendererSystem) DrawFrame(packet *metadata.RenderPacket, world *scene.World) error {
	if r.layout == nil {
		err := fmt.Errorf("renderer system used before Setup")
		core.LogError(err.Error())
		return err
	}

	// The world's shape must still be the one the buffers were sized
	// for. Anything else means writes would land at stale offsets.
	if err := r.layout.Matches(r.LayoutConfigFor(world)); err != nil {
		return err
	}

	slot := world.CurrentFrameSlot()
	if err := r.backend.BeginFrame(slot); err != nil {
		return err
	}

	block := metadata.NewUniformBlock(packet)
	if err := r.backend.WriteUniformIndirect(r.layout.UniformOffset(slot), block.Bytes()); err != nil {
		return err
	}

	entities, meshes, err := world.TakeAndClear(slot)
	if err != nil {
		return err
	}

	defs := world.MeshDefinitions()
	for _, mesh := range meshes {
		def := defs[mesh]
		instances := world.InstanceCount(mesh)
		for p := range def.Primitives {
			cmd := metadata.DrawIndexedCommand{
				IndexCount:    def.Primitives[p].IndexCount,
				InstanceCount: instances,
			}
			offset := r.layout.IndirectOffset(slot) + r.layout.PrimitiveIndirectOffset(r.primitiveBases[mesh]+p)
			if err := r.backend.WriteUniformIndirect(offset, cmd.Bytes()); err != nil {
				return err
			}
		}
	}

	for _, index := range entities {
		// Entities that died or lost their mesh since they were marked
		// resolve to nothing and are skipped.
		mesh, instanceSlot, ok := world.InstanceAt(index)
		if !ok {
			continue
		}
		matrix, ok := world.WorldTransformAt(index)
		if !ok {
			continue
		}
		data := unsafe.Slice((*byte)(unsafe.Pointer(&matrix)), renderer.TransformSize)
		offset := r.layout.InstanceTransformOffset(slot, int(mesh), instanceSlot)
		if err := r.backend.WriteTransforms(offset, data); err != nil {
			return err
		}
	}

	if err := r.backend.EndFrame(slot); err != nil {
		return err
	}

	core.MetricsRecordDirty(len(entities), len(meshes))
	return nil
}

func (r *RendererSystem) Shutdown() error {
	return r.backend.Shutdown()
}
