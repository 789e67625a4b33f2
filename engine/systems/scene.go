package systems

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/assets/loaders"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/scene"
)

/** @brief A point light bound to the entity it was declared on. */
type SceneLight struct {
	Entity    scene.Entity
	Intensity float32
	Color     math.Vec3
}

/** @brief Configuration for the scene system. */
type SceneSystemConfig struct {
	/** @brief The number of frames in flight. Fixed for each world. */
	FramesInFlight uint32
}

// SceneSystem owns the current world and the mapping from scene file
// declarations to live entities. Applying a scene builds a complete new
// world and swaps it in atomically; a failed apply leaves the current
// world untouched.
type SceneSystem struct {
	Config *SceneSystemConfig

	world     *scene.World
	meshIDs   map[string]scene.MeshID
	entities  []scene.Entity
	lights    []SceneLight
	camera    *loaders.CameraConfig
	sceneName string
}

func NewSceneSystem(config *SceneSystemConfig) (*SceneSystem, error) {
	if config.FramesInFlight == 0 {
		config.FramesInFlight = 2
	}

	world, err := scene.NewWorld(scene.WorldConfig{FramesInFlight: config.FramesInFlight})
	if err != nil {
		return nil, err
	}

	return &SceneSystem{
		Config:  config,
		world:   world,
		meshIDs: make(map[string]scene.MeshID),
	}, nil
}

// World is the currently applied world. Never nil.
func (ss *SceneSystem) World() *scene.World {
	return ss.world
}

// Entity resolves a scene file entity index to its live entity.
func (ss *SceneSystem) Entity(configIndex int) (scene.Entity, bool) {
	if configIndex < 0 || configIndex >= len(ss.entities) {
		return scene.Entity{}, false
	}
	return ss.entities[configIndex], true
}

// Mesh resolves a mesh name from the applied scene to its registered id.
func (ss *SceneSystem) Mesh(name string) (scene.MeshID, bool) {
	id, ok := ss.meshIDs[name]
	return id, ok
}

// Lights are the point lights declared by the applied scene.
func (ss *SceneSystem) Lights() []SceneLight {
	return ss.lights
}

// ActiveCamera is the camera marked active in the applied scene, nil
// when the scene declares none.
func (ss *SceneSystem) ActiveCamera() *loaders.CameraConfig {
	return ss.camera
}

func (ss *SceneSystem) SceneName() string {
	return ss.sceneName
}

// Apply instantiates the parsed scene. Entities are created first and
// parent edges applied in a second pass, so a child may be declared
// before its parent in the file. The new world replaces the current one
// only after every step succeeded.
func (ss *SceneSystem) Apply(cfg *loaders.SceneConfig) error {
	world, err := scene.NewWorld(scene.WorldConfig{FramesInFlight: ss.Config.FramesInFlight})
	if err != nil {
		return err
	}

	materials := make(map[string]scene.MaterialID, len(cfg.Materials)+1)
	for _, mc := range cfg.Materials {
		materials[mc.Name] = world.RegisterMaterial(mc.Name)
	}
	if _, ok := materials[metadata.DefaultMaterialName]; !ok {
		materials[metadata.DefaultMaterialName] = world.RegisterMaterial(metadata.DefaultMaterialName)
	}

	meshIDs := make(map[string]scene.MeshID, len(cfg.Meshes))
	for _, mc := range cfg.Meshes {
		def := scene.MeshDefinition{
			Name:         mc.Name,
			MaxInstances: mc.MaxInstances,
			Primitives:   make([]scene.PrimitiveDef, 0, len(mc.Primitives)),
		}
		for _, pc := range mc.Primitives {
			material, ok := materials[pc.MaterialName]
			if !ok {
				err := fmt.Errorf("scene %s: mesh '%s' references unknown material '%s'", cfg.Name, mc.Name, pc.MaterialName)
				core.LogError(err.Error())
				return err
			}
			def.Primitives = append(def.Primitives, scene.PrimitiveDef{
				Material:   material,
				IndexCount: pc.IndexCount,
			})
		}
		id, err := world.RegisterMesh(def)
		if err != nil {
			return err
		}
		meshIDs[mc.Name] = id
	}

	entities := make([]scene.Entity, len(cfg.Entities))
	for i := range cfg.Entities {
		entities[i] = world.CreateEntity()
	}

	for i, ec := range cfg.Entities {
		if err := world.SetLocalTransform(entities[i], ec.Transform); err != nil {
			return fmt.Errorf("scene %s: entity '%s': %w", cfg.Name, ec.Name, err)
		}
	}

	for i, ec := range cfg.Entities {
		if ec.Parent == nil {
			continue
		}
		if err := world.SetParent(entities[i], entities[*ec.Parent]); err != nil {
			return fmt.Errorf("scene %s: entity '%s': %w", cfg.Name, ec.Name, err)
		}
	}

	for i, ec := range cfg.Entities {
		if ec.Mesh == "" {
			continue
		}
		id, ok := meshIDs[ec.Mesh]
		if !ok {
			err := fmt.Errorf("scene %s: entity '%s' references unknown mesh '%s'", cfg.Name, ec.Name, ec.Mesh)
			core.LogError(err.Error())
			return err
		}
		if err := world.AttachMesh(entities[i], id); err != nil {
			return fmt.Errorf("scene %s: entity '%s': %w", cfg.Name, ec.Name, err)
		}
	}

	var lights []SceneLight
	var camera *loaders.CameraConfig
	for i, ec := range cfg.Entities {
		if ec.Light != nil {
			lights = append(lights, SceneLight{
				Entity:    entities[i],
				Intensity: ec.Light.Intensity,
				Color:     ec.Light.Color,
			})
		}
		if ec.Camera != nil && ec.Camera.Active {
			camera = ec.Camera
		}
	}

	ss.world = world
	ss.meshIDs = meshIDs
	ss.entities = entities
	ss.lights = lights
	ss.camera = camera
	ss.sceneName = cfg.Name

	core.LogInfo("scene '%s' applied: %d entities, %d meshes, %d lights", cfg.Name, len(entities), len(meshIDs), len(lights))
	return nil
}

func (ss *SceneSystem) Shutdown() error {
	return nil
}
