package systems

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/scene"
)

type LightSystem struct {
	Config *LightSystemConfig
	lights []pointLight
}

// A point light pinned to an entity. The position is read from the
// entity's world transform at gather time.
type pointLight struct {
	entity    scene.Entity
	intensity float32
	color     math.Vec3
}

/** @brief The light system configuration. */
type LightSystemConfig struct {
	/**
	 * @brief NOTE: The maximum number of lights that can be managed by
	 * the system. Cannot exceed the uniform block capacity.
	 */
	MaxLightCount uint16
}

func NewLightSystem(config *LightSystemConfig) (*LightSystem, error) {
	if config.MaxLightCount == 0 {
		config.MaxLightCount = uint16(metadata.MaxLights)
	}
	if config.MaxLightCount > uint16(metadata.MaxLights) {
		err := fmt.Errorf("func NewLightSystem - config.MaxLightCount %d exceeds the uniform block capacity %d", config.MaxLightCount, metadata.MaxLights)
		core.LogError(err.Error())
		return nil, err
	}
	return &LightSystem{
		Config: config,
		lights: make([]pointLight, 0, config.MaxLightCount),
	}, nil
}

func (ls *LightSystem) Shutdown() error {
	return nil
}

// AddLight registers a point light on the entity. Fails when the table is
// full or the entity already carries a light.
func (ls *LightSystem) AddLight(e scene.Entity, intensity float32, color math.Vec3) error {
	for i := range ls.lights {
		if ls.lights[i].entity == e {
			err := fmt.Errorf("func LightSystem.AddLight - entity %s already has a light", e)
			core.LogError(err.Error())
			return err
		}
	}
	if len(ls.lights) >= int(ls.Config.MaxLightCount) {
		err := fmt.Errorf("func LightSystem.AddLight - light table is full (%d)", ls.Config.MaxLightCount)
		core.LogError(err.Error())
		return err
	}
	ls.lights = append(ls.lights, pointLight{entity: e, intensity: intensity, color: color})
	return nil
}

// RemoveLight drops the entity's light. Removing an absent light is a no-op.
func (ls *LightSystem) RemoveLight(e scene.Entity) {
	for i := range ls.lights {
		if ls.lights[i].entity == e {
			ls.lights = append(ls.lights[:i], ls.lights[i+1:]...)
			return
		}
	}
}

// Reset drops every registered light. Used when a new scene is applied.
func (ls *LightSystem) Reset() {
	ls.lights = ls.lights[:0]
}

func (ls *LightSystem) Count() int {
	return len(ls.lights)
}

// Gather resolves the registered lights against the world for this frame.
// Lights whose entity has died are pruned.
func (ls *LightSystem) Gather(world *scene.World) []metadata.LightSource {
	out := make([]metadata.LightSource, 0, len(ls.lights))
	kept := ls.lights[:0]
	for _, light := range ls.lights {
		if !world.Alive(light.entity) {
			continue
		}
		kept = append(kept, light)

		matrix, err := world.WorldTransform(light.entity)
		if err != nil {
			continue
		}
		out = append(out, metadata.LightSource{
			Position:  matrix.Translation(),
			Intensity: light.intensity,
			Color:     light.color,
		})
	}
	ls.lights = kept
	return out
}
