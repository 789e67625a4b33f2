package systems

import (
	"sync"

	"github.com/spaghettifunk/ombra/engine/assets/loaders"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/renderer"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
)

// SystemManager wires the engine systems together and owns the tick
// order: pending scene swap, world update, frame write, slot advance.
type SystemManager struct {
	jobSystem      *JobSystem
	cameraSystem   *CameraSystem
	lightSystem    *LightSystem
	sceneSystem    *SceneSystem
	rendererSystem *RendererSystem

	// Scene configs parsed off-thread land here and are applied at the
	// start of the next frame, on the tick goroutine.
	pendingMutex sync.Mutex
	pendingScene *loaders.SceneConfig
}

func NewSystemManager(backend renderer.RendererBackend, framesInFlight uint32) (*SystemManager, error) {
	js, err := NewJobSystem(1, 32)
	if err != nil {
		return nil, err
	}

	cs, err := NewCameraSystem(&CameraSystemConfig{
		MaxCameraCount: 16,
	})
	if err != nil {
		return nil, err
	}

	ls, err := NewLightSystem(&LightSystemConfig{})
	if err != nil {
		return nil, err
	}

	ss, err := NewSceneSystem(&SceneSystemConfig{
		FramesInFlight: framesInFlight,
	})
	if err != nil {
		return nil, err
	}

	rs, err := NewRendererSystem(backend)
	if err != nil {
		return nil, err
	}

	return &SystemManager{
		jobSystem:      js,
		cameraSystem:   cs,
		lightSystem:    ls,
		sceneSystem:    ss,
		rendererSystem: rs,
	}, nil
}

func (sm *SystemManager) JobSystem() *JobSystem {
	return sm.jobSystem
}

func (sm *SystemManager) CameraSystem() *CameraSystem {
	return sm.cameraSystem
}

func (sm *SystemManager) LightSystem() *LightSystem {
	return sm.lightSystem
}

func (sm *SystemManager) SceneSystem() *SceneSystem {
	return sm.sceneSystem
}

func (sm *SystemManager) RendererSystem() *RendererSystem {
	return sm.rendererSystem
}

// LoadScene applies a parsed scene and prepares the renderer for its
// shape. The first load sizes and creates the frame buffers; any later
// load must match the built layout exactly, since the buffers are never
// resized mid-flight. Changing capacities requires a restart.
func (sm *SystemManager) LoadScene(cfg *loaders.SceneConfig) error {
	if sm.rendererSystem.Layout() != nil {
		if err := sm.rendererSystem.MatchesScene(sm.sceneSystem.Config.FramesInFlight, cfg); err != nil {
			return err
		}
	}

	if err := sm.sceneSystem.Apply(cfg); err != nil {
		return err
	}
	if err := sm.wireSceneOutputs(); err != nil {
		return err
	}

	if sm.rendererSystem.Layout() == nil {
		if err := sm.rendererSystem.Setup(sm.sceneSystem.World()); err != nil {
			return err
		}
	}
	return nil
}

// QueueSceneReload hands a freshly parsed scene to the tick goroutine.
// Safe to call from job workers.
func (sm *SystemManager) QueueSceneReload(cfg *loaders.SceneConfig) {
	sm.pendingMutex.Lock()
	sm.pendingScene = cfg
	sm.pendingMutex.Unlock()
}

// wireSceneOutputs points the light and camera systems at the entities
// and parameters the applied scene declared.
func (sm *SystemManager) wireSceneOutputs() error {
	sm.lightSystem.Reset()
	for _, light := range sm.sceneSystem.Lights() {
		if err := sm.lightSystem.AddLight(light.Entity, light.Intensity, light.Color); err != nil {
			return err
		}
	}

	if cc := sm.sceneSystem.ActiveCamera(); cc != nil {
		camera := sm.cameraSystem.GetDefault()
		camera.SetYaw(cc.Yaw)
		camera.SetPitch(cc.Pitch)
		camera.SetDistance(cc.Distance)
		camera.SetFocusPoint(cc.FocusPoint)
		sm.cameraSystem.SetProjection(cc.FieldOfView, cc.NearClip, cc.FarClip)
	}
	return nil
}

// applyPendingScene swaps in a queued scene reload if its shape matches
// the built layout. A mismatching scene is dropped with an error: the
// buffers were sized for the old shape and are never silently regrown.
func (sm *SystemManager) applyPendingScene() {
	sm.pendingMutex.Lock()
	pending := sm.pendingScene
	sm.pendingScene = nil
	sm.pendingMutex.Unlock()

	if pending == nil {
		return
	}

	if err := sm.LoadScene(pending); err != nil {
		core.LogError("scene '%s' reload rejected, keeping current scene: %s", pending.Name, err.Error())
		return
	}
	core.LogInfo("scene '%s' reloaded", pending.Name)
}

// DrawFrame runs one tick: apply any queued scene swap, update the
// world, stream the frame's writes and advance the frame slot ring.
func (sm *SystemManager) DrawFrame(packet *metadata.RenderPacket) error {
	sm.applyPendingScene()

	world := sm.sceneSystem.World()
	if err := world.Update(); err != nil {
		return err
	}

	if err := sm.rendererSystem.DrawFrame(packet, world); err != nil {
		return err
	}

	world.AdvanceFrame()
	return nil
}

// OnResize forwards the new framebuffer size to the projection owner.
func (sm *SystemManager) OnResize(width, height uint32) {
	sm.cameraSystem.OnResize(width, height)
}

func (sm *SystemManager) Shutdown() error {
	if err := sm.rendererSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.sceneSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.lightSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.cameraSystem.Shutdown(); err != nil {
		return err
	}
	if err := sm.jobSystem.Shutdown(); err != nil {
		return err
	}
	return nil
}
