package testbed

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/platform"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/scene"
)

// How fast the pivot spins and the camera orbits, in radians per second.
const (
	pivotSpinSpeed   = 0.5
	cameraOrbitSpeed = 0.15
)

// The blinker satellite is attached and detached on this cadence to push
// instance slots through release and compaction.
const blinkPeriodSeconds = 2.5

type TestGame struct {
	*engine.Game
}

type gameState struct {
	paused bool

	// Resolved against the applied world; rebound after a scene reload.
	world         *scene.World
	pivot         scene.Entity
	satelliteMesh scene.MeshID

	pivotYaw     float32
	blinkTimer   float64
	blinker      scene.Entity
	blinkerAlive bool

	flickerPhase float64
}

func NewTestGame() (*TestGame, error) {
	config, err := engine.LoadApplicationConfig("application.toml")
	if err != nil {
		core.LogWarn("falling back to the default application config: %s", err)
		config = engine.DefaultApplicationConfig()
		config.Name = "Ombra Testbed"
	}

	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: config,
			State:             &gameState{},
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg, nil
}

func (tg *TestGame) Initialize() error {
	state := tg.State.(*gameState)
	if err := state.rebind(tg.Game); err != nil {
		return err
	}

	// Space toggles the animation without stopping the engine loop.
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, func(context core.EventContext) bool {
		if context.Data.U32[0] != platform.KeySpace {
			return false
		}
		state.paused = !state.paused
		core.LogInfo("testbed animation paused: %t", state.paused)
		return true
	})

	return nil
}

// rebind resolves entity and mesh handles against the currently applied
// world. A hot reload swaps the world out underneath the game, so handles
// are re-resolved whenever the world pointer changes.
func (s *gameState) rebind(g *engine.Game) error {
	sceneSystem := g.SystemManager.SceneSystem()
	world := sceneSystem.World()
	if world == s.world {
		return nil
	}

	pivot, ok := sceneSystem.Entity(0)
	if !ok {
		return fmt.Errorf("scene '%s' declares no entities", sceneSystem.SceneName())
	}
	satelliteMesh, ok := sceneSystem.Mesh("satellite")
	if !ok {
		return fmt.Errorf("scene '%s' declares no 'satellite' mesh", sceneSystem.SceneName())
	}

	s.world = world
	s.pivot = pivot
	s.satelliteMesh = satelliteMesh
	s.blinker = scene.Entity{}
	s.blinkerAlive = false
	s.blinkTimer = 0
	return nil
}

func (tg *TestGame) Update(deltaTime float64) error {
	state := tg.State.(*gameState)
	if err := state.rebind(tg.Game); err != nil {
		return err
	}
	if state.paused {
		return nil
	}

	// Perform a small rotation on the pivot; children follow through
	// transform propagation.
	state.pivotYaw += float32(pivotSpinSpeed * deltaTime)
	spin := math.NewQuatFromAxisAngle(math.NewVec3(0, 1, 0), state.pivotYaw, false)
	if err := state.world.SetLocalTransform(state.pivot, math.TransformFromRotation(spin)); err != nil {
		return err
	}

	if err := state.updateBlinker(deltaTime); err != nil {
		return err
	}

	tg.SystemManager.CameraSystem().GetDefault().Orbit(float32(cameraOrbitSpeed*deltaTime), 0)
	return nil
}

// updateBlinker attaches a short-lived satellite under the pivot and tears
// it down again a blink period later.
func (s *gameState) updateBlinker(deltaTime float64) error {
	s.blinkTimer += deltaTime
	if s.blinkTimer < blinkPeriodSeconds {
		return nil
	}
	s.blinkTimer -= blinkPeriodSeconds

	if s.blinkerAlive {
		if err := s.world.DestroyEntity(s.blinker); err != nil {
			return err
		}
		s.blinkerAlive = false
		return nil
	}

	blinker := s.world.CreateEntity()
	transform := math.TransformFromPositionRotationScale(
		math.NewVec3(0, 1.5, 0),
		math.NewQuatIdentity(),
		math.NewVec3(0.25, 0.25, 0.25),
	)
	if err := s.world.SetLocalTransform(blinker, transform); err != nil {
		return err
	}
	if err := s.world.SetParent(blinker, s.pivot); err != nil {
		return err
	}
	if err := s.world.AttachMesh(blinker, s.satelliteMesh); err != nil {
		return err
	}
	s.blinker = blinker
	s.blinkerAlive = true
	return nil
}

// Render nudges the light intensities so the packet amendment hook has a
// visible effect. The world itself is untouched.
func (tg *TestGame) Render(packet *metadata.RenderPacket, deltaTime float64) error {
	state := tg.State.(*gameState)
	if state.paused {
		return nil
	}
	state.flickerPhase += deltaTime
	flicker := 0.9 + 0.1*math.Sin(float32(state.flickerPhase)*6)
	for i := range packet.Lights {
		packet.Lights[i].Intensity *= flicker
	}
	return nil
}

func (tg *TestGame) OnResize(width, height uint32) error {
	core.LogDebug("testbed resized to %dx%d", width, height)
	return nil
}
