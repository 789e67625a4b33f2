package engine

import (
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/systems"
)

// Game is the application half of the engine. The engine owns the main loop
// and invokes the Fn hooks; SystemManager is populated during Initialize so
// hooks can reach the scene, camera and light systems.
type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnOnResize        OnResize
}

type Initialize func() error
type Update func(deltaTime float64) error

// Render runs after the engine assembled the frame packet and before it is
// handed to the renderer, so a game may amend it. Optional.
type Render func(packet *metadata.RenderPacket, deltaTime float64) error
type OnResize func(width uint32, height uint32) error
