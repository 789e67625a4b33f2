package engine

import (
	"fmt"
	"os"
	"time"

	"github.com/spaghettifunk/ombra/engine/assets"
	"github.com/spaghettifunk/ombra/engine/assets/loaders"
	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/platform"
	"github.com/spaghettifunk/ombra/engine/renderer/metadata"
	"github.com/spaghettifunk/ombra/engine/renderer/vulkan"
	"github.com/spaghettifunk/ombra/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

// How long the main loop idles between polls while the window is minimized.
const suspendedPollInterval = 100 * time.Millisecond

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	isRunning     bool
	isSuspended   bool
	platform      *platform.Platform
	assetManager  *assets.AssetManager
	systemManager *systems.SystemManager
	width         uint32
	height        uint32
	clock         *core.Clock
	lastTime      float64
}

func New(g *Game) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		err := fmt.Errorf("engine needs a game with an application config")
		core.LogError(err.Error())
		return nil, err
	}
	if err := g.ApplicationConfig.validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	p, err := platform.New()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	am, err := assets.NewAssetManager()
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	return &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		clock:        core.NewClock(),
		platform:     p,
		assetManager: am,
		isRunning:    true,
		isSuspended:  false,
		width:        g.ApplicationConfig.StartWidth,
		height:       g.ApplicationConfig.StartHeight,
		lastTime:     0,
	}, nil
}

func (e *Engine) Initialize() error {
	if e.currentStage != EngineStageUninitialized {
		err := fmt.Errorf("engine is already initialized")
		core.LogError(err.Error())
		return err
	}
	e.currentStage = EngineStageBooting

	config := e.gameInstance.ApplicationConfig
	if config.LogLevel != "" {
		core.LogSetLevel(config.LogLevel)
	}

	if err := core.EventSystemInitialize(); err != nil {
		return err
	}
	if err := core.MetricsInitialize(); err != nil {
		return err
	}

	// register some events
	core.EventRegister(core.EVENT_CODE_APPLICATION_QUIT, e.onQuit)
	core.EventRegister(core.EVENT_CODE_KEY_PRESSED, e.onKeyPressed)
	core.EventRegister(core.EVENT_CODE_RESIZED, e.onResized)
	core.EventRegister(core.EVENT_CODE_SCENE_FILE_CHANGED, e.onSceneFileChanged)

	if err := e.platform.Startup(config.Name,
		config.StartPosX,
		config.StartPosY,
		config.StartWidth,
		config.StartHeight); err != nil {
		return err
	}

	// The backend queries the window for required instance extensions, so it
	// can only come up after platform startup.
	backend, err := vulkan.New(e.platform, &metadata.RendererBackendConfig{
		ApplicationName: config.Name,
		FramesInFlight:  config.FramesInFlight,
	})
	if err != nil {
		return err
	}
	e.currentStage = EngineStageBootComplete

	e.currentStage = EngineStageInitializing
	sm, err := systems.NewSystemManager(backend, config.FramesInFlight)
	if err != nil {
		return err
	}
	e.systemManager = sm
	e.gameInstance.SystemManager = sm

	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	if err := e.assetManager.Initialize(fmt.Sprintf("%s/assets", wd)); err != nil {
		return err
	}

	if err := e.loadStartupScene(config.Scene); err != nil {
		return err
	}

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(e.width, e.height); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	return nil
}

func (e *Engine) loadStartupScene(name string) error {
	res, err := e.assetManager.LoadAsset(name, metadata.ResourceTypeScene, nil)
	if err != nil {
		return err
	}
	sceneConfig, ok := res.Data.(*loaders.SceneConfig)
	if !ok {
		err := fmt.Errorf("asset '%s' did not resolve to a scene", name)
		core.LogError(err.Error())
		return err
	}
	return e.systemManager.LoadScene(sceneConfig)
}

func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		err := fmt.Errorf("engine must be initialized before it can run")
		core.LogError(err.Error())
		return err
	}
	e.currentStage = EngineStageRunning

	e.clock.Start()
	e.clock.Update()
	e.lastTime = e.clock.Elapsed()

	var targetFrameSeconds float64 = 0
	if e.gameInstance.ApplicationConfig.TargetFPS > 0 {
		targetFrameSeconds = 1.0 / float64(e.gameInstance.ApplicationConfig.TargetFPS)
	}

	for e.isRunning {
		e.platform.PumpMessages()
		// Events are dispatched here so every listener runs on the tick
		// goroutine, watcher and windowing callbacks only enqueue.
		core.ProcessEvents()

		if e.platform.ShouldClose() {
			e.isRunning = false
		}
		if !e.isRunning {
			break
		}
		if e.isSuspended {
			time.Sleep(suspendedPollInterval)
			continue
		}

		e.clock.Update()
		currentTime := e.clock.Elapsed()
		delta := currentTime - e.lastTime
		frameStartTime := platform.GetAbsoluteTime()

		if err := e.gameInstance.FnUpdate(delta); err != nil {
			core.LogError("game update failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		packet := e.buildRenderPacket(delta)
		if e.gameInstance.FnRender != nil {
			if err := e.gameInstance.FnRender(packet, delta); err != nil {
				core.LogError("game render failed, shutting down: %s", err)
				e.isRunning = false
				break
			}
		}

		if err := e.systemManager.DrawFrame(packet); err != nil {
			core.LogError("draw frame failed, shutting down: %s", err)
			e.isRunning = false
			break
		}

		frameElapsedTime := platform.GetAbsoluteTime() - frameStartTime
		core.MetricsUpdate(frameElapsedTime)

		// If there is time left, give it back to the OS.
		if remaining := targetFrameSeconds - frameElapsedTime; remaining > 0 {
			time.Sleep(time.Duration(remaining * float64(time.Second)))
		}

		e.lastTime = currentTime
	}

	return nil
}

// buildRenderPacket snapshots the per-frame view state. The default camera
// parametrizes the view; lights are gathered from the current world so their
// positions follow the hierarchy.
func (e *Engine) buildRenderPacket(delta float64) *metadata.RenderPacket {
	cameraSystem := e.systemManager.CameraSystem()
	worldCamera := cameraSystem.GetDefault()
	return &metadata.RenderPacket{
		DeltaTime:    delta,
		Projection:   cameraSystem.Projection(),
		View:         worldCamera.GetView(),
		ViewPosition: worldCamera.GetPosition(),
		Lights:       e.systemManager.LightSystem().Gather(e.systemManager.SceneSystem().World()),
	}
}

func (e *Engine) Shutdown() error {
	if e.currentStage == EngineStageShuttingDown {
		return nil
	}
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	// The watcher goes first so no reload jobs arrive during teardown.
	if err := e.assetManager.Shutdown(); err != nil {
		return err
	}
	if e.systemManager != nil {
		if err := e.systemManager.Shutdown(); err != nil {
			return err
		}
	}
	if err := e.platform.Shutdown(); err != nil {
		return err
	}
	if err := core.EventSystemShutdown(); err != nil {
		return err
	}
	return nil
}

// GetFramebufferSize returns the width and height (in this order)
// of the application framebuffer.
func (e *Engine) GetFramebufferSize() (uint32, uint32) {
	return e.width, e.height
}

func (e *Engine) onQuit(context core.EventContext) bool {
	core.LogInfo("EVENT_CODE_APPLICATION_QUIT received, shutting down.")
	e.isRunning = false
	return true
}

func (e *Engine) onKeyPressed(context core.EventContext) bool {
	keyCode := context.Data.U32[0]
	if keyCode == platform.KeyEscape {
		// NOTE: Technically firing an event to itself, but there may be other listeners.
		core.EventFire(core.EVENT_CODE_APPLICATION_QUIT, core.EventContext{})
		// Block anything else from processing this.
		return true
	}
	return false
}

func (e *Engine) onResized(context core.EventContext) bool {
	width := context.Data.U32[0]
	height := context.Data.U32[1]

	// Check if different. If so, trigger a resize event.
	if width == e.width && height == e.height {
		return false
	}
	e.width = width
	e.height = height
	core.LogDebug("window resize: %d, %d", width, height)

	// Handle minimization
	if width == 0 || height == 0 {
		core.LogInfo("window minimized, suspending application")
		e.isSuspended = true
		return false
	}

	if e.isSuspended {
		core.LogInfo("window restored, resuming application")
		e.isSuspended = false
	}
	if e.gameInstance.FnOnResize != nil {
		if err := e.gameInstance.FnOnResize(width, height); err != nil {
			core.LogError(err.Error())
		}
	}
	e.systemManager.OnResize(width, height)
	return false
}

// onSceneFileChanged schedules a reload of the changed scene file. Parsing
// happens on a job worker; the parsed config is queued on the system manager
// and picked up at the start of the next frame.
func (e *Engine) onSceneFileChanged(context core.EventContext) bool {
	path := context.Data.Str
	if path == "" {
		return false
	}
	core.LogInfo("scene file '%s' changed, scheduling reload", path)

	e.systemManager.JobSystem().AddWorkNonBlocking(metadata.JobTask{
		JobType:     metadata.JOB_TYPE_RESOURCE_LOAD,
		Priority:    metadata.JOB_PRIORITY_NORMAL,
		InputParams: []interface{}{path},
		OnStart:     e.sceneReloadStart,
		OnComplete:  e.sceneReloadComplete,
		OnFailure: func(paramsChan <-chan interface{}) {
			core.LogWarn("scene reload failed, keeping the current scene")
		},
	})
	return true
}

func (e *Engine) sceneReloadStart(params interface{}, resultChan chan<- interface{}) error {
	input, ok := params.([]interface{})
	if !ok || len(input) == 0 {
		return fmt.Errorf("scene reload job started without a path")
	}
	path, ok := input[0].(string)
	if !ok {
		return fmt.Errorf("scene reload job path has the wrong type")
	}

	res, err := e.assetManager.LoadAssetFromPath(path, nil)
	if err != nil {
		return err
	}
	sceneConfig, ok := res.Data.(*loaders.SceneConfig)
	if !ok {
		return fmt.Errorf("file '%s' did not resolve to a scene", path)
	}

	resultChan <- sceneConfig
	return nil
}

func (e *Engine) sceneReloadComplete(paramsChan <-chan interface{}) {
	sceneConfig, ok := (<-paramsChan).(*loaders.SceneConfig)
	if !ok {
		core.LogError("scene reload job produced no scene config")
		return
	}
	e.systemManager.QueueSceneReload(sceneConfig)
	core.LogInfo("scene '%s' queued for reload", sceneConfig.Name)
}
