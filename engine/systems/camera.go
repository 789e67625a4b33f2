package systems

import (
	"fmt"

	"github.com/spaghettifunk/ombra/engine/core"
	"github.com/spaghettifunk/ombra/engine/math"
	"github.com/spaghettifunk/ombra/engine/renderer/components"
)

type CameraSystem struct {
	Config *CameraSystemConfig
	lookup map[string]*cameraReference
	// A default, non-registered camera that always exists as a fallback.
	DefaultCamera *components.Camera

	aspect          float32
	projection      math.Mat4
	projectionDirty bool
}

type cameraReference struct {
	camera         *components.Camera
	referenceCount uint16
}

/** @brief The camera system configuration. */
type CameraSystemConfig struct {
	/**
	 * @brief NOTE: The maximum number of cameras that can be managed by
	 * the system.
	 */
	MaxCameraCount uint16
	/** @brief The vertical field of view in radians. */
	FieldOfView float32
	/** @brief The near clipping plane distance. */
	NearClip float32
	/** @brief The far clipping plane distance. */
	FarClip float32
}

func NewCameraSystem(config *CameraSystemConfig) (*CameraSystem, error) {
	if config.MaxCameraCount == 0 {
		err := fmt.Errorf("func NewCameraSystem - config.MaxCameraCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	if config.FieldOfView == 0 {
		config.FieldOfView = math.DegToRad(45.0)
	}
	if config.NearClip == 0 {
		config.NearClip = 0.1
	}
	if config.FarClip == 0 {
		config.FarClip = 1000.0
	}

	cs := &CameraSystem{
		Config:          config,
		lookup:          make(map[string]*cameraReference, config.MaxCameraCount),
		DefaultCamera:   components.NewCamera(),
		aspect:          1.0,
		projectionDirty: true,
	}
	return cs, nil
}

func (cs *CameraSystem) Shutdown() error {
	return nil
}

/**
 * @brief Acquires a pointer to a camera by name.
 * If one is not found, a new one is created and returned.
 * Internal reference counter is incremented.
 */
func (cs *CameraSystem) Acquire(name string) (*components.Camera, error) {
	if name == components.DEFAULT_CAMERA_NAME {
		return cs.DefaultCamera, nil
	}

	ref, ok := cs.lookup[name]
	if !ok {
		if len(cs.lookup) >= int(cs.Config.MaxCameraCount) {
			err := fmt.Errorf("func CameraSystem.Acquire failed to acquire new slot. Adjust camera system config to allow more. Null returned")
			core.LogError(err.Error())
			return nil, err
		}
		core.LogDebug("Creating new camera named '%s'...", name)
		ref = &cameraReference{camera: components.NewCamera()}
		cs.lookup[name] = ref
	}
	ref.referenceCount++
	return ref.camera, nil
}

/**
 * @brief Releases a camera with the given name. Internal reference
 * counter is decremented. If this reaches 0, the camera is reset,
 * and the reference is usable by a new camera.
 */
func (cs *CameraSystem) Release(name string) {
	if name == components.DEFAULT_CAMERA_NAME {
		core.LogDebug("Cannot release default camera. Nothing was done.")
		return
	}
	ref, ok := cs.lookup[name]
	if !ok {
		core.LogWarn("CameraSystem.Release failed lookup. Nothing was done.")
		return
	}
	ref.referenceCount--
	if ref.referenceCount < 1 {
		ref.camera.Reset()
		delete(cs.lookup, name)
	}
}

func (cs *CameraSystem) GetDefault() *components.Camera {
	return cs.DefaultCamera
}

// OnResize updates the aspect ratio the projection is derived from.
func (cs *CameraSystem) OnResize(width, height uint32) {
	if height == 0 {
		return
	}
	cs.aspect = float32(width) / float32(height)
	cs.projectionDirty = true
}

// SetProjection replaces the perspective parameters, typically with the
// values declared by a scene's active camera. Angles in radians.
func (cs *CameraSystem) SetProjection(fieldOfView, nearClip, farClip float32) {
	cs.Config.FieldOfView = fieldOfView
	cs.Config.NearClip = nearClip
	cs.Config.FarClip = farClip
	cs.projectionDirty = true
}

// Projection returns the perspective projection with the Y axis flipped
// for Vulkan clip space.
func (cs *CameraSystem) Projection() math.Mat4 {
	if cs.projectionDirty {
		cs.projection = math.NewMat4Perspective(cs.Config.FieldOfView, cs.aspect, cs.Config.NearClip, cs.Config.FarClip)
		cs.projection.Data[5] *= -1
		cs.projectionDirty = false
	}
	return cs.projection
}
