package components

import (
	m "math"

	"github.com/spaghettifunk/ombra/engine/math"
)

/**
 * @brief Represents an orbit camera: spherical coordinates around a focus
 * point. Ideally, these are created and managed by the camera system.
 */
type Camera struct {
	/**
	 * @brief Rotation around the world Y axis in radians.
	 * NOTE: Do not set this directly, use SetYaw() instead
	 * so the view matrix is recalculated when needed.
	 */
	Yaw float32
	/**
	 * @brief Elevation above the focus plane in radians.
	 * NOTE: Do not set this directly, use SetPitch() instead
	 * so the view matrix is recalculated when needed.
	 */
	Pitch float32
	/** @brief Distance from the focus point. */
	Distance float32
	/** @brief The point the camera orbits and looks at. */
	FocusPoint math.Vec3
	/** @brief Internal flag used to determine when the view matrix needs to be rebuilt. */
	IsDirty bool
	/**
	 * @brief The view matrix of this camera.
	 * NOTE: IMPORTANT: Do not get this directly, use GetView() instead
	 * so the view matrix is recalculated when needed.
	 */
	ViewMatrix math.Mat4
}

/** @brief The name of the default camera. */
const DEFAULT_CAMERA_NAME string = "default"

// 89 degrees, or equivalent to deg_to_rad(89.0f).
const pitchLimit = float32(1.55334306)

// Distances below this collapse the eye onto the focus point and make the
// view basis degenerate.
const minOrbitDistance = float32(0.01)

func NewCamera() *Camera {
	camera := &Camera{}
	camera.Reset()
	return camera
}

func (c *Camera) Reset() {
	c.Yaw = 0
	c.Pitch = 0
	c.Distance = 10.0
	c.FocusPoint = math.NewVec3Zero()
	c.ViewMatrix = math.NewMat4Identity()
	c.IsDirty = true
}

// GetPosition derives the eye position from the orbit parameters.
func (c *Camera) GetPosition() math.Vec3 {
	sy := float32(m.Sin(float64(c.Yaw)))
	cy := float32(m.Cos(float64(c.Yaw)))
	sp := float32(m.Sin(float64(c.Pitch)))
	cp := float32(m.Cos(float64(c.Pitch)))

	offset := math.NewVec3(sy*cp, sp, cy*cp).MulScalar(c.Distance)
	return c.FocusPoint.Add(offset)
}

func (c *Camera) SetYaw(yaw float32) {
	c.Yaw = yaw
	c.IsDirty = true
}

func (c *Camera) SetPitch(pitch float32) {
	c.Pitch = math.Clamp(pitch, -pitchLimit, pitchLimit)
	c.IsDirty = true
}

func (c *Camera) SetDistance(distance float32) {
	c.Distance = math.Max(distance, minOrbitDistance)
	c.IsDirty = true
}

func (c *Camera) SetFocusPoint(focus math.Vec3) {
	c.FocusPoint = focus
	c.IsDirty = true
}

// Orbit rotates the camera around the focus point.
func (c *Camera) Orbit(yawAmount, pitchAmount float32) {
	c.Yaw += yawAmount
	c.SetPitch(c.Pitch + pitchAmount)
}

// Zoom moves the camera along the line to the focus point.
func (c *Camera) Zoom(amount float32) {
	c.SetDistance(c.Distance + amount)
}

// Pan moves the focus point in the camera's view plane.
func (c *Camera) Pan(rightAmount, upAmount float32) {
	view := c.GetView()
	right := math.NewVec3(view.Data[0], view.Data[4], view.Data[8])
	up := math.NewVec3(view.Data[1], view.Data[5], view.Data[9])
	c.FocusPoint = c.FocusPoint.Add(right.MulScalar(rightAmount)).Add(up.MulScalar(upAmount))
	c.IsDirty = true
}

func (c *Camera) GetView() math.Mat4 {
	if c.IsDirty {
		c.ViewMatrix = math.NewMat4LookAt(c.GetPosition(), c.FocusPoint, math.NewVec3Up())
		c.IsDirty = false
	}
	return c.ViewMatrix
}
