package math

// Vec2 represents a 2D vector
type Vec2 struct {
	X, Y float32
}

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

// Vec4 represents a 4D vector
type Vec4 struct {
	X, Y, Z, W float32
}

/** @brief A quaternion, used to represent rotational orientation. */
type Quaternion Vec4

/** @brief a 4x4 matrix, typically used to represent object transformations. */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief The local transform of an entity: translation, orientation and
 * scale relative to its parent (or to the world when the entity has no
 * parent). Parent edges live in the scene graph, not here; composing
 * locals into world matrices is the propagator's job.
 */
type Transform struct {
	/** @brief The translation relative to the parent. */
	Position Vec3
	/** @brief The orientation relative to the parent. */
	Rotation Quaternion
	/** @brief The scale relative to the parent. */
	Scale Vec3
}
