package math

func TransformCreate() Transform {
	return Transform{
		Position: NewVec3Zero(),
		Rotation: NewQuatIdentity(),
		Scale:    NewVec3One(),
	}
}

func TransformFromPosition(position Vec3) Transform {
	t := TransformCreate()
	t.Position = position
	return t
}

func TransformFromRotation(rotation Quaternion) Transform {
	t := TransformCreate()
	t.Rotation = rotation
	return t
}

func TransformFromPositionRotation(position Vec3, rotation Quaternion) Transform {
	t := TransformCreate()
	t.Position = position
	t.Rotation = rotation
	return t
}

func TransformFromPositionRotationScale(position Vec3, rotation Quaternion, scale Vec3) Transform {
	return Transform{
		Position: position,
		Rotation: rotation,
		Scale:    scale,
	}
}

func (t Transform) Translated(translation Vec3) Transform {
	t.Position = t.Position.Add(translation)
	return t
}

func (t Transform) Rotated(rotation Quaternion) Transform {
	t.Rotation = t.Rotation.Mul(rotation)
	return t
}

func (t Transform) Scaled(scale Vec3) Transform {
	t.Scale = t.Scale.Mul(scale)
	return t
}

// Matrix composes the transform into a matrix applying scale, then
// rotation, then translation.
func (t Transform) Matrix() Mat4 {
	tr := t.Rotation.ToMat4().Mul(NewMat4Translation(t.Position))
	return NewMat4Scale(t.Scale).Mul(tr)
}

// IsFinite reports whether every component is free of NaN/Inf.
func (t Transform) IsFinite() bool {
	return t.Position.IsFinite() && t.Rotation.IsFinite() && t.Scale.IsFinite()
}
