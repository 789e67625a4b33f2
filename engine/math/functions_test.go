package math

import (
	m "math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMat4MulIdentity(t *testing.T) {
	tr := NewMat4Translation(NewVec3(4, 5, 6))

	assert.True(t, tr.Mul(NewMat4Identity()).Compare(tr, tolerance))
	assert.True(t, NewMat4Identity().Mul(tr).Compare(tr, tolerance))
}

func TestMat4MulTranslationsAccumulate(t *testing.T) {
	a := NewMat4Translation(NewVec3(1, 0, 0))
	b := NewMat4Translation(NewVec3(0, 2, 0))

	got := a.Mul(b).Translation()
	assert.True(t, got.Compare(NewVec3(1, 2, 0), tolerance))
}

func TestMat4IsFinite(t *testing.T) {
	assert.True(t, NewMat4Identity().IsFinite())

	bad := NewMat4Identity()
	bad.Data[10] = float32(m.NaN())
	assert.False(t, bad.IsFinite())

	bad = NewMat4Identity()
	bad.Data[3] = float32(m.Inf(-1))
	assert.False(t, bad.IsFinite())
}

func TestQuatToMat4Identity(t *testing.T) {
	q := NewQuatIdentity()
	assert.True(t, q.ToMat4().Compare(NewMat4Identity(), tolerance))
}

func TestQuatFromEulerMatchesAxisAngle(t *testing.T) {
	fromEuler := NewQuatFromEuler(0, K_HALF_PI, 0)
	fromAxis := NewQuatFromAxisAngle(NewVec3Up(), K_HALF_PI, true)

	assert.True(t, fromEuler.ToMat4().Compare(fromAxis.ToMat4(), 1e-4))
}

func TestVec3Ops(t *testing.T) {
	v := NewVec3(3, 0, 4)

	assert.InDelta(t, 5.0, float64(v.Length()), 1e-5)
	assert.InDelta(t, 1.0, float64(v.Normalize().Length()), 1e-5)
	assert.InDelta(t, 0.0, float64(NewVec3(1, 0, 0).Dot(NewVec3(0, 1, 0))), 1e-6)
	assert.True(t, NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)).Compare(NewVec3(0, 0, 1), tolerance))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 5, Clamp(7, 0, 5))
	assert.Equal(t, 0, Clamp(-1, 0, 5))
	assert.Equal(t, 3, Clamp(3, 0, 5))
	assert.Equal(t, float32(2.5), Clamp(float32(2.5), float32(0), float32(5)))
}
