package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Transform represents a position and an orientation in 3D space
type Transform struct {
	Position        mgl64.Vec3
	Rotation        mgl64.Quat
	InverseRotation mgl64.Quat
}

// NewTransform creates an identity transform
func NewTransform() Transform {
	return Transform{
		Position:        mgl64.Vec3{0, 0, 0},
		Rotation:        mgl64.QuatIdent(),
		InverseRotation: mgl64.QuatIdent(),
	}
}

// normalized fixes a zero rotation (struct literal without Rotation) and
// refreshes the cached inverse.
func (t Transform) normalized() Transform {
	if t.Rotation.Len() < 1e-12 {
		t.Rotation = mgl64.QuatIdent()
	}
	t.Rotation = t.Rotation.Normalize()
	t.InverseRotation = t.Rotation.Inverse()
	return t
}

// Apply maps a local point to world space.
func (t Transform) Apply(local mgl64.Vec3) mgl64.Vec3 {
	return t.Rotation.Rotate(local).Add(t.Position)
}

// ApplyInverse maps a world point to local space.
func (t Transform) ApplyInverse(world mgl64.Vec3) mgl64.Vec3 {
	return t.InverseRotation.Rotate(world.Sub(t.Position))
}

// RotationFromScaledAxis builds the rotation of angle |v| around v.
func RotationFromScaledAxis(v mgl64.Vec3) mgl64.Quat {
	angle := v.Len()
	if angle < 1e-12 {
		return mgl64.QuatIdent()
	}
	return mgl64.QuatRotate(angle, v.Mul(1.0/angle))
}

// Lerp interpolates the position between t and to; the orientation of to is
// kept as is.
func (t Transform) Lerp(to Transform, alpha float64) Transform {
	alpha = math.Max(0, math.Min(1, alpha))
	to.Position = t.Position.Add(to.Position.Sub(t.Position).Mul(alpha))
	return to
}
