package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// AngularMotor drives the angular velocity of a rigid body around an axis fixed
// in the body frame, with a bounded torque. It is solved as a body-local
// constraint: it needs no row in the shared jacobian buffer.
type AngularMotor struct {
	// Axis in body space
	Axis        mgl64.Vec3
	TargetSpeed float64 // rad/s
	MaxTorque   float64 // N⋅m
	Enabled     bool

	worldAxis  mgl64.Vec3
	weighted   mgl64.Vec3
	invR       float64
	rhs        float64
	maxImpulse float64
	impulse    float64
}

func NewAngularMotor(axis mgl64.Vec3, targetSpeed, maxTorque float64) *AngularMotor {
	return &AngularMotor{
		Axis:        axis.Normalize(),
		TargetSpeed: targetSpeed,
		MaxTorque:   maxTorque,
		Enabled:     true,
	}
}

// Impulse returns the angular impulse applied during the last step.
func (m *AngularMotor) Impulse() float64 {
	return m.impulse
}

func (m *AngularMotor) setup(rb *RigidBody, extVels []float64, dt float64) {
	m.worldAxis = rb.Transform.Rotation.Rotate(m.Axis)
	m.weighted = rb.inverseInertiaWorld.Mul3x1(m.worldAxis)
	m.invR = m.worldAxis.Dot(m.weighted)
	m.maxImpulse = math.Abs(m.MaxTorque) * dt
	m.impulse = 0

	omega := rb.AngularVelocity()
	if len(extVels) >= rigidBodyNdofs {
		omega = omega.Add(mgl64.Vec3{extVels[3], extVels[4], extVels[5]})
	}
	m.rhs = m.worldAxis.Dot(omega) - m.TargetSpeed
}

func (m *AngularMotor) step(dvels []float64) {
	if m.invR <= 1e-12 {
		return
	}

	dw := mgl64.Vec3{dvels[3], dvels[4], dvels[5]}
	delta := -(m.rhs + m.worldAxis.Dot(dw)) / m.invR

	newImpulse := math.Max(-m.maxImpulse, math.Min(m.maxImpulse, m.impulse+delta))
	delta = newImpulse - m.impulse
	m.impulse = newImpulse

	dvels[3] += m.weighted[0] * delta
	dvels[4] += m.weighted[1] * delta
	dvels[5] += m.weighted[2] * delta
}
