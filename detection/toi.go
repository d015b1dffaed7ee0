package detection

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

const maxAdvancementIterations = 32

// Motion is a rigid motion with constant velocities from a start transform.
type Motion struct {
	Start   actor.Transform
	Linear  mgl64.Vec3
	Angular mgl64.Vec3
}

// At returns the transform reached after t seconds.
func (m Motion) At(t float64) actor.Transform {
	rotation := actor.RotationFromScaledAxis(m.Angular.Mul(t)).Mul(m.Start.Rotation).Normalize()

	return actor.Transform{
		Position:        m.Start.Position.Add(m.Linear.Mul(t)),
		Rotation:        rotation,
		InverseRotation: rotation.Inverse(),
	}
}

// TimeOfImpact computes by conservative advancement the first time in
// [0, maxToi] at which both shapes come closer than target. It reports false
// when no impact happens before maxToi, when the pair is unsupported, or when
// the advancement has not reached the target within its iteration budget.
func TimeOfImpact(shape1 actor.ShapeInterface, motion1 Motion, shape2 actor.ShapeInterface, motion2 Motion, maxToi, target float64) (float64, bool) {
	if !Supported(shape1, shape2) {
		return 0, false
	}

	relative := motion2.Linear.Sub(motion1.Linear).Len()
	bound := relative + angularBound(shape1, motion1) + angularBound(shape2, motion2)

	t := 0.0
	for range maxAdvancementIterations {
		distance, ok := Distance(shape1, motion1.At(t), shape2, motion2.At(t))
		if !ok {
			return 0, false
		}
		if distance <= target {
			return t, true
		}
		if bound <= 1e-12 {
			return 0, false
		}

		// the shapes cannot close the gap faster than bound
		t += (distance - target*0.5) / bound
		if t > maxToi {
			return 0, false
		}
	}

	if distance, ok := Distance(shape1, motion1.At(t), shape2, motion2.At(t)); ok && distance <= target {
		return t, true
	}
	return 0, false
}

func angularBound(shape actor.ShapeInterface, motion Motion) float64 {
	speed := motion.Angular.Len()
	if speed == 0 {
		return 0
	}
	return speed * shape.BoundingRadius()
}
