package moreau

import (
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/akmonengine/moreau/solver"
	"github.com/go-gl/mathgl/mgl64"
)

// sweep is the motion of the body during the last step, from its validated
// position to the integrated one.
func sweep(body *actor.RigidBody, dt float64) detection.Motion {
	start := body.ValidatedTransform
	return detection.Motion{
		Start:   start,
		Linear:  body.Transform.Position.Sub(start.Position).Mul(1 / dt),
		Angular: body.AngularVelocity(),
	}
}

// sweptBounds covers the body all along its motion of the step, whatever its
// rotation.
func sweptBounds(body *actor.RigidBody, margin float64) actor.AABB {
	bounds := body.Shape.GetAABB()
	if radius := body.Shape.BoundingRadius(); !math.IsInf(radius, 1) {
		r := mgl64.Vec3{radius, radius, radius}
		bounds = actor.AABB{Min: body.Transform.Position.Sub(r), Max: body.Transform.Position.Add(r)}
	}

	start := bounds.Translated(body.ValidatedTransform.Position.Sub(body.Transform.Position))
	return start.Union(bounds).Expanded(margin)
}

// solveCCD looks for the earliest impact of every CCD-enabled body along its
// motion of the step. The pair is rewound to the impact and a CCD sub-step
// covers the remaining time. It returns the number of impacts resolved.
func (w *World) solveCCD(bodies []*actor.RigidBody) int {
	dt := w.Parameters.Dt
	target := w.Prediction * 0.5
	impacts := 0

	for _, body := range bodies {
		if !body.CCDEnabled || body.BodyType != actor.BodyTypeDynamic || body.IsTrigger {
			continue
		}

		motion := sweep(body, dt)
		swept := sweptBounds(body, target)
		toi := dt
		var hit *actor.RigidBody

		for _, other := range bodies {
			if other == body || other.IsTrigger || !detection.Supported(body.Shape, other.Shape) {
				continue
			}
			if !swept.Overlaps(sweptBounds(other, target)) {
				continue
			}

			t, ok := detection.TimeOfImpact(body.Shape, motion, other.Shape, sweep(other, dt), toi, target)
			if ok && t > 0 && t < toi {
				toi, hit = t, other
			}
		}

		if hit != nil {
			w.resolveImpact(body, hit, toi)
			impacts++
		}
	}

	return impacts
}

func (w *World) resolveImpact(body, other *actor.RigidBody, toi float64) {
	dt := w.Parameters.Dt
	island := []actor.BodyHandle{body.Handle()}

	if other.BodyType == actor.BodyTypeDynamic {
		other.SetTransform(sweep(other, dt).At(toi))
		island = append(island, other.Handle())
	}
	body.SetTransform(sweep(body, dt).At(toi))

	var manifolds []detection.ContactManifold
	if manifold, ok := detection.Collide(body, other, w.Prediction); ok {
		manifolds = append(manifolds, manifold)
	}

	params := w.Parameters.WithDt(dt - toi)
	w.stepper.StepCCD(&w.Counters, w.Bodies, w.jointsWithin(island), manifolds, [2]actor.BodyHandle{body.Handle(), other.Handle()}, island, &params, w.Materials)

	w.logger.Debug("ccd impact", "body", body.Handle(), "other", other.Handle(), "toi", toi)
}

// jointsWithin returns the joints whose moving anchors all belong to island.
func (w *World) jointsWithin(island []actor.BodyHandle) []solver.JointConstraint {
	inIsland := func(handle actor.BodyHandle) bool {
		for _, h := range island {
			if h == handle {
				return true
			}
		}
		body, ok := w.Bodies.Get(handle)
		return ok && body.StatusDependentNdofs() == 0
	}

	var joints []solver.JointConstraint
	for _, joint := range w.Joints.Constraints() {
		anchor1, anchor2 := joint.Anchors()
		attached := anchor1.Body == island[0] || anchor2.Body == island[0]
		if attached && inIsland(anchor1.Body) && inIsland(anchor2.Body) {
			joints = append(joints, joint)
		}
	}
	return joints
}
