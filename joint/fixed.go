package joint

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/integration"
	"github.com/akmonengine/moreau/solver"
)

// FixedConstraint welds two frames together: no relative translation nor
// rotation.
type FixedConstraint struct {
	link
}

func NewFixedConstraint(body1, body2 actor.BodyPartHandle, frame1, frame2 Frame) *FixedConstraint {
	return &FixedConstraint{link: newLink(body1, body2, frame1, frame2, 6)}
}

func (c *FixedConstraint) VelocityConstraints(params *integration.Parameters, bodies *actor.BodySet, extVels []float64, cursors *solver.JacobianCursors, jacobians []float64, set *solver.ConstraintSet) {
	body1, body2, frame1, frame2, ok := c.resolve(bodies)
	if !ok {
		return
	}

	delta := frame2.Position.Sub(frame1.Position)
	for k, axis := range axes {
		c.row(k, params, body1, body2, frame1.Position, frame2.Position, actor.LinearDirection(axis), delta.Dot(axis), extVels, cursors, jacobians, set)
	}

	rotation := scaledAxis(frame2.Rotation.Mul(frame1.Rotation.Inverse()))
	for k, axis := range axes {
		c.row(3+k, params, body1, body2, frame1.Position, frame2.Position, actor.AngularDirection(axis), rotation.Dot(axis), extVels, cursors, jacobians, set)
	}
}

// SolvePosition removes the translation error first, then the rotation error.
func (c *FixedConstraint) SolvePosition(params *integration.Parameters, bodies *actor.BodySet) {
	body1, body2, frame1, frame2, ok := c.resolve(bodies)
	if !ok {
		return
	}

	delta := frame2.Position.Sub(frame1.Position)
	if distance := delta.Len(); distance > c.AllowedError {
		c.correct(body1, body2, frame1.Position, frame2.Position, actor.LinearDirection(delta.Mul(1/distance)), distance)
		frame1 = c.frame1.world(body1.WorldTransform())
		frame2 = c.frame2.world(body2.WorldTransform())
	}

	rotation := scaledAxis(frame2.Rotation.Mul(frame1.Rotation.Inverse()))
	if angle := rotation.Len(); angle > c.AllowedError {
		c.correct(body1, body2, frame1.Position, frame2.Position, actor.AngularDirection(rotation.Mul(1/angle)), angle)
	}
}

// Error returns the distance and the angle between both frames.
func (c *FixedConstraint) Error(bodies *actor.BodySet) (float64, float64) {
	_, _, frame1, frame2, ok := c.resolve(bodies)
	if !ok {
		return 0, 0
	}
	return frame2.Position.Sub(frame1.Position).Len(), scaledAxis(frame2.Rotation.Mul(frame1.Rotation.Inverse())).Len()
}
