package joint

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/integration"
	"github.com/akmonengine/moreau/solver"
)

// BallConstraint pins a point of body1 to a point of body2, leaving the three
// relative rotations free.
type BallConstraint struct {
	link
}

// NewBallConstraint joins anchor1, local to body1, with anchor2, local to
// body2. Use actor.GroundPartHandle to pin a body to the world, with anchor1
// in world space.
func NewBallConstraint(body1, body2 actor.BodyPartHandle, anchor1, anchor2 Frame) *BallConstraint {
	return &BallConstraint{link: newLink(body1, body2, anchor1, anchor2, 3)}
}

func (c *BallConstraint) VelocityConstraints(params *integration.Parameters, bodies *actor.BodySet, extVels []float64, cursors *solver.JacobianCursors, jacobians []float64, set *solver.ConstraintSet) {
	body1, body2, frame1, frame2, ok := c.resolve(bodies)
	if !ok {
		return
	}

	delta := frame2.Position.Sub(frame1.Position)
	for k, axis := range axes {
		c.row(k, params, body1, body2, frame1.Position, frame2.Position, actor.LinearDirection(axis), delta.Dot(axis), extVels, cursors, jacobians, set)
	}
}

// SolvePosition moves the bodies so that both anchors meet.
func (c *BallConstraint) SolvePosition(params *integration.Parameters, bodies *actor.BodySet) {
	body1, body2, frame1, frame2, ok := c.resolve(bodies)
	if !ok {
		return
	}

	delta := frame2.Position.Sub(frame1.Position)
	distance := delta.Len()
	if distance <= c.AllowedError {
		return
	}

	c.correct(body1, body2, frame1.Position, frame2.Position, actor.LinearDirection(delta.Mul(1/distance)), distance)
}

// Error is the distance between both anchors.
func (c *BallConstraint) Error(bodies *actor.BodySet) float64 {
	_, _, frame1, frame2, ok := c.resolve(bodies)
	if !ok {
		return 0
	}
	return frame2.Position.Sub(frame1.Position).Len()
}
