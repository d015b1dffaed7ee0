package solver

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/integration"
)

// JointConstraint is a persistent constraint between two body parts.
type JointConstraint interface {
	Anchors() (actor.BodyPartHandle, actor.BodyPartHandle)
	// IsActive reports whether the joint takes part in the step. It is false
	// when an anchor does not resolve anymore.
	IsActive(bodies *actor.BodySet) bool
	// NumVelocityConstraints is the number of rows VelocityConstraints writes.
	NumVelocityConstraints() int
	// VelocityConstraints writes the rows at the cursors with PairGeometry and
	// appends them to set.
	VelocityConstraints(params *integration.Parameters, bodies *actor.BodySet, extVels []float64, cursors *JacobianCursors, jacobians []float64, set *ConstraintSet)
	// CacheImpulses stores the solved impulses for the next warm start.
	CacheImpulses(set *ConstraintSet)
}

// PositionCorrector is implemented by joints able to correct their drift in
// position space.
type PositionCorrector interface {
	SolvePosition(params *integration.Parameters, bodies *actor.BodySet)
}
