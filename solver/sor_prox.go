package solver

import (
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// SORProx is a projected successive over-relaxation solver (sequential
// impulses) for velocity constraints. It runs a fixed number of passes and
// never tests for convergence.
type SORProx struct{}

// Solve computes in dvels the velocity correction induced by every row.
// dvels is indexed by companion id; it is overwritten with the warm start
// given by the initial impulses of the rows.
func (SORProx) Solve(bodies *actor.BodySet, contacts, joints *LinearConstraints, internal []actor.BodyHandle, dvels, jacobians []float64, maxIterations int) {
	clear(dvels)
	warmstart(contacts, dvels, jacobians)
	warmstart(joints, dvels, jacobians)

	for range maxIterations {
		step(contacts, dvels, jacobians)
		step(joints, dvels, jacobians)

		for _, handle := range internal {
			body, ok := bodies.Get(handle)
			if !ok {
				continue
			}
			id := body.CompanionID()
			body.StepSolveInternalVelocityConstraints(dvels[id : id+body.StatusDependentNdofs()])
		}
	}
}

// Residual returns the largest impulse change one more pass would apply to a
// single row. It does not modify anything.
func (SORProx) Residual(contacts, joints *LinearConstraints, dvels, jacobians []float64) float64 {
	return math.Max(residual(contacts, dvels, jacobians), residual(joints, dvels, jacobians))
}

func warmstart(c *LinearConstraints, dvels, jacobians []float64) {
	for _, row := range c.Unilateral {
		axpy(row.Impulse, jacobians[row.WJ1ID:row.WJ1ID+row.Ndofs1], dvels[row.AssemblyID1:])
		axpy(row.Impulse, jacobians[row.WJ2ID:row.WJ2ID+row.Ndofs2], dvels[row.AssemblyID2:])
	}
	for _, row := range c.UnilateralGround {
		axpy(row.Impulse, jacobians[row.WJID:row.WJID+row.Ndofs], dvels[row.AssemblyID:])
	}
	for _, row := range c.Bilateral {
		axpy(row.Impulse, jacobians[row.WJ1ID:row.WJ1ID+row.Ndofs1], dvels[row.AssemblyID1:])
		axpy(row.Impulse, jacobians[row.WJ2ID:row.WJ2ID+row.Ndofs2], dvels[row.AssemblyID2:])
	}
	for _, row := range c.BilateralGround {
		axpy(row.Impulse, jacobians[row.WJID:row.WJID+row.Ndofs], dvels[row.AssemblyID:])
	}
}

func step(c *LinearConstraints, dvels, jacobians []float64) {
	for i := range c.Unilateral {
		row := &c.Unilateral[i]
		delta := updateImpulse(&row.Impulse, math.Max(0, row.Impulse-row.R*row.velocity(dvels, jacobians)))
		axpy(delta, jacobians[row.WJ1ID:row.WJ1ID+row.Ndofs1], dvels[row.AssemblyID1:])
		axpy(delta, jacobians[row.WJ2ID:row.WJ2ID+row.Ndofs2], dvels[row.AssemblyID2:])
	}

	for i := range c.UnilateralGround {
		row := &c.UnilateralGround[i]
		delta := updateImpulse(&row.Impulse, math.Max(0, row.Impulse-row.R*row.velocity(dvels, jacobians)))
		axpy(delta, jacobians[row.WJID:row.WJID+row.Ndofs], dvels[row.AssemblyID:])
	}

	for i := range c.Bilateral {
		row := &c.Bilateral[i]
		lower, upper := c.bounds(row.Limits)
		delta := updateImpulse(&row.Impulse, mgl64.Clamp(row.Impulse-row.R*row.velocity(dvels, jacobians), lower, upper))
		axpy(delta, jacobians[row.WJ1ID:row.WJ1ID+row.Ndofs1], dvels[row.AssemblyID1:])
		axpy(delta, jacobians[row.WJ2ID:row.WJ2ID+row.Ndofs2], dvels[row.AssemblyID2:])
	}

	for i := range c.BilateralGround {
		row := &c.BilateralGround[i]
		lower, upper := c.bounds(row.Limits)
		delta := updateImpulse(&row.Impulse, mgl64.Clamp(row.Impulse-row.R*row.velocity(dvels, jacobians), lower, upper))
		axpy(delta, jacobians[row.WJID:row.WJID+row.Ndofs], dvels[row.AssemblyID:])
	}
}

func residual(c *LinearConstraints, dvels, jacobians []float64) float64 {
	var worst float64

	for _, row := range c.Unilateral {
		worst = math.Max(worst, math.Abs(math.Max(0, row.Impulse-row.R*row.velocity(dvels, jacobians))-row.Impulse))
	}
	for _, row := range c.UnilateralGround {
		worst = math.Max(worst, math.Abs(math.Max(0, row.Impulse-row.R*row.velocity(dvels, jacobians))-row.Impulse))
	}
	for _, row := range c.Bilateral {
		lower, upper := c.bounds(row.Limits)
		worst = math.Max(worst, math.Abs(mgl64.Clamp(row.Impulse-row.R*row.velocity(dvels, jacobians), lower, upper)-row.Impulse))
	}
	for _, row := range c.BilateralGround {
		lower, upper := c.bounds(row.Limits)
		worst = math.Max(worst, math.Abs(mgl64.Clamp(row.Impulse-row.R*row.velocity(dvels, jacobians), lower, upper)-row.Impulse))
	}

	return worst
}

// bounds resolves the impulse interval of a bilateral row.
func (c *LinearConstraints) bounds(limits ImpulseLimits) (float64, float64) {
	if !limits.Dependent {
		return limits.Min, limits.Max
	}

	var normal float64
	if limits.DependencyGround {
		normal = c.UnilateralGround[limits.Dependency].Impulse
	} else {
		normal = c.Unilateral[limits.Dependency].Impulse
	}
	bound := limits.Coefficient * normal
	return -bound, bound
}

// velocity is the constraint velocity J·(v + dv): the free part is in Rhs.
func (row *UnilateralConstraint) velocity(dvels, jacobians []float64) float64 {
	return dot(jacobians[row.J1ID:row.J1ID+row.Ndofs1], dvels[row.AssemblyID1:row.AssemblyID1+row.Ndofs1]) +
		dot(jacobians[row.J2ID:row.J2ID+row.Ndofs2], dvels[row.AssemblyID2:row.AssemblyID2+row.Ndofs2]) +
		row.Rhs
}

func (row *UnilateralGroundConstraint) velocity(dvels, jacobians []float64) float64 {
	return dot(jacobians[row.JID:row.JID+row.Ndofs], dvels[row.AssemblyID:row.AssemblyID+row.Ndofs]) + row.Rhs
}

func (row *BilateralConstraint) velocity(dvels, jacobians []float64) float64 {
	return dot(jacobians[row.J1ID:row.J1ID+row.Ndofs1], dvels[row.AssemblyID1:row.AssemblyID1+row.Ndofs1]) +
		dot(jacobians[row.J2ID:row.J2ID+row.Ndofs2], dvels[row.AssemblyID2:row.AssemblyID2+row.Ndofs2]) +
		row.Rhs
}

func (row *BilateralGroundConstraint) velocity(dvels, jacobians []float64) float64 {
	return dot(jacobians[row.JID:row.JID+row.Ndofs], dvels[row.AssemblyID:row.AssemblyID+row.Ndofs]) + row.Rhs
}

// updateImpulse stores the projected impulse and returns the increment.
func updateImpulse(impulse *float64, projected float64) float64 {
	delta := projected - *impulse
	*impulse = projected
	return delta
}
