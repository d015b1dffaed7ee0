package solver

import (
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/integration"
)

// NonlinearSORProx removes penetrations directly in position space, without
// touching velocities. Its scratch buffers are reused across calls.
type NonlinearSORProx struct {
	jacobians    []float64
	displacement []float64
}

// Solve runs maxIterations passes over the unilateral position rows. Joints
// implementing PositionCorrector are corrected after the contacts on each
// pass; pass a nil slice to leave joints alone.
func (s *NonlinearSORProx) Solve(params *integration.Parameters, bodies *actor.BodySet, constraints []NonlinearUnilateralConstraint, joints []JointConstraint, maxIterations int) {
	for range maxIterations {
		for i := range constraints {
			s.solveUnilateral(bodies, &constraints[i])
		}

		for _, joint := range joints {
			corrector, ok := joint.(PositionCorrector)
			if ok && joint.IsActive(bodies) {
				corrector.SolvePosition(params, bodies)
			}
		}
	}
}

func (s *NonlinearSORProx) solveUnilateral(bodies *actor.BodySet, constraint *NonlinearUnilateralConstraint) {
	body1, body2 := bodies.GetPair(constraint.Body1.Body, constraint.Body2.Body)
	if body1 == nil || body2 == nil {
		return
	}

	depth, world1, world2, normal := constraint.Kinematic.Depth(body1.WorldTransform(), body2.WorldTransform())
	if depth <= constraint.AllowedError {
		return
	}

	ndofs1 := body1.StatusDependentNdofs()
	ndofs2 := body2.StatusDependentNdofs()
	s.jacobians = ensureLen(s.jacobians, rowSize(ndofs1, ndofs2))

	dir := actor.LinearDirection(normal)
	invR1, _ := body1.FillConstraintGeometry(ndofs1, world1, dir.Neg(), 0, ndofs1, s.jacobians, nil)
	invR2, _ := body2.FillConstraintGeometry(ndofs2, world2, dir, 2*ndofs1, 2*ndofs1+ndofs2, s.jacobians, nil)

	invR := invR1 + invR2
	if invR <= 1e-12 {
		return
	}

	lambda := math.Min(depth-constraint.AllowedError, constraint.MaxCorrection) / invR

	if ndofs1 != 0 {
		body1.ApplyDisplacement(s.scaled(s.jacobians[ndofs1:2*ndofs1], lambda))
	}
	if ndofs2 != 0 {
		body2.ApplyDisplacement(s.scaled(s.jacobians[2*ndofs1+ndofs2:], lambda))
	}
}

func (s *NonlinearSORProx) scaled(wj []float64, lambda float64) []float64 {
	s.displacement = ensureLen(s.displacement, len(wj))
	axpy(lambda, wj, s.displacement)
	return s.displacement
}
