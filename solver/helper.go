package solver

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// ConstraintGeometry locates the jacobian blocks of one row written by
// PairGeometry.
type ConstraintGeometry struct {
	J1ID, WJ1ID int
	J2ID, WJ2ID int
	Ndofs1      int
	Ndofs2      int

	AssemblyID1 int
	AssemblyID2 int

	// R is the inverse of the effective mass J M⁻¹ Jᵀ, 0 when no body can move.
	R float64
}

// IsGround reports whether the row belongs to the ground region.
func (g ConstraintGeometry) IsGround() bool {
	return g.Ndofs1 == 0 || g.Ndofs2 == 0
}

// PairGeometry writes the jacobians of a unit generalized force along dir,
// applied negatively on body1 at point1 and positively on body2 at point2. It
// reserves the row at the cursor of the matching region and advances it.
//
// It returns the row geometry and the relative velocity along dir including
// the free velocities extVels.
func PairGeometry(body1, body2 actor.Body, point1, point2 mgl64.Vec3, dir actor.ForceDirection, extVels []float64, jacobians []float64, cursors *JacobianCursors) (ConstraintGeometry, float64) {
	geom := ConstraintGeometry{
		Ndofs1:      body1.StatusDependentNdofs(),
		Ndofs2:      body2.StatusDependentNdofs(),
		AssemblyID1: body1.CompanionID(),
		AssemblyID2: body2.CompanionID(),
	}

	cursor := &cursors.Paired
	if geom.IsGround() {
		cursor = &cursors.Ground
	}

	geom.J1ID = *cursor
	geom.WJ1ID = geom.J1ID + geom.Ndofs1
	geom.J2ID = geom.WJ1ID + geom.Ndofs1
	geom.WJ2ID = geom.J2ID + geom.Ndofs2
	*cursor += rowSize(geom.Ndofs1, geom.Ndofs2)

	invR1, relVel1 := body1.FillConstraintGeometry(geom.Ndofs1, point1, dir.Neg(), geom.J1ID, geom.WJ1ID, jacobians, extVels)
	invR2, relVel2 := body2.FillConstraintGeometry(geom.Ndofs2, point2, dir, geom.J2ID, geom.WJ2ID, jacobians, extVels)

	if invR := invR1 + invR2; invR > 1e-12 {
		geom.R = 1 / invR
	}

	return geom, relVel1 + relVel2
}

// AppendUnilateral adds a non-negative row and returns where it was stored:
// the ground flag and the index in the matching list. It returns -1 when
// neither body can move.
func (c *LinearConstraints) AppendUnilateral(geom ConstraintGeometry, rhs, impulse float64, cacheID int) (bool, int) {
	if geom.Ndofs1 == 0 && geom.Ndofs2 == 0 {
		return true, -1
	}

	if !geom.IsGround() {
		c.Unilateral = append(c.Unilateral, UnilateralConstraint{
			Impulse:     impulse,
			R:           geom.R,
			Rhs:         rhs,
			CacheID:     cacheID,
			AssemblyID1: geom.AssemblyID1,
			AssemblyID2: geom.AssemblyID2,
			J1ID:        geom.J1ID,
			WJ1ID:       geom.WJ1ID,
			J2ID:        geom.J2ID,
			WJ2ID:       geom.WJ2ID,
			Ndofs1:      geom.Ndofs1,
			Ndofs2:      geom.Ndofs2,
		})
		return false, len(c.Unilateral) - 1
	}

	assemblyID, jID, wjID, ndofs := geom.movingSide()
	c.UnilateralGround = append(c.UnilateralGround, UnilateralGroundConstraint{
		Impulse:    impulse,
		R:          geom.R,
		Rhs:        rhs,
		CacheID:    cacheID,
		AssemblyID: assemblyID,
		JID:        jID,
		WJID:       wjID,
		Ndofs:      ndofs,
	})
	return true, len(c.UnilateralGround) - 1
}

// AppendBilateral adds a bounded row, see AppendUnilateral.
func (c *LinearConstraints) AppendBilateral(geom ConstraintGeometry, rhs, impulse float64, cacheID int, limits ImpulseLimits) (bool, int) {
	if geom.Ndofs1 == 0 && geom.Ndofs2 == 0 {
		return true, -1
	}

	if !geom.IsGround() {
		c.Bilateral = append(c.Bilateral, BilateralConstraint{
			Impulse:     impulse,
			R:           geom.R,
			Rhs:         rhs,
			CacheID:     cacheID,
			Limits:      limits,
			AssemblyID1: geom.AssemblyID1,
			AssemblyID2: geom.AssemblyID2,
			J1ID:        geom.J1ID,
			WJ1ID:       geom.WJ1ID,
			J2ID:        geom.J2ID,
			WJ2ID:       geom.WJ2ID,
			Ndofs1:      geom.Ndofs1,
			Ndofs2:      geom.Ndofs2,
		})
		return false, len(c.Bilateral) - 1
	}

	assemblyID, jID, wjID, ndofs := geom.movingSide()
	c.BilateralGround = append(c.BilateralGround, BilateralGroundConstraint{
		Impulse:    impulse,
		R:          geom.R,
		Rhs:        rhs,
		CacheID:    cacheID,
		Limits:     limits,
		AssemblyID: assemblyID,
		JID:        jID,
		WJID:       wjID,
		Ndofs:      ndofs,
	})
	return true, len(c.BilateralGround) - 1
}

func (g ConstraintGeometry) movingSide() (assemblyID, jID, wjID, ndofs int) {
	if g.Ndofs1 != 0 {
		return g.AssemblyID1, g.J1ID, g.WJ1ID, g.Ndofs1
	}
	return g.AssemblyID2, g.J2ID, g.WJ2ID, g.Ndofs2
}
