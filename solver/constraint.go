package solver

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
)

// ImpulseLimits bounds the impulse of a bilateral row. Independent limits are
// the constant interval [Min, Max]. Dependent limits are ±Coefficient times the
// impulse of a unilateral row of the same LinearConstraints (Coulomb friction).
type ImpulseLimits struct {
	Dependent bool

	Min float64
	Max float64

	Dependency       int
	DependencyGround bool
	Coefficient      float64
}

func IndependentLimits(lower, upper float64) ImpulseLimits {
	return ImpulseLimits{Min: lower, Max: upper}
}

// DependentLimits refers to the unilateral row at index; ground selects the
// UnilateralGround list.
func DependentLimits(ground bool, index int, coefficient float64) ImpulseLimits {
	return ImpulseLimits{
		Dependent:        true,
		Dependency:       index,
		DependencyGround: ground,
		Coefficient:      coefficient,
	}
}

// UnilateralConstraint is a non-negative impulse row between two bodies with
// degrees of freedom.
type UnilateralConstraint struct {
	Impulse float64
	// R is the inverse of J M⁻¹ Jᵀ.
	R   float64
	Rhs float64
	// CacheID is chosen by the producer to store the impulse back.
	CacheID int

	AssemblyID1 int
	AssemblyID2 int

	J1ID, WJ1ID int
	J2ID, WJ2ID int
	Ndofs1      int
	Ndofs2      int
}

// UnilateralGroundConstraint is a non-negative impulse row acting on a single
// body, the other side having no degree of freedom.
type UnilateralGroundConstraint struct {
	Impulse float64
	R       float64
	Rhs     float64
	CacheID int

	AssemblyID int
	JID, WJID  int
	Ndofs      int
}

type BilateralConstraint struct {
	Impulse float64
	R       float64
	Rhs     float64
	CacheID int
	Limits  ImpulseLimits

	AssemblyID1 int
	AssemblyID2 int

	J1ID, WJ1ID int
	J2ID, WJ2ID int
	Ndofs1      int
	Ndofs2      int
}

type BilateralGroundConstraint struct {
	Impulse float64
	R       float64
	Rhs     float64
	CacheID int
	Limits  ImpulseLimits

	AssemblyID int
	JID, WJID  int
	Ndofs      int
}

// LinearConstraints are the velocity-level rows of one step.
type LinearConstraints struct {
	Unilateral       []UnilateralConstraint
	UnilateralGround []UnilateralGroundConstraint
	Bilateral        []BilateralConstraint
	BilateralGround  []BilateralGroundConstraint
}

func (c *LinearConstraints) Len() int {
	return len(c.Unilateral) + len(c.UnilateralGround) + len(c.Bilateral) + len(c.BilateralGround)
}

func (c *LinearConstraints) Clear() {
	c.Unilateral = c.Unilateral[:0]
	c.UnilateralGround = c.UnilateralGround[:0]
	c.Bilateral = c.Bilateral[:0]
	c.BilateralGround = c.BilateralGround[:0]
}

// NonlinearUnilateralConstraint is a non-penetration row solved in position
// space. The contact frame is kept in the local space of both bodies so the
// depth can be recomputed after each correction.
type NonlinearUnilateralConstraint struct {
	Body1 actor.BodyPartHandle
	Body2 actor.BodyPartHandle

	Kinematic detection.TrackedContact

	// AllowedError is the penetration left uncorrected (slop).
	AllowedError float64
	// MaxCorrection bounds the correction applied in one pass.
	MaxCorrection float64
}

type NonlinearConstraints struct {
	Unilateral []NonlinearUnilateralConstraint
}

func (c *NonlinearConstraints) Len() int {
	return len(c.Unilateral)
}

func (c *NonlinearConstraints) Clear() {
	c.Unilateral = c.Unilateral[:0]
}

// ConstraintSet holds the rows produced by one category of constraints
// (contacts or joints) for exactly one step.
type ConstraintSet struct {
	Velocity LinearConstraints
	Position NonlinearConstraints
}

func (set *ConstraintSet) Clear() {
	set.Velocity.Clear()
	set.Position.Clear()
}
