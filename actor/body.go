package actor

import (
	"github.com/akmonengine/moreau/integration"
	"github.com/go-gl/mathgl/mgl64"
)

// BodyType represents the type of a body
type BodyType int

const (
	// BodyTypeDynamic bodies are affected by forces, gravity, and constraints
	BodyTypeDynamic BodyType = iota

	// BodyTypeStatic bodies are immovable and have infinite mass
	BodyTypeStatic

	// BodyTypeKinematic bodies move with a user-given velocity but are not
	// affected by constraints
	BodyTypeKinematic
)

func (t BodyType) String() string {
	switch t {
	case BodyTypeDynamic:
		return "dynamic"
	case BodyTypeStatic:
		return "static"
	case BodyTypeKinematic:
		return "kinematic"
	default:
		return "unknown"
	}
}

// Body is the capability set the solver needs from any simulated body.
//
// Velocities are generalized: a body exposes Ndofs scalar degrees of freedom,
// laid out contiguously at CompanionID in the per-step velocity buffers.
type Body interface {
	Handle() BodyHandle
	Status() BodyType

	// Ndofs is the number of degrees of freedom of the body.
	Ndofs() int
	// StatusDependentNdofs is Ndofs for dynamic bodies and 0 otherwise.
	StatusDependentNdofs() int

	CompanionID() int
	SetCompanionID(id int)

	// GeneralizedVelocity returns the mutable velocity vector of the body.
	GeneralizedVelocity() []float64
	GeneralizedAcceleration() []float64
	UpdateAcceleration(gravity mgl64.Vec3)

	// HasActiveInternalConstraints reports body-local constraints (motors,
	// limits) that must be solved with the external ones.
	HasActiveInternalConstraints() bool
	// SetupInternalVelocityConstraints receives the slice of the free velocity
	// vector belonging to this body.
	SetupInternalVelocityConstraints(extVels []float64, params *integration.Parameters)
	// StepSolveInternalVelocityConstraints runs one relaxation pass on the
	// slice of the correction vector belonging to this body.
	StepSolveInternalVelocityConstraints(dvels []float64)

	// Integrate advances the position from the current velocity.
	Integrate(params *integration.Parameters)
	// ApplyDisplacement moves the body by a generalized displacement.
	ApplyDisplacement(displacement []float64)

	// FillConstraintGeometry writes the jacobian of a unit force applied at
	// point along dir at jacobians[jID:], and the velocity change it induces
	// (M⁻¹Jᵀ) at jacobians[wjID:]. It returns the contribution of the body to
	// the inverse effective mass and to the relative velocity along dir,
	// including extVels when it is not nil.
	FillConstraintGeometry(ndofs int, point mgl64.Vec3, dir ForceDirection, jID, wjID int, jacobians []float64, extVels []float64) (invR, relVel float64)

	WorldTransform() Transform

	// ValidateAdvancement marks the current position as collision-free, as
	// established by a continuous collision sub-step.
	ValidateAdvancement()
}

// ForceDirection is a unit generalized force: a linear force through a point,
// or a pure torque.
type ForceDirection struct {
	Vector  mgl64.Vec3
	Angular bool
}

func LinearDirection(v mgl64.Vec3) ForceDirection {
	return ForceDirection{Vector: v}
}

func AngularDirection(v mgl64.Vec3) ForceDirection {
	return ForceDirection{Vector: v, Angular: true}
}

func (d ForceDirection) Neg() ForceDirection {
	return ForceDirection{Vector: d.Vector.Mul(-1), Angular: d.Angular}
}

// AtPoint expresses the direction as a spatial force [f, τ] applied at the
// lever arm r from the center of mass.
func (d ForceDirection) AtPoint(r mgl64.Vec3) [6]float64 {
	if d.Angular {
		return [6]float64{0, 0, 0, d.Vector[0], d.Vector[1], d.Vector[2]}
	}

	torque := r.Cross(d.Vector)
	return [6]float64{d.Vector[0], d.Vector[1], d.Vector[2], torque[0], torque[1], torque[2]}
}
