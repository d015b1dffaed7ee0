package actor

import (
	"math"

	"github.com/akmonengine/moreau/integration"
	"github.com/go-gl/mathgl/mgl64"
)

const rigidBodyNdofs = 6

type Material struct {
	Density     float64
	mass        float64
	Restitution float64 // 0= no rebound, 1= perfect restitution

	Friction       float64
	LinearDamping  float64 // 0.0 - 1.0, typically 0.01
	AngularDamping float64 // 0.0 - 1.0, typically 0.05
}

func (material Material) GetMass() float64 {
	return material.mass
}

// RigidBody represents a rigid body in the physics simulation.
//
// Its generalized velocity is [vx, vy, vz, ωx, ωy, ωz], the angular part being
// expressed in world space around the center of mass.
type RigidBody struct {
	handle      BodyHandle
	companionID int

	// Spatial properties
	Transform Transform
	// ValidatedTransform is the last position known to be collision-free.
	ValidatedTransform Transform

	velocity     [rigidBodyNdofs]float64
	acceleration [rigidBodyNdofs]float64

	// Inertia
	InertiaLocal        mgl64.Mat3
	InverseInertiaLocal mgl64.Mat3
	inertiaWorld        mgl64.Mat3
	inverseInertiaWorld mgl64.Mat3
	inverseMass         float64

	accumulatedForce  mgl64.Vec3
	accumulatedTorque mgl64.Vec3

	// Physical properties
	Material Material
	BodyType BodyType

	// Collision shape
	Shape ShapeInterface

	// Motor is an optional internal constraint driving the angular velocity.
	Motor *AngularMotor
	// CCDEnabled makes the world sweep this body against the others.
	CCDEnabled bool
	// IsTrigger bodies report overlaps as events and never get contact
	// constraints.
	IsTrigger bool
}

// NewRigidBody creates a new rigid body with the given properties
// density is used to calculate mass for dynamic bodies (ignored otherwise)
func NewRigidBody(transform Transform, shape ShapeInterface, bodyType BodyType, density float64) *RigidBody {
	transform = transform.normalized()
	rb := &RigidBody{
		Transform:          transform,
		ValidatedTransform: transform,
		Shape:              shape,
		BodyType:           bodyType,
	}

	if bodyType == BodyTypeDynamic {
		rb.Material = Material{
			Density: density,
			mass:    shape.ComputeMass(density),
		}
		rb.InertiaLocal = shape.ComputeInertia(rb.Material.mass)
		rb.InverseInertiaLocal = rb.InertiaLocal.Inv()
		if rb.Material.mass > 0 && !math.IsInf(rb.Material.mass, 1) {
			rb.inverseMass = 1.0 / rb.Material.mass
		}
	} else {
		// Static and kinematic bodies have infinite mass
		rb.Material = Material{
			mass: math.Inf(1),
		}
	}

	rb.UpdateKinematics()

	return rb
}

// RigidBodyDesc describes a rigid body to add to a BodySet.
type RigidBodyDesc struct {
	Transform Transform
	Shape     ShapeInterface
	BodyType  BodyType
	Density   float64

	Restitution    float64
	Friction       float64
	LinearDamping  float64
	AngularDamping float64

	LinearVelocity  mgl64.Vec3
	AngularVelocity mgl64.Vec3

	Motor      *AngularMotor
	CCDEnabled bool
	IsTrigger  bool
}

func (desc RigidBodyDesc) BuildWithHandle(handle BodyHandle) *RigidBody {
	rb := NewRigidBody(desc.Transform, desc.Shape, desc.BodyType, desc.Density)
	rb.handle = handle

	rb.Material.Restitution = desc.Restitution
	rb.Material.Friction = desc.Friction
	rb.Material.LinearDamping = desc.LinearDamping
	rb.Material.AngularDamping = desc.AngularDamping

	if desc.BodyType != BodyTypeStatic {
		rb.SetLinearVelocity(desc.LinearVelocity)
		rb.SetAngularVelocity(desc.AngularVelocity)
	}
	rb.Motor = desc.Motor
	rb.CCDEnabled = desc.CCDEnabled
	rb.IsTrigger = desc.IsTrigger

	return rb
}

// AddRigidBody is AddBody specialised for rigid body descriptors.
func (set *BodySet) AddRigidBody(desc RigidBodyDesc) (BodyHandle, *RigidBody) {
	return AddBody[*RigidBody](set, desc)
}

func (rb *RigidBody) Handle() BodyHandle { return rb.handle }
func (rb *RigidBody) Status() BodyType   { return rb.BodyType }
func (rb *RigidBody) Ndofs() int         { return rigidBodyNdofs }

func (rb *RigidBody) StatusDependentNdofs() int {
	if rb.BodyType == BodyTypeDynamic {
		return rigidBodyNdofs
	}
	return 0
}

func (rb *RigidBody) CompanionID() int      { return rb.companionID }
func (rb *RigidBody) SetCompanionID(id int) { rb.companionID = id }

func (rb *RigidBody) GeneralizedVelocity() []float64     { return rb.velocity[:] }
func (rb *RigidBody) GeneralizedAcceleration() []float64 { return rb.acceleration[:] }

func (rb *RigidBody) LinearVelocity() mgl64.Vec3 {
	return mgl64.Vec3{rb.velocity[0], rb.velocity[1], rb.velocity[2]}
}

func (rb *RigidBody) AngularVelocity() mgl64.Vec3 {
	return mgl64.Vec3{rb.velocity[3], rb.velocity[4], rb.velocity[5]}
}

func (rb *RigidBody) SetLinearVelocity(v mgl64.Vec3) {
	rb.velocity[0], rb.velocity[1], rb.velocity[2] = v[0], v[1], v[2]
}

func (rb *RigidBody) SetAngularVelocity(w mgl64.Vec3) {
	rb.velocity[3], rb.velocity[4], rb.velocity[5] = w[0], w[1], w[2]
}

func (rb *RigidBody) InverseMass() float64 {
	return rb.inverseMass
}

// AddForce accumulates a force (N) applied at the center of mass until the next ClearForces
func (rb *RigidBody) AddForce(force mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.accumulatedForce = rb.accumulatedForce.Add(force)
	}
}

// AddTorque accumulates a torque (N⋅m) until the next ClearForces
func (rb *RigidBody) AddTorque(torque mgl64.Vec3) {
	if rb.BodyType == BodyTypeDynamic {
		rb.accumulatedTorque = rb.accumulatedTorque.Add(torque)
	}
}

func (rb *RigidBody) ClearForces() {
	rb.accumulatedForce = mgl64.Vec3{0, 0, 0}
	rb.accumulatedTorque = mgl64.Vec3{0, 0, 0}
}

// UpdateAcceleration computes the acceleration due to gravity, the accumulated
// forces, and the gyroscopic torque ω × Iω.
func (rb *RigidBody) UpdateAcceleration(gravity mgl64.Vec3) {
	rb.acceleration = [rigidBodyNdofs]float64{}
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	linear := gravity.Add(rb.accumulatedForce.Mul(rb.inverseMass))

	omega := rb.AngularVelocity()
	gyroscopic := omega.Cross(rb.inertiaWorld.Mul3x1(omega))
	angular := rb.inverseInertiaWorld.Mul3x1(rb.accumulatedTorque.Sub(gyroscopic))

	rb.acceleration = [rigidBodyNdofs]float64{linear[0], linear[1], linear[2], angular[0], angular[1], angular[2]}
}

// Integrate advances the position and orientation from the current velocity.
func (rb *RigidBody) Integrate(params *integration.Parameters) {
	if rb.BodyType == BodyTypeStatic {
		return
	}
	dt := params.Dt

	if rb.BodyType == BodyTypeDynamic {
		linear := rb.LinearVelocity().Mul(math.Exp(-rb.Material.LinearDamping * dt))
		angular := rb.AngularVelocity().Mul(math.Exp(-rb.Material.AngularDamping * dt))
		rb.SetLinearVelocity(linear)
		rb.SetAngularVelocity(angular)
	}

	rb.Transform.Position = rb.Transform.Position.Add(rb.LinearVelocity().Mul(dt))
	rotation := RotationFromScaledAxis(rb.AngularVelocity().Mul(dt))
	rb.Transform.Rotation = rotation.Mul(rb.Transform.Rotation).Normalize()

	rb.UpdateKinematics()
}

// ApplyDisplacement translates by displacement[0:3] and rotates by the scaled
// axis displacement[3:6].
func (rb *RigidBody) ApplyDisplacement(displacement []float64) {
	if rb.BodyType != BodyTypeDynamic {
		return
	}

	translation := mgl64.Vec3{displacement[0], displacement[1], displacement[2]}
	rotation := RotationFromScaledAxis(mgl64.Vec3{displacement[3], displacement[4], displacement[5]})

	rb.Transform.Position = rb.Transform.Position.Add(translation)
	rb.Transform.Rotation = rotation.Mul(rb.Transform.Rotation).Normalize()

	rb.UpdateKinematics()
}

// SetTransform teleports the body.
func (rb *RigidBody) SetTransform(transform Transform) {
	rb.Transform = transform.normalized()
	rb.UpdateKinematics()
}

// UpdateKinematics refreshes every quantity depending on the orientation:
// inverse rotation, world inertia, bounding box.
func (rb *RigidBody) UpdateKinematics() {
	rb.Transform.InverseRotation = rb.Transform.Rotation.Inverse()

	if rb.BodyType == BodyTypeDynamic {
		// I_world = R * I_local * R^T
		R := rb.Transform.Rotation.Mat4().Mat3()
		rb.inertiaWorld = R.Mul3(rb.InertiaLocal).Mul3(R.Transpose())
		rb.inverseInertiaWorld = R.Mul3(rb.InverseInertiaLocal).Mul3(R.Transpose())
	} else {
		rb.inertiaWorld = mgl64.Mat3{}
		rb.inverseInertiaWorld = mgl64.Mat3{}
	}

	if rb.Shape != nil {
		rb.Shape.ComputeAABB(rb.Transform)
	}
}

// Inertia in world space
func (rb *RigidBody) GetInertiaWorld() mgl64.Mat3 {
	return rb.inertiaWorld
}

// Inverse of the inertia in world space, zero for non-dynamic bodies
func (rb *RigidBody) GetInverseInertiaWorld() mgl64.Mat3 {
	return rb.inverseInertiaWorld
}

func (rb *RigidBody) FillConstraintGeometry(ndofs int, point mgl64.Vec3, dir ForceDirection, jID, wjID int, jacobians []float64, extVels []float64) (invR, relVel float64) {
	if rb.BodyType == BodyTypeStatic {
		return 0, 0
	}

	force := dir.AtPoint(point.Sub(rb.Transform.Position))
	relVel = dot6(force[:], rb.velocity[:])

	if rb.BodyType == BodyTypeKinematic || ndofs == 0 {
		return 0, relVel
	}

	linear := mgl64.Vec3{force[0], force[1], force[2]}.Mul(rb.inverseMass)
	angular := rb.inverseInertiaWorld.Mul3x1(mgl64.Vec3{force[3], force[4], force[5]})
	weighted := [rigidBodyNdofs]float64{linear[0], linear[1], linear[2], angular[0], angular[1], angular[2]}

	copy(jacobians[jID:jID+rigidBodyNdofs], force[:])
	copy(jacobians[wjID:wjID+rigidBodyNdofs], weighted[:])

	invR = dot6(force[:], weighted[:])
	if extVels != nil {
		relVel += dot6(force[:], extVels[rb.companionID:rb.companionID+rigidBodyNdofs])
	}

	return invR, relVel
}

func (rb *RigidBody) WorldTransform() Transform {
	return rb.Transform
}

func (rb *RigidBody) ValidateAdvancement() {
	rb.ValidatedTransform = rb.Transform
}

func (rb *RigidBody) HasActiveInternalConstraints() bool {
	return rb.BodyType == BodyTypeDynamic && rb.Motor != nil && rb.Motor.Enabled
}

func (rb *RigidBody) SetupInternalVelocityConstraints(extVels []float64, params *integration.Parameters) {
	if !rb.HasActiveInternalConstraints() {
		return
	}
	rb.Motor.setup(rb, extVels, params.Dt)
}

func (rb *RigidBody) StepSolveInternalVelocityConstraints(dvels []float64) {
	if !rb.HasActiveInternalConstraints() {
		return
	}
	rb.Motor.step(dvels)
}

// KineticEnergy returns ½mv² + ½ωᵀIω.
func (rb *RigidBody) KineticEnergy() float64 {
	if rb.BodyType != BodyTypeDynamic {
		return 0
	}
	v := rb.LinearVelocity()
	w := rb.AngularVelocity()
	return 0.5*rb.Material.mass*v.Dot(v) + 0.5*w.Dot(rb.inertiaWorld.Mul3x1(w))
}

func dot6(a, b []float64) float64 {
	var sum float64
	for i := 0; i < rigidBodyNdofs; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
