package solver

import (
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/akmonengine/moreau/integration"
	"github.com/go-gl/mathgl/mgl64"
)

var gravity = mgl64.Vec3{0, -9.81, 0}

func testParams() *integration.Parameters {
	params := integration.DefaultParameters()
	return &params
}

func addPlane(set *actor.BodySet) *actor.RigidBody {
	_, rb := set.AddRigidBody(actor.RigidBodyDesc{
		Transform: actor.NewTransform(),
		Shape:     &actor.Plane{Normal: mgl64.Vec3{0, 1, 0}},
		BodyType:  actor.BodyTypeStatic,
		Friction:  0.5,
	})
	return rb
}

func addBox(set *actor.BodySet, position mgl64.Vec3, halfExtent float64) *actor.RigidBody {
	_, rb := set.AddRigidBody(actor.RigidBodyDesc{
		Transform: actor.Transform{Position: position},
		Shape:     &actor.Box{HalfExtents: mgl64.Vec3{halfExtent, halfExtent, halfExtent}},
		BodyType:  actor.BodyTypeDynamic,
		Density:   1,
		Friction:  0.5,
	})
	return rb
}

func addSphere(set *actor.BodySet, position mgl64.Vec3, radius float64) *actor.RigidBody {
	_, rb := set.AddRigidBody(actor.RigidBodyDesc{
		Transform: actor.Transform{Position: position},
		Shape:     &actor.Sphere{Radius: radius},
		BodyType:  actor.BodyTypeDynamic,
		Density:   1,
	})
	return rb
}

// collide builds the manifolds of the given pairs
func collide(prediction float64, pairs ...[2]*actor.RigidBody) []detection.ContactManifold {
	var manifolds []detection.ContactManifold
	for _, pair := range pairs {
		if manifold, ok := detection.Collide(pair[0], pair[1], prediction); ok {
			manifolds = append(manifolds, manifold)
		}
	}
	return manifolds
}

// maxDepth returns the deepest penetration among manifolds
func maxDepth(manifolds []detection.ContactManifold) float64 {
	depth := math.Inf(-1)
	for i := range manifolds {
		if deepest, ok := manifolds[i].DeepestContact(); ok {
			depth = math.Max(depth, deepest.Contact.Depth)
		}
	}
	return depth
}

// sentinelJoint reserves its jacobian slots and fills them with its sentinel,
// counting the slots another producer already wrote.
type sentinelJoint struct {
	anchor1, anchor2 actor.BodyHandle
	rows             int
	sentinel         float64
	inactive         bool
	short            bool

	overlaps int
	cached   int
}

func (j *sentinelJoint) Anchors() (actor.BodyPartHandle, actor.BodyPartHandle) {
	return actor.BodyPartHandle{Body: j.anchor1}, actor.BodyPartHandle{Body: j.anchor2}
}

func (j *sentinelJoint) IsActive(*actor.BodySet) bool { return !j.inactive }
func (j *sentinelJoint) NumVelocityConstraints() int  { return j.rows }
func (j *sentinelJoint) CacheImpulses(*ConstraintSet) { j.cached++ }

func (j *sentinelJoint) VelocityConstraints(_ *integration.Parameters, bodies *actor.BodySet, _ []float64, cursors *JacobianCursors, jacobians []float64, _ *ConstraintSet) {
	body1, _ := bodies.Get(j.anchor1)
	body2, _ := bodies.Get(j.anchor2)
	ndofs1, ndofs2 := body1.StatusDependentNdofs(), body2.StatusDependentNdofs()

	cursor := &cursors.Paired
	if ndofs1 == 0 || ndofs2 == 0 {
		cursor = &cursors.Ground
	}

	size := j.rows * rowSize(ndofs1, ndofs2)
	if j.short {
		size--
	}
	for i := *cursor; i < *cursor+size; i++ {
		if jacobians[i] != 0 {
			j.overlaps++
		}
		jacobians[i] = j.sentinel
	}
	*cursor += size
}

// recordingBody counts the advancement validations
type recordingBody struct {
	*actor.RigidBody
	validations int
}

func (b *recordingBody) ValidateAdvancement() {
	b.validations++
	b.RigidBody.ValidateAdvancement()
}

type recordingDesc struct {
	actor.RigidBodyDesc
}

func (desc recordingDesc) BuildWithHandle(handle actor.BodyHandle) *recordingBody {
	return &recordingBody{RigidBody: desc.RigidBodyDesc.BuildWithHandle(handle)}
}
