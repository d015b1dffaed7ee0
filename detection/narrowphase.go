package detection

import (
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// FeatureContact is a contact tagged with the shape feature it was generated
// from (box corner index, 0 for spheres).
type FeatureContact struct {
	Feature int
	Contact Contact
}

// Collide computes the contact manifold between two rigid bodies. Contacts
// separated by less than prediction are kept as speculative contacts.
// It reports false when the pair is unsupported or has no contact.
func Collide(rb1, rb2 *actor.RigidBody, prediction float64) (ContactManifold, bool) {
	contacts := CollideShapes(rb1.Shape, rb1.Transform, rb2.Shape, rb2.Transform, prediction)
	if len(contacts) == 0 {
		return ContactManifold{}, false
	}

	manifold := ContactManifold{
		Body1:     actor.BodyPartHandle{Body: rb1.Handle()},
		Body2:     actor.BodyPartHandle{Body: rb2.Handle()},
		Material1: rb1.Material,
		Material2: rb2.Material,
		Contacts:  make([]TrackedContact, 0, len(contacts)),
	}
	for _, c := range contacts {
		id := ContactID{Body1: rb1.Handle(), Body2: rb2.Handle(), Feature: c.Feature}
		manifold.Contacts = append(manifold.Contacts, NewTrackedContact(id, c.Contact, rb1.Transform, rb2.Transform))
	}

	return manifold, true
}

// CollideShapes dispatches on the shape types. Plane-plane pairs are not
// supported and never produce contacts.
func CollideShapes(shape1 actor.ShapeInterface, transform1 actor.Transform, shape2 actor.ShapeInterface, transform2 actor.Transform, prediction float64) []FeatureContact {
	switch s1 := shape1.(type) {
	case *actor.Plane:
		switch s2 := shape2.(type) {
		case *actor.Sphere:
			return planeSphere(s1, transform1, s2, transform2, prediction)
		case *actor.Box:
			return planeBox(s1, transform1, s2, transform2, prediction)
		}
	case *actor.Sphere:
		switch s2 := shape2.(type) {
		case *actor.Plane:
			return flip(planeSphere(s2, transform2, s1, transform1, prediction))
		case *actor.Sphere:
			return sphereSphere(s1, transform1, s2, transform2, prediction)
		case *actor.Box:
			return flip(boxSphere(s2, transform2, s1, transform1, prediction))
		}
	case *actor.Box:
		switch s2 := shape2.(type) {
		case *actor.Plane:
			return flip(planeBox(s2, transform2, s1, transform1, prediction))
		case *actor.Sphere:
			return boxSphere(s1, transform1, s2, transform2, prediction)
		case *actor.Box:
			return boxBox(s1, transform1, s2, transform2, prediction)
		}
	}

	return nil
}

// Supported reports whether CollideShapes can generate contacts between both shapes.
func Supported(shape1, shape2 actor.ShapeInterface) bool {
	return shape1.Type() != actor.ShapeTypePlane || shape2.Type() != actor.ShapeTypePlane
}

// flip swaps the roles of both shapes
func flip(contacts []FeatureContact) []FeatureContact {
	for i := range contacts {
		c := &contacts[i].Contact
		c.World1, c.World2 = c.World2, c.World1
		c.Normal = c.Normal.Mul(-1)
	}
	return contacts
}

func planeSphere(plane *actor.Plane, planeTransform actor.Transform, sphere *actor.Sphere, sphereTransform actor.Transform, prediction float64) []FeatureContact {
	normal, point := plane.WorldPlane(planeTransform)
	center := sphereTransform.Position

	distance := center.Sub(point).Dot(normal)
	depth := sphere.Radius - distance
	if depth < -prediction {
		return nil
	}

	return []FeatureContact{{
		Feature: 0,
		Contact: Contact{
			World1: center.Sub(normal.Mul(distance)),
			World2: center.Sub(normal.Mul(sphere.Radius)),
			Normal: normal,
			Depth:  depth,
		},
	}}
}

// planeBox generates one contact per box corner below the plane (or within
// prediction), the corner index being the feature.
func planeBox(plane *actor.Plane, planeTransform actor.Transform, box *actor.Box, boxTransform actor.Transform, prediction float64) []FeatureContact {
	normal, point := plane.WorldPlane(planeTransform)

	var contacts []FeatureContact
	for i, corner := range box.Corners() {
		world := boxTransform.Apply(corner)
		distance := world.Sub(point).Dot(normal)
		if -distance < -prediction {
			continue
		}

		contacts = append(contacts, FeatureContact{
			Feature: i,
			Contact: Contact{
				World1: world.Sub(normal.Mul(distance)),
				World2: world,
				Normal: normal,
				Depth:  -distance,
			},
		})
	}

	return contacts
}

func sphereSphere(sphere1 *actor.Sphere, transform1 actor.Transform, sphere2 *actor.Sphere, transform2 actor.Transform, prediction float64) []FeatureContact {
	delta := transform2.Position.Sub(transform1.Position)
	distance := delta.Len()

	depth := sphere1.Radius + sphere2.Radius - distance
	if depth < -prediction {
		return nil
	}

	normal := mgl64.Vec3{0, 1, 0}
	if distance > 1e-12 {
		normal = delta.Mul(1 / distance)
	}

	return []FeatureContact{{
		Feature: 0,
		Contact: Contact{
			World1: transform1.Position.Add(normal.Mul(sphere1.Radius)),
			World2: transform2.Position.Sub(normal.Mul(sphere2.Radius)),
			Normal: normal,
			Depth:  depth,
		},
	}}
}

// boxSphere finds the closest point of the box to the sphere center. When the
// center is inside the box, the contact is pushed through the nearest face.
func boxSphere(box *actor.Box, boxTransform actor.Transform, sphere *actor.Sphere, sphereTransform actor.Transform, prediction float64) []FeatureContact {
	center := boxTransform.ApplyInverse(sphereTransform.Position)
	h := box.HalfExtents

	closest := mgl64.Vec3{
		mgl64.Clamp(center.X(), -h.X(), h.X()),
		mgl64.Clamp(center.Y(), -h.Y(), h.Y()),
		mgl64.Clamp(center.Z(), -h.Z(), h.Z()),
	}

	var localNormal mgl64.Vec3
	var depth float64

	delta := center.Sub(closest)
	distance := delta.Len()
	if distance > 1e-12 {
		localNormal = delta.Mul(1 / distance)
		depth = sphere.Radius - distance
	} else {
		// inside: pick the face with the smallest penetration
		axis, faceDistance := 0, math.Inf(1)
		for i := 0; i < 3; i++ {
			if d := h[i] - math.Abs(center[i]); d < faceDistance {
				axis, faceDistance = i, d
			}
		}
		sign := 1.0
		if center[axis] < 0 {
			sign = -1.0
		}
		localNormal[axis] = sign
		closest[axis] = sign * h[axis]
		depth = sphere.Radius + faceDistance
	}

	if depth < -prediction {
		return nil
	}

	normal := boxTransform.Rotation.Rotate(localNormal)
	return []FeatureContact{{
		Feature: 0,
		Contact: Contact{
			World1: boxTransform.Apply(closest),
			World2: sphereTransform.Position.Sub(normal.Mul(sphere.Radius)),
			Normal: normal,
			Depth:  depth,
		},
	}}
}

// Distance returns the signed distance between two shapes: negative when they
// interpenetrate. Between two separated boxes it is a lower bound of the
// distance. It reports false for unsupported pairs.
func Distance(shape1 actor.ShapeInterface, transform1 actor.Transform, shape2 actor.ShapeInterface, transform2 actor.Transform) (float64, bool) {
	if !Supported(shape1, shape2) {
		return 0, false
	}

	box1, ok1 := shape1.(*actor.Box)
	box2, ok2 := shape2.(*actor.Box)
	if ok1 && ok2 {
		return boxSeparation(box1, transform1, box2, transform2), true
	}

	contacts := CollideShapes(shape1, transform1, shape2, transform2, math.Inf(1))
	if len(contacts) == 0 {
		return 0, false
	}

	deepest := math.Inf(-1)
	for _, c := range contacts {
		deepest = math.Max(deepest, c.Contact.Depth)
	}
	return -deepest, true
}
