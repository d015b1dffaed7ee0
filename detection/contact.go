package detection

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// Contact is a single contact point between two shapes.
// Normal points from the first body towards the second one. Depth is positive
// when the shapes interpenetrate, negative (minus the gap) for speculative
// contacts.
type Contact struct {
	World1 mgl64.Vec3
	World2 mgl64.Vec3
	Normal mgl64.Vec3
	Depth  float64
}

// ContactID identifies a contact across steps, as long as the same feature of
// the same pair of bodies stays in contact. It keys the impulse cache.
type ContactID struct {
	Body1   actor.BodyHandle
	Body2   actor.BodyHandle
	Feature int
}

// TrackedContact is a contact with its identifier and its kinematic frame
// expressed in the local space of both bodies, from which the position solver
// recomputes the depth after bodies moved.
type TrackedContact struct {
	ID      ContactID
	Contact Contact

	Local1       mgl64.Vec3
	Local2       mgl64.Vec3
	LocalNormal1 mgl64.Vec3
}

// NewTrackedContact expresses contact in the local frames of transform1 and transform2.
func NewTrackedContact(id ContactID, contact Contact, transform1, transform2 actor.Transform) TrackedContact {
	return TrackedContact{
		ID:           id,
		Contact:      contact,
		Local1:       transform1.ApplyInverse(contact.World1),
		Local2:       transform2.ApplyInverse(contact.World2),
		LocalNormal1: transform1.InverseRotation.Rotate(contact.Normal),
	}
}

// Depth recomputes the penetration depth at the given body transforms.
func (c TrackedContact) Depth(transform1, transform2 actor.Transform) (depth float64, world1, world2, normal mgl64.Vec3) {
	world1 = transform1.Apply(c.Local1)
	world2 = transform2.Apply(c.Local2)
	normal = transform1.Rotation.Rotate(c.LocalNormal1)

	return world1.Sub(world2).Dot(normal), world1, world2, normal
}

// ContactManifold groups the contacts between two body parts.
type ContactManifold struct {
	Body1     actor.BodyPartHandle
	Body2     actor.BodyPartHandle
	Material1 actor.Material
	Material2 actor.Material
	Contacts  []TrackedContact
}

func (m *ContactManifold) Len() int {
	return len(m.Contacts)
}

// DeepestContact returns the contact with the largest depth.
func (m *ContactManifold) DeepestContact() (TrackedContact, bool) {
	if len(m.Contacts) == 0 {
		return TrackedContact{}, false
	}

	deepest := m.Contacts[0]
	for _, contact := range m.Contacts[1:] {
		if contact.Contact.Depth > deepest.Contact.Depth {
			deepest = contact
		}
	}
	return deepest, true
}
