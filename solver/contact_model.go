package solver

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/akmonengine/moreau/integration"
)

// ContactModel turns contact manifolds into constraint rows.
type ContactModel interface {
	// NumVelocityConstraints is the number of velocity rows generated for
	// manifold.
	NumVelocityConstraints(manifold *detection.ContactManifold) int
	Constraints(params *integration.Parameters, materials MaterialTable, bodies *actor.BodySet, extVels []float64, manifolds []detection.ContactManifold, cursors *JacobianCursors, jacobians []float64, set *ConstraintSet)
	CacheImpulses(set *ConstraintSet)
}

const rowsPerContact = 3

// SignoriniCoulomb models non-penetration (Signorini condition) with one
// unilateral row per contact, and Coulomb friction with two bilateral rows
// whose bounds depend on the normal impulse. Impulses are cached by contact
// id for warm starting.
type SignoriniCoulomb struct {
	// RestitutionThreshold is the approach speed below which contacts do not
	// bounce.
	RestitutionThreshold float64
	// WarmstartCoefficient scales the cached impulses used as initial guess.
	WarmstartCoefficient float64
	// AllowedLinearError is the penetration the position solver leaves.
	AllowedLinearError float64
	// MaxLinearCorrection bounds one position correction.
	MaxLinearCorrection float64

	contacts []detection.ContactID
	impulses map[detection.ContactID]cachedImpulses
}

type cachedImpulses struct {
	values [rowsPerContact]float64
	fresh  bool
}

// CachePruner is implemented by contact models whose impulse cache outlives a
// single solver call, when a world step solves several islands.
type CachePruner interface {
	// Prune forgets the contacts that were not cached since the last Prune.
	Prune()
}

func NewSignoriniCoulomb() *SignoriniCoulomb {
	return &SignoriniCoulomb{
		RestitutionThreshold: 1.0,
		WarmstartCoefficient: 1.0,
		AllowedLinearError:   0.001,
		MaxLinearCorrection:  0.2,
		impulses:             make(map[detection.ContactID]cachedImpulses),
	}
}

func (m *SignoriniCoulomb) NumVelocityConstraints(manifold *detection.ContactManifold) int {
	return rowsPerContact * manifold.Len()
}

// CachedImpulses returns the impulses stored for id by the last step: normal
// then both friction directions.
func (m *SignoriniCoulomb) CachedImpulses(id detection.ContactID) ([rowsPerContact]float64, bool) {
	cached, ok := m.impulses[id]
	return cached.values, ok
}

func (m *SignoriniCoulomb) Constraints(params *integration.Parameters, materials MaterialTable, bodies *actor.BodySet, extVels []float64, manifolds []detection.ContactManifold, cursors *JacobianCursors, jacobians []float64, set *ConstraintSet) {
	m.contacts = m.contacts[:0]
	invDt := params.InvDt()

	for i := range manifolds {
		manifold := &manifolds[i]

		body1, ok1 := bodies.Get(manifold.Body1.Body)
		body2, ok2 := bodies.Get(manifold.Body2.Body)
		if !ok1 || !ok2 {
			continue
		}

		friction, restitution := materials.Coefficients(&manifold.Material1, &manifold.Material2)

		for _, tracked := range manifold.Contacts {
			cacheID := len(m.contacts) * rowsPerContact
			m.contacts = append(m.contacts, tracked.ID)

			cached := m.impulses[tracked.ID].values
			for k := range cached {
				cached[k] *= m.WarmstartCoefficient
			}

			contact := tracked.Contact
			geom, relVel := PairGeometry(body1, body2, contact.World1, contact.World2, actor.LinearDirection(contact.Normal), extVels, jacobians, cursors)

			rhs := relVel
			if contact.Depth < 0 {
				// speculative contact: the gap may close during this step
				rhs -= contact.Depth * invDt
			}
			if relVel < -m.RestitutionThreshold {
				rhs += restitution * relVel
			}

			ground, normalIndex := set.Velocity.AppendUnilateral(geom, rhs, cached[0], cacheID)

			tangent1, tangent2 := actor.TangentBasis(contact.Normal)
			for k, tangent := range [2]actor.ForceDirection{actor.LinearDirection(tangent1), actor.LinearDirection(tangent2)} {
				geom, relVel := PairGeometry(body1, body2, contact.World1, contact.World2, tangent, extVels, jacobians, cursors)
				if normalIndex < 0 {
					continue
				}
				limits := DependentLimits(ground, normalIndex, friction)
				set.Velocity.AppendBilateral(geom, relVel, cached[k+1], cacheID+k+1, limits)
			}

			set.Position.Unilateral = append(set.Position.Unilateral, NonlinearUnilateralConstraint{
				Body1:         manifold.Body1,
				Body2:         manifold.Body2,
				Kinematic:     tracked,
				AllowedError:  m.AllowedLinearError,
				MaxCorrection: m.MaxLinearCorrection,
			})
		}
	}
}

// CacheImpulses stores the impulses of the last solve by contact id,
// overwriting the previous values of those contacts.
func (m *SignoriniCoulomb) CacheImpulses(set *ConstraintSet) {
	if m.impulses == nil {
		m.impulses = make(map[detection.ContactID]cachedImpulses)
	}

	store := func(cacheID int, impulse float64) {
		id := m.contacts[cacheID/rowsPerContact]
		cached := m.impulses[id]
		if !cached.fresh {
			cached = cachedImpulses{fresh: true}
		}
		cached.values[cacheID%rowsPerContact] = impulse
		m.impulses[id] = cached
	}

	for _, row := range set.Velocity.Unilateral {
		store(row.CacheID, row.Impulse)
	}
	for _, row := range set.Velocity.UnilateralGround {
		store(row.CacheID, row.Impulse)
	}
	for _, row := range set.Velocity.Bilateral {
		store(row.CacheID, row.Impulse)
	}
	for _, row := range set.Velocity.BilateralGround {
		store(row.CacheID, row.Impulse)
	}
}

func (m *SignoriniCoulomb) Prune() {
	for id, cached := range m.impulses {
		if !cached.fresh {
			delete(m.impulses, id)
			continue
		}
		cached.fresh = false
		m.impulses[id] = cached
	}
}
