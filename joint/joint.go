// Package joint provides persistent constraints between two bodies, solved by
// the solver together with the contacts.
package joint

import (
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/integration"
	"github.com/akmonengine/moreau/solver"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// DefaultBias is the fraction of the position error fed back into the
	// velocity rows at each step.
	DefaultBias = 0.2
	// DefaultAllowedError is the drift left alone by position correction.
	DefaultAllowedError = 1e-4
	// DefaultMaxCorrection bounds a single position correction, in meters or
	// radians.
	DefaultMaxCorrection = 0.2
)

var axes = [3]mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// Frame attaches a joint to a body, in the local space of that body.
type Frame struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// NewFrame returns a frame at position aligned with the body axes.
func NewFrame(position mgl64.Vec3) Frame {
	return Frame{Position: position, Rotation: mgl64.QuatIdent()}
}

// FramesAt returns the local frames of both bodies meeting at the world point,
// both aligned with the world axes. It reports false if a body is missing.
func FramesAt(bodies *actor.BodySet, body1, body2 actor.BodyHandle, point mgl64.Vec3) (Frame, Frame, bool) {
	b1, ok1 := bodies.Get(body1)
	b2, ok2 := bodies.Get(body2)
	if !ok1 || !ok2 {
		return Frame{}, Frame{}, false
	}

	local := func(t actor.Transform) Frame {
		return Frame{Position: t.ApplyInverse(point), Rotation: t.InverseRotation}
	}
	return local(b1.WorldTransform()), local(b2.WorldTransform()), true
}

func (f Frame) world(t actor.Transform) Frame {
	rotation := f.Rotation
	if rotation.Len() < 1e-12 {
		rotation = mgl64.QuatIdent()
	}
	return Frame{
		Position: t.Apply(f.Position),
		Rotation: t.Rotation.Mul(rotation).Normalize(),
	}
}

// rowRef locates a row appended to the joint ConstraintSet.
type rowRef struct {
	ground bool
	index  int
}

// link holds what every two-body joint shares: anchors, warm start impulses
// and position correction settings.
type link struct {
	body1, body2   actor.BodyPartHandle
	frame1, frame2 Frame

	// Bias is the Baumgarte factor of the velocity rows.
	Bias float64
	// AllowedError and MaxCorrection drive SolvePosition.
	AllowedError  float64
	MaxCorrection float64

	impulses     []float64
	rows         []rowRef
	scratch      []float64
	displacement []float64
}

func newLink(body1, body2 actor.BodyPartHandle, frame1, frame2 Frame, nrows int) link {
	rows := make([]rowRef, nrows)
	for i := range rows {
		rows[i].index = -1
	}

	return link{
		body1:         body1,
		body2:         body2,
		frame1:        frame1,
		frame2:        frame2,
		Bias:          DefaultBias,
		AllowedError:  DefaultAllowedError,
		MaxCorrection: DefaultMaxCorrection,
		impulses:      make([]float64, nrows),
		rows:          rows,
	}
}

func (l *link) Anchors() (actor.BodyPartHandle, actor.BodyPartHandle) {
	return l.body1, l.body2
}

// IsActive is false once one of the bodies has been removed.
func (l *link) IsActive(bodies *actor.BodySet) bool {
	return bodies.Contains(l.body1.Body) && bodies.Contains(l.body2.Body)
}

func (l *link) NumVelocityConstraints() int {
	return len(l.rows)
}

// Impulses returns the impulses of the last solved step, one per row.
func (l *link) Impulses() []float64 {
	return l.impulses
}

func (l *link) CacheImpulses(set *solver.ConstraintSet) {
	for k, row := range l.rows {
		switch {
		case row.index < 0:
			l.impulses[k] = 0
		case row.ground:
			l.impulses[k] = set.Velocity.BilateralGround[row.index].Impulse
		default:
			l.impulses[k] = set.Velocity.Bilateral[row.index].Impulse
		}
	}
}

// resolve returns both bodies and the world frames of the joint.
func (l *link) resolve(bodies *actor.BodySet) (actor.Body, actor.Body, Frame, Frame, bool) {
	body1, body2 := bodies.GetPair(l.body1.Body, l.body2.Body)
	if body1 == nil || body2 == nil {
		return nil, nil, Frame{}, Frame{}, false
	}

	return body1, body2, l.frame1.world(body1.WorldTransform()), l.frame2.world(body2.WorldTransform()), true
}

// row appends the k-th row of the joint, unbounded, biased toward cancelling
// the position error along dir.
func (l *link) row(k int, params *integration.Parameters, body1, body2 actor.Body, point1, point2 mgl64.Vec3, dir actor.ForceDirection, positionError float64, extVels []float64, cursors *solver.JacobianCursors, jacobians []float64, set *solver.ConstraintSet) {
	geom, relVel := solver.PairGeometry(body1, body2, point1, point2, dir, extVels, jacobians, cursors)
	rhs := relVel + l.Bias*positionError*params.InvDt()

	ground, index := set.Velocity.AppendBilateral(geom, rhs, l.impulses[k], k, solver.IndependentLimits(math.Inf(-1), math.Inf(1)))
	l.rows[k] = rowRef{ground: ground, index: index}
}

// correct displaces both bodies to remove positionError along dir, by at most
// MaxCorrection.
func (l *link) correct(body1, body2 actor.Body, point1, point2 mgl64.Vec3, dir actor.ForceDirection, positionError float64) {
	ndofs1 := body1.StatusDependentNdofs()
	ndofs2 := body2.StatusDependentNdofs()
	l.scratch = resize(l.scratch, 2*(ndofs1+ndofs2))

	invR1, _ := body1.FillConstraintGeometry(ndofs1, point1, dir.Neg(), 0, ndofs1, l.scratch, nil)
	invR2, _ := body2.FillConstraintGeometry(ndofs2, point2, dir, 2*ndofs1, 2*ndofs1+ndofs2, l.scratch, nil)

	invR := invR1 + invR2
	if invR <= 1e-12 {
		return
	}
	lambda := -math.Min(positionError, l.MaxCorrection) / invR

	if ndofs1 != 0 {
		body1.ApplyDisplacement(l.scaled(l.scratch[ndofs1:2*ndofs1], lambda))
	}
	if ndofs2 != 0 {
		body2.ApplyDisplacement(l.scaled(l.scratch[2*ndofs1+ndofs2:], lambda))
	}
}

func (l *link) scaled(wj []float64, lambda float64) []float64 {
	l.displacement = resize(l.displacement, len(wj))
	for i, value := range wj {
		l.displacement[i] = lambda * value
	}
	return l.displacement
}

func resize(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// scaledAxis returns the rotation vector (axis times angle) of q, taking the
// shortest arc.
func scaledAxis(q mgl64.Quat) mgl64.Vec3 {
	if q.W < 0 {
		q = q.Scale(-1)
	}

	sin := q.V.Len()
	if sin < 1e-12 {
		return q.V.Mul(2)
	}
	return q.V.Mul(2 * math.Atan2(sin, q.W) / sin)
}
