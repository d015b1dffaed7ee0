// Package gjk implements the Gilbert-Johnson-Keerthi intersection test
// between two convex sets given by their support functions.
//
// GJK tests whether the Minkowski difference A - B contains the origin. It
// grows a simplex of support points toward the origin and stops as soon as a
// support point fails to pass it (separated) or a tetrahedron encloses it.
//
// References:
//   - Gilbert, Johnson, Keerthi: "A Fast Procedure for Computing the Distance Between
//     Complex Objects in Three-Dimensional Space" (1988)
//   - Van den Bergen: "Collision Detection in Interactive 3D Environments" (2003)
package gjk

import (
	"sync"

	"github.com/go-gl/mathgl/mgl64"
)

// MAX_ITERATIONS bounds the simplex refinement loop.
const MAX_ITERATIONS = 32

// Support returns the point of a convex set furthest along direction, in
// world space.
type Support func(direction mgl64.Vec3) mgl64.Vec3

// Simplex holds 1 to 4 points of the Minkowski difference, the most recent
// point last.
type Simplex struct {
	Points [4]mgl64.Vec3
	Count  int
}

func (s *Simplex) Reset() {
	s.Count = 0
}

func (s *Simplex) set(points ...mgl64.Vec3) {
	s.Count = copy(s.Points[:], points)
}

var SimplexPool = sync.Pool{
	New: func() interface{} {
		return &Simplex{}
	},
}

// MinkowskiSupport is the support point of A - B along direction.
func MinkowskiSupport(a, b Support, direction mgl64.Vec3) mgl64.Vec3 {
	return a(direction).Sub(b(direction.Mul(-1)))
}

// Intersect reports whether both convex sets overlap. The search starts along
// direction, typically from the center of A toward the center of B.
//
// On overlap, the simplex holds the points reached so far: a tetrahedron
// enclosing the origin, or fewer points when the sets only touch.
func Intersect(a, b Support, direction mgl64.Vec3, simplex *Simplex) bool {
	if direction.LenSqr() < 1e-16 {
		direction = mgl64.Vec3{1, 0, 0}
	}

	simplex.set(MinkowskiSupport(a, b, direction))
	direction = simplex.Points[0].Mul(-1)
	if direction.LenSqr() < 1e-16 {
		return true
	}

	for range MAX_ITERATIONS {
		point := MinkowskiSupport(a, b, direction)
		if point.Dot(direction) <= 0 {
			return false
		}

		simplex.Points[simplex.Count] = point
		simplex.Count++

		if refine(simplex, &direction) {
			return true
		}
	}

	return false
}

// refine reduces the simplex to its feature closest to the origin and points
// direction toward the origin from it. It reports true once the origin is
// enclosed or lies on the simplex.
func refine(simplex *Simplex, direction *mgl64.Vec3) bool {
	switch simplex.Count {
	case 2:
		return line(simplex, direction)
	case 3:
		return triangle(simplex, direction)
	case 4:
		return tetrahedron(simplex, direction)
	}
	return false
}

func line(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b := simplex.Points[1], simplex.Points[0]
	ab := b.Sub(a)
	ao := a.Mul(-1)

	if ab.LenSqr() < 1e-12 || ab.Dot(ao) <= 0 {
		simplex.set(a)
		*direction = ao
		return ao.LenSqr() < 1e-16
	}

	perpendicular := ab.Cross(ao).Cross(ab)
	if perpendicular.LenSqr() < 1e-16 {
		// origin on the segment
		return true
	}

	*direction = perpendicular
	return false
}

func triangle(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b, c := simplex.Points[2], simplex.Points[1], simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ao := a.Mul(-1)
	abc := ab.Cross(ac)

	// collinear points
	if abc.LenSqr() < 1e-12 {
		simplex.set(b, a)
		return line(simplex, direction)
	}

	if ab.Cross(abc).Dot(ao) > 0 {
		simplex.set(b, a)
		*direction = ab.Cross(ao).Cross(ab)
		return false
	}
	if abc.Cross(ac).Dot(ao) > 0 {
		simplex.set(c, a)
		*direction = ac.Cross(ao).Cross(ac)
		return false
	}

	distance := abc.Dot(ao)
	switch {
	case distance > 0:
		*direction = abc
	case distance < 0:
		// keep the winding so that direction is the face normal
		simplex.set(b, c, a)
		*direction = abc.Mul(-1)
	default:
		return true
	}

	return false
}

func tetrahedron(simplex *Simplex, direction *mgl64.Vec3) bool {
	a, b, c, d := simplex.Points[3], simplex.Points[2], simplex.Points[1], simplex.Points[0]

	ab := b.Sub(a)
	ac := c.Sub(a)
	ad := d.Sub(a)
	ao := a.Mul(-1)

	// outward normals, away from the opposite vertex
	abc := outward(ab.Cross(ac), ad)
	acd := outward(ac.Cross(ad), ab)
	adb := outward(ad.Cross(ab), ac)

	if abc.LenSqr() < 1e-12 || acd.LenSqr() < 1e-12 || adb.LenSqr() < 1e-12 {
		simplex.set(c, b, a)
		return triangle(simplex, direction)
	}

	switch {
	case abc.Dot(ao) > 0:
		simplex.set(c, b, a)
	case acd.Dot(ao) > 0:
		simplex.set(d, c, a)
	case adb.Dot(ao) > 0:
		simplex.set(b, d, a)
	default:
		return true
	}

	return triangle(simplex, direction)
}

func outward(normal, toOpposite mgl64.Vec3) mgl64.Vec3 {
	if normal.Dot(toOpposite) > 0 {
		return normal.Mul(-1)
	}
	return normal
}
