// Package epa implements the Expanding Polytope Algorithm for computing penetration depth.
//
// EPA runs after GJK reports an overlap. It expands a polytope inside the
// Minkowski difference A - B, starting from the GJK simplex, until its face
// closest to the origin lies on the boundary of A - B. That face gives the
// minimum translation separating both shapes.
//
// The package also carries the polygon clipping used to turn a penetration
// normal into a contact manifold between two faces.
//
// References:
//   - Van den Bergen: "Proximity Queries and Penetration Depth Computation on 3D Game Objects" (2001)
package epa

import (
	"errors"
	"math"

	"github.com/akmonengine/moreau/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

const (
	// MaxIterations limits the polytope expansion
	MaxIterations = 64

	// ConvergenceTolerance is the distance gain below which the closest face
	// is considered on the boundary of the Minkowski difference
	ConvergenceTolerance = 1e-6

	// NormalSnapThreshold clamps nearly-zero normal components to zero
	NormalSnapThreshold = 1e-8

	polytopeInitialCapacity = 16
)

var (
	ErrDegenerate    = errors.New("epa: degenerate polytope")
	ErrNoConvergence = errors.New("epa: polytope expansion did not converge")
)

// Penetration is the minimum translation separating two overlapping shapes:
// moving B by Normal * Depth brings both shapes in contact. Normal points from
// A toward B.
type Penetration struct {
	Normal mgl64.Vec3
	Depth  float64
}

// Penetrate expands the simplex returned by gjk.Intersect. When the expansion
// does not converge, the best estimate is returned along with
// ErrNoConvergence.
func Penetrate(a, b gjk.Support, simplex *gjk.Simplex) (Penetration, error) {
	if !completeSimplex(a, b, simplex) {
		return Penetration{}, ErrDegenerate
	}

	builder := polytopeBuilderPool.Get().(*PolytopeBuilder)
	defer polytopeBuilderPool.Put(builder)
	builder.Reset()

	if err := builder.BuildInitialFaces(simplex); err != nil {
		return Penetration{}, err
	}

	for range MaxIterations {
		closest := builder.faces[builder.FindClosestFaceIndex()]

		support := gjk.MinkowskiSupport(a, b, closest.Normal)
		if support.Dot(closest.Normal)-closest.Distance < ConvergenceTolerance {
			return closest.penetration(), nil
		}

		builder.AddPoint(support)
		if len(builder.faces) == 0 {
			return Penetration{}, ErrDegenerate
		}
	}

	return builder.faces[builder.FindClosestFaceIndex()].penetration(), ErrNoConvergence
}

func (f Face) penetration() Penetration {
	return Penetration{Normal: f.Normal, Depth: math.Max(f.Distance, 0)}
}

// searchDirections are tried in order to blow up a simplex of touching shapes
// into a tetrahedron.
var searchDirections = [6]mgl64.Vec3{
	{1, 0, 0}, {-1, 0, 0},
	{0, 1, 0}, {0, -1, 0},
	{0, 0, 1}, {0, 0, -1},
}

// completeSimplex grows a simplex of 1 to 3 points into a tetrahedron of
// non-zero volume. It happens when GJK stops on shapes that merely touch.
func completeSimplex(a, b gjk.Support, simplex *gjk.Simplex) bool {
	const epsilon = 1e-10

	if simplex.Count == 0 {
		simplex.Points[0] = gjk.MinkowskiSupport(a, b, searchDirections[0])
		simplex.Count = 1
	}

	if simplex.Count == 1 {
		for _, direction := range searchDirections {
			point := gjk.MinkowskiSupport(a, b, direction)
			if point.Sub(simplex.Points[0]).LenSqr() > epsilon {
				simplex.Points[1] = point
				simplex.Count = 2
				break
			}
		}
	}

	if simplex.Count == 2 {
		line := simplex.Points[1].Sub(simplex.Points[0])
		for _, axis := range searchDirections {
			direction := line.Cross(axis)
			if direction.LenSqr() < epsilon {
				continue
			}
			point := gjk.MinkowskiSupport(a, b, direction)
			if point.Sub(simplex.Points[0]).Cross(line).LenSqr() > epsilon {
				simplex.Points[2] = point
				simplex.Count = 3
				break
			}
		}
	}

	if simplex.Count == 3 {
		normal := simplex.Points[1].Sub(simplex.Points[0]).Cross(simplex.Points[2].Sub(simplex.Points[0]))
		for _, direction := range [2]mgl64.Vec3{normal, normal.Mul(-1)} {
			point := gjk.MinkowskiSupport(a, b, direction)
			if math.Abs(point.Sub(simplex.Points[0]).Dot(normal)) > epsilon {
				simplex.Points[3] = point
				simplex.Count = 4
				break
			}
		}
	}

	return simplex.Count == 4 && volume(simplex) > epsilon
}

func volume(simplex *gjk.Simplex) float64 {
	p := simplex.Points
	return math.Abs(p[1].Sub(p[0]).Cross(p[2].Sub(p[0])).Dot(p[3].Sub(p[0]))) / 6
}

// snapNormalToAxis clamps nearly-zero components of a normal, so that
// axis-aligned contacts do not pick up tangential noise.
func snapNormalToAxis(normal mgl64.Vec3) mgl64.Vec3 {
	for axis := 0; axis < 3; axis++ {
		if math.Abs(normal[axis]) < NormalSnapThreshold {
			normal[axis] = 0
		}
	}

	length := normal.Len()
	if length < 1e-8 {
		return mgl64.Vec3{0, 1, 0}
	}
	return normal.Mul(1 / length)
}
