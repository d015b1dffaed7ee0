package epa

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"
)

// ClipPoint is a polygon vertex tagged with the shape feature it was built
// from.
type ClipPoint struct {
	Position mgl64.Vec3
	Feature  int
}

// ClipPolygon keeps the part of the polygon lying on the side of the plane
// its normal points to (Sutherland-Hodgman). A point created on the plane by
// the edge leaving vertex from is tagged with feature(from).
func ClipPolygon(polygon []ClipPoint, planePoint, planeNormal mgl64.Vec3, feature func(from ClipPoint) int) []ClipPoint {
	const tolerance = 1e-9

	output := make([]ClipPoint, 0, len(polygon)+1)
	for i, current := range polygon {
		next := polygon[(i+1)%len(polygon)]

		currentDistance := current.Position.Sub(planePoint).Dot(planeNormal)
		nextDistance := next.Position.Sub(planePoint).Dot(planeNormal)

		if currentDistance >= -tolerance {
			output = append(output, current)
		}
		if (currentDistance >= -tolerance) != (nextDistance >= -tolerance) {
			output = append(output, ClipPoint{
				Position: lineIntersectPlane(current.Position, next.Position, planePoint, planeNormal),
				Feature:  feature(current),
			})
		}
	}

	return output
}

// lineIntersectPlane calculates the intersection between a segment and a plane
func lineIntersectPlane(p1, p2, planePoint, planeNormal mgl64.Vec3) mgl64.Vec3 {
	dir := p2.Sub(p1)
	denom := dir.Dot(planeNormal)
	if math.Abs(denom) < 1e-12 {
		return p1
	}

	t := -p1.Sub(planePoint).Dot(planeNormal) / denom
	return p1.Add(dir.Mul(mgl64.Clamp(t, 0, 1)))
}

// ReduceTo4 keeps the points extremal along two tangents of the normal. The
// relative order of the kept points is preserved.
func ReduceTo4(points []ClipPoint, normal mgl64.Vec3) []ClipPoint {
	if len(points) <= 4 {
		return points
	}

	tangent1, tangent2 := getTangentBasis(normal)

	var extremes [4]int
	values := [4]float64{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for i, p := range points {
		x := p.Position.Dot(tangent1)
		y := p.Position.Dot(tangent2)

		if x < values[0] {
			values[0], extremes[0] = x, i
		}
		if x > values[1] {
			values[1], extremes[1] = x, i
		}
		if y < values[2] {
			values[2], extremes[2] = y, i
		}
		if y > values[3] {
			values[3], extremes[3] = y, i
		}
	}

	indices := extremes[:]
	slices.Sort(indices)
	indices = slices.Compact(indices)

	result := make([]ClipPoint, 0, len(indices))
	for _, i := range indices {
		result = append(result, points[i])
	}
	return result
}

func getTangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	tangent1 := mgl64.Vec3{1, 0, 0}
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
