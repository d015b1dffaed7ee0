package detection

import (
	"errors"
	"math"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/epa"
	"github.com/akmonengine/moreau/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// flippedFeature tags the features of a manifold clipped against the face of
// the second box.
const flippedFeature = 1 << 16

// boxSupport is the world support function of a box inflated by margin.
func boxSupport(box *actor.Box, transform actor.Transform, margin float64) gjk.Support {
	return func(direction mgl64.Vec3) mgl64.Vec3 {
		point := transform.Apply(box.Support(transform.InverseRotation.Rotate(direction)))
		if length := direction.Len(); margin > 0 && length > 1e-12 {
			point = point.Add(direction.Mul(margin / length))
		}
		return point
	}
}

// boxBox inflates both boxes by half the prediction so that speculative
// contacts overlap for GJK. EPA then gives the contact normal, and the
// manifold is clipped between the two faces most aligned with it.
func boxBox(box1 *actor.Box, transform1 actor.Transform, box2 *actor.Box, transform2 actor.Transform, prediction float64) []FeatureContact {
	margin := 0.5 * prediction
	support1 := boxSupport(box1, transform1, margin)
	support2 := boxSupport(box2, transform2, margin)

	simplex := gjk.SimplexPool.Get().(*gjk.Simplex)
	defer gjk.SimplexPool.Put(simplex)
	simplex.Reset()

	if !gjk.Intersect(support1, support2, transform2.Position.Sub(transform1.Position), simplex) {
		return nil
	}

	penetration, err := epa.Penetrate(support1, support2, simplex)
	if err != nil && !errors.Is(err, epa.ErrNoConvergence) {
		return nil
	}

	return clipBoxes(box1, transform1, box2, transform2, penetration.Normal, prediction)
}

// clipBoxes picks the reference face, preferring the first box unless the
// second one is clearly better aligned with the normal.
func clipBoxes(box1 *actor.Box, transform1 actor.Transform, box2 *actor.Box, transform2 actor.Transform, normal mgl64.Vec3, prediction float64) []FeatureContact {
	axis1, sign1, alignment1 := faceToward(transform1, normal)
	axis2, sign2, alignment2 := faceToward(transform2, normal.Mul(-1))

	if alignment2 > alignment1+1e-3 {
		contacts := clipFaces(box2, transform2, axis2, sign2, box1, transform1, prediction)
		for i := range contacts {
			contacts[i].Feature |= flippedFeature
		}
		return flip(contacts)
	}

	return clipFaces(box1, transform1, axis1, sign1, box2, transform2, prediction)
}

// clipFaces clips the incident face against the side planes of the reference
// face. Every remaining point within prediction of the reference plane becomes
// a contact, the normal being the reference face normal.
func clipFaces(reference *actor.Box, referenceTransform actor.Transform, axis int, sign float64, incident *actor.Box, incidentTransform actor.Transform, prediction float64) []FeatureContact {
	h := reference.HalfExtents

	normal := referenceTransform.Rotation.Rotate(unitAxis(axis, sign))
	offset := normal.Dot(referenceTransform.Apply(unitAxis(axis, sign*h[axis])))

	incidentAxis, incidentSign, _ := faceToward(incidentTransform, normal.Mul(-1))
	polygon := boxFace(incident, incidentTransform, incidentAxis, incidentSign)

	plane := 0
	for _, side := range [2]int{(axis + 1) % 3, (axis + 2) % 3} {
		for _, s := range [2]float64{1, -1} {
			inward := referenceTransform.Rotation.Rotate(unitAxis(side, -s))
			point := referenceTransform.Apply(unitAxis(side, s*h[side]))

			index := plane
			polygon = epa.ClipPolygon(polygon, point, inward, func(from epa.ClipPoint) int {
				return (from.Feature+1)*8 + index
			})
			plane++
		}
	}

	kept := polygon[:0]
	for _, p := range polygon {
		if offset-p.Position.Dot(normal) >= -prediction {
			kept = append(kept, p)
		}
	}

	if len(kept) == 0 {
		// the incident face misses the reference face, keep its deepest corner
		local := incident.Support(incidentTransform.InverseRotation.Rotate(normal.Mul(-1)))
		corner := epa.ClipPoint{Position: incidentTransform.Apply(local), Feature: cornerIndex(local)}
		if offset-corner.Position.Dot(normal) < -prediction {
			return nil
		}
		kept = append(kept, corner)
	}

	kept = epa.ReduceTo4(kept, normal)

	contacts := make([]FeatureContact, 0, len(kept))
	for _, p := range kept {
		depth := offset - p.Position.Dot(normal)
		contacts = append(contacts, FeatureContact{
			Feature: p.Feature,
			Contact: Contact{
				World1: p.Position.Add(normal.Mul(depth)),
				World2: p.Position,
				Normal: normal,
				Depth:  depth,
			},
		})
	}

	return contacts
}

// faceToward returns the face of the box whose normal is the closest to
// direction, with the cosine between both.
func faceToward(transform actor.Transform, direction mgl64.Vec3) (axis int, sign float64, alignment float64) {
	local := transform.InverseRotation.Rotate(direction)

	for i := 1; i < 3; i++ {
		if math.Abs(local[i]) > math.Abs(local[axis]) {
			axis = i
		}
	}

	sign = 1
	if local[axis] < 0 {
		sign = -1
	}

	if length := local.Len(); length > 1e-12 {
		alignment = math.Abs(local[axis]) / length
	}
	return axis, sign, alignment
}

// boxFace returns the 4 world corners of a face, in winding order, tagged
// with their corner index.
func boxFace(box *actor.Box, transform actor.Transform, axis int, sign float64) []epa.ClipPoint {
	corners := box.Corners()
	u, v := (axis+1)%3, (axis+2)%3

	base := 0
	if sign > 0 {
		base = 1 << axis
	}

	face := make([]epa.ClipPoint, 0, 4)
	for _, o := range [4][2]int{{0, 0}, {1, 0}, {1, 1}, {0, 1}} {
		index := base | o[0]<<u | o[1]<<v
		face = append(face, epa.ClipPoint{Position: transform.Apply(corners[index]), Feature: index})
	}
	return face
}

// cornerIndex is the index in Box.Corners of a local corner
func cornerIndex(local mgl64.Vec3) int {
	index := 0
	for axis := 0; axis < 3; axis++ {
		if local[axis] > 0 {
			index |= 1 << axis
		}
	}
	return index
}

func unitAxis(axis int, length float64) mgl64.Vec3 {
	var v mgl64.Vec3
	v[axis] = length
	return v
}

// boxSeparation is the largest gap between the projections of both boxes
// over the 15 separating axes. It is exact when the boxes overlap, and a lower
// bound of their distance otherwise.
func boxSeparation(box1 *actor.Box, transform1 actor.Transform, box2 *actor.Box, transform2 actor.Transform) float64 {
	axes1 := boxAxes(transform1)
	axes2 := boxAxes(transform2)
	delta := transform2.Position.Sub(transform1.Position)

	separation := math.Inf(-1)
	test := func(axis mgl64.Vec3) {
		length := axis.Len()
		if length < 1e-9 {
			return
		}
		axis = axis.Mul(1 / length)

		gap := math.Abs(delta.Dot(axis)) - projectedRadius(box1, axes1, axis) - projectedRadius(box2, axes2, axis)
		separation = math.Max(separation, gap)
	}

	for i := 0; i < 3; i++ {
		test(axes1[i])
		test(axes2[i])
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			test(axes1[i].Cross(axes2[j]))
		}
	}

	return separation
}

func boxAxes(transform actor.Transform) [3]mgl64.Vec3 {
	return [3]mgl64.Vec3{
		transform.Rotation.Rotate(mgl64.Vec3{1, 0, 0}),
		transform.Rotation.Rotate(mgl64.Vec3{0, 1, 0}),
		transform.Rotation.Rotate(mgl64.Vec3{0, 0, 1}),
	}
}

func projectedRadius(box *actor.Box, axes [3]mgl64.Vec3, axis mgl64.Vec3) float64 {
	h := box.HalfExtents
	return h[0]*math.Abs(axes[0].Dot(axis)) + h[1]*math.Abs(axes[1].Dot(axis)) + h[2]*math.Abs(axes[2].Dot(axis))
}
