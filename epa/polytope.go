package epa

import (
	"sync"

	"github.com/akmonengine/moreau/gjk"
	"github.com/go-gl/mathgl/mgl64"
)

// Face is a triangle of the polytope, its normal pointing outward.
type Face struct {
	Points   [3]mgl64.Vec3
	Normal   mgl64.Vec3
	Distance float64 // from the origin to the face plane
}

// EdgeEntry counts the visible faces sharing an edge. An edge seen once lies
// on the horizon of the support point. Edges are stored with A < B.
type EdgeEntry struct {
	A, B  mgl64.Vec3
	Count int
}

// PolytopeBuilder holds the faces of the expanding polytope and the
// workspace used to rebuild them.
type PolytopeBuilder struct {
	faces []Face
	edges []EdgeEntry

	// interior stays inside the polytope while it grows, and orients the
	// face normals
	interior mgl64.Vec3
}

var polytopeBuilderPool = sync.Pool{
	New: func() interface{} {
		return &PolytopeBuilder{
			faces: make([]Face, 0, polytopeInitialCapacity),
			edges: make([]EdgeEntry, 0, polytopeInitialCapacity),
		}
	},
}

func (b *PolytopeBuilder) Reset() {
	b.faces = b.faces[:0]
	b.edges = b.edges[:0]
	b.interior = mgl64.Vec3{}
}

// BuildInitialFaces creates the 4 faces of a tetrahedron simplex.
func (b *PolytopeBuilder) BuildInitialFaces(simplex *gjk.Simplex) error {
	if simplex.Count != 4 {
		return ErrDegenerate
	}

	p0, p1, p2, p3 := simplex.Points[0], simplex.Points[1], simplex.Points[2], simplex.Points[3]
	b.interior = p0.Add(p1).Add(p2).Add(p3).Mul(0.25)

	for _, triangle := range [4][3]mgl64.Vec3{
		{p0, p1, p2},
		{p0, p2, p3},
		{p0, p3, p1},
		{p1, p3, p2},
	} {
		if face, ok := b.newFace(triangle[0], triangle[1], triangle[2]); ok {
			b.faces = append(b.faces, face)
		}
	}

	if len(b.faces) < 4 {
		return ErrDegenerate
	}
	return nil
}

// newFace orients the triangle away from the interior point. It reports false
// for a triangle of zero area.
func (b *PolytopeBuilder) newFace(p0, p1, p2 mgl64.Vec3) (Face, bool) {
	normal := p1.Sub(p0).Cross(p2.Sub(p0))
	length := normal.Len()
	if length < 1e-12 {
		return Face{}, false
	}
	normal = normal.Mul(1 / length)

	if normal.Dot(p0.Sub(b.interior)) < 0 {
		normal = normal.Mul(-1)
	}
	normal = snapNormalToAxis(normal)

	return Face{
		Points:   [3]mgl64.Vec3{p0, p1, p2},
		Normal:   normal,
		Distance: p0.Dot(normal),
	}, true
}

// FindClosestFaceIndex returns the index of the face closest to the origin,
// or -1 without faces.
func (b *PolytopeBuilder) FindClosestFaceIndex() int {
	closest := -1
	for i := range b.faces {
		if closest < 0 || b.faces[i].Distance < b.faces[closest].Distance {
			closest = i
		}
	}
	return closest
}

// AddPoint expands the polytope with a support point: the faces it can see
// are removed, and the hole is closed by connecting its horizon to the point.
func (b *PolytopeBuilder) AddPoint(support mgl64.Vec3) {
	b.edges = b.edges[:0]

	kept := b.faces[:0]
	for _, face := range b.faces {
		if support.Sub(face.Points[0]).Dot(face.Normal) > 0 {
			b.addEdge(face.Points[0], face.Points[1])
			b.addEdge(face.Points[1], face.Points[2])
			b.addEdge(face.Points[2], face.Points[0])
			continue
		}
		kept = append(kept, face)
	}
	b.faces = kept

	for _, edge := range b.edges {
		if edge.Count != 1 {
			continue
		}
		if face, ok := b.newFace(edge.A, edge.B, support); ok {
			b.faces = append(b.faces, face)
		}
	}
}

func (b *PolytopeBuilder) addEdge(p0, p1 mgl64.Vec3) {
	if compareVec3(p0, p1) > 0 {
		p0, p1 = p1, p0
	}

	for i := range b.edges {
		if b.edges[i].A == p0 && b.edges[i].B == p1 {
			b.edges[i].Count++
			return
		}
	}
	b.edges = append(b.edges, EdgeEntry{A: p0, B: p1, Count: 1})
}

// compareVec3 orders points lexicographically
func compareVec3(a, b mgl64.Vec3) int {
	for axis := 0; axis < 3; axis++ {
		if a[axis] < b[axis] {
			return -1
		}
		if a[axis] > b[axis] {
			return 1
		}
	}
	return 0
}
