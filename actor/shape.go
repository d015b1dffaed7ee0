package actor

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ShapeType represents the type of collision shape
type ShapeType int

const (
	ShapeTypeSphere ShapeType = iota
	ShapeTypeBox
	ShapeTypePlane
)

// ShapeInterface is the interface that all collision shapes must implement
type ShapeInterface interface {
	// ComputeAABB calculates the axis-aligned bounding box for the shape
	// at the given transform
	ComputeAABB(transform Transform)
	GetAABB() AABB
	// ComputeMass calculates mass data for the shape given a density
	ComputeMass(density float64) float64
	ComputeInertia(mass float64) mgl64.Mat3
	Type() ShapeType
	// BoundingRadius bounds the distance from the shape origin to any of its
	// points (+Inf for planes)
	BoundingRadius() float64
}

// Box represents an oriented box collision shape
// The box is defined by its half-extents (half-width, half-height, half-depth)
type Box struct {
	HalfExtents mgl64.Vec3
	aabb        AABB
}

// Corners returns the 8 corners in local space. The index of a corner is
// stable and used as a contact feature id.
func (b *Box) Corners() [8]mgl64.Vec3 {
	hx, hy, hz := b.HalfExtents.X(), b.HalfExtents.Y(), b.HalfExtents.Z()

	return [8]mgl64.Vec3{
		{-hx, -hy, -hz},
		{+hx, -hy, -hz},
		{-hx, +hy, -hz},
		{+hx, +hy, -hz},
		{-hx, -hy, +hz},
		{+hx, -hy, +hz},
		{-hx, +hy, +hz},
		{+hx, +hy, +hz},
	}
}

func (b *Box) ComputeAABB(transform Transform) {
	corners := b.Corners()

	// Transformer le premier coin pour initialiser min/max
	min := transform.Apply(corners[0])
	max := min

	for i := 1; i < len(corners); i++ {
		worldCorner := transform.Apply(corners[i])
		for axis := 0; axis < 3; axis++ {
			min[axis] = math.Min(min[axis], worldCorner[axis])
			max[axis] = math.Max(max[axis], worldCorner[axis])
		}
	}

	b.aabb = AABB{Min: min, Max: max}
}

func (b *Box) GetAABB() AABB {
	return b.aabb
}

// ComputeMass calculates mass data for the box
func (b *Box) ComputeMass(density float64) float64 {
	// Volume = 8 * hx * hy * hz (full dimensions are 2*halfExtents)
	volume := 8.0 * b.HalfExtents.X() * b.HalfExtents.Y() * b.HalfExtents.Z()

	return density * volume
}

func (b *Box) ComputeInertia(mass float64) mgl64.Mat3 {
	x := b.HalfExtents.X() * 2
	y := b.HalfExtents.Y() * 2
	z := b.HalfExtents.Z() * 2

	// I = (m/12) * (dimension1² + dimension2²)
	factor := mass / 12.0

	return mgl64.Mat3{
		factor * (y*y + z*z), 0, 0,
		0, factor * (x*x + z*z), 0,
		0, 0, factor * (x*x + y*y),
	}
}

// Support returns the local corner furthest along direction
func (b *Box) Support(direction mgl64.Vec3) mgl64.Vec3 {
	var support mgl64.Vec3
	for axis := 0; axis < 3; axis++ {
		support[axis] = b.HalfExtents[axis]
		if direction[axis] < 0 {
			support[axis] = -b.HalfExtents[axis]
		}
	}
	return support
}

func (b *Box) Type() ShapeType { return ShapeTypeBox }

func (b *Box) BoundingRadius() float64 {
	return b.HalfExtents.Len()
}

// Sphere represents a spherical collision shape
type Sphere struct {
	Radius float64
	aabb   AABB
}

// ComputeAABB calculates the axis-aligned bounding box for the sphere
func (s *Sphere) ComputeAABB(transform Transform) {
	// Sphere AABB is not affected by rotation, only by position
	radiusVec := mgl64.Vec3{s.Radius, s.Radius, s.Radius}

	s.aabb = AABB{
		Min: transform.Position.Sub(radiusVec),
		Max: transform.Position.Add(radiusVec),
	}
}

func (s *Sphere) GetAABB() AABB {
	return s.aabb
}

// ComputeMass calculates mass data for the sphere
func (s *Sphere) ComputeMass(density float64) float64 {
	// Volume of sphere = (4/3) * π * r³
	volume := (4.0 / 3.0) * math.Pi * math.Pow(s.Radius, 3)

	return density * volume
}

func (s *Sphere) ComputeInertia(mass float64) mgl64.Mat3 {
	// Pour une sphère : I = (2/5) * m * r²
	i := (2.0 / 5.0) * mass * s.Radius * s.Radius

	return mgl64.Mat3{
		i, 0, 0,
		0, i, 0,
		0, 0, i,
	}
}

// Support returns the local surface point furthest along direction
func (s *Sphere) Support(direction mgl64.Vec3) mgl64.Vec3 {
	length := direction.Len()
	if length < 1e-12 {
		return mgl64.Vec3{s.Radius, 0, 0}
	}
	return direction.Mul(s.Radius / length)
}

func (s *Sphere) Type() ShapeType { return ShapeTypeSphere }

func (s *Sphere) BoundingRadius() float64 {
	return s.Radius
}

// Plane represents an infinite plane collision shape
// The plane is defined by the equation: Normal · p + Distance = 0
// where Normal is the plane's normal vector (must be normalized)
// and Distance is the signed distance from the origin along the normal
type Plane struct {
	Normal   mgl64.Vec3 // Plane normal (must be normalized)
	Distance float64    // Plane constant (signed distance from origin)
	aabb     AABB
}

// WorldPlane returns the world normal and a point of the plane surface.
func (p *Plane) WorldPlane(transform Transform) (normal, point mgl64.Vec3) {
	normal = transform.Rotation.Rotate(p.Normal).Normalize()
	point = transform.Apply(p.Normal.Mul(-p.Distance))
	return normal, point
}

func (p *Plane) ComputeAABB(transform Transform) {
	const thickness = 1.0 // épaisseur de détection du plan
	const infinity = 1e10

	normal, planePoint := p.WorldPlane(transform)

	// Create base bounds with thickness along the normal
	min := planePoint.Sub(normal.Mul(thickness))
	max := planePoint
	for axis := 0; axis < 3; axis++ {
		if min[axis] > max[axis] {
			min[axis], max[axis] = max[axis], min[axis]
		}
		// For non-dominant axes, extend to infinity
		if math.Abs(normal[axis]) < 1.0 {
			min[axis] = -infinity
			max[axis] = infinity
		}
	}

	p.aabb = AABB{Min: min, Max: max}
}

func (p *Plane) GetAABB() AABB {
	return p.aabb
}

// ComputeMass calculates mass data for the plane
// Planes are always static with infinite mass
func (p *Plane) ComputeMass(density float64) float64 {
	return math.Inf(1)
}

func (p *Plane) ComputeInertia(mass float64) mgl64.Mat3 {
	return mgl64.Mat3{}
}

func (p *Plane) Type() ShapeType { return ShapeTypePlane }

func (p *Plane) BoundingRadius() float64 {
	return math.Inf(1)
}

// TangentBasis returns two unit vectors orthogonal to normal and to each other
func TangentBasis(normal mgl64.Vec3) (mgl64.Vec3, mgl64.Vec3) {
	var tangent1 mgl64.Vec3
	if math.Abs(normal.X()) > 0.9 {
		tangent1 = mgl64.Vec3{0, 1, 0}
	} else {
		tangent1 = mgl64.Vec3{1, 0, 0}
	}

	tangent1 = tangent1.Sub(normal.Mul(tangent1.Dot(normal))).Normalize()
	tangent2 := normal.Cross(tangent1).Normalize()

	return tangent1, tangent2
}
