package actor

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestBoxComputeMassAndInertia(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	mass := box.ComputeMass(2.0)

	// Volume = 2*4*6 = 48
	if !almostEqual(mass, 96.0, 1e-10) {
		t.Fatalf("ComputeMass() = %v, want 96", mass)
	}

	inertia := box.ComputeInertia(12.0)
	// I = (m/12) * (d1² + d2²) with full dimensions 2, 4, 6
	want := [3]float64{16 + 36, 4 + 36, 4 + 16}
	for i := 0; i < 3; i++ {
		if !almostEqual(inertia.At(i, i), want[i], 1e-10) {
			t.Errorf("inertia[%d][%d] = %v, want %v", i, i, inertia.At(i, i), want[i])
		}
	}
	if inertia.At(0, 1) != 0 || inertia.At(1, 2) != 0 {
		t.Error("box inertia should be diagonal in local space")
	}
}

func TestSphereComputeMassAndInertia(t *testing.T) {
	sphere := &Sphere{Radius: 2.0}
	mass := sphere.ComputeMass(1.0)
	want := 4.0 / 3.0 * math.Pi * 8.0

	if !almostEqual(mass, want, 1e-10) {
		t.Errorf("ComputeMass() = %v, want %v", mass, want)
	}

	inertia := sphere.ComputeInertia(5.0)
	// (2/5) * 5 * 4
	for i := 0; i < 3; i++ {
		if !almostEqual(inertia.At(i, i), 8.0, 1e-10) {
			t.Errorf("inertia[%d][%d] = %v, want 8", i, i, inertia.At(i, i))
		}
	}
}

func TestPlaneIsInfinite(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}}

	if !math.IsInf(plane.ComputeMass(10), 1) {
		t.Error("plane mass should be infinite")
	}
	if !math.IsInf(plane.BoundingRadius(), 1) {
		t.Error("plane bounding radius should be infinite")
	}
	if plane.ComputeInertia(1) != (mgl64.Mat3{}) {
		t.Error("plane inertia should be zero")
	}
}

func TestBoxComputeAABBWithRotation(t *testing.T) {
	tests := []struct {
		name        string
		box         *Box
		transform   Transform
		expectedMin mgl64.Vec3
		expectedMax mgl64.Vec3
	}{
		{
			name: "rotation 90° around Z-axis",
			box:  &Box{HalfExtents: mgl64.Vec3{1, 2, 3}},
			transform: Transform{
				Rotation: mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}),
			},
			expectedMin: mgl64.Vec3{-2, -1, -3},
			expectedMax: mgl64.Vec3{2, 1, 3},
		},
		{
			name: "rotation 45° around Y-axis",
			box:  &Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
			transform: Transform{
				Rotation: mgl64.QuatRotate(mgl64.DegToRad(45), mgl64.Vec3{0, 1, 0}),
			},
			expectedMin: mgl64.Vec3{-math.Sqrt2, -1, -math.Sqrt2},
			expectedMax: mgl64.Vec3{math.Sqrt2, 1, math.Sqrt2},
		},
		{
			name: "rotation with offset position",
			box:  &Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
			transform: Transform{
				Position: mgl64.Vec3{5, 10, -3},
				Rotation: mgl64.QuatRotate(mgl64.DegToRad(90), mgl64.Vec3{0, 0, 1}),
			},
			expectedMin: mgl64.Vec3{4, 9, -4},
			expectedMax: mgl64.Vec3{6, 11, -2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.box.ComputeAABB(tt.transform)
			aabb := tt.box.GetAABB()

			if !vec3AlmostEqual(aabb.Min, tt.expectedMin, 1e-9) {
				t.Errorf("Min = %v, want %v", aabb.Min, tt.expectedMin)
			}
			if !vec3AlmostEqual(aabb.Max, tt.expectedMax, 1e-9) {
				t.Errorf("Max = %v, want %v", aabb.Max, tt.expectedMax)
			}
		})
	}
}

func TestPlaneWorldPlane(t *testing.T) {
	plane := &Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: -2}
	transform := NewTransform()
	transform.Position = mgl64.Vec3{0, 1, 0}

	normal, point := plane.WorldPlane(transform)
	if !vec3AlmostEqual(normal, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("normal = %v", normal)
	}
	// Normal·p + Distance = 0 gives y = 2, then shifted by the transform
	if !almostEqual(point.Y(), 3, 1e-12) {
		t.Errorf("surface point = %v, want y=3", point)
	}

	plane.ComputeAABB(transform)
	aabb := plane.GetAABB()
	if !almostEqual(aabb.Max.Y(), 3, 1e-12) || !almostEqual(aabb.Min.Y(), 2, 1e-12) {
		t.Errorf("plane AABB along the normal = [%v, %v], want [2, 3]", aabb.Min.Y(), aabb.Max.Y())
	}
	if aabb.Max.X() < 1e9 || aabb.Min.Z() > -1e9 {
		t.Error("plane AABB should be unbounded along tangent axes")
	}
}

func TestTangentBasis(t *testing.T) {
	normals := []mgl64.Vec3{
		{0, 1, 0},
		{1, 0, 0},
		{0, 0, -1},
		mgl64.Vec3{1, 1, 1}.Normalize(),
	}

	for _, n := range normals {
		t1, t2 := TangentBasis(n)
		if !almostEqual(t1.Len(), 1, 1e-10) || !almostEqual(t2.Len(), 1, 1e-10) {
			t.Errorf("tangents of %v are not unit: %v %v", n, t1, t2)
		}
		if math.Abs(t1.Dot(n)) > 1e-10 || math.Abs(t2.Dot(n)) > 1e-10 || math.Abs(t1.Dot(t2)) > 1e-10 {
			t.Errorf("basis of %v is not orthogonal: %v %v", n, t1, t2)
		}
	}
}

func TestBoxCornersAreStable(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	corners := box.Corners()

	if corners[0] != (mgl64.Vec3{-1, -2, -3}) || corners[7] != (mgl64.Vec3{1, 2, 3}) {
		t.Errorf("unexpected corner order: %v", corners)
	}
	if !almostEqual(box.BoundingRadius(), math.Sqrt(14), 1e-12) {
		t.Errorf("BoundingRadius() = %v", box.BoundingRadius())
	}
}

func TestSupport(t *testing.T) {
	box := &Box{HalfExtents: mgl64.Vec3{1, 2, 3}}
	if got := box.Support(mgl64.Vec3{1, -1, 0.5}); got != (mgl64.Vec3{1, -2, 3}) {
		t.Errorf("Box.Support() = %v", got)
	}

	sphere := &Sphere{Radius: 2}
	if got := sphere.Support(mgl64.Vec3{0, 0, -5}); got != (mgl64.Vec3{0, 0, -2}) {
		t.Errorf("Sphere.Support() = %v", got)
	}
	if got := sphere.Support(mgl64.Vec3{}); !almostEqual(got.Len(), 2, 1e-12) {
		t.Errorf("Sphere.Support(0) = %v, want a surface point", got)
	}
}
