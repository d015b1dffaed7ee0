package epa

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func square(size float64) []ClipPoint {
	return []ClipPoint{
		{Position: mgl64.Vec3{-size, 0, -size}, Feature: 0},
		{Position: mgl64.Vec3{size, 0, -size}, Feature: 1},
		{Position: mgl64.Vec3{size, 0, size}, Feature: 2},
		{Position: mgl64.Vec3{-size, 0, size}, Feature: 3},
	}
}

func TestClipPolygon(t *testing.T) {
	tag := func(from ClipPoint) int { return 100 + from.Feature }

	t.Run("fully inside", func(t *testing.T) {
		clipped := ClipPolygon(square(1), mgl64.Vec3{2, 0, 0}, mgl64.Vec3{-1, 0, 0}, tag)
		if len(clipped) != 4 {
			t.Fatalf("len = %d, want 4", len(clipped))
		}
		for i, p := range clipped {
			if p.Feature != i {
				t.Errorf("vertex %d feature = %d", i, p.Feature)
			}
		}
	})

	t.Run("fully outside", func(t *testing.T) {
		if clipped := ClipPolygon(square(1), mgl64.Vec3{2, 0, 0}, mgl64.Vec3{1, 0, 0}, tag); len(clipped) != 0 {
			t.Errorf("len = %d, want 0", len(clipped))
		}
	})

	t.Run("halved", func(t *testing.T) {
		// keep x <= 0
		clipped := ClipPolygon(square(1), mgl64.Vec3{}, mgl64.Vec3{-1, 0, 0}, tag)
		if len(clipped) != 4 {
			t.Fatalf("len = %d, want 4", len(clipped))
		}

		want := []ClipPoint{
			{Position: mgl64.Vec3{-1, 0, -1}, Feature: 0},
			{Position: mgl64.Vec3{0, 0, -1}, Feature: 100},
			{Position: mgl64.Vec3{0, 0, 1}, Feature: 102},
			{Position: mgl64.Vec3{-1, 0, 1}, Feature: 3},
		}
		for i := range want {
			if !vec3ApproxEqual(clipped[i].Position, want[i].Position, 1e-12) || clipped[i].Feature != want[i].Feature {
				t.Errorf("vertex %d = %v, want %v", i, clipped[i], want[i])
			}
		}
	})

	t.Run("empty polygon", func(t *testing.T) {
		if clipped := ClipPolygon(nil, mgl64.Vec3{}, mgl64.Vec3{1, 0, 0}, tag); len(clipped) != 0 {
			t.Errorf("len = %d, want 0", len(clipped))
		}
	})
}

func TestLineIntersectPlane(t *testing.T) {
	got := lineIntersectPlane(mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 3, 0}, mgl64.Vec3{5, 1, 5}, mgl64.Vec3{0, 1, 0})
	if !vec3ApproxEqual(got, mgl64.Vec3{0, 1, 0}, 1e-12) {
		t.Errorf("lineIntersectPlane() = %v, want (0,1,0)", got)
	}

	// parallel segment
	p1 := mgl64.Vec3{0, 2, 0}
	if got := lineIntersectPlane(p1, mgl64.Vec3{1, 2, 0}, mgl64.Vec3{}, mgl64.Vec3{0, 1, 0}); got != p1 {
		t.Errorf("lineIntersectPlane() = %v, want %v", got, p1)
	}
}

func TestReduceTo4(t *testing.T) {
	normal := mgl64.Vec3{0, 1, 0}

	if points := square(1); len(ReduceTo4(points, normal)) != 4 {
		t.Error("4 points are kept as is")
	}

	// an octagon
	var points []ClipPoint
	for i := range 8 {
		angle := float64(i) * math.Pi / 4
		points = append(points, ClipPoint{Position: mgl64.Vec3{math.Cos(angle), 0, math.Sin(angle)}, Feature: i})
	}

	reduced := ReduceTo4(points, normal)
	if len(reduced) != 4 {
		t.Fatalf("len = %d, want 4", len(reduced))
	}
	for i := 1; i < len(reduced); i++ {
		if reduced[i].Feature <= reduced[i-1].Feature {
			t.Errorf("order not preserved: %v", reduced)
		}
	}
}

func TestGetTangentBasis(t *testing.T) {
	for _, normal := range []mgl64.Vec3{{1, 0, 0}, {0, 1, 0}, mgl64.Vec3{1, 2, 3}.Normalize()} {
		t1, t2 := getTangentBasis(normal)
		if math.Abs(t1.Dot(normal)) > 1e-12 || math.Abs(t2.Dot(normal)) > 1e-12 || math.Abs(t1.Dot(t2)) > 1e-12 {
			t.Errorf("basis of %v is not orthogonal: %v %v", normal, t1, t2)
		}
	}
}

func BenchmarkClipPolygon(b *testing.B) {
	tag := func(from ClipPoint) int { return from.Feature + 8 }
	polygon := square(1)

	for b.Loop() {
		ClipPolygon(polygon, mgl64.Vec3{0.5, 0, 0}, mgl64.Vec3{-1, 0, 0}, tag)
	}
}
