package moreau

import (
	"sort"
	"testing"

	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

func createTestBox(position mgl64.Vec3, halfExtents mgl64.Vec3) *actor.RigidBody {
	return actor.NewRigidBody(
		actor.Transform{Position: position, Rotation: mgl64.QuatIdent()},
		&actor.Box{HalfExtents: halfExtents},
		actor.BodyTypeDynamic,
		1.0,
	)
}

func createTestSphere(position mgl64.Vec3, radius float64) *actor.RigidBody {
	return actor.NewRigidBody(
		actor.Transform{Position: position, Rotation: mgl64.QuatIdent()},
		&actor.Sphere{Radius: radius},
		actor.BodyTypeDynamic,
		1.0,
	)
}

func createTestPlane() *actor.RigidBody {
	return actor.NewRigidBody(
		actor.Transform{Position: mgl64.Vec3{0, 0, 0}, Rotation: mgl64.QuatIdent()},
		&actor.Plane{Normal: mgl64.Vec3{0, 1, 0}, Distance: 0},
		actor.BodyTypeStatic,
		0.0,
	)
}

// pairIndices maps pairs back to body indices, smallest first, sorted.
func pairIndices(bodies []*actor.RigidBody, pairs []Pair) [][2]int {
	indexOf := make(map[*actor.RigidBody]int, len(bodies))
	for i, body := range bodies {
		indexOf[body] = i
	}

	result := make([][2]int, 0, len(pairs))
	for _, pair := range pairs {
		a, b := indexOf[pair.BodyA], indexOf[pair.BodyB]
		result = append(result, [2]int{min(a, b), max(a, b)})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i][0] != result[j][0] {
			return result[i][0] < result[j][0]
		}
		return result[i][1] < result[j][1]
	})
	return result
}

func findPairs(grid *SpatialGrid, bodies []*actor.RigidBody) [][2]int {
	grid.Clear()
	for i, body := range bodies {
		grid.Insert(i, body)
	}
	grid.SortCells()
	return pairIndices(bodies, grid.FindPairs(bodies))
}

func TestWorldToCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	tests := []struct {
		name     string
		position mgl64.Vec3
		expected CellKey
	}{
		{"origin", mgl64.Vec3{0, 0, 0}, CellKey{0, 0, 0}},
		{"positive", mgl64.Vec3{1.5, 2.3, 3.7}, CellKey{1, 2, 3}},
		{"negative", mgl64.Vec3{-1.5, -2.3, -3.7}, CellKey{-2, -3, -4}},
		{"fractional", mgl64.Vec3{0.5, 0.5, 0.5}, CellKey{0, 0, 0}},
		{"large", mgl64.Vec3{100.7, -200.3, 50.1}, CellKey{100, -201, 50}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.worldToCell(tt.position)
			if result != tt.expected {
				t.Errorf("worldToCell(%v) = %v, want %v", tt.position, result, tt.expected)
			}
		})
	}
}

func TestHashCell(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)

	tests := []struct {
		name     string
		key      CellKey
		expected int
	}{
		{"origin", CellKey{0, 0, 0}, 0},
		{"simple", CellKey{1, 2, 3}, 6},
		{"negative", CellKey{-1, -2, -3}, 10},
		{"large", CellKey{100, 200, 300}, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := grid.hashCell(tt.key)
			if result < 0 || result >= len(grid.cells) {
				t.Fatalf("hashCell(%v) = %d, out of range [0, %d)", tt.key, result, len(grid.cells))
			}
			if result != tt.expected {
				t.Errorf("hashCell(%v) = %d, want %d", tt.key, result, tt.expected)
			}
		})
	}
}

func TestNextPowerOfTwo(t *testing.T) {
	tests := []struct{ in, want int }{{0, 1}, {1, 1}, {3, 4}, {16, 16}, {1000, 1024}}
	for _, tt := range tests {
		if got := nextPowerOfTwo(tt.in); got != tt.want {
			t.Errorf("nextPowerOfTwo(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := len(NewSpatialGrid(1.0, 100).cells); got != 128 {
		t.Errorf("grid of 100 cells has %d buckets, want 128", got)
	}
}

func TestInsertPlaneKeptAside(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	grid.Insert(0, createTestPlane())
	grid.Insert(1, createTestBox(mgl64.Vec3{0.5, 0.5, 0.5}, mgl64.Vec3{0.4, 0.4, 0.4}))

	if len(grid.planes.bodyIndices) != 1 || grid.planes.bodyIndices[0] != 0 {
		t.Fatalf("planes = %v, want [0]", grid.planes.bodyIndices)
	}
	for i, cell := range grid.cells {
		for _, idx := range cell.bodyIndices {
			if idx == 0 {
				t.Errorf("plane found in cell %d", i)
			}
		}
	}

	idx := grid.hashCell(CellKey{0, 0, 0})
	if len(grid.cells[idx].bodyIndices) != 1 {
		t.Errorf("cell (0,0,0) holds %v, want the box", grid.cells[idx].bodyIndices)
	}

	grid.Clear()
	if len(grid.planes.bodyIndices) != 0 || len(grid.cells[idx].bodyIndices) != 0 {
		t.Error("Clear should empty the planes and the cells")
	}
}

func TestFindPairs(t *testing.T) {
	grid := NewSpatialGrid(1.0, 64)
	bodies := []*actor.RigidBody{
		createTestPlane(),
		createTestBox(mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
		createTestBox(mgl64.Vec3{0.8, 1, 0}, mgl64.Vec3{0.5, 0.5, 0.5}),
		createTestSphere(mgl64.Vec3{10, 1, 10}, 0.5),
	}

	got := findPairs(grid, bodies)
	want := [][2]int{{0, 1}, {0, 2}, {0, 3}, {1, 2}}
	if len(got) != len(want) {
		t.Fatalf("pairs = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pairs = %v, want %v", got, want)
			break
		}
	}
}

func TestFindPairs_PlaneFirst(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	bodies := []*actor.RigidBody{
		createTestSphere(mgl64.Vec3{0, 0.5, 0}, 0.5),
		createTestPlane(),
	}

	grid.Clear()
	for i, body := range bodies {
		grid.Insert(i, body)
	}
	pairs := grid.FindPairs(bodies)

	if len(pairs) != 1 {
		t.Fatalf("got %d pairs, want 1", len(pairs))
	}
	if pairs[0].BodyA != bodies[1] {
		t.Error("the plane should be the first body of its pairs")
	}
}

func TestFindPairs_StaticBodiesIgnored(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	wall := actor.NewRigidBody(
		actor.Transform{Position: mgl64.Vec3{0, 0.5, 0}, Rotation: mgl64.QuatIdent()},
		&actor.Box{HalfExtents: mgl64.Vec3{1, 1, 1}},
		actor.BodyTypeStatic,
		0,
	)

	if got := findPairs(grid, []*actor.RigidBody{createTestPlane(), wall}); len(got) != 0 {
		t.Errorf("static bodies should not be paired, got %v", got)
	}
}

func TestFindPairs_Margin(t *testing.T) {
	grid := NewSpatialGrid(1.0, 16)
	bodies := []*actor.RigidBody{
		createTestSphere(mgl64.Vec3{0, 0, 0}, 0.5),
		createTestSphere(mgl64.Vec3{1.04, 0, 0}, 0.5),
	}

	if got := findPairs(grid, bodies); len(got) != 0 {
		t.Fatalf("spheres 0.04 apart paired without margin: %v", got)
	}

	grid.Margin = 0.05
	if got := findPairs(grid, bodies); len(got) != 1 {
		t.Errorf("spheres 0.04 apart should be paired with a 0.05 margin, got %v", got)
	}
}

func TestFindPairsParallel(t *testing.T) {
	grid := NewSpatialGrid(1.0, 256)
	bodies := []*actor.RigidBody{createTestPlane()}
	for x := 0; x < 6; x++ {
		for z := 0; z < 6; z++ {
			bodies = append(bodies, createTestSphere(mgl64.Vec3{float64(x) * 0.9, 0.5, float64(z) * 0.9}, 0.5))
		}
	}

	sequential := findPairs(grid, bodies)

	for _, workers := range []int{1, 3, 8, 100} {
		var pairs []Pair
		for pair := range grid.FindPairsParallel(bodies, workers) {
			pairs = append(pairs, pair)
		}
		parallel := pairIndices(bodies, pairs)

		if len(parallel) != len(sequential) {
			t.Fatalf("workers=%d: %d pairs, sequential found %d", workers, len(parallel), len(sequential))
		}
		for i := range parallel {
			if parallel[i] != sequential[i] {
				t.Fatalf("workers=%d: pair %d = %v, want %v", workers, i, parallel[i], sequential[i])
			}
		}
	}

	// 36 plane pairs, 2*6*5 side neighbours, 2*5*5 diagonals
	if len(sequential) != 36+60+50 {
		t.Errorf("got %d pairs, want %d", len(sequential), 36+60+50)
	}
}

func BenchmarkFindPairs(b *testing.B) {
	grid := NewSpatialGrid(2.0, 1024)
	bodies := make([]*actor.RigidBody, 0, 1000)
	for x := 0; x < 10; x++ {
		for y := 0; y < 10; y++ {
			for z := 0; z < 10; z++ {
				bodies = append(bodies, createTestSphere(mgl64.Vec3{float64(x), float64(y), float64(z)}, 0.5))
			}
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		grid.Clear()
		for j, body := range bodies {
			grid.Insert(j, body)
		}
		grid.SortCells()
		grid.FindPairs(bodies)
	}
}
