package moreau

import (
	"math"
	"sort"
	"sync"

	"github.com/akmonengine/moreau/actor"
	"github.com/go-gl/mathgl/mgl64"
)

// CellKey addresses a cell of the grid
type CellKey struct {
	X, Y, Z int
}

// Cell holds the indices of the bodies overlapping it
type Cell struct {
	bodyIndices []int
}

// Pair is a pair of bodies whose bounding volumes overlap
type Pair struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

// SpatialGrid is a uniform hashed grid used as broad phase.
// Planes are unbounded: they are kept aside and paired with every other body.
type SpatialGrid struct {
	cellSize float64
	cells    []Cell
	cellMask int
	// Margin grows the bounding boxes, so that bodies closer than the
	// contact prediction are paired.
	Margin float64

	planes Cell
}

// NewSpatialGrid creates a grid of numCells buckets, rounded up to a power of
// two.
func NewSpatialGrid(cellSize float64, numCells int) *SpatialGrid {
	numCells = nextPowerOfTwo(numCells)

	cells := make([]Cell, numCells)
	for i := range cells {
		cells[i].bodyIndices = make([]int, 0, 8)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cells:    cells,
		cellMask: numCells - 1,
	}
}

func nextPowerOfTwo(n int) int {
	if n <= 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}

// Insert adds the body to every cell its bounding box covers
func (sg *SpatialGrid) Insert(bodyIndex int, body *actor.RigidBody) {
	if body.Shape.Type() == actor.ShapeTypePlane {
		sg.planes.bodyIndices = append(sg.planes.bodyIndices, bodyIndex)
		return
	}

	sg.forEachCell(sg.bounds(body), func(cellIdx int) {
		sg.cells[cellIdx].bodyIndices = append(sg.cells[cellIdx].bodyIndices, bodyIndex)
	})
}

func (sg *SpatialGrid) Clear() {
	for i := range sg.cells {
		sg.cells[i].bodyIndices = sg.cells[i].bodyIndices[:0]
	}
	sg.planes.bodyIndices = sg.planes.bodyIndices[:0]
}

func (sg *SpatialGrid) SortCells() {
	for i := range sg.cells {
		if len(sg.cells[i].bodyIndices) > 1 {
			sort.Ints(sg.cells[i].bodyIndices)
		}
	}
}

// FindPairs is the sequential version of FindPairsParallel
func (sg *SpatialGrid) FindPairs(bodies []*actor.RigidBody) []Pair {
	pairs := make([]Pair, 0, len(bodies)/2)
	seen := make([]bool, len(bodies))

	for bodyIdx := range bodies {
		clear(seen)
		sg.pairsOf(bodies, bodyIdx, seen, func(pair Pair) {
			pairs = append(pairs, pair)
		})
	}

	return pairs
}

// FindPairsParallel splits the bodies between the workers. Each pair is
// emitted once, by the body with the lowest index.
func (sg *SpatialGrid) FindPairsParallel(bodies []*actor.RigidBody, numWorkers int) <-chan Pair {
	var wg sync.WaitGroup
	numWorkers = max(1, numWorkers)
	pairsChan := make(chan Pair, numWorkers*10)

	bodiesPerWorker := len(bodies) / numWorkers
	if bodiesPerWorker == 0 {
		bodiesPerWorker = 1
	}

	for w := 0; w < numWorkers; w++ {
		startIdx := w * bodiesPerWorker
		endIdx := startIdx + bodiesPerWorker
		if w == numWorkers-1 {
			endIdx = len(bodies)
		}
		if startIdx >= len(bodies) {
			break
		}

		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()

			seen := make([]bool, len(bodies))
			for bodyIdx := start; bodyIdx < end; bodyIdx++ {
				clear(seen)
				sg.pairsOf(bodies, bodyIdx, seen, func(pair Pair) {
					pairsChan <- pair
				})
			}
		}(startIdx, endIdx)
	}

	go func() {
		wg.Wait()
		close(pairsChan)
	}()

	return pairsChan
}

// pairsOf emits the pairs between bodies[bodyIdx] and the bodies of higher
// index sharing a cell with it, or any plane.
func (sg *SpatialGrid) pairsOf(bodies []*actor.RigidBody, bodyIdx int, seen []bool, emit func(Pair)) {
	bodyA := bodies[bodyIdx]
	if bodyA.Shape.Type() == actor.ShapeTypePlane {
		return
	}

	consider := func(otherIdx int) {
		if otherIdx == bodyIdx || seen[otherIdx] {
			return
		}
		seen[otherIdx] = true

		bodyB := bodies[otherIdx]
		if !interacts(bodyA, bodyB) {
			return
		}
		if bodyB.Shape.Type() == actor.ShapeTypePlane {
			emit(Pair{BodyA: bodyB, BodyB: bodyA})
			return
		}
		if otherIdx > bodyIdx && sg.bounds(bodyA).Overlaps(sg.bounds(bodyB)) {
			emit(Pair{BodyA: bodyA, BodyB: bodyB})
		}
	}

	for _, planeIdx := range sg.planes.bodyIndices {
		consider(planeIdx)
	}
	sg.forEachCell(sg.bounds(bodyA), func(cellIdx int) {
		for _, otherIdx := range sg.cells[cellIdx].bodyIndices {
			consider(otherIdx)
		}
	})
}

func (sg *SpatialGrid) bounds(body *actor.RigidBody) actor.AABB {
	return body.Shape.GetAABB().Expanded(sg.Margin * 0.5)
}

// interacts is false when no body of the pair can move under contact forces.
func interacts(bodyA, bodyB *actor.RigidBody) bool {
	return bodyA.BodyType == actor.BodyTypeDynamic || bodyB.BodyType == actor.BodyTypeDynamic
}

func (sg *SpatialGrid) forEachCell(aabb actor.AABB, fn func(cellIdx int)) {
	minCell := sg.worldToCell(aabb.Min)
	maxCell := sg.worldToCell(aabb.Max)

	for x := minCell.X; x <= maxCell.X; x++ {
		for y := minCell.Y; y <= maxCell.Y; y++ {
			for z := minCell.Z; z <= maxCell.Z; z++ {
				fn(sg.hashCell(CellKey{x, y, z}))
			}
		}
	}
}

func (sg *SpatialGrid) worldToCell(pos mgl64.Vec3) CellKey {
	return CellKey{
		X: int(math.Floor(pos.X() / sg.cellSize)),
		Y: int(math.Floor(pos.Y() / sg.cellSize)),
		Z: int(math.Floor(pos.Z() / sg.cellSize)),
	}
}

func (sg *SpatialGrid) hashCell(key CellKey) int {
	h := (key.X * 73856093) ^ (key.Y * 19349663) ^ (key.Z * 83492791)
	return h & sg.cellMask
}
