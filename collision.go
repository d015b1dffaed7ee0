package moreau

import (
	"sort"
	"sync"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
)

// DefaultPrediction is the distance under which separated shapes already
// produce speculative contacts.
const DefaultPrediction = 0.05

// BroadPhase finds the pairs of bodies whose bounding boxes overlap, through
// the spatial grid. Pairs involving a plane are always kept.
func BroadPhase(spatialGrid *SpatialGrid, bodies []*actor.RigidBody, workersCount int) <-chan Pair {
	spatialGrid.Clear()
	for i, body := range bodies {
		spatialGrid.Insert(i, body)
	}
	spatialGrid.SortCells()

	return spatialGrid.FindPairsParallel(bodies, workersCount)
}

// NarrowPhase computes the contact manifolds of the candidate pairs in
// parallel. The result is sorted by body handles, so the solver sees the
// contacts in the same order whatever the scheduling.
func NarrowPhase(pairs <-chan Pair, prediction float64, workersCount int) []detection.ContactManifold {
	workersCount = max(1, workersCount)
	manifoldsChan := make(chan detection.ContactManifold, workersCount*2)

	var wg sync.WaitGroup
	for range workersCount {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range pairs {
				if !detection.Supported(pair.BodyA.Shape, pair.BodyB.Shape) {
					continue
				}
				if manifold, ok := detection.Collide(pair.BodyA, pair.BodyB, prediction); ok {
					manifoldsChan <- manifold
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(manifoldsChan)
	}()

	manifolds := make([]detection.ContactManifold, 0)
	for manifold := range manifoldsChan {
		manifolds = append(manifolds, manifold)
	}

	sort.Slice(manifolds, func(i, j int) bool {
		a, b := manifolds[i], manifolds[j]
		if a.Body1.Body != b.Body1.Body {
			return a.Body1.Body.Less(b.Body1.Body)
		}
		return a.Body2.Body.Less(b.Body2.Body)
	})

	return manifolds
}
