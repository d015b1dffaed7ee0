package moreau

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/akmonengine/moreau/solver"
)

// Island is a group of dynamic bodies connected by contacts or joints, with
// the constraints acting on them. Static and kinematic bodies do not connect
// islands.
type Island struct {
	Bodies    []actor.BodyHandle
	Manifolds []detection.ContactManifold
	Joints    []solver.JointConstraint
}

// islandBuilder keeps its buffers from one step to the next.
type islandBuilder struct {
	nodes     map[actor.BodyHandle]int
	handles   []actor.BodyHandle
	adjacency [][]int
	islandOf  []int
	stack     []int
	islands   []Island
}

func (b *islandBuilder) reset(bodies []*actor.RigidBody) {
	if b.nodes == nil {
		b.nodes = make(map[actor.BodyHandle]int)
	}
	clear(b.nodes)
	b.handles = b.handles[:0]

	for _, body := range bodies {
		if body.BodyType == actor.BodyTypeDynamic {
			b.nodes[body.Handle()] = len(b.handles)
			b.handles = append(b.handles, body.Handle())
		}
	}

	n := len(b.handles)
	if cap(b.adjacency) < n {
		b.adjacency = make([][]int, n)
	}
	b.adjacency = b.adjacency[:n]
	for i := range b.adjacency {
		b.adjacency[i] = b.adjacency[i][:0]
	}
}

func (b *islandBuilder) link(handle1, handle2 actor.BodyHandle) {
	i, ok1 := b.nodes[handle1]
	j, ok2 := b.nodes[handle2]
	if !ok1 || !ok2 || i == j {
		return
	}
	b.adjacency[i] = append(b.adjacency[i], j)
	b.adjacency[j] = append(b.adjacency[j], i)
}

// islandOfPair returns the island of the dynamic side of a constraint, -1
// when no side is dynamic.
func (b *islandBuilder) islandOfPair(handle1, handle2 actor.BodyHandle) int {
	if i, ok := b.nodes[handle1]; ok {
		return b.islandOf[i]
	}
	if j, ok := b.nodes[handle2]; ok {
		return b.islandOf[j]
	}
	return -1
}

// build runs a depth first search over the constraint graph, seeded in body
// order. The bodies of an island are listed in visiting order.
func (b *islandBuilder) build(bodies []*actor.RigidBody, manifolds []detection.ContactManifold, joints []solver.JointConstraint) []Island {
	b.reset(bodies)

	for i := range manifolds {
		b.link(manifolds[i].Body1.Body, manifolds[i].Body2.Body)
	}
	for _, joint := range joints {
		anchor1, anchor2 := joint.Anchors()
		b.link(anchor1.Body, anchor2.Body)
	}

	b.islandOf = b.islandOf[:0]
	for range b.handles {
		b.islandOf = append(b.islandOf, -1)
	}
	b.islands = b.islands[:0]

	for seed := range b.handles {
		if b.islandOf[seed] >= 0 {
			continue
		}

		id := len(b.islands)
		island := Island{}
		b.stack = append(b.stack[:0], seed)
		b.islandOf[seed] = id

		for len(b.stack) > 0 {
			node := b.stack[len(b.stack)-1]
			b.stack = b.stack[:len(b.stack)-1]
			island.Bodies = append(island.Bodies, b.handles[node])

			for _, other := range b.adjacency[node] {
				if b.islandOf[other] >= 0 {
					continue
				}
				b.islandOf[other] = id
				b.stack = append(b.stack, other)
			}
		}

		b.islands = append(b.islands, island)
	}

	for i := range manifolds {
		if id := b.islandOfPair(manifolds[i].Body1.Body, manifolds[i].Body2.Body); id >= 0 {
			b.islands[id].Manifolds = append(b.islands[id].Manifolds, manifolds[i])
		}
	}
	for _, joint := range joints {
		anchor1, anchor2 := joint.Anchors()
		if id := b.islandOfPair(anchor1.Body, anchor2.Body); id >= 0 {
			b.islands[id].Joints = append(b.islands[id].Joints, joint)
		}
	}

	return b.islands
}
