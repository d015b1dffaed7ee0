package actor

// BodyDesc builds a body once the BodySet has allocated its handle, so the body
// can keep a reference to its own handle.
type BodyDesc[B Body] interface {
	BuildWithHandle(handle BodyHandle) B
}

type slot struct {
	body     Body
	occupied bool
	nextFree int
}

// BodySet owns every body of a simulation and addresses them through handles.
// The ground body is created with the set and is never removed.
type BodySet struct {
	ground   *Ground
	slots    []slot
	freeHead int
	count    int
}

func NewBodySet() *BodySet {
	return &BodySet{
		ground:   NewGround(),
		freeHead: -1,
	}
}

// AddBody allocates a slot, builds the body from its descriptor with the new
// handle and stores it. The concrete body type is carried by the descriptor, so
// the returned body never needs a type assertion.
func AddBody[B Body](set *BodySet, desc BodyDesc[B]) (BodyHandle, B) {
	index := set.vacantSlot()
	handle := indexedHandle(index)
	body := desc.BuildWithHandle(handle)

	set.slots[index] = slot{body: body, occupied: true, nextFree: -1}
	set.count++

	return handle, body
}

func (set *BodySet) vacantSlot() int {
	if set.freeHead >= 0 {
		index := set.freeHead
		set.freeHead = set.slots[index].nextFree
		return index
	}

	set.slots = append(set.slots, slot{nextFree: -1})
	return len(set.slots) - 1
}

// Remove frees the slot of the given body. Removing the ground is a no-op.
// It returns the removed body, if any.
func (set *BodySet) Remove(handle BodyHandle) (Body, bool) {
	index, ok := handle.Index()
	if !ok || index >= len(set.slots) || !set.slots[index].occupied {
		return nil, false
	}

	body := set.slots[index].body
	set.slots[index] = slot{nextFree: set.freeHead}
	set.freeHead = index
	set.count--

	return body, true
}

// Get returns the body identified by handle. The ground handle always resolves
// to the ground body. The returned body is mutable.
func (set *BodySet) Get(handle BodyHandle) (Body, bool) {
	if handle.IsGround() {
		return set.ground, true
	}

	index, ok := handle.Index()
	if !ok || index >= len(set.slots) || !set.slots[index].occupied {
		return nil, false
	}
	return set.slots[index].body, true
}

// GetPair returns two bodies for simultaneous mutation. A missing body is nil.
//
// Both handles must differ: handing out the same body twice as two independent
// views is a caller bug, so GetPair panics. Distinct handles resolve to distinct
// slots (or the ground, which has no slot), so the two bodies never alias.
func (set *BodySet) GetPair(handle1, handle2 BodyHandle) (Body, Body) {
	if handle1 == handle2 {
		panic("actor: both body handles must not be equal")
	}

	body1, _ := set.Get(handle1)
	body2, _ := set.Get(handle2)

	return body1, body2
}

func (set *BodySet) Contains(handle BodyHandle) bool {
	_, ok := set.Get(handle)
	return ok
}

// Len returns the number of bodies, the ground excluded.
func (set *BodySet) Len() int {
	return set.count
}

func (set *BodySet) Ground() *Ground {
	return set.ground
}

// ForEach visits every body but the ground, in slot order. The order is not
// stable across removals since slots are reused.
func (set *BodySet) ForEach(fn func(handle BodyHandle, body Body)) {
	for i := range set.slots {
		if set.slots[i].occupied {
			fn(indexedHandle(i), set.slots[i].body)
		}
	}
}
