package moreau

import (
	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
)

const (
	TRIGGER_ENTER EventType = iota
	COLLISION_ENTER
	TRIGGER_STAY
	COLLISION_STAY
	TRIGGER_EXIT
	COLLISION_EXIT
)

type pairKey struct {
	bodyA actor.BodyHandle
	bodyB actor.BodyHandle
}

// makePairKey orders the handles so that (a, b) and (b, a) share a key
func makePairKey(bodyA, bodyB actor.BodyHandle) pairKey {
	if bodyB.Less(bodyA) {
		bodyA, bodyB = bodyB, bodyA
	}
	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

type EventType uint8

// Event is implemented by every event sent to the listeners
type Event interface {
	Type() EventType
}

// Trigger events
type TriggerEnterEvent struct {
	BodyA actor.BodyHandle
	BodyB actor.BodyHandle
}

func (e TriggerEnterEvent) Type() EventType { return TRIGGER_ENTER }

type TriggerStayEvent struct {
	BodyA actor.BodyHandle
	BodyB actor.BodyHandle
}

func (e TriggerStayEvent) Type() EventType { return TRIGGER_STAY }

type TriggerExitEvent struct {
	BodyA actor.BodyHandle
	BodyB actor.BodyHandle
}

func (e TriggerExitEvent) Type() EventType { return TRIGGER_EXIT }

// Collision events
type CollisionEnterEvent struct {
	BodyA actor.BodyHandle
	BodyB actor.BodyHandle
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA actor.BodyHandle
	BodyB actor.BodyHandle
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA actor.BodyHandle
	BodyB actor.BodyHandle
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

// EventListener is called synchronously at the end of World.Step
type EventListener func(event Event)

// Events tracks touching pairs from one step to the next and dispatches
// enter, stay and exit events.
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	// the value tells whether the pair involves a trigger
	previousActivePairs map[pairKey]bool
	currentActivePairs  map[pairKey]bool
}

func NewEvents() Events {
	return Events{
		listeners:           make(map[EventType][]EventListener),
		buffer:              make([]Event, 0, 256),
		previousActivePairs: make(map[pairKey]bool),
		currentActivePairs:  make(map[pairKey]bool),
	}
}

// Subscribe adds a listener for an event type
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	if e.listeners == nil {
		*e = NewEvents()
	}
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// contactSkin is the gap under which a speculative contact counts as touching.
// Resting bodies stop at a zero gap, give or take rounding.
const contactSkin = 1e-3

// recordCollisions marks the touching pairs of this step and returns the
// manifolds to solve: the trigger ones are dropped. Speculative contacts do
// not count as touching.
func (e *Events) recordCollisions(bodies *actor.BodySet, manifolds []detection.ContactManifold) []detection.ContactManifold {
	if e.currentActivePairs == nil {
		*e = NewEvents()
	}

	n := 0
	for _, manifold := range manifolds {
		trigger := isTrigger(bodies, manifold.Body1.Body) || isTrigger(bodies, manifold.Body2.Body)

		if deepest, ok := manifold.DeepestContact(); ok && deepest.Contact.Depth >= -contactSkin {
			e.currentActivePairs[makePairKey(manifold.Body1.Body, manifold.Body2.Body)] = trigger
		}

		if !trigger {
			manifolds[n] = manifold
			n++
		}
	}

	return manifolds[:n]
}

func isTrigger(bodies *actor.BodySet, handle actor.BodyHandle) bool {
	body, ok := bodies.Get(handle)
	if !ok {
		return false
	}
	rb, ok := body.(*actor.RigidBody)
	return ok && rb.IsTrigger
}

// forget drops the pairs involving a removed body, without exit events
func (e *Events) forget(handle actor.BodyHandle) {
	for pair := range e.previousActivePairs {
		if pair.bodyA == handle || pair.bodyB == handle {
			delete(e.previousActivePairs, pair)
		}
	}
}

// processCollisionEvents compares the current and previous pairs to detect
// Enter, Stay and Exit.
func (e *Events) processCollisionEvents() {
	for pair, trigger := range e.currentActivePairs {
		if _, active := e.previousActivePairs[pair]; active {
			if trigger {
				e.buffer = append(e.buffer, TriggerStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			} else {
				e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			}
		} else {
			if trigger {
				e.buffer = append(e.buffer, TriggerEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			} else {
				e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
			}
		}
	}

	for pair, trigger := range e.previousActivePairs {
		if _, active := e.currentActivePairs[pair]; active {
			continue
		}
		if trigger {
			e.buffer = append(e.buffer, TriggerExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	// Swap for next frame and clear current
	e.previousActivePairs, e.currentActivePairs = e.currentActivePairs, e.previousActivePairs
	clear(e.currentActivePairs)
}

// flush sends all buffered events and clears the buffer
func (e *Events) flush() {
	if e.currentActivePairs == nil {
		return
	}
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
