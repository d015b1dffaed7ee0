package moreau

import (
	"testing"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/detection"
	"github.com/go-gl/mathgl/mgl64"
)

func addTestBody(set *actor.BodySet, isTrigger bool) actor.BodyHandle {
	handle, _ := set.AddRigidBody(actor.RigidBodyDesc{
		Transform: actor.Transform{Rotation: mgl64.QuatIdent()},
		Shape:     &actor.Sphere{Radius: 0.5},
		BodyType:  actor.BodyTypeDynamic,
		Density:   1,
		IsTrigger: isTrigger,
	})
	return handle
}

// touching returns a manifold whose deepest contact has the given depth
func touching(bodyA, bodyB actor.BodyHandle, depth float64) detection.ContactManifold {
	return detection.ContactManifold{
		Body1: actor.BodyPartHandle{Body: bodyA},
		Body2: actor.BodyPartHandle{Body: bodyB},
		Contacts: []detection.TrackedContact{
			{Contact: detection.Contact{Normal: mgl64.Vec3{0, 1, 0}, Depth: depth}},
		},
	}
}

type eventCapture struct {
	events []Event
}

func (ec *eventCapture) capture(event Event) {
	ec.events = append(ec.events, event)
}

func (ec *eventCapture) reset() {
	ec.events = ec.events[:0]
}

func (ec *eventCapture) count() int {
	return len(ec.events)
}

func (ec *eventCapture) hasEventType(eventType EventType) bool {
	for _, e := range ec.events {
		if e.Type() == eventType {
			return true
		}
	}
	return false
}

func subscribeAll(events *Events, capture *eventCapture) {
	for _, eventType := range []EventType{TRIGGER_ENTER, TRIGGER_STAY, TRIGGER_EXIT, COLLISION_ENTER, COLLISION_STAY, COLLISION_EXIT} {
		events.Subscribe(eventType, capture.capture)
	}
}

// frame records one step of manifolds and flushes the events
func frame(events *Events, set *actor.BodySet, manifolds ...detection.ContactManifold) []detection.ContactManifold {
	solved := events.recordCollisions(set, manifolds)
	events.flush()
	return solved
}

func TestMakePairKey(t *testing.T) {
	set := actor.NewBodySet()
	a := addTestBody(set, false)
	b := addTestBody(set, false)
	c := addTestBody(set, false)

	if makePairKey(a, b) != makePairKey(b, a) {
		t.Error("pair keys should not depend on the order")
	}
	if key := makePairKey(b, a); key.bodyA != a || key.bodyB != b {
		t.Errorf("key = %v, want the lowest handle first", key)
	}
	if makePairKey(a, b) == makePairKey(a, c) {
		t.Error("different pairs should have different keys")
	}
}

func TestEvents_MultipleListeners(t *testing.T) {
	set := actor.NewBodySet()
	a, b := addTestBody(set, false), addTestBody(set, false)

	var events Events
	first, second := &eventCapture{}, &eventCapture{}
	events.Subscribe(COLLISION_ENTER, first.capture)
	events.Subscribe(COLLISION_ENTER, second.capture)

	frame(&events, set, touching(a, b, 0.01))

	if first.count() != 1 || second.count() != 1 {
		t.Errorf("listeners got %d and %d events, want 1 each", first.count(), second.count())
	}
}

func TestEvents_RecordCollisions(t *testing.T) {
	set := actor.NewBodySet()
	a, b := addTestBody(set, false), addTestBody(set, false)
	trigger := addTestBody(set, true)

	events := NewEvents()
	solved := events.recordCollisions(set, []detection.ContactManifold{
		touching(a, b, 0.01),
		touching(a, trigger, 0.01),
		touching(b, trigger, -0.02),
	})

	if len(solved) != 1 || solved[0].Body2.Body != b {
		t.Fatalf("solved manifolds = %v, want the a-b pair only", solved)
	}
	if len(events.currentActivePairs) != 2 {
		t.Errorf("active pairs = %v, speculative contacts should not count", events.currentActivePairs)
	}
	if !events.currentActivePairs[makePairKey(a, trigger)] {
		t.Error("a-trigger pair should be flagged as trigger")
	}
	if events.currentActivePairs[makePairKey(a, b)] {
		t.Error("a-b pair should not be flagged as trigger")
	}
}

func TestEvents_CollisionLifecycle(t *testing.T) {
	set := actor.NewBodySet()
	a, b := addTestBody(set, false), addTestBody(set, false)

	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	tests := []struct {
		name      string
		manifolds []detection.ContactManifold
		expected  []EventType
	}{
		{"enter", []detection.ContactManifold{touching(a, b, 0.01)}, []EventType{COLLISION_ENTER}},
		{"stay", []detection.ContactManifold{touching(b, a, 0)}, []EventType{COLLISION_STAY}},
		{"speculative exits", []detection.ContactManifold{touching(a, b, -0.01)}, []EventType{COLLISION_EXIT}},
		{"nothing", nil, nil},
		{"enter again", []detection.ContactManifold{touching(a, b, 0.02)}, []EventType{COLLISION_ENTER}},
	}

	for _, tt := range tests {
		capture.reset()
		frame(&events, set, tt.manifolds...)

		if capture.count() != len(tt.expected) {
			t.Fatalf("%s: got %d events, want %d", tt.name, capture.count(), len(tt.expected))
		}
		for _, eventType := range tt.expected {
			if !capture.hasEventType(eventType) {
				t.Errorf("%s: missing event %d", tt.name, eventType)
			}
		}
	}
}

func TestEvents_TriggerLifecycle(t *testing.T) {
	set := actor.NewBodySet()
	body := addTestBody(set, false)
	trigger := addTestBody(set, true)

	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	solved := frame(&events, set, touching(trigger, body, 0.1))
	if len(solved) != 0 {
		t.Error("trigger manifolds should not be solved")
	}
	if capture.count() != 1 || !capture.hasEventType(TRIGGER_ENTER) {
		t.Fatalf("want TRIGGER_ENTER, got %v", capture.events)
	}
	event := capture.events[0].(TriggerEnterEvent)
	if event.BodyA != body || event.BodyB != trigger {
		t.Errorf("event bodies = %v %v, want %v %v", event.BodyA, event.BodyB, body, trigger)
	}

	capture.reset()
	frame(&events, set, touching(trigger, body, 0.1))
	if capture.count() != 1 || !capture.hasEventType(TRIGGER_STAY) {
		t.Errorf("want TRIGGER_STAY, got %v", capture.events)
	}

	capture.reset()
	frame(&events, set)
	if capture.count() != 1 || !capture.hasEventType(TRIGGER_EXIT) {
		t.Errorf("want TRIGGER_EXIT, got %v", capture.events)
	}
}

func TestEvents_Forget(t *testing.T) {
	set := actor.NewBodySet()
	a, b, c := addTestBody(set, false), addTestBody(set, false), addTestBody(set, false)

	events := NewEvents()
	capture := &eventCapture{}
	subscribeAll(&events, capture)

	frame(&events, set, touching(a, b, 0.01), touching(b, c, 0.01))
	capture.reset()

	events.forget(a)
	frame(&events, set)

	if capture.count() != 1 {
		t.Fatalf("got %d events, want the b-c exit only", capture.count())
	}
	exit := capture.events[0].(CollisionExitEvent)
	if exit.BodyA != b || exit.BodyB != c {
		t.Errorf("exit for %v-%v, want %v-%v", exit.BodyA, exit.BodyB, b, c)
	}
}

func TestEvents_NoListeners(t *testing.T) {
	set := actor.NewBodySet()
	a, b := addTestBody(set, false), addTestBody(set, false)

	var events Events
	frame(&events, set, touching(a, b, 0.01))

	if len(events.buffer) != 0 {
		t.Error("flush should clear the buffer")
	}
	if _, ok := events.previousActivePairs[makePairKey(a, b)]; !ok {
		t.Error("the pair should be remembered for the next frame")
	}
}
