package joint

import (
	"errors"
	"fmt"

	"github.com/akmonengine/moreau/actor"
	"github.com/akmonengine/moreau/solver"
)

var (
	ErrSameBody     = errors.New("joint: both anchors are on the same body")
	ErrInvalidJoint = errors.New("joint: nil joint")
)

// Handle identifies a joint of a Set. It stays valid until the joint is
// removed; its slot may then be reused.
type Handle int

// Set stores joints in stable slots, like actor.BodySet does for bodies.
type Set struct {
	joints []solver.JointConstraint
	free   []int
	count  int

	active []solver.JointConstraint
}

func NewSet() *Set {
	return &Set{}
}

func (s *Set) Insert(joint solver.JointConstraint) (Handle, error) {
	if joint == nil {
		return 0, ErrInvalidJoint
	}
	anchor1, anchor2 := joint.Anchors()
	if anchor1.Body == anchor2.Body {
		return 0, fmt.Errorf("%w: %v", ErrSameBody, anchor1.Body)
	}

	var slot int
	if n := len(s.free); n > 0 {
		slot = s.free[n-1]
		s.free = s.free[:n-1]
		s.joints[slot] = joint
	} else {
		slot = len(s.joints)
		s.joints = append(s.joints, joint)
	}
	s.count++

	return Handle(slot), nil
}

func (s *Set) Remove(handle Handle) (solver.JointConstraint, bool) {
	joint, ok := s.Get(handle)
	if !ok {
		return nil, false
	}

	s.joints[handle] = nil
	s.free = append(s.free, int(handle))
	s.count--

	return joint, true
}

// RemoveAttachedTo removes every joint anchored to body and returns how many
// were removed.
func (s *Set) RemoveAttachedTo(body actor.BodyHandle) int {
	removed := 0
	for slot, joint := range s.joints {
		if joint == nil {
			continue
		}
		anchor1, anchor2 := joint.Anchors()
		if anchor1.Body == body || anchor2.Body == body {
			s.Remove(Handle(slot))
			removed++
		}
	}
	return removed
}

func (s *Set) Get(handle Handle) (solver.JointConstraint, bool) {
	if handle < 0 || int(handle) >= len(s.joints) || s.joints[handle] == nil {
		return nil, false
	}
	return s.joints[handle], true
}

func (s *Set) Len() int {
	return s.count
}

// ForEach visits the joints in slot order.
func (s *Set) ForEach(fn func(handle Handle, joint solver.JointConstraint)) {
	for slot, joint := range s.joints {
		if joint != nil {
			fn(Handle(slot), joint)
		}
	}
}

// Constraints returns the joints in slot order. The slice is reused by the
// next call.
func (s *Set) Constraints() []solver.JointConstraint {
	s.active = s.active[:0]
	for _, joint := range s.joints {
		if joint != nil {
			s.active = append(s.active, joint)
		}
	}
	return s.active
}
