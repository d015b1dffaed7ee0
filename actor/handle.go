package actor

import "fmt"

type handleKind uint8

const (
	handleInvalid handleKind = iota
	handleIndexed
	handleGround
)

// BodyHandle identifies a body stored in a BodySet.
//
// A handle is either the ground or an index into the set. The zero value is an
// invalid handle that never resolves to a body. Handles are only allocated by
// the BodySet; a removed handle's slot may be reused by a later insertion, so
// callers must not keep handles past removal.
type BodyHandle struct {
	kind  handleKind
	index int
}

// GroundHandle returns the handle of the ground body.
func GroundHandle() BodyHandle {
	return BodyHandle{kind: handleGround}
}

func indexedHandle(index int) BodyHandle {
	return BodyHandle{kind: handleIndexed, index: index}
}

func (h BodyHandle) IsGround() bool {
	return h.kind == handleGround
}

func (h BodyHandle) IsValid() bool {
	return h.kind != handleInvalid
}

// Index returns the arena slot of the handle. It reports false for the ground
// and for invalid handles.
func (h BodyHandle) Index() (int, bool) {
	if h.kind != handleIndexed {
		return 0, false
	}
	return h.index, true
}

// Less orders handles: invalid < indexed (by slot) < ground.
func (h BodyHandle) Less(other BodyHandle) bool {
	if h.kind != other.kind {
		return h.kind < other.kind
	}
	return h.index < other.index
}

func (h BodyHandle) String() string {
	switch h.kind {
	case handleGround:
		return "ground"
	case handleIndexed:
		return fmt.Sprintf("body#%d", h.index)
	default:
		return "invalid"
	}
}

// BodyPartHandle addresses one part of a body, e.g. a multibody link.
// Rigid bodies only have the part 0.
type BodyPartHandle struct {
	Body BodyHandle
	Part int
}

func GroundPartHandle() BodyPartHandle {
	return BodyPartHandle{Body: GroundHandle()}
}

func (h BodyPartHandle) IsGround() bool {
	return h.Body.IsGround()
}
