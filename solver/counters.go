package solver

import (
	"fmt"
	"time"
)

// Phase is a boundary of the time-stepping state machine.
type Phase uint8

const (
	AssemblyStarted Phase = iota
	AssemblyCompleted
	VelocityResolutionStarted
	VelocityResolutionCompleted
	VelocityUpdateStarted
	VelocityUpdateCompleted
	PositionResolutionStarted
	PositionResolutionCompleted
)

var phaseNames = [...]string{
	AssemblyStarted:             "assembly_started",
	AssemblyCompleted:           "assembly_completed",
	VelocityResolutionStarted:   "velocity_resolution_started",
	VelocityResolutionCompleted: "velocity_resolution_completed",
	VelocityUpdateStarted:       "velocity_update_started",
	VelocityUpdateCompleted:     "velocity_update_completed",
	PositionResolutionStarted:   "position_resolution_started",
	PositionResolutionCompleted: "position_resolution_completed",
}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Timer accumulates the time spent between Start and Pause.
type Timer struct {
	start   time.Time
	elapsed time.Duration
	running bool
}

func (t *Timer) Start() {
	t.start = time.Now()
	t.running = true
}

func (t *Timer) Pause() {
	if t.running {
		t.elapsed += time.Since(t.start)
		t.running = false
	}
}

func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}

func (t *Timer) Reset() {
	*t = Timer{}
}

// Counters is an accumulator handed by the caller to each step. A nil
// *Counters records nothing.
type Counters struct {
	Assembly           Timer
	VelocityResolution Timer
	VelocityUpdate     Timer
	PositionResolution Timer

	// NConstraints is the number of velocity rows assembled since the last Reset,
	// summed over the islands of a world step.
	NConstraints int
	Steps        int

	phases []Phase
}

// Enter records a phase boundary and starts or pauses the matching timer.
func (c *Counters) Enter(phase Phase) {
	if c == nil {
		return
	}
	c.phases = append(c.phases, phase)

	timer := c.timer(phase)
	if phase%2 == 0 {
		timer.Start()
	} else {
		timer.Pause()
	}
}

func (c *Counters) timer(phase Phase) *Timer {
	switch phase {
	case AssemblyStarted, AssemblyCompleted:
		return &c.Assembly
	case VelocityResolutionStarted, VelocityResolutionCompleted:
		return &c.VelocityResolution
	case VelocityUpdateStarted, VelocityUpdateCompleted:
		return &c.VelocityUpdate
	default:
		return &c.PositionResolution
	}
}

func (c *Counters) addConstraints(n int) {
	if c != nil {
		c.NConstraints += n
	}
}

func (c *Counters) stepCompleted() {
	if c != nil {
		c.Steps++
	}
}

// Phases returns the boundaries recorded since the last Reset.
func (c *Counters) Phases() []Phase {
	if c == nil {
		return nil
	}
	return c.phases
}

// Total is the time spent in every phase.
func (c *Counters) Total() time.Duration {
	if c == nil {
		return 0
	}
	return c.Assembly.Elapsed() + c.VelocityResolution.Elapsed() + c.VelocityUpdate.Elapsed() + c.PositionResolution.Elapsed()
}

func (c *Counters) Reset() {
	if c == nil {
		return
	}
	*c = Counters{phases: c.phases[:0]}
}
