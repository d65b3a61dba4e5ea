package rules

import "mindmaster/internal/cue"

type Verdict int

const (
	Pending Verdict = iota
	Solved
	// SolvedAfterDelay asks the caller to mark the attempt solved once its
	// solve delay elapses, unless the attempt ends first.
	SolvedAfterDelay
)

func (v Verdict) String() string {
	switch v {
	case Solved:
		return "solved"
	case SolvedAfterDelay:
		return "solved_after_delay"
	default:
		return "pending"
	}
}

// State is the scratch state of a single level attempt.
type State struct {
	LevelID int
	Solved  bool
	Data    Scratch
}

type Outcome struct {
	State   State
	Verdict Verdict
	Cues    []cue.Cue
}

func (o Outcome) Changed(prev State) bool {
	return o.State.Solved != prev.Solved || !sameScratch(o.State.Data, prev.Data)
}

// Scratch is implemented only by the per-level state types in this package.
type Scratch interface {
	scratch()
}

type Blank struct{}

type GlassState struct {
	Shakes int
	Empty  bool
}

type LightState struct {
	Dark bool
}

type CatState struct {
	Clicks map[string]int
	Shaken map[string]bool
}

type ClockState struct {
	Minute bool
	Hour   bool
}

type CoverState struct {
	Revealed bool
}

type EggState struct {
	Broken map[string]bool
}

type PillowState struct {
	Woke bool
}

type HammerState struct {
	Heated bool
}

type HatState struct {
	Removed bool
}

func (Blank) scratch()       {}
func (GlassState) scratch()  {}
func (LightState) scratch()  {}
func (CatState) scratch()    {}
func (ClockState) scratch()  {}
func (CoverState) scratch()  {}
func (EggState) scratch()    {}
func (PillowState) scratch() {}
func (HammerState) scratch() {}
func (HatState) scratch()    {}

// Parts is the number of distinct clock hands placed on the dial.
func (c ClockState) Parts() int {
	n := 0
	if c.Minute {
		n++
	}
	if c.Hour {
		n++
	}
	return n
}

func (c CatState) with(clickedID, shakenID string) CatState {
	next := CatState{Clicks: make(map[string]int, len(c.Clicks)+1), Shaken: make(map[string]bool, len(c.Shaken)+1)}
	for k, v := range c.Clicks {
		next.Clicks[k] = v
	}
	for k, v := range c.Shaken {
		next.Shaken[k] = v
	}
	if clickedID != "" {
		next.Clicks[clickedID]++
	}
	if shakenID != "" {
		next.Shaken[shakenID] = true
	}
	return next
}

func (e EggState) with(brokenID string) EggState {
	next := EggState{Broken: make(map[string]bool, len(e.Broken)+1)}
	for k, v := range e.Broken {
		next.Broken[k] = v
	}
	next.Broken[brokenID] = true
	return next
}

func sameScratch(a, b Scratch) bool {
	switch av := a.(type) {
	case CatState:
		bv, ok := b.(CatState)
		return ok && sameInts(av.Clicks, bv.Clicks) && sameBools(av.Shaken, bv.Shaken)
	case EggState:
		bv, ok := b.(EggState)
		return ok && sameBools(av.Broken, bv.Broken)
	default:
		return a == b
	}
}

func sameInts(a, b map[string]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}

func sameBools(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
