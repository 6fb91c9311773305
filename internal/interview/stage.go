package interview

import (
	"errors"
	"fmt"
)

// Stage is the coarse phase of a session.
type Stage int

const (
	StageInitial Stage = iota
	StageAnalysis
	StageInterview
	StageCompleted
)

// ErrInvalidTransition is returned when a stage change is not in the transition table.
var ErrInvalidTransition = errors.New("invalid stage transition")

// transitions lists the only forward move out of each stage. Completed has
// none; leaving it requires a reset.
var transitions = map[Stage]Stage{
	StageInitial:   StageAnalysis,
	StageAnalysis:  StageInterview,
	StageInterview: StageCompleted,
}

func (s Stage) String() string {
	switch s {
	case StageInitial:
		return "initial"
	case StageAnalysis:
		return "analysis"
	case StageInterview:
		return "interview"
	case StageCompleted:
		return "completed"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CanTransitionTo reports whether next directly follows s.
func (s Stage) CanTransitionTo(next Stage) bool {
	to, ok := transitions[s]
	return ok && to == next
}

func checkTransition(from, to Stage) error {
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
