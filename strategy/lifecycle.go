package strategy

import (
	"errors"
	"fmt"
)

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateExited
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var transitions = map[State][]State{
	StateUninitialized: {StateInitialized},
	StateInitialized:   {StateRunning, StateExited},
	StateRunning:       {StateRunning, StateExited},
}

// Lifecycle tracks one strategy's progress through a run.
// The zero value is uninitialized.
type Lifecycle struct {
	state State
}

func (l *Lifecycle) State() State { return l.state }

// To moves to next or returns ErrInvalidTransition.
func (l *Lifecycle) To(next State) error {
	for _, ok := range transitions[l.state] {
		if ok == next {
			l.state = next
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, l.state, next)
}
