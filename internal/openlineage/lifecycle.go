package openlineage

import "fmt"

// RunState is the lifecycle state of one wrapped invocation.
type RunState int

const (
	StateNotStarted RunState = iota
	StateRunning
	StateComplete
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateNotStarted:
		return "NOT_STARTED"
	case StateRunning:
		return "RUNNING"
	case StateComplete:
		return "COMPLETE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// Terminal reports whether no further transitions are allowed.
func (s RunState) Terminal() bool {
	return s == StateComplete || s == StateFailed
}

// Lifecycle tracks the run state machine:
// NOT_STARTED -> RUNNING on START emission, RUNNING -> COMPLETE on exit
// code 0, RUNNING -> FAILED otherwise. Both end states are terminal.
type Lifecycle struct {
	state RunState
}

// NewLifecycle returns a lifecycle in NOT_STARTED.
func NewLifecycle() *Lifecycle {
	return &Lifecycle{state: StateNotStarted}
}

// State returns the current state.
func (l *Lifecycle) State() RunState {
	return l.state
}

// Start transitions NOT_STARTED -> RUNNING.
func (l *Lifecycle) Start() error {
	if l.state != StateNotStarted {
		return fmt.Errorf("invalid transition: START from %s", l.state)
	}
	l.state = StateRunning
	return nil
}

// Finish transitions RUNNING to a terminal state based on the wrapped
// command's exit code and returns the terminal event type to emit.
func (l *Lifecycle) Finish(exitCode int) (EventType, error) {
	if l.state != StateRunning {
		return "", fmt.Errorf("invalid transition: finish from %s", l.state)
	}
	if exitCode == 0 {
		l.state = StateComplete
		return EventComplete, nil
	}
	l.state = StateFailed
	return EventFail, nil
}
