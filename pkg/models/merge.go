package models

import "fmt"

// MergeState is a state of a single merge invocation
type MergeState string

const (
	MergeStateIdle           MergeState = "idle"
	MergeStateValidating     MergeState = "validating"
	MergeStateFetchingTarget MergeState = "fetching_target"
	MergeStateMerging        MergeState = "merging"
	MergeStateCommitting     MergeState = "committing"
	MergeStateSucceeded      MergeState = "succeeded"
	MergeStateFailed         MergeState = "failed"
)

// mergeTransitions lists the states reachable from each state. Succeeded and Failed are
// terminal and there is no retry edge.
var mergeTransitions = map[MergeState][]MergeState{
	MergeStateIdle:           {MergeStateValidating},
	MergeStateValidating:     {MergeStateFetchingTarget, MergeStateFailed},
	MergeStateFetchingTarget: {MergeStateMerging, MergeStateFailed},
	MergeStateMerging:        {MergeStateCommitting, MergeStateFailed},
	MergeStateCommitting:     {MergeStateSucceeded, MergeStateFailed},
}

// IsTerminal reports whether no further transition is allowed
func (s MergeState) IsTerminal() bool {
	return s == MergeStateSucceeded || s == MergeStateFailed
}

// CanTransition reports whether next is reachable from s in one step
func (s MergeState) CanTransition(next MergeState) bool {
	for _, allowed := range mergeTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MergeStateMachine tracks the states visited by one merge invocation
type MergeStateMachine struct {
	current MergeState
	history []MergeState
}

// NewMergeStateMachine returns a machine in the Idle state
func NewMergeStateMachine() *MergeStateMachine {
	return &MergeStateMachine{
		current: MergeStateIdle,
		history: []MergeState{MergeStateIdle},
	}
}

// Current returns the current state
func (m *MergeStateMachine) Current() MergeState {
	return m.current
}

// History returns a copy of every state visited, in order
func (m *MergeStateMachine) History() []MergeState {
	return append([]MergeState(nil), m.history...)
}

// Transition moves to next or returns an error if the edge does not exist
func (m *MergeStateMachine) Transition(next MergeState) error {
	if !m.current.CanTransition(next) {
		return fmt.Errorf("invalid merge state transition %s -> %s", m.current, next)
	}
	m.current = next
	m.history = append(m.history, next)
	return nil
}

// MergeResult contains the result of a committed merge
type MergeResult struct {
	Target     ContactRecord `json:"target"`
	DeletedIDs []string      `json:"deleted_ids"`
	State      MergeState    `json:"state"`
	States     []MergeState  `json:"states"`
	// Stale is always true after a commit: the target must be re-fetched before reuse.
	Stale bool `json:"stale"`
}
