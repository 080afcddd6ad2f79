package stats

import (
	"fmt"

	"schoolstats/backend/internal/fanout"
)

// State distinguishes "legitimately nothing" from "could not fetch".
type State int

const (
	Empty State = iota
	Failed
	Data
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Failed:
		return "failed"
	default:
		return "data"
	}
}

// Outcome is the three-state result of one sub-fetch. Values is nil unless
// State is Data; Reason is set only when State is Failed.
type Outcome[T any] struct {
	State  State
	Values []T
	Reason string
}

func outcomeOf[T any](r fanout.Result[[]T]) Outcome[T] {
	switch {
	case r.Err != nil:
		return Outcome[T]{State: Failed, Reason: r.Err.Error()}
	case len(r.Value) == 0:
		return Outcome[T]{State: Empty}
	default:
		return Outcome[T]{State: Data, Values: r.Value}
	}
}

// Warning describes a failed outcome of studentID's kind fetch, or returns ""
// for any other state.
func (o Outcome[T]) Warning(kind, studentID string) string {
	if o.State != Failed {
		return ""
	}
	return fmt.Sprintf("%s fetch failed for student %s: %s", kind, studentID, o.Reason)
}
