// Package trace provides execution-trace recording for task graph runs.
// This package has no dependencies on sim/: it stores pure data types.
package trace

import "time"

// Outcome is how a task finished.
type Outcome string

const (
	OutcomeDone    Outcome = "done"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped" // failed because a dependency failed; body never ran
)

// TaskRecord captures one task reaching a terminal state.
type TaskRecord struct {
	Task    string
	Kind    string
	Outcome Outcome
	Started time.Time     // zero for skipped tasks
	Elapsed time.Duration // body duration; zero for skipped tasks
	Error   string        // empty on success
}
