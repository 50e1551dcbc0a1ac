package trace

import "sync"

// TraceLevel controls the verbosity of task tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelTasks captures every task that reaches a terminal state.
	TraceLevelTasks TraceLevel = "tasks"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:  true,
	TraceLevelTasks: true,
	"":              true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// RunTrace collects task records during a graph run. Safe for concurrent
// recording, since RunParallel finishes tasks from several goroutines.
type RunTrace struct {
	Config TraceConfig

	mu      sync.Mutex
	records []TaskRecord
}

// NewRunTrace creates a RunTrace ready for recording.
func NewRunTrace(config TraceConfig) *RunTrace {
	return &RunTrace{
		Config:  config,
		records: make([]TaskRecord, 0),
	}
}

// Enabled reports whether records are kept. A nil trace is disabled.
func (rt *RunTrace) Enabled() bool {
	return rt != nil && rt.Config.Level == TraceLevelTasks
}

// RecordTask appends a task record. No-op when tracing is disabled.
func (rt *RunTrace) RecordTask(record TaskRecord) {
	if !rt.Enabled() {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.records = append(rt.records, record)
}

// Records returns a copy of the records in completion order.
func (rt *RunTrace) Records() []TaskRecord {
	if rt == nil {
		return nil
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := make([]TaskRecord, len(rt.records))
	copy(out, rt.records)
	return out
}
