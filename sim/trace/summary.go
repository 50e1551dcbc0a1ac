package trace

import "time"

// TraceSummary aggregates statistics from a RunTrace.
type TraceSummary struct {
	TotalTasks   int
	DoneCount    int
	FailedCount  int
	SkippedCount int
	TotalElapsed time.Duration
	MaxElapsed   time.Duration
	SlowestTask  string
	KindCounts   map[string]int // task kind → tasks that ran their body
}

// Summarize computes aggregate statistics from a RunTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(rt *RunTrace) *TraceSummary {
	summary := &TraceSummary{
		KindCounts: make(map[string]int),
	}
	if rt == nil {
		return summary
	}

	records := rt.Records()
	summary.TotalTasks = len(records)
	for _, r := range records {
		switch r.Outcome {
		case OutcomeDone:
			summary.DoneCount++
		case OutcomeFailed:
			summary.FailedCount++
		case OutcomeSkipped:
			summary.SkippedCount++
			continue
		}
		summary.KindCounts[r.Kind]++
		summary.TotalElapsed += r.Elapsed
		if r.Elapsed > summary.MaxElapsed {
			summary.MaxElapsed = r.Elapsed
			summary.SlowestTask = r.Task
		}
	}

	return summary
}
