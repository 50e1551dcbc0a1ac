package sim

// TaskReport is the end-of-run view of one task.
type TaskReport struct {
	ID         TaskID
	Name       string
	Kind       Kind
	State      State
	Executions int
	Err        error
}

// ErrorKind returns the classified kind of the task's failure, or "".
func (r TaskReport) ErrorKind() string { return ErrorKind(r.Err) }

// Report summarizes a run. Results of tasks that completed stay reachable
// through the Graph even when the run failed.
type Report struct {
	RunID string
	Tasks []TaskReport

	// FirstFailure is the first task whose own body failed, or nil.
	FirstFailure *TaskError
}

// Failed reports whether any task body failed.
func (r *Report) Failed() bool { return r.FirstFailure != nil }

// FirstFailureKind returns the classified kind of the first failure, or "".
func (r *Report) FirstFailureKind() string {
	if r.FirstFailure == nil {
		return ""
	}
	return ErrorKind(r.FirstFailure)
}

// Count returns the number of tasks in state s.
func (r *Report) Count(s State) int {
	n := 0
	for _, t := range r.Tasks {
		if t.State == s {
			n++
		}
	}
	return n
}

// Report snapshots every task in arena order.
func (g *Graph) Report() *Report {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := &Report{
		RunID:        g.runID.String(),
		Tasks:        make([]TaskReport, 0, len(g.nodes)),
		FirstFailure: g.firstFailure,
	}
	for _, n := range g.nodes {
		r.Tasks = append(r.Tasks, TaskReport{
			ID:         n.id,
			Name:       n.name,
			Kind:       n.op.Kind(),
			State:      n.state,
			Executions: n.executions,
			Err:        n.err,
		})
	}
	return r
}
