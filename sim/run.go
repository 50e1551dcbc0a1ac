package sim

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/daylight-sim/daylight-sim/sim/trace"
)

// Run resolves id serially: dependencies first, depth-first in declared
// order, then the task's own body.
//
// Semantics:
//   - Done tasks return nil without re-running anything.
//   - Failed tasks return their stored failure; there are no retries.
//   - The first failed dependency stops resolution, and the task becomes
//     Failed with that dependency's error, unmodified, without running its body.
func (g *Graph) Run(ctx context.Context, id TaskID) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return g.resolve(ctx, id, nil)
}

// RunParallel resolves id like Run, but independent dependency subtrees are
// resolved concurrently and at most workers task bodies run at once.
//
// Guarantees kept from Run:
//   - Each body executes at most once; concurrent requesters wait for the owner.
//   - A dependency's result is visible only after it reaches Done.
//   - When siblings fail concurrently, the first observed failure is returned.
//     Other failures remain on their own tasks (see Report). Started siblings
//     are never cancelled.
func (g *Graph) RunParallel(ctx context.Context, id TaskID, workers int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if workers < 1 {
		workers = 1
	}
	return g.resolve(ctx, id, make(chan struct{}, workers))
}

// RunAllParallel resolves several roots concurrently under one cap: at most
// workers task bodies run at once across all of them. Every root is
// attempted; the first failure observed is returned.
func (g *Graph) RunAllParallel(ctx context.Context, ids []TaskID, workers int) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var eg errgroup.Group
	for _, id := range ids {
		eg.Go(func() error {
			return g.resolve(ctx, id, sem)
		})
	}
	return eg.Wait()
}

// resolve brings id to a terminal state. sem is nil for serial runs.
func (g *Graph) resolve(ctx context.Context, id TaskID, sem chan struct{}) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}

	g.mu.Lock()
	if n.state.IsTerminal() {
		err := n.err
		if n.state == StateDone {
			g.metrics.observeHit(n.op.Kind())
		}
		g.mu.Unlock()
		return err
	}
	if n.claimed {
		done := n.done
		g.mu.Unlock()
		<-done
		g.mu.Lock()
		defer g.mu.Unlock()
		return n.err
	}
	n.claimed = true
	deps := n.deps
	g.mu.Unlock()

	if err := g.resolveDeps(ctx, deps, sem); err != nil {
		g.finish(n, nil, err, time.Time{}, 0)
		return err
	}

	if sem != nil {
		sem <- struct{}{}
	}
	g.mu.Lock()
	n.state = StateRunning
	n.executions++
	g.mu.Unlock()

	g.taskLog(n).Debug("task started")
	start := time.Now()
	result, err := g.execute(ctx, n, deps)
	elapsed := time.Since(start)
	if sem != nil {
		<-sem
	}

	if err != nil {
		err = &TaskError{Task: n.name, Kind: n.op.Kind(), Err: err}
	}
	g.finish(n, result, err, start, elapsed)
	return err
}

func (g *Graph) resolveDeps(ctx context.Context, deps []TaskID, sem chan struct{}) error {
	if sem == nil || len(deps) < 2 {
		for _, d := range deps {
			if err := g.resolve(ctx, d, sem); err != nil {
				return err
			}
		}
		return nil
	}

	var eg errgroup.Group
	for _, d := range deps {
		eg.Go(func() error {
			return g.resolve(ctx, d, sem)
		})
	}
	return eg.Wait()
}

// execute runs the body, converting a panic into a failure of this task.
func (g *Graph) execute(ctx context.Context, n *node, deps []TaskID) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("panic in task body: %v", r)
		}
	}()
	return n.op.Execute(ctx, Dependencies{g: g, ids: deps})
}

// finish records the terminal state. A zero start means the body never ran.
func (g *Graph) finish(n *node, result any, err error, start time.Time, elapsed time.Duration) {
	ran := !start.IsZero()

	g.mu.Lock()
	if err != nil {
		n.state = StateFailed
		n.err = err
		var te *TaskError
		if ran && g.firstFailure == nil && errors.As(err, &te) {
			g.firstFailure = te
		}
	} else {
		n.state = StateDone
		n.result = result
	}
	state := n.state
	close(n.done)
	g.mu.Unlock()

	record := trace.TaskRecord{
		Task:    n.name,
		Kind:    n.op.Kind().String(),
		Started: start,
		Elapsed: elapsed,
	}
	switch {
	case !ran:
		record.Outcome = trace.OutcomeSkipped
	case err != nil:
		record.Outcome = trace.OutcomeFailed
	default:
		record.Outcome = trace.OutcomeDone
	}
	if err != nil {
		record.Error = err.Error()
	}
	g.trace.RecordTask(record)

	entry := g.taskLog(n).WithField("state", state)
	switch {
	case !ran:
		entry.Debugf("task skipped: dependency failed: %v", err)
	case err != nil:
		g.metrics.observeExecution(n.op.Kind(), state, elapsed.Seconds())
		entry.WithField("elapsed", elapsed).Warnf("task failed: %v", err)
	default:
		g.metrics.observeExecution(n.op.Kind(), state, elapsed.Seconds())
		entry.WithField("elapsed", elapsed).Debug("task done")
	}
}

func (g *Graph) taskLog(n *node) *logrus.Entry {
	return g.log.WithFields(logrus.Fields{"task": n.name, "kind": n.op.Kind().String()})
}
