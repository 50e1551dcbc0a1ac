package sim

import (
	"context"
	"fmt"
)

// Kind enumerates the closed set of task kinds the engine knows how to run.
// A new calculation adds a constant here and an Operation in a sub-package.
type Kind int

const (
	KindDaylightFactor Kind = iota // ray-trace leaf producing a daylight factor Matrix
	KindDFCompliance               // aggregation over a daylight factor Matrix
)

func (k Kind) String() string {
	switch k {
	case KindDaylightFactor:
		return "daylight-factor"
	case KindDFCompliance:
		return "df-compliance"
	default:
		return "unknown"
	}
}

func (k Kind) valid() bool {
	switch k {
	case KindDaylightFactor, KindDFCompliance:
		return true
	default:
		return false
	}
}

// State is the lifecycle state of a task within one graph.
type State string

const (
	StatePending State = "pending"
	StateRunning State = "running"
	StateDone    State = "done"
	StateFailed  State = "failed"
)

// IsTerminal reports whether the state is final for this graph.
func (s State) IsTerminal() bool {
	return s == StateDone || s == StateFailed
}

// TaskID is a stable handle into a Graph's task arena.
type TaskID int

// Operation is the body of a task. Execute runs only after every dependency
// is Done, and its returned value becomes the task's result. The result must
// not be mutated after Execute returns.
type Operation interface {
	Kind() Kind
	Execute(ctx context.Context, deps Dependencies) (any, error)
}

// Dependencies gives an executing Operation read access to the results of the
// tasks it declared, in declaration order.
type Dependencies struct {
	g   *Graph
	ids []TaskID
}

// Len returns the number of declared dependencies.
func (d Dependencies) Len() int { return len(d.ids) }

// ID returns the handle of the i-th dependency.
func (d Dependencies) ID(i int) TaskID { return d.ids[i] }

// Result returns the i-th dependency's result by reference.
func (d Dependencies) Result(i int) (any, error) {
	if i < 0 || i >= len(d.ids) {
		return nil, fmt.Errorf("%w: dependency index %d out of %d", ErrInvalidTask, i, len(d.ids))
	}
	return d.g.Result(d.ids[i])
}

// DependencyResult returns the i-th dependency's result as T.
func DependencyResult[T any](d Dependencies, i int) (T, error) {
	var zero T
	v, err := d.Result(i)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: dependency %d result is %T, want %T", ErrInvalidTask, i, v, zero)
	}
	return t, nil
}
