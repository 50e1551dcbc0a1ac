package sim

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/daylight-sim/daylight-sim/sim/trace"
)

// node is one task in the arena. All mutable fields are guarded by Graph.mu.
type node struct {
	id   TaskID
	name string
	op   Operation
	deps []TaskID

	state      State
	claimed    bool          // a goroutine owns resolution of this node
	done       chan struct{} // closed once state is terminal
	result     any
	err        error
	executions int
}

// Graph is an arena of tasks for a single simulation run. Tasks reference
// their dependencies by TaskID, and a TaskID is only handed out once the task
// is in the arena, so every graph is acyclic by construction.
type Graph struct {
	mu     sync.Mutex
	nodes  []*node
	byName map[string]TaskID

	runID   uuid.UUID
	log     *logrus.Entry
	metrics *Metrics
	trace   *trace.RunTrace

	firstFailure *TaskError
}

// Option configures a Graph.
type Option func(*Graph)

// WithLogger sets the entry used for task logging.
func WithLogger(entry *logrus.Entry) Option {
	return func(g *Graph) { g.log = entry }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(g *Graph) { g.metrics = m }
}

// WithTrace attaches an execution trace.
func WithTrace(rt *trace.RunTrace) Option {
	return func(g *Graph) { g.trace = rt }
}

// NewGraph creates an empty graph with a fresh run ID.
func NewGraph(opts ...Option) *Graph {
	g := &Graph{
		byName: make(map[string]TaskID),
		runID:  uuid.New(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.log == nil {
		g.log = logrus.NewEntry(logrus.StandardLogger())
	}
	g.log = g.log.WithField("run_id", g.runID.String())
	return g
}

// RunID identifies this graph's run in logs, reports and archives.
func (g *Graph) RunID() string { return g.runID.String() }

// Trace returns the attached trace, or nil.
func (g *Graph) Trace() *trace.RunTrace { return g.trace }

// Add creates a task named name that runs op after deps. Every dependency
// must already be in the graph.
func (g *Graph) Add(name string, op Operation, deps ...TaskID) (TaskID, error) {
	if name == "" {
		return -1, fmt.Errorf("%w: empty task name", ErrInvalidTask)
	}
	if op == nil {
		return -1, fmt.Errorf("%w: task %q has no operation", ErrInvalidTask, name)
	}
	if !op.Kind().valid() {
		return -1, fmt.Errorf("%w: task %q has unknown kind %d", ErrInvalidTask, name, int(op.Kind()))
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, exists := g.byName[name]; exists {
		return -1, fmt.Errorf("%w: %q", ErrDuplicateTask, name)
	}
	for _, d := range deps {
		if d < 0 || int(d) >= len(g.nodes) {
			return -1, fmt.Errorf("%w: task %q depends on id %d", ErrUnknownTask, name, d)
		}
	}

	id := TaskID(len(g.nodes))
	g.nodes = append(g.nodes, &node{
		id:    id,
		name:  name,
		op:    op,
		deps:  append([]TaskID(nil), deps...),
		state: StatePending,
		done:  make(chan struct{}),
	})
	g.byName[name] = id
	return id, nil
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.nodes)
}

// Lookup returns the task with the given name.
func (g *Graph) Lookup(name string) (TaskID, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, ok := g.byName[name]
	return id, ok
}

// Name returns the task's name.
func (g *Graph) Name(id TaskID) string {
	n, err := g.node(id)
	if err != nil {
		return ""
	}
	return n.name
}

// Dependencies returns a copy of the task's declared dependencies.
func (g *Graph) Dependencies(id TaskID) []TaskID {
	n, err := g.node(id)
	if err != nil {
		return nil
	}
	return append([]TaskID(nil), n.deps...)
}

// State returns the task's current state.
func (g *Graph) State(id TaskID) State {
	n, err := g.node(id)
	if err != nil {
		return ""
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return n.state
}

// Executions returns how many times the task's body has run. It is at most 1.
func (g *Graph) Executions(id TaskID) int {
	n, err := g.node(id)
	if err != nil {
		return 0
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return n.executions
}

// Err returns the failure stored on a Failed task, or nil.
func (g *Graph) Err(id TaskID) error {
	n, err := g.node(id)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return n.err
}

// Result returns the completed task's result by reference. Asking before the
// task is Done is an orchestration bug and fails with ErrNotReady.
func (g *Graph) Result(id TaskID) (any, error) {
	n, err := g.node(id)
	if err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if n.state != StateDone {
		return nil, fmt.Errorf("%w: task %q is %s", ErrNotReady, n.name, n.state)
	}
	return n.result, nil
}

func (g *Graph) node(id TaskID) (*node, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if id < 0 || int(id) >= len(g.nodes) {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownTask, id)
	}
	return g.nodes[id], nil
}

// Handle is a typed reference to a task whose result is a T.
type Handle[T any] struct {
	ID    TaskID
	Graph *Graph
}

// NewHandle wraps id with its result type.
func NewHandle[T any](g *Graph, id TaskID) Handle[T] {
	return Handle[T]{ID: id, Graph: g}
}

// Name returns the task's name.
func (h Handle[T]) Name() string { return h.Graph.Name(h.ID) }

// State returns the task's current state.
func (h Handle[T]) State() State { return h.Graph.State(h.ID) }

// Run executes the task and its dependencies serially.
func (h Handle[T]) Run(ctx context.Context) error { return h.Graph.Run(ctx, h.ID) }

// Result returns the completed result, or ErrNotReady.
func (h Handle[T]) Result() (T, error) {
	var zero T
	v, err := h.Graph.Result(h.ID)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: task %q result is %T, want %T", ErrInvalidTask, h.Name(), v, zero)
	}
	return t, nil
}
