// Package sim provides the simulation task graph engine for daylight-sim.
//
// # Reading Guide
//
// Start with these files to understand the engine:
//   - task.go: Task kinds, lifecycle states, and the Operation contract
//   - graph.go: The task arena, handles, and dependency wiring
//   - run.go: Depth-first resolution, memoized execution, and failure propagation
//
// # Architecture
//
// The sim package owns the generic engine and the error kinds; domain pieces
// live in sub-packages that import it:
//   - sim/geometry/: Scene primitives, workplanes, and sensor rays
//   - sim/location/: Site attributes and the hourly weather store
//   - sim/model/: The building model handed to calculations
//   - sim/radiance/: Scene export and the ray-tracer adapter boundary
//   - sim/daylight/: Concrete task kinds (daylight factor, compliance)
//   - sim/trace/: Task execution trace recording
//   - sim/archive/: SQLite archive of run reports
//
// # Key Invariants
//
//   - A task's dependencies exist before the task itself, so graphs are acyclic by construction.
//   - A task body executes at most once per graph, even under RunParallel.
//   - Every dependent observes the same result instance; results are never copied.
//   - A failed dependency fails its dependents without running their bodies.
package sim
