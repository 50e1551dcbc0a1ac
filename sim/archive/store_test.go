package archive

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylight-sim/daylight-sim/internal/testutil"
	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/daylight"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStore_SaveRunRoundTrip(t *testing.T) {
	// GIVEN a completed compliance run
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{IndoorValues: []float64{1, 3, 6}, Outdoor: 100}
	g := sim.NewGraph()
	check, err := daylight.AddDFCompliance(g, "desk", m, radiance.DefaultOptions(), tracer, daylight.RayTarget(testutil.Rays(3)), 2, 5)
	require.NoError(t, err)
	require.NoError(t, check.Run(context.Background()))
	res, err := check.Result()
	require.NoError(t, err)

	started := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s := openStore(t)

	// WHEN it is archived
	require.NoError(t, s.SaveRun(context.Background(), "room", started, g.Report(), []Compliance{ComplianceOf("desk", res)}))

	// THEN the run, its tasks and the compliance summary read back
	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, g.RunID(), runs[0].ID)
	assert.Equal(t, "room", runs[0].Project)
	assert.True(t, started.Equal(runs[0].StartedAt))
	assert.False(t, runs[0].Failed)

	tasks, err := s.Tasks(context.Background(), g.RunID())
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "desk/daylight-factor", tasks[0].Name)
	assert.Equal(t, "daylight-factor", tasks[0].Kind)
	assert.Equal(t, sim.StateDone, tasks[1].State)
	assert.Equal(t, 1, tasks[1].Executions)

	checks, err := s.Compliance(context.Background(), g.RunID())
	require.NoError(t, err)
	require.Len(t, checks, 1)
	assert.Equal(t, []bool{false, true, false}, checks[0].Pass)
	assert.False(t, checks[0].Compliant)
	assert.InDelta(t, 1.0/3, checks[0].PassFraction, 1e-12)
}

func TestStore_SaveFailedRun(t *testing.T) {
	m := testutil.Room(t)
	g := sim.NewGraph()
	check, err := daylight.AddDFCompliance(g, "desk", m, radiance.DefaultOptions(),
		&testutil.StubTracer{Err: fmt.Errorf("%w: rtrace exited with code 1", sim.ErrAdapter)},
		daylight.RayTarget(testutil.Rays(2)), 2, 5)
	require.NoError(t, err)
	require.Error(t, check.Run(context.Background()))

	s := openStore(t)
	require.NoError(t, s.SaveRun(context.Background(), "room", time.Now(), g.Report(), nil))

	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Failed)
	assert.Equal(t, "desk/daylight-factor", runs[0].FirstFailure)
	assert.Equal(t, "AdapterError", runs[0].FailureKind)

	tasks, err := s.Tasks(context.Background(), g.RunID())
	require.NoError(t, err)
	for _, task := range tasks {
		assert.Equal(t, sim.StateFailed, task.State)
		assert.Equal(t, "AdapterError", task.ErrorKind)
		assert.Contains(t, task.Error, "code 1")
	}
}

func TestStore_DuplicateRunRollsBack(t *testing.T) {
	g := sim.NewGraph()
	s := openStore(t)
	report := g.Report()

	require.NoError(t, s.SaveRun(context.Background(), "p", time.Now(), report, nil))
	err := s.SaveRun(context.Background(), "p", time.Now(), report, nil)

	assert.Error(t, err)
	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
