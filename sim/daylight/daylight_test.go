package daylight_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/daylight-sim/daylight-sim/internal/testutil"
	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/daylight"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

// tracerFunc adapts a function to radiance.RayTracer.
type tracerFunc func(ctx context.Context, req radiance.TraceRequest) (*mat.Dense, error)

func (f tracerFunc) Trace(ctx context.Context, req radiance.TraceRequest) (*mat.Dense, error) {
	return f(ctx, req)
}

func TestDaylightFactor_IndoorOverOutdoor(t *testing.T) {
	// GIVEN a tracer answering 50 lux indoors and 200 lux for the reference
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{Indoor: 50, Outdoor: 200}
	g := sim.NewGraph()
	df, err := daylight.AddDaylightFactor(g, "df", m, radiance.DefaultOptions(), tracer, daylight.WorkplaneTarget(m.Workplanes[0]))
	require.NoError(t, err)

	// WHEN the task runs
	require.NoError(t, df.Run(context.Background()))

	// THEN every sensor reads 25% and the adapter was invoked exactly twice
	res, err := df.Result()
	require.NoError(t, err)
	rows, cols := res.Dims()
	assert.Equal(t, 16, rows)
	assert.Equal(t, 1, cols)
	for i := 0; i < rows; i++ {
		testutil.AssertFloat64Equal(t, fmt.Sprintf("df[%d]", i), 25.0, res.At(i, 0), 1e-12)
	}
	require.Equal(t, 2, tracer.Calls())

	reqs := tracer.Requests()
	assert.True(t, reqs[0].Model.HasObstructions())
	assert.False(t, reqs[1].Model.HasObstructions(), "reference trace has obstructions removed")
	assert.Same(t, m.Workplanes[0].Sensors(), reqs[0].Rays, "sensors shared by reference")
	assert.Same(t, reqs[0].Rays, reqs[1].Rays)
	assert.Equal(t, radiance.SkyOvercast, reqs[0].Sky.Kind)
}

func TestDaylightFactor_RayTargetMatchesWorkplane(t *testing.T) {
	m := testutil.Room(t)
	rays := m.Workplanes[0].Sensors()

	run := func(target daylight.Target) *sim.Matrix {
		g := sim.NewGraph()
		df, err := daylight.AddDaylightFactor(g, "df", m, radiance.DefaultOptions(),
			&testutil.StubTracer{Indoor: 30, Outdoor: 600}, target)
		require.NoError(t, err)
		require.NoError(t, df.Run(context.Background()))
		res, err := df.Result()
		require.NoError(t, err)
		return res
	}

	byPlane := run(daylight.WorkplaneTarget(m.Workplanes[0]))
	byRays := run(daylight.RayTarget(rays))
	assert.Equal(t, byPlane.Col(0), byRays.Col(0))
}

func TestDaylightFactor_PhotosensorTarget(t *testing.T) {
	// GIVEN the room's single photosensor as the target
	m := testutil.Room(t)
	target, err := daylight.PhotosensorTarget(m, "center")
	require.NoError(t, err)
	tracer := &testutil.StubTracer{Indoor: 40, Outdoor: 1000}
	g := sim.NewGraph()
	df, err := daylight.AddDaylightFactor(g, "df/center", m, radiance.DefaultOptions(), tracer, target)
	require.NoError(t, err)

	// WHEN the task runs
	require.NoError(t, df.Run(context.Background()))

	// THEN one value is computed at the sensor's position and direction
	res, err := df.Result()
	require.NoError(t, err)
	rows, _ := res.Dims()
	require.Equal(t, 1, rows)
	testutil.AssertFloat64Equal(t, "df", 4.0, res.At(0, 0), 1e-12)
	assert.Equal(t, daylight.TargetRays, target.Kind())
	ray := tracer.Requests()[0].Rays.At(0)
	assert.Equal(t, m.Photosensors[0].Position, ray.Origin)
	assert.Equal(t, m.Photosensors[0].Direction, ray.Direction)

	_, err = daylight.PhotosensorTarget(m, "missing")
	assert.ErrorIs(t, err, sim.ErrImport)
}

func TestDaylightFactor_AdapterFailures(t *testing.T) {
	m := testutil.Room(t)
	tests := []struct {
		name   string
		tracer radiance.RayTracer
	}{
		{"adapter error", &testutil.StubTracer{Err: fmt.Errorf("%w: rtrace exited with code 1", sim.ErrAdapter)}},
		{"foreign error", &testutil.StubTracer{Err: errors.New("disk full")}},
		{"zero reference", &testutil.StubTracer{Indoor: 10, Outdoor: 0}},
		{"dimension mismatch", tracerFunc(func(context.Context, radiance.TraceRequest) (*mat.Dense, error) {
			return mat.NewDense(2, 1, nil), nil
		})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := sim.NewGraph()
			df, err := daylight.AddDaylightFactor(g, "df", m, radiance.DefaultOptions(), tc.tracer, daylight.RayTarget(testutil.Rays(3)))
			require.NoError(t, err)

			err = df.Run(context.Background())

			assert.ErrorIs(t, err, sim.ErrAdapter)
			assert.Equal(t, "AdapterError", sim.ErrorKind(err))
			assert.Equal(t, sim.StateFailed, df.State())
			_, err = df.Result()
			assert.ErrorIs(t, err, sim.ErrNotReady, "no zero-filled result")
		})
	}
}

func TestAddDaylightFactor_Validation(t *testing.T) {
	m := testutil.Room(t)
	g := sim.NewGraph()

	_, err := daylight.AddDaylightFactor(g, "no-tracer", m, radiance.DefaultOptions(), nil, daylight.RayTarget(testutil.Rays(1)))
	assert.ErrorIs(t, err, sim.ErrInvalidTask)

	_, err = daylight.AddDaylightFactor(g, "no-rays", m, radiance.DefaultOptions(), &testutil.StubTracer{}, daylight.RayTarget(nil))
	assert.ErrorIs(t, err, sim.ErrInvalidTask)

	_, err = daylight.AddDaylightFactor(g, "no-model", nil, radiance.DefaultOptions(), &testutil.StubTracer{}, daylight.RayTarget(testutil.Rays(1)))
	assert.ErrorIs(t, err, sim.ErrInvalidTask)

	assert.Equal(t, 0, g.Len())
}

func TestDFCompliance_PerPointBand(t *testing.T) {
	// GIVEN daylight factors of 1, 3 and 6 percent and a [2, 5] band
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{IndoorValues: []float64{1, 3, 6}, Outdoor: 100}
	g := sim.NewGraph()
	check, err := daylight.AddDFCompliance(g, "check", m, radiance.DefaultOptions(), tracer,
		daylight.RayTarget(testutil.Rays(3)), 2, 5)
	require.NoError(t, err)

	// WHEN the check runs
	require.NoError(t, check.Run(context.Background()))

	// THEN only the middle sensor passes and the room is not compliant
	res, err := check.Result()
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false}, res.Pass)
	assert.False(t, res.Compliant)
	assert.InDelta(t, 1.0/3, res.PassFraction, 1e-12)
	assert.InDelta(t, 10.0/3, res.MeanDF, 1e-12)
	assert.InDelta(t, 1.0, res.MinDF, 1e-12)
	assert.InDelta(t, 6.0, res.MaxDF, 1e-12)

	// AND the source matrix is the dependency's result instance
	dfID, ok := g.Lookup("check/daylight-factor")
	require.True(t, ok)
	dfRes, err := g.Result(dfID)
	require.NoError(t, err)
	assert.Same(t, dfRes, res.Source)
}

func TestDFCompliance_BoundsAreInclusive(t *testing.T) {
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{IndoorValues: []float64{2, 5}, Outdoor: 100}
	g := sim.NewGraph()
	check, err := daylight.AddDFCompliance(g, "check", m, radiance.DefaultOptions(), tracer,
		daylight.RayTarget(testutil.Rays(2)), 2, 5)
	require.NoError(t, err)

	require.NoError(t, check.Run(context.Background()))

	res, err := check.Result()
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true}, res.Pass)
	assert.True(t, res.Compliant)
	assert.Equal(t, 1.0, res.PassFraction)
}

func TestDFCompliance_SiblingsShareOneCalculation(t *testing.T) {
	// GIVEN two checks over one explicitly shared daylight factor task
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{Indoor: 40, Outdoor: 1000}
	g := sim.NewGraph()
	df, err := daylight.AddDaylightFactor(g, "df", m, radiance.DefaultOptions(), tracer, daylight.WorkplaneTarget(m.Workplanes[0]))
	require.NoError(t, err)
	low, err := daylight.AddDFComplianceOn(g, "low", df, 2, 100)
	require.NoError(t, err)
	high, err := daylight.AddDFComplianceOn(g, "high", df, 5, 100)
	require.NoError(t, err)

	// WHEN both run one after the other
	require.NoError(t, low.Run(context.Background()))
	require.NoError(t, high.Run(context.Background()))

	// THEN the calculation ran once and both observe the same matrix
	assert.Equal(t, 2, tracer.Calls())
	assert.Equal(t, 1, g.Executions(df.ID))
	lr, err := low.Result()
	require.NoError(t, err)
	hr, err := high.Result()
	require.NoError(t, err)
	assert.Same(t, lr.Source, hr.Source)
	assert.True(t, lr.Compliant)
	assert.False(t, hr.Compliant)
}

func TestDFCompliance_ConcurrentSiblingsShareOneCalculation(t *testing.T) {
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{Indoor: 40, Outdoor: 1000}
	g := sim.NewGraph()
	df, err := daylight.AddDaylightFactor(g, "df", m, radiance.DefaultOptions(), tracer, daylight.WorkplaneTarget(m.Workplanes[0]))
	require.NoError(t, err)

	var checks []sim.Handle[*daylight.ComplianceResult]
	for i := 0; i < 8; i++ {
		c, err := daylight.AddDFComplianceOn(g, fmt.Sprintf("check-%d", i), df, float64(i), 100)
		require.NoError(t, err)
		checks = append(checks, c)
	}

	var wg sync.WaitGroup
	for _, c := range checks {
		wg.Add(1)
		go func(c sim.Handle[*daylight.ComplianceResult]) {
			defer wg.Done()
			assert.NoError(t, g.RunParallel(context.Background(), c.ID, 4))
		}(c)
	}
	wg.Wait()

	assert.Equal(t, 2, tracer.Calls())
	assert.Equal(t, 1, g.Executions(df.ID))
}

func TestDFCompliance_AdapterFailurePropagatesUnmodified(t *testing.T) {
	// GIVEN a check whose daylight factor dependency will fail in the adapter
	m := testutil.Room(t)
	tracer := &testutil.StubTracer{Err: fmt.Errorf("%w: rtrace exited with code 1", sim.ErrAdapter)}
	g := sim.NewGraph()
	check, err := daylight.AddDFCompliance(g, "check", m, radiance.DefaultOptions(), tracer,
		daylight.WorkplaneTarget(m.Workplanes[0]), 2, 5)
	require.NoError(t, err)

	// WHEN the check runs
	err = check.Run(context.Background())

	// THEN the check fails with the dependency's own error
	require.Error(t, err)
	var te *sim.TaskError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, "check/daylight-factor", te.Task)
	assert.Equal(t, sim.KindDaylightFactor, te.Kind)
	dfID, _ := g.Lookup("check/daylight-factor")
	assert.Same(t, g.Err(dfID), g.Err(check.ID))
	assert.Equal(t, sim.StateFailed, check.State())

	report := g.Report()
	require.NotNil(t, report.FirstFailure)
	assert.Equal(t, "check/daylight-factor", report.FirstFailure.Task)
	assert.Equal(t, "AdapterError", report.FirstFailureKind())
}

func TestAddDFCompliance_RejectsEmptyBand(t *testing.T) {
	m := testutil.Room(t)
	g := sim.NewGraph()

	_, err := daylight.AddDFCompliance(g, "check", m, radiance.DefaultOptions(), &testutil.StubTracer{},
		daylight.RayTarget(testutil.Rays(1)), 5, 2)

	assert.ErrorIs(t, err, sim.ErrRange)
	assert.Equal(t, 0, g.Len(), "no dependency is created for a rejected check")
}

func TestAddDFComplianceOn_RejectsForeignHandle(t *testing.T) {
	m := testutil.Room(t)
	other := sim.NewGraph()
	df, err := daylight.AddDaylightFactor(other, "df", m, radiance.DefaultOptions(), &testutil.StubTracer{}, daylight.RayTarget(testutil.Rays(1)))
	require.NoError(t, err)

	_, err = daylight.AddDFComplianceOn(sim.NewGraph(), "check", df, 0, 1)

	assert.ErrorIs(t, err, sim.ErrUnknownTask)
}
