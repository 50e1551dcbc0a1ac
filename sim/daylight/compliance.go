package daylight

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/model"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

// ComplianceResult is the outcome of checking a daylight factor matrix
// against a [Min, Max] band.
type ComplianceResult struct {
	Min, Max float64

	Pass         []bool  // per sensor: every column lies in [Min, Max]
	Compliant    bool    // every sensor passes
	PassFraction float64 // passing sensors / sensors
	MeanDF       float64
	MinDF        float64
	MaxDF        float64

	// Source is the dependency's matrix, by reference.
	Source *sim.Matrix
}

// DFCompliance checks a daylight factor result against thresholds. It reads
// its single dependency's matrix and never triggers a recalculation.
type DFCompliance struct {
	min, max float64
}

// Kind implements sim.Operation.
func (*DFCompliance) Kind() sim.Kind { return sim.KindDFCompliance }

// AddDFCompliance adds a compliance check and the daylight factor task it
// depends on. The dependency is named "<name>/daylight-factor".
func AddDFCompliance(g *sim.Graph, name string, m *model.Model, opts radiance.Options,
	tracer radiance.RayTracer, target Target, lo, hi float64) (sim.Handle[*ComplianceResult], error) {
	if err := checkBand(lo, hi); err != nil {
		return sim.Handle[*ComplianceResult]{}, fmt.Errorf("task %q: %w", name, err)
	}
	df, err := AddDaylightFactor(g, name+"/daylight-factor", m, opts, tracer, target)
	if err != nil {
		return sim.Handle[*ComplianceResult]{}, err
	}
	return AddDFComplianceOn(g, name, df, lo, hi)
}

// AddDFComplianceOn adds a compliance check over an existing daylight factor
// task. Several checks built on the same handle share one calculation.
func AddDFComplianceOn(g *sim.Graph, name string, df sim.Handle[*sim.Matrix], lo, hi float64) (sim.Handle[*ComplianceResult], error) {
	if err := checkBand(lo, hi); err != nil {
		return sim.Handle[*ComplianceResult]{}, fmt.Errorf("task %q: %w", name, err)
	}
	if df.Graph != g {
		return sim.Handle[*ComplianceResult]{}, fmt.Errorf("%w: task %q depends on a task from another graph", sim.ErrUnknownTask, name)
	}
	id, err := g.Add(name, &DFCompliance{min: lo, max: hi}, df.ID)
	if err != nil {
		return sim.Handle[*ComplianceResult]{}, err
	}
	return sim.NewHandle[*ComplianceResult](g, id), nil
}

func checkBand(lo, hi float64) error {
	if math.IsNaN(lo) || math.IsNaN(hi) || lo > hi {
		return fmt.Errorf("%w: compliance band [%g, %g] is empty", sim.ErrRange, lo, hi)
	}
	return nil
}

// Execute implements sim.Operation.
func (c *DFCompliance) Execute(_ context.Context, deps sim.Dependencies) (any, error) {
	if deps.Len() != 1 {
		return nil, fmt.Errorf("%w: compliance check needs one dependency, has %d", sim.ErrInvalidTask, deps.Len())
	}
	src, err := sim.DependencyResult[*sim.Matrix](deps, 0)
	if err != nil {
		return nil, err
	}
	rows, cols := src.Dims()
	if rows == 0 || cols == 0 {
		return nil, fmt.Errorf("%w: daylight factor matrix is empty", sim.ErrRange)
	}

	res := &ComplianceResult{
		Min:       c.min,
		Max:       c.max,
		Pass:      make([]bool, rows),
		Compliant: true,
		Source:    src,
	}
	all := make([]float64, 0, rows*cols)
	passed := 0
	for i := 0; i < rows; i++ {
		row := src.Row(i)
		all = append(all, row...)
		ok := floats.Min(row) >= c.min && floats.Max(row) <= c.max
		res.Pass[i] = ok
		if ok {
			passed++
		} else {
			res.Compliant = false
		}
	}
	res.PassFraction = float64(passed) / float64(rows)
	res.MeanDF = stat.Mean(all, nil)
	res.MinDF = floats.Min(all)
	res.MaxDF = floats.Max(all)
	return res, nil
}
