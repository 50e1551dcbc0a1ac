package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/archive"
	"github.com/daylight-sim/daylight-sim/sim/daylight"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/model"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
	"github.com/daylight-sim/daylight-sim/sim/trace"
)

// CheckOutcome is one check's line in the results.
type CheckOutcome struct {
	Name         string    `json:"name"`
	Target       string    `json:"target"`
	State        sim.State `json:"state"`
	Sensors      int       `json:"sensors"`
	Compliant    bool      `json:"compliant"`
	PassFraction float64   `json:"pass_fraction"`
	MeanDF       float64   `json:"mean_df"`
	MinDF        float64   `json:"min_df"`
	MaxDF        float64   `json:"max_df"`
	ErrorKind    string    `json:"error_kind,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// RunSummary is the result of a project run.
type RunSummary struct {
	RunID            string         `json:"run_id"`
	Project          string         `json:"project"`
	Checks           []CheckOutcome `json:"checks"`
	Failed           bool           `json:"failed"`
	FirstFailure     string         `json:"first_failure,omitempty"`
	FirstFailureKind string         `json:"first_failure_kind,omitempty"`

	compliance []archive.Compliance
}

// Print writes the summary as JSON under a header.
func (s *RunSummary) Print(w io.Writer) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "=== Daylight Results ===\n%s\n", data)
	return err
}

type plannedCheck struct {
	spec   CheckSpec
	target daylight.Target
	handle sim.Handle[*daylight.ComplianceResult]
}

// RunProject adds every check of p to g and runs them. Checks on the same
// workplane share one daylight factor task; sensor-file and photosensor
// checks get their own. With workers > 1 all checks run concurrently under
// one shared cap of workers task bodies. A failing check does not stop
// the others; failures are reported in the summary.
func RunProject(ctx context.Context, g *sim.Graph, p *Project, m *model.Model, tracer radiance.RayTracer, workers int) (*RunSummary, error) {
	checks, err := planChecks(g, p, m, tracer)
	if err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if workers <= 1 {
		for _, c := range checks {
			_ = c.handle.Run(ctx)
		}
	} else {
		roots := make([]sim.TaskID, len(checks))
		for i, c := range checks {
			roots[i] = c.handle.ID
		}
		_ = g.RunAllParallel(ctx, roots, workers)
	}

	report := g.Report()
	summary := &RunSummary{
		RunID:            g.RunID(),
		Project:          p.Name,
		Failed:           report.Failed(),
		FirstFailureKind: report.FirstFailureKind(),
	}
	if report.FirstFailure != nil {
		summary.FirstFailure = report.FirstFailure.Task
	}
	for _, c := range checks {
		out := CheckOutcome{
			Name:    c.spec.Name,
			Target:  c.target.String(),
			State:   c.handle.State(),
			Sensors: c.target.Rays().Len(),
		}
		if res, err := c.handle.Result(); err == nil {
			out.Compliant = res.Compliant
			out.PassFraction = res.PassFraction
			out.MeanDF = res.MeanDF
			out.MinDF = res.MinDF
			out.MaxDF = res.MaxDF
			summary.compliance = append(summary.compliance, archive.ComplianceOf(c.spec.Name, res))
		} else if terr := g.Err(c.handle.ID); terr != nil {
			out.ErrorKind = sim.ErrorKind(terr)
			out.Error = terr.Error()
		}
		summary.Checks = append(summary.Checks, out)
	}
	return summary, nil
}

func planChecks(g *sim.Graph, p *Project, m *model.Model, tracer radiance.RayTracer) ([]plannedCheck, error) {
	opts := p.RayOptions()
	shared := make(map[string]sim.Handle[*sim.Matrix])
	var checks []plannedCheck

	for _, cs := range p.Checks {
		set := 0
		for _, given := range []bool{cs.Workplane != "", cs.Sensors != "", len(cs.Photosensors) > 0} {
			if given {
				set++
			}
		}
		if set != 1 {
			return nil, fmt.Errorf("%w: check %q needs exactly one of workplane, sensors or photosensors", sim.ErrImport, cs.Name)
		}

		var target daylight.Target
		var df sim.Handle[*sim.Matrix]
		if cs.Workplane != "" {
			wp, ok := m.Workplane(cs.Workplane)
			if !ok {
				return nil, fmt.Errorf("%w: check %q names unknown workplane %q", sim.ErrImport, cs.Name, cs.Workplane)
			}
			target = daylight.WorkplaneTarget(wp)
			h, ok := shared[wp.Name()]
			if !ok {
				var err error
				h, err = daylight.AddDaylightFactor(g, "df/"+wp.Name(), m, opts, tracer, target)
				if err != nil {
					return nil, err
				}
				shared[wp.Name()] = h
			}
			df = h
		} else {
			var err error
			if cs.Sensors != "" {
				var rays *geometry.RaySet
				rays, err = readSensors(p.SensorPath(cs))
				target = daylight.RayTarget(rays)
			} else {
				target, err = daylight.PhotosensorTarget(m, cs.Photosensors...)
			}
			if err != nil {
				return nil, fmt.Errorf("check %q: %w", cs.Name, err)
			}
			df, err = daylight.AddDaylightFactor(g, "df/"+cs.Name, m, opts, tracer, target)
			if err != nil {
				return nil, err
			}
		}

		h, err := daylight.AddDFComplianceOn(g, cs.Name, df, cs.Min, cs.Max)
		if err != nil {
			return nil, err
		}
		checks = append(checks, plannedCheck{spec: cs, target: target, handle: h})
	}
	return checks, nil
}

func readSensors(path string) (*geometry.RaySet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open sensors: %v", sim.ErrImport, err)
	}
	defer f.Close()
	return radiance.ReadRays(f)
}

func printTraceSummary(w io.Writer, s *trace.TraceSummary) {
	fmt.Fprintf(w, "=== Task Trace ===\n")
	fmt.Fprintf(w, "tasks: %d (done %d, failed %d, skipped %d)\n", s.TotalTasks, s.DoneCount, s.FailedCount, s.SkippedCount)
	fmt.Fprintf(w, "body time: %v (slowest %q, %v)\n", s.TotalElapsed, s.SlowestTask, s.MaxElapsed)
	for _, kind := range slices.Sorted(maps.Keys(s.KindCounts)) {
		fmt.Fprintf(w, "  %s: %d\n", kind, s.KindCounts[kind])
	}
}
