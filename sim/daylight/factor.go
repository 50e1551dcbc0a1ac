package daylight

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/model"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

// ReferenceIlluminance is the unobstructed horizontal illuminance (lux) of
// the overcast sky both traces run under. The ratio does not depend on it.
const ReferenceIlluminance = 10000.0

// DaylightFactor computes, per sensor, 100 × indoor / outdoor illuminance
// under a CIE overcast sky. The outdoor value comes from tracing the same
// sensors against the model with every obstruction removed.
type DaylightFactor struct {
	model     *model.Model
	reference *model.Model
	options   radiance.Options
	target    Target
	tracer    radiance.RayTracer
}

// Kind implements sim.Operation.
func (*DaylightFactor) Kind() sim.Kind { return sim.KindDaylightFactor }

// AddDaylightFactor adds a daylight factor task to g. Its result is a
// *sim.Matrix with one row per sensor.
func AddDaylightFactor(g *sim.Graph, name string, m *model.Model, opts radiance.Options,
	tracer radiance.RayTracer, target Target) (sim.Handle[*sim.Matrix], error) {
	op, err := newDaylightFactor(m, opts, tracer, target)
	if err != nil {
		return sim.Handle[*sim.Matrix]{}, fmt.Errorf("task %q: %w", name, err)
	}
	id, err := g.Add(name, op)
	if err != nil {
		return sim.Handle[*sim.Matrix]{}, err
	}
	return sim.NewHandle[*sim.Matrix](g, id), nil
}

func newDaylightFactor(m *model.Model, opts radiance.Options, tracer radiance.RayTracer, target Target) (*DaylightFactor, error) {
	switch {
	case m == nil:
		return nil, fmt.Errorf("%w: no model", sim.ErrInvalidTask)
	case tracer == nil:
		return nil, fmt.Errorf("%w: no ray tracer", sim.ErrInvalidTask)
	case target.Rays().Len() == 0:
		return nil, fmt.Errorf("%w: %s has no sensors", sim.ErrInvalidTask, target)
	}
	return &DaylightFactor{
		model:     m,
		reference: m.WithoutObstructions(),
		options:   opts,
		target:    target,
		tracer:    tracer,
	}, nil
}

// Execute implements sim.Operation.
func (d *DaylightFactor) Execute(ctx context.Context, _ sim.Dependencies) (any, error) {
	rays := d.target.Rays()
	sky := radiance.OvercastSky(ReferenceIlluminance)

	indoor, err := d.trace(ctx, "indoor", d.model, sky)
	if err != nil {
		return nil, err
	}
	outdoor, err := d.trace(ctx, "reference", d.reference, sky)
	if err != nil {
		return nil, err
	}

	ir, ic := indoor.Dims()
	or, oc := outdoor.Dims()
	if ir != rays.Len() || or != rays.Len() || ic != oc {
		return nil, fmt.Errorf("%w: %d sensors but indoor is %dx%d and reference is %dx%d",
			sim.ErrAdapter, rays.Len(), ir, ic, or, oc)
	}

	df := mat.NewDense(ir, ic, nil)
	for i := 0; i < ir; i++ {
		for j := 0; j < ic; j++ {
			out := outdoor.At(i, j)
			if out == 0 {
				return nil, fmt.Errorf("%w: sensor %d has zero reference illuminance", sim.ErrAdapter, i)
			}
			df.Set(i, j, 100*indoor.At(i, j)/out)
		}
	}
	return sim.NewMatrix(df), nil
}

func (d *DaylightFactor) trace(ctx context.Context, label string, m *model.Model, sky radiance.Sky) (*mat.Dense, error) {
	res, err := d.tracer.Trace(ctx, radiance.TraceRequest{
		Model:   m,
		Sky:     sky,
		Rays:    d.target.Rays(),
		Options: d.options,
	})
	if err != nil {
		if errors.Is(err, sim.ErrAdapter) {
			return nil, fmt.Errorf("%s trace: %w", label, err)
		}
		return nil, fmt.Errorf("%w: %s trace: %w", sim.ErrAdapter, label, err)
	}
	if res == nil {
		return nil, fmt.Errorf("%w: %s trace returned no result", sim.ErrAdapter, label)
	}
	return res, nil
}
