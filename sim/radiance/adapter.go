package radiance

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/model"
)

// TraceRequest is one ray-trace invocation: a scene lit by a sky, sampled at
// a set of sensor rays.
type TraceRequest struct {
	Model   *model.Model
	Sky     Sky
	Rays    *geometry.RaySet
	Options Options
}

// RayTracer computes illuminance at each ray of a request. The returned
// matrix has one row per ray and one column per sky sample.
//
// Implementations report every failure as sim.ErrAdapter; a partial result
// is never returned.
type RayTracer interface {
	Trace(ctx context.Context, req TraceRequest) (*mat.Dense, error)
}

// Illuminance converts an RGB irradiance triplet to lux.
func Illuminance(r, g, b float64) float64 {
	return luminousEfficacy * (0.265*r + 0.670*g + 0.065*b)
}
