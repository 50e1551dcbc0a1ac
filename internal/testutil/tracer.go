package testutil

import (
	"context"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

// StubTracer is a scripted RayTracer. Requests whose model has obstructions
// get Indoor for every ray; reference requests (no obstructions) get Outdoor.
// Setting Err makes every call fail with it.
type StubTracer struct {
	Indoor  float64
	Outdoor float64
	Err     error

	// IndoorValues, when set, overrides Indoor per ray.
	IndoorValues []float64

	mu       sync.Mutex
	requests []radiance.TraceRequest
}

// Trace implements radiance.RayTracer.
func (s *StubTracer) Trace(_ context.Context, req radiance.TraceRequest) (*mat.Dense, error) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Err != nil {
		return nil, s.Err
	}
	n := req.Rays.Len()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		v := s.Outdoor
		if req.Model.HasObstructions() {
			v = s.Indoor
			if i < len(s.IndoorValues) {
				v = s.IndoorValues[i]
			}
		}
		out.Set(i, 0, v)
	}
	return out, nil
}

// Calls returns how many times Trace ran.
func (s *StubTracer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of every request seen, in call order.
func (s *StubTracer) Requests() []radiance.TraceRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]radiance.TraceRequest(nil), s.requests...)
}
