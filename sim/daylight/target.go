// Package daylight implements the daylighting calculations that run as task
// graph nodes: the daylight factor over a set of sensors and compliance checks
// over a daylight factor result.
package daylight

import (
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/model"
)

// TargetKind distinguishes where sensors come from.
type TargetKind int

const (
	TargetWorkplane TargetKind = iota
	TargetRays
)

// Target is the set of sensors a calculation evaluates: a workplane's
// tessellated sensors or an explicit ray list. Both variants execute the
// same way; only construction differs.
type Target struct {
	kind      TargetKind
	workplane *geometry.Workplane
	rays      *geometry.RaySet
}

// WorkplaneTarget targets the sensors of wp.
func WorkplaneTarget(wp *geometry.Workplane) Target {
	return Target{kind: TargetWorkplane, workplane: wp}
}

// RayTarget targets an explicit ray list.
func RayTarget(rays *geometry.RaySet) Target {
	return Target{kind: TargetRays, rays: rays}
}

// PhotosensorTarget targets the named photosensors of m, or all of them
// when no names are given. It is a ray target over the sensors' positions
// and directions.
func PhotosensorTarget(m *model.Model, names ...string) (Target, error) {
	rays, err := m.PhotosensorRays(names...)
	if err != nil {
		return Target{}, err
	}
	return RayTarget(rays), nil
}

// Kind returns the target variant.
func (t Target) Kind() TargetKind { return t.kind }

// Workplane returns the workplane for workplane targets, else nil.
func (t Target) Workplane() *geometry.Workplane { return t.workplane }

// Rays returns the sensor rays, shared by reference.
func (t Target) Rays() *geometry.RaySet {
	if t.kind == TargetWorkplane {
		if t.workplane == nil {
			return nil
		}
		return t.workplane.Sensors()
	}
	return t.rays
}

func (t Target) String() string {
	if t.kind == TargetWorkplane && t.workplane != nil {
		return "workplane " + t.workplane.Name()
	}
	return "rays"
}
