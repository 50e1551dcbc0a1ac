package model

import (
	"fmt"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
)

// Photosensor is a named point sensor facing a direction.
type Photosensor struct {
	Name      string
	Position  geometry.Point3D
	Direction geometry.Vector3D
}

// Ray returns the sensor as a ray.
func (p Photosensor) Ray() geometry.Ray {
	return geometry.Ray{Origin: p.Position, Direction: p.Direction}
}

// PhotosensorRays returns the named photosensors as a ray set, in the order
// given. With no names, every photosensor is returned in model order.
func (m *Model) PhotosensorRays(names ...string) (*geometry.RaySet, error) {
	if len(names) == 0 {
		if len(m.Photosensors) == 0 {
			return nil, fmt.Errorf("%w: model %q has no photosensors", sim.ErrImport, m.Name)
		}
		rays := make([]geometry.Ray, len(m.Photosensors))
		for i, p := range m.Photosensors {
			rays[i] = p.Ray()
		}
		return geometry.NewRaySet(rays), nil
	}
	rays := make([]geometry.Ray, 0, len(names))
	for _, name := range names {
		p, ok := m.Photosensor(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown photosensor %q", sim.ErrImport, name)
		}
		rays = append(rays, p.Ray())
	}
	return geometry.NewRaySet(rays), nil
}

// Photosensor returns the photosensor named name.
func (m *Model) Photosensor(name string) (Photosensor, bool) {
	for _, p := range m.Photosensors {
		if p.Name == name {
			return p, true
		}
	}
	return Photosensor{}, false
}

// ViewType is a Radiance view projection.
type ViewType string

const (
	ViewPerspective ViewType = "v"
	ViewParallel    ViewType = "l"
	ViewFisheye     ViewType = "h"
	ViewAngular     ViewType = "a"
)

// View is a saved camera. Horizontal and Vertical are the view angles in
// degrees, or the view size in model units for parallel views.
type View struct {
	Name       string
	Type       ViewType
	Point      geometry.Point3D
	Direction  geometry.Vector3D
	Up         geometry.Vector3D
	Horizontal float64
	Vertical   float64
}

func (v View) validate() error {
	switch v.Type {
	case ViewPerspective, ViewParallel, ViewFisheye, ViewAngular:
	default:
		return fmt.Errorf("%w: view %q has unknown type %q", sim.ErrImport, v.Name, v.Type)
	}
	if v.Direction.IsZero() || v.Up.IsZero() {
		return fmt.Errorf("%w: view %q needs non-zero direction and up vectors", sim.ErrImport, v.Name)
	}
	if v.Direction.Cross(v.Up).IsZero() {
		return fmt.Errorf("%w: view %q looks along its up vector", sim.ErrImport, v.Name)
	}
	if v.Horizontal <= 0 || v.Vertical <= 0 {
		return fmt.Errorf("%w: view %q size %gx%g is not positive", sim.ErrImport, v.Name, v.Horizontal, v.Vertical)
	}
	return nil
}

func (m *Model) validateSensorsAndViews() error {
	sensors := make(map[string]bool, len(m.Photosensors))
	for _, p := range m.Photosensors {
		if p.Name == "" {
			return fmt.Errorf("%w: photosensor without a name", sim.ErrImport)
		}
		if sensors[p.Name] {
			return fmt.Errorf("%w: duplicate photosensor %q", sim.ErrImport, p.Name)
		}
		sensors[p.Name] = true
		if p.Direction.IsZero() {
			return fmt.Errorf("%w: photosensor %q has no direction", sim.ErrImport, p.Name)
		}
	}
	views := make(map[string]bool, len(m.Views))
	for _, v := range m.Views {
		if v.Name == "" {
			return fmt.Errorf("%w: view without a name", sim.ErrImport)
		}
		if views[v.Name] {
			return fmt.Errorf("%w: duplicate view %q", sim.ErrImport, v.Name)
		}
		views[v.Name] = true
		if err := v.validate(); err != nil {
			return err
		}
	}
	return nil
}
