// Package model defines the building model a simulation runs against:
// layers of named primitives, window groups, component definitions and
// their placements, materials, workplanes, photosensors, views, and the site.
package model

import (
	"fmt"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/location"
)

// MaterialType enumerates the supported surface materials.
type MaterialType string

const (
	MaterialPlastic MaterialType = "plastic"
	MaterialMetal   MaterialType = "metal"
	MaterialGlass   MaterialType = "glass"
	MaterialLight   MaterialType = "light"
)

// Material describes how a surface reflects or transmits light.
type Material struct {
	Name        string
	Type        MaterialType
	Color       [3]float64 // RGB reflectance, or normal-incidence transmittance for glass
	Specularity float64    // plastic and metal only
	Roughness   float64    // plastic and metal only
}

// Validate checks the material's parameters.
func (m Material) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: material without a name", sim.ErrImport)
	}
	switch m.Type {
	case MaterialPlastic, MaterialMetal, MaterialGlass:
		for _, c := range m.Color {
			if c < 0 || c > 1 {
				return fmt.Errorf("%w: material %q color %v outside [0, 1]", sim.ErrImport, m.Name, m.Color)
			}
		}
	case MaterialLight:
		for _, c := range m.Color {
			if c < 0 {
				return fmt.Errorf("%w: material %q radiance %v is negative", sim.ErrImport, m.Name, m.Color)
			}
		}
	default:
		return fmt.Errorf("%w: material %q has unknown type %q", sim.ErrImport, m.Name, m.Type)
	}
	return nil
}

// Layer groups objects and component placements, as the authoring tool
// organized them.
type Layer struct {
	Name      string
	Objects   []geometry.Object
	Instances []ComponentInstance
}

// Model is the building model for one run. It is immutable once a task
// graph has been built from it.
type Model struct {
	Name            string
	NorthCorrection float64 // degrees
	Layers          []Layer
	WindowGroups    []WindowGroup
	Components      []*ComponentDefinition
	Materials       []Material
	Workplanes      []*geometry.Workplane
	Photosensors    []Photosensor
	Views           []View
	Location        *location.Location
}

// New creates an empty model with a default location.
func New(name string) *Model {
	return &Model{Name: name, Location: location.New()}
}

// Material returns the material named name.
func (m *Model) Material(name string) (Material, bool) {
	for _, mat := range m.Materials {
		if mat.Name == name {
			return mat, true
		}
	}
	return Material{}, false
}

// Workplane returns the workplane named name.
func (m *Model) Workplane(name string) (*geometry.Workplane, bool) {
	for _, wp := range m.Workplanes {
		if wp.Name() == name {
			return wp, true
		}
	}
	return nil, false
}

// ObjectCount returns the number of objects over all layers and window
// groups. Component contents are not counted.
func (m *Model) ObjectCount() int {
	n := 0
	for _, l := range m.Layers {
		n += len(l.Objects)
	}
	for _, g := range m.WindowGroups {
		n += len(g.Windows)
	}
	return n
}

// HasObstructions reports whether any layer, window group, or placed
// component holds a light-blocking surface.
func (m *Model) HasObstructions() bool {
	for _, l := range m.Layers {
		for _, o := range l.Objects {
			if geometry.IsSurface(o.Kind()) {
				return true
			}
		}
		for _, inst := range l.Instances {
			if m.componentHasSurface(inst.Definition, make(map[string]bool)) {
				return true
			}
		}
	}
	for _, g := range m.WindowGroups {
		if len(g.Windows) > 0 {
			return true
		}
	}
	return false
}

// WithoutObstructions returns a model sharing this model's site and materials
// but with no geometry: the unobstructed reference for daylight factors.
func (m *Model) WithoutObstructions() *Model {
	return &Model{
		Name:            m.Name + " (unobstructed)",
		NorthCorrection: m.NorthCorrection,
		Materials:       m.Materials,
		Location:        m.Location,
	}
}

func checkObject(o geometry.Object, scope string, mats, names map[string]bool) error {
	if o.Name == "" {
		return fmt.Errorf("%w: unnamed object in %s", sim.ErrImport, scope)
	}
	if names[o.Name] {
		return fmt.Errorf("%w: duplicate object %q", sim.ErrImport, o.Name)
	}
	names[o.Name] = true
	if o.Geometry == nil {
		return fmt.Errorf("%w: object %q has no geometry", sim.ErrImport, o.Name)
	}
	if geometry.IsSurface(o.Kind()) && !mats[o.Material] {
		return fmt.Errorf("%w: object %q uses unknown material %q", sim.ErrImport, o.Name, o.Material)
	}
	return nil
}

// Validate checks names, material and component references, sensors, views,
// and the location.
func (m *Model) Validate() error {
	mats := make(map[string]bool, len(m.Materials))
	for _, mat := range m.Materials {
		if err := mat.Validate(); err != nil {
			return err
		}
		if mats[mat.Name] {
			return fmt.Errorf("%w: duplicate material %q", sim.ErrImport, mat.Name)
		}
		mats[mat.Name] = true
	}

	if err := m.validateComponents(mats); err != nil {
		return err
	}
	names := make(map[string]bool)
	for _, l := range m.Layers {
		for _, o := range l.Objects {
			if err := checkObject(o, fmt.Sprintf("layer %q", l.Name), mats, names); err != nil {
				return err
			}
		}
		for _, inst := range l.Instances {
			if err := inst.validate(m, fmt.Sprintf("layer %q", l.Name)); err != nil {
				return err
			}
		}
	}
	if err := m.validateWindows(mats, names); err != nil {
		return err
	}

	wps := make(map[string]bool, len(m.Workplanes))
	for _, wp := range m.Workplanes {
		if wps[wp.Name()] {
			return fmt.Errorf("%w: duplicate workplane %q", sim.ErrImport, wp.Name())
		}
		wps[wp.Name()] = true
	}
	if err := m.validateSensorsAndViews(); err != nil {
		return err
	}

	if m.Location == nil {
		return fmt.Errorf("%w: model %q has no location", sim.ErrImport, m.Name)
	}
	return m.Location.Validate()
}
