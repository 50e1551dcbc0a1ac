package model

import (
	"fmt"
	"math"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
)

// WindowGroup is a set of glazing surfaces kept apart from the opaque
// layers, so that all windows of a group can be written and swapped as one.
type WindowGroup struct {
	Name    string
	Windows []geometry.Object
}

// ComponentDefinition is geometry defined once and placed any number of
// times through instances. Definitions may themselves hold instances of
// other definitions.
type ComponentDefinition struct {
	Name      string
	Objects   []geometry.Object
	Instances []ComponentInstance
}

// ComponentInstance places a definition. The definition is scaled, rotated
// about x, then y, then z (degrees), and finally translated.
type ComponentInstance struct {
	Definition  string
	Scale       float64
	Rotation    geometry.Vector3D
	Translation geometry.Vector3D
}

// Component returns the definition named name.
func (m *Model) Component(name string) (*ComponentDefinition, bool) {
	for _, c := range m.Components {
		if c != nil && c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// componentHasSurface reports whether placing name adds light-blocking
// geometry, following nested instances.
func (m *Model) componentHasSurface(name string, seen map[string]bool) bool {
	if seen[name] {
		return false
	}
	seen[name] = true
	def, ok := m.Component(name)
	if !ok {
		return false
	}
	for _, o := range def.Objects {
		if geometry.IsSurface(o.Kind()) {
			return true
		}
	}
	for _, inst := range def.Instances {
		if m.componentHasSurface(inst.Definition, seen) {
			return true
		}
	}
	return false
}

func (inst ComponentInstance) validate(m *Model, owner string) error {
	if _, ok := m.Component(inst.Definition); !ok {
		return fmt.Errorf("%w: %s places unknown component %q", sim.ErrImport, owner, inst.Definition)
	}
	if !(inst.Scale > 0) || math.IsInf(inst.Scale, 0) {
		return fmt.Errorf("%w: %s places %q with scale %g", sim.ErrImport, owner, inst.Definition, inst.Scale)
	}
	return nil
}

func (m *Model) validateWindows(mats, names map[string]bool) error {
	groups := make(map[string]bool, len(m.WindowGroups))
	for _, g := range m.WindowGroups {
		if g.Name == "" {
			return fmt.Errorf("%w: window group without a name", sim.ErrImport)
		}
		if groups[g.Name] {
			return fmt.Errorf("%w: duplicate window group %q", sim.ErrImport, g.Name)
		}
		groups[g.Name] = true
		for _, o := range g.Windows {
			if err := checkObject(o, fmt.Sprintf("window group %q", g.Name), mats, names); err != nil {
				return err
			}
			if !geometry.IsSurface(o.Kind()) {
				return fmt.Errorf("%w: window %q in group %q is a %s, not a surface", sim.ErrImport, o.Name, g.Name, o.Kind())
			}
		}
	}
	return nil
}

func (m *Model) validateComponents(mats map[string]bool) error {
	defs := make(map[string]bool, len(m.Components))
	for _, c := range m.Components {
		if c == nil || c.Name == "" {
			return fmt.Errorf("%w: component definition without a name", sim.ErrImport)
		}
		if defs[c.Name] {
			return fmt.Errorf("%w: duplicate component %q", sim.ErrImport, c.Name)
		}
		defs[c.Name] = true
		names := make(map[string]bool, len(c.Objects))
		for _, o := range c.Objects {
			if err := checkObject(o, fmt.Sprintf("component %q", c.Name), mats, names); err != nil {
				return err
			}
		}
		for _, inst := range c.Instances {
			if err := inst.validate(m, fmt.Sprintf("component %q", c.Name)); err != nil {
				return err
			}
		}
	}

	// A definition placed inside itself, directly or not, never terminates.
	const (
		visiting = iota + 1
		visited
	)
	state := make(map[string]int, len(m.Components))
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return fmt.Errorf("%w: component %q contains itself", sim.ErrImport, name)
		case visited:
			return nil
		}
		state[name] = visiting
		def, _ := m.Component(name)
		for _, inst := range def.Instances {
			if err := visit(inst.Definition); err != nil {
				return err
			}
		}
		state[name] = visited
		return nil
	}
	for _, c := range m.Components {
		if err := visit(c.Name); err != nil {
			return err
		}
	}
	return nil
}
