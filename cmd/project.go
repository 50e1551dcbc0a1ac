package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/location"
	"github.com/daylight-sim/daylight-sim/sim/model"
	"github.com/daylight-sim/daylight-sim/sim/radiance"
)

// Project represents the full project YAML structure.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Project struct {
	Name            string            `yaml:"name"`
	NorthCorrection float64           `yaml:"north_correction"`
	Location        LocationSpec      `yaml:"location"`
	Weather         []WeatherSpec     `yaml:"weather"`
	Materials       []MaterialSpec    `yaml:"materials"`
	Layers          []LayerSpec       `yaml:"layers"`
	Windows         []WindowGroupSpec `yaml:"windows"`
	Components      []ComponentSpec   `yaml:"components"`
	Workplanes      []WorkplaneSpec   `yaml:"workplanes"`
	Photosensors    []PhotosensorSpec `yaml:"photosensors"`
	Views           []ViewSpec        `yaml:"views"`
	Options         []OptionSpec      `yaml:"options"`
	Checks          []CheckSpec       `yaml:"checks"`

	dir string // directory of the project file; sensor paths are relative to it
}

// Vec3 is an [x, y, z] triple.
type Vec3 [3]float64

func (v Vec3) point() geometry.Point3D   { return geometry.Pt(v[0], v[1], v[2]) }
func (v Vec3) vector() geometry.Vector3D { return geometry.Vec(v[0], v[1], v[2]) }

type LocationSpec struct {
	Latitude  float64  `yaml:"latitude"`
	Longitude float64  `yaml:"longitude"`
	TimeZone  float64  `yaml:"time_zone"`
	Elevation float64  `yaml:"elevation"`
	Albedo    *float64 `yaml:"albedo"` // nil keeps the default
	City      string   `yaml:"city"`
	Country   string   `yaml:"country"`
}

type WeatherSpec struct {
	Month             int     `yaml:"month"`
	Day               int     `yaml:"day"`
	Hour              float64 `yaml:"hour"`
	DirectNormal      float64 `yaml:"direct_normal"`
	DiffuseHorizontal float64 `yaml:"diffuse_horizontal"`
	GlobalHorizontal  float64 `yaml:"global_horizontal"`
	DryBulb           float64 `yaml:"dry_bulb"`
}

type MaterialSpec struct {
	Name        string  `yaml:"name"`
	Type        string  `yaml:"type"`
	Color       Vec3    `yaml:"color"`
	Specularity float64 `yaml:"specularity"`
	Roughness   float64 `yaml:"roughness"`
}

type LayerSpec struct {
	Name      string         `yaml:"name"`
	Objects   []ObjectSpec   `yaml:"objects"`
	Instances []InstanceSpec `yaml:"instances"`
}

type WindowGroupSpec struct {
	Name    string       `yaml:"name"`
	Objects []ObjectSpec `yaml:"objects"`
}

type ComponentSpec struct {
	Name      string         `yaml:"name"`
	Objects   []ObjectSpec   `yaml:"objects"`
	Instances []InstanceSpec `yaml:"instances"`
}

// InstanceSpec places a component. Scale defaults to 1; rotation is in
// degrees about x, y and z.
type InstanceSpec struct {
	Component   string   `yaml:"component"`
	Scale       *float64 `yaml:"scale"`
	Rotation    Vec3     `yaml:"rotation"`
	Translation Vec3     `yaml:"translation"`
}

type PhotosensorSpec struct {
	Name      string `yaml:"name"`
	Position  Vec3   `yaml:"position"`
	Direction Vec3   `yaml:"direction"`
}

type ViewSpec struct {
	Name       string  `yaml:"name"`
	Type       string  `yaml:"type"`
	Point      Vec3    `yaml:"point"`
	Direction  Vec3    `yaml:"direction"`
	Up         *Vec3   `yaml:"up"` // nil means +z
	Horizontal float64 `yaml:"horizontal"`
	Vertical   float64 `yaml:"vertical"`
}

// ObjectSpec is one primitive. Which fields apply depends on Kind.
type ObjectSpec struct {
	Name     string `yaml:"name"`
	Material string `yaml:"material"`
	Kind     string `yaml:"kind"`

	Position  *Vec3    `yaml:"position"`  // point, vector
	Vertices  []Vec3   `yaml:"vertices"`  // loop, polygon, face
	Holes     [][]Vec3 `yaml:"holes"`     // face
	Center    *Vec3    `yaml:"center"`    // ring, sphere
	Direction *Vec3    `yaml:"direction"` // ring
	Start     *Vec3    `yaml:"start"`     // cylinder
	End       *Vec3    `yaml:"end"`       // cylinder
	Radius    float64  `yaml:"radius"`    // sphere, cylinder
	R0        float64  `yaml:"r0"`        // ring
	R1        float64  `yaml:"r1"`        // ring
}

type WorkplaneSpec struct {
	Name     string   `yaml:"name"`
	MaxArea  float64  `yaml:"max_area"`
	Polygons [][]Vec3 `yaml:"polygons"`
}

type OptionSpec struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

// CheckSpec is a daylight factor compliance check over a workplane, a
// sensor file, or a list of photosensors, exactly one of which must be set.
type CheckSpec struct {
	Name         string   `yaml:"name"`
	Workplane    string   `yaml:"workplane"`
	Sensors      string   `yaml:"sensors"`
	Photosensors []string `yaml:"photosensors"`
	Min          float64  `yaml:"min"`
	Max          float64  `yaml:"max"`
}

// LoadProject parses a project file with strict field checking: unknown keys
// are import errors, not silently ignored.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read project: %v", sim.ErrImport, err)
	}
	var p Project
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: parse project %s: %v", sim.ErrImport, path, err)
	}
	if p.Name == "" {
		p.Name = trimExt(filepath.Base(path))
	}
	p.dir = filepath.Dir(path)
	return &p, nil
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}

// BuildModel converts the project into a validated building model.
func (p *Project) BuildModel() (*model.Model, error) {
	m := model.New(p.Name)
	m.NorthCorrection = p.NorthCorrection
	if err := p.buildLocation(m.Location); err != nil {
		return nil, err
	}
	for _, ms := range p.Materials {
		m.Materials = append(m.Materials, model.Material{
			Name:        ms.Name,
			Type:        model.MaterialType(ms.Type),
			Color:       ms.Color,
			Specularity: ms.Specularity,
			Roughness:   ms.Roughness,
		})
	}
	for _, ls := range p.Layers {
		objects, err := buildObjects(fmt.Sprintf("layer %q", ls.Name), ls.Objects)
		if err != nil {
			return nil, err
		}
		m.Layers = append(m.Layers, model.Layer{Name: ls.Name, Objects: objects, Instances: buildInstances(ls.Instances)})
	}
	for _, ws := range p.Windows {
		objects, err := buildObjects(fmt.Sprintf("window group %q", ws.Name), ws.Objects)
		if err != nil {
			return nil, err
		}
		m.WindowGroups = append(m.WindowGroups, model.WindowGroup{Name: ws.Name, Windows: objects})
	}
	for _, cs := range p.Components {
		objects, err := buildObjects(fmt.Sprintf("component %q", cs.Name), cs.Objects)
		if err != nil {
			return nil, err
		}
		m.Components = append(m.Components, &model.ComponentDefinition{
			Name: cs.Name, Objects: objects, Instances: buildInstances(cs.Instances),
		})
	}
	for _, ps := range p.Photosensors {
		m.Photosensors = append(m.Photosensors, model.Photosensor{
			Name: ps.Name, Position: ps.Position.point(), Direction: ps.Direction.vector(),
		})
	}
	for _, vs := range p.Views {
		up := Vec3{0, 0, 1}
		if vs.Up != nil {
			up = *vs.Up
		}
		m.Views = append(m.Views, model.View{
			Name:       vs.Name,
			Type:       model.ViewType(vs.Type),
			Point:      vs.Point.point(),
			Direction:  vs.Direction.vector(),
			Up:         up.vector(),
			Horizontal: vs.Horizontal,
			Vertical:   vs.Vertical,
		})
	}
	for _, ws := range p.Workplanes {
		var polys []*geometry.Polygon
		for i, verts := range ws.Polygons {
			poly, err := geometry.NewPolygon(loop(verts))
			if err != nil {
				return nil, fmt.Errorf("%w: workplane %q polygon %d: %v", sim.ErrImport, ws.Name, i, err)
			}
			polys = append(polys, poly)
		}
		wp, err := geometry.NewWorkplane(ws.Name, ws.MaxArea, polys...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", sim.ErrImport, err)
		}
		m.Workplanes = append(m.Workplanes, wp)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (p *Project) buildLocation(loc *location.Location) error {
	ls := p.Location
	loc.SetLatitude(ls.Latitude)
	loc.SetLongitude(ls.Longitude)
	loc.SetTimeZone(ls.TimeZone)
	loc.SetElevation(ls.Elevation)
	if ls.Albedo != nil {
		loc.SetAlbedo(*ls.Albedo)
	}
	if ls.City != "" {
		loc.SetCity(ls.City)
	}
	if ls.Country != "" {
		loc.SetCountry(ls.Country)
	}
	for _, w := range p.Weather {
		if err := loc.AddHourlyData(location.HourlyData{
			Month:             w.Month,
			Day:               w.Day,
			Hour:              w.Hour,
			DirectNormal:      w.DirectNormal,
			DiffuseHorizontal: w.DiffuseHorizontal,
			GlobalHorizontal:  w.GlobalHorizontal,
			DryBulb:           w.DryBulb,
		}); err != nil {
			return err
		}
	}
	return loc.Validate()
}

func buildObjects(scope string, specs []ObjectSpec) ([]geometry.Object, error) {
	objects := make([]geometry.Object, 0, len(specs))
	for _, obj := range specs {
		prim, err := buildPrimitive(obj)
		if err != nil {
			return nil, fmt.Errorf("%w: %s object %q: %v", sim.ErrImport, scope, obj.Name, err)
		}
		objects = append(objects, geometry.Object{Name: obj.Name, Material: obj.Material, Geometry: prim})
	}
	return objects, nil
}

func buildInstances(specs []InstanceSpec) []model.ComponentInstance {
	var out []model.ComponentInstance
	for _, is := range specs {
		scale := 1.0
		if is.Scale != nil {
			scale = *is.Scale
		}
		out = append(out, model.ComponentInstance{
			Definition:  is.Component,
			Scale:       scale,
			Rotation:    is.Rotation.vector(),
			Translation: is.Translation.vector(),
		})
	}
	return out
}

func loop(verts []Vec3) *geometry.Loop {
	pts := make([]geometry.Point3D, len(verts))
	for i, v := range verts {
		pts[i] = v.point()
	}
	return geometry.NewLoop(pts...)
}

func buildPrimitive(s ObjectSpec) (geometry.Primitive, error) {
	kind, ok := geometry.ParseKind(s.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown kind %q", s.Kind)
	}
	need := func(v *Vec3, field string) (Vec3, error) {
		if v == nil {
			return Vec3{}, fmt.Errorf("%s needs %q", kind, field)
		}
		return *v, nil
	}

	switch kind {
	case geometry.KindPoint:
		v, err := need(s.Position, "position")
		return v.point(), err
	case geometry.KindVector:
		v, err := need(s.Position, "position")
		return v.vector(), err
	case geometry.KindLoop:
		if len(s.Vertices) < 3 {
			return nil, fmt.Errorf("loop needs at least 3 vertices")
		}
		return loop(s.Vertices), nil
	case geometry.KindPolygon:
		return geometry.NewPolygon(loop(s.Vertices))
	case geometry.KindFace:
		holes := make([]*geometry.Loop, len(s.Holes))
		for i, h := range s.Holes {
			holes[i] = loop(h)
		}
		return geometry.NewFace(loop(s.Vertices), holes...)
	case geometry.KindRing:
		c, err := need(s.Center, "center")
		if err != nil {
			return nil, err
		}
		d, err := need(s.Direction, "direction")
		if err != nil {
			return nil, err
		}
		return geometry.NewRing(c.point(), d.vector(), s.R0, s.R1)
	case geometry.KindSphere:
		c, err := need(s.Center, "center")
		if err != nil {
			return nil, err
		}
		return geometry.NewSphere(c.point(), s.Radius)
	case geometry.KindCylinder:
		a, err := need(s.Start, "start")
		if err != nil {
			return nil, err
		}
		b, err := need(s.End, "end")
		if err != nil {
			return nil, err
		}
		return geometry.NewCylinder(a.point(), b.point(), s.Radius)
	default:
		return nil, fmt.Errorf("unsupported kind %s", kind)
	}
}

// RayOptions returns the project's ray-trace options layered over the
// defaults.
func (p *Project) RayOptions() radiance.Options {
	opts := radiance.DefaultOptions()
	for _, o := range p.Options {
		opts = opts.With(o.Name, o.Value)
	}
	return opts
}

// SensorPath resolves a check's sensor file against the project directory.
func (p *Project) SensorPath(c CheckSpec) string {
	if filepath.IsAbs(c.Sensors) {
		return c.Sensors
	}
	return filepath.Join(p.dir, c.Sensors)
}
