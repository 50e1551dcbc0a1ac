package radiance

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/daylight-sim/daylight-sim/sim"
	"github.com/daylight-sim/daylight-sim/sim/geometry"
	"github.com/daylight-sim/daylight-sim/sim/model"
)

// Exporter writes a model in Radiance scene format. Numbers are written at
// full precision so geometry survives a round trip.
type Exporter struct {
	model *model.Model
}

// NewExporter creates an exporter for m.
func NewExporter(m *model.Model) *Exporter {
	return &Exporter{model: m}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func checkIdentifier(kind, name string) error {
	if name == "" || strings.ContainsAny(name, " \t\r\n") {
		return fmt.Errorf("%w: %s name %q is not a valid Radiance identifier", sim.ErrImport, kind, name)
	}
	return nil
}

// checkFileName also rejects names that would escape their directory.
func checkFileName(kind, name string) error {
	if err := checkIdentifier(kind, name); err != nil {
		return err
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %s name %q cannot be used as a file name", sim.ErrImport, kind, name)
	}
	return nil
}

// writeObject writes one Radiance object: modifier, type, identifier, and
// the three argument lists (strings and integers empty).
func writeObject(w *bufio.Writer, modifier, typ, name string, reals ...float64) {
	fmt.Fprintf(w, "%s %s %s\n0\n0\n%d", modifier, typ, name, len(reals))
	for _, r := range reals {
		w.WriteByte(' ')
		w.WriteString(formatFloat(r))
	}
	w.WriteString("\n\n")
}

func loopReals(l *geometry.Loop) []float64 {
	reals := make([]float64, 0, 3*l.Len())
	for _, p := range l.Vertices() {
		reals = append(reals, p.X, p.Y, p.Z)
	}
	return reals
}

// Transmissivity converts a normal-incidence transmittance into the
// transmissivity Radiance's glass type expects.
func Transmissivity(transmittance float64) float64 {
	if transmittance <= 0 {
		return 0
	}
	t2 := transmittance * transmittance
	return (math.Sqrt(0.8402528435+0.0072522239*t2) - 0.9166530661) / 0.0036261119 / transmittance
}

// WriteMaterial writes a single material definition. Glass colors are
// transmittances and are converted on the way out.
func WriteMaterial(out io.Writer, m model.Material) error {
	if err := checkIdentifier("material", m.Name); err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	c := m.Color
	switch m.Type {
	case model.MaterialPlastic, model.MaterialMetal:
		writeObject(w, "void", string(m.Type), m.Name, c[0], c[1], c[2], m.Specularity, m.Roughness)
	case model.MaterialGlass:
		writeObject(w, "void", string(m.Type), m.Name,
			Transmissivity(c[0]), Transmissivity(c[1]), Transmissivity(c[2]))
	case model.MaterialLight:
		writeObject(w, "void", string(m.Type), m.Name, c[0], c[1], c[2])
	default:
		return fmt.Errorf("%w: material %q has unknown type %q", sim.ErrImport, m.Name, m.Type)
	}
	return w.Flush()
}

// WritePrimitive writes one named primitive bound to material. Points and
// vectors bound nothing; they are kept as comments so names survive.
func WritePrimitive(out io.Writer, material, name string, p geometry.Primitive) error {
	if err := checkIdentifier("object", name); err != nil {
		return err
	}
	w := bufio.NewWriter(out)
	switch p.Kind() {
	case geometry.KindPoint:
		v := p.(geometry.Point3D)
		fmt.Fprintf(w, "# point %s %s %s %s\n\n", name, formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	case geometry.KindVector:
		v := p.(geometry.Vector3D)
		fmt.Fprintf(w, "# vector %s %s %s %s\n\n", name, formatFloat(v.X), formatFloat(v.Y), formatFloat(v.Z))
	case geometry.KindLoop:
		writeObject(w, material, "polygon", name, loopReals(p.(*geometry.Loop))...)
	case geometry.KindPolygon:
		writeObject(w, material, "polygon", name, loopReals(p.(*geometry.Polygon).Boundary())...)
	case geometry.KindFace:
		writeObject(w, material, "polygon", name, loopReals(p.(*geometry.Face).Keyhole())...)
	case geometry.KindRing:
		r := p.(*geometry.Ring)
		writeObject(w, material, "ring", name,
			r.Center.X, r.Center.Y, r.Center.Z, r.Direction.X, r.Direction.Y, r.Direction.Z, r.R0, r.R1)
	case geometry.KindSphere:
		s := p.(*geometry.Sphere)
		writeObject(w, material, "sphere", name, s.Center.X, s.Center.Y, s.Center.Z, s.Radius)
	case geometry.KindCylinder:
		c := p.(*geometry.Cylinder)
		writeObject(w, material, "cylinder", name,
			c.Start.X, c.Start.Y, c.Start.Z, c.End.X, c.End.Y, c.End.Z, c.Radius)
	default:
		return fmt.Errorf("%w: object %q has unsupported kind %s", sim.ErrImport, name, p.Kind())
	}
	return w.Flush()
}

// WriteMaterials writes every material of the model.
func (e *Exporter) WriteMaterials(w io.Writer) error {
	for _, m := range e.model.Materials {
		if err := WriteMaterial(w, m); err != nil {
			return err
		}
	}
	return nil
}

// WriteGeometry writes every layer's objects and component placements, each
// layer under a comment, followed by one include per window group. Includes
// name files relative to the directory oconv runs in (see WriteIncludes).
func (e *Exporter) WriteGeometry(w io.Writer) error {
	for _, l := range e.model.Layers {
		if _, err := fmt.Fprintf(w, "## layer %s\n\n", l.Name); err != nil {
			return err
		}
		for _, o := range l.Objects {
			if err := WritePrimitive(w, o.Material, o.Name, o.Geometry); err != nil {
				return fmt.Errorf("layer %q: %w", l.Name, err)
			}
		}
		for _, inst := range l.Instances {
			if err := WriteInstance(w, inst); err != nil {
				return fmt.Errorf("layer %q: %w", l.Name, err)
			}
		}
	}
	for _, g := range e.model.WindowGroups {
		if err := checkFileName("window group", g.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "## window group %s\n!xform %s\n\n", g.Name, windowPath(g.Name)); err != nil {
			return err
		}
	}
	return nil
}

// WriteScene writes materials followed by geometry. Window groups and
// components are included from the files WriteIncludes produces.
func (e *Exporter) WriteScene(w io.Writer) error {
	if err := e.WriteMaterials(w); err != nil {
		return err
	}
	return e.WriteGeometry(w)
}

func windowPath(group string) string { return "windows/" + group + ".rad" }

func componentPath(def string) string { return "components/" + def + ".rad" }

// WriteInstance writes a component placement as an xform include.
func WriteInstance(w io.Writer, inst model.ComponentInstance) error {
	if err := checkFileName("component", inst.Definition); err != nil {
		return err
	}
	r, t := inst.Rotation, inst.Translation
	_, err := fmt.Fprintf(w, "!xform -s %s -rx %s -ry %s -rz %s -t %s %s %s %s\n\n",
		formatFloat(inst.Scale),
		formatFloat(r.X), formatFloat(r.Y), formatFloat(r.Z),
		formatFloat(t.X), formatFloat(t.Y), formatFloat(t.Z),
		componentPath(inst.Definition))
	return err
}

// WriteWindowGroup writes the glazing of one window group.
func (e *Exporter) WriteWindowGroup(w io.Writer, g model.WindowGroup) error {
	for _, o := range g.Windows {
		if err := WritePrimitive(w, o.Material, o.Name, o.Geometry); err != nil {
			return fmt.Errorf("window group %q: %w", g.Name, err)
		}
	}
	return nil
}

// WriteComponent writes a definition as a self-contained file: the
// materials its own objects use, the objects, and nested placements.
func (e *Exporter) WriteComponent(w io.Writer, def *model.ComponentDefinition) error {
	used := make(map[string]bool)
	for _, o := range def.Objects {
		used[o.Material] = true
	}
	for _, m := range e.model.Materials {
		if !used[m.Name] {
			continue
		}
		if err := WriteMaterial(w, m); err != nil {
			return err
		}
	}
	for _, o := range def.Objects {
		if err := WritePrimitive(w, o.Material, o.Name, o.Geometry); err != nil {
			return fmt.Errorf("component %q: %w", def.Name, err)
		}
	}
	for _, inst := range def.Instances {
		if err := WriteInstance(w, inst); err != nil {
			return fmt.Errorf("component %q: %w", def.Name, err)
		}
	}
	return nil
}

// WriteIncludes writes the files the scene includes into dir:
// windows/<group>.rad and components/<definition>.rad.
func (e *Exporter) WriteIncludes(dir string) error {
	if len(e.model.WindowGroups) > 0 {
		if err := os.MkdirAll(filepath.Join(dir, "windows"), 0o750); err != nil {
			return fmt.Errorf("create windows dir: %w", err)
		}
	}
	for _, g := range e.model.WindowGroups {
		if err := checkFileName("window group", g.Name); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(windowPath(g.Name))), func(w io.Writer) error {
			return e.WriteWindowGroup(w, g)
		}); err != nil {
			return err
		}
	}
	if len(e.model.Components) > 0 {
		if err := os.MkdirAll(filepath.Join(dir, "components"), 0o750); err != nil {
			return fmt.Errorf("create components dir: %w", err)
		}
	}
	for _, def := range e.model.Components {
		if err := checkFileName("component", def.Name); err != nil {
			return err
		}
		if err := writeFile(filepath.Join(dir, filepath.FromSlash(componentPath(def.Name))), func(w io.Writer) error {
			return e.WriteComponent(w, def)
		}); err != nil {
			return err
		}
	}
	return nil
}

// WritePhotosensors writes one "name x y z dx dy dz" line per photosensor.
func (e *Exporter) WritePhotosensors(w io.Writer) error {
	for _, p := range e.model.Photosensors {
		if err := checkIdentifier("photosensor", p.Name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s %s %s %s %s %s %s\n", p.Name,
			formatFloat(p.Position.X), formatFloat(p.Position.Y), formatFloat(p.Position.Z),
			formatFloat(p.Direction.X), formatFloat(p.Direction.Y), formatFloat(p.Direction.Z)); err != nil {
			return err
		}
	}
	return nil
}

// WriteView writes a view as an rvu command line.
func WriteView(w io.Writer, v model.View) error {
	_, err := fmt.Fprintf(w, "rvu -vt%s -vp %s %s %s -vd %s %s %s -vu %s %s %s -vh %s -vv %s\n",
		v.Type,
		formatFloat(v.Point.X), formatFloat(v.Point.Y), formatFloat(v.Point.Z),
		formatFloat(v.Direction.X), formatFloat(v.Direction.Y), formatFloat(v.Direction.Z),
		formatFloat(v.Up.X), formatFloat(v.Up.Y), formatFloat(v.Up.Z),
		formatFloat(v.Horizontal), formatFloat(v.Vertical))
	return err
}

// WritePixels writes one line of nine coordinates per workplane cell, in
// the same order as the workplane's sensors.
func WritePixels(out io.Writer, wp *geometry.Workplane) error {
	w := bufio.NewWriter(out)
	for _, px := range wp.Pixels() {
		for i, p := range px {
			if i > 0 {
				w.WriteByte(' ')
			}
			fmt.Fprintf(w, "%s %s %s", formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
		}
		w.WriteByte('\n')
	}
	return w.Flush()
}

// WriteModelInfo writes the north correction and site as key/value lines.
func (e *Exporter) WriteModelInfo(w io.Writer) error {
	loc := e.model.Location
	_, err := fmt.Fprintf(w, "north_correction %s\nlatitude %s\nlongitude %s\ntime_zone %s\nelevation %s\nalbedo %s\ncity %s\ncountry %s\n",
		formatFloat(e.model.NorthCorrection),
		formatFloat(loc.Latitude()), formatFloat(loc.Longitude()), formatFloat(loc.TimeZone()),
		formatFloat(loc.Elevation()), formatFloat(loc.Albedo()),
		loc.City(), loc.Country())
	return err
}

// ExportDir writes the model as a directory of Radiance files:
//
//	materials.mat          material definitions
//	scene.rad              opaque geometry, placements and window includes
//	windows/*.rad          one file per window group
//	components/*.rad       one self-contained file per component definition
//	sky.rad                the given sky
//	model_info.txt         north correction and site
//	photosensors.txt       photosensors, when the model has any
//	views/*.vf             one rvu view file per view
//	workplanes/*.pts       sensors per workplane
//	workplanes/*.pxl       the cell triangles behind each sensor
//
// oconv must run from dir for the includes to resolve.
func (e *Exporter) ExportDir(dir string, sky Sky) error {
	if err := os.MkdirAll(filepath.Join(dir, "workplanes"), 0o750); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := e.WriteIncludes(dir); err != nil {
		return err
	}
	type file struct {
		name  string
		write func(io.Writer) error
	}
	files := []file{
		{"materials.mat", e.WriteMaterials},
		{"scene.rad", e.WriteGeometry},
		{"sky.rad", func(w io.Writer) error { return sky.Write(w, e.model.Location) }},
		{"model_info.txt", e.WriteModelInfo},
	}
	if len(e.model.Photosensors) > 0 {
		files = append(files, file{"photosensors.txt", e.WritePhotosensors})
	}
	if len(e.model.Views) > 0 {
		if err := os.MkdirAll(filepath.Join(dir, "views"), 0o750); err != nil {
			return fmt.Errorf("create views dir: %w", err)
		}
	}
	for _, v := range e.model.Views {
		if err := checkFileName("view", v.Name); err != nil {
			return err
		}
		files = append(files, file{filepath.Join("views", v.Name+".vf"), func(w io.Writer) error {
			return WriteView(w, v)
		}})
	}
	for _, wp := range e.model.Workplanes {
		if err := checkFileName("workplane", wp.Name()); err != nil {
			return err
		}
		files = append(files,
			file{filepath.Join("workplanes", wp.Name()+".pts"), func(w io.Writer) error {
				return WriteRays(w, wp.Sensors())
			}},
			file{filepath.Join("workplanes", wp.Name()+".pxl"), func(w io.Writer) error {
				return WritePixels(w, wp)
			}},
		)
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) (retErr error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if err := write(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
