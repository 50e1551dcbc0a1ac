package geometry

import (
	"fmt"
	"sync"
)

// Ray is a sensor: a position and the direction it faces.
type Ray struct {
	Origin    Point3D
	Direction Vector3D
}

// RaySet is an immutable list of sensor rays, shared by reference between
// every calculation that targets the same sensors.
type RaySet struct {
	rays []Ray
}

// NewRaySet copies rays into a new set.
func NewRaySet(rays []Ray) *RaySet {
	return &RaySet{rays: append([]Ray(nil), rays...)}
}

// Len returns the number of rays.
func (s *RaySet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.rays)
}

// At returns the i-th ray.
func (s *RaySet) At(i int) Ray { return s.rays[i] }

// Rays returns a copy of the rays.
func (s *RaySet) Rays() []Ray { return append([]Ray(nil), s.rays...) }

// Workplane is a named sensor surface. Its polygons are tessellated into
// cells no larger than MaxArea, with one sensor per cell.
type Workplane struct {
	name     string
	maxArea  float64
	polygons []*Polygon

	once    sync.Once
	sensors *RaySet
	pixels  []Pixel
}

// Pixel is the triangular cell a workplane sensor stands for.
type Pixel [3]Point3D

// NewWorkplane creates a workplane. maxArea <= 0 disables subdivision.
func NewWorkplane(name string, maxArea float64, polygons ...*Polygon) (*Workplane, error) {
	if name == "" {
		return nil, fmt.Errorf("workplane needs a name")
	}
	if len(polygons) == 0 {
		return nil, fmt.Errorf("workplane %q has no polygons", name)
	}
	for i, p := range polygons {
		if p == nil {
			return nil, fmt.Errorf("workplane %q polygon %d is nil", name, i)
		}
		if p.Boundary().Area() < Tolerance {
			return nil, fmt.Errorf("workplane %q polygon %d has zero area", name, i)
		}
		if _, ok := triangulate(p.Boundary()); !ok {
			return nil, fmt.Errorf("workplane %q polygon %d is self-intersecting", name, i)
		}
	}
	return &Workplane{name: name, maxArea: maxArea, polygons: append([]*Polygon(nil), polygons...)}, nil
}

// Name returns the workplane's name.
func (w *Workplane) Name() string { return w.name }

// MaxArea returns the largest allowed cell area.
func (w *Workplane) MaxArea() float64 { return w.maxArea }

// Polygons returns the workplane's polygons.
func (w *Workplane) Polygons() []*Polygon { return append([]*Polygon(nil), w.polygons...) }

// Sensors returns the tessellated sensor rays. The set is computed once and
// the same instance is returned on every call.
func (w *Workplane) Sensors() *RaySet {
	w.tessellate()
	return w.sensors
}

// Pixels returns the tessellation cells, aligned index for index with
// Sensors.
func (w *Workplane) Pixels() []Pixel {
	w.tessellate()
	return append([]Pixel(nil), w.pixels...)
}

func (w *Workplane) tessellate() {
	w.once.Do(func() {
		var rays []Ray
		for _, p := range w.polygons {
			normal := p.Boundary().Normal()
			for _, c := range cells(p, w.maxArea) {
				rays = append(rays, Ray{Origin: c.centroid(), Direction: normal})
				w.pixels = append(w.pixels, Pixel(c))
			}
		}
		w.sensors = NewRaySet(rays)
	})
}

type triangle [3]Point3D

func (t triangle) area() float64 {
	return t[1].Sub(t[0]).Cross(t[2].Sub(t[0])).Length() / 2
}

func (t triangle) centroid() Point3D {
	return NewLoop(t[0], t[1], t[2]).Centroid()
}

// split halves the triangle across the midpoint of its longest edge.
func (t triangle) split() (triangle, triangle) {
	longest, best := 0, -1.0
	for i := 0; i < 3; i++ {
		if d := t[i].DistanceTo(t[(i+1)%3]); d > best {
			longest, best = i, d
		}
	}
	a, b, c := t[longest], t[(longest+1)%3], t[(longest+2)%3]
	mid := a.Add(b.Sub(a).Scale(0.5))
	return triangle{a, mid, c}, triangle{mid, b, c}
}

// triangulate ear-clips a simple planar loop, convex or not. It reports false
// when no ear can be found, which happens for self-intersecting loops.
func triangulate(l *Loop) ([]triangle, bool) {
	v := l.Vertices()
	n := l.newell()
	idx := make([]int, len(v))
	for i := range idx {
		idx[i] = i
	}

	var out []triangle
	for len(idx) > 3 {
		clipped := false
		for i := range idx {
			prev, next := idx[(i+len(idx)-1)%len(idx)], idx[(i+1)%len(idx)]
			a, b, c := v[prev], v[idx[i]], v[next]
			turn := b.Sub(a).Cross(c.Sub(b))
			if turn.Length() < Tolerance {
				// Collinear or repeated vertex: drop it without emitting a cell.
				idx = append(idx[:i], idx[i+1:]...)
				clipped = true
				break
			}
			if turn.Dot(n) < 0 {
				continue // reflex
			}
			if containsAny(a, b, c, n, v, idx, prev, idx[i], next) {
				continue
			}
			out = append(out, triangle{a, b, c})
			idx = append(idx[:i], idx[i+1:]...)
			clipped = true
			break
		}
		if !clipped {
			return nil, false
		}
	}
	if t := (triangle{v[idx[0]], v[idx[1]], v[idx[2]]}); t.area() >= Tolerance {
		out = append(out, t)
	}
	return out, true
}

// containsAny reports whether a remaining vertex other than the ear's own
// lies inside or on triangle abc.
func containsAny(a, b, c Point3D, n Vector3D, v []Point3D, idx []int, skip ...int) bool {
	for _, j := range idx {
		if j == skip[0] || j == skip[1] || j == skip[2] {
			continue
		}
		p := v[j]
		if p.IsEqual(a) || p.IsEqual(b) || p.IsEqual(c) {
			continue
		}
		if b.Sub(a).Cross(p.Sub(a)).Dot(n) >= -Tolerance &&
			c.Sub(b).Cross(p.Sub(b)).Dot(n) >= -Tolerance &&
			a.Sub(c).Cross(p.Sub(c)).Dot(n) >= -Tolerance {
			return true
		}
	}
	return false
}

// cells ear-clips a polygon into triangles and splits each one until no
// cell exceeds maxArea. A polygon that cannot be triangulated yields none.
func cells(p *Polygon, maxArea float64) []triangle {
	var out []triangle
	var walk func(t triangle)
	walk = func(t triangle) {
		if maxArea > 0 && t.area() > maxArea {
			a, b := t.split()
			walk(a)
			walk(b)
			return
		}
		out = append(out, t)
	}

	tris, _ := triangulate(p.Boundary())
	for _, t := range tris {
		walk(t)
	}
	return out
}

// Tessellate returns one ray per cell of p, at the cell centroid facing the
// polygon normal.
func Tessellate(p *Polygon, maxArea float64) []Ray {
	normal := p.Boundary().Normal()
	var rays []Ray
	for _, c := range cells(p, maxArea) {
		rays = append(rays, Ray{Origin: c.centroid(), Direction: normal})
	}
	return rays
}
