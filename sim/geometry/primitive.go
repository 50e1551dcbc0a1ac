package geometry

import "fmt"

// Kind tags each geometric primitive. The set is closed: exporters and
// utilities switch over it exhaustively.
type Kind int

const (
	KindPoint Kind = iota
	KindVector
	KindLoop
	KindPolygon
	KindFace
	KindRing
	KindSphere
	KindCylinder
)

var kindNames = map[Kind]string{
	KindPoint:    "point",
	KindVector:   "vector",
	KindLoop:     "loop",
	KindPolygon:  "polygon",
	KindFace:     "face",
	KindRing:     "ring",
	KindSphere:   "sphere",
	KindCylinder: "cylinder",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseKind returns the Kind named s.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return 0, false
}

// Primitive is implemented only by the types in this package.
type Primitive interface {
	Kind() Kind
	primitive() // marker method restricting implementations to this package
}

func (Point3D) Kind() Kind  { return KindPoint }
func (Point3D) primitive()  {}
func (Vector3D) Kind() Kind { return KindVector }
func (Vector3D) primitive() {}

// Polygon is a planar surface bounded by a single loop.
type Polygon struct {
	loop *Loop
}

// NewPolygon creates a polygon from its boundary.
func NewPolygon(boundary *Loop) (*Polygon, error) {
	if boundary == nil || boundary.Len() < 3 {
		return nil, fmt.Errorf("polygon needs at least 3 vertices")
	}
	return &Polygon{loop: boundary}, nil
}

func (*Polygon) Kind() Kind { return KindPolygon }
func (*Polygon) primitive() {}

// Boundary returns the polygon's loop.
func (p *Polygon) Boundary() *Loop { return p.loop }

// Face is a planar surface with an outer loop and zero or more holes.
type Face struct {
	outer *Loop
	holes []*Loop
}

// NewFace creates a face. Holes must lie inside outer.
func NewFace(outer *Loop, holes ...*Loop) (*Face, error) {
	if outer == nil || outer.Len() < 3 {
		return nil, fmt.Errorf("face outer loop needs at least 3 vertices")
	}
	for i, h := range holes {
		if h == nil || h.Len() < 3 {
			return nil, fmt.Errorf("face hole %d needs at least 3 vertices", i)
		}
	}
	return &Face{outer: outer, holes: append([]*Loop(nil), holes...)}, nil
}

func (*Face) Kind() Kind { return KindFace }
func (*Face) primitive() {}

// Outer returns the outer boundary.
func (f *Face) Outer() *Loop { return f.outer }

// Holes returns the inner loops.
func (f *Face) Holes() []*Loop { return append([]*Loop(nil), f.holes...) }

// HasHoles reports whether the face has inner loops.
func (f *Face) HasHoles() bool { return len(f.holes) > 0 }

// Area returns the outer area minus the holes.
func (f *Face) Area() float64 {
	a := f.outer.Area()
	for _, h := range f.holes {
		a -= h.Area()
	}
	return a
}

// Keyhole returns a single loop that traces the outer boundary and each hole
// joined by zero-width bridges from the outer loop's first vertex. Holes are
// walked opposite to the outer loop's orientation.
func (f *Face) Keyhole() *Loop {
	outer := f.outer.Vertices()
	if len(f.holes) == 0 {
		return NewLoop(outer...)
	}
	n := f.outer.Normal()
	start := outer[0]
	pts := append([]Point3D(nil), outer...)
	pts = append(pts, start)
	for _, h := range f.holes {
		hv := h.Vertices()
		if h.Normal().Dot(n) > 0 {
			reverse(hv)
		}
		pts = append(pts, hv...)
		pts = append(pts, hv[0], start)
	}
	// The polygon closes itself; drop the final return to start.
	return NewLoop(pts[:len(pts)-1]...)
}

// Ring is a flat annulus (a disk when R0 is 0).
type Ring struct {
	Center    Point3D
	Direction Vector3D
	R0, R1    float64 // inner and outer radius
}

// NewRing validates and creates a ring.
func NewRing(center Point3D, direction Vector3D, r0, r1 float64) (*Ring, error) {
	if direction.IsZero() {
		return nil, fmt.Errorf("ring direction must be non-zero")
	}
	if r0 < 0 || r1 <= r0 {
		return nil, fmt.Errorf("ring radii must satisfy 0 <= r0 < r1, got %g, %g", r0, r1)
	}
	return &Ring{Center: center, Direction: direction.Unit(), R0: r0, R1: r1}, nil
}

func (*Ring) Kind() Kind { return KindRing }
func (*Ring) primitive() {}

// Sphere is a sphere of Radius around Center.
type Sphere struct {
	Center Point3D
	Radius float64
}

// NewSphere validates and creates a sphere.
func NewSphere(center Point3D, radius float64) (*Sphere, error) {
	if radius <= 0 {
		return nil, fmt.Errorf("sphere radius must be positive, got %g", radius)
	}
	return &Sphere{Center: center, Radius: radius}, nil
}

func (*Sphere) Kind() Kind { return KindSphere }
func (*Sphere) primitive() {}

// Cylinder is a right circular cylinder between Start and End.
type Cylinder struct {
	Start, End Point3D
	Radius     float64
}

// NewCylinder validates and creates a cylinder.
func NewCylinder(start, end Point3D, radius float64) (*Cylinder, error) {
	if start.IsEqual(end) {
		return nil, fmt.Errorf("cylinder axis has zero length")
	}
	if radius <= 0 {
		return nil, fmt.Errorf("cylinder radius must be positive, got %g", radius)
	}
	return &Cylinder{Start: start, End: end, Radius: radius}, nil
}

func (*Cylinder) Kind() Kind { return KindCylinder }
func (*Cylinder) primitive() {}

// Object is a named, material-bound primitive placed in a model layer.
type Object struct {
	Name     string
	Material string
	Geometry Primitive
}

// Kind returns the kind of the object's geometry.
func (o Object) Kind() Kind { return o.Geometry.Kind() }

// IsSurface reports whether k bounds space and can block light.
func IsSurface(k Kind) bool {
	switch k {
	case KindLoop, KindPolygon, KindFace, KindRing, KindSphere, KindCylinder:
		return true
	case KindPoint, KindVector:
		return false
	}
	return false
}
