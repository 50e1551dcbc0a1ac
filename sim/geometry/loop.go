package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Loop is an ordered, implicitly closed ring of vertices.
type Loop struct {
	vertices []Point3D
}

// NewLoop copies pts into a new loop.
func NewLoop(pts ...Point3D) *Loop {
	return &Loop{vertices: append([]Point3D(nil), pts...)}
}

func (*Loop) Kind() Kind { return KindLoop }
func (*Loop) primitive() {}

// Len returns the vertex count.
func (l *Loop) Len() int { return len(l.vertices) }

// Vertex returns the i-th vertex.
func (l *Loop) Vertex(i int) Point3D { return l.vertices[i] }

// Vertices returns a copy of the vertices.
func (l *Loop) Vertices() []Point3D { return append([]Point3D(nil), l.vertices...) }

// newell returns the Newell normal, whose length is twice the loop's area.
func (l *Loop) newell() Vector3D {
	var n r3.Vec
	for i, p := range l.vertices {
		q := l.vertices[(i+1)%len(l.vertices)]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
	}
	return Vector3D(n)
}

// Normal returns the unit normal following the right-hand rule.
func (l *Loop) Normal() Vector3D { return l.newell().Unit() }

// Area returns the area enclosed by a planar loop.
func (l *Loop) Area() float64 { return l.newell().Length() / 2 }

// Centroid returns the vertex average.
func (l *Loop) Centroid() Point3D {
	var c r3.Vec
	if len(l.vertices) == 0 {
		return Point3D(c)
	}
	for _, p := range l.vertices {
		c = r3.Add(c, r3.Vec(p))
	}
	return Point3D(r3.Scale(1/float64(len(l.vertices)), c))
}

// IsFinite reports whether every coordinate is a finite number.
func (l *Loop) IsFinite() bool {
	for _, p := range l.vertices {
		if !finite(p.X, p.Y, p.Z) {
			return false
		}
	}
	return true
}

func reverse(pts []Point3D) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
