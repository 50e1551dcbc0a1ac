// Package geometry holds the passive scene types of a building model: points,
// vectors, loops, and the closed set of surface primitives, plus the
// workplanes whose tessellation yields sensor rays.
package geometry

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Tolerance is the distance below which two points are considered equal.
const Tolerance = 1e-9

// Point3D is a position in model space.
type Point3D r3.Vec

// Vector3D is a direction or displacement in model space.
type Vector3D r3.Vec

// Pt is shorthand for Point3D{x, y, z}.
func Pt(x, y, z float64) Point3D { return Point3D{X: x, Y: y, Z: z} }

// Vec is shorthand for Vector3D{x, y, z}.
func Vec(x, y, z float64) Vector3D { return Vector3D{X: x, Y: y, Z: z} }

// Sub returns the displacement from q to p.
func (p Point3D) Sub(q Point3D) Vector3D { return Vector3D(r3.Sub(r3.Vec(p), r3.Vec(q))) }

// Add moves p by v.
func (p Point3D) Add(v Vector3D) Point3D { return Point3D(r3.Add(r3.Vec(p), r3.Vec(v))) }

// DistanceTo returns the Euclidean distance between p and q.
func (p Point3D) DistanceTo(q Point3D) float64 { return r3.Norm(r3.Sub(r3.Vec(p), r3.Vec(q))) }

// IsEqual reports whether p and q are within Tolerance.
func (p Point3D) IsEqual(q Point3D) bool { return p.DistanceTo(q) < Tolerance }

func (p Point3D) String() string { return fmt.Sprintf("(%g, %g, %g)", p.X, p.Y, p.Z) }

// Dot returns the dot product.
func (v Vector3D) Dot(w Vector3D) float64 { return r3.Dot(r3.Vec(v), r3.Vec(w)) }

// Cross returns the cross product.
func (v Vector3D) Cross(w Vector3D) Vector3D { return Vector3D(r3.Cross(r3.Vec(v), r3.Vec(w))) }

// Length returns the Euclidean norm.
func (v Vector3D) Length() float64 { return r3.Norm(r3.Vec(v)) }

// Scale multiplies v by f.
func (v Vector3D) Scale(f float64) Vector3D { return Vector3D(r3.Scale(f, r3.Vec(v))) }

// Unit returns v normalized. The zero vector is returned unchanged.
func (v Vector3D) Unit() Vector3D {
	if v.Length() < Tolerance {
		return v
	}
	return Vector3D(r3.Unit(r3.Vec(v)))
}

// IsZero reports whether v has no length.
func (v Vector3D) IsZero() bool { return v.Length() < Tolerance }

func (v Vector3D) String() string { return fmt.Sprintf("<%g, %g, %g>", v.X, v.Y, v.Z) }

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
