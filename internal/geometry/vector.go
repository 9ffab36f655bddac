// Package geometry provides the vector math and periodic-boundary folding
// used by the topology and replication layers.
//
// All operations are pure value math on 3-component vectors. Degenerate
// inputs (zero-length vectors) are tolerated silently: normalizing a zero
// vector returns it unchanged rather than dividing by zero, because screw
// segments legitimately produce near-zero cross products.
package geometry

import "math"

// Vec3 is a 3-component vector of simulation coordinates.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + w.
func (v Vec3) Add(w Vec3) Vec3 {
	return Vec3{v.X + w.X, v.Y + w.Y, v.Z + w.Z}
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v.X - w.X, v.Y - w.Y, v.Z - w.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Neg returns -v.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v.X, -v.Y, -v.Z}
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// Norm2 returns the squared magnitude of v.
func (v Vec3) Norm2() float64 {
	return v.Dot(v)
}

// Norm returns the magnitude of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Norm2())
}

// Normalized returns v rescaled to unit length. A vector with non-positive
// squared magnitude is returned unchanged; zero vectors are a valid input.
func (v Vec3) Normalized() Vec3 {
	n2 := v.Norm2()
	if n2 <= 0 {
		return v
	}
	return v.Scale(1 / math.Sqrt(n2))
}

// Cross returns the cross product a × b.
func Cross(a, b Vec3) Vec3 {
	return Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}
