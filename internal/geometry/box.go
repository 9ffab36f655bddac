package geometry

import (
	"fmt"
	"math"
)

// Box describes the simulation cell: per-axis extents and periodicity.
// Inverse side lengths are precomputed once at construction so the folding
// hot paths avoid per-call division.
type Box struct {
	Min, Max Vec3

	PeriodicX, PeriodicY, PeriodicZ bool

	side    Vec3
	invSide Vec3
	center  Vec3
}

// NewBox builds a Box from extents and per-axis periodicity flags. Every
// periodic axis must have positive length.
func NewBox(min, max Vec3, periodicX, periodicY, periodicZ bool) (Box, error) {
	b := Box{
		Min:       min,
		Max:       max,
		PeriodicX: periodicX,
		PeriodicY: periodicY,
		PeriodicZ: periodicZ,
		side:      max.Sub(min),
		center:    min.Add(max).Scale(0.5),
	}

	check := func(periodic bool, side float64, axis string) error {
		if periodic && side <= 0 {
			return fmt.Errorf("box: periodic axis %s has non-positive length %g", axis, side)
		}
		return nil
	}
	if err := check(periodicX, b.side.X, "x"); err != nil {
		return Box{}, err
	}
	if err := check(periodicY, b.side.Y, "y"); err != nil {
		return Box{}, err
	}
	if err := check(periodicZ, b.side.Z, "z"); err != nil {
		return Box{}, err
	}

	if b.side.X > 0 {
		b.invSide.X = 1 / b.side.X
	}
	if b.side.Y > 0 {
		b.invSide.Y = 1 / b.side.Y
	}
	if b.side.Z > 0 {
		b.invSide.Z = 1 / b.side.Z
	}
	return b, nil
}

// Center returns the box center.
func (b Box) Center() Vec3 {
	return b.center
}

// Side returns the per-axis box lengths.
func (b Box) Side() Vec3 {
	return b.side
}

// Fold shifts p onto the primary (non-periodic) image of the box. Each
// periodic coordinate moves by a whole number of box lengths, chosen by
// round-to-nearest relative to the box center; non-periodic coordinates pass
// through unchanged. Folding an already-primary point is a no-op.
func (b Box) Fold(p Vec3) Vec3 {
	return b.imageNear(b.center, p)
}

// NearestImage returns the image of p closest to ref. The result is not
// required to lie inside the primary cell.
func (b Box) NearestImage(ref, p Vec3) Vec3 {
	return b.imageNear(ref, p)
}

// MinimumImage maps a displacement vector to its shortest periodic
// equivalent, as if measured from the origin. Used for segment line
// directions and other relative vectors.
func (b Box) MinimumImage(v Vec3) Vec3 {
	return b.imageNear(Vec3{}, v)
}

func (b Box) imageNear(ref, p Vec3) Vec3 {
	if b.PeriodicX {
		p.X -= math.Round((p.X-ref.X)*b.invSide.X) * b.side.X
	}
	if b.PeriodicY {
		p.Y -= math.Round((p.Y-ref.Y)*b.invSide.Y) * b.side.Y
	}
	if b.PeriodicZ {
		p.Z -= math.Round((p.Z-ref.Z)*b.invSide.Z) * b.side.Z
	}
	return p
}
