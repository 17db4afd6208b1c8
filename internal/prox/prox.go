// Package prox implements the proximal operators used by the primal-dual
// restoration solver: projections onto balls and intervals, the closed-form
// L2 fidelity step, the exact-fidelity inpainting step, and the soft/hard
// shrinkage operators (the proximal map of the l1 norm and its hard variant).
//
// Every operator works in place on caller-owned grids and returns an error
// instead of silently skipping invalid input.
package prox

import (
	"fmt"
	"math"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// Interval clamps every sample of x to [lo, hi]. It is idempotent. NaN
// bounds are rejected.
func Interval(x *grid.Grid, lo, hi float32) error {
	if err := grid.CheckNonEmpty("x", x); err != nil {
		return fmt.Errorf("prox interval: %w", err)
	}
	if !(lo <= hi) {
		return fmt.Errorf("prox interval: [%v, %v]: %w", lo, hi, grid.ErrInvalidParameter)
	}
	for r := 0; r < x.Rows(); r++ {
		row := x.Row(r)
		for c, v := range row {
			row[c] = min(max(lo, v), hi)
		}
	}
	return nil
}

// Ball projects every sample of x onto the scalar ball of the given radius
// around center, i.e. the interval [center-radius, center+radius] per cell.
// A nil center means the origin.
func Ball(x, center *grid.Grid, radius float32) error {
	if err := checkOperands(x, center, nil); err != nil {
		return fmt.Errorf("prox ball: %w", err)
	}
	if !(radius > 0) {
		return fmt.Errorf("prox ball: radius %v: %w", radius, grid.ErrInvalidParameter)
	}
	for r := 0; r < x.Rows(); r++ {
		row := x.Row(r)
		var cr []float32
		if center != nil {
			cr = center.Row(r)
		}
		for c := range row {
			var off float32
			if cr != nil {
				off = cr[c]
			}
			v := (row[c] - off) / radius
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			row[c] = v*radius + off
		}
	}
	return nil
}

// JointBall projects every per-cell vector (x1, x2) of v onto the Euclidean
// ball of the given radius around (c1, c2). Vectors already inside the ball
// are left unchanged; the others are rescaled onto its boundary. Nil centers
// mean the origin.
//
// This is the dual projection of isotropic total variation.
func JointBall(v grid.VectorField, c1, c2 *grid.Grid, radius float32) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("prox joint ball: %w", err)
	}
	if err := checkOperands(v.X1, c1, c2); err != nil {
		return fmt.Errorf("prox joint ball: %w", err)
	}
	if !(radius > 0) {
		return fmt.Errorf("prox joint ball: radius %v: %w", radius, grid.ErrInvalidParameter)
	}
	for r := 0; r < v.X1.Rows(); r++ {
		r1, r2 := v.X1.Row(r), v.X2.Row(r)
		var o1, o2 []float32
		if c1 != nil {
			o1 = c1.Row(r)
		}
		if c2 != nil {
			o2 = c2.Row(r)
		}
		for c := range r1 {
			var s1, s2 float32
			if o1 != nil {
				s1 = o1[c]
			}
			if o2 != nil {
				s2 = o2[c]
			}
			a := (r1[c] - s1) / radius
			b := (r2[c] - s2) / radius
			n := float32(math.Sqrt(float64(a*a + b*b)))
			if n > 1 {
				a /= n
				b /= n
			}
			r1[c] = a*radius + s1
			r2[c] = b*radius + s2
		}
	}
	return nil
}

// L2 applies the proximal map of the quadratic data term, the minimizer of
//
//	|y-x|^2/(2*tau) + lambda*|y-data|^2
//
// which is x = (x + lambda*tau*data) / (1 + lambda*tau).
func L2(x, data *grid.Grid, lambda, tau float32) error {
	if err := grid.CheckSameShape([]string{"x", "data"}, x, data); err != nil {
		return fmt.Errorf("prox L2: %w", err)
	}
	if !(lambda >= 0) || !(tau > 0) {
		return fmt.Errorf("prox L2: lambda %v, tau %v: %w", lambda, tau, grid.ErrInvalidParameter)
	}
	lt := lambda * tau
	inv := 1 / (1 + lt)
	for r := 0; r < x.Rows(); r++ {
		row, d := x.Row(r), data.Row(r)
		for c := range row {
			row[c] = (row[c] + lt*d[c]) * inv
		}
	}
	return nil
}

// L2Inpainting copies data into x wherever mask is nonzero and leaves the
// other cells untouched: the exact-fidelity limit of L2 on the observed set.
func L2Inpainting(x, data, mask *grid.Grid) error {
	if err := grid.CheckSameShape([]string{"x", "data", "mask"}, x, data, mask); err != nil {
		return fmt.Errorf("prox L2 inpainting: %w", err)
	}
	for r := 0; r < x.Rows(); r++ {
		row, d, m := x.Row(r), data.Row(r), mask.Row(r)
		for c := range row {
			if m[c] != 0 {
				row[c] = d[c]
			}
		}
	}
	return nil
}

// checkOperands validates x and any non-nil centers against it.
func checkOperands(x, c1, c2 *grid.Grid) error {
	if err := grid.CheckNonEmpty("x", x); err != nil {
		return err
	}
	if c1 != nil {
		if err := grid.CheckSameShape([]string{"x", "center"}, x, c1); err != nil {
			return err
		}
	}
	if c2 != nil {
		if err := grid.CheckSameShape([]string{"x", "center2"}, x, c2); err != nil {
			return err
		}
	}
	return nil
}
