// Package derivative implements the discrete gradient and divergence operators
// shared by the restoration solvers.
//
// The forward-difference gradient and the backward-difference divergence form
// an adjoint pair: for any field P and any grid X that vanishes on the border,
//
//	<Forward(X), P> = -<X, Divergence(P)>
//
// The primal-dual solver in package tv relies on this identity, so callers
// must pair Forward with Divergence and never mix schemes.
package derivative

import (
	"fmt"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// Scheme selects a finite-difference stencil.
type Scheme int

const (
	// Forward uses x[i+1]-x[i]; the last column/row is 0.
	Forward Scheme = iota
	// Backward uses x[i]-x[i-1]; the first column/row is 0.
	Backward
	// Centered uses 0.5*(x[i+1]-x[i-1]); both border columns/rows are 0.
	Centered
)

// String returns the scheme name used in tool arguments and logs.
func (s Scheme) String() string {
	switch s {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	case Centered:
		return "centered"
	default:
		return fmt.Sprintf("Scheme(%d)", int(s))
	}
}

// ParseScheme converts a scheme name back to a Scheme.
func ParseScheme(name string) (Scheme, error) {
	switch name {
	case "forward":
		return Forward, nil
	case "backward":
		return Backward, nil
	case "centered":
		return Centered, nil
	default:
		return 0, fmt.Errorf("unknown scheme %q: %w", name, grid.ErrInvalidParameter)
	}
}

// Horizontal differentiates x along its rows into dst, which must have the
// shape of x. Every cell of dst is written.
func Horizontal(dst, x *grid.Grid, s Scheme) error {
	if err := grid.CheckSameShape([]string{"x", "dst"}, x, dst); err != nil {
		return fmt.Errorf("horizontal gradient: %w", err)
	}
	last := x.Cols() - 1
	for r := 0; r < x.Rows(); r++ {
		in, out := x.Row(r), dst.Row(r)
		switch s {
		case Forward:
			for c := 0; c < last; c++ {
				out[c] = in[c+1] - in[c]
			}
			out[last] = 0
		case Backward:
			out[0] = 0
			for c := 1; c <= last; c++ {
				out[c] = in[c] - in[c-1]
			}
		case Centered:
			out[0] = 0
			for c := 1; c < last; c++ {
				out[c] = 0.5 * (in[c+1] - in[c-1])
			}
			out[last] = 0
		default:
			return fmt.Errorf("horizontal gradient: %v: %w", s, grid.ErrInvalidParameter)
		}
	}
	return nil
}

// Vertical differentiates x along its columns into dst, which must have the
// shape of x. Every cell of dst is written.
func Vertical(dst, x *grid.Grid, s Scheme) error {
	if err := grid.CheckSameShape([]string{"x", "dst"}, x, dst); err != nil {
		return fmt.Errorf("vertical gradient: %w", err)
	}
	last := x.Rows() - 1
	zero := func(r int) {
		row := dst.Row(r)
		for c := range row {
			row[c] = 0
		}
	}
	switch s {
	case Forward:
		for r := 0; r < last; r++ {
			cur, next, out := x.Row(r), x.Row(r+1), dst.Row(r)
			for c := range out {
				out[c] = next[c] - cur[c]
			}
		}
		zero(last)
	case Backward:
		zero(0)
		for r := 1; r <= last; r++ {
			prev, cur, out := x.Row(r-1), x.Row(r), dst.Row(r)
			for c := range out {
				out[c] = cur[c] - prev[c]
			}
		}
	case Centered:
		zero(0)
		for r := 1; r < last; r++ {
			prev, next, out := x.Row(r-1), x.Row(r+1), dst.Row(r)
			for c := range out {
				out[c] = 0.5 * (next[c] - prev[c])
			}
		}
		zero(last)
	default:
		return fmt.Errorf("vertical gradient: %v: %w", s, grid.ErrInvalidParameter)
	}
	return nil
}

// Gradient returns both derivatives of x computed with scheme s.
func Gradient(x *grid.Grid, s Scheme) (grid.VectorField, error) {
	if err := grid.CheckNonEmpty("x", x); err != nil {
		return grid.VectorField{}, fmt.Errorf("gradient: %w", err)
	}
	v := grid.VectorField{X1: grid.ZerosLike(x), X2: grid.ZerosLike(x)}
	if err := GradientInto(v, x, s); err != nil {
		return grid.VectorField{}, err
	}
	return v, nil
}

// GradientInto writes both derivatives of x into the preallocated field v.
func GradientInto(v grid.VectorField, x *grid.Grid, s Scheme) error {
	if err := Horizontal(v.X1, x, s); err != nil {
		return err
	}
	return Vertical(v.X2, x, s)
}

// Divergence returns Backward-horizontal(X1) + Backward-vertical(X2), the
// negative adjoint of the Forward gradient.
func Divergence(v grid.VectorField) (*grid.Grid, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("divergence: %w", err)
	}
	dst := grid.ZerosLike(v.X1)
	if err := DivergenceInto(dst, v, grid.ZerosLike(v.X1)); err != nil {
		return nil, err
	}
	return dst, nil
}

// DivergenceInto computes the divergence of v into dst using scratch as
// temporary storage. dst, scratch and both components of v must share a shape.
func DivergenceInto(dst *grid.Grid, v grid.VectorField, scratch *grid.Grid) error {
	if err := grid.CheckSameShape([]string{"X1", "X2", "dst", "scratch"}, v.X1, v.X2, dst, scratch); err != nil {
		return fmt.Errorf("divergence: %w", err)
	}
	if err := Horizontal(dst, v.X1, Backward); err != nil {
		return err
	}
	if err := Vertical(scratch, v.X2, Backward); err != nil {
		return err
	}
	return dst.AddScaled(1, scratch)
}
