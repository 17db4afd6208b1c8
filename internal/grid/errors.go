package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when an operand is nil or has no cells.
	ErrEmptyInput = errors.New("empty input")

	// ErrDimensionMismatch is returned when operands do not share a shape.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidParameter is returned for out-of-domain scalar arguments
	// such as a non-positive radius or a negative threshold.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// CheckNonEmpty returns ErrEmptyInput, wrapped with name, if g is nil or empty.
func CheckNonEmpty(name string, g *Grid) error {
	if g.Empty() {
		return fmt.Errorf("%s: %w", name, ErrEmptyInput)
	}
	return nil
}

// CheckSameShape verifies that every grid is non-empty and shares the shape of
// the first one. Names label the grids in the returned error and must have the
// same length as grids.
func CheckSameShape(names []string, grids ...*Grid) error {
	for i, g := range grids {
		if err := CheckNonEmpty(names[i], g); err != nil {
			return err
		}
	}
	ref := grids[0]
	for i, g := range grids[1:] {
		if g.rows != ref.rows || g.cols != ref.cols {
			return fmt.Errorf("%s is %dx%d, %s is %dx%d: %w",
				names[0], ref.rows, ref.cols, names[i+1], g.rows, g.cols, ErrDimensionMismatch)
		}
	}
	return nil
}
