package grid

import "fmt"

// VectorField is a pair of same-shape grids holding a two-component vector per
// cell: X1 is the horizontal component, X2 the vertical one.
type VectorField struct {
	X1 *Grid
	X2 *Grid
}

// NewVectorField allocates a zero field of the given shape.
func NewVectorField(rows, cols int) (VectorField, error) {
	x1, err := New(rows, cols)
	if err != nil {
		return VectorField{}, err
	}
	return VectorField{X1: x1, X2: ZerosLike(x1)}, nil
}

// Validate checks that both components are present and share a shape.
func (v VectorField) Validate() error {
	if err := CheckSameShape([]string{"X1", "X2"}, v.X1, v.X2); err != nil {
		return fmt.Errorf("vector field: %w", err)
	}
	return nil
}

// Clone returns a deep copy of both components.
func (v VectorField) Clone() VectorField {
	return VectorField{X1: v.X1.Clone(), X2: v.X2.Clone()}
}
