package grid

import (
	"fmt"
)

// Grid is a rows x cols array of float32 samples in row-major order.
//
// The zero value and a nil *Grid are both empty. Use New or FromRows to
// allocate a usable grid.
type Grid struct {
	rows int
	cols int
	data []float32
}

// New allocates a zero-filled grid.
//
// Returns ErrInvalidParameter if either dimension is not positive.
func New(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid size %dx%d: %w", rows, cols, ErrInvalidParameter)
	}
	return &Grid{rows: rows, cols: cols, data: make([]float32, rows*cols)}, nil
}

// NewFilled allocates a grid with every cell set to v.
func NewFilled(rows, cols int, v float32) (*Grid, error) {
	g, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	g.Fill(v)
	return g, nil
}

// FromRows builds a grid from a slice of equally long rows. The values are copied.
func FromRows(rows [][]float32) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("rows: %w", ErrEmptyInput)
	}
	g, err := New(len(rows), len(rows[0]))
	if err != nil {
		return nil, err
	}
	for r, row := range rows {
		if len(row) != g.cols {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", r, len(row), g.cols, ErrDimensionMismatch)
		}
		copy(g.Row(r), row)
	}
	return g, nil
}

// ZerosLike allocates a zero grid with the shape of g.
func ZerosLike(g *Grid) *Grid {
	return &Grid{rows: g.rows, cols: g.cols, data: make([]float32, len(g.data))}
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	if g == nil {
		return 0
	}
	return g.rows
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	if g == nil {
		return 0
	}
	return g.cols
}

// Empty reports whether g is nil or has no cells.
func (g *Grid) Empty() bool {
	return g == nil || g.rows == 0 || g.cols == 0
}

// SameShape reports whether g and o have identical dimensions.
func (g *Grid) SameShape(o *Grid) bool {
	return g.Rows() == o.Rows() && g.Cols() == o.Cols()
}

// At returns the sample at (r, c). It panics on out-of-range indices, like a slice.
func (g *Grid) At(r, c int) float32 {
	return g.data[r*g.cols+c]
}

// Set stores v at (r, c).
func (g *Grid) Set(r, c int, v float32) {
	g.data[r*g.cols+c] = v
}

// Row returns row r as a slice aliasing the grid storage.
func (g *Grid) Row(r int) []float32 {
	off := r * g.cols
	return g.data[off : off+g.cols : off+g.cols]
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	out := ZerosLike(g)
	copy(out.data, g.data)
	return out
}

// CopyFrom overwrites g with the samples of src, which must have the same shape.
func (g *Grid) CopyFrom(src *Grid) error {
	if err := CheckSameShape([]string{"dst", "src"}, g, src); err != nil {
		return err
	}
	copy(g.data, src.data)
	return nil
}

// Fill sets every cell to v.
func (g *Grid) Fill(v float32) {
	for i := range g.data {
		g.data[i] = v
	}
}

// Scale multiplies every cell by s.
func (g *Grid) Scale(s float32) {
	for r := 0; r < g.rows; r++ {
		row := g.Row(r)
		for c := range row {
			row[c] *= s
		}
	}
}

// AddScaled performs g += s*x.
func (g *Grid) AddScaled(s float32, x *Grid) error {
	if err := CheckSameShape([]string{"dst", "x"}, g, x); err != nil {
		return err
	}
	for r := 0; r < g.rows; r++ {
		dst, src := g.Row(r), x.Row(r)
		for c := range dst {
			dst[c] += s * src[c]
		}
	}
	return nil
}

// Sub returns a - b as a new grid.
func Sub(a, b *Grid) (*Grid, error) {
	if err := CheckSameShape([]string{"a", "b"}, a, b); err != nil {
		return nil, err
	}
	out := ZerosLike(a)
	for r := 0; r < a.rows; r++ {
		ra, rb, ro := a.Row(r), b.Row(r), out.Row(r)
		for c := range ro {
			ro[c] = ra[c] - rb[c]
		}
	}
	return out, nil
}

// Mul returns the element-wise product a*b as a new grid.
func Mul(a, b *Grid) (*Grid, error) {
	if err := CheckSameShape([]string{"a", "b"}, a, b); err != nil {
		return nil, err
	}
	out := ZerosLike(a)
	for r := 0; r < a.rows; r++ {
		ra, rb, ro := a.Row(r), b.Row(r), out.Row(r)
		for c := range ro {
			ro[c] = ra[c] * rb[c]
		}
	}
	return out, nil
}

// MinMax returns the smallest and largest sample of a non-empty grid.
func (g *Grid) MinMax() (lo, hi float32) {
	lo, hi = g.data[0], g.data[0]
	for _, v := range g.data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Float64s returns the samples as a new row-major []float64, the layout
// expected by gonum.
func (g *Grid) Float64s() []float64 {
	out := make([]float64, len(g.data))
	for i, v := range g.data {
		out[i] = float64(v)
	}
	return out
}

// FromFloat64s builds a rows x cols grid from row-major samples.
func FromFloat64s(rows, cols int, vals []float64) (*Grid, error) {
	g, err := New(rows, cols)
	if err != nil {
		return nil, err
	}
	if len(vals) != rows*cols {
		return nil, fmt.Errorf("%d samples for a %dx%d grid: %w", len(vals), rows, cols, ErrDimensionMismatch)
	}
	for i, v := range vals {
		g.data[i] = float32(v)
	}
	return g, nil
}

// String summarizes the grid shape, for logs and test failures.
func (g *Grid) String() string {
	if g.Empty() {
		return "Grid(empty)"
	}
	return fmt.Sprintf("Grid(%dx%d)", g.rows, g.cols)
}
