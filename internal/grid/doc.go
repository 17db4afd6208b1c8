// Package grid provides the in-memory sample grids consumed and produced by the
// restoration operators.
//
// A Grid is a rectangular, single-channel array of float32 samples stored in
// row-major order. Image intensities are conventionally normalized to [0,1],
// but no operator in this module assumes it unless documented.
//
// # Coordinate System
//
// Cells are addressed as (row, col), 0-based, with row 0 at the top:
//   - row: vertical position (0 = topmost row)
//   - col: horizontal position (0 = leftmost column)
//
// "Horizontal" derivatives run along a row (varying col), "vertical"
// derivatives run along a column (varying row).
//
// # Masks
//
// A mask is an ordinary Grid of the same shape as the image it qualifies.
// A nonzero cell marks an observed sample, a zero cell marks a sample to be
// reconstructed.
//
// # Error Handling
//
// Operators report contract violations with the sentinel errors declared in
// this package, wrapped with context:
//   - ErrEmptyInput: a nil or zero-sized operand
//   - ErrDimensionMismatch: operands of unequal shape
//   - ErrInvalidParameter: a scalar argument outside its valid domain
//
// Match them with errors.Is.
//
// # Thread Safety
//
// Grids carry no locks. Concurrent reads are safe; a Grid being written must
// not be shared without external synchronization.
package grid
