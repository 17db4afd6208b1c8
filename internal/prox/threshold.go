package prox

import (
	"fmt"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// shrinkEpsilon is the magnitude below which a sample is shrunk to zero
// instead of dividing by it.
const shrinkEpsilon = 1e-6

// SoftThreshold shrinks every sample of x towards zero by threshold:
// x *= max(0, 1 - threshold/|x|).
func SoftThreshold(x *grid.Grid, threshold float32) error {
	if err := grid.CheckNonEmpty("x", x); err != nil {
		return fmt.Errorf("soft threshold: %w", err)
	}
	if !(threshold >= 0) {
		return fmt.Errorf("soft threshold: %v: %w", threshold, grid.ErrInvalidParameter)
	}
	for r := 0; r < x.Rows(); r++ {
		row := x.Row(r)
		for c, v := range row {
			row[c] = v * shrinkage(v, threshold)
		}
	}
	return nil
}

// SoftThresholdPerCell is SoftThreshold with an individual threshold per cell.
// thresholds must have the shape of x and hold no negative values.
func SoftThresholdPerCell(x, thresholds *grid.Grid) error {
	if err := grid.CheckSameShape([]string{"x", "thresholds"}, x, thresholds); err != nil {
		return fmt.Errorf("soft threshold: %w", err)
	}
	for r := 0; r < x.Rows(); r++ {
		for c, t := range thresholds.Row(r) {
			if !(t >= 0) {
				return fmt.Errorf("soft threshold: cell (%d,%d) threshold %v: %w", r, c, t, grid.ErrInvalidParameter)
			}
		}
	}
	for r := 0; r < x.Rows(); r++ {
		row, th := x.Row(r), thresholds.Row(r)
		for c, v := range row {
			row[c] = v * shrinkage(v, th[c])
		}
	}
	return nil
}

// HardThreshold zeroes every sample whose magnitude is <= threshold and keeps
// the others bit-identical.
func HardThreshold(x *grid.Grid, threshold float32) error {
	if err := grid.CheckNonEmpty("x", x); err != nil {
		return fmt.Errorf("hard threshold: %w", err)
	}
	if !(threshold >= 0) {
		return fmt.Errorf("hard threshold: %v: %w", threshold, grid.ErrInvalidParameter)
	}
	for r := 0; r < x.Rows(); r++ {
		row := x.Row(r)
		for c, v := range row {
			if abs32(v) <= threshold {
				row[c] = 0
			}
		}
	}
	return nil
}

// HardThresholdPerCell zeroes every sample of x whose magnitude is at most
// the threshold of the same cell. Thresholds are validated before x is
// modified.
func HardThresholdPerCell(x, thresholds *grid.Grid) error {
	if err := grid.CheckSameShape([]string{"x", "thresholds"}, x, thresholds); err != nil {
		return fmt.Errorf("hard threshold: %w", err)
	}
	for r := 0; r < x.Rows(); r++ {
		for c, t := range thresholds.Row(r) {
			if !(t >= 0) {
				return fmt.Errorf("hard threshold: cell (%d,%d) threshold %v: %w", r, c, t, grid.ErrInvalidParameter)
			}
		}
	}
	for r := 0; r < x.Rows(); r++ {
		row, th := x.Row(r), thresholds.Row(r)
		for c, v := range row {
			if abs32(v) <= th[c] {
				row[c] = 0
			}
		}
	}
	return nil
}

func shrinkage(v, threshold float32) float32 {
	if threshold == 0 {
		return 1
	}
	a := abs32(v)
	if a <= shrinkEpsilon {
		return 0
	}
	return max(0, 1-threshold/a)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
