// Package masking builds observation masks for inpainting.
//
// A mask has the shape of the image it applies to. A nonzero cell is observed
// and is kept by the inpainting solver; a zero cell is unknown and gets
// reconstructed. Every generator here produces strictly binary masks.
package masking

import (
	"fmt"
	"image"
	"math/rand"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// Random occludes each cell independently: a cell is 0 when a uniform draw in
// [0,1) falls below ratio, 1 otherwise. ratio is clamped to [0,1], so 0 keeps
// every cell and 1 occludes every cell.
func Random(rows, cols int, ratio float64, rng *rand.Rand) (*grid.Grid, error) {
	m, err := grid.NewFilled(rows, cols, 1)
	if err != nil {
		return nil, fmt.Errorf("random mask: %w", err)
	}
	if rng == nil {
		return nil, fmt.Errorf("random mask: nil source: %w", grid.ErrInvalidParameter)
	}
	ratio = min(max(ratio, 0), 1)
	for r := 0; r < rows; r++ {
		row := m.Row(r)
		for c := range row {
			if rng.Float64() < ratio {
				row[c] = 0
			}
		}
	}
	return m, nil
}

// InterleavedRows occludes every odd row.
func InterleavedRows(rows, cols int) (*grid.Grid, error) {
	m, err := grid.NewFilled(rows, cols, 1)
	if err != nil {
		return nil, fmt.Errorf("interleaved rows mask: %w", err)
	}
	for r := 1; r < rows; r += 2 {
		clear(m.Row(r))
	}
	return m, nil
}

// Rectangle occludes rect, given in (x=col, y=row) coordinates and clipped to
// the frame. A rect whose origin column lies outside the frame leaves the
// mask fully observed.
func Rectangle(rows, cols int, rect image.Rectangle) (*grid.Grid, error) {
	m, err := grid.NewFilled(rows, cols, 1)
	if err != nil {
		return nil, fmt.Errorf("rectangle mask: %w", err)
	}
	if rect.Min.X < 0 || rect.Min.X >= cols {
		return m, nil
	}
	clip := rect.Canon().Intersect(image.Rect(0, 0, cols, rows))
	for r := clip.Min.Y; r < clip.Max.Y; r++ {
		clear(m.Row(r)[clip.Min.X:clip.Max.X])
	}
	return m, nil
}

// CenteredRectangle occludes a centered rect spanning half of each dimension.
func CenteredRectangle(rows, cols int) (*grid.Grid, error) {
	return Rectangle(rows, cols, RegionRect(rows, cols, "center"))
}

// Regions lists the names accepted by NamedRegion.
var Regions = []string{
	"top-left", "top-right", "bottom-left", "bottom-right",
	"top-half", "bottom-half", "left-half", "right-half",
	"center",
}

// RegionRect returns the rectangle of a named region of a rows x cols frame,
// or an empty rectangle for an unknown name.
func RegionRect(rows, cols int, region string) image.Rectangle {
	w, h := cols, rows
	midX, midY := w/2, h/2

	switch region {
	case "top-left":
		return image.Rect(0, 0, midX, midY)
	case "top-right":
		return image.Rect(midX, 0, w, midY)
	case "bottom-left":
		return image.Rect(0, midY, midX, h)
	case "bottom-right":
		return image.Rect(midX, midY, w, h)
	case "top-half":
		return image.Rect(0, 0, w, midY)
	case "bottom-half":
		return image.Rect(0, midY, w, h)
	case "left-half":
		return image.Rect(0, 0, midX, h)
	case "right-half":
		return image.Rect(midX, 0, w, h)
	case "center":
		// Center 50% of each dimension
		qW, qH := w/4, h/4
		return image.Rect(qW, qH, w-qW, h-qH)
	}
	return image.Rectangle{}
}

// NamedRegion occludes one of the Regions.
func NamedRegion(rows, cols int, region string) (*grid.Grid, error) {
	rect := RegionRect(rows, cols, region)
	if rect.Empty() {
		if _, err := grid.New(rows, cols); err != nil {
			return nil, fmt.Errorf("region mask: %w", err)
		}
		return nil, fmt.Errorf("unknown region %q: %w", region, grid.ErrInvalidParameter)
	}
	return Rectangle(rows, cols, rect)
}

// Apply returns g*mask: observed samples are kept and occluded ones zeroed.
func Apply(g, mask *grid.Grid) (*grid.Grid, error) {
	out, err := grid.Mul(g, mask)
	if err != nil {
		return nil, fmt.Errorf("apply mask: %w", err)
	}
	return out, nil
}

// ObservedFraction returns the share of nonzero cells in mask.
func ObservedFraction(mask *grid.Grid) float64 {
	if mask.Empty() {
		return 0
	}
	n := 0
	for r := 0; r < mask.Rows(); r++ {
		for _, v := range mask.Row(r) {
			if v != 0 {
				n++
			}
		}
	}
	return float64(n) / float64(mask.Rows()*mask.Cols())
}
