package imaging

import (
	"fmt"
	"image"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// RenderVectorField color-codes a 2-D field: hue follows the direction of
// (X1, X2) in degrees, value follows the magnitude relative to the largest
// magnitude in the field. A zero field renders black.
func RenderVectorField(v grid.VectorField) (*image.NRGBA, error) {
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("render vector field: %w", err)
	}
	rows, cols := v.X1.Rows(), v.X1.Cols()

	var peak float64
	for r := 0; r < rows; r++ {
		x1, x2 := v.X1.Row(r), v.X2.Row(r)
		for c := range x1 {
			peak = max(peak, math.Hypot(float64(x1[c]), float64(x2[c])))
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, cols, rows))
	for r := 0; r < rows; r++ {
		x1, x2 := v.X1.Row(r), v.X2.Row(r)
		for c := range x1 {
			img.Set(c, r, directionColor(float64(x1[c]), float64(x2[c]), peak))
		}
	}
	return img, nil
}

func directionColor(dx, dy, peak float64) colorful.Color {
	if peak == 0 {
		return colorful.Color{}
	}
	hue := math.Atan2(dy, dx) * 180 / math.Pi
	if hue < 0 {
		hue += 360
	}
	return colorful.Hsv(hue, 1, math.Hypot(dx, dy)/peak).Clamped()
}
