package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// RescaleMode selects how grid samples map to 8-bit intensities.
type RescaleMode int

const (
	// RescaleClamp clamps samples to [0,1] and scales by 255.
	RescaleClamp RescaleMode = iota
	// RescaleMinMax stretches the grid's own range over [0,255].
	RescaleMinMax
)

// ParseRescaleMode accepts "clamp" or "minmax". The empty string is clamp.
func ParseRescaleMode(s string) (RescaleMode, error) {
	switch strings.ToLower(s) {
	case "", "clamp":
		return RescaleClamp, nil
	case "minmax", "adaptive":
		return RescaleMinMax, nil
	}
	return 0, fmt.Errorf("unknown rescale mode %q: %w", s, grid.ErrInvalidParameter)
}

// ToGrid converts img to luminance samples in [0,1], one cell per pixel.
func ToGrid(img image.Image) (*grid.Grid, error) {
	b := img.Bounds()
	g, err := grid.New(b.Dy(), b.Dx())
	if err != nil {
		return nil, fmt.Errorf("image %dx%d: %w", b.Dx(), b.Dy(), err)
	}
	gray := imaging.Grayscale(img)
	for r := 0; r < g.Rows(); r++ {
		row := g.Row(r)
		off := r * gray.Stride
		for c := range row {
			// Grayscale leaves R = G = B.
			row[c] = float32(gray.Pix[off+4*c]) / 255
		}
	}
	return g, nil
}

// FromGrid renders g as an 8-bit grayscale image.
func FromGrid(g *grid.Grid, mode RescaleMode) (*image.Gray, error) {
	if err := grid.CheckNonEmpty("g", g); err != nil {
		return nil, fmt.Errorf("render grid: %w", err)
	}
	lo, hi := float32(0), float32(1)
	if mode == RescaleMinMax {
		lo, hi = g.MinMax()
	}
	img := image.NewGray(image.Rect(0, 0, g.Cols(), g.Rows()))
	for r := 0; r < g.Rows(); r++ {
		for c, v := range g.Row(r) {
			img.SetGray(c, r, color.Gray{Y: toByte(v, lo, hi)})
		}
	}
	return img, nil
}

func toByte(v, lo, hi float32) uint8 {
	var n float32
	if hi > lo {
		n = (v - lo) / (hi - lo)
	} else {
		n = 0.5
	}
	n = min(max(n, 0), 1)
	return uint8(n*255 + 0.5)
}
