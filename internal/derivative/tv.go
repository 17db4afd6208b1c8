package derivative

import (
	"fmt"
	"math"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// TotalVariation returns the isotropic total variation of x,
// sum over cells of sqrt(dx^2 + dy^2) with forward differences.
func TotalVariation(x *grid.Grid) (float64, error) {
	v, err := Gradient(x, Forward)
	if err != nil {
		return 0, fmt.Errorf("total variation: %w", err)
	}
	var sum float64
	for r := 0; r < x.Rows(); r++ {
		gx, gy := v.X1.Row(r), v.X2.Row(r)
		for c := range gx {
			sum += math.Hypot(float64(gx[c]), float64(gy[c]))
		}
	}
	return sum, nil
}

// SmoothedTVGradient returns the gradient of the smoothed isotropic total
// variation at x:
//
//	-div( grad(x) / max(|grad(x)|, mu) )
//
// mu bounds the normalization away from zero and must be positive.
func SmoothedTVGradient(x *grid.Grid, mu float32) (*grid.Grid, error) {
	if !(mu > 0) {
		return nil, fmt.Errorf("smoothed TV gradient: mu %v: %w", mu, grid.ErrInvalidParameter)
	}
	v, err := Gradient(x, Forward)
	if err != nil {
		return nil, fmt.Errorf("smoothed TV gradient: %w", err)
	}
	for r := 0; r < x.Rows(); r++ {
		gx, gy := v.X1.Row(r), v.X2.Row(r)
		for c := range gx {
			n := float32(math.Hypot(float64(gx[c]), float64(gy[c])))
			if n < mu {
				n = mu
			}
			gx[c] /= n
			gy[c] /= n
		}
	}
	div, err := Divergence(v)
	if err != nil {
		return nil, err
	}
	div.Scale(-1)
	return div, nil
}
