package tv

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/ironsheep/tv-restore-mcp/internal/derivative"
	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// DiffusionEnergy evaluates TV(u) + (lambda/2)|u-g|^2, the objective Diffuse
// minimizes.
func DiffusionEnergy(u, g *grid.Grid, lambda float32) (float64, error) {
	if err := grid.CheckSameShape([]string{"u", "g"}, u, g); err != nil {
		return 0, fmt.Errorf("diffusion energy: %w", err)
	}
	tv, err := derivative.TotalVariation(u)
	if err != nil {
		return 0, fmt.Errorf("diffusion energy: %w", err)
	}
	d := u.Float64s()
	floats.Sub(d, g.Float64s())
	return tv + float64(lambda)/2*floats.Dot(d, d), nil
}

// InpaintingEnergy evaluates TV(u) when u agrees with g on every observed
// cell of mask, and +Inf otherwise.
func InpaintingEnergy(u, g, mask *grid.Grid) (float64, error) {
	if err := grid.CheckSameShape([]string{"u", "g", "mask"}, u, g, mask); err != nil {
		return 0, fmt.Errorf("inpainting energy: %w", err)
	}
	for r := 0; r < u.Rows(); r++ {
		ur, gr, mr := u.Row(r), g.Row(r), mask.Row(r)
		for c := range ur {
			if mr[c] != 0 && ur[c] != gr[c] {
				return math.Inf(1), nil
			}
		}
	}
	tv, err := derivative.TotalVariation(u)
	if err != nil {
		return 0, fmt.Errorf("inpainting energy: %w", err)
	}
	return tv, nil
}
