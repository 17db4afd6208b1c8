// Package dctdenoise removes additive Gaussian noise by thresholding the
// coefficients of a separable 2-D discrete cosine transform.
//
// The transform is the DCT-I from gonum's dsp/fourier package, scaled by
// 1/sqrt(2(n-1)) along each axis so that it is its own inverse. It is not
// orthonormal: the first and last coefficient of each axis carry about twice
// the noise variance of the others. Denoise therefore scales the 3.2 sigma
// (hard) and 1.5 sigma (soft) thresholds per coefficient by the noise that
// coefficient carries, which keeps the factors meaningful as for an
// orthonormal DCT-II such as OpenCV's dct. Results still differ in detail
// from a DCT-II pipeline because the cosine bases differ. Axes of length 1
// are left untransformed.
package dctdenoise

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/prox"
)

// Mode selects the coefficient thresholding rule.
type Mode int

const (
	// Hard zeroes small coefficients and keeps the others unchanged.
	Hard Mode = iota
	// Soft shrinks every coefficient towards zero.
	Soft
)

// Threshold factors applied to the noise sigma.
const (
	HardFactor = 3.2
	SoftFactor = 1.5
)

func (m Mode) String() string {
	switch m {
	case Hard:
		return "hard"
	case Soft:
		return "soft"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "hard" or "soft", case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "hard":
		return Hard, nil
	case "soft":
		return Soft, nil
	}
	return 0, fmt.Errorf("unknown threshold mode %q: %w", s, grid.ErrInvalidParameter)
}

// Threshold returns the threshold for sigma under mode on a coefficient
// carrying unit noise gain. See Thresholds.
func (m Mode) Threshold(sigma float64) float32 {
	if m == Soft {
		return float32(SoftFactor * sigma)
	}
	return float32(HardFactor * sigma)
}

// AddNoise returns g plus zero-mean Gaussian noise of standard deviation
// sigma drawn from rng. g is not modified.
func AddNoise(g *grid.Grid, sigma float64, rng *rand.Rand) (*grid.Grid, error) {
	if err := grid.CheckNonEmpty("g", g); err != nil {
		return nil, fmt.Errorf("add noise: %w", err)
	}
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("add noise: sigma %v: %w", sigma, grid.ErrInvalidParameter)
	}
	if rng == nil {
		return nil, fmt.Errorf("add noise: nil source: %w", grid.ErrInvalidParameter)
	}
	out := g.Clone()
	for r := 0; r < out.Rows(); r++ {
		row := out.Row(r)
		for c := range row {
			row[c] += float32(rng.NormFloat64() * sigma)
		}
	}
	return out, nil
}

// Transform2D returns the separable, normalized DCT-I of g. Applying it
// twice returns g up to rounding.
func Transform2D(g *grid.Grid) (*grid.Grid, error) {
	if err := grid.CheckNonEmpty("g", g); err != nil {
		return nil, fmt.Errorf("dct: %w", err)
	}
	rows, cols := g.Rows(), g.Cols()
	data := g.Float64s()

	if cols > 1 {
		t := fourier.NewDCT(cols)
		scale := 1 / math.Sqrt(float64(2*(cols-1)))
		buf := make([]float64, cols)
		for r := 0; r < rows; r++ {
			line := data[r*cols : (r+1)*cols]
			t.Transform(buf, line)
			for c, v := range buf {
				line[c] = v * scale
			}
		}
	}
	if rows > 1 {
		t := fourier.NewDCT(rows)
		scale := 1 / math.Sqrt(float64(2*(rows-1)))
		in := make([]float64, rows)
		out := make([]float64, rows)
		for c := 0; c < cols; c++ {
			for r := range in {
				in[r] = data[r*cols+c]
			}
			t.Transform(out, in)
			for r, v := range out {
				data[r*cols+c] = v * scale
			}
		}
	}
	return grid.FromFloat64s(rows, cols, data)
}

// noiseGain returns, for each coefficient index of a normalized DCT-I of
// length n, the standard deviation it carries per unit of white input noise.
// Interior coefficients carry sqrt((n-2)/(n-1)), the first and last
// sqrt((2n-3)/(n-1)), close to sqrt(2).
func noiseGain(n int) []float64 {
	g := make([]float64, n)
	if n == 1 {
		g[0] = 1
		return g
	}
	interior := math.Sqrt(float64(n-2) / float64(n-1))
	edge := math.Sqrt(float64(2*n-3) / float64(n-1))
	for k := range g {
		g[k] = interior
	}
	g[0], g[n-1] = edge, edge
	return g
}

// Thresholds returns the per-coefficient thresholds of mode for noise sigma on
// a rows x cols grid: mode.Threshold(sigma) scaled by the noise each
// coefficient of Transform2D actually carries.
func (m Mode) Thresholds(rows, cols int, sigma float64) (*grid.Grid, error) {
	th, err := grid.New(rows, cols)
	if err != nil {
		return nil, fmt.Errorf("dct thresholds: %w", err)
	}
	base := m.Threshold(sigma)
	gr, gc := noiseGain(rows), noiseGain(cols)
	for r := 0; r < rows; r++ {
		row := th.Row(r)
		for c := range row {
			row[c] = base * float32(gr[r]*gc[c])
		}
	}
	return th, nil
}

// Denoise thresholds the DCT coefficients of noisy at mode.Thresholds and
// returns the inverse transform.
func Denoise(noisy *grid.Grid, sigma float64, mode Mode) (*grid.Grid, error) {
	if sigma < 0 || math.IsNaN(sigma) {
		return nil, fmt.Errorf("dct denoise: sigma %v: %w", sigma, grid.ErrInvalidParameter)
	}
	coef, err := Transform2D(noisy)
	if err != nil {
		return nil, fmt.Errorf("dct denoise: %w", err)
	}
	th, err := mode.Thresholds(coef.Rows(), coef.Cols(), sigma)
	if err != nil {
		return nil, fmt.Errorf("dct denoise: %w", err)
	}
	switch mode {
	case Hard:
		err = prox.HardThresholdPerCell(coef, th)
	case Soft:
		err = prox.SoftThresholdPerCell(coef, th)
	default:
		err = fmt.Errorf("mode %v: %w", mode, grid.ErrInvalidParameter)
	}
	if err != nil {
		return nil, fmt.Errorf("dct denoise: %w", err)
	}
	return Transform2D(coef)
}
