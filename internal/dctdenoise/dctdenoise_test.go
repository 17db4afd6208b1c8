package dctdenoise

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/quality"
)

func smooth(t *testing.T, rows, cols int) *grid.Grid {
	t.Helper()
	g, err := grid.New(rows, cols)
	require.NoError(t, err)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			v := 0.5 + 0.3*math.Cos(math.Pi*float64(r)/float64(rows-1))*math.Cos(math.Pi*float64(c)/float64(cols-1))
			g.Set(r, c, float32(v))
		}
	}
	return g
}

func rowsOf(g *grid.Grid) [][]float32 {
	out := make([][]float32, g.Rows())
	for r := range out {
		out[r] = append([]float32(nil), g.Row(r)...)
	}
	return out
}

func TestTransform2D_SelfInverse(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	for _, shape := range [][2]int{{8, 8}, {5, 13}, {1, 9}, {7, 1}, {1, 1}} {
		g, err := grid.New(shape[0], shape[1])
		require.NoError(t, err)
		for r := 0; r < shape[0]; r++ {
			for c := 0; c < shape[1]; c++ {
				g.Set(r, c, float32(rng.Float64()))
			}
		}
		coef, err := Transform2D(g)
		require.NoError(t, err)
		back, err := Transform2D(coef)
		require.NoError(t, err)
		if diff := cmp.Diff(rowsOf(g), rowsOf(back), cmpopts.EquateApprox(0, 1e-5)); diff != "" {
			t.Errorf("%dx%d round trip (-want +got):\n%s", shape[0], shape[1], diff)
		}
	}
}

func TestTransform2D_ConstantIsSparse(t *testing.T) {
	g, err := grid.NewFilled(9, 9, 1)
	require.NoError(t, err)
	coef, err := Transform2D(g)
	require.NoError(t, err)

	nonzero := 0
	for r := 0; r < 9; r++ {
		for _, v := range coef.Row(r) {
			if math.Abs(float64(v)) > 1e-5 {
				nonzero++
			}
		}
	}
	assert.Equal(t, 1, nonzero)
}

func TestThresholds_FollowCoefficientNoise(t *testing.T) {
	const rows, cols, trials = 6, 7, 1000
	rng := rand.New(rand.NewSource(11))
	zero, err := grid.New(rows, cols)
	require.NoError(t, err)

	// Empirical variance of unit white noise per coefficient.
	variance := make([]float64, rows*cols)
	for i := 0; i < trials; i++ {
		noise, err := AddNoise(zero, 1, rng)
		require.NoError(t, err)
		coef, err := Transform2D(noise)
		require.NoError(t, err)
		for k, v := range coef.Float64s() {
			variance[k] += v * v / trials
		}
	}

	th, err := Hard.Thresholds(rows, cols, 1)
	require.NoError(t, err)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			gain := float64(th.At(r, c)) / HardFactor
			assert.InDelta(t, 1, variance[r*cols+c]/(gain*gain), 0.2, "coefficient (%d,%d)", r, c)
		}
	}
	// Corners carry about four times the variance of interior coefficients.
	assert.Greater(t, th.At(0, 0), 1.8*th.At(2, 3))
}

func TestDenoise_ImprovesPSNR(t *testing.T) {
	clean := smooth(t, 32, 32)
	noisy, err := AddNoise(clean, 0.1, rand.New(rand.NewSource(7)))
	require.NoError(t, err)

	before, err := quality.MSE(noisy, clean, nil)
	require.NoError(t, err)

	for _, mode := range []Mode{Hard, Soft} {
		t.Run(mode.String(), func(t *testing.T) {
			out, err := Denoise(noisy, 0.1, mode)
			require.NoError(t, err)
			after, err := quality.MSE(out, clean, nil)
			require.NoError(t, err)
			assert.Less(t, after, before)
		})
	}
}

func TestDenoise_ZeroSigmaIsIdentity(t *testing.T) {
	g := smooth(t, 6, 10)
	for _, mode := range []Mode{Hard, Soft} {
		out, err := Denoise(g, 0, mode)
		require.NoError(t, err)
		if diff := cmp.Diff(rowsOf(g), rowsOf(out), cmpopts.EquateApprox(0, 1e-5)); diff != "" {
			t.Errorf("%v (-want +got):\n%s", mode, diff)
		}
	}
}

func TestAddNoise(t *testing.T) {
	g, err := grid.NewFilled(64, 64, 0.5)
	require.NoError(t, err)
	noisy, err := AddNoise(g, 0.2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, float32(0.5), g.At(0, 0))

	mse, err := quality.MSE(noisy, g, nil)
	require.NoError(t, err)
	assert.InDelta(t, 0.04, mse, 0.004)

	same, err := AddNoise(g, 0.2, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, rowsOf(noisy), rowsOf(same))
}

func TestModes(t *testing.T) {
	m, err := ParseMode("SOFT")
	require.NoError(t, err)
	assert.Equal(t, Soft, m)
	assert.InDelta(t, 0.15, m.Threshold(0.1), 1e-7)
	assert.InDelta(t, 0.32, Hard.Threshold(0.1), 1e-7)

	_, err = ParseMode("median")
	assert.True(t, errors.Is(err, grid.ErrInvalidParameter))
}

func TestErrors(t *testing.T) {
	g, err := grid.NewFilled(2, 2, 1)
	require.NoError(t, err)

	_, err = Denoise(g, -1, Hard)
	assert.True(t, errors.Is(err, grid.ErrInvalidParameter))
	_, err = Denoise(g, 0.1, Mode(9))
	assert.True(t, errors.Is(err, grid.ErrInvalidParameter))
	_, err = Denoise(nil, 0.1, Hard)
	assert.True(t, errors.Is(err, grid.ErrEmptyInput))
	_, err = AddNoise(g, 0.1, nil)
	assert.True(t, errors.Is(err, grid.ErrInvalidParameter))
}
