package prox

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

func TestSoftThreshold(t *testing.T) {
	x := mustRows(t, [][]float32{{2, -2, 0.5, -0.5, 0}})
	require.NoError(t, SoftThreshold(x, 1))

	want := []float32{1, -1, 0, 0, 0}
	for c, w := range want {
		assert.InDelta(t, w, x.At(0, c), 1e-7, "col %d", c)
	}
}

func TestSoftThreshold_ZeroIsIdentity(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	x := randomGrid(t, rng, 7, 5, 3)
	x.Set(0, 0, 1e-9)
	before := toRows(x)

	require.NoError(t, SoftThreshold(x, 0))
	assert.Equal(t, before, toRows(x))
}

func TestSoftThreshold_NeverGrowsMagnitude(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	for _, th := range []float32{0.01, 0.3, 1, 10} {
		x := randomGrid(t, rng, 9, 9, 2)
		before := x.Clone()
		require.NoError(t, SoftThreshold(x, th))
		for r := 0; r < 9; r++ {
			for c := 0; c < 9; c++ {
				assert.LessOrEqual(t, math.Abs(float64(x.At(r, c))), math.Abs(float64(before.At(r, c))))
				// Shrinkage keeps the sign.
				assert.GreaterOrEqual(t, x.At(r, c)*before.At(r, c), float32(0))
			}
		}
	}
}

func TestSoftThresholdPerCell(t *testing.T) {
	x := mustRows(t, [][]float32{{2, 2, -4}})
	th := mustRows(t, [][]float32{{0, 1, 3}})
	require.NoError(t, SoftThresholdPerCell(x, th))
	assert.InDelta(t, 2, x.At(0, 0), 1e-7)
	assert.InDelta(t, 1, x.At(0, 1), 1e-7)
	assert.InDelta(t, -1, x.At(0, 2), 1e-6)
}

func TestSoftThreshold_Errors(t *testing.T) {
	x := mustRows(t, [][]float32{{1, 2}})
	assert.True(t, errors.Is(SoftThreshold(x, -0.1), grid.ErrInvalidParameter))
	assert.True(t, errors.Is(SoftThreshold(nil, 1), grid.ErrEmptyInput))
	assert.True(t, errors.Is(SoftThresholdPerCell(x, mustRows(t, [][]float32{{1}})), grid.ErrDimensionMismatch))

	neg := mustRows(t, [][]float32{{1, -1}})
	assert.True(t, errors.Is(SoftThresholdPerCell(x, neg), grid.ErrInvalidParameter))
	// Rejected before any cell is modified.
	assert.Equal(t, [][]float32{{1, 2}}, toRows(x))
}

func TestHardThreshold(t *testing.T) {
	x := mustRows(t, [][]float32{{0.5, -0.5, 0.50001, -2, 0.1}})
	before := toRows(x)
	require.NoError(t, HardThreshold(x, 0.5))

	for c, v := range before[0] {
		got := x.At(0, c)
		if math.Abs(float64(v)) <= 0.5 {
			assert.Equal(t, float32(0), got, "col %d", c)
		} else {
			assert.Equal(t, math.Float32bits(v), math.Float32bits(got), "col %d should be bit-identical", c)
		}
	}
}

func TestThresholds_RejectNaN(t *testing.T) {
	nan := float32(math.NaN())
	x := mustRows(t, [][]float32{{1, -2}})

	assert.True(t, errors.Is(SoftThreshold(x, nan), grid.ErrInvalidParameter))
	assert.True(t, errors.Is(HardThreshold(x, nan), grid.ErrInvalidParameter))
	assert.True(t, errors.Is(SoftThresholdPerCell(x, mustRows(t, [][]float32{{0, nan}})), grid.ErrInvalidParameter))
	assert.True(t, errors.Is(HardThresholdPerCell(x, mustRows(t, [][]float32{{nan, 0}})), grid.ErrInvalidParameter))
	assert.Equal(t, [][]float32{{1, -2}}, toRows(x))
}

func TestHardThresholdPerCell(t *testing.T) {
	x := mustRows(t, [][]float32{{0.4, -0.4, 3}, {-1, 2, 0}})
	th := mustRows(t, [][]float32{{0.5, 0.3, 3}, {0, 2.5, 0}})
	require.NoError(t, HardThresholdPerCell(x, th))
	assert.Equal(t, [][]float32{{0, -0.4, 0}, {-1, 0, 0}}, toRows(x))

	assert.True(t, errors.Is(HardThresholdPerCell(x, mustRows(t, [][]float32{{1}})), grid.ErrDimensionMismatch))
	assert.True(t, errors.Is(HardThresholdPerCell(x, mustRows(t, [][]float32{{0, 0, 0}, {0, -1, 0}})), grid.ErrInvalidParameter))
}

func TestHardThreshold_Errors(t *testing.T) {
	assert.True(t, errors.Is(HardThreshold(nil, 1), grid.ErrEmptyInput))
	assert.True(t, errors.Is(HardThreshold(mustRows(t, [][]float32{{1}}), -1), grid.ErrInvalidParameter))
}
