// Package quality scores a restored grid against a reference.
//
// Every metric accepts an optional mask: when non-nil only cells where the
// mask is nonzero are scored, and averages divide by that cell count.
package quality

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
)

// DefaultPeak is the peak intensity used by PSNR for grids in [0,1].
const DefaultPeak = 1.0

// Report bundles the three metrics for one comparison.
type Report struct {
	MSE  float64 `json:"mse"`
	SNR  float64 `json:"snr_db"`
	PSNR float64 `json:"psnr"`
}

// MarshalJSON encodes non-finite metrics, such as the SNR of identical grids,
// as null.
func (r Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		MSE  *float64 `json:"mse"`
		SNR  *float64 `json:"snr_db"`
		PSNR *float64 `json:"psnr"`
	}{finite(r.MSE), finite(r.SNR), finite(r.PSNR)})
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

// MSE returns the mean squared difference between test and reference.
func MSE(test, reference, mask *grid.Grid) (float64, error) {
	w, err := weights(test, reference, mask)
	if err != nil {
		return 0, fmt.Errorf("mse: %w", err)
	}
	d := test.Float64s()
	floats.Sub(d, reference.Float64s())
	floats.Mul(d, d)
	return stat.Mean(d, w), nil
}

// SNR returns 20*log10(P/MSE) where P is the mean squared reference sample.
func SNR(test, reference, mask *grid.Grid) (float64, error) {
	mse, err := MSE(test, reference, mask)
	if err != nil {
		return 0, fmt.Errorf("snr: %w", err)
	}
	w, _ := weights(test, reference, mask)
	s := reference.Float64s()
	floats.Mul(s, s)
	return 20 * math.Log10(stat.Mean(s, w)/mse), nil
}

// PSNR returns 20*log10(peak) - 10*ln(MSE).
//
// The second term uses the natural logarithm, so values are not comparable
// with the usual decibel PSNR.
func PSNR(test, reference, mask *grid.Grid, peak float64) (float64, error) {
	if !(peak > 0) {
		return 0, fmt.Errorf("psnr: peak %v: %w", peak, grid.ErrInvalidParameter)
	}
	mse, err := MSE(test, reference, mask)
	if err != nil {
		return 0, fmt.Errorf("psnr: %w", err)
	}
	return 20*math.Log10(peak) - 10*math.Log(mse), nil
}

// Compare computes all metrics with DefaultPeak.
func Compare(test, reference, mask *grid.Grid) (Report, error) {
	var rep Report
	var err error
	if rep.MSE, err = MSE(test, reference, mask); err != nil {
		return Report{}, err
	}
	if rep.SNR, err = SNR(test, reference, mask); err != nil {
		return Report{}, err
	}
	if rep.PSNR, err = PSNR(test, reference, mask, DefaultPeak); err != nil {
		return Report{}, err
	}
	return rep, nil
}

// weights validates the operands and returns per-cell weights for stat.Mean,
// nil when every cell counts.
func weights(test, reference, mask *grid.Grid) ([]float64, error) {
	if err := grid.CheckSameShape([]string{"test", "reference"}, test, reference); err != nil {
		return nil, err
	}
	if mask == nil {
		return nil, nil
	}
	if err := grid.CheckSameShape([]string{"test", "mask"}, test, mask); err != nil {
		return nil, err
	}
	w := mask.Float64s()
	observed := 0
	for i, v := range w {
		if v != 0 {
			w[i] = 1
			observed++
		}
	}
	if observed == 0 {
		return nil, fmt.Errorf("mask has no observed cells: %w", grid.ErrEmptyInput)
	}
	return w, nil
}
