// Package report records solver convergence and renders it as a PNG plot or
// an HTML chart.
package report

import (
	"fmt"
	"sync"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/tv"
)

// EnergyFunc evaluates the objective at an iterate.
type EnergyFunc func(u *grid.Grid) (float64, error)

// Trace collects one energy value per solver iteration. It is safe for
// concurrent use, so a single Trace may be read while its solver runs.
type Trace struct {
	Label string

	mu     sync.Mutex
	energy EnergyFunc
	values []float64
	err    error
}

// NewTrace returns a trace that evaluates energy after every iteration.
func NewTrace(label string, energy EnergyFunc) *Trace {
	return &Trace{Label: label, energy: energy}
}

// Observer returns the callback to install in tv.Config.Observer. The first
// evaluation error is kept and later iterations are ignored.
func (t *Trace) Observer() tv.Observer {
	return func(_ int, u *grid.Grid) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.err != nil {
			return
		}
		e, err := t.energy(u)
		if err != nil {
			t.err = err
			return
		}
		t.values = append(t.values, e)
	}
}

// Values returns a copy of the recorded energies and the first error.
func (t *Trace) Values() ([]float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]float64(nil), t.values...), t.err
}

// EnergyPlot draws every trace as a line of energy against iteration and
// saves the figure to path. The image format follows the file extension.
func EnergyPlot(path, title string, traces ...*Trace) error {
	if len(traces) == 0 {
		return fmt.Errorf("energy plot: no traces")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "iteration"
	p.Y.Label.Text = "energy"

	for i, t := range traces {
		values, err := t.Values()
		if err != nil {
			return fmt.Errorf("energy plot %s: %w", t.Label, err)
		}
		pts := make(plotter.XYs, len(values))
		for k, e := range values {
			pts[k] = plotter.XY{X: float64(k + 1), Y: e}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return fmt.Errorf("energy plot %s: %w", t.Label, err)
		}
		line.Width = vg.Points(1)
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(t.Label, line)
	}
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save energy plot: %w", err)
	}
	return nil
}
