package tv

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/ironsheep/tv-restore-mcp/internal/derivative"
	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/prox"
)

// lipschitzSquared bounds ||grad||^2 for forward differences on a 2-D grid.
const lipschitzSquared = 8

// stepSize is tau = sigma = 1/sqrt(lipschitzSquared), shared by both variants.
const stepSize float32 = 0.35355339

// Observer is called after every completed iteration with the 1-based
// iteration number and the current primal iterate. The grid is owned by the
// solver and is only valid during the call.
type Observer func(iteration int, u *grid.Grid)

// Config controls a solver run.
type Config struct {
	// Iterations is the fixed number of primal-dual steps. 0 returns the
	// initial guess.
	Iterations int

	// Lambda weights the data term of Diffuse. Ignored by Inpaint.
	Lambda float32

	// ClampToUnitInterval projects u onto [0,1] after every fidelity step.
	ClampToUnitInterval bool

	// Initial seeds u. A nil Initial starts from zeros. It is not modified.
	Initial *grid.Grid

	// Observer, when set, is called after each iteration.
	Observer Observer
}

// DefaultDiffusionConfig returns 100 iterations, lambda = 10 and no clamp.
func DefaultDiffusionConfig() Config {
	return Config{Iterations: 100, Lambda: 10}
}

// DefaultInpaintingConfig returns 100 iterations with the [0,1] clamp.
func DefaultInpaintingConfig() Config {
	return Config{Iterations: 100, ClampToUnitInterval: true}
}

// Diffuse denoises g by minimizing TV(u) + (lambda/2)|u-g|^2.
//
// Returns the final primal iterate, a new grid owned by the caller.
//
// # Errors
//
//   - ErrEmptyInput if g is empty
//   - ErrDimensionMismatch if cfg.Initial does not match g
//   - ErrInvalidParameter for a negative iteration count or lambda
//   - the context error if ctx is cancelled between iterations
func Diffuse(ctx context.Context, g *grid.Grid, cfg Config) (*grid.Grid, error) {
	if err := grid.CheckNonEmpty("g", g); err != nil {
		return nil, fmt.Errorf("tv diffusion: %w", err)
	}
	if cfg.Lambda < 0 || math.IsNaN(float64(cfg.Lambda)) {
		return nil, fmt.Errorf("tv diffusion: lambda %v: %w", cfg.Lambda, grid.ErrInvalidParameter)
	}
	fidelity := func(u *grid.Grid) error {
		return prox.L2(u, g, cfg.Lambda, stepSize)
	}
	return run(ctx, "diffusion", g, cfg, fidelity)
}

// Inpaint reconstructs the cells of g where mask is zero, keeping u equal to
// g wherever mask is nonzero.
//
// Iterates are clamped to [0,1] only when cfg.ClampToUnitInterval is set, as
// in DefaultInpaintingConfig; a zero Config does not clamp.
//
// Returns the final primal iterate, a new grid owned by the caller.
//
// # Errors
//
//   - ErrEmptyInput if g or mask is empty
//   - ErrDimensionMismatch if mask or cfg.Initial does not match g
//   - ErrInvalidParameter for a negative iteration count
//   - the context error if ctx is cancelled between iterations
func Inpaint(ctx context.Context, g, mask *grid.Grid, cfg Config) (*grid.Grid, error) {
	if err := grid.CheckSameShape([]string{"g", "mask"}, g, mask); err != nil {
		return nil, fmt.Errorf("tv inpainting: %w", err)
	}
	fidelity := func(u *grid.Grid) error {
		return prox.L2Inpainting(u, g, mask)
	}
	return run(ctx, "inpainting", g, cfg, fidelity)
}

// state holds the iterates of one run. All grids share the shape of g.
type state struct {
	u, uPrev, uBar *grid.Grid
	p              grid.VectorField
	du             grid.VectorField
	scratch        *grid.Grid
}

func newState(g, initial *grid.Grid) (*state, error) {
	u := grid.ZerosLike(g)
	if initial != nil {
		if err := u.CopyFrom(initial); err != nil {
			return nil, fmt.Errorf("initial guess: %w", err)
		}
	}
	s := &state{
		u:       u,
		uPrev:   u.Clone(),
		uBar:    u.Clone(),
		p:       grid.VectorField{X1: grid.ZerosLike(g), X2: grid.ZerosLike(g)},
		du:      grid.VectorField{X1: grid.ZerosLike(g), X2: grid.ZerosLike(g)},
		scratch: grid.ZerosLike(g),
	}
	if err := derivative.GradientInto(s.p, s.u, derivative.Forward); err != nil {
		return nil, err
	}
	return s, nil
}

func run(ctx context.Context, variant string, g *grid.Grid, cfg Config, fidelity func(*grid.Grid) error) (*grid.Grid, error) {
	if cfg.Iterations < 0 {
		return nil, fmt.Errorf("tv %s: iterations %d: %w", variant, cfg.Iterations, grid.ErrInvalidParameter)
	}
	s, err := newState(g, cfg.Initial)
	if err != nil {
		return nil, fmt.Errorf("tv %s: %w", variant, err)
	}

	slog.DebugContext(ctx, "tv solver start",
		"variant", variant,
		"rows", g.Rows(),
		"cols", g.Cols(),
		"iterations", cfg.Iterations,
		"lambda", cfg.Lambda,
		"clamp", cfg.ClampToUnitInterval,
	)

	for iter := 1; iter <= cfg.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("tv %s: stopped at iteration %d: %w", variant, iter, err)
		}
		if err := s.step(cfg, fidelity); err != nil {
			return nil, fmt.Errorf("tv %s: iteration %d: %w", variant, iter, err)
		}
		if cfg.Observer != nil {
			cfg.Observer(iter, s.u)
		}
	}
	return s.u, nil
}

// step performs one primal-dual iteration in place.
func (s *state) step(cfg Config, fidelity func(*grid.Grid) error) error {
	// Dual ascent on the extrapolated point.
	if err := derivative.GradientInto(s.du, s.uBar, derivative.Forward); err != nil {
		return err
	}
	if err := s.p.X1.AddScaled(stepSize, s.du.X1); err != nil {
		return err
	}
	if err := s.p.X2.AddScaled(stepSize, s.du.X2); err != nil {
		return err
	}
	if err := prox.JointBall(s.p, nil, nil, 1); err != nil {
		return err
	}

	// Primal descent: u = u_prev + tau*div(p).
	if err := derivative.DivergenceInto(s.u, s.p, s.scratch); err != nil {
		return err
	}
	s.u.Scale(stepSize)
	if err := s.u.AddScaled(1, s.uPrev); err != nil {
		return err
	}
	if err := fidelity(s.u); err != nil {
		return err
	}
	if cfg.ClampToUnitInterval {
		if err := prox.Interval(s.u, 0, 1); err != nil {
			return err
		}
	}

	// Extrapolation.
	for r := 0; r < s.u.Rows(); r++ {
		u, prev, bar := s.u.Row(r), s.uPrev.Row(r), s.uBar.Row(r)
		for c := range u {
			bar[c] = 2*u[c] - prev[c]
			prev[c] = u[c]
		}
	}
	return nil
}
