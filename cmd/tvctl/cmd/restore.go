package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/tv-restore-mcp/internal/config"
	"github.com/ironsheep/tv-restore-mcp/internal/dctdenoise"
	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/history"
	"github.com/ironsheep/tv-restore-mcp/internal/imaging"
	"github.com/ironsheep/tv-restore-mcp/internal/logging"
	"github.com/ironsheep/tv-restore-mcp/internal/masking"
	"github.com/ironsheep/tv-restore-mcp/internal/quality"
	"github.com/ironsheep/tv-restore-mcp/internal/report"
	"github.com/ironsheep/tv-restore-mcp/internal/tv"
)

// NewInpaintCmd masks an image once per configured mask and reconstructs
// every masked copy.
func NewInpaintCmd(ctx context.Context, s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inpaint <image>",
		Short: "TV inpainting of synthetic masks",
		Long: `Masks the image with each configured mask (random occlusion, interleaved rows,
rectangles or named regions), reconstructs the hidden cells and writes the
masked input next to the reconstruction. Masks run concurrently.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := imageArg(cmd, args)
			if err != nil {
				return err
			}
			cfg := s.cfg
			cfg.Mode = config.ModeInpaint
			if err := applyRunFlags(cmd, &cfg); err != nil {
				return err
			}
			masks, err := maskFlags(cmd)
			if err != nil {
				return err
			}
			if len(masks) > 0 {
				cfg.Masks = masks
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return s.runBatch(ctx, cfg, path, cmd.OutOrStdout())
		},
	}
	addRunFlags(cmd)
	addMaskFlag(cmd)
	return cmd
}

// NewDiffuseCmd denoises an image, optionally after adding noise to it.
func NewDiffuseCmd(ctx context.Context, s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diffuse <image>",
		Short: "TV (ROF) denoising",
		Long: `Runs TV diffusion on the image. With --noise the image is first degraded by
Gaussian noise and both versions are scored against the original. With --mask
(or diffuse_masked in the config file) each masked copy is denoised instead,
for comparison with inpaint on the same masks.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := imageArg(cmd, args)
			if err != nil {
				return err
			}
			cfg := s.cfg
			cfg.Mode = config.ModeDiffuse
			if err := applyRunFlags(cmd, &cfg); err != nil {
				return err
			}
			if cmd.Flags().Changed("noise") {
				cfg.Noise, _ = cmd.Flags().GetFloat64("noise")
			}
			masks, err := maskFlags(cmd)
			if err != nil {
				return err
			}
			if len(masks) > 0 {
				cfg.Masks, cfg.DiffuseMasked = masks, true
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return s.runBatch(ctx, cfg, path, cmd.OutOrStdout())
		},
	}
	addRunFlags(cmd)
	addMaskFlag(cmd)
	cmd.Flags().Float64("noise", 0, "Standard deviation of Gaussian noise added before denoising")
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()
	f.IntP("iterations", "k", d.Iterations, "Number of primal-dual iterations")
	f.Float32("lambda", d.Lambda, "Data term weight (diffuse)")
	f.Bool("clamp", false, "Clamp iterates to [0,1] (default on for inpaint, off for diffuse)")
	f.Int64("seed", d.Seed, "Seed for random masks and noise")
	f.Int("concurrency", d.Concurrency, "Solver runs in flight, 0 for GOMAXPROCS")
	f.StringP("out", "o", d.OutputDir, "Output directory")
	f.Bool("separate", d.Separate, "Write one file per panel instead of a composite")
	f.String("rescale", d.Rescale, "Float to 8-bit conversion: clamp or minmax")
	f.Bool("energy-plot", d.EnergyPlot, "Also write an energy-per-iteration PNG plot")
	f.Bool("energy-chart", d.EnergyChart, "Also write an interactive HTML energy chart")
}

func addMaskFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayP("mask", "m", nil,
		"Mask to apply, repeatable: random:0.5, rows, center, region:top-left, rect:x1,y1,x2,y2, or demo for the four reference masks")
}

// maskFlags parses the --mask values. "demo" expands to masking.DemoSpecs.
func maskFlags(cmd *cobra.Command) ([]masking.Spec, error) {
	values, err := cmd.Flags().GetStringArray("mask")
	if err != nil {
		return nil, err
	}
	var specs []masking.Spec
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), "demo") {
			specs = append(specs, masking.DemoSpecs()...)
			continue
		}
		spec, err := masking.ParseSpec(v)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// applyRunFlags copies the flags given on the command line over cfg.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var err error
	set := func(name string, apply func() error) {
		if err == nil && f.Changed(name) {
			err = apply()
		}
	}
	set("iterations", func() (e error) { cfg.Iterations, e = f.GetInt("iterations"); return })
	set("lambda", func() (e error) { cfg.Lambda, e = f.GetFloat32("lambda"); return })
	set("clamp", func() error {
		v, e := f.GetBool("clamp")
		cfg.Clamp = &v
		return e
	})
	set("seed", func() (e error) { cfg.Seed, e = f.GetInt64("seed"); return })
	set("concurrency", func() (e error) { cfg.Concurrency, e = f.GetInt("concurrency"); return })
	set("out", func() (e error) { cfg.OutputDir, e = f.GetString("out"); return })
	set("separate", func() (e error) { cfg.Separate, e = f.GetBool("separate"); return })
	set("rescale", func() (e error) { cfg.Rescale, e = f.GetString("rescale"); return })
	set("energy-plot", func() (e error) { cfg.EnergyPlot, e = f.GetBool("energy-plot"); return })
	set("energy-chart", func() (e error) { cfg.EnergyChart, e = f.GetBool("energy-chart"); return })
	return err
}

// job is one solver run of a batch.
type job struct {
	label string
	input *grid.Grid
	mask  *grid.Grid
	trace *report.Trace

	restored      *grid.Grid
	before, after quality.Report
	scored        bool
	elapsed       time.Duration
}

// runBatch loads the image at path, runs every job of cfg, writes the images
// to cfg.OutputDir, records the runs and prints a quality summary to w.
func (s *settings) runBatch(ctx context.Context, cfg config.Config, path string, w io.Writer) error {
	mode, err := imaging.ParseRescaleMode(cfg.Rescale)
	if err != nil {
		return err
	}
	cache := imaging.NewImageCache()
	original, err := cache.LoadGrid(path)
	if err != nil {
		return err
	}
	jobs, err := buildJobs(cfg, original)
	if err != nil {
		return err
	}

	solver := cfg.Solver()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Workers())
	for _, j := range jobs {
		g.Go(func() error {
			return j.run(gctx, solver, original)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, j := range jobs {
		if err := j.save(filepath.Join(cfg.OutputDir, base+"_"+j.label), cfg.Separate, mode); err != nil {
			return err
		}
	}
	if cfg.EnergyPlot || cfg.EnergyChart {
		traces := make([]*report.Trace, len(jobs))
		for i, j := range jobs {
			traces[i] = j.trace
		}
		title := fmt.Sprintf("TV %s: %s", cfg.Mode, base)
		if cfg.EnergyPlot {
			plotPath := filepath.Join(cfg.OutputDir, base+"_energy.png")
			if err := report.EnergyPlot(plotPath, title, traces...); err != nil {
				return err
			}
			slog.InfoContext(ctx, "energy plot written", "path", plotPath)
		}
		if cfg.EnergyChart {
			chartPath := filepath.Join(cfg.OutputDir, base+"_energy.html")
			if err := report.EnergyChart(chartPath, title, traces...); err != nil {
				return err
			}
			slog.InfoContext(ctx, "energy chart written", "path", chartPath)
		}
	}
	recorded := cfg.Solver()
	if cfg.Mode == config.ModeInpaint {
		recorded.Lambda = 0
	}
	if err := s.record(ctx, "tvctl "+cfg.Mode, path, recorded, jobs); err != nil {
		return err
	}
	return printSummary(w, jobs)
}

// record appends jobs to the configured history, if any.
func (s *settings) record(ctx context.Context, source, image string, solver tv.Config, jobs []*job) error {
	if s.cfg.History == "" {
		return nil
	}
	store, err := history.Open(s.cfg.History)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, j := range jobs {
		run := history.Run{
			Source:     source,
			Label:      j.label,
			Image:      image,
			Iterations: solver.Iterations,
			Lambda:     solver.Lambda,
			Elapsed:    j.elapsed,
		}
		if j.scored {
			run.Before, run.After = &j.before, &j.after
		}
		id, err := store.Record(ctx, run)
		if err != nil {
			return err
		}
		slog.DebugContext(ctx, "run recorded", "run", j.label, "id", id)
	}
	return nil
}

func buildJobs(cfg config.Config, original *grid.Grid) ([]*job, error) {
	diffuse := cfg.Mode == config.ModeDiffuse
	if diffuse && !cfg.DiffuseMasked {
		j := &job{label: "diffuse", input: original}
		if cfg.Noise > 0 {
			noisy, err := dctdenoise.AddNoise(original, cfg.Noise, rand.New(rand.NewSource(cfg.Seed)))
			if err != nil {
				return nil, err
			}
			j.input, j.scored = noisy, true
		}
		j.trace = diffusionTrace(cfg, j.label, j.input)
		return []*job{j}, nil
	}

	jobs := make([]*job, 0, len(cfg.Masks))
	for i, spec := range cfg.Masks {
		// Each mask draws from its own stream so results do not depend on
		// scheduling.
		rng := rand.New(rand.NewSource(cfg.Seed + int64(i)))
		mask, err := spec.Build(original.Rows(), original.Cols(), rng)
		if err != nil {
			return nil, fmt.Errorf("mask %s: %w", spec, err)
		}
		masked, err := masking.Apply(original, mask)
		if err != nil {
			return nil, err
		}
		j := &job{label: fmt.Sprintf("%02d-%s", i, spec), input: masked, scored: true}
		if diffuse {
			if cfg.Noise > 0 {
				if j.input, err = dctdenoise.AddNoise(masked, cfg.Noise, rng); err != nil {
					return nil, err
				}
			}
			j.trace = diffusionTrace(cfg, spec.String(), j.input)
		} else {
			j.mask = mask
			if cfg.EnergyPlot || cfg.EnergyChart {
				j.trace = report.NewTrace(spec.String(), func(u *grid.Grid) (float64, error) {
					return tv.InpaintingEnergy(u, masked, mask)
				})
			}
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// diffusionTrace returns nil unless cfg asks for an energy plot or chart.
func diffusionTrace(cfg config.Config, label string, input *grid.Grid) *report.Trace {
	if !cfg.EnergyPlot && !cfg.EnergyChart {
		return nil
	}
	return report.NewTrace(label, func(u *grid.Grid) (float64, error) {
		return tv.DiffusionEnergy(u, input, cfg.Lambda)
	})
}

func (j *job) run(ctx context.Context, solver tv.Config, original *grid.Grid) error {
	ctx = logging.AppendCtx(ctx, slog.String("run", j.label))
	if j.trace != nil {
		solver.Observer = j.trace.Observer()
	}
	start := time.Now()

	var err error
	if j.mask != nil {
		j.restored, err = tv.Inpaint(ctx, j.input, j.mask, solver)
	} else {
		j.restored, err = tv.Diffuse(ctx, j.input, solver)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", j.label, err)
	}
	j.elapsed = time.Since(start)
	if !j.scored {
		slog.InfoContext(ctx, "restored", "elapsed", j.elapsed)
		return nil
	}

	if j.before, err = quality.Compare(j.input, original, nil); err != nil {
		return err
	}
	if j.after, err = quality.Compare(j.restored, original, nil); err != nil {
		return err
	}
	slog.InfoContext(ctx, "restored",
		"elapsed", j.elapsed,
		"psnr_before", j.before.PSNR,
		"psnr_after", j.after.PSNR,
		"mse_after", j.after.MSE,
	)
	return nil
}

// save writes the input and the restoration under prefix, either as one
// composite or as two files.
func (j *job) save(prefix string, separate bool, mode imaging.RescaleMode) error {
	in, err := imaging.FromGrid(j.input, mode)
	if err != nil {
		return err
	}
	out, err := imaging.FromGrid(j.restored, mode)
	if err != nil {
		return err
	}
	if separate {
		if err := imaging.SavePNG(prefix+"_input.png", in); err != nil {
			return err
		}
		return imaging.SavePNG(prefix+"_restored.png", out)
	}
	composite, err := imaging.SideBySide(compositeGap, in, out)
	if err != nil {
		return err
	}
	return imaging.SavePNG(prefix+".png", composite)
}

// compositeGap separates the panels of a composite, in pixels.
const compositeGap = 4

func printSummary(w io.Writer, jobs []*job) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tMSE IN\tMSE OUT\tSNR OUT\tPSNR IN\tPSNR OUT")
	for _, j := range jobs {
		if !j.scored {
			fmt.Fprintf(tw, "%s\t-\t-\t-\t-\t-\n", j.label)
			continue
		}
		fmt.Fprintf(tw, "%s\t%.5f\t%.5f\t%.2f\t%.2f\t%.2f\n",
			j.label, j.before.MSE, j.after.MSE, j.after.SNR, j.before.PSNR, j.after.PSNR)
	}
	return tw.Flush()
}
