package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/tv-restore-mcp/internal/grid"
	"github.com/ironsheep/tv-restore-mcp/internal/imaging"
	"github.com/ironsheep/tv-restore-mcp/internal/quality"
)

// NewCompareCmd scores one image against a reference.
func NewCompareCmd(ctx context.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <image> <reference>",
		Short: "MSE, SNR and PSNR of an image against a reference",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cache := imaging.NewImageCache()
			test, err := cache.LoadGrid(args[0])
			if err != nil {
				return err
			}
			ref, err := cache.LoadGrid(args[1])
			if err != nil {
				return err
			}
			var mask *grid.Grid
			if maskPath, _ := cmd.Flags().GetString("mask"); maskPath != "" {
				if mask, err = cache.LoadGrid(maskPath); err != nil {
					return err
				}
			}
			peak, _ := cmd.Flags().GetFloat64("peak")

			rep, err := quality.Compare(test, ref, mask)
			if err != nil {
				return err
			}
			if peak != quality.DefaultPeak {
				if rep.PSNR, err = quality.PSNR(test, ref, mask, peak); err != nil {
					return err
				}
			}
			switch format, _ := cmd.Flags().GetString("format"); format {
			case "text":
				fmt.Fprintf(cmd.OutOrStdout(), "MSE:  %.6f\nSNR:  %.3f\nPSNR: %.3f\n", rep.MSE, rep.SNR, rep.PSNR)
			default:
				j, err := json.Marshal(rep)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(j))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.String("mask", "", "Only score cells where this image is nonzero")
	f.Float64("peak", 1.0, "Peak intensity for PSNR, images are scaled to [0,1]")
	f.StringP("format", "f", "json", "output format (text|json)")
	return cmd
}
