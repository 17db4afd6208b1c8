package cmd

import (
	"context"
	"fmt"
	"math"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/tv-restore-mcp/internal/history"
	"github.com/ironsheep/tv-restore-mcp/internal/quality"
)

// NewHistoryCmd lists recorded runs.
func NewHistoryCmd(ctx context.Context, s *settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "list recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if s.cfg.History == "" {
				return fmt.Errorf("no history file, use --history or set history in the config")
			}
			limit, _ := cmd.Flags().GetInt("limit")
			store, err := history.Open(s.cfg.History)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "WHEN\tSOURCE\tRUN\tIMAGE\tK\tPSNR IN\tPSNR OUT\tELAPSED\tID")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\t%s\t%s\n",
					r.CreatedAt.Format(time.DateTime), r.Source, r.Label, r.Image, r.Iterations,
					psnr(r.Before), psnr(r.After), r.Elapsed, r.ID)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntP("limit", "n", 20, "Number of runs to show")
	return cmd
}

func psnr(rep *quality.Report) string {
	switch {
	case rep == nil:
		return "-"
	case math.IsInf(rep.PSNR, 1):
		return "inf"
	}
	return fmt.Sprintf("%.2f", rep.PSNR)
}
