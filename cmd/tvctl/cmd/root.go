package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/tv-restore-mcp/internal/config"
	"github.com/ironsheep/tv-restore-mcp/internal/logging"
)

// settings is shared by the subcommands of one root.
type settings struct {
	cfg     config.Config
	logSink io.Closer
}

func NewRoot(ctx context.Context, gitsha string) *cobra.Command {
	s := &settings{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:          "tvctl",
		Short:        "total-variation restoration of grayscale images",
		Long:         "tvctl inpaints masked images and denoises noisy ones with a primal-dual TV solver, writing composites and quality scores.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return s.setup(ctx, cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if s.logSink != nil {
				s.logSink.Close()
			}
		},
		Run: func(cmd *cobra.Command, args []string) {
			printCommandTree(cmd.OutOrStdout(), cmd, 0)
		},
	}
	cmd.AddCommand(
		NewVersionCmd(ctx, gitsha),
		NewInpaintCmd(ctx, s),
		NewDiffuseCmd(ctx, s),
		NewDenoiseDCTCmd(ctx, s),
		NewCompareCmd(ctx),
		NewHistoryCmd(ctx, s),
	)
	pf := cmd.PersistentFlags()
	pf.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR), overrides the config file")
	pf.String("log-file", "", "Write logs to this rotating file instead of stderr")
	pf.Bool("log-json", false, "Log as JSON lines")
	pf.StringP("config", "c", "", "YAML run configuration")
	pf.String("history", "", "SQLite file to record runs in, overrides the config file")
	return cmd
}

// setup loads the configuration file and installs the default logger.
func (s *settings) setup(ctx context.Context, cmd *cobra.Command) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return err
		}
		s.cfg = cfg
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		s.cfg.Log.Level, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-file") {
		s.cfg.Log.File.Path, _ = flags.GetString("log-file")
	}
	if flags.Changed("log-json") {
		s.cfg.Log.JSON, _ = flags.GetBool("log-json")
	}
	if flags.Changed("history") {
		s.cfg.History, _ = flags.GetString("history")
	}

	var w io.Writer = cmd.ErrOrStderr()
	if s.cfg.Log.File.Path != "" {
		sink := logging.RotatingFile(s.cfg.Log.File)
		s.logSink = sink
		w = sink
	}
	level, ok := logging.ParseLevel(s.cfg.Log.Level)
	slog.SetDefault(logging.Logger(w, s.cfg.Log.JSON, level))
	if !ok && s.cfg.Log.Level != "" {
		slog.WarnContext(ctx, "Invalid log level, defaulting to INFO", "level", s.cfg.Log.Level)
	}
	return nil
}

func printCommandTree(w io.Writer, cmd *cobra.Command, indent int) {
	fmt.Fprintln(w, strings.Repeat("\t", indent), cmd.Use+":", cmd.Short)
	for _, subCmd := range cmd.Commands() {
		printCommandTree(w, subCmd, indent+1)
	}
}

func NewVersionCmd(ctx context.Context, gitsha string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "git sha for this build",
		Long:  "git sha for this build",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), gitsha)
		},
	}
	return cmd
}

// imageArg returns the single image path of args after checking it exists.
func imageArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("%s needs exactly one image path", cmd.Name())
	}
	if _, err := os.Stat(args[0]); err != nil {
		return "", fmt.Errorf("input image: %w", err)
	}
	return args[0], nil
}
