package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/tv-restore-mcp/internal/history"
	"github.com/ironsheep/tv-restore-mcp/internal/logging"
	"github.com/ironsheep/tv-restore-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("tv-restore-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("tv-restore-mcp - MCP server for total-variation image restoration")
			fmt.Println()
			fmt.Println("Usage: tv-restore-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  TVR_LOG_LEVEL=debug    Log level (debug, info, warn, error)")
			fmt.Println("  TVR_LOG_JSON=1         Log as JSON lines")
			fmt.Println("  TVR_HISTORY=runs.db    Record restoration runs in this SQLite file")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	os.Exit(run(os.Stdin, os.Stdout, os.Getenv))
}

// run serves MCP on in and out until in closes or a signal arrives, and
// returns the process exit code. Deferred cleanup finishes before main exits.
func run(in io.Reader, out io.Writer, getenv func(string) string) int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Logs go to stderr, stdout is for MCP protocol
	level := slog.LevelWarn
	if name := getenv("TVR_LOG_LEVEL"); name != "" {
		if l, ok := logging.ParseLevel(name); ok {
			level = l
		}
	}
	slog.SetDefault(logging.Logger(os.Stderr, getenv("TVR_LOG_JSON") != "", level))
	ctx = logging.AppendCtx(ctx, slog.String("app", "tv-restore-mcp"))

	server.Version = Version
	slog.DebugContext(ctx, "starting", "version", Version, "built", BuildTime, "commit", GitCommit)

	srv := server.New()
	if path := getenv("TVR_HISTORY"); path != "" {
		store, err := history.Open(path)
		if err != nil {
			slog.ErrorContext(ctx, "history unavailable", "error", err)
			return 1
		}
		defer func() {
			if err := store.Close(); err != nil {
				slog.ErrorContext(ctx, "failed to close history", "error", err)
			}
		}()
		srv.SetHistory(store)
	}
	if err := srv.Serve(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		slog.ErrorContext(ctx, "server error", "error", err)
		return 1
	}
	return 0
}
