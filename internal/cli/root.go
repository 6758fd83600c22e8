// Package cli wires the pipeline into its three entry points: the camera
// process, the listen process, and the single-process run mode.
package cli

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saicharan2011-ops/EchoAlert/internal/config"
)

var (
	flagConfig   string
	flagLogLevel string
)

// NewRootCommand builds the echoalert command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "echoalert",
		Short: "Edge acoustic event detection with buffered video capture",
		Long: `echoalert watches a microphone for acoustic events (gunshots, screams,
glass breaks) and, on detection, cuts a video clip around the event from
a rolling on-disk buffer and ships it to the collector.

Run "camera" and "listen" as separate processes on a device, or "run"
for everything in one process.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level (debug|info|warn|error), overrides config")

	root.AddCommand(newCameraCommand())
	root.AddCommand(newListenCommand())
	root.AddCommand(newRunCommand())
	return root
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		slog.Error("fatal", "error", err)
		return 1
	}
	return 0
}

// setup loads configuration and builds the root logger shared by every
// subcommand.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.Loader{Path: flagConfig}.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	level := cfg.LogLevel
	if flagLogLevel != "" {
		level = flagLogLevel
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(level),
	}))
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func parseLevel(value string) slog.Leveler {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
