package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saicharan2011-ops/EchoAlert/internal/audio"
	"github.com/saicharan2011-ops/EchoAlert/internal/collector"
	"github.com/saicharan2011-ops/EchoAlert/internal/exemplar"
	"github.com/saicharan2011-ops/EchoAlert/internal/trigger"
)

func newListenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Classify the microphone stream and dispatch triggers over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			mem, err := exemplar.Load(cfg.MemoryPath)
			if err != nil {
				return err
			}
			logger.Info("exemplar memory loaded", "path", cfg.MemoryPath, "exemplars", mem.Len())

			ext, kind, err := selectExtractor(cfg, logger)
			if err != nil {
				return err
			}
			defer ext.Close()

			cls, err := audio.NewClassifier(cfg, ext, mem, logger)
			if err != nil {
				return err
			}

			src, err := audio.NewFFmpegSource(cfg.AudioDevice, cfg.MicSampleRate, cfg.BlockSamples(), logger)
			if err != nil {
				return err
			}
			defer src.Close()

			sink := &remoteSink{
				client:     trigger.NewClient(cfg.TriggerURL, logger),
				col:        collector.NewClient(cfg.CollectorURL, cfg.UploadTimeout(), cfg.HeartbeatTimeout(), logger),
				locationID: cfg.LocationID,
				log:        logger.With("component", "dispatch"),
			}

			logger.Info("starting listen process",
				"extractor", kind,
				"trigger_url", cfg.TriggerURL,
				"collector_url", cfg.CollectorURL,
			)
			err = audio.NewMonitor(src, cls, sink, logger).Run(ctx)
			if errors.Is(err, context.Canceled) {
				err = nil
			}
			logger.Info("listen process stopped")
			return err
		},
	}
}
