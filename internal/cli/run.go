package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/saicharan2011-ops/EchoAlert/internal/audio"
	"github.com/saicharan2011-ops/EchoAlert/internal/buffer"
	"github.com/saicharan2011-ops/EchoAlert/internal/collector"
	"github.com/saicharan2011-ops/EchoAlert/internal/exemplar"
	"github.com/saicharan2011-ops/EchoAlert/internal/trigger"
	"github.com/saicharan2011-ops/EchoAlert/internal/video"
)

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the recorder and the classifier in one process",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}

			store := buffer.NewStore(cfg.BufferAge(), cfg.MaxBufferFiles, logger)
			rec, err := video.NewRecorder(cfg, store, logger)
			if err != nil {
				return err
			}
			stitcher := video.NewStitcher(cfg, store, logger)
			client := collector.NewClient(cfg.CollectorURL, cfg.UploadTimeout(), cfg.HeartbeatTimeout(), logger)
			coord := trigger.NewCoordinator(cfg, stitcher, client, logger)

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

			sink := &localSink{coord: coord, col: client, locationID: cfg.LocationID}

			logger.Info("starting combined process",
				"extractor", kind,
				"device", cfg.CameraDevice,
				"collector_url", cfg.CollectorURL,
			)

			recorderErr := make(chan error, 1)
			go func() { recorderErr <- rec.Run(ctx) }()
			monitorErr := make(chan error, 1)
			go func() { monitorErr <- audio.NewMonitor(src, cls, sink, logger).Run(ctx) }()

			var runErr error
			monitorDone := false
			select {
			case <-ctx.Done():
			case runErr = <-recorderErr:
			case runErr = <-monitorErr:
				monitorDone = true
			}
			if errors.Is(runErr, context.Canceled) {
				runErr = nil
			}

			logger.Info("stopping")
			// The monitor must be fully stopped before the coordinator:
			// it may still be dispatching an in-flight detection.
			stop()
			src.Close()
			if !monitorDone {
				<-monitorErr
			}
			coord.Close()
			logger.Info("stopped")
			return runErr
		},
	}
}
