package cli

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saicharan2011-ops/EchoAlert/internal/buffer"
	"github.com/saicharan2011-ops/EchoAlert/internal/collector"
	"github.com/saicharan2011-ops/EchoAlert/internal/trigger"
	"github.com/saicharan2011-ops/EchoAlert/internal/video"
)

func newCameraCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "camera",
		Short: "Record the rolling video buffer and serve the trigger endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			logger.Info("starting camera process",
				"device", cfg.CameraDevice,
				"buffer_dir", cfg.BufferDir,
				"listen_addr", cfg.TriggerListenAddr,
			)

			store := buffer.NewStore(cfg.BufferAge(), cfg.MaxBufferFiles, logger)
			rec, err := video.NewRecorder(cfg, store, logger)
			if err != nil {
				return err
			}
			stitcher := video.NewStitcher(cfg, store, logger)
			client := collector.NewClient(cfg.CollectorURL, cfg.UploadTimeout(), cfg.HeartbeatTimeout(), logger)
			coord := trigger.NewCoordinator(cfg, stitcher, client, logger)
			srv := trigger.NewServer(cfg.TriggerListenAddr, cfg.LocationID, coord, logger)

			serverErr := make(chan error, 1)
			go func() { serverErr <- srv.ListenAndServe() }()
			recorderErr := make(chan error, 1)
			go func() { recorderErr <- rec.Run(ctx) }()

			var runErr error
			select {
			case <-ctx.Done():
			case runErr = <-serverErr:
			case runErr = <-recorderErr:
				if errors.Is(runErr, context.Canceled) {
					runErr = nil
				}
			}

			logger.Info("camera process stopping")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
			coord.Close()
			logger.Info("camera process stopped")
			return runErr
		},
	}
}
