package video

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/saicharan2011-ops/EchoAlert/internal/buffer"
	"github.com/saicharan2011-ops/EchoAlert/internal/config"
)

// cameraRetryEvery is how many simulated chunks pass before the recorder
// tries the real device again.
const cameraRetryEvery = 30

// Recorder fills the segment store with one chunk per ChunkDuration. A
// failing camera degrades to synthesized placeholder segments rather
// than stopping: buffer continuity matters more than picture content.
type Recorder struct {
	store  *buffer.Store
	dir    string
	device string
	chunk  time.Duration
	run    Runner
	log    *slog.Logger
	clock  func() time.Time

	simulated  bool
	sinceRetry int
}

// NewRecorder prepares the buffer directory and returns a recorder
// writing into it.
func NewRecorder(cfg config.Config, store *buffer.Store, logger *slog.Logger) (*Recorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.BufferDir, 0o755); err != nil {
		return nil, fmt.Errorf("video: create buffer dir: %w", err)
	}
	return &Recorder{
		store:  store,
		dir:    cfg.BufferDir,
		device: cfg.CameraDevice,
		chunk:  cfg.Chunk(),
		run:    RunFFmpeg,
		log:    logger.With("component", "recorder"),
		clock:  time.Now,
	}, nil
}

// Run records chunks until ctx is canceled.
func (r *Recorder) Run(ctx context.Context) error {
	r.log.Info("recording started", "device", r.device, "chunk", r.chunk)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := r.clock()
		if err := r.recordChunk(ctx, start); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.log.Warn("chunk failed", "error", err)
		}
		if !r.sleepUntil(ctx, start.Add(r.chunk)) {
			return ctx.Err()
		}
	}
}

// recordChunk captures (or synthesizes) one segment and appends it.
func (r *Recorder) recordChunk(ctx context.Context, start time.Time) error {
	path := filepath.Join(r.dir, fmt.Sprintf("seg_%d.mp4", start.UnixMilli()))

	if r.simulated {
		r.sinceRetry++
		if r.sinceRetry >= cameraRetryEvery {
			r.sinceRetry = 0
			if err := r.run(ctx, captureArgs(r.device, r.chunk, path)); err == nil {
				r.simulated = false
				r.log.Info("camera recovered", "device", r.device)
				r.append(start, path)
				return nil
			}
		}
		if err := r.run(ctx, simulationArgs(r.chunk, start, path)); err != nil {
			return err
		}
		r.append(start, path)
		return nil
	}

	if err := r.run(ctx, captureArgs(r.device, r.chunk, path)); err != nil {
		r.simulated = true
		r.sinceRetry = 0
		r.log.Warn("camera unavailable, switching to simulated segments",
			"device", r.device, "error", err)
		if simErr := r.run(ctx, simulationArgs(r.chunk, start, path)); simErr != nil {
			return simErr
		}
	}
	r.append(start, path)
	return nil
}

func (r *Recorder) append(start time.Time, path string) {
	r.store.Append(buffer.Segment{Timestamp: start, Path: path, Duration: r.chunk})
}

// sleepUntil paces the loop to real chunk boundaries. A capture that ran
// the full chunk length sleeps close to zero; a synthesized segment
// renders instantly and sleeps nearly the whole chunk.
func (r *Recorder) sleepUntil(ctx context.Context, deadline time.Time) bool {
	wait := deadline.Sub(r.clock())
	if wait <= 0 {
		return true
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
