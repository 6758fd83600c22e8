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

// ConcatFunc joins the given segment files, in order, into outPath.
type ConcatFunc func(ctx context.Context, segments []string, outPath string) error

// FFmpegConcat is the production ConcatFunc: a concat-demuxer list file
// and a stream copy, no re-encode. The first segment's stream parameters
// are the implicit target; a camera that changed resolution mid-buffer
// will produce a clip that some players refuse.
func FFmpegConcat(ctx context.Context, segments []string, outPath string) error {
	list, err := os.CreateTemp(filepath.Dir(outPath), "concat_*.txt")
	if err != nil {
		return fmt.Errorf("video: concat list: %w", err)
	}
	defer os.Remove(list.Name())

	for _, seg := range segments {
		abs, err := filepath.Abs(seg)
		if err != nil {
			abs = seg
		}
		if _, err := fmt.Fprintf(list, "file '%s'\n", abs); err != nil {
			list.Close()
			return fmt.Errorf("video: concat list: %w", err)
		}
	}
	if err := list.Close(); err != nil {
		return fmt.Errorf("video: concat list: %w", err)
	}

	return RunFFmpeg(ctx, concatArgs(list.Name(), outPath))
}

// Stitcher assembles event clips from the segment buffer.
type Stitcher struct {
	store        *buffer.Store
	dir          string
	minClipBytes int64
	concat       ConcatFunc
	log          *slog.Logger
}

// NewStitcher returns a stitcher writing clips into the buffer directory.
func NewStitcher(cfg config.Config, store *buffer.Store, logger *slog.Logger) *Stitcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stitcher{
		store:        store,
		dir:          cfg.BufferDir,
		minClipBytes: cfg.MinClipBytes,
		concat:       FFmpegConcat,
		log:          logger.With("component", "stitcher"),
	}
}

// Stitch concatenates every buffered segment overlapping the window
// [triggerTime-pre, triggerTime+post] into event_<id>.mp4 and returns
// its path. An empty buffer window returns ("", nil): no clip is a
// valid outcome, not a failure.
func (s *Stitcher) Stitch(ctx context.Context, id string, triggerTime time.Time, pre, post time.Duration) (string, error) {
	winStart := triggerTime.Add(-pre)
	winEnd := triggerTime.Add(post)

	var selected []string
	for _, seg := range s.store.Snapshot() {
		// A segment covering [ts, ts+d) overlaps the window when it ends
		// after the window opens and starts no later than the window
		// closes.
		if seg.End().After(winStart) && !seg.Timestamp.After(winEnd) {
			selected = append(selected, seg.Path)
		}
	}
	if len(selected) == 0 {
		s.log.Warn("no buffered segments overlap event window",
			"trigger", triggerTime, "window_start", winStart, "window_end", winEnd)
		return "", nil
	}

	outPath := filepath.Join(s.dir, "event_"+id+".mp4")
	if err := s.concat(ctx, selected, outPath); err != nil {
		return "", fmt.Errorf("video: stitch %d segments: %w", len(selected), err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", fmt.Errorf("video: stitched clip missing: %w", err)
	}
	if info.Size() < s.minClipBytes {
		s.log.Warn("stitched clip suspiciously small",
			"path", outPath, "bytes", info.Size(), "min_bytes", s.minClipBytes)
	}

	s.log.Info("event clip stitched",
		"path", outPath, "segments", len(selected), "bytes", info.Size())
	return outPath, nil
}
