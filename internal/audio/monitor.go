package audio

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/saicharan2011-ops/EchoAlert/internal/exemplar"
)

// errorBackoff is how long the loop pauses after a failed cycle before
// reading the next block, so a persistently bad device cannot spin the CPU.
const errorBackoff = time.Second

// EventSink receives the outcome of each processed classification.
// OnEvent fires for every non-"normal" label and is called synchronously;
// OnNormal is a heartbeat opportunity and must be cheap or best-effort.
type EventSink interface {
	OnEvent(ctx context.Context, res Result)
	OnNormal(ctx context.Context, res Result)
}

// Monitor drives the classifier from a block source until the context is
// canceled or the source ends. Any error inside a cycle is logged and
// followed by a backoff; a single bad window never terminates the loop.
type Monitor struct {
	src     BlockSource
	cls     *Classifier
	sink    EventSink
	log     *slog.Logger
	backoff time.Duration
}

// NewMonitor wires a source, classifier and sink into a run loop.
func NewMonitor(src BlockSource, cls *Classifier, sink EventSink, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		src:     src,
		cls:     cls,
		sink:    sink,
		log:     logger.With("component", "monitor"),
		backoff: errorBackoff,
	}
}

// Run blocks until ctx is canceled or the source reports EOF.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info("audio monitoring started")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		block, err := m.src.ReadBlock()
		if errors.Is(err, io.EOF) {
			m.log.Info("audio stream ended")
			return nil
		}
		if err != nil {
			m.log.Warn("audio read failed", "error", err)
			if !m.pause(ctx) {
				return ctx.Err()
			}
			continue
		}

		res, err := m.cls.Feed(block)
		if err != nil {
			m.log.Warn("classification cycle failed", "error", err)
			if !m.pause(ctx) {
				return ctx.Err()
			}
			continue
		}
		if res == nil {
			continue
		}

		if res.Label == exemplar.NormalLabel {
			m.sink.OnNormal(ctx, *res)
			continue
		}
		m.log.Info("event detected",
			"label", res.Label,
			"similarity", res.Similarity,
			"energy", res.Energy,
		)
		m.sink.OnEvent(ctx, *res)
	}
}

// pause sleeps for the error backoff, returning false if ctx was canceled.
func (m *Monitor) pause(ctx context.Context) bool {
	t := time.NewTimer(m.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
