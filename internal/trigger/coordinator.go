// Package trigger connects detections to clip production: a bounded
// worker pool that waits out the post-event window, stitches a clip and
// hands it to the collector, plus the local HTTP endpoint and client
// that carry triggers between processes.
package trigger

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/saicharan2011-ops/EchoAlert/internal/collector"
	"github.com/saicharan2011-ops/EchoAlert/internal/config"
)

// Event is one detection to turn into a clip.
type Event struct {
	ID         string
	Type       string
	Timestamp  time.Time
	LocationID string
}

// Stitcher assembles the clip for an event window.
type Stitcher interface {
	Stitch(ctx context.Context, id string, triggerTime time.Time, pre, post time.Duration) (string, error)
}

// Uploader ships a finished clip to the collector.
type Uploader interface {
	UploadEvent(ctx context.Context, clipPath string, meta collector.EventMeta) error
}

// Coordinator runs a fixed pool of workers over a bounded queue. Enqueue
// never blocks: when the queue is full the event is dropped and counted,
// so a slow stitch or upload cannot back-pressure the audio path.
type Coordinator struct {
	queue   chan Event
	stitch  Stitcher
	upload  Uploader
	log     *slog.Logger
	delay   time.Duration
	pre     time.Duration
	post    time.Duration
	wg      sync.WaitGroup
	dropped atomic.Int64

	mu     sync.Mutex
	closed bool
}

// NewCoordinator builds the pool and starts its workers.
func NewCoordinator(cfg config.Config, stitch Stitcher, upload Uploader, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		queue:  make(chan Event, cfg.TriggerQueueDepth),
		stitch: stitch,
		upload: upload,
		log:    logger.With("component", "coordinator"),
		delay:  cfg.StitchDelay(),
		pre:    cfg.PreWindow(),
		post:   cfg.PostWindow(),
	}
	for i := 0; i < cfg.TriggerWorkers; i++ {
		c.wg.Add(1)
		go c.worker()
	}
	return c
}

// Enqueue hands an event to the pool, minting an ID when the caller did
// not supply one. Returns false when the event was dropped: the queue
// was full, or Close has already been called. Safe to call concurrently
// with Close, since a detection can still be in flight while the
// process shuts down.
func (c *Coordinator) Enqueue(ev Event) bool {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.log.Warn("coordinator closed, event dropped",
			"type", ev.Type, "event_id", ev.ID)
		return false
	}
	select {
	case c.queue <- ev:
		return true
	default:
		n := c.dropped.Add(1)
		c.log.Warn("trigger queue full, event dropped",
			"type", ev.Type, "event_id", ev.ID, "dropped_total", n)
		return false
	}
}

// Dropped returns how many events have been dropped by a full queue.
func (c *Coordinator) Dropped() int64 {
	return c.dropped.Load()
}

// Close stops accepting events and waits for queued work to finish.
// Events arriving after Close are dropped, not panicked on. Idempotent.
func (c *Coordinator) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Coordinator) worker() {
	defer c.wg.Done()
	for ev := range c.queue {
		c.process(ev)
	}
}

// process waits out the post-event window so the buffer holds the
// trailing segments, then stitches and uploads. Failures end the event
// here: segments age out of the buffer, so a retry later would stitch a
// different (or empty) window.
func (c *Coordinator) process(ev Event) {
	time.Sleep(c.delay)

	ctx := context.Background()
	clip, err := c.stitch.Stitch(ctx, ev.ID, ev.Timestamp, c.pre, c.post)
	if err != nil {
		c.log.Error("stitch failed", "event_id", ev.ID, "error", err)
		return
	}
	if clip == "" {
		c.log.Warn("no clip produced for event", "event_id", ev.ID, "type", ev.Type)
		return
	}

	meta := collector.EventMeta{
		Type:       ev.Type,
		LocationID: ev.LocationID,
		Timestamp:  ev.Timestamp,
	}
	if err := c.upload.UploadEvent(ctx, clip, meta); err != nil {
		c.log.Error("upload failed, clip kept on disk",
			"event_id", ev.ID, "clip", clip, "error", err)
	}
}
