// Package audio implements the streaming classifier: a sliding window over
// the microphone stream, gated by energy and cooldown, classified by
// nearest-neighbor lookup against the exemplar memory.
package audio

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/saicharan2011-ops/EchoAlert/internal/config"
	"github.com/saicharan2011-ops/EchoAlert/internal/exemplar"
	"github.com/saicharan2011-ops/EchoAlert/internal/extractor"
)

// Result is one processed classification: the nearest exemplar's label
// (or "normal"), its similarity, and the window energy that passed the
// gate.
type Result struct {
	Label      string
	Similarity float64
	Energy     float64
	Timestamp  time.Time
}

// Classifier holds the sliding window and the gating state. A block
// either updates the window silently (energy gate or cooldown gate
// closed, or a near-duplicate of the previous window) or produces exactly
// one Result. Not safe for concurrent use; one goroutine feeds it.
type Classifier struct {
	ext extractor.Extractor
	mem *exemplar.Memory
	log *slog.Logger

	stride       int
	silenceRMS   float64
	simThreshold float64
	dupThreshold float64
	cooldown     time.Duration

	window        []float32
	lastProcessed time.Time
	lastEmbedding []float32

	clock func() time.Time
}

// NewClassifier builds a Classifier from the configuration. The
// microphone rate must be an integer multiple of the extractor's expected
// rate, since downsampling is fixed-stride decimation.
func NewClassifier(cfg config.Config, ext extractor.Extractor, mem *exemplar.Memory, logger *slog.Logger) (*Classifier, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MicSampleRate%extractor.ExpectedSampleRate != 0 {
		return nil, fmt.Errorf("audio: mic sample rate %d is not a multiple of %d",
			cfg.MicSampleRate, extractor.ExpectedSampleRate)
	}

	return &Classifier{
		ext:          ext,
		mem:          mem,
		log:          logger.With("component", "classifier"),
		stride:       cfg.MicSampleRate / extractor.ExpectedSampleRate,
		silenceRMS:   cfg.SilenceRMS,
		simThreshold: cfg.SimilarityThreshold,
		dupThreshold: cfg.DuplicateThreshold,
		cooldown:     cfg.Cooldown(),
		window:       make([]float32, cfg.WindowSamples()),
		clock:        time.Now,
	}, nil
}

// Feed slides block into the window and runs the gate chain. It returns
// nil when the block was absorbed without a classification: window energy
// below the silence threshold, cooldown still active, or the window is a
// near-duplicate of the previously classified one (a sustained tone must
// not re-trigger).
func (c *Classifier) Feed(block []float32) (*Result, error) {
	c.slide(block)

	energy := RMS(c.window)
	if energy < c.silenceRMS {
		return nil, nil
	}

	now := c.clock()
	if now.Sub(c.lastProcessed) < c.cooldown {
		return nil, nil
	}

	embedding, err := c.ext.Extract(Decimate(c.window, c.stride))
	if err != nil {
		return nil, fmt.Errorf("audio: extract embedding: %w", err)
	}

	// Duplicate suppression leaves the cooldown anchor untouched: the
	// repeat is not a processed classification.
	if c.lastEmbedding != nil &&
		exemplar.CosineSimilarity(embedding, c.lastEmbedding) > c.dupThreshold {
		c.log.Debug("near-duplicate window suppressed")
		return nil, nil
	}
	c.lastEmbedding = embedding

	label, sim := c.mem.Classify(embedding, c.simThreshold)
	c.lastProcessed = now

	return &Result{
		Label:      label,
		Similarity: sim,
		Energy:     energy,
		Timestamp:  now,
	}, nil
}

// slide shifts the window left by len(block) and appends the block. A
// block longer than the window keeps only its tail.
func (c *Classifier) slide(block []float32) {
	if len(block) >= len(c.window) {
		copy(c.window, block[len(block)-len(c.window):])
		return
	}
	copy(c.window, c.window[len(block):])
	copy(c.window[len(c.window)-len(block):], block)
}
