package audio

import (
	"errors"
	"testing"
	"time"

	"github.com/saicharan2011-ops/EchoAlert/internal/config"
	"github.com/saicharan2011-ops/EchoAlert/internal/exemplar"
)

// scriptedExtractor returns canned embeddings in order, cycling. It also
// counts invocations so tests can assert the gates short-circuit.
type scriptedExtractor struct {
	vecs  [][]float32
	calls int
}

func (e *scriptedExtractor) Extract(_ []float32) ([]float32, error) {
	if len(e.vecs) == 0 {
		return nil, errors.New("scripted extractor has no vectors")
	}
	v := e.vecs[e.calls%len(e.vecs)]
	e.calls++
	return v, nil
}

func (e *scriptedExtractor) Dim() int {
	if len(e.vecs) == 0 {
		return 0
	}
	return len(e.vecs[0])
}

func (e *scriptedExtractor) Close() error { return nil }

// testConfig shrinks the window so tests push a few hundred samples, not
// seconds of audio.
func testConfig() config.Config {
	cfg := config.Default()
	cfg.MicSampleRate = 16000
	cfg.WindowSeconds = 0.01 // 160 samples
	cfg.BlockSeconds = 0.005 // 80 samples
	return cfg
}

func loudBlock(n int) []float32 {
	block := make([]float32, n)
	for i := range block {
		if i%2 == 0 {
			block[i] = 0.5
		} else {
			block[i] = -0.5
		}
	}
	return block
}

// newTestClassifier returns a classifier with a controllable clock.
func newTestClassifier(t *testing.T, cfg config.Config, ext *scriptedExtractor, mem *exemplar.Memory, now *time.Time) *Classifier {
	t.Helper()
	cls, err := NewClassifier(cfg, ext, mem, nil)
	if err != nil {
		t.Fatal(err)
	}
	cls.clock = func() time.Time { return *now }
	return cls
}

func TestEnergyGateSkipsExtraction(t *testing.T) {
	cfg := testConfig()
	ext := &scriptedExtractor{vecs: [][]float32{{1, 0}}}
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, &exemplar.Memory{}, &now)

	for i := 0; i < 5; i++ {
		res, err := cls.Feed(make([]float32, cfg.BlockSamples()))
		if err != nil {
			t.Fatal(err)
		}
		if res != nil {
			t.Fatalf("silent block %d produced a classification", i)
		}
	}
	if ext.calls != 0 {
		t.Errorf("extractor ran %d times on gated input, want 0", ext.calls)
	}
}

func TestEmptyMemoryClassifiesNormal(t *testing.T) {
	cfg := testConfig()
	ext := &scriptedExtractor{vecs: [][]float32{{1, 0}}}
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, &exemplar.Memory{}, &now)

	res, err := cls.Feed(loudBlock(cfg.BlockSamples()))
	if err != nil {
		t.Fatal(err)
	}
	if res == nil {
		t.Fatal("loud block produced no classification")
	}
	if res.Label != exemplar.NormalLabel {
		t.Errorf("label = %q, want %q", res.Label, exemplar.NormalLabel)
	}
	if res.Similarity != 0.0 {
		t.Errorf("similarity = %v, want 0.0", res.Similarity)
	}
}

func TestCooldownSpacing(t *testing.T) {
	cfg := testConfig()
	cfg.CooldownSeconds = 3
	// Alternate orthogonal embeddings so duplicate suppression stays out
	// of the way.
	ext := &scriptedExtractor{vecs: [][]float32{{1, 0}, {0, 1}}}
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, &exemplar.Memory{}, &now)

	var stamps []time.Time
	feed := func() {
		res, err := cls.Feed(loudBlock(cfg.BlockSamples()))
		if err != nil {
			t.Fatal(err)
		}
		if res != nil {
			stamps = append(stamps, res.Timestamp)
		}
	}

	feed() // processed at t=0
	now = now.Add(time.Second)
	feed() // inside cooldown: absorbed
	now = now.Add(time.Second)
	feed() // still inside
	now = now.Add(1500 * time.Millisecond)
	feed() // 3.5s after the anchor: processed

	if len(stamps) != 2 {
		t.Fatalf("got %d classifications, want 2", len(stamps))
	}
	if spacing := stamps[1].Sub(stamps[0]); spacing < cfg.Cooldown() {
		t.Errorf("classifications %v apart, want at least %v", spacing, cfg.Cooldown())
	}
}

func TestDuplicateSuppression(t *testing.T) {
	cfg := testConfig()
	// Every window embeds identically; memory matches it as "scream".
	ext := &scriptedExtractor{vecs: [][]float32{{0.6, 0.8}}}
	mem := &exemplar.Memory{}
	mem.Add([]float32{0.6, 0.8}, "scream")
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, mem, &now)

	events := 0
	for i := 0; i < 4; i++ {
		res, err := cls.Feed(loudBlock(cfg.BlockSamples()))
		if err != nil {
			t.Fatal(err)
		}
		if res != nil && res.Label != exemplar.NormalLabel {
			events++
		}
		now = now.Add(cfg.Cooldown() + time.Second) // cooldown never blocks
	}
	if events != 1 {
		t.Errorf("sustained identical windows produced %d events, want 1", events)
	}
}

func TestBelowThresholdIsNormal(t *testing.T) {
	cfg := testConfig()
	cfg.SimilarityThreshold = 0.85
	ext := &scriptedExtractor{vecs: [][]float32{{1, 0}}}
	mem := &exemplar.Memory{}
	mem.Add([]float32{0, 1}, "explosion") // orthogonal: similarity 0
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, mem, &now)

	res, err := cls.Feed(loudBlock(cfg.BlockSamples()))
	if err != nil {
		t.Fatal(err)
	}
	if res == nil {
		t.Fatal("expected a classification")
	}
	if res.Label != exemplar.NormalLabel {
		t.Errorf("label = %q, want %q", res.Label, exemplar.NormalLabel)
	}
}

func TestMatchAboveThreshold(t *testing.T) {
	cfg := testConfig()
	ext := &scriptedExtractor{vecs: [][]float32{{0.6, 0.8}}}
	mem := &exemplar.Memory{}
	mem.Add([]float32{0.6, 0.8}, "gun")
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, mem, &now)

	res, err := cls.Feed(loudBlock(cfg.BlockSamples()))
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Label != "gun" {
		t.Fatalf("result = %+v, want gun", res)
	}
	if res.Similarity < cfg.SimilarityThreshold {
		t.Errorf("similarity = %v, want >= %v", res.Similarity, cfg.SimilarityThreshold)
	}
}

func TestSlideKeepsWindowTail(t *testing.T) {
	cfg := testConfig()
	ext := &scriptedExtractor{vecs: [][]float32{{1, 0}}}
	now := time.Now()
	cls := newTestClassifier(t, cfg, ext, &exemplar.Memory{}, &now)

	block := make([]float32, cfg.BlockSamples())
	for i := range block {
		block[i] = 0.25
	}
	cls.slide(block)

	n := len(cls.window)
	if cls.window[n-1] != 0.25 || cls.window[n-len(block)] != 0.25 {
		t.Error("new block missing from window tail")
	}
	if cls.window[0] != 0 {
		t.Error("window head should still hold the pre-existing samples")
	}

	// An oversized block keeps only its tail.
	big := make([]float32, n*2)
	for i := range big {
		big[i] = float32(i)
	}
	cls.slide(big)
	if cls.window[0] != float32(n) || cls.window[n-1] != float32(2*n-1) {
		t.Error("oversized block should fill the window with its tail")
	}
}

func TestNewClassifierRejectsIndivisibleRate(t *testing.T) {
	cfg := testConfig()
	cfg.MicSampleRate = 44100
	if _, err := NewClassifier(cfg, &scriptedExtractor{vecs: [][]float32{{1}}}, &exemplar.Memory{}, nil); err == nil {
		t.Fatal("expected error for 44100 Hz microphone against a 16000 Hz model")
	}
}
