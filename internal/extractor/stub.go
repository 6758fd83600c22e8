package extractor

import "math"

// StubDim is the embedding dimensionality of the stub extractor.
const StubDim = 16

// StubExtractor derives a deterministic embedding from the window itself:
// the RMS energy of StubDim equal sub-bands, L2-normalized. Identical
// windows produce identical embeddings, and windows with different energy
// shapes diverge, which is all the classifier tests need. It never sees a
// real model.
type StubExtractor struct{}

// NewStubExtractor creates a StubExtractor.
func NewStubExtractor() *StubExtractor {
	return &StubExtractor{}
}

// Extract computes the band-energy embedding. A silent window yields the
// zero vector.
func (e *StubExtractor) Extract(window []float32) ([]float32, error) {
	vec := make([]float32, StubDim)
	if len(window) == 0 {
		return vec, nil
	}

	band := len(window) / StubDim
	if band == 0 {
		band = 1
	}
	for i := 0; i < StubDim; i++ {
		start := i * band
		if start >= len(window) {
			break
		}
		end := start + band
		if i == StubDim-1 || end > len(window) {
			end = len(window)
		}
		var sum float64
		for _, s := range window[start:end] {
			sum += float64(s) * float64(s)
		}
		vec[i] = float32(math.Sqrt(sum / float64(end-start)))
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := 1 / math.Sqrt(norm)
		for i := range vec {
			vec[i] = float32(float64(vec[i]) * inv)
		}
	}
	return vec, nil
}

// Dim returns StubDim.
func (e *StubExtractor) Dim() int { return StubDim }

// Close is a no-op for the stub extractor.
func (e *StubExtractor) Close() error { return nil }
