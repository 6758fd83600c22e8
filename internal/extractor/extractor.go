// Package extractor defines the embedding-model boundary: a function from
// one fixed-length audio window to a feature vector. The production
// backend runs YAMNet through ONNX Runtime behind the yamnet build tag;
// the stub backend is deterministic and model-free, for tests and for
// running without the ONNX Runtime library installed.
package extractor

// ExpectedSampleRate is the sample rate of the audio window handed to
// Extract. Callers decimate microphone audio down to this rate.
const ExpectedSampleRate = 16000

// Extractor computes an embedding vector for one audio window.
// Implementations are not required to be safe for concurrent use; the
// classification loop is single-threaded.
type Extractor interface {
	// Extract returns the embedding for a window of samples in [-1, 1]
	// sampled at ExpectedSampleRate.
	Extract(window []float32) ([]float32, error)
	// Dim returns the embedding dimensionality.
	Dim() int
	// Close releases resources.
	Close() error
}
