package extractor

import (
	"math"
	"testing"
)

func TestStubExtractorDeterministic(t *testing.T) {
	e := NewStubExtractor()

	window := make([]float32, 4800)
	for i := range window {
		window[i] = float32(math.Sin(float64(i) / 7))
	}

	a, err := e.Extract(window)
	if err != nil {
		t.Fatal(err)
	}
	b, err := e.Extract(window)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != StubDim || len(a) != e.Dim() {
		t.Fatalf("embedding length = %d, want %d", len(a), StubDim)
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("embedding differs at %d for identical windows: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestStubExtractorUnitNorm(t *testing.T) {
	e := NewStubExtractor()

	window := make([]float32, 1600)
	for i := range window {
		window[i] = float32(i%13) / 13
	}
	vec, err := e.Extract(window)
	if err != nil {
		t.Fatal(err)
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Errorf("squared norm = %v, want 1", norm)
	}
}

func TestStubExtractorSilence(t *testing.T) {
	e := NewStubExtractor()

	vec, err := e.Extract(make([]float32, 1600))
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range vec {
		if v != 0 {
			t.Fatalf("silent window produced nonzero component %v at %d", v, i)
		}
	}
}

func TestStubExtractorDifferentShapesDiverge(t *testing.T) {
	e := NewStubExtractor()

	front := make([]float32, 1600)
	back := make([]float32, 1600)
	for i := 0; i < 800; i++ {
		front[i] = 0.5
		back[800+i] = 0.5
	}

	a, _ := e.Extract(front)
	b, _ := e.Extract(back)

	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot > 0.5 {
		t.Errorf("energy in opposite halves should give dissimilar embeddings, dot = %v", dot)
	}
}
