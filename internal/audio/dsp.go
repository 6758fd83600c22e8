package audio

import "math"

// PCMToFloat32 converts PCM s16le bytes to float32 samples normalized to
// [-1, 1]. Divides by 32768 (not 32767) so that the full int16 range
// [-32768, 32767] maps to [-1.0, ~0.99997], keeping all values strictly
// within [-1, 1].
func PCMToFloat32(buf []byte) []float32 {
	n := len(buf) / 2
	if n == 0 {
		return nil
	}
	samples := make([]float32, n)
	for i := 0; i < n; i++ {
		u := uint16(buf[2*i]) | uint16(buf[2*i+1])<<8
		samples[i] = float32(int16(u)) / 32768.0
	}
	return samples
}

// RMS returns the root-mean-square energy of the samples.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Decimate downsamples by keeping every stride-th sample. Plain slicing,
// no anti-alias filter: fast and good enough for detection, at the cost
// of aliasing above the target Nyquist frequency.
func Decimate(samples []float32, stride int) []float32 {
	if stride <= 1 {
		return samples
	}
	out := make([]float32, 0, len(samples)/stride+1)
	for i := 0; i < len(samples); i += stride {
		out = append(out, samples[i])
	}
	return out
}

// LevelDB converts an RMS energy to the decibel figure reported in status
// heartbeats: 20·log10(rms), offset by +60 for the dashboard's scale and
// clamped at zero.
func LevelDB(rms float64) float64 {
	db := 20*math.Log10(rms+1e-6) + 60
	if db < 0 {
		return 0
	}
	return db
}
