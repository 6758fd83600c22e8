//go:build !yamnet

package extractor

import "errors"

// ErrNativeUnavailable indicates the YAMNet backend is not compiled in.
var ErrNativeUnavailable = errors.New("extractor: yamnet backend not available (build without -tags yamnet)")

// NativeAvailable reports that no native extractor is compiled in.
func NativeAvailable() bool { return false }

// NewNativeExtractor returns an error when built without the yamnet tag.
func NewNativeExtractor(_ string) (Extractor, error) {
	return nil, ErrNativeUnavailable
}
