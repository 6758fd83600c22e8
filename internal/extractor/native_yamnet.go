//go:build yamnet

package extractor

// NativeAvailable reports that the YAMNet backend is compiled in.
func NativeAvailable() bool { return true }

// NewNativeExtractor creates a YamnetExtractor for the model at modelPath.
func NewNativeExtractor(modelPath string) (Extractor, error) {
	return NewYamnetExtractor(modelPath)
}
