//go:build yamnet

package extractor

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// yamnetDim is the dimensionality of one YAMNet embedding frame.
const yamnetDim = 1024

// Tensor names in the ONNX export of YAMNet.
const (
	yamnetInputName  = "waveform"
	yamnetOutputName = "embeddings"
)

// ortInitOnce ensures ONNX Runtime environment is initialized exactly once.
// ortInitErr is stored at package scope so subsequent NewYamnetExtractor
// calls surface the failure instead of proceeding with an uninitialized
// environment.
var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// YamnetExtractor runs YAMNet inference via ONNX Runtime. YAMNet emits one
// 1024-dim embedding per internal 0.96 s frame; Extract mean-pools the
// frames into a single vector for the whole window.
type YamnetExtractor struct {
	session *ort.DynamicAdvancedSession
}

// NewYamnetExtractor initializes ONNX Runtime and opens a dynamic session
// on the model at modelPath. The session accepts variable-length waveform
// input, so any window size the classifier is configured with works.
func NewYamnetExtractor(modelPath string) (*YamnetExtractor, error) {
	if modelPath == "" {
		return nil, fmt.Errorf("yamnet: model path is empty (set model_path in the config)")
	}

	ortInitOnce.Do(func() {
		libPath, err := resolveORTLibPath()
		if err != nil {
			ortInitErr = fmt.Errorf("resolve ORT lib: %w", err)
			return
		}
		ort.SetSharedLibraryPath(libPath)
		ortInitErr = ort.InitializeEnvironment()
	})
	if ortInitErr != nil {
		return nil, fmt.Errorf("yamnet: %w", ortInitErr)
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{yamnetInputName},
		[]string{yamnetOutputName},
		nil, // default session options
	)
	if err != nil {
		return nil, fmt.Errorf("yamnet: open session %s: %w", modelPath, err)
	}

	return &YamnetExtractor{session: session}, nil
}

// Extract runs one inference over the window and mean-pools the per-frame
// embeddings into a single vector.
func (e *YamnetExtractor) Extract(window []float32) ([]float32, error) {
	if len(window) == 0 {
		return nil, fmt.Errorf("yamnet: empty window")
	}

	input, err := ort.NewTensor(ort.NewShape(int64(len(window))), window)
	if err != nil {
		return nil, fmt.Errorf("yamnet: create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, fmt.Errorf("yamnet: inference: %w", err)
	}
	out, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("yamnet: unexpected output tensor type %T", outputs[0])
	}
	defer out.Destroy()

	data := out.GetData()
	if len(data) == 0 || len(data)%yamnetDim != 0 {
		return nil, fmt.Errorf("yamnet: output length %d is not a multiple of %d", len(data), yamnetDim)
	}
	frames := len(data) / yamnetDim

	pooled := make([]float32, yamnetDim)
	for f := 0; f < frames; f++ {
		row := data[f*yamnetDim : (f+1)*yamnetDim]
		for i, v := range row {
			pooled[i] += v
		}
	}
	inv := 1 / float32(frames)
	for i := range pooled {
		pooled[i] *= inv
	}
	return pooled, nil
}

// Dim returns the pooled embedding dimensionality.
func (e *YamnetExtractor) Dim() int { return yamnetDim }

// Close releases the ONNX session. Safe to call multiple times.
func (e *YamnetExtractor) Close() error {
	if e.session != nil {
		e.session.Destroy()
		e.session = nil
	}
	return nil
}
