package model

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

var ortInit sync.Mutex

// ONNX evaluates an exported scikit-learn classifier. Calls are serialized;
// the session is created once at load time.
type ONNX struct {
	mu           sync.Mutex
	session      *ort.DynamicAdvancedSession
	featureCount int
}

func LoadONNX(path string, opts Options) (*ONNX, error) {
	inputName := opts.InputName
	if inputName == "" {
		inputName = "float_input"
	}
	outputName := opts.OutputName
	if outputName == "" {
		outputName = "output_label"
	}

	if err := initializeRuntime(opts.SharedLibraryPath); err != nil {
		return nil, err
	}
	session, err := ort.NewDynamicAdvancedSession(path, []string{inputName}, []string{outputName}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create onnx session: %v", ErrUnsupportedFormat, err)
	}
	return &ONNX{session: session, featureCount: opts.FeatureCount}, nil
}

func initializeRuntime(libraryPath string) error {
	ortInit.Lock()
	defer ortInit.Unlock()
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("initialize onnx runtime: %w", err)
	}
	return nil
}

func (m *ONNX) Predict(ctx context.Context, batch [][]float64) ([]int64, error) {
	if err := checkBatch(batch, m.featureCount); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	flat := make([]float32, 0, len(batch)*m.featureCount)
	for _, row := range batch {
		for _, value := range row {
			flat = append(flat, float32(value))
		}
	}
	input, err := ort.NewTensor(ort.NewShape(int64(len(batch)), int64(m.featureCount)), flat)
	if err != nil {
		return nil, fmt.Errorf("build input tensor: %w", err)
	}
	defer func() { _ = input.Destroy() }()

	output, err := ort.NewEmptyTensor[int64](ort.NewShape(int64(len(batch))))
	if err != nil {
		return nil, fmt.Errorf("build output tensor: %w", err)
	}
	defer func() { _ = output.Destroy() }()

	m.mu.Lock()
	err = m.session.Run([]ort.Value{input}, []ort.Value{output})
	m.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("run onnx session: %w", err)
	}

	labels := make([]int64, len(batch))
	copy(labels, output.GetData())
	return labels, nil
}

func (m *ONNX) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.session = nil
	return err
}
