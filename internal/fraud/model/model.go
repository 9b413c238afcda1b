// Package model loads the pretrained fraud classifier artifact from disk.
//
// Two artifact formats are understood, chosen by file extension:
//   - .onnx: a classifier exported with skl2onnx, evaluated with ONNX Runtime.
//   - .json: a linear decision function {"kind":"linear","weights":[...],"bias":b,"threshold":t}.
//
// The artifact is loaded once; there is no reload or versioning.
package model

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrUnsupportedFormat = errors.New("unsupported model artifact format")

// Classifier mirrors fraud.Classifier and adds resource cleanup.
type Classifier interface {
	Predict(ctx context.Context, batch [][]float64) ([]int64, error)
	Close() error
}

type Options struct {
	// SharedLibraryPath points at libonnxruntime; empty uses the platform default.
	SharedLibraryPath string
	InputName         string
	OutputName        string
	FeatureCount      int
}

// Load opens the artifact at path. A missing or unreadable artifact is an
// error the caller is expected to treat as fatal.
func Load(path string, opts Options) (Classifier, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("model path is required")
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat model artifact: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("model artifact %q is a directory", path)
	}
	if opts.FeatureCount <= 0 {
		opts.FeatureCount = 30
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadLinear(path, opts.FeatureCount)
	case ".onnx":
		return LoadONNX(path, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func checkBatch(batch [][]float64, width int) error {
	if len(batch) == 0 {
		return fmt.Errorf("batch is empty")
	}
	for i, row := range batch {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, model expects %d", i, len(row), width)
		}
	}
	return nil
}
