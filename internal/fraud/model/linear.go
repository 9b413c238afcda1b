package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

type linearArtifact struct {
	Kind      string    `json:"kind"`
	Weights   []float64 `json:"weights"`
	Bias      float64   `json:"bias"`
	Threshold float64   `json:"threshold"`
}

// Linear labels a row 1 when weights·row + bias exceeds the threshold.
type Linear struct {
	weights   []float64
	bias      float64
	threshold float64
}

func NewLinear(weights []float64, bias, threshold float64) *Linear {
	copied := make([]float64, len(weights))
	copy(copied, weights)
	return &Linear{weights: copied, bias: bias, threshold: threshold}
}

func LoadLinear(path string, featureCount int) (*Linear, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model artifact: %w", err)
	}
	var artifact linearArtifact
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("%w: decode linear artifact: %v", ErrUnsupportedFormat, err)
	}
	if artifact.Kind != "linear" {
		return nil, fmt.Errorf("%w: kind %q", ErrUnsupportedFormat, artifact.Kind)
	}
	if len(artifact.Weights) != featureCount {
		return nil, fmt.Errorf("%w: %d weights, want %d", ErrUnsupportedFormat, len(artifact.Weights), featureCount)
	}
	return NewLinear(artifact.Weights, artifact.Bias, artifact.Threshold), nil
}

func (l *Linear) Predict(_ context.Context, batch [][]float64) ([]int64, error) {
	if err := checkBatch(batch, len(l.weights)); err != nil {
		return nil, err
	}
	labels := make([]int64, len(batch))
	for i, row := range batch {
		score := l.bias
		for j, value := range row {
			score += l.weights[j] * value
		}
		if score > l.threshold {
			labels[i] = 1
		}
	}
	return labels, nil
}

func (l *Linear) Close() error {
	return nil
}
