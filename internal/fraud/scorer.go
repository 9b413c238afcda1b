package fraud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var ErrNoClassifier = errors.New("classifier is not configured")

// Classifier scores a batch of rows and returns one label per row.
type Classifier interface {
	Predict(ctx context.Context, batch [][]float64) ([]int64, error)
}

// ModelError wraps failures raised while invoking the classifier.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("model prediction failed: %v", e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

type Scorer struct {
	Classifier Classifier
	Logger     *slog.Logger
}

func NewScorer(classifier Classifier, logger *slog.Logger) *Scorer {
	return &Scorer{Classifier: classifier, Logger: logger}
}

// Score parses raw input and classifies it.
func (s *Scorer) Score(ctx context.Context, raw string) (Verdict, error) {
	vector, err := ParseFeatures(raw)
	if err != nil {
		return Verdict{}, err
	}
	label, err := s.Predict(ctx, vector)
	if err != nil {
		return Verdict{}, err
	}
	return Render(label), nil
}

// Predict reshapes vector into a one-row batch and returns its label.
func (s *Scorer) Predict(ctx context.Context, vector FeatureVector) (Label, error) {
	if s == nil || s.Classifier == nil {
		return 0, &ModelError{Err: ErrNoClassifier}
	}
	labels, err := s.Classifier.Predict(ctx, [][]float64{vector.Slice()})
	if err != nil {
		return 0, &ModelError{Err: err}
	}
	if len(labels) != 1 {
		return 0, &ModelError{Err: fmt.Errorf("expected 1 label, got %d", len(labels))}
	}
	label := Label(labels[0])
	if s.Logger != nil {
		s.Logger.DebugContext(ctx, "fraud prediction", slog.String("label", label.String()))
	}
	return label, nil
}
