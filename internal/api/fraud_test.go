package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ledgerlens/ledgerlens/internal/fraud"
)

type classifierFunc func(ctx context.Context, batch [][]float64) ([]int64, error)

func (f classifierFunc) Predict(ctx context.Context, batch [][]float64) ([]int64, error) {
	return f(ctx, batch)
}

type stubScorer struct {
	calls int
}

func (s *stubScorer) Score(_ context.Context, _ string) (fraud.Verdict, error) {
	s.calls++
	return fraud.Render(fraud.LabelNormal), nil
}

func TestFraudSamplesEndpoint(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	h := NewHandler(cfg, Dependencies{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/fraud/samples", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["normal"] != fraud.SampleNormal || body["fraud"] != fraud.SampleFraud {
		t.Fatalf("samples = %#v", body)
	}
	names, ok := body["feature_names"].([]any)
	if !ok || len(names) != fraud.FeatureCount {
		t.Fatalf("feature_names = %#v", body["feature_names"])
	}
}

func TestFraudPredictEndpoint(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	var gotBatch [][]float64
	scorer := fraud.NewScorer(classifierFunc(func(_ context.Context, batch [][]float64) ([]int64, error) {
		gotBatch = batch
		if batch[0][0] == 406 {
			return []int64{1}, nil
		}
		return []int64{0}, nil
	}), nil)
	h := NewHandler(cfg, Dependencies{Scorer: scorer})

	tests := []struct {
		name    string
		input   string
		fraud   bool
		message string
	}{
		{name: "normal sample", input: fraud.SampleNormal, fraud: false, message: "Normal Transaction"},
		{name: "fraud sample", input: fraud.SampleFraud, fraud: true, message: "Fraudulent Transaction Detected"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, predictRequest(tc.input))
			if rr.Code != http.StatusOK {
				t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
			}
			body := decodeBody(t, rr)
			if body["fraud"] != tc.fraud || body["message"] != tc.message {
				t.Fatalf("verdict = %#v", body)
			}
			if len(gotBatch) != 1 || len(gotBatch[0]) != fraud.FeatureCount {
				t.Fatalf("batch shape = %d rows", len(gotBatch))
			}
		})
	}
}

func TestFraudPredictRejectsInvalidInput(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	called := false
	scorer := fraud.NewScorer(classifierFunc(func(context.Context, [][]float64) ([]int64, error) {
		called = true
		return []int64{0}, nil
	}), nil)
	h := NewHandler(cfg, Dependencies{Scorer: scorer})

	tests := []struct {
		name    string
		input   string
		code    string
		message string
	}{
		{name: "too few values", input: "1,2,3", code: "WRONG_COUNT", message: "You must enter exactly 30 values."},
		{name: "empty", input: "", code: "NOT_NUMERIC", message: "Invalid input format."},
		{name: "non numeric", input: strings.Replace(fraud.SampleNormal, "149.62", "abc", 1), code: "NOT_NUMERIC", message: "Invalid input format."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, predictRequest(tc.input))
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d, body=%s", rr.Code, rr.Body.String())
			}
			body := decodeBody(t, rr)
			if body["error_code"] != tc.code || body["message"] != tc.message {
				t.Fatalf("body = %#v", body)
			}
		})
	}
	if called {
		t.Fatal("classifier should not run for invalid input")
	}
}

func TestFraudPredictReportsModelFailure(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	scorer := fraud.NewScorer(classifierFunc(func(context.Context, [][]float64) ([]int64, error) {
		return nil, errors.New("session closed")
	}), nil)
	h := NewHandler(cfg, Dependencies{Scorer: scorer})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, predictRequest(fraud.SampleNormal))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error_code"] != "MODEL_FAILED" || body["retryable"] != true {
		t.Fatalf("body = %#v", body)
	}
}

func TestFraudPredictWithoutScorer(t *testing.T) {
	cfg := loadTestConfig(t, map[string]string{})
	h := NewHandler(cfg, Dependencies{})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, predictRequest(fraud.SampleNormal))
	if rr.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d", rr.Code)
	}
}

func predictRequest(input string) *http.Request {
	payload := `{"input":` + jsonString(input) + `}`
	req := httptest.NewRequest(http.MethodPost, "/v1/fraud/predict", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func jsonString(value string) string {
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}
