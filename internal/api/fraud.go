package api

import (
	"errors"
	"net/http"

	"github.com/ledgerlens/ledgerlens/internal/fraud"
	"github.com/ledgerlens/ledgerlens/internal/observability"
)

type fraudPredictRequest struct {
	Input string `json:"input"`
}

type fraudSamplesResponse struct {
	Normal       string   `json:"normal"`
	Fraud        string   `json:"fraud"`
	FeatureNames []string `json:"feature_names"`
}

func handleFraudSamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, fraudSamplesResponse{
		Normal:       fraud.SampleNormal,
		Fraud:        fraud.SampleFraud,
		FeatureNames: fraud.FeatureNames(),
	})
}

func handleFraudPredict(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Scorer == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "FRAUD_NOT_CONFIGURED", "fraud scorer is not configured", false, nil)
		return
	}

	var request fraudPredictRequest
	if err := decodeJSON(w, r, &request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid predict request body", false, map[string]any{"details": err.Error()})
		return
	}

	verdict, err := deps.Scorer.Score(r.Context(), request.Input)
	if err != nil {
		var parseErr *fraud.ParseError
		var modelErr *fraud.ModelError
		switch {
		case errors.As(err, &parseErr):
			observability.IncrementFraudInputError(string(parseErr.Kind))
			code := "NOT_NUMERIC"
			if parseErr.Kind == fraud.ErrKindWrongCount {
				code = "WRONG_COUNT"
			}
			writeError(r.Context(), w, http.StatusUnprocessableEntity, code, parseErr.UserMessage(), false, map[string]any{"details": parseErr.Error()})
		case errors.As(err, &modelErr):
			if deps.Logger != nil {
				deps.Logger.ErrorContext(r.Context(), "fraud model failed", "error", err)
			}
			writeError(r.Context(), w, http.StatusInternalServerError, "MODEL_FAILED", "fraud model prediction failed", true, nil)
		default:
			writeError(r.Context(), w, http.StatusInternalServerError, "INTERNAL", err.Error(), false, nil)
		}
		return
	}

	observability.ObserveFraudPrediction(verdict.Label.String())
	writeJSON(w, http.StatusOK, verdict)
}
