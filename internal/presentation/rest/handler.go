package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/application/usecase"
	"github.com/cropyield/yield-service/internal/domain/model"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every non-2xx answer.
type ErrorResponse struct {
	Error  string             `json:"error"`
	Fields []model.FieldError `json:"fields,omitempty"`
}

// IndexResponse lists the available endpoints.
type IndexResponse struct {
	Service   string            `json:"service"`
	Endpoints map[string]string `json:"endpoints"`
}

// YieldHandler serves the prediction and model metadata endpoints.
type YieldHandler struct {
	predictYield  *usecase.PredictYield
	getPrediction *usecase.GetPrediction
	describeModel *usecase.DescribeModel
	limiter       *RateLimiter
	logger        *slog.Logger
}

// NewYieldHandler creates the handler. getPrediction is nil when the audit
// trail is disabled.
func NewYieldHandler(
	predictYield *usecase.PredictYield,
	getPrediction *usecase.GetPrediction,
	describeModel *usecase.DescribeModel,
	logger *slog.Logger,
) *YieldHandler {
	return &YieldHandler{
		predictYield:  predictYield,
		getPrediction: getPrediction,
		describeModel: describeModel,
		logger:        logger,
	}
}

// WithRateLimit throttles POST /predict per client. Call before RegisterRoutes.
func (h *YieldHandler) WithRateLimit(l *RateLimiter) *YieldHandler {
	h.limiter = l
	return h
}

// RegisterRoutes registers the yield endpoints on the provided ServeMux.
func (h *YieldHandler) RegisterRoutes(mux *http.ServeMux) {
	var predict http.Handler = http.HandlerFunc(h.Predict)
	if h.limiter != nil {
		predict = RateLimitMiddleware(h.limiter)(predict)
	}
	mux.HandleFunc("GET /{$}", h.Index)
	mux.Handle("POST /predict", predict)
	mux.HandleFunc("GET /model", h.Model)
	mux.HandleFunc("GET /predictions/{id}", h.GetPrediction)
}

// Index lists the endpoints.
func (h *YieldHandler) Index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, IndexResponse{
		Service: serviceName,
		Endpoints: map[string]string{
			"POST /predict":         "predict crop yield from field conditions",
			"GET /model":            "feature schema, encoding and thresholds of the active model",
			"GET /predictions/{id}": "audited prediction by id",
			"GET /health":           "model and scaler load status",
			"GET /healthz":          "liveness probe",
			"GET /readyz":           "readiness probe",
			"GET /metrics":          "prometheus metrics",
		},
	})
}

// Predict decodes the client's field map and serves a prediction.
func (h *YieldHandler) Predict(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()

	var inputs map[string]any
	if err := dec.Decode(&inputs); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "malformed JSON body"})
		return
	}
	if inputs == nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "request body must be a JSON object"})
		return
	}

	resp, err := h.predictYield.Execute(r.Context(), dto.PredictRequest{Inputs: inputs})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Model returns the active bundle's metadata.
func (h *YieldHandler) Model(w http.ResponseWriter, r *http.Request) {
	desc, err := h.describeModel.Execute(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, desc)
}

// GetPrediction returns an audited prediction.
func (h *YieldHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	if h.getPrediction == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "prediction audit trail is disabled"})
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid prediction id"})
		return
	}

	resp, err := h.getPrediction.Execute(r.Context(), dto.GetPredictionRequest{PredictionID: id})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeError maps the error taxonomy onto HTTP statuses. Predictor and
// internal errors are logged and answered with a generic message.
func (h *YieldHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case model.IsRequestError(err):
		resp := ErrorResponse{Error: "validation failed"}
		if fes, ok := model.AsFieldErrors(err); ok {
			resp.Fields = fes
		}
		writeJSON(w, http.StatusUnprocessableEntity, resp)
	case errors.Is(err, model.ErrModelNotLoaded):
		writeJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "model not loaded"})
	case errors.Is(err, model.ErrPredictionNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "prediction not found"})
	default:
		h.logger.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}
