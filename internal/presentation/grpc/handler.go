package grpc

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/application/usecase"
	"github.com/cropyield/yield-service/internal/domain/model"
)

// Compile-time assertion that YieldServiceHandler implements YieldServiceServer.
var _ YieldServiceServer = (*YieldServiceHandler)(nil)

// YieldServiceHandler implements the gRPC YieldServiceServer interface.
type YieldServiceHandler struct {
	UnimplementedYieldServiceServer
	predictYield  *usecase.PredictYield
	getPrediction *usecase.GetPrediction
	describeModel *usecase.DescribeModel
	logger        *slog.Logger
}

// NewYieldServiceHandler creates a new gRPC handler. getPrediction is nil
// when the audit trail is disabled.
func NewYieldServiceHandler(
	predictYield *usecase.PredictYield,
	getPrediction *usecase.GetPrediction,
	describeModel *usecase.DescribeModel,
	logger *slog.Logger,
) *YieldServiceHandler {
	return &YieldServiceHandler{
		predictYield:  predictYield,
		getPrediction: getPrediction,
		describeModel: describeModel,
		logger:        logger,
	}
}

// Proto-aligned request/response message types.

// PredictRequest represents the proto PredictRequest message.
type PredictRequest struct {
	Inputs map[string]any `json:"inputs"`
}

// PredictResponse represents the proto PredictResponse message.
type PredictResponse struct {
	PredictionID      string  `json:"prediction_id,omitempty"`
	PredictedYield    float64 `json:"predicted_yield"`
	ModelConfidence   string  `json:"model_confidence"`
	ConfidenceTier    string  `json:"confidence_tier"`
	SchemaFingerprint string  `json:"schema_fingerprint"`
	ModelKind         string  `json:"model_kind"`
}

// GetPredictionRequest represents the proto GetPredictionRequest message.
type GetPredictionRequest struct {
	ID string `json:"id"`
}

// GetPredictionResponse represents the proto GetPredictionResponse message.
type GetPredictionResponse struct {
	Prediction *dto.PredictionRecordResponse `json:"prediction"`
}

// DescribeModelRequest represents the proto DescribeModelRequest message.
type DescribeModelRequest struct{}

// DescribeModelResponse represents the proto DescribeModelResponse message.
type DescribeModelResponse struct {
	Model *dto.ModelDescription `json:"model"`
}

// Predict handles a yield prediction request.
func (h *YieldServiceHandler) Predict(ctx context.Context, req *PredictRequest) (*PredictResponse, error) {
	if req == nil || len(req.Inputs) == 0 {
		return nil, status.Error(codes.InvalidArgument, "inputs are required")
	}

	result, err := h.predictYield.Execute(ctx, dto.PredictRequest{Inputs: req.Inputs})
	if err != nil {
		return nil, h.toStatus(err)
	}

	resp := &PredictResponse{
		PredictedYield:    result.PredictedYield,
		ModelConfidence:   result.ModelConfidence,
		ConfidenceTier:    result.ConfidenceTier,
		SchemaFingerprint: result.SchemaFingerprint,
		ModelKind:         result.ModelKind,
	}
	if result.PredictionID != nil {
		resp.PredictionID = result.PredictionID.String()
	}
	return resp, nil
}

// GetPrediction handles a get prediction request.
func (h *YieldServiceHandler) GetPrediction(ctx context.Context, req *GetPredictionRequest) (*GetPredictionResponse, error) {
	if h.getPrediction == nil {
		return nil, status.Error(codes.Unimplemented, "prediction audit trail is disabled")
	}
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	predictionID, err := uuid.Parse(req.ID)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid id: %v", err)
	}

	result, err := h.getPrediction.Execute(ctx, dto.GetPredictionRequest{PredictionID: predictionID})
	if err != nil {
		return nil, h.toStatus(err)
	}

	return &GetPredictionResponse{Prediction: &result}, nil
}

// DescribeModel returns the active bundle's metadata.
func (h *YieldServiceHandler) DescribeModel(ctx context.Context, _ *DescribeModelRequest) (*DescribeModelResponse, error) {
	desc, err := h.describeModel.Execute(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return &DescribeModelResponse{Model: &desc}, nil
}

// toStatus maps the error taxonomy onto gRPC codes. Only client-caused
// errors carry their message; everything else is "internal error".
func (h *YieldServiceHandler) toStatus(err error) error {
	switch {
	case model.IsRequestError(err):
		return invalidArgument(err)
	case errors.Is(err, model.ErrModelNotLoaded):
		return status.Error(codes.Unavailable, "model not loaded")
	case errors.Is(err, model.ErrPredictionNotFound):
		return status.Error(codes.NotFound, "prediction not found")
	default:
		h.logger.Error("request failed", slog.String("error", err.Error()))
		return status.Error(codes.Internal, "internal error")
	}
}

// invalidArgument attaches one BadRequest violation per offending field so
// clients can act on them without parsing the message.
func invalidArgument(err error) error {
	st := status.New(codes.InvalidArgument, err.Error())
	fes, ok := model.AsFieldErrors(err)
	if !ok {
		return st.Err()
	}

	violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(fes))
	for _, fe := range fes {
		violations = append(violations, &errdetails.BadRequest_FieldViolation{
			Field:       fe.Field,
			Description: fe.Code + ": " + fe.Message,
		})
	}
	detailed, derr := st.WithDetails(&errdetails.BadRequest{FieldViolations: violations})
	if derr != nil {
		return st.Err()
	}
	return detailed.Err()
}
