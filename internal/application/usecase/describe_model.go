package usecase

import (
	"context"

	"github.com/cropyield/yield-service/internal/application/dto"
	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/port"
	"github.com/cropyield/yield-service/internal/domain/service"
)

// DescribeModel is the use case for the static model metadata listing.
type DescribeModel struct {
	bundles    port.BundleProvider
	classifier *service.ConfidenceClassifier
}

// NewDescribeModel creates a new DescribeModel use case.
func NewDescribeModel(bundles port.BundleProvider, classifier *service.ConfidenceClassifier) *DescribeModel {
	return &DescribeModel{bundles: bundles, classifier: classifier}
}

// Execute describes the active bundle.
func (uc *DescribeModel) Execute(_ context.Context) (dto.ModelDescription, error) {
	bundle := uc.bundles.Current()
	if bundle == nil {
		return dto.ModelDescription{}, model.ErrModelNotLoaded
	}
	t := uc.classifier.Thresholds()
	return dto.FromBundle(bundle, t.Low, t.High), nil
}
