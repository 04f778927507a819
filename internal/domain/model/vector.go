package model

import "github.com/cropyield/yield-service/internal/domain/valueobject"

// FeatureVector is the ordered numeric input of a predictor, positionally
// aligned to a Schema. One per request, never persisted.
type FeatureVector []float64

// Clone returns an independent copy.
func (v FeatureVector) Clone() FeatureVector {
	return append(FeatureVector(nil), v...)
}

// Selection is one category choice made by a client for a one-hot group.
type Selection struct {
	Category string
	Field    string // client key that carried the choice
	Cleared  bool   // flag sent as 0; kept only so unknown categories still surface
}

// ValidatedInput is the output of request validation: canonical names,
// checked ranges, category choices not yet resolved against the groups.
type ValidatedInput struct {
	Values     map[string]float64     // continuous and binary features
	Selections map[string][]Selection // group name -> choices in request order
}

// NewValidatedInput returns an empty ValidatedInput.
func NewValidatedInput() ValidatedInput {
	return ValidatedInput{
		Values:     make(map[string]float64),
		Selections: make(map[string][]Selection),
	}
}

// PredictionResult is the post-processed output of one inference.
type PredictionResult struct {
	Value       float64 // clamped and rounded to 2 decimals
	RawValue    float64 // predictor output before post-processing
	Tier        valueobject.ConfidenceTier
	Fingerprint string
	ModelKind   string
}
