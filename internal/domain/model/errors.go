package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks user-correctable field problems (range, type, presence).
	ErrValidation = errors.New("validation failed")

	// ErrUnknownCategoryValue marks a category absent from every known group member.
	ErrUnknownCategoryValue = errors.New("unknown category value")

	// ErrAmbiguousOneHotSelection marks more than one category selected within a group.
	ErrAmbiguousOneHotSelection = errors.New("ambiguous one-hot selection")

	// ErrSchemaCorrupt marks artifacts whose blobs disagree with each other. Fatal at startup.
	ErrSchemaCorrupt = errors.New("schema corrupt")

	// ErrArtifactWidthMismatch marks a predictor whose input width differs from the schema. Fatal at startup.
	ErrArtifactWidthMismatch = errors.New("artifact width mismatch")

	// ErrPredictorFailure wraps any failure of the opaque predictor call.
	ErrPredictorFailure = errors.New("predictor failure")

	// ErrModelNotLoaded is returned while no artifact bundle is active.
	ErrModelNotLoaded = errors.New("model not loaded")

	// ErrPredictionNotFound is returned when an audited prediction does not exist.
	ErrPredictionNotFound = errors.New("prediction not found")
)

// Field error codes.
const (
	CodeOutOfRange         = "out_of_range"
	CodeWrongType          = "wrong_type"
	CodeMissingRequired    = "missing_required"
	CodeUnknownField       = "unknown_field"
	CodeDuplicateField     = "duplicate_field"
	CodeUnknownCategory    = "unknown_category_value"
	CodeAmbiguousSelection = "ambiguous_one_hot_selection"
)

// FieldError describes one problem with one client-supplied field.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap maps the code onto the sentinel of its error class.
func (e FieldError) Unwrap() error {
	switch e.Code {
	case CodeUnknownCategory:
		return ErrUnknownCategoryValue
	case CodeAmbiguousSelection:
		return ErrAmbiguousOneHotSelection
	default:
		return ErrValidation
	}
}

// FieldErrors accumulates every problem found in a single request.
type FieldErrors []FieldError

func (e FieldErrors) Error() string {
	msgs := make([]string, len(e))
	for i, fe := range e {
		msgs[i] = fe.Error()
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes each field error so errors.Is matches any sentinel present.
func (e FieldErrors) Unwrap() []error {
	errs := make([]error, len(e))
	for i, fe := range e {
		errs[i] = fe
	}
	return errs
}

// IsRequestError reports whether err was caused by client-sent data and
// should be answered with a 4xx rather than an internal error.
func IsRequestError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrUnknownCategoryValue) ||
		errors.Is(err, ErrAmbiguousOneHotSelection)
}

// AsFieldErrors extracts the field list from err, if any.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fes FieldErrors
	if errors.As(err, &fes) {
		return fes, true
	}
	var fe FieldError
	if errors.As(err, &fe) {
		return FieldErrors{fe}, true
	}
	return nil, false
}
