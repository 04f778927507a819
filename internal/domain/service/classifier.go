package service

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

// Thresholds bound the dense training region of the target, in yield units.
type Thresholds struct {
	Low  float64
	High float64
}

// DefaultThresholds returns the thresholds the model was calibrated with.
func DefaultThresholds() Thresholds {
	return Thresholds{Low: 0, High: 10}
}

// Validate rejects inverted thresholds.
func (t Thresholds) Validate() error {
	if t.Low > t.High {
		return fmt.Errorf("low confidence threshold %v is above high threshold %v", t.Low, t.High)
	}
	return nil
}

// ConfidenceClassifier post-processes raw predictor output.
type ConfidenceClassifier struct {
	thresholds Thresholds
}

// NewConfidenceClassifier creates a classifier with the given thresholds.
func NewConfidenceClassifier(t Thresholds) *ConfidenceClassifier {
	return &ConfidenceClassifier{thresholds: t}
}

// Thresholds returns the configured thresholds.
func (c *ConfidenceClassifier) Thresholds() Thresholds {
	return c.thresholds
}

// Classify tags raw output with a tier and returns the served value: negative
// output is clamped to 0, and the result is rounded to 2 decimals.
func (c *ConfidenceClassifier) Classify(raw float64) (float64, valueobject.ConfidenceTier) {
	var tier valueobject.ConfidenceTier
	switch {
	case raw < c.thresholds.Low:
		tier = valueobject.ConfidenceLow
	case raw > c.thresholds.High:
		tier = valueobject.ConfidenceMedium
	default:
		tier = valueobject.ConfidenceHigh
	}

	value := raw
	if value < 0 {
		value = 0
	}
	return decimal.NewFromFloat(value).Round(2).InexactFloat64(), tier
}
