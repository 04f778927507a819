package valueobject

import "fmt"

// ConfidenceTier is an immutable value object representing the coarse,
// threshold-based confidence label attached to a yield prediction.
type ConfidenceTier struct {
	value string
}

var (
	ConfidenceLow    = ConfidenceTier{value: "Low"}
	ConfidenceMedium = ConfidenceTier{value: "Medium"}
	ConfidenceHigh   = ConfidenceTier{value: "High"}
)

// ConfidenceTierFromString reconstructs a ConfidenceTier from its string representation.
func ConfidenceTierFromString(s string) (ConfidenceTier, error) {
	switch s {
	case "Low":
		return ConfidenceLow, nil
	case "Medium":
		return ConfidenceMedium, nil
	case "High":
		return ConfidenceHigh, nil
	default:
		return ConfidenceTier{}, fmt.Errorf("invalid confidence tier: %s", s)
	}
}

// String returns the string representation.
func (c ConfidenceTier) String() string {
	return c.value
}

// Qualifier returns the human-readable explanation served next to the tier.
func (c ConfidenceTier) Qualifier() string {
	switch c.value {
	case "Low":
		return "Negative yield predicted"
	case "Medium":
		return "Very high yield predicted"
	case "High":
		return "Normal yield range"
	default:
		return ""
	}
}

// Label returns the tier together with its qualifier, e.g. "High - Normal yield range".
func (c ConfidenceTier) Label() string {
	if c.IsZero() {
		return ""
	}
	return c.value + " - " + c.Qualifier()
}

// IsZero returns true if the ConfidenceTier has not been set.
func (c ConfidenceTier) IsZero() bool {
	return c.value == ""
}

// Equal checks equality with another ConfidenceTier.
func (c ConfidenceTier) Equal(other ConfidenceTier) bool {
	return c.value == other.value
}
