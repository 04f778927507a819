package valueobject

import "fmt"

// FeatureKind is an immutable value object describing how a schema column is
// produced from client input and whether it is scaled.
type FeatureKind struct {
	value string
}

var (
	KindContinuous   = FeatureKind{value: "continuous"}
	KindBinaryFlag   = FeatureKind{value: "binary"}
	KindOneHotMember = FeatureKind{value: "one_hot"}
)

// FeatureKindFromString reconstructs a kind from its string representation.
func FeatureKindFromString(s string) (FeatureKind, error) {
	switch s {
	case "continuous":
		return KindContinuous, nil
	case "binary":
		return KindBinaryFlag, nil
	case "one_hot":
		return KindOneHotMember, nil
	default:
		return FeatureKind{}, fmt.Errorf("invalid feature kind: %s", s)
	}
}

// String returns the string representation.
func (k FeatureKind) String() string {
	return k.value
}

// IsZero returns true if the kind has not been set.
func (k FeatureKind) IsZero() bool {
	return k.value == ""
}

// Equal checks equality with another FeatureKind.
func (k FeatureKind) Equal(other FeatureKind) bool {
	return k.value == other.value
}

// IsContinuous returns true for scaled numeric columns.
func (k FeatureKind) IsContinuous() bool {
	return k.value == "continuous"
}

// IsBinaryFlag returns true for 0/1 indicator columns.
func (k FeatureKind) IsBinaryFlag() bool {
	return k.value == "binary"
}

// IsOneHotMember returns true for columns belonging to a one-hot group.
func (k FeatureKind) IsOneHotMember() bool {
	return k.value == "one_hot"
}

// EncodingPolicy records how categorical columns were expanded at training time.
type EncodingPolicy struct {
	value string
}

var (
	// EncodingFull gives every known category its own column.
	EncodingFull = EncodingPolicy{value: "full"}
	// EncodingDropFirst drops the first-seen category of every group; that
	// baseline category is selected when all of the group's columns are 0.
	EncodingDropFirst = EncodingPolicy{value: "drop_first"}
)

// EncodingPolicyFromString reconstructs a policy from its string representation.
func EncodingPolicyFromString(s string) (EncodingPolicy, error) {
	switch s {
	case "full":
		return EncodingFull, nil
	case "drop_first":
		return EncodingDropFirst, nil
	default:
		return EncodingPolicy{}, fmt.Errorf("invalid encoding policy: %s", s)
	}
}

// String returns the string representation.
func (p EncodingPolicy) String() string {
	return p.value
}

// IsZero returns true if the policy has not been set.
func (p EncodingPolicy) IsZero() bool {
	return p.value == ""
}

// Equal checks equality with another EncodingPolicy.
func (p EncodingPolicy) Equal(other EncodingPolicy) bool {
	return p.value == other.value
}

// DropsFirst reports whether the first-seen category has no column.
func (p EncodingPolicy) DropsFirst() bool {
	return p.value == "drop_first"
}
