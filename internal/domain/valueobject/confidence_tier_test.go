package valueobject_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

func TestConfidenceTier_String(t *testing.T) {
	assert.Equal(t, "Low", valueobject.ConfidenceLow.String())
	assert.Equal(t, "Medium", valueobject.ConfidenceMedium.String())
	assert.Equal(t, "High", valueobject.ConfidenceHigh.String())
}

func TestConfidenceTier_Label(t *testing.T) {
	tests := []struct {
		name     string
		tier     valueobject.ConfidenceTier
		expected string
	}{
		{"Low label", valueobject.ConfidenceLow, "Low - Negative yield predicted"},
		{"Medium label", valueobject.ConfidenceMedium, "Medium - Very high yield predicted"},
		{"High label", valueobject.ConfidenceHigh, "High - Normal yield range"},
		{"zero label", valueobject.ConfidenceTier{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.tier.Label())
		})
	}
}

func TestConfidenceTier_FromString(t *testing.T) {
	tests := []struct {
		input    string
		expected valueobject.ConfidenceTier
		wantErr  bool
	}{
		{"Low", valueobject.ConfidenceLow, false},
		{"Medium", valueobject.ConfidenceMedium, false},
		{"High", valueobject.ConfidenceHigh, false},
		{"HIGH", valueobject.ConfidenceTier{}, true},
		{"", valueobject.ConfidenceTier{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := valueobject.ConfidenceTierFromString(tt.input)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.True(t, tt.expected.Equal(result))
			}
		})
	}
}

func TestConfidenceTier_IsZero(t *testing.T) {
	var zero valueobject.ConfidenceTier
	assert.True(t, zero.IsZero())
	assert.False(t, valueobject.ConfidenceLow.IsZero())
}

func TestFeatureKind_FromString(t *testing.T) {
	for _, k := range []valueobject.FeatureKind{
		valueobject.KindContinuous,
		valueobject.KindBinaryFlag,
		valueobject.KindOneHotMember,
	} {
		got, err := valueobject.FeatureKindFromString(k.String())
		require.NoError(t, err)
		assert.True(t, k.Equal(got))
	}

	_, err := valueobject.FeatureKindFromString("categorical")
	require.Error(t, err)
}

func TestFeatureKind_Predicates(t *testing.T) {
	assert.True(t, valueobject.KindContinuous.IsContinuous())
	assert.False(t, valueobject.KindContinuous.IsOneHotMember())
	assert.True(t, valueobject.KindBinaryFlag.IsBinaryFlag())
	assert.True(t, valueobject.KindOneHotMember.IsOneHotMember())
}

func TestEncodingPolicy_FromString(t *testing.T) {
	p, err := valueobject.EncodingPolicyFromString("drop_first")
	require.NoError(t, err)
	assert.True(t, p.DropsFirst())

	p, err = valueobject.EncodingPolicyFromString("full")
	require.NoError(t, err)
	assert.False(t, p.DropsFirst())

	_, err = valueobject.EncodingPolicyFromString("")
	require.Error(t, err)
}
