package dto

import (
	"time"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// FeatureDescription is one schema column.
type FeatureDescription struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Group    string  `json:"group,omitempty"`
	Category string  `json:"category,omitempty"`
	Position int     `json:"position"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Integer  bool    `json:"integer,omitempty"`
}

// GroupDescription is one one-hot group.
type GroupDescription struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Baseline   string   `json:"baseline,omitempty"`
	Members    []string `json:"members"`
}

// ThresholdsDescription exposes the confidence tier boundaries.
type ThresholdsDescription struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// ModelDescription is the static metadata of the active bundle.
type ModelDescription struct {
	LoadedAt          time.Time             `json:"loaded_at"`
	Aliases           map[string]string     `json:"aliases"`
	SchemaFingerprint string                `json:"schema_fingerprint"`
	ModelKind         string                `json:"model_kind"`
	EncodingPolicy    string                `json:"encoding_policy"`
	Features          []FeatureDescription  `json:"features"`
	Groups            []GroupDescription    `json:"groups"`
	Thresholds        ThresholdsDescription `json:"confidence_thresholds"`
	InputWidth        int                   `json:"input_width"`
}

// FromBundle maps the active bundle to its description. Identity aliases are omitted.
func FromBundle(b *model.ArtifactBundle, low, high float64) ModelDescription {
	schema := b.Schema()

	features := make([]FeatureDescription, 0, schema.Len())
	for i, f := range schema.Features() {
		features = append(features, FeatureDescription{
			Name:     f.Name,
			Kind:     f.Kind.String(),
			Group:    f.Group,
			Category: f.Category,
			Position: i,
			Min:      f.Min,
			Max:      f.Max,
			Integer:  f.Integer,
		})
	}

	groups := make([]GroupDescription, 0)
	for _, g := range schema.Groups() {
		groups = append(groups, GroupDescription{
			Name:       g.Name,
			Categories: g.Categories,
			Baseline:   g.Baseline,
			Members:    g.Members,
		})
	}

	aliases := make(map[string]string)
	for from, to := range schema.Aliases() {
		if from != to {
			aliases[from] = to
		}
	}

	return ModelDescription{
		SchemaFingerprint: b.Fingerprint(),
		ModelKind:         b.Predictor().Kind(),
		InputWidth:        b.Predictor().InputWidth(),
		EncodingPolicy:    schema.Policy().String(),
		Features:          features,
		Groups:            groups,
		Aliases:           aliases,
		Thresholds:        ThresholdsDescription{Low: low, High: high},
		LoadedAt:          b.LoadedAt(),
	}
}
