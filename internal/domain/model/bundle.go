package model

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Predictor is a trained model: a deterministic function over a vector of
// fixed width. Implementations must be safe for concurrent use.
type Predictor interface {
	// Kind names the model family, e.g. "linear" or "forest".
	Kind() string
	// InputWidth is the vector length the model was fitted on.
	InputWidth() int
	// FeatureNames is the ordered column list the model was fitted on, or nil if unknown.
	FeatureNames() []string
	// Predict evaluates one scaled vector.
	Predict(ctx context.Context, vector []float64) (float64, error)
}

// ArtifactBundle is the co-versioned schema, scaler and predictor. It is
// never mutated after construction.
type ArtifactBundle struct {
	schema      *Schema
	scaler      *ScalerParameters
	predictor   Predictor
	fingerprint string
	loadedAt    time.Time
}

// PackageArtifact checks that the three parts agree and binds them together
// under the schema fingerprint.
func PackageArtifact(schema *Schema, scaler *ScalerParameters, predictor Predictor) (*ArtifactBundle, error) {
	if schema == nil {
		return nil, fmt.Errorf("%w: schema is missing", ErrSchemaCorrupt)
	}
	if scaler == nil {
		return nil, fmt.Errorf("%w: scaler is missing", ErrSchemaCorrupt)
	}
	if predictor == nil {
		return nil, fmt.Errorf("%w: predictor is missing", ErrSchemaCorrupt)
	}
	if err := scaler.CheckDomain(schema); err != nil {
		return nil, err
	}
	if w := predictor.InputWidth(); w != schema.Len() {
		return nil, fmt.Errorf("%w: predictor expects %d features, schema has %d",
			ErrArtifactWidthMismatch, w, schema.Len())
	}
	if names := predictor.FeatureNames(); names != nil {
		want := schema.Names()
		if len(names) != len(want) {
			return nil, fmt.Errorf("%w: predictor was fitted on %d named features, schema has %d",
				ErrArtifactWidthMismatch, len(names), len(want))
		}
		for i := range want {
			if names[i] != want[i] {
				return nil, fmt.Errorf("%w: predictor feature %d is %q, schema expects %q",
					ErrSchemaCorrupt, i, names[i], want[i])
			}
		}
	}

	return &ArtifactBundle{
		schema:      schema,
		scaler:      scaler,
		predictor:   predictor,
		fingerprint: schema.Fingerprint(),
		loadedAt:    time.Now().UTC(),
	}, nil
}

// --- Accessors ---

func (b *ArtifactBundle) Schema() *Schema           { return b.schema }
func (b *ArtifactBundle) Scaler() *ScalerParameters { return b.scaler }
func (b *ArtifactBundle) Predictor() Predictor      { return b.predictor }
func (b *ArtifactBundle) Fingerprint() string       { return b.fingerprint }
func (b *ArtifactBundle) LoadedAt() time.Time       { return b.loadedAt }

// Close releases resources held by the predictor, such as native inference
// sessions. The bundle must not serve predictions afterwards.
func (b *ArtifactBundle) Close() error {
	return ClosePredictor(b.predictor)
}

// ClosePredictor closes p if it holds releasable resources.
func ClosePredictor(p Predictor) error {
	if c, ok := p.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
