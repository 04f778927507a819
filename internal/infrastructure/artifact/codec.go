package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/service"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
	"github.com/cropyield/yield-service/internal/infrastructure/predictor"
)

// FormatVersion is bumped whenever a blob layout changes incompatibly.
const FormatVersion = 1

// Blobs is the matched triple persisted for one trained model.
type Blobs struct {
	Schema    []byte
	Scaler    []byte
	Predictor []byte
}

type featureJSON struct {
	Name     string  `json:"name"`
	Kind     string  `json:"kind"`
	Group    string  `json:"group,omitempty"`
	Category string  `json:"category,omitempty"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Integer  bool    `json:"integer,omitempty"`
}

type groupJSON struct {
	Name       string   `json:"name"`
	Categories []string `json:"categories"`
	Baseline   string   `json:"baseline,omitempty"`
	Members    []string `json:"members"`
}

type schemaBlob struct {
	FormatVersion  int               `json:"format_version"`
	Fingerprint    string            `json:"fingerprint"`
	EncodingPolicy string            `json:"encoding_policy"`
	Features       []featureJSON     `json:"features"`
	Groups         []groupJSON       `json:"groups"`
	Aliases        map[string]string `json:"aliases,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

type scaleJSON struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

type scalerBlob struct {
	FormatVersion     int                  `json:"format_version"`
	SchemaFingerprint string               `json:"schema_fingerprint"`
	Params            map[string]scaleJSON `json:"params"`
}

type predictorBlob struct {
	FormatVersion     int                `json:"format_version"`
	SchemaFingerprint string             `json:"schema_fingerprint"`
	Predictor         predictor.Spec     `json:"predictor"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
}

// EncodeSchema serialises a schema. Identity aliases are omitted.
func EncodeSchema(s *model.Schema) ([]byte, error) {
	blob := schemaBlob{
		FormatVersion:  FormatVersion,
		Fingerprint:    s.Fingerprint(),
		EncodingPolicy: s.Policy().String(),
		CreatedAt:      time.Now().UTC(),
	}
	for _, f := range s.Features() {
		blob.Features = append(blob.Features, featureJSON{
			Name: f.Name, Kind: f.Kind.String(),
			Group: f.Group, Category: f.Category,
			Min: f.Min, Max: f.Max, Integer: f.Integer,
		})
	}
	for _, g := range s.Groups() {
		blob.Groups = append(blob.Groups, groupJSON(g))
	}
	for alias, target := range s.Aliases() {
		if alias == target {
			continue
		}
		if blob.Aliases == nil {
			blob.Aliases = make(map[string]string)
		}
		blob.Aliases[alias] = target
	}
	return json.MarshalIndent(blob, "", "  ")
}

// DecodeSchema restores a schema and verifies its stored fingerprint.
func DecodeSchema(data []byte) (*model.Schema, error) {
	var blob schemaBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("%w: schema blob: %v", model.ErrSchemaCorrupt, err)
	}
	if blob.FormatVersion != FormatVersion {
		return nil, fmt.Errorf("%w: schema format version %d, want %d", model.ErrSchemaCorrupt, blob.FormatVersion, FormatVersion)
	}
	policy, err := valueobject.EncodingPolicyFromString(blob.EncodingPolicy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSchemaCorrupt, err)
	}

	features := make([]model.FeatureSpec, len(blob.Features))
	for i, f := range blob.Features {
		kind, err := valueobject.FeatureKindFromString(f.Kind)
		if err != nil {
			return nil, fmt.Errorf("%w: feature %s: %v", model.ErrSchemaCorrupt, f.Name, err)
		}
		features[i] = model.FeatureSpec{
			Name: f.Name, Kind: kind,
			Group: f.Group, Category: f.Category,
			Min: f.Min, Max: f.Max, Integer: f.Integer,
		}
	}
	groups := make([]model.OneHotGroup, len(blob.Groups))
	for i, g := range blob.Groups {
		groups[i] = model.OneHotGroup(g)
	}

	s, err := model.RestoreSchema(features, groups, blob.Aliases, policy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrSchemaCorrupt, err)
	}
	if s.Fingerprint() != blob.Fingerprint {
		return nil, fmt.Errorf("%w: stored fingerprint %s does not match feature list (%s)",
			model.ErrSchemaCorrupt, blob.Fingerprint, s.Fingerprint())
	}
	return s, nil
}

// EncodeScaler serialises scaler parameters bound to a schema fingerprint.
func EncodeScaler(sc *model.ScalerParameters, fingerprint string) ([]byte, error) {
	blob := scalerBlob{
		FormatVersion:     FormatVersion,
		SchemaFingerprint: fingerprint,
		Params:            make(map[string]scaleJSON, sc.Len()),
	}
	for name, p := range sc.Params() {
		blob.Params[name] = scaleJSON(p)
	}
	return json.MarshalIndent(blob, "", "  ")
}

// DecodeScaler restores scaler parameters and the fingerprint they were fitted for.
func DecodeScaler(data []byte) (*model.ScalerParameters, string, error) {
	var blob scalerBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, "", fmt.Errorf("%w: scaler blob: %v", model.ErrSchemaCorrupt, err)
	}
	if blob.FormatVersion != FormatVersion {
		return nil, "", fmt.Errorf("%w: scaler format version %d, want %d", model.ErrSchemaCorrupt, blob.FormatVersion, FormatVersion)
	}
	params := make(map[string]model.ScaleParam, len(blob.Params))
	for name, p := range blob.Params {
		params[name] = model.ScaleParam(p)
	}
	sc, err := model.NewScalerParameters(params)
	if err != nil {
		return nil, "", err
	}
	return sc, blob.SchemaFingerprint, nil
}

// EncodePredictor serialises a predictor bound to a schema fingerprint.
func EncodePredictor(p model.Predictor, fingerprint string, metrics map[string]float64) ([]byte, error) {
	spec, err := predictor.Describe(p)
	if err != nil {
		return nil, err
	}
	blob := predictorBlob{
		FormatVersion:     FormatVersion,
		SchemaFingerprint: fingerprint,
		Predictor:         spec,
		Metrics:           metrics,
	}
	return json.MarshalIndent(blob, "", "  ")
}

// DecodedPredictor is a predictor blob after decoding.
type DecodedPredictor struct {
	Predictor   model.Predictor
	Fingerprint string
	Metrics     map[string]float64
}

// DecodePredictor rebuilds the predictor through the registry.
func DecodePredictor(data []byte, reg *predictor.Registry, opts predictor.Options) (DecodedPredictor, error) {
	var blob predictorBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		return DecodedPredictor{}, fmt.Errorf("%w: predictor blob: %v", model.ErrSchemaCorrupt, err)
	}
	if blob.FormatVersion != FormatVersion {
		return DecodedPredictor{}, fmt.Errorf("%w: predictor format version %d, want %d",
			model.ErrSchemaCorrupt, blob.FormatVersion, FormatVersion)
	}
	p, err := reg.Build(blob.Predictor, opts)
	if err != nil {
		if errors.Is(err, model.ErrArtifactWidthMismatch) {
			return DecodedPredictor{}, err
		}
		return DecodedPredictor{}, fmt.Errorf("%w: %w", model.ErrSchemaCorrupt, err)
	}
	return DecodedPredictor{Predictor: p, Fingerprint: blob.SchemaFingerprint, Metrics: blob.Metrics}, nil
}

// Encode serialises a bundle as a matched triple.
func Encode(b *model.ArtifactBundle, metrics map[string]float64) (Blobs, error) {
	schema, err := EncodeSchema(b.Schema())
	if err != nil {
		return Blobs{}, fmt.Errorf("failed to encode schema: %w", err)
	}
	scaler, err := EncodeScaler(b.Scaler(), b.Fingerprint())
	if err != nil {
		return Blobs{}, fmt.Errorf("failed to encode scaler: %w", err)
	}
	pred, err := EncodePredictor(b.Predictor(), b.Fingerprint(), metrics)
	if err != nil {
		return Blobs{}, fmt.Errorf("failed to encode predictor: %w", err)
	}
	return Blobs{Schema: schema, Scaler: scaler, Predictor: pred}, nil
}

// Decode loads a matched triple into a bundle. Every disagreement between
// the blobs is fatal: ErrSchemaCorrupt, or ErrArtifactWidthMismatch when
// only the predictor width differs.
func Decode(blobs Blobs, reg *predictor.Registry, opts predictor.Options) (*model.ArtifactBundle, map[string]float64, error) {
	schema, err := DecodeSchema(blobs.Schema)
	if err != nil {
		return nil, nil, err
	}

	scaler, scalerFP, err := DecodeScaler(blobs.Scaler)
	if err != nil {
		return nil, nil, err
	}
	if scalerFP != schema.Fingerprint() {
		return nil, nil, fmt.Errorf("%w: scaler was fitted for schema %s, schema is %s",
			model.ErrSchemaCorrupt, short(scalerFP), short(schema.Fingerprint()))
	}

	decoded, err := DecodePredictor(blobs.Predictor, reg, opts)
	if err != nil {
		return nil, nil, err
	}

	bundle, err := bind(schema, scaler, decoded)
	if err != nil {
		if cerr := model.ClosePredictor(decoded.Predictor); cerr != nil {
			err = errors.Join(err, fmt.Errorf("release predictor: %w", cerr))
		}
		return nil, nil, err
	}
	return bundle, decoded.Metrics, nil
}

func bind(schema *model.Schema, scaler *model.ScalerParameters, decoded DecodedPredictor) (*model.ArtifactBundle, error) {
	if decoded.Fingerprint != schema.Fingerprint() {
		return nil, fmt.Errorf("%w: predictor was trained for schema %s, schema is %s",
			model.ErrSchemaCorrupt, short(decoded.Fingerprint), short(schema.Fingerprint()))
	}
	if names := decoded.Predictor.FeatureNames(); names != nil && decoded.Predictor.InputWidth() == schema.Len() {
		if err := service.CheckSkew(schema, names); err != nil {
			return nil, err
		}
	}
	return model.PackageArtifact(schema, scaler, decoded.Predictor)
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
