package training

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cropyield/yield-service/internal/domain/model"
	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

//go:embed crop_manifest.yaml
var cropManifest []byte

// Manifest declares which CSV columns feed the model and how each is encoded.
// Column order is the training column order.
type Manifest struct {
	Target   string           `yaml:"target"`
	Encoding string           `yaml:"encoding"`
	Columns  []ManifestColumn `yaml:"columns"`
}

// ManifestColumn declares one feature column. Continuous columns without a
// range accept any finite value.
type ManifestColumn struct {
	Name    string   `yaml:"name"`
	Kind    string   `yaml:"kind"`
	Min     *float64 `yaml:"min"`
	Max     *float64 `yaml:"max"`
	Integer bool     `yaml:"integer"`
	Aliases []string `yaml:"aliases"`
}

// DefaultManifest returns the built-in crop yield manifest.
func DefaultManifest() (*Manifest, error) {
	return ParseManifest(cropManifest)
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data)
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest for structural problems.
func (m *Manifest) Validate() error {
	if m.Target == "" {
		return fmt.Errorf("manifest: target is required")
	}
	if len(m.Columns) == 0 {
		return fmt.Errorf("manifest: at least one column is required")
	}
	if m.Encoding != "" {
		if _, err := valueobject.EncodingPolicyFromString(m.Encoding); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	seen := make(map[string]bool, len(m.Columns))
	for _, c := range m.Columns {
		if c.Name == "" {
			return fmt.Errorf("manifest: column name is required")
		}
		if c.Name == m.Target {
			return fmt.Errorf("manifest: target %s cannot also be a feature", c.Name)
		}
		if seen[c.Name] {
			return fmt.Errorf("manifest: column %s declared twice", c.Name)
		}
		seen[c.Name] = true
		switch model.ColumnKind(c.Kind) {
		case model.ColumnContinuous, model.ColumnBinary, model.ColumnCategorical:
		default:
			return fmt.Errorf("manifest: column %s has unsupported kind %q", c.Name, c.Kind)
		}
	}
	return nil
}

// Policy returns the manifest's encoding policy, drop_first when unset.
func (m *Manifest) Policy() valueobject.EncodingPolicy {
	if p, err := valueobject.EncodingPolicyFromString(m.Encoding); err == nil {
		return p
	}
	return valueobject.EncodingDropFirst
}

// ColumnSpecs converts the manifest into schema column declarations.
func (m *Manifest) ColumnSpecs() []model.ColumnSpec {
	specs := make([]model.ColumnSpec, 0, len(m.Columns))
	for _, c := range m.Columns {
		spec := model.ColumnSpec{
			Name:    c.Name,
			Kind:    model.ColumnKind(c.Kind),
			Min:     -math.MaxFloat64,
			Max:     math.MaxFloat64,
			Integer: c.Integer,
			Aliases: c.Aliases,
		}
		if c.Min != nil {
			spec.Min = *c.Min
		}
		if c.Max != nil {
			spec.Max = *c.Max
		}
		specs = append(specs, spec)
	}
	return specs
}
