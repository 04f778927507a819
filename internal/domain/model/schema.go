package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/cropyield/yield-service/internal/domain/valueobject"
)

// FeatureSpec describes one column of the vector the predictor consumes.
type FeatureSpec struct {
	Name     string
	Kind     valueobject.FeatureKind
	Group    string // one-hot members only
	Category string // one-hot members only
	Min      float64
	Max      float64
	Integer  bool
}

// InRange reports whether v lies within the declared inclusive range.
func (f FeatureSpec) InRange(v float64) bool {
	return v >= f.Min && v <= f.Max
}

// OneHotGroup is the set of mutually exclusive columns encoding one categorical field.
type OneHotGroup struct {
	Name       string
	Categories []string // every known category, first-seen order, baseline included
	Baseline   string   // category without a column; empty under full encoding
	Members    []string // feature names in schema order
}

// ColumnKind classifies a training column before categorical expansion.
type ColumnKind string

const (
	ColumnContinuous  ColumnKind = "continuous"
	ColumnBinary      ColumnKind = "binary"
	ColumnCategorical ColumnKind = "categorical"
)

// ColumnSpec declares a training column that survived into the feature frame.
type ColumnSpec struct {
	Name    string
	Kind    ColumnKind
	Min     float64
	Max     float64
	Integer bool
	Aliases []string
}

// Schema is the ordered feature contract between the trained predictor and
// the serving path. Order is the contract: predictors index positionally.
// A Schema is immutable once built.
type Schema struct {
	features    []FeatureSpec
	index       map[string]int
	groups      []OneHotGroup
	groupIndex  map[string]int
	memberIndex map[string]map[string]int // group -> category -> feature position
	aliases     map[string]string         // client name -> feature or group name
	policy      valueobject.EncodingPolicy
	fingerprint string
}

// BuildSchema expands training columns into the ordered schema. Continuous
// and binary columns come first in their original order; each categorical
// column then becomes a one-hot group with members in first-seen category
// order. categories holds the observed values of each categorical column.
func BuildSchema(columns []ColumnSpec, categories map[string][]string, policy valueobject.EncodingPolicy) (*Schema, error) {
	if policy.IsZero() {
		return nil, fmt.Errorf("encoding policy is required")
	}

	var features []FeatureSpec
	var groups []OneHotGroup
	aliases := make(map[string]string)

	addAlias := func(alias, target string) error {
		if existing, ok := aliases[alias]; ok && existing != target {
			return fmt.Errorf("alias %q maps to both %q and %q", alias, existing, target)
		}
		aliases[alias] = target
		return nil
	}

	for _, col := range columns {
		if col.Name == "" {
			return nil, fmt.Errorf("column name is required")
		}
		switch col.Kind {
		case ColumnContinuous:
			if col.Min > col.Max {
				return nil, fmt.Errorf("column %s: min %v greater than max %v", col.Name, col.Min, col.Max)
			}
			features = append(features, FeatureSpec{
				Name: col.Name, Kind: valueobject.KindContinuous,
				Min: col.Min, Max: col.Max, Integer: col.Integer,
			})
		case ColumnBinary:
			features = append(features, FeatureSpec{
				Name: col.Name, Kind: valueobject.KindBinaryFlag,
				Min: 0, Max: 1, Integer: true,
			})
		case ColumnCategorical:
			continue
		default:
			return nil, fmt.Errorf("column %s: unsupported kind %q", col.Name, col.Kind)
		}
		for _, a := range col.Aliases {
			if err := addAlias(a, col.Name); err != nil {
				return nil, err
			}
		}
	}

	for _, col := range columns {
		if col.Kind != ColumnCategorical {
			continue
		}
		cats := dedupe(categories[col.Name])
		if len(cats) == 0 {
			return nil, fmt.Errorf("categorical column %s has no observed categories", col.Name)
		}

		group := OneHotGroup{Name: col.Name, Categories: cats}
		encoded := cats
		if policy.DropsFirst() {
			group.Baseline = cats[0]
			encoded = cats[1:]
		}
		for _, cat := range encoded {
			name := col.Name + "_" + cat
			group.Members = append(group.Members, name)
			features = append(features, FeatureSpec{
				Name: name, Kind: valueobject.KindOneHotMember,
				Group: col.Name, Category: cat,
				Min: 0, Max: 1, Integer: true,
			})
		}
		groups = append(groups, group)

		for _, a := range col.Aliases {
			if err := addAlias(a, col.Name); err != nil {
				return nil, err
			}
			for _, cat := range encoded {
				if err := addAlias(a+"_"+cat, col.Name+"_"+cat); err != nil {
					return nil, err
				}
			}
		}
	}

	return RestoreSchema(features, groups, aliases, policy)
}

// RestoreSchema rebuilds a Schema from persisted parts, re-checking every
// structural invariant. Identity aliases are implied and need not be stored.
func RestoreSchema(
	features []FeatureSpec,
	groups []OneHotGroup,
	aliases map[string]string,
	policy valueobject.EncodingPolicy,
) (*Schema, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("schema has no features")
	}
	if policy.IsZero() {
		return nil, fmt.Errorf("encoding policy is required")
	}

	s := &Schema{
		features:    append([]FeatureSpec(nil), features...),
		index:       make(map[string]int, len(features)),
		groups:      make([]OneHotGroup, 0, len(groups)),
		groupIndex:  make(map[string]int, len(groups)),
		memberIndex: make(map[string]map[string]int, len(groups)),
		aliases:     make(map[string]string, len(features)+len(aliases)),
		policy:      policy,
	}

	for i, f := range s.features {
		if f.Name == "" {
			return nil, fmt.Errorf("feature %d has no name", i)
		}
		if f.Kind.IsZero() {
			return nil, fmt.Errorf("feature %s has no kind", f.Name)
		}
		if _, dup := s.index[f.Name]; dup {
			return nil, fmt.Errorf("duplicate feature name %q", f.Name)
		}
		if f.Min > f.Max {
			return nil, fmt.Errorf("feature %s: min %v greater than max %v", f.Name, f.Min, f.Max)
		}
		s.index[f.Name] = i
	}

	for _, g := range groups {
		if _, dup := s.groupIndex[g.Name]; dup {
			return nil, fmt.Errorf("duplicate group %q", g.Name)
		}
		if _, clash := s.index[g.Name]; clash {
			return nil, fmt.Errorf("group %q collides with a feature name", g.Name)
		}
		g = OneHotGroup{
			Name:       g.Name,
			Categories: append([]string(nil), g.Categories...),
			Baseline:   g.Baseline,
			Members:    append([]string(nil), g.Members...),
		}
		if policy.DropsFirst() {
			if len(g.Categories) == 0 || g.Baseline != g.Categories[0] {
				return nil, fmt.Errorf("group %s: baseline %q is not its first category", g.Name, g.Baseline)
			}
		} else if g.Baseline != "" {
			return nil, fmt.Errorf("group %s: baseline %q under full encoding", g.Name, g.Baseline)
		}

		members := make(map[string]int, len(g.Members))
		for _, m := range g.Members {
			pos, ok := s.index[m]
			if !ok {
				return nil, fmt.Errorf("group %s: member %q is not a feature", g.Name, m)
			}
			f := s.features[pos]
			if !f.Kind.IsOneHotMember() || f.Group != g.Name {
				return nil, fmt.Errorf("group %s: feature %q is not one of its members", g.Name, m)
			}
			members[f.Category] = pos
		}
		for _, cat := range g.Categories {
			if cat == g.Baseline && policy.DropsFirst() {
				continue
			}
			if _, ok := members[cat]; !ok {
				return nil, fmt.Errorf("group %s: category %q has no member column", g.Name, cat)
			}
		}
		s.groupIndex[g.Name] = len(s.groups)
		s.memberIndex[g.Name] = members
		s.groups = append(s.groups, g)
	}

	for _, f := range s.features {
		if f.Kind.IsOneHotMember() {
			if _, ok := s.groupIndex[f.Group]; !ok {
				return nil, fmt.Errorf("feature %s references unknown group %q", f.Name, f.Group)
			}
		}
		s.aliases[f.Name] = f.Name
	}
	for _, g := range s.groups {
		s.aliases[g.Name] = g.Name
	}
	for alias, target := range aliases {
		if existing, ok := s.aliases[alias]; ok && existing != target {
			return nil, fmt.Errorf("alias %q maps to both %q and %q", alias, existing, target)
		}
		_, isFeature := s.index[target]
		_, isGroup := s.groupIndex[target]
		if !isFeature && !isGroup {
			return nil, fmt.Errorf("alias %q targets unknown name %q", alias, target)
		}
		s.aliases[alias] = target
	}

	s.fingerprint = fingerprintOf(s.Names())
	return s, nil
}

func fingerprintOf(names []string) string {
	sum := sha256.Sum256([]byte(strings.Join(names, "\x00")))
	return hex.EncodeToString(sum[:])
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// --- Accessors ---

func (s *Schema) Len() int                           { return len(s.features) }
func (s *Schema) Feature(i int) FeatureSpec          { return s.features[i] }
func (s *Schema) Policy() valueobject.EncodingPolicy { return s.policy }
func (s *Schema) Fingerprint() string                { return s.fingerprint }
func (s *Schema) Features() []FeatureSpec            { return append([]FeatureSpec(nil), s.features...) }

// Names returns the ordered feature names.
func (s *Schema) Names() []string {
	names := make([]string, len(s.features))
	for i, f := range s.features {
		names[i] = f.Name
	}
	return names
}

// ContinuousNames returns the names of the scaled columns in schema order.
func (s *Schema) ContinuousNames() []string {
	var names []string
	for _, f := range s.features {
		if f.Kind.IsContinuous() {
			names = append(names, f.Name)
		}
	}
	return names
}

// Index returns the position of the named feature.
func (s *Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Groups returns copies of the one-hot groups in schema order.
func (s *Schema) Groups() []OneHotGroup {
	out := make([]OneHotGroup, len(s.groups))
	for i, g := range s.groups {
		out[i] = OneHotGroup{
			Name:       g.Name,
			Categories: append([]string(nil), g.Categories...),
			Baseline:   g.Baseline,
			Members:    append([]string(nil), g.Members...),
		}
	}
	return out
}

// Group returns the named one-hot group.
func (s *Schema) Group(name string) (OneHotGroup, bool) {
	i, ok := s.groupIndex[name]
	if !ok {
		return OneHotGroup{}, false
	}
	return s.groups[i], true
}

// Aliases returns the full client-name map, identity entries included.
func (s *Schema) Aliases() map[string]string {
	out := make(map[string]string, len(s.aliases))
	for k, v := range s.aliases {
		out[k] = v
	}
	return out
}

// Resolve maps a client field name to a canonical feature or group name.
// Resolution is exact; there is no case folding or fuzzy matching.
func (s *Schema) Resolve(field string) (string, bool) {
	target, ok := s.aliases[field]
	return target, ok
}

// IsGroup reports whether name is a one-hot group.
func (s *Schema) IsGroup(name string) bool {
	_, ok := s.groupIndex[name]
	return ok
}

// HasCategory reports whether category is a known value of group, baseline included.
func (s *Schema) HasCategory(group, category string) bool {
	g, ok := s.Group(group)
	if !ok {
		return false
	}
	for _, c := range g.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// MemberPosition returns the vector position encoding category within group.
// It is false for unknown categories and for a dropped baseline.
func (s *Schema) MemberPosition(group, category string) (int, bool) {
	pos, ok := s.memberIndex[group][category]
	return pos, ok
}

// SplitGroupKey interprets an unresolved client key of the form
// "<group or group alias>_<category>" and returns the group and category
// it names. The longest matching prefix wins.
func (s *Schema) SplitGroupKey(key string) (group, category string, ok bool) {
	best := -1
	for alias, target := range s.aliases {
		if !s.IsGroup(target) {
			continue
		}
		prefix := alias + "_"
		if len(key) <= len(prefix) || !strings.HasPrefix(key, prefix) {
			continue
		}
		if len(prefix) > best || (len(prefix) == best && target < group) {
			best = len(prefix)
			group = target
			category = key[len(prefix):]
		}
	}
	return group, category, best >= 0
}

// DecodeSelections reads the category selected for every group back out of
// an encoded vector. A group with no member set decodes to its baseline,
// which is empty under full encoding.
func (s *Schema) DecodeSelections(vec FeatureVector) (map[string]string, error) {
	if len(vec) != len(s.features) {
		return nil, fmt.Errorf("%w: vector has %d values, schema has %d", ErrArtifactWidthMismatch, len(vec), len(s.features))
	}
	out := make(map[string]string, len(s.groups))
	for _, g := range s.groups {
		selected := g.Baseline
		count := 0
		for _, m := range g.Members {
			f := s.features[s.index[m]]
			if vec[s.index[m]] == 1 {
				selected = f.Category
				count++
			}
		}
		if count > 1 {
			return nil, fmt.Errorf("%w: group %s has %d members set", ErrAmbiguousOneHotSelection, g.Name, count)
		}
		out[g.Name] = selected
	}
	return out, nil
}
