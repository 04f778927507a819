package service

import (
	"fmt"
	"strings"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// Reconstructor maps validated input onto the exact ordered vector the
// schema demands. It is pure.
type Reconstructor struct{}

// NewReconstructor creates a Reconstructor.
func NewReconstructor() *Reconstructor {
	return &Reconstructor{}
}

// Reconstruct emits one float per schema feature, in schema order. Continuous
// and binary positions take the validated scalar; a one-hot position is 1.0
// only when its category was selected for its group. Unknown categories and
// groups with more than one distinct selection are rejected.
func (r *Reconstructor) Reconstruct(in model.ValidatedInput, schema *model.Schema) (model.FeatureVector, error) {
	vec := make(model.FeatureVector, schema.Len())
	var errs model.FieldErrors

	for i, spec := range schema.Features() {
		if spec.Kind.IsOneHotMember() {
			continue
		}
		val, ok := in.Values[spec.Name]
		if !ok && spec.Kind.IsContinuous() {
			errs = append(errs, model.FieldError{
				Field: spec.Name, Code: model.CodeMissingRequired,
				Message: "field is required",
			})
			continue
		}
		vec[i] = val
	}

	for name := range in.Selections {
		if !schema.IsGroup(name) {
			errs = append(errs, model.FieldError{
				Field: name, Code: model.CodeUnknownField,
				Message: "field is not part of the model schema",
			})
		}
	}

	for _, group := range schema.Groups() {
		var chosen []model.Selection
		for _, sel := range in.Selections[group.Name] {
			if !schema.HasCategory(group.Name, sel.Category) {
				errs = append(errs, model.FieldError{
					Field: sel.Field, Code: model.CodeUnknownCategory,
					Message: fmt.Sprintf("category %q is not known for %s (known: %s)",
						sel.Category, group.Name, strings.Join(group.Categories, ", ")),
				})
				continue
			}
			if sel.Cleared || containsCategory(chosen, sel.Category) {
				continue
			}
			chosen = append(chosen, sel)
		}

		switch len(chosen) {
		case 0:
		case 1:
			if pos, ok := schema.MemberPosition(group.Name, chosen[0].Category); ok {
				vec[pos] = 1
			}
		default:
			fields := make([]string, len(chosen))
			for i, sel := range chosen {
				fields[i] = sel.Field
			}
			errs = append(errs, model.FieldError{
				Field: group.Name, Code: model.CodeAmbiguousSelection,
				Message: fmt.Sprintf("more than one category selected (%s)", strings.Join(fields, ", ")),
			})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return vec, nil
}

func containsCategory(sels []model.Selection, category string) bool {
	for _, s := range sels {
		if s.Category == category {
			return true
		}
	}
	return false
}
