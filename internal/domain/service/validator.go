package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/cropyield/yield-service/internal/domain/model"
)

// InferenceRequest is raw client input keyed by client field name.
type InferenceRequest map[string]any

// Validator checks untrusted input against the schema's declared fields and
// ranges. It reports every problem found rather than stopping at the first.
type Validator struct{}

// NewValidator creates a Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate resolves every request key through the schema's alias map and
// range-checks its value. Continuous features are mandatory; binary flags
// and one-hot members default to 0.
func (v *Validator) Validate(req InferenceRequest, schema *model.Schema) (model.ValidatedInput, error) {
	in := model.NewValidatedInput()
	var errs model.FieldErrors
	seen := make(map[string]string, len(req))

	keys := make([]string, 0, len(req))
	for k := range req {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		raw := req[key]
		target, ok := schema.Resolve(key)
		if !ok {
			group, category, isMember := schema.SplitGroupKey(key)
			if !isMember {
				errs = append(errs, model.FieldError{
					Field: key, Code: model.CodeUnknownField,
					Message: "field is not part of the model schema",
				})
				continue
			}
			set, fe := flagValue(key, raw)
			if fe != nil {
				errs = append(errs, *fe)
				continue
			}
			in.Selections[group] = append(in.Selections[group], model.Selection{
				Category: category, Field: key, Cleared: !set,
			})
			continue
		}

		if prev, dup := seen[target]; dup {
			errs = append(errs, model.FieldError{
				Field: key, Code: model.CodeDuplicateField,
				Message: fmt.Sprintf("field %s was already supplied as %s", target, prev),
			})
			continue
		}
		seen[target] = key

		if schema.IsGroup(target) {
			category, isString := raw.(string)
			if !isString || category == "" {
				errs = append(errs, model.FieldError{
					Field: key, Code: model.CodeWrongType,
					Message: "expected a category name",
				})
				continue
			}
			in.Selections[target] = append(in.Selections[target], model.Selection{
				Category: category, Field: key,
			})
			continue
		}

		pos, _ := schema.Index(target)
		spec := schema.Feature(pos)
		switch {
		case spec.Kind.IsOneHotMember():
			set, fe := flagValue(key, raw)
			if fe != nil {
				errs = append(errs, *fe)
				continue
			}
			if set {
				in.Selections[spec.Group] = append(in.Selections[spec.Group], model.Selection{
					Category: spec.Category, Field: key,
				})
			}
		default:
			val, fe := numericValue(key, raw, spec)
			if fe != nil {
				errs = append(errs, *fe)
				continue
			}
			in.Values[spec.Name] = val
		}
	}

	for _, spec := range schema.Features() {
		if _, ok := in.Values[spec.Name]; ok {
			continue
		}
		switch {
		case spec.Kind.IsContinuous():
			if _, failed := seen[spec.Name]; failed {
				continue
			}
			errs = append(errs, model.FieldError{
				Field: spec.Name, Code: model.CodeMissingRequired,
				Message: "field is required",
			})
		case spec.Kind.IsBinaryFlag():
			if _, failed := seen[spec.Name]; !failed {
				in.Values[spec.Name] = 0
			}
		}
	}

	if len(errs) > 0 {
		return model.ValidatedInput{}, errs
	}
	return in, nil
}

// numericValue checks a continuous or binary value against its spec.
func numericValue(field string, raw any, spec model.FeatureSpec) (float64, *model.FieldError) {
	val, ok := toFloat(raw)
	if !ok && spec.Kind.IsBinaryFlag() {
		if b, isBool := raw.(bool); isBool {
			val, ok = boolToFloat(b), true
		}
	}
	if !ok {
		return 0, &model.FieldError{Field: field, Code: model.CodeWrongType, Message: "expected a number"}
	}
	if spec.Integer && math.Trunc(val) != val {
		return 0, &model.FieldError{Field: field, Code: model.CodeWrongType, Message: "expected an integer"}
	}
	if !spec.InRange(val) {
		return 0, &model.FieldError{
			Field: field, Code: model.CodeOutOfRange,
			Message: fmt.Sprintf("must be between %v and %v, got %v", spec.Min, spec.Max, val),
		}
	}
	return val, nil
}

// flagValue reads a one-hot flag, which must be 0 or 1.
func flagValue(field string, raw any) (bool, *model.FieldError) {
	if b, ok := raw.(bool); ok {
		return b, nil
	}
	val, ok := toFloat(raw)
	if !ok {
		return false, &model.FieldError{Field: field, Code: model.CodeWrongType, Message: "expected 0 or 1"}
	}
	switch val {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, &model.FieldError{
			Field: field, Code: model.CodeOutOfRange,
			Message: fmt.Sprintf("must be 0 or 1, got %v", val),
		}
	}
}

func toFloat(raw any) (float64, bool) {
	var f float64
	switch n := raw.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint32:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
