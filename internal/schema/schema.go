// Package schema declares the tunable parameters of each strategy and is the
// single authority for what counts as a valid parameter key and value. All
// other components defer to it instead of duplicating validation rules.
package schema

import (
	"math"

	"github.com/moznion/go-optional"
	"github.com/tradeview-lab/tradeview/pkg/errors"
)

// ParamType is the declared type of a strategy parameter.
type ParamType string

const (
	ParamTypeInt    ParamType = "int"
	ParamTypeFloat  ParamType = "float"
	ParamTypeString ParamType = "string"
	ParamTypeEnum   ParamType = "enum"
)

// ParamSpec declares one tunable parameter of a strategy.
type ParamSpec struct {
	// Key is the parameter identifier, unique within a strategy.
	Key string `json:"key"`
	// Type is one of int, float, string, enum.
	Type ParamType `json:"type"`
	// Default is the value used when a config does not override the key.
	Default Value `json:"default"`
	// Min and Max bound numeric parameters when set.
	Min optional.Option[float64] `json:"min,omitempty"`
	Max optional.Option[float64] `json:"max,omitempty"`
	// Options is the ordered list of allowed values for enum parameters.
	Options []string `json:"options,omitempty"`
	// Description is a human-readable label.
	Description string `json:"description,omitempty"`
}

// Params is a sparse key -> value mapping of explicit overrides.
type Params map[string]Value

// EffectiveParams is a fully-resolved parameter mapping: every schema key is
// present, overrides merged onto defaults. Never persisted.
type EffectiveParams map[string]Value

// Int returns the int value for key, or fallback when absent.
func (p EffectiveParams) Int(key string, fallback int64) int64 {
	if v, ok := p[key]; ok && v.IsNumeric() {
		return v.Int()
	}

	return fallback
}

// Float returns the float value for key, or fallback when absent.
func (p EffectiveParams) Float(key string, fallback float64) float64 {
	if v, ok := p[key]; ok && v.IsNumeric() {
		return v.Float()
	}

	return fallback
}

// Str returns the string value for key, or fallback when absent.
func (p EffectiveParams) Str(key string, fallback string) string {
	if v, ok := p[key]; ok && v.Kind() == KindString {
		return v.Str()
	}

	return fallback
}

// Validate checks a single value against the spec and returns the value in
// its canonical kind (e.g. an integral JSON float handed to an int parameter
// comes back as an int).
func (s ParamSpec) Validate(v Value) (Value, error) {
	switch s.Type {
	case ParamTypeInt:
		if !v.IsNumeric() {
			return Value{}, errors.Newf(errors.ErrCodeTypeMismatch,
				"parameter %q expects an int, got %q", s.Key, v.String())
		}

		if v.Kind() == KindFloat && v.Float() != math.Trunc(v.Float()) {
			return Value{}, errors.Newf(errors.ErrCodeTypeMismatch,
				"parameter %q expects an int, got non-integral %s", s.Key, v.String())
		}

		normalized := IntValue(v.Int())
		if err := s.checkBounds(normalized.Float()); err != nil {
			return Value{}, err
		}

		return normalized, nil

	case ParamTypeFloat:
		if !v.IsNumeric() {
			return Value{}, errors.Newf(errors.ErrCodeTypeMismatch,
				"parameter %q expects a float, got %q", s.Key, v.String())
		}

		normalized := FloatValue(v.Float())
		if err := s.checkBounds(normalized.Float()); err != nil {
			return Value{}, err
		}

		return normalized, nil

	case ParamTypeString:
		if v.Kind() != KindString {
			return Value{}, errors.Newf(errors.ErrCodeTypeMismatch,
				"parameter %q expects a string, got %s", s.Key, v.String())
		}

		return v, nil

	case ParamTypeEnum:
		if v.Kind() != KindString {
			return Value{}, errors.Newf(errors.ErrCodeTypeMismatch,
				"parameter %q expects one of %v, got %s", s.Key, s.Options, v.String())
		}

		for _, option := range s.Options {
			if v.Str() == option {
				return v, nil
			}
		}

		return Value{}, errors.Newf(errors.ErrCodeOutOfEnum,
			"parameter %q must be one of %v, got %q", s.Key, s.Options, v.Str())

	default:
		return Value{}, errors.Newf(errors.ErrCodeValidation,
			"parameter %q has unsupported type %q", s.Key, s.Type)
	}
}

func (s ParamSpec) checkBounds(v float64) error {
	if s.Min.IsSome() && v < s.Min.Unwrap() {
		return errors.Newf(errors.ErrCodeOutOfBounds,
			"parameter %q must be >= %v, got %v", s.Key, s.Min.Unwrap(), v)
	}

	if s.Max.IsSome() && v > s.Max.Unwrap() {
		return errors.Newf(errors.ErrCodeOutOfBounds,
			"parameter %q must be <= %v, got %v", s.Key, s.Max.Unwrap(), v)
	}

	return nil
}

// Defaults returns the full default mapping for a spec set.
func Defaults(specs []ParamSpec) EffectiveParams {
	defaults := make(EffectiveParams, len(specs))
	for _, spec := range specs {
		defaults[spec.Key] = spec.Default
	}

	return defaults
}
