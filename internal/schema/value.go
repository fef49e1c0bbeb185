package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValueKind identifies which member of the Value union is set.
type ValueKind string

const (
	KindInt    ValueKind = "int"
	KindFloat  ValueKind = "float"
	KindString ValueKind = "string"
)

// Value is a tagged-union parameter value: an int, a float or a string.
// Enum parameters are represented as string values checked against the
// spec's option list. The zero Value is an int 0.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

// IntValue creates an int Value.
func IntValue(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// FloatValue creates a float Value.
func FloatValue(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// StringValue creates a string Value.
func StringValue(v string) Value {
	return Value{kind: KindString, s: v}
}

// Kind returns which member of the union is set.
func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindInt
	}

	return v.kind
}

// Int returns the int member. Float values with an integral value are converted.
func (v Value) Int() int64 {
	if v.Kind() == KindFloat {
		return int64(v.f)
	}

	return v.i
}

// Float returns the numeric value as a float64, promoting ints.
func (v Value) Float() float64 {
	if v.Kind() == KindInt {
		return float64(v.i)
	}

	return v.f
}

// Str returns the string member.
func (v Value) Str() string {
	return v.s
}

// IsNumeric reports whether the value is an int or a float.
func (v Value) IsNumeric() bool {
	k := v.Kind()

	return k == KindInt || k == KindFloat
}

// Equal reports whether two values have the same kind and content.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}

	switch v.Kind() {
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	default:
		return v.s == other.s
	}
}

// String implements fmt.Stringer for logs and error messages.
func (v Value) String() string {
	switch v.Kind() {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	default:
		return v.s
	}
}

// MarshalJSON encodes the value as a native JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	default:
		return json.Marshal(v.s)
	}
}

// UnmarshalJSON decodes a JSON scalar into a Value. Numbers without a
// fraction or exponent decode as ints, everything else numeric as floats.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}

	switch t := tok.(type) {
	case string:
		*v = StringValue(t)
	case json.Number:
		raw := t.String()
		if !strings.ContainsAny(raw, ".eE") {
			i, err := t.Int64()
			if err != nil {
				return err
			}

			*v = IntValue(i)

			return nil
		}

		f, err := t.Float64()
		if err != nil {
			return err
		}

		*v = FloatValue(f)
	default:
		return fmt.Errorf("unsupported parameter value %s, expected a number or a string", string(data))
	}

	return nil
}
