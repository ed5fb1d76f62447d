package domain

import (
	"encoding/json"
	"fmt"
)

// ValueKind discriminates the scalar kinds a feature cell can hold.
type ValueKind int

// Scalar kinds.
const (
	KindNumeric ValueKind = iota
	KindBool
	KindString
)

// Value is an immutable scalar: the numeric, boolean or string content of
// one feature cell or label. The zero Value is numeric 0.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
	str  string
}

// Num creates a numeric value.
func Num(v float64) Value { return Value{kind: KindNumeric, num: v} }

// Bool creates a boolean value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Str creates a string value.
func Str(v string) Value { return Value{kind: KindString, str: v} }

// Kind returns the scalar kind.
func (v Value) Kind() ValueKind { return v.kind }

// Float returns the value as float64. Booleans map to 0/1.
// ok is false for strings.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumeric:
		return v.num, true
	case KindBool:
		if v.b {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// String returns the string content for string values, else a formatted form.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", v.num)
	}
}

// Any returns the native Go representation for JSON shaping.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindBool:
		return v.b
	default:
		return v.num
	}
}

// Equal compares two values by kind and content.
func (v Value) Equal(o Value) bool { return v == o }

// MarshalJSON encodes the scalar in its native JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Any())
}

// UnmarshalJSON decodes a JSON scalar into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ValueOf(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// ValueOf converts a decoded JSON scalar into a Value.
// Only numbers, booleans and strings are accepted.
func ValueOf(raw any) (Value, error) {
	switch t := raw.(type) {
	case float64:
		return Num(t), nil
	case int:
		return Num(float64(t)), nil
	case int64:
		return Num(float64(t)), nil
	case bool:
		return Bool(t), nil
	case string:
		return Str(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		return Num(f), nil
	default:
		return Value{}, fmt.Errorf("unsupported scalar %T: %w", raw, ErrValidation)
	}
}

// ValuesOf converts a decoded JSON object into a feature-name → Value map.
func ValuesOf(raw map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(raw))
	for k, r := range raw {
		v, err := ValueOf(r)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
