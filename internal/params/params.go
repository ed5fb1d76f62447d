// Package params extracts, coerces and validates request parameters from
// JSON bodies (with form-encoded fallback) against ordered attribute
// descriptors. On success the coerced values come back in descriptor
// order so callers can destructure them positionally.
package params

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Kind selects the coercion applied to a parameter.
type Kind int

// Parameter kinds. String is the default.
const (
	String Kind = iota
	StringList
	Bool
	Float
	Changes
)

// Attr describes one expected request parameter.
type Attr struct {
	Name     string
	Optional bool // parameters are required unless marked optional
	Type     Kind
	Default  any             // used when optional and absent
	Validate func(any) error // applied after coercion
}

// MissingParameterError reports a required parameter that was absent.
type MissingParameterError struct {
	Name string
}

func (e *MissingParameterError) Error() string {
	return fmt.Sprintf("must provide %s", e.Name)
}

func (e *MissingParameterError) Unwrap() error { return domain.ErrMissingParameter }

// InvalidTypeError reports a parameter that could not be coerced.
type InvalidTypeError struct {
	Name string
	Raw  string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf("parameter %s has invalid type (got %s)", e.Name, e.Raw)
}

func (e *InvalidTypeError) Unwrap() error { return domain.ErrInvalidType }

// ValidationFailedError reports a parameter rejected by its validator.
type ValidationFailedError struct {
	Name   string
	Reason error
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("parameter %s: %v", e.Name, e.Reason)
}

func (e *ValidationFailedError) Unwrap() []error {
	return []error{domain.ErrValidationFailed, e.Reason}
}

// Extract pulls the described parameters out of a JSON body, falling back
// to form values for parameters missing from the body. It fails fast on
// the first problem and otherwise returns coerced values in descriptor
// order.
func Extract(body []byte, form url.Values, attrs []Attr) ([]any, error) {
	fields := map[string]json.RawMessage{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("invalid request body: %w: %w", domain.ErrInvalidType, err)
		}
	}

	out := make([]any, 0, len(attrs))
	for _, attr := range attrs {
		raw, inBody := fields[attr.Name]
		formVal := ""
		inForm := false
		if !inBody && form != nil {
			formVal = form.Get(attr.Name)
			inForm = form.Has(attr.Name)
		}

		if !inBody && !inForm {
			if !attr.Optional {
				return nil, &MissingParameterError{Name: attr.Name}
			}
			out = append(out, attr.Default)
			continue
		}

		var (
			val any
			err error
		)
		if inBody {
			val, err = coerceJSON(attr, raw)
		} else {
			val, err = coerceForm(attr, formVal)
		}
		if err != nil {
			return nil, err
		}

		if attr.Validate != nil {
			if verr := attr.Validate(val); verr != nil {
				return nil, &ValidationFailedError{Name: attr.Name, Reason: verr}
			}
		}
		out = append(out, val)
	}
	return out, nil
}

func coerceJSON(attr Attr, raw json.RawMessage) (any, error) {
	switch attr.Type {
	case String:
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s, nil
		}
		// Numeric ids arrive as JSON numbers from some clients.
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil {
			return n.String(), nil
		}
		return nil, &InvalidTypeError{Name: attr.Name, Raw: string(raw)}

	case StringList:
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			return list, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return []string{s}, nil
		}
		return nil, &InvalidTypeError{Name: attr.Name, Raw: string(raw)}

	case Bool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, &InvalidTypeError{Name: attr.Name, Raw: string(raw)}
		}
		return b, nil

	case Float:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, &InvalidTypeError{Name: attr.Name, Raw: string(raw)}
		}
		return f, nil

	case Changes:
		changes, err := ParseChanges(raw)
		if err != nil {
			return nil, &InvalidTypeError{Name: attr.Name, Raw: string(raw)}
		}
		return changes, nil

	default:
		return nil, &InvalidTypeError{Name: attr.Name, Raw: string(raw)}
	}
}

func coerceForm(attr Attr, v string) (any, error) {
	switch attr.Type {
	case String:
		return v, nil
	case StringList:
		return []string{v}, nil
	case Bool:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, &InvalidTypeError{Name: attr.Name, Raw: v}
		}
		return b, nil
	case Float:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &InvalidTypeError{Name: attr.Name, Raw: v}
		}
		return f, nil
	default:
		return nil, &InvalidTypeError{Name: attr.Name, Raw: v}
	}
}
