package params

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"testing"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

func TestExtract_ReturnsValuesInDescriptorOrder(t *testing.T) {
	body := []byte(`{"eid":"e1","model_id":"m1","return_proba":true}`)

	vals, err := Extract(body, nil, []Attr{
		{Name: "model_id"},
		{Name: "eid"},
		{Name: "return_proba", Type: Bool},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vals[0].(string) != "m1" || vals[1].(string) != "e1" || vals[2].(bool) != true {
		t.Errorf("positional values: got %v", vals)
	}
}

func TestExtract_MissingRequiredParameter(t *testing.T) {
	_, err := Extract([]byte(`{"eid":"e1"}`), nil, []Attr{
		{Name: "eid"},
		{Name: "model_id"},
	})
	if !errors.Is(err, domain.ErrMissingParameter) {
		t.Fatalf("expected ErrMissingParameter, got %v", err)
	}

	var missing *MissingParameterError
	if !errors.As(err, &missing) || missing.Name != "model_id" {
		t.Errorf("error must name the missing parameter, got %v", err)
	}
}

func TestExtract_OptionalDefault(t *testing.T) {
	vals, err := Extract([]byte(`{"eid":"e1"}`), nil, []Attr{
		{Name: "eid"},
		{Name: "row_id", Optional: true, Default: ""},
		{Name: "return_proba", Type: Bool, Optional: true, Default: false},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vals[1].(string) != "" {
		t.Errorf("row_id default: got %v", vals[1])
	}
	if vals[2].(bool) != false {
		t.Errorf("return_proba default: got %v", vals[2])
	}
}

func TestExtract_CoercionFailures(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		body string
	}{
		{"bool from string", Attr{Name: "flag", Type: Bool}, `{"flag":"yes"}`},
		{"float from object", Attr{Name: "n", Type: Float}, `{"n":{}}`},
		{"string from array", Attr{Name: "id", Type: String}, `{"id":[1]}`},
		{"list from number", Attr{Name: "eids", Type: StringList}, `{"eids":7}`},
		{"changes from array", Attr{Name: "changes", Type: Changes}, `{"changes":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Extract([]byte(tt.body), nil, []Attr{tt.attr})
			if !errors.Is(err, domain.ErrInvalidType) {
				t.Fatalf("expected ErrInvalidType, got %v", err)
			}
			var invalid *InvalidTypeError
			if !errors.As(err, &invalid) || invalid.Name != tt.attr.Name {
				t.Errorf("error must name the parameter, got %v", err)
			}
		})
	}
}

func TestExtract_NumericIDCoercedToString(t *testing.T) {
	vals, err := Extract([]byte(`{"eid":17}`), nil, []Attr{{Name: "eid"}})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vals[0].(string) != "17" {
		t.Errorf("numeric id: got %q, want \"17\"", vals[0])
	}
}

func TestExtract_ScalarPromotedToStringList(t *testing.T) {
	vals, err := Extract([]byte(`{"eids":"e1"}`), nil, []Attr{{Name: "eids", Type: StringList}})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if got := vals[0].([]string); !reflect.DeepEqual(got, []string{"e1"}) {
		t.Errorf("scalar list: got %v, want [e1]", got)
	}
}

func TestExtract_FormFallback(t *testing.T) {
	form := url.Values{}
	form.Set("model_id", "m1")
	form.Set("return_proba", "true")
	form.Set("prediction", "6")

	// eid comes from the body, the rest from the form.
	vals, err := Extract([]byte(`{"eid":"e1"}`), form, []Attr{
		{Name: "eid"},
		{Name: "model_id"},
		{Name: "return_proba", Type: Bool},
		{Name: "prediction", Type: Float},
	})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vals[1].(string) != "m1" || vals[2].(bool) != true || vals[3].(float64) != 6 {
		t.Errorf("form fallback: got %v", vals)
	}
}

func TestExtract_BodyWinsOverForm(t *testing.T) {
	form := url.Values{}
	form.Set("eid", "from-form")

	vals, err := Extract([]byte(`{"eid":"from-body"}`), form, []Attr{{Name: "eid"}})
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if vals[0].(string) != "from-body" {
		t.Errorf("precedence: got %q, want from-body", vals[0])
	}
}

func TestExtract_FormCoercionFailure(t *testing.T) {
	form := url.Values{}
	form.Set("prediction", "six")

	_, err := Extract(nil, form, []Attr{{Name: "prediction", Type: Float}})
	if !errors.Is(err, domain.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestExtract_ValidateRejection(t *testing.T) {
	attr := Attr{
		Name: "eids",
		Type: StringList,
		Validate: func(v any) error {
			if len(v.([]string)) == 0 {
				return fmt.Errorf("needs at least one eid")
			}
			return nil
		},
	}

	_, err := Extract([]byte(`{"eids":[]}`), nil, []Attr{attr})
	if !errors.Is(err, domain.ErrValidationFailed) {
		t.Fatalf("expected ErrValidationFailed, got %v", err)
	}
	var failed *ValidationFailedError
	if !errors.As(err, &failed) || failed.Name != "eids" {
		t.Errorf("error must name the parameter, got %v", err)
	}

	if _, err := Extract([]byte(`{"eids":["e1"]}`), nil, []Attr{attr}); err != nil {
		t.Errorf("valid value rejected: %v", err)
	}
}

func TestExtract_FailsFastOnFirstProblem(t *testing.T) {
	// Both parameters are bad; the error reports the first descriptor.
	_, err := Extract([]byte(`{"a":[],"b":[]}`), nil, []Attr{
		{Name: "a", Type: Bool},
		{Name: "b", Type: Float},
	})
	var invalid *InvalidTypeError
	if !errors.As(err, &invalid) || invalid.Name != "a" {
		t.Fatalf("expected failure on first descriptor, got %v", err)
	}
}

func TestExtract_InvalidBody(t *testing.T) {
	_, err := Extract([]byte(`not json`), nil, []Attr{{Name: "eid"}})
	if !errors.Is(err, domain.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestParseChanges_PreservesKeyOrder(t *testing.T) {
	changes, err := ParseChanges([]byte(`{"C":5,"A":6,"B":true,"D":"x"}`))
	if err != nil {
		t.Fatalf("parse changes: %v", err)
	}

	want := ChangeList{
		{Feature: "C", Value: domain.Num(5)},
		{Feature: "A", Value: domain.Num(6)},
		{Feature: "B", Value: domain.Bool(true)},
		{Feature: "D", Value: domain.Str("x")},
	}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("changes: got %v, want %v", changes, want)
	}
}

func TestChangeList_AsMapLastWriteWins(t *testing.T) {
	changes, err := ParseChanges([]byte(`{"A":1,"A":2}`))
	if err != nil {
		t.Fatalf("parse changes: %v", err)
	}
	m := changes.AsMap()
	if v, _ := m["A"].Float(); v != 2 {
		t.Errorf("duplicate key: got %v, want 2", v)
	}
}
