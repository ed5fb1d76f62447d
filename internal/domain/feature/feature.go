package feature

import (
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Type is the declared kind of a model input feature.
type Type string

// Feature type constants. A closed enum, rejected on write otherwise.
const (
	Binary      Type = "binary"
	Categorical Type = "categorical"
	Numeric     Type = "numeric"
)

// Valid reports whether t is a member of the closed enum.
func (t Type) Valid() bool {
	return t == Binary || t == Categorical || t == Numeric
}

// Feature describes one named model input dimension.
type Feature struct {
	name               string
	description        string
	negatedDescription string
	category           string // Category name; empty means uncategorized
	ftype              Type
	values             []string // possible values, categorical only
}

// New validates and creates a Feature.
func New(name, description, negatedDescription, category string, ftype Type, values []string) (Feature, error) {
	if name == "" {
		return Feature{}, fmt.Errorf("feature name is required: %w", domain.ErrValidation)
	}
	if !ftype.Valid() {
		return Feature{}, fmt.Errorf(
			"feature %s: type must be one of binary, categorical, numeric, got %q: %w",
			name, ftype, domain.ErrValidation,
		)
	}
	if ftype != Categorical && len(values) > 0 {
		return Feature{}, fmt.Errorf(
			"feature %s: values may only be provided for categorical features: %w",
			name, domain.ErrValidation,
		)
	}
	return Feature{
		name:               name,
		description:        description,
		negatedDescription: negatedDescription,
		category:           category,
		ftype:              ftype,
		values:             values,
	}, nil
}

// Reconstruct creates a Feature without validation (storage hydration).
func Reconstruct(name, description, negatedDescription, category string, ftype Type, values []string) Feature {
	return Feature{
		name: name, description: description, negatedDescription: negatedDescription,
		category: category, ftype: ftype, values: values,
	}
}

// Name returns the feature name.
func (f Feature) Name() string { return f.name }

// Description returns the readable description.
func (f Feature) Description() string { return f.description }

// NegatedDescription returns the description in negated form.
func (f Feature) NegatedDescription() string { return f.negatedDescription }

// Category returns the referenced Category name, empty if uncategorized.
func (f Feature) Category() string { return f.category }

// FeatureType returns the declared type.
func (f Feature) FeatureType() Type { return f.ftype }

// Values returns the possible values for categorical features.
func (f Feature) Values() []string { return f.values }

// WithoutCategory returns a copy with the category reference cleared.
// Used when the referenced Category is deleted (nullify, not cascade).
func (f Feature) WithoutCategory() Feature {
	f.category = ""
	return f
}
