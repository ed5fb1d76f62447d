package category

import (
	"fmt"
	"regexp"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// Category groups features for display purposes.
type Category struct {
	name         string
	color        string // hex, optional
	abbreviation string // at most 3 chars
}

// New validates and creates a Category.
func New(name, color, abbreviation string) (Category, error) {
	if name == "" {
		return Category{}, fmt.Errorf("category name is required: %w", domain.ErrValidation)
	}
	if color != "" && !hexColorRegex.MatchString(color) {
		return Category{}, fmt.Errorf("category %s: color %q is not a hex color: %w", name, color, domain.ErrValidation)
	}
	if len(abbreviation) > 3 {
		return Category{}, fmt.Errorf(
			"category %s: abbreviation %q longer than 3 chars: %w", name, abbreviation, domain.ErrValidation,
		)
	}
	return Category{name: name, color: color, abbreviation: abbreviation}, nil
}

// Reconstruct creates a Category without validation (storage hydration).
func Reconstruct(name, color, abbreviation string) Category {
	return Category{name: name, color: color, abbreviation: abbreviation}
}

// Name returns the category name.
func (c Category) Name() string { return c.name }

// Color returns the display color, empty if unset.
func (c Category) Color() string { return c.color }

// Abbreviation returns the short display form.
func (c Category) Abbreviation() string { return c.abbreviation }
