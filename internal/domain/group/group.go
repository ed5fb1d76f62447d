package group

import (
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Group is a simple tagging document used for filtered entity listing.
type Group struct {
	groupID  string
	property map[string]any
}

// New validates and creates a Group.
func New(groupID string, property map[string]any) (Group, error) {
	if groupID == "" {
		return Group{}, fmt.Errorf("group id is required: %w", domain.ErrValidation)
	}
	return Group{groupID: groupID, property: property}, nil
}

// Reconstruct creates a Group without validation (storage hydration).
func Reconstruct(groupID string, property map[string]any) Group {
	return Group{groupID: groupID, property: property}
}

// ID returns the group id.
func (g Group) ID() string { return g.groupID }

// Property returns the domain-specific group properties.
func (g Group) Property() map[string]any { return g.property }
