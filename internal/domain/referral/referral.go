// Package referral models a case file grouping entities outside the
// feature space, e.g. all applicants attached to one case worker
// decision.
package referral

import (
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Referral is a case document: an id plus free-form case metadata.
type Referral struct {
	referralID string
	property   map[string]any
}

// New validates and creates a Referral.
func New(referralID string, property map[string]any) (Referral, error) {
	if referralID == "" {
		return Referral{}, fmt.Errorf("referral id is required: %w", domain.ErrValidation)
	}
	return Referral{referralID: referralID, property: property}, nil
}

// Reconstruct creates a Referral without validation (storage hydration).
func Reconstruct(referralID string, property map[string]any) Referral {
	return Referral{referralID: referralID, property: property}
}

// ID returns the referral id.
func (r Referral) ID() string { return r.referralID }

// Property returns the case metadata.
func (r Referral) Property() map[string]any { return r.property }
