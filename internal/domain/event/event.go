package event

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Event records something an entity was involved in. Events have an
// independent lifecycle: entities reference them weakly.
type Event struct {
	eventID  string
	datetime time.Time
	etype    string
	property map[string]any
}

// New validates and creates an Event. A missing eventID is generated.
func New(eventID string, datetime time.Time, etype string, property map[string]any) (Event, error) {
	if datetime.IsZero() {
		return Event{}, fmt.Errorf("event datetime is required: %w", domain.ErrValidation)
	}
	if etype == "" {
		return Event{}, fmt.Errorf("event type is required: %w", domain.ErrValidation)
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}
	return Event{eventID: eventID, datetime: datetime, etype: etype, property: property}, nil
}

// Reconstruct creates an Event without validation (storage hydration).
func Reconstruct(eventID string, datetime time.Time, etype string, property map[string]any) Event {
	return Event{eventID: eventID, datetime: datetime, etype: etype, property: property}
}

// ID returns the event id.
func (e Event) ID() string { return e.eventID }

// Datetime returns when the event occurred.
func (e Event) Datetime() time.Time { return e.datetime }

// Type returns the event type.
func (e Event) Type() string { return e.etype }

// Property returns the domain-specific event properties.
func (e Event) Property() map[string]any { return e.property }
