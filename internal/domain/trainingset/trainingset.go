package trainingset

import (
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	"github.com/sibyl-dev/sibyl/internal/domain/table"
)

// LabelColumn is the label column name in materialized training tables.
const LabelColumn = "y"

// TrainingSet is the reference dataset a model's explainer was fit against.
// It references entities weakly: deleting an entity pulls it out of the
// list without deleting the set.
type TrainingSet struct {
	id        string
	entityIDs []string
	neighbors []byte // opaque trained-index blob, optional
}

// New validates and creates a TrainingSet.
func New(id string, entityIDs []string, neighbors []byte) (TrainingSet, error) {
	if id == "" {
		return TrainingSet{}, fmt.Errorf("training set id is required: %w", domain.ErrValidation)
	}
	if len(entityIDs) == 0 {
		return TrainingSet{}, fmt.Errorf("training set %s: entities are required: %w", id, domain.ErrValidation)
	}
	return TrainingSet{id: id, entityIDs: entityIDs, neighbors: neighbors}, nil
}

// Reconstruct creates a TrainingSet without validation (storage hydration).
func Reconstruct(id string, entityIDs []string, neighbors []byte) TrainingSet {
	return TrainingSet{id: id, entityIDs: entityIDs, neighbors: neighbors}
}

// ID returns the training set id.
func (t TrainingSet) ID() string { return t.id }

// EntityIDs returns the referenced entity ids.
func (t TrainingSet) EntityIDs() []string { return t.entityIDs }

// Neighbors returns the opaque trained-index blob.
func (t TrainingSet) Neighbors() []byte { return t.neighbors }

// WithEntityIDs returns a copy with the entity reference list replaced.
func (t TrainingSet) WithEntityIDs(ids []string) TrainingSet {
	t.entityIDs = ids
	return t
}

// ValidateMembers checks that every member entity carries exactly one
// label per row, the invariant a trainable set must satisfy.
func ValidateMembers(entities []domentity.Entity) error {
	for i := range entities {
		e := &entities[i]
		if len(e.Labels()) != len(e.RowIDs()) {
			return fmt.Errorf(
				"training set entries must have one label per row, incorrect labels on eid %s: %w",
				e.EID(), domain.ErrValidation,
			)
		}
		for _, rowID := range e.RowIDs() {
			if _, ok := e.Label(rowID); !ok {
				return fmt.Errorf(
					"training set entries must have one label per row, incorrect labels on eid %s: %w",
					e.EID(), domain.ErrValidation,
				)
			}
		}
	}
	return nil
}

// Materialize projects the member entities into a labeled table: one row
// per entity row, feature cells plus the label under LabelColumn. Row keys
// are "eid" for single-row entities and "eid/rowID" otherwise.
func Materialize(entities []domentity.Entity) (*table.Table, error) {
	if err := ValidateMembers(entities); err != nil {
		return nil, err
	}

	t := table.New(len(entities))
	for i := range entities {
		e := &entities[i]
		for _, rowID := range e.RowIDs() {
			cells, ok := e.Row(rowID)
			if !ok {
				continue
			}
			label, _ := e.Label(rowID)
			key := e.EID()
			if len(e.RowIDs()) > 1 {
				key = e.EID() + "/" + rowID
			}
			row := table.NewRow(key, cells).With(LabelColumn, label)
			t.Append(row)
		}
	}
	return t, nil
}
