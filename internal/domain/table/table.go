// Package table holds the small tabular structure fed into predictors and
// explainers: an ordered list of keyed rows of feature values.
package table

import (
	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Row is one keyed observation: feature name → scalar value.
// The key is an eid or a row id depending on how the table was fanned out.
type Row struct {
	key   string
	cells map[string]domain.Value
}

// NewRow creates a row with a defensive copy of cells.
func NewRow(key string, cells map[string]domain.Value) Row {
	c := make(map[string]domain.Value, len(cells))
	for k, v := range cells {
		c[k] = v
	}
	return Row{key: key, cells: c}
}

// Key returns the row key.
func (r Row) Key() string { return r.key }

// Value returns the cell for a feature name.
func (r Row) Value(feature string) (domain.Value, bool) {
	v, ok := r.cells[feature]
	return v, ok
}

// Cells returns the underlying cell map. Callers must not mutate it.
func (r Row) Cells() map[string]domain.Value { return r.cells }

// With returns a copy of the row with one cell replaced or added.
func (r Row) With(feature string, v domain.Value) Row {
	c := make(map[string]domain.Value, len(r.cells)+1)
	for k, cv := range r.cells {
		c[k] = cv
	}
	c[feature] = v
	return Row{key: r.key, cells: c}
}

// WithAll returns a copy of the row with every change applied.
func (r Row) WithAll(changes map[string]domain.Value) Row {
	c := make(map[string]domain.Value, len(r.cells)+len(changes))
	for k, cv := range r.cells {
		c[k] = cv
	}
	for k, cv := range changes {
		c[k] = cv
	}
	return Row{key: r.key, cells: c}
}

// Table is an ordered list of rows. Row order is significant: batch
// responses are keyed in the order rows were resolved.
type Table struct {
	rows []Row
}

// New creates an empty table with capacity n.
func New(n int) *Table {
	return &Table{rows: make([]Row, 0, n)}
}

// Append adds a row to the table.
func (t *Table) Append(r Row) { t.rows = append(t.rows, r) }

// Rows returns the rows in insertion order.
func (t *Table) Rows() []Row { return t.rows }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Keys returns row keys in insertion order.
func (t *Table) Keys() []string {
	keys := make([]string, len(t.rows))
	for i, r := range t.rows {
		keys[i] = r.key
	}
	return keys
}
