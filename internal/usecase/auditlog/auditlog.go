// Package auditlog appends frontend interaction events to a CSV side
// file. The format is fixed: a header line written once when the file is
// empty, then one comma-terminated row per event.
package auditlog

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

var headers = []string{
	"timestamp",
	"user_id",
	"eid",
	"event_element",
	"event_action",
	"event_details",
}

// Entry is one interaction event to record.
type Entry struct {
	Timestamp int64
	UserID    string
	EID       string
	Element   string
	Action    string
	Details   string
}

// Validate checks the required entry fields.
func (e Entry) Validate() error {
	if e.Timestamp == 0 {
		return fmt.Errorf("must provide timestamp to log: %w", domain.ErrValidation)
	}
	if e.Element == "" {
		return fmt.Errorf("event must have element: %w", domain.ErrValidation)
	}
	if e.Action == "" {
		return fmt.Errorf("event must have action: %w", domain.ErrValidation)
	}
	return nil
}

// Logger appends entries to the audit CSV file.
type Logger struct {
	path string
	mu   sync.Mutex
}

// New creates an audit logger writing to path.
func New(path string) *Logger {
	return &Logger{path: path}
}

// Log validates and appends one entry.
func (l *Logger) Log(entry Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat audit log: %w", err)
	}
	if info.Size() == 0 {
		if _, err := f.WriteString(strings.Join(headers, ",") + "\n"); err != nil {
			return fmt.Errorf("write audit header: %w", err)
		}
	}

	if _, err := f.WriteString(formatRow(entry)); err != nil {
		return fmt.Errorf("write audit row: %w", err)
	}
	return nil
}

// formatRow renders one comma-terminated CSV row, field order matching
// the header.
func formatRow(e Entry) string {
	fields := []string{
		fmt.Sprintf("%d", e.Timestamp),
		e.UserID,
		e.EID,
		e.Element,
		e.Action,
		e.Details,
	}
	var b strings.Builder
	for _, field := range fields {
		b.WriteString(field)
		b.WriteString(",")
	}
	b.WriteString("\n")
	return b.String()
}
