package auditlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

func testEntry() Entry {
	return Entry{
		Timestamp: 1700000000,
		UserID:    "u1",
		EID:       "e1",
		Element:   "button",
		Action:    "click",
		Details:   "submit",
	}
}

func TestLog_WritesHeaderOnceThenRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.csv")
	l := New(path)

	if err := l.Log(testEntry()); err != nil {
		t.Fatalf("first log: %v", err)
	}
	if err := l.Log(testEntry()); err != nil {
		t.Fatalf("second log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "timestamp,user_id,eid,event_element,event_action,event_details" {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "1700000000,u1,e1,button,click,submit," {
		t.Errorf("unexpected row %q", lines[1])
	}
}

func TestLog_RejectsIncompleteEntries(t *testing.T) {
	l := New(filepath.Join(t.TempDir(), "audit.csv"))

	tests := []struct {
		name  string
		entry Entry
	}{
		{"missing timestamp", Entry{Element: "button", Action: "click"}},
		{"missing element", Entry{Timestamp: 1, Action: "click"}},
		{"missing action", Entry{Timestamp: 1, Element: "button"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := l.Log(tc.entry)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}
