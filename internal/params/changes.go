package params

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Change is one requested feature modification.
type Change struct {
	Feature string
	Value   domain.Value
}

// ChangeList preserves the order changes were given in the request body.
// Single-change prediction responses must come back in that order, which
// a Go map cannot guarantee, so the JSON object is walked token by token.
type ChangeList []Change

// ParseChanges decodes a JSON object into an ordered ChangeList.
func ParseChanges(raw json.RawMessage) (ChangeList, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("changes must be an object, got %s", string(raw))
	}

	var changes ChangeList
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("changes: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("changes: unexpected key token %v", keyTok)
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("changes[%s]: %w", key, err)
		}
		val, err := domain.ValueOf(valTok)
		if err != nil {
			return nil, fmt.Errorf("changes[%s]: %w", key, err)
		}
		changes = append(changes, Change{Feature: key, Value: val})
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("changes: %w", err)
	}
	return changes, nil
}

// AsMap flattens the list for joint application, last write wins.
func (c ChangeList) AsMap() map[string]domain.Value {
	m := make(map[string]domain.Value, len(c))
	for _, ch := range c {
		m[ch.Feature] = ch.Value
	}
	return m
}
