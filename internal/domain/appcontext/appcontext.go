// Package appcontext holds the UI-facing configuration document
// (terminology overrides, display colors). It plays no part in
// computation and exists to complete the external interface surface.
package appcontext

import (
	"fmt"

	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Context is one named UI configuration.
type Context struct {
	contextID string
	config    map[string]any // terms, pos_color, neg_color, ...
}

// New validates and creates a Context.
func New(contextID string, config map[string]any) (Context, error) {
	if contextID == "" {
		return Context{}, fmt.Errorf("context id is required: %w", domain.ErrValidation)
	}
	return Context{contextID: contextID, config: config}, nil
}

// Reconstruct creates a Context without validation (storage hydration).
func Reconstruct(contextID string, config map[string]any) Context {
	return Context{contextID: contextID, config: config}
}

// ID returns the context id.
func (c Context) ID() string { return c.contextID }

// Config returns the application-specific configuration mapping.
func (c Context) Config() map[string]any { return c.config }

// MergedWith returns a copy with the given config entries overlaid,
// matching the partial-update semantics of the context endpoint.
func (c Context) MergedWith(config map[string]any) Context {
	merged := make(map[string]any, len(c.config)+len(config))
	for k, v := range c.config {
		merged[k] = v
	}
	for k, v := range config {
		merged[k] = v
	}
	c.config = merged
	return c
}
