// Package docstore provides the shared persistence mechanics behind every
// document repository: JSON documents under prefixed keys plus a per-kind
// membership set that makes full listing possible without scanning the
// keyspace.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/sibyl-dev/sibyl/internal/db"
	"github.com/sibyl-dev/sibyl/internal/domain"
)

// Store is the consumer interface for document collections (ISP).
// Exported so the per-kind repositories can share it.
type Store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	SAdd(ctx context.Context, key string, members ...string) error
	SRem(ctx context.Context, key string, members ...string) error
	SMembers(ctx context.Context, key string) ([]string, error)
}

// Codec converts between a storage DTO and its JSON bytes.
type Codec[D any] struct {
	Marshal   func(D) ([]byte, error)
	Unmarshal func([]byte) (D, error)
}

// Collection manages one kind of document (entities, features, ...).
// notFound is the domain sentinel surfaced when a key is missing.
type Collection[D any] struct {
	store    Store
	prefix   string
	kind     string
	codec    Codec[D]
	notFound error
}

// New creates a collection for a document kind.
func New[D any](s Store, prefix, kind string, codec Codec[D], notFound error) *Collection[D] {
	return &Collection[D]{store: s, prefix: prefix, kind: kind, codec: codec, notFound: notFound}
}

func (c *Collection[D]) key(id string) string {
	return fmt.Sprintf("%s%s:%s", c.prefix, c.kind, id)
}

func (c *Collection[D]) registryKey() string {
	return fmt.Sprintf("%s%s:__members", c.prefix, c.kind)
}

// Insert stores a new document, failing on an existing id.
func (c *Collection[D]) Insert(ctx context.Context, id string, dto D) error {
	key := c.key(id)

	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if exists {
		return fmt.Errorf("%s %q: %w", c.kind, id, domain.ErrDuplicateKey)
	}
	return c.write(ctx, id, dto)
}

// InsertMany stores a batch of new documents. Every id is checked before
// anything is written, so a duplicate anywhere rejects the whole batch.
func (c *Collection[D]) InsertMany(ctx context.Context, ids []string, dtos []D) error {
	if len(ids) != len(dtos) {
		return fmt.Errorf("insert %s: %d ids for %d documents", c.kind, len(ids), len(dtos))
	}
	for _, id := range ids {
		exists, err := c.store.Exists(ctx, c.key(id))
		if err != nil {
			return fmt.Errorf("check exists %s: %w", c.key(id), err)
		}
		if exists {
			return fmt.Errorf("%s %q: %w", c.kind, id, domain.ErrDuplicateKey)
		}
	}
	for i, id := range ids {
		if err := c.write(ctx, id, dtos[i]); err != nil {
			return err
		}
	}
	return nil
}

// Put stores a document, creating or replacing it.
func (c *Collection[D]) Put(ctx context.Context, id string, dto D) error {
	return c.write(ctx, id, dto)
}

func (c *Collection[D]) write(ctx context.Context, id string, dto D) error {
	key := c.key(id)
	data, err := c.codec.Marshal(dto)
	if err != nil {
		return fmt.Errorf("marshal %s %q: %w", c.kind, id, err)
	}
	if err := c.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	if err := c.store.SAdd(ctx, c.registryKey(), id); err != nil {
		return fmt.Errorf("register %s %q: %w", c.kind, id, err)
	}
	return nil
}

// Get returns a document by id.
func (c *Collection[D]) Get(ctx context.Context, id string) (D, error) {
	var zero D
	key := c.key(id)
	raw, err := c.store.JSONGet(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return zero, fmt.Errorf("%s %q: %w", c.kind, id, c.notFound)
		}
		return zero, fmt.Errorf("json.get %s: %w", key, err)
	}
	dto, err := c.codec.Unmarshal(raw)
	if err != nil {
		return zero, fmt.Errorf("unmarshal %s %q: %w", c.kind, id, err)
	}
	return dto, nil
}

// Exists reports whether a document is present.
func (c *Collection[D]) Exists(ctx context.Context, id string) (bool, error) {
	exists, err := c.store.Exists(ctx, c.key(id))
	if err != nil {
		return false, fmt.Errorf("check exists %s: %w", c.key(id), err)
	}
	return exists, nil
}

// IDs returns all document ids, sorted for deterministic listings.
func (c *Collection[D]) IDs(ctx context.Context) ([]string, error) {
	ids, err := c.store.SMembers(ctx, c.registryKey())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", c.kind, err)
	}
	sort.Strings(ids)
	return ids, nil
}

// List returns all documents, ordered by id.
func (c *Collection[D]) List(ctx context.Context) ([]D, error) {
	ids, err := c.IDs(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]D, 0, len(ids))
	for _, id := range ids {
		dto, err := c.Get(ctx, id)
		if err != nil {
			// A registry entry can outlive its document if a delete
			// half-failed; skip rather than poison the whole listing.
			if errors.Is(err, c.notFound) {
				continue
			}
			return nil, err
		}
		out = append(out, dto)
	}
	return out, nil
}

// Delete removes a document and its registry entry.
func (c *Collection[D]) Delete(ctx context.Context, id string) error {
	key := c.key(id)

	exists, err := c.store.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("check exists %s: %w", key, err)
	}
	if !exists {
		return fmt.Errorf("%s %q: %w", c.kind, id, c.notFound)
	}

	if err := c.store.Del(ctx, key); err != nil {
		return fmt.Errorf("del %s: %w", key, err)
	}
	if err := c.store.SRem(ctx, c.registryKey(), id); err != nil {
		return fmt.Errorf("unregister %s %q: %w", c.kind, id, err)
	}
	return nil
}
