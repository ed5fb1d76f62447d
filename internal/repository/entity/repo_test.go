package entity

import (
	"context"
	"errors"
	"testing"

	"github.com/sibyl-dev/sibyl/internal/domain"
	domentity "github.com/sibyl-dev/sibyl/internal/domain/entity"
	"github.com/sibyl-dev/sibyl/internal/repository/docstore/docstoretest"
)

func testEntity(t *testing.T) domentity.Entity {
	t.Helper()
	e, err := domentity.New(
		"ent-1",
		[]string{"r2", "r1"},
		map[string]map[string]domain.Value{
			"r1": {"A": domain.Num(10), "B": domain.Str("x")},
			"r2": {"A": domain.Num(20), "B": domain.Str("y")},
		},
		map[string]domain.Value{"r1": domain.Num(0), "r2": domain.Num(1)},
		map[string]any{"group_ids": []any{"g1"}},
	)
	if err != nil {
		t.Fatalf("new entity: %v", err)
	}
	return e
}

func TestRepo_RoundTripPreservesRowOrder(t *testing.T) {
	repo := New(docstoretest.NewMemStore(), "sibyl:")
	ctx := context.Background()

	if err := repo.Insert(ctx, testEntity(t)); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.Get(ctx, "ent-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rowIDs := got.RowIDs()
	if len(rowIDs) != 2 || rowIDs[0] != "r2" || rowIDs[1] != "r1" {
		t.Errorf("expected row order [r2 r1] preserved, got %v", rowIDs)
	}
	if got.FirstRowID() != "r2" {
		t.Errorf("expected first row r2, got %q", got.FirstRowID())
	}

	row, ok := got.Row("r1")
	if !ok {
		t.Fatal("expected row r1 present")
	}
	if v := row["A"]; !v.Equal(domain.Num(10)) {
		t.Errorf("expected A=10, got %v", v.Any())
	}
	if v := row["B"]; !v.Equal(domain.Str("x")) {
		t.Errorf("expected B=x, got %v", v.Any())
	}
	if label, _ := got.Label("r2"); !label.Equal(domain.Num(1)) {
		t.Errorf("expected label r2=1, got %v", label.Any())
	}
}

func TestRepo_InsertDuplicateEID(t *testing.T) {
	repo := New(docstoretest.NewMemStore(), "sibyl:")
	ctx := context.Background()

	if err := repo.Insert(ctx, testEntity(t)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	err := repo.Insert(ctx, testEntity(t))
	if !errors.Is(err, domain.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestRepo_GetMissing(t *testing.T) {
	repo := New(docstoretest.NewMemStore(), "sibyl:")

	_, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, domain.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound, got %v", err)
	}
}
