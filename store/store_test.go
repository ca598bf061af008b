// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/veato/models"
)

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()

	s, err := Open(TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpen_UnsupportedType(t *testing.T) {
	if _, err := Open("mysql", "whatever"); err == nil {
		t.Error("Expected error for unsupported database type")
	}
}

func TestCreateSchema_Idempotent(t *testing.T) {
	s := openTestStore(t)

	// Open already created it once
	if err := CreateSchema(s.db); err != nil {
		t.Errorf("Second CreateSchema() failed: %v", err)
	}
}

func TestPutGetDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "polls", "p1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}

	if err := s.Put(ctx, "polls", "p1", []byte(`{"v":1}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "polls", "p1")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"v":1}` {
		t.Errorf("Get() = %s", got)
	}

	// Upsert replaces
	if err := s.Put(ctx, "polls", "p1", []byte(`{"v":2}`)); err != nil {
		t.Fatalf("Put() upsert error = %v", err)
	}
	got, _ = s.Get(ctx, "polls", "p1")
	if string(got) != `{"v":2}` {
		t.Errorf("Expected replaced document, got %s", got)
	}

	// Same id in another collection is independent
	if _, err := s.Get(ctx, "ballots", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected collections to be isolated, got %v", err)
	}

	if err := s.Delete(ctx, "polls", "p1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := s.Get(ctx, "polls", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}

	// Deleting again is fine
	if err := s.Delete(ctx, "polls", "p1"); err != nil {
		t.Errorf("Delete() of missing doc error = %v", err)
	}
}

func TestJSONHelpers(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	in := models.Poll{
		PollID: "p1",
		Phase:  models.Phase1,
		IsOpen: true,
		Candidates: []models.Candidate{
			{Name: "Pizza"}, {Name: "Sushi"},
		},
	}
	if err := PutJSON(ctx, s, "polls", "p1", in); err != nil {
		t.Fatalf("PutJSON() error = %v", err)
	}

	var out models.Poll
	if err := GetJSON(ctx, s, "polls", "p1", &out); err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if out.PollID != "p1" || out.Phase != models.Phase1 || len(out.Candidates) != 2 {
		t.Errorf("unexpected poll %+v", out)
	}

	if err := s.Put(ctx, "polls", "bad", []byte("not json")); err != nil {
		t.Fatal(err)
	}
	if err := GetJSON(ctx, s, "polls", "bad", &out); err == nil {
		t.Error("Expected decode error for malformed document")
	}
}
