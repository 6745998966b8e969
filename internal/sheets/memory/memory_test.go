package memory

import (
	"context"
	"testing"

	"expenseflow/internal/core"
)

func sample(id int64, title string) core.Expense {
	return core.Expense{
		ID:       id,
		Title:    title,
		Amount:   core.Money{Cents: 500},
		Category: core.CategoryFood,
		Date:     core.NewDate(2024, 3, 5),
	}
}

func TestUpsertKeepsNewestVersion(t *testing.T) {
	s := New()
	ctx := context.Background()

	if ok, err := s.Upsert(ctx, sample(1, "first"), 10); err != nil || !ok {
		t.Fatalf("initial upsert: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Upsert(ctx, sample(1, "stale"), 5); ok {
		t.Fatal("stale version should be skipped")
	}
	if ok, _ := s.Upsert(ctx, sample(1, "newer"), 20); !ok {
		t.Fatal("newer version should be written")
	}
	rows := s.Rows()
	if len(rows) != 1 || rows[0].Expense.Title != "newer" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestUpsertRejectsInvalid(t *testing.T) {
	bad := sample(1, "")
	if _, err := New().Upsert(context.Background(), bad, 1); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestDeleteMissingLeavesNoLiveRow(t *testing.T) {
	s := New()
	if _, err := s.Delete(context.Background(), 42, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(s.Rows()) != 0 {
		t.Fatal("expected no rows")
	}
}

func TestDeleteTombstoneBlocksOlderUpsert(t *testing.T) {
	s := New()
	ctx := context.Background()

	if _, err := s.Upsert(ctx, sample(1, "Lunch"), 10); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.Delete(ctx, 1, 20); err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if ok, _ := s.Upsert(ctx, sample(1, "Lunch"), 10); ok {
		t.Fatal("redelivered create must not resurrect a deleted row")
	}
	if ok, _ := s.Delete(ctx, 1, 5); ok {
		t.Fatal("older delete must not replace a newer tombstone")
	}
	if len(s.Rows()) != 0 {
		t.Fatalf("expected no live rows, got %+v", s.Rows())
	}
}
