// Package memory is an in-process ExpenseExporter used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"expenseflow/internal/core"
	ports "expenseflow/internal/sheets"
)

var _ ports.ExpenseExporter = (*Store)(nil)

type Row struct {
	Expense core.Expense
	Version int64
	Deleted bool
}

type Store struct {
	mu   sync.Mutex
	rows map[int64]Row
}

func New() *Store {
	return &Store{rows: make(map[int64]Row)}
}

func (s *Store) Upsert(_ context.Context, e core.Expense, version int64) (bool, error) {
	if err := e.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rows[e.ID]; ok && cur.Version > version {
		return false, nil
	}
	s.rows[e.ID] = Row{Expense: e, Version: version}
	return true, nil
}

func (s *Store) Delete(_ context.Context, id int64, version int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.rows[id]; ok && cur.Version > version {
		return false, nil
	}
	s.rows[id] = Row{Expense: core.Expense{ID: id}, Version: version, Deleted: true}
	return true, nil
}

// Rows returns the live exported rows ordered by ID. Tombstones are left out.
func (s *Store) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.rows))
	for _, r := range s.rows {
		if r.Deleted {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Expense.ID < out[j].Expense.ID })
	return out
}
