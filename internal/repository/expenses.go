package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
	"expenseflow/internal/metrics"
	"expenseflow/internal/storage"
)

// ExpenseRepository manages the ordered expense collection stored under
// storage.KeyExpenses. The collection is newest-first.
type ExpenseRepository struct {
	store storage.Store
	now   func() time.Time

	// mu serializes read-modify-write cycles within this process.
	mu     sync.Mutex
	lastID int64
}

type ExpenseOption func(*ExpenseRepository)

// WithClock overrides the time source used to mint IDs.
func WithClock(now func() time.Time) ExpenseOption {
	return func(r *ExpenseRepository) { r.now = now }
}

func NewExpenseRepository(store storage.Store, opts ...ExpenseOption) *ExpenseRepository {
	r := &ExpenseRepository{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// List returns the stored expenses, newest first. A missing collection is an
// empty list. Undecodable data yields an empty list together with a
// *core.CorruptDataError so callers can render empty and warn.
func (r *ExpenseRepository) List(ctx context.Context) ([]core.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	expenses, _, err := r.load(ctx)
	return expenses, err
}

// Add validates the input, assigns a fresh ID, prepends the record and persists
// the collection. On validation failure nothing is written and the returned
// error is a *core.ValidationError.
func (r *ExpenseRepository) Add(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := in.Parse()
	if err != nil {
		metrics.ExpenseOperations.WithLabelValues("add", "invalid").Inc()
		return core.Expense{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	expenses, raw, err := r.load(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrCorruptData) {
			return core.Expense{}, err
		}
		if err := quarantine(ctx, r.store, storage.KeyExpenses, raw, r.now()); err != nil {
			return core.Expense{}, err
		}
		expenses = []core.Expense{}
	}

	e.ID = r.nextID(expenses)
	updated := make([]core.Expense, 0, len(expenses)+1)
	updated = append(updated, e)
	updated = append(updated, expenses...)

	if err := writeDocument(ctx, r.store, storage.KeyExpenses, updated); err != nil {
		metrics.ExpenseOperations.WithLabelValues("add", "error").Inc()
		return core.Expense{}, err
	}
	metrics.ExpenseOperations.WithLabelValues("add", "ok").Inc()
	slog.InfoContext(ctx, "Expense added",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, e.ID,
		"category", e.Category,
		"amount", e.Amount.String())
	return e, nil
}

// FindByID returns the expense with the given ID or core.ErrNotFound.
func (r *ExpenseRepository) FindByID(ctx context.Context, id int64) (core.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expenses, _, err := r.load(ctx)
	if err != nil {
		return core.Expense{}, notFoundIfCorrupt(err)
	}
	if i := indexOf(expenses, id); i >= 0 {
		return expenses[i], nil
	}
	return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
}

// Remove deletes the expense with the given ID. Removing an unknown ID is a
// no-op and leaves the stored collection untouched. An unreadable collection
// holds no IDs, so removal from it succeeds without writing.
func (r *ExpenseRepository) Remove(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	expenses, _, err := r.load(ctx)
	if errors.Is(err, core.ErrCorruptData) {
		slog.WarnContext(ctx, "Remove against unreadable expenses, nothing to delete",
			applog.FieldComponent, applog.ComponentStorage,
			applog.FieldExpenseID, id)
		return nil
	}
	if err != nil {
		return err
	}
	i := indexOf(expenses, id)
	if i < 0 {
		return nil
	}
	remaining := make([]core.Expense, 0, len(expenses)-1)
	remaining = append(remaining, expenses[:i]...)
	remaining = append(remaining, expenses[i+1:]...)

	if err := writeDocument(ctx, r.store, storage.KeyExpenses, remaining); err != nil {
		metrics.ExpenseOperations.WithLabelValues("remove", "error").Inc()
		return err
	}
	metrics.ExpenseOperations.WithLabelValues("remove", "ok").Inc()
	slog.InfoContext(ctx, "Expense removed",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, id)
	return nil
}

// Update applies patch to the stored expense, re-validates it and persists the
// collection with the record kept in place. It returns the updated expense.
func (r *ExpenseRepository) Update(ctx context.Context, id int64, patch core.ExpensePatch) (core.Expense, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	expenses, _, err := r.load(ctx)
	if err != nil {
		return core.Expense{}, notFoundIfCorrupt(err)
	}
	i := indexOf(expenses, id)
	if i < 0 {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
	}
	updated, err := patch.Apply(expenses[i])
	if err != nil {
		metrics.ExpenseOperations.WithLabelValues("update", "invalid").Inc()
		return core.Expense{}, err
	}
	if patch.IsEmpty() {
		return updated, nil
	}
	expenses[i] = updated

	if err := writeDocument(ctx, r.store, storage.KeyExpenses, expenses); err != nil {
		metrics.ExpenseOperations.WithLabelValues("update", "error").Inc()
		return core.Expense{}, err
	}
	metrics.ExpenseOperations.WithLabelValues("update", "ok").Inc()
	slog.InfoContext(ctx, "Expense updated",
		applog.FieldComponent, applog.ComponentStorage,
		applog.FieldExpenseID, id)
	return updated, nil
}

func (r *ExpenseRepository) load(ctx context.Context) ([]core.Expense, []byte, error) {
	var expenses []core.Expense
	raw, _, err := readDocument(ctx, r.store, storage.KeyExpenses, &expenses)
	if err != nil {
		return []core.Expense{}, raw, err
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}
	return expenses, raw, nil
}

// nextID mints an ID from the clock in milliseconds, bumped past both the last
// issued ID and every stored ID so rapid adds never collide.
func (r *ExpenseRepository) nextID(existing []core.Expense) int64 {
	id := r.now().UnixMilli()
	if id <= r.lastID {
		id = r.lastID + 1
	}
	for _, e := range existing {
		if e.ID >= id {
			id = e.ID + 1
		}
	}
	r.lastID = id
	return id
}

func indexOf(expenses []core.Expense, id int64) int {
	for i, e := range expenses {
		if e.ID == id {
			return i
		}
	}
	return -1
}
