package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"expenseflow/internal/amqp"
	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
	"expenseflow/internal/metrics"
	"expenseflow/internal/repository"
)

// EventPublisher delivers expense change events. *amqp.Client implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev *amqp.ExpenseEvent) error
}

// ExpenseService orchestrates expense operations across the repository and AMQP.
// Publishing is best-effort: a stored change is never rolled back because the
// broker is unavailable.
type ExpenseService struct {
	expenses  *repository.ExpenseRepository
	publisher EventPublisher
}

// NewExpenseService creates the service. publisher may be nil when no broker
// is configured.
func NewExpenseService(expenses *repository.ExpenseRepository, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		expenses:  expenses,
		publisher: publisher,
	}
}

// List returns the expenses matching f, newest first. A corrupt collection
// yields an empty list and the corruption error.
func (s *ExpenseService) List(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	all, err := s.expenses.List(ctx)
	return core.FilterExpenses(all, f), err
}

func (s *ExpenseService) Get(ctx context.Context, id int64) (core.Expense, error) {
	return s.expenses.FindByID(ctx, id)
}

// CreateExpense stores the expense and announces it.
func (s *ExpenseService) CreateExpense(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := s.expenses.Add(ctx, in)
	if err != nil {
		return core.Expense{}, err
	}
	s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseCreated, e))
	return e, nil
}

func (s *ExpenseService) UpdateExpense(ctx context.Context, id int64, patch core.ExpensePatch) (core.Expense, error) {
	e, err := s.expenses.Update(ctx, id, patch)
	if err != nil {
		return core.Expense{}, err
	}
	if !patch.IsEmpty() {
		s.publish(ctx, amqp.NewExpenseEvent(amqp.EventExpenseUpdated, e))
	}
	return e, nil
}

// DeleteExpense removes the expense and announces the deletion. Deleting an
// unknown ID succeeds.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.expenses.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove expense: %w", err)
	}
	s.publish(ctx, amqp.NewExpenseDeletedEvent(id))
	return nil
}

// publishTimeout bounds how long a user action waits on the broker.
const publishTimeout = 5 * time.Second

func (s *ExpenseService) publish(ctx context.Context, ev *amqp.ExpenseEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", applog.FieldComponent, applog.ComponentExpense, "type", ev.Type, "id", ev.ID)
		return
	}
	pctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	err := s.publisher.Publish(pctx, ev)
	metrics.EventsPublished.WithLabelValues(string(ev.Type), metrics.Result(err)).Inc()
	if err != nil {
		slog.ErrorContext(ctx, "Failed to publish expense event", applog.FieldComponent, applog.ComponentExpense,
			"type", ev.Type,
			"id", ev.ID,
			"error", err)
	}
}
