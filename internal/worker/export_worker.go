package worker

import (
	"context"
	"fmt"
	"log/slog"

	"expenseflow/internal/amqp"
	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
	"expenseflow/internal/metrics"
	"expenseflow/internal/sheets"
)

// ExpenseSource lists the expenses to reconcile on startup.
type ExpenseSource interface {
	List(ctx context.Context) ([]core.Expense, error)
}

// ExportWorker mirrors expense events into a spreadsheet.
type ExportWorker struct {
	exporter sheets.ExpenseExporter
}

func NewExportWorker(exporter sheets.ExpenseExporter) *ExportWorker {
	return &ExportWorker{exporter: exporter}
}

// HandleEvent applies one event. Returning an error makes the consumer requeue it.
func (w *ExportWorker) HandleEvent(ctx context.Context, ev *amqp.ExpenseEvent) error {
	slog.InfoContext(ctx, "Processing expense event", applog.FieldComponent, applog.ComponentWorker,
		"type", ev.Type,
		"id", ev.ID,
		"version", ev.Version)

	switch ev.Type {
	case amqp.EventExpenseCreated, amqp.EventExpenseUpdated:
		written, err := w.exporter.Upsert(ctx, *ev.Expense, ev.Version)
		metrics.ExportedRows.WithLabelValues("upsert", metrics.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("export expense %d: %w", ev.ID, err)
		}
		if !written {
			slog.InfoContext(ctx, "Ignored out-of-order event", applog.FieldComponent, applog.ComponentWorker, "id", ev.ID, "version", ev.Version)
		}
	case amqp.EventExpenseDeleted:
		written, err := w.exporter.Delete(ctx, ev.ID, ev.Version)
		metrics.ExportedRows.WithLabelValues("delete", metrics.Result(err)).Inc()
		if err != nil {
			return fmt.Errorf("delete exported expense %d: %w", ev.ID, err)
		}
		if !written {
			slog.InfoContext(ctx, "Ignored out-of-order delete", applog.FieldComponent, applog.ComponentWorker, "id", ev.ID, "version", ev.Version)
		}
	default:
		return fmt.Errorf("unknown event type %q", ev.Type)
	}
	return nil
}

// StartupReconcile exports every stored expense that has no row yet. Version
// zero never overwrites a row written from an event.
func (w *ExportWorker) StartupReconcile(ctx context.Context, src ExpenseSource) error {
	expenses, err := src.List(ctx)
	if err != nil {
		return fmt.Errorf("list expenses: %w", err)
	}
	if len(expenses) == 0 {
		slog.InfoContext(ctx, "No expenses to reconcile on startup", applog.FieldComponent, applog.ComponentWorker)
		return nil
	}

	var written, failed int
	for _, e := range expenses {
		if err := ctx.Err(); err != nil {
			return err
		}
		ok, err := w.exporter.Upsert(ctx, e, 0)
		if err != nil {
			failed++
			slog.ErrorContext(ctx, "Failed to reconcile expense", applog.FieldComponent, applog.ComponentWorker, "id", e.ID, "error", err)
			continue
		}
		if ok {
			written++
		}
	}
	slog.InfoContext(ctx, "Startup reconcile completed", applog.FieldComponent, applog.ComponentWorker,
		"total", len(expenses),
		"written", written,
		"failed", failed)
	return nil
}
