package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"expenseflow/internal/calculator"
	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
	"expenseflow/internal/repository"
)

// Dashboard is a computed summary plus the non-fatal problems met while
// loading its inputs.
type Dashboard struct {
	Profile  *core.UserProfile  `json:"profile,omitempty"`
	Summary  calculator.Summary `json:"summary"`
	Warnings []string           `json:"warnings,omitempty"`
}

// DashboardService loads the calculator inputs and evaluates them at the
// current time. Nothing is cached.
type DashboardService struct {
	expenses *repository.ExpenseRepository
	profiles *repository.ProfileRepository
	now      func() time.Time
}

func NewDashboardService(expenses *repository.ExpenseRepository, profiles *repository.ProfileRepository) *DashboardService {
	return &DashboardService{expenses: expenses, profiles: profiles, now: time.Now}
}

// Dashboard computes the summary. Corrupt stored data degrades to empty
// inputs with a warning instead of failing.
func (s *DashboardService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard

	expenses, err := s.expenses.List(ctx)
	if err != nil {
		if !errors.Is(err, core.ErrCorruptData) {
			return Dashboard{}, err
		}
		d.Warnings = append(d.Warnings, "Stored expenses could not be read and are shown as empty")
	}

	p, err := s.profiles.Effective(ctx)
	switch {
	case err == nil:
		p = p.Redacted()
		d.Profile = &p
	case errors.Is(err, core.ErrCorruptData):
		d.Warnings = append(d.Warnings, "Stored profile could not be read")
	case errors.Is(err, core.ErrNotFound):
		// A budget saved before any profile still drives the budget figures.
		if setup, serr := s.profiles.BudgetSetup(ctx); serr == nil && setup != nil {
			p := core.UserProfile{Currency: core.DefaultCurrency}.WithBudgetSetup(setup)
			d.Profile = &p
		}
	default:
		return Dashboard{}, err
	}

	if len(d.Warnings) > 0 {
		slog.WarnContext(ctx, "Dashboard built from degraded data",
			applog.FieldComponent, applog.ComponentDashboard,
			applog.FieldErrorType, applog.ErrorTypeCorrupt,
			"warnings", len(d.Warnings))
	}

	d.Summary = calculator.Compute(expenses, d.Profile, s.now())
	return d, nil
}
