package http

import (
	"errors"
	"net/http"

	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
)

// handleListExpenses lists expenses filtered by ?category= and ?q=. A
// corrupt collection is served as an empty list with a warning.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := s.expenses.List(r.Context(), ParseFilter(r.URL.Query()))
	resp := NewResponse()
	if err != nil {
		if !errors.Is(err, core.ErrCorruptData) {
			s.writeError(w, r, applog.OpList, err)
			return
		}
		resp.Warning(msgCorruptList)
	}
	resp.Data(items).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	e, err := s.expenses.CreateExpense(r.Context(), p.ExpenseInput())
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+formatID(e.ID)).
		Data(e).
		TriggerExpenseChanged(e.ID).
		Success("Expense added successfully!").
		Write(w)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseExpenseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	e, err := s.expenses.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	NewResponse().Data(e).Write(w)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseExpenseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	e, err := s.expenses.UpdateExpense(r.Context(), id, p.ExpensePatch())
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	NewResponse().
		Data(e).
		TriggerExpenseChanged(e.ID).
		Success("Expense updated successfully!").
		Write(w)
}

// handleDeleteExpense answers 200 for unknown IDs too; removal is idempotent.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := ParseExpenseID(r)
	if err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	if err := s.expenses.DeleteExpense(r.Context(), id); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	NewResponse().
		TriggerExpenseChanged(id).
		Success("Expense deleted").
		Write(w)
}
