package http

import (
	"errors"
	"net/http"

	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
)

const (
	msgAuthRequired  = "authentication required"
	msgCorruptList   = "Some saved expenses could not be read and were skipped"
	msgCorruptStored = "Saved data could not be read"
	msgInternalError = "Something went wrong, please try again"
)

// requireAuth rejects requests while the authentication flag is absent.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := s.accounts.IsAuthenticated(r.Context())
		if err != nil {
			s.writeError(w, r, applog.OpRead, err)
			return
		}
		if !ok {
			UnauthorizedError(msgAuthRequired).Write(w)
			return
		}
		next(w, r)
	}
}

// parseBody reads a JSON or form body, answering 400 when it is malformed.
func parseBody(w http.ResponseWriter, r *http.Request) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Malformed request body",
			applog.NewFields().WithError(err, applog.ErrorTypeValidation).ToSlice()...)
		BadRequestError("Malformed request body").Write(w)
		return nil, false
	}
	return p, true
}

// writeError maps domain errors to responses and logs them at a level
// matching their severity.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	ctx := r.Context()
	logger := applog.FromContext(ctx)
	fields := applog.NewFields().WithOperation(op)

	if verr, ok := core.AsValidation(err); ok {
		logger.DebugContext(ctx, "Validation failed", fields.WithError(err, applog.ErrorTypeValidation).ToSlice()...)
		ValidationFailed(verr.Fields).Write(w)
		return
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		logger.InfoContext(ctx, "Resource not found", fields.WithError(err, applog.ErrorTypeNotFound).ToSlice()...)
		msg := "Expense not found"
		if op == applog.OpProfile {
			msg = "Profile not found"
		}
		resp := NotFoundError(msg)
		if errors.Is(err, core.ErrCorruptData) {
			resp.Warning(msgCorruptStored)
		}
		resp.Write(w)
	case errors.Is(err, core.ErrInvalidCredentials):
		logger.WarnContext(ctx, "Invalid credentials", fields.WithError(err, applog.ErrorTypeAuth).ToSlice()...)
		ErrorResponse(http.StatusUnauthorized, "Invalid email or password").Write(w)
	case errors.Is(err, errBadID):
		BadRequestError("Invalid expense id").Write(w)
	default:
		logger.ErrorContext(ctx, "Request failed", fields.WithError(err, applog.ErrorTypeInternal).ToSlice()...)
		InternalServerError(msgInternalError).Write(w)
	}
}
