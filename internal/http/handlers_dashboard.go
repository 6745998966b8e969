package http

import (
	"net/http"
	"strconv"

	applog "expenseflow/internal/log"
)

// handleDashboard returns the summary for the current date. Storage
// warnings are surfaced as a warning notification.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.dashboard.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	resp := NewResponse().Data(d)
	if len(d.Warnings) > 0 {
		resp.Warning(d.Warnings[0])
	}
	resp.Write(w)
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
