package http

import (
	"net/http"

	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
)

const (
	msgLoginWelcomeBack = "Login successful! Welcome back!"
	msgLoginWelcomeNew  = "Login successful! Welcome to ExpenseFlow!"
	msgRegistered       = "Account created! Welcome to ExpenseFlow!"
	msgLoggedOut        = "You have been logged out"
	msgProfileSetup     = "Profile setup complete! Welcome to ExpenseFlow!"
	msgBudgetSaved      = "Budget saved"
	msgProfileReset     = "Login successful, but your saved profile could not be read and was reset"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	res, err := s.accounts.Login(r.Context(), p.Get(core.FieldEmail), p.GetExact(core.FieldPassword))
	if err != nil {
		s.writeError(w, r, applog.OpLogin, err)
		return
	}

	resp := NewResponse().Data(res.Profile.Redacted()).Redirect("/")
	switch {
	case res.Recovered:
		resp.Warning(msgProfileReset)
	case res.Created:
		resp.Success(msgLoginWelcomeNew)
	default:
		resp.Success(msgLoginWelcomeBack)
	}
	resp.Write(w)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	profile, err := s.accounts.Register(r.Context(),
		p.Get(core.FieldName), p.Get(core.FieldEmail), p.GetExact(core.FieldPassword))
	if err != nil {
		s.writeError(w, r, applog.OpRegister, err)
		return
	}
	NewResponse().
		Status(http.StatusCreated).
		Data(profile.Redacted()).
		Success(msgRegistered).
		Redirect("/setup").
		Write(w)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context()); err != nil {
		s.writeError(w, r, applog.OpLogout, err)
		return
	}
	NewResponse().Success(msgLoggedOut).Redirect("/login").Write(w)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := s.accounts.Profile(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpProfile, err)
		return
	}
	NewResponse().Data(profile.Redacted()).Write(w)
}

func (s *Server) handleSetupProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	profile, err := s.accounts.SetupProfile(r.Context(), p.ProfileInput())
	if err != nil {
		s.writeError(w, r, applog.OpProfile, err)
		return
	}
	NewResponse().
		Data(profile.Redacted()).
		Success(msgProfileSetup).
		Redirect("/").
		Write(w)
}

func (s *Server) handleSetupBudget(w http.ResponseWriter, r *http.Request) {
	p, ok := parseBody(w, r)
	if !ok {
		return
	}
	setup, err := s.accounts.SetupBudget(r.Context(), p.BudgetInput())
	if err != nil {
		s.writeError(w, r, applog.OpBudget, err)
		return
	}
	NewResponse().Data(setup).Success(msgBudgetSaved).Write(w)
}
