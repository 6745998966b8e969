package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"expenseflow/internal/core"
	applog "expenseflow/internal/log"
	"expenseflow/internal/repository"
)

// DefaultProfileName is given to profiles created by a first login.
const DefaultProfileName = "Demo User"

const (
	minPasswordLength = 6
	// maxPasswordBytes is the most bcrypt will hash.
	maxPasswordBytes = 72
)

var (
	emailPattern    = regexp.MustCompile(`\S+@\S+\.\S+`)
	currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
)

type (
	// LoginResult reports the signed-in profile and whether it was created by
	// this login. Recovered is set when an unreadable stored profile was moved
	// aside and replaced.
	LoginResult struct {
		Profile   core.UserProfile
		Created   bool
		Recovered bool
	}

	// ProfileInput holds the raw profile setup values. Blank values are left unchanged.
	ProfileInput struct {
		MonthlyIncome string `json:"monthlyIncome"`
		MonthlyBudget string `json:"monthlyBudget"`
		Currency      string `json:"currency"`
	}

	BudgetInput struct {
		MonthlyIncome string `json:"monthlyIncome"`
		MonthlyBudget string `json:"monthlyBudget"`
	}
)

// AccountService implements sign-in, sign-out and profile setup over the
// profile repository.
type AccountService struct {
	profiles *repository.ProfileRepository
	now      func() time.Time
}

func NewAccountService(profiles *repository.ProfileRepository) *AccountService {
	return &AccountService{profiles: profiles, now: time.Now}
}

// Login validates the credentials and sets the authentication flag. With no
// stored profile a default one is created for the email. A stored password
// hash must match.
func (s *AccountService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = strings.TrimSpace(email)
	if err := validateCredentials(email, password); err != nil {
		return LoginResult{}, err
	}

	p, err := s.profiles.Get(ctx)
	created := false
	recovered := errors.Is(err, core.ErrCorruptData)
	switch {
	case errors.Is(err, core.ErrNotFound):
		p = core.UserProfile{
			Name:      DefaultProfileName,
			Email:     email,
			Currency:  core.DefaultCurrency,
			CreatedAt: s.now().UTC(),
		}
		created = true
	case err != nil:
		return LoginResult{}, err
	case p.PasswordHash != "":
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
			slog.WarnContext(ctx, "Rejected login",
				applog.FieldComponent, applog.ComponentAccount,
				applog.FieldErrorType, applog.ErrorTypeAuth,
				"email", email)
			return LoginResult{}, core.ErrInvalidCredentials
		}
	}

	p.IsAuthenticated = true
	if err := s.signIn(ctx, p); err != nil {
		return LoginResult{}, err
	}
	if recovered {
		slog.WarnContext(ctx, "Replaced unreadable profile on sign-in",
			applog.FieldComponent, applog.ComponentAccount,
			applog.FieldErrorType, applog.ErrorTypeCorrupt)
	}
	slog.InfoContext(ctx, "Signed in",
		applog.FieldComponent, applog.ComponentAccount,
		"created_profile", created)
	return LoginResult{Profile: p, Created: created, Recovered: recovered}, nil
}

// Register replaces the stored profile with a new one protected by password.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (core.UserProfile, error) {
	name = core.SanitizeText(name)
	email = strings.TrimSpace(email)

	verr := core.NewValidationError()
	if name == "" {
		verr.Add(core.FieldName, "Name is required")
	}
	if err := validateCredentials(email, password); err != nil {
		if ve, ok := core.AsValidation(err); ok {
			for f, msg := range ve.Fields {
				verr.Add(f, msg)
			}
		}
	}
	if err := verr.Err(); err != nil {
		return core.UserProfile{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}
	p := core.UserProfile{
		Name:            name,
		Email:           email,
		Currency:        core.DefaultCurrency,
		IsAuthenticated: true,
		PasswordHash:    string(hash),
		CreatedAt:       s.now().UTC(),
	}
	if err := s.signIn(ctx, p); err != nil {
		return core.UserProfile{}, err
	}
	slog.InfoContext(ctx, "Registered profile", applog.FieldComponent, applog.ComponentAccount)
	return p, nil
}

// Logout clears the authentication flag. The profile is kept.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.profiles.SetAuthenticated(ctx, false); err != nil {
		return fmt.Errorf("clear auth flag: %w", err)
	}
	if p, err := s.profiles.Get(ctx); err == nil && p.IsAuthenticated {
		p.IsAuthenticated = false
		if err := s.profiles.Save(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

func (s *AccountService) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.profiles.IsAuthenticated(ctx)
}

// Profile returns the stored profile with budget setup fallbacks applied.
func (s *AccountService) Profile(ctx context.Context) (core.UserProfile, error) {
	return s.profiles.Effective(ctx)
}

// SetupProfile updates income, budget and currency, leaving every other
// profile field as stored. A missing profile is created first.
func (s *AccountService) SetupProfile(ctx context.Context, in ProfileInput) (core.UserProfile, error) {
	verr := core.NewValidationError()
	settings := repository.Settings{
		MonthlyIncome: parseOptionalAmount(verr, core.FieldIncome, "Monthly income", in.MonthlyIncome),
		MonthlyBudget: parseOptionalAmount(verr, core.FieldBudget, "Monthly budget", in.MonthlyBudget),
	}
	if c := strings.TrimSpace(in.Currency); c != "" {
		if !currencyPattern.MatchString(c) {
			verr.Add(core.FieldCurrency, "Currency must be a three-letter code")
		}
		settings.Currency = c
	}
	if err := verr.Err(); err != nil {
		return core.UserProfile{}, err
	}

	p, err := s.profiles.UpdateSettings(ctx, settings)
	if errors.Is(err, core.ErrNotFound) {
		if err := s.profiles.Save(ctx, core.UserProfile{
			Name:      DefaultProfileName,
			Currency:  core.DefaultCurrency,
			CreatedAt: s.now().UTC(),
		}); err != nil {
			return core.UserProfile{}, err
		}
		p, err = s.profiles.UpdateSettings(ctx, settings)
	}
	if err != nil {
		return core.UserProfile{}, err
	}
	slog.InfoContext(ctx, "Profile updated",
		applog.FieldComponent, applog.ComponentAccount,
		"currency", p.CurrencyOrDefault())
	return p, nil
}

// SetupBudget writes the standalone budget record stamped with the current time.
func (s *AccountService) SetupBudget(ctx context.Context, in BudgetInput) (core.BudgetSetup, error) {
	verr := core.NewValidationError()
	b := core.BudgetSetup{
		MonthlyIncome: parseOptionalAmount(verr, core.FieldIncome, "Monthly income", in.MonthlyIncome),
		MonthlyBudget: parseOptionalAmount(verr, core.FieldBudget, "Monthly budget", in.MonthlyBudget),
		SetupDate:     s.now().UTC(),
	}
	if err := verr.Err(); err != nil {
		return core.BudgetSetup{}, err
	}
	if err := s.profiles.SaveBudgetSetup(ctx, b); err != nil {
		return core.BudgetSetup{}, err
	}
	return b, nil
}

func (s *AccountService) signIn(ctx context.Context, p core.UserProfile) error {
	if err := s.profiles.Save(ctx, p); err != nil {
		return err
	}
	if err := s.profiles.SetAuthenticated(ctx, true); err != nil {
		return fmt.Errorf("set auth flag: %w", err)
	}
	return nil
}

func validateCredentials(email, password string) error {
	verr := core.NewValidationError()
	if email == "" {
		verr.Add(core.FieldEmail, "Email is required")
	} else if !emailPattern.MatchString(email) {
		verr.Add(core.FieldEmail, "Email is invalid")
	}
	if password == "" {
		verr.Add(core.FieldPassword, "Password is required")
	} else if len(password) < minPasswordLength {
		verr.Add(core.FieldPassword, fmt.Sprintf("Password must be at least %d characters", minPasswordLength))
	} else if len(password) > maxPasswordBytes {
		verr.Add(core.FieldPassword, fmt.Sprintf("Password must be at most %d bytes", maxPasswordBytes))
	}
	return verr.Err()
}

func parseOptionalAmount(verr *core.ValidationError, field, label, raw string) *core.Money {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	cents, err := core.ParseNonNegativeToCents(raw)
	if err != nil {
		verr.Add(field, label+" must be a non-negative number")
		return nil
	}
	return &core.Money{Cents: cents}
}
