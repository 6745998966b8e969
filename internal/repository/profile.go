package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"expenseflow/internal/core"
	"expenseflow/internal/storage"
)

const authenticatedValue = "true"

// ProfileRepository manages the user profile, the standalone budget setup
// record and the authentication flag.
type ProfileRepository struct {
	store storage.Store
	now   func() time.Time
	mu    sync.Mutex
}

func NewProfileRepository(store storage.Store) *ProfileRepository {
	return &ProfileRepository{store: store, now: time.Now}
}

// Get returns the stored profile or core.ErrNotFound. An undecodable profile
// is reported as not found with the *core.CorruptDataError kept in the chain.
func (r *ProfileRepository) Get(ctx context.Context) (core.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(ctx)
}

// Effective returns the profile with income and budget filled from the budget
// setup record where the profile has none. A missing or corrupt budget setup
// record is ignored.
func (r *ProfileRepository) Effective(ctx context.Context) (core.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.get(ctx)
	if err != nil {
		return core.UserProfile{}, err
	}
	setup, err := r.budgetSetup(ctx)
	if err != nil && !errors.Is(err, core.ErrCorruptData) {
		return core.UserProfile{}, err
	}
	return p.WithBudgetSetup(setup), nil
}

// Save replaces the stored profile. A corrupt stored profile is quarantined first.
func (r *ProfileRepository) Save(ctx context.Context, p core.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return replaceDocument(ctx, r.store, storage.KeyUser, p, &core.UserProfile{}, r.now())
}

// Settings are the profile fields a user may change after sign-in.
type Settings struct {
	MonthlyIncome *core.Money
	MonthlyBudget *core.Money
	Currency      string
}

// UpdateSettings merges s into the stored profile. Only income, budget and
// currency are touched; nil values and a blank currency leave the stored
// value as is.
func (r *ProfileRepository) UpdateSettings(ctx context.Context, s Settings) (core.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.get(ctx)
	if err != nil {
		return core.UserProfile{}, err
	}
	if s.MonthlyIncome != nil {
		v := *s.MonthlyIncome
		p.MonthlyIncome = &v
	}
	if s.MonthlyBudget != nil {
		v := *s.MonthlyBudget
		p.MonthlyBudget = &v
	}
	if c := strings.TrimSpace(s.Currency); c != "" {
		p.Currency = strings.ToUpper(c)
	}
	if err := writeDocument(ctx, r.store, storage.KeyUser, p); err != nil {
		return core.UserProfile{}, err
	}
	return p, nil
}

// BudgetSetup returns the standalone budget record, or nil when none exists.
func (r *ProfileRepository) BudgetSetup(ctx context.Context) (*core.BudgetSetup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.budgetSetup(ctx)
}

func (r *ProfileRepository) SaveBudgetSetup(ctx context.Context, b core.BudgetSetup) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return replaceDocument(ctx, r.store, storage.KeyUserData, b, &core.BudgetSetup{}, r.now())
}

// IsAuthenticated reports whether the authentication flag is set.
func (r *ProfileRepository) IsAuthenticated(ctx context.Context) (bool, error) {
	raw, err := r.store.Get(ctx, storage.KeyIsAuthenticated)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", storage.KeyIsAuthenticated, err)
	}
	return strings.TrimSpace(string(raw)) == authenticatedValue, nil
}

// SetAuthenticated writes the flag, or removes it when authenticated is false.
func (r *ProfileRepository) SetAuthenticated(ctx context.Context, authenticated bool) error {
	if !authenticated {
		return r.store.Delete(ctx, storage.KeyIsAuthenticated)
	}
	return r.store.Set(ctx, storage.KeyIsAuthenticated, []byte(authenticatedValue))
}

func (r *ProfileRepository) get(ctx context.Context) (core.UserProfile, error) {
	var p core.UserProfile
	_, found, err := readDocument(ctx, r.store, storage.KeyUser, &p)
	if err != nil {
		return core.UserProfile{}, notFoundIfCorrupt(err)
	}
	if !found {
		return core.UserProfile{}, fmt.Errorf("profile: %w", core.ErrNotFound)
	}
	return p, nil
}

func (r *ProfileRepository) budgetSetup(ctx context.Context) (*core.BudgetSetup, error) {
	var b core.BudgetSetup
	_, found, err := readDocument(ctx, r.store, storage.KeyUserData, &b)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return &b, nil
}
