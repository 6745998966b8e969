package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseflow/internal/core"
	"expenseflow/internal/repository"
	"expenseflow/internal/storage"
)

func newAccountService() (*AccountService, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	svc := NewAccountService(repository.NewProfileRepository(store))
	svc.now = func() time.Time { return time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestLoginValidation(t *testing.T) {
	svc, store := newAccountService()

	tests := []struct {
		name     string
		email    string
		password string
		fields   []string
	}{
		{"empty", "", "", []string{core.FieldEmail, core.FieldPassword}},
		{"bad email", "not-an-email", "secret1", []string{core.FieldEmail}},
		{"short password", "a@b.co", "12345", []string{core.FieldPassword}},
		{"password over bcrypt limit", "a@b.co", strings.Repeat("a", 73), []string{core.FieldPassword}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			verr, ok := core.AsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Len(t, verr.Fields, len(tt.fields))
			for _, f := range tt.fields {
				assert.True(t, verr.Has(f), "missing %s", f)
			}
		})
	}
	assert.Empty(t, store.Keys())
}

func TestLoginCreatesDefaultProfile(t *testing.T) {
	svc, store := newAccountService()
	ctx := context.Background()

	res, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, DefaultProfileName, res.Profile.Name)
	assert.Equal(t, "asha@example.com", res.Profile.Email)
	assert.Equal(t, core.DefaultCurrency, res.Profile.Currency)

	flag, err := store.Get(ctx, storage.KeyIsAuthenticated)
	require.NoError(t, err)
	assert.Equal(t, "true", string(flag))

	again, err := svc.Login(ctx, "asha@example.com", "another")
	require.NoError(t, err)
	assert.False(t, again.Created)
}

func TestRegisterThenLoginChecksPassword(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()

	p, err := svc.Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, p.PasswordHash)
	assert.NotEqual(t, "secret1", p.PasswordHash)

	require.NoError(t, svc.Logout(ctx))
	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = svc.Login(ctx, "asha@example.com", "wrong-password")
	assert.ErrorIs(t, err, core.ErrInvalidCredentials)
	ok, _ = svc.IsAuthenticated(ctx)
	assert.False(t, ok)

	res, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", res.Profile.Name)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAccountService()
	_, err := svc.Register(context.Background(), " ", "bad", "123")
	verr, ok := core.AsValidation(err)
	require.True(t, ok)
	assert.True(t, verr.Has(core.FieldName))
	assert.True(t, verr.Has(core.FieldEmail))
	assert.True(t, verr.Has(core.FieldPassword))

	_, err = svc.Register(context.Background(), "Ann", "ann@example.com", strings.Repeat("a", 80))
	verr, ok = core.AsValidation(err)
	require.True(t, ok, "expected validation error, got %v", err)
	assert.Equal(t, "Password must be at most 72 bytes", verr.Fields[core.FieldPassword])

	_, err = svc.Register(context.Background(), "Ann", "ann@example.com", strings.Repeat("a", 72))
	assert.NoError(t, err)
}

func TestLoginRecoversFromCorruptProfile(t *testing.T) {
	store := storage.NewMemoryStoreWith(map[string]string{storage.KeyUser: `{broken`})
	svc := NewAccountService(repository.NewProfileRepository(store))
	ctx := context.Background()

	res, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.Recovered)
	assert.Equal(t, "ann@example.com", res.Profile.Email)

	again, err := svc.Login(ctx, "ann@example.com", "secret1")
	require.NoError(t, err)
	assert.False(t, again.Recovered)

	var quarantined int
	for _, k := range store.Keys() {
		if strings.HasPrefix(k, storage.KeyUser+".corrupt.") {
			quarantined++
		}
	}
	assert.Equal(t, 1, quarantined)
}

func TestSetupProfileOverCorruptProfile(t *testing.T) {
	store := storage.NewMemoryStoreWith(map[string]string{storage.KeyUser: `{broken`})
	svc := NewAccountService(repository.NewProfileRepository(store))

	p, err := svc.SetupProfile(context.Background(), ProfileInput{MonthlyBudget: "5000"})
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, p.Name)
	assert.Equal(t, int64(500000), p.MonthlyBudget.Cents)
}

func TestSetupProfilePreservesOtherFields(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()
	_, err := svc.Register(ctx, "Asha", "asha@example.com", "secret1")
	require.NoError(t, err)

	p, err := svc.SetupProfile(ctx, ProfileInput{MonthlyIncome: "80000", MonthlyBudget: "50000", Currency: "eur"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", p.Name)
	assert.Equal(t, "asha@example.com", p.Email)
	assert.NotEmpty(t, p.PasswordHash)
	assert.Equal(t, "EUR", p.Currency)
	assert.Equal(t, int64(8000000), p.MonthlyIncome.Cents)
	assert.Equal(t, int64(5000000), p.MonthlyBudget.Cents)
}

func TestSetupProfileValidation(t *testing.T) {
	svc, _ := newAccountService()
	_, err := svc.SetupProfile(context.Background(), ProfileInput{MonthlyIncome: "-1", MonthlyBudget: "abc", Currency: "EURO"})
	verr, ok := core.AsValidation(err)
	require.True(t, ok)
	assert.True(t, verr.Has(core.FieldIncome))
	assert.True(t, verr.Has(core.FieldBudget))
	assert.True(t, verr.Has(core.FieldCurrency))
}

func TestSetupProfileWithoutProfile(t *testing.T) {
	svc, _ := newAccountService()
	p, err := svc.SetupProfile(context.Background(), ProfileInput{MonthlyBudget: "100"})
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, p.Name)
	assert.Equal(t, int64(10000), p.MonthlyBudget.Cents)
}

func TestSetupBudgetFeedsProfile(t *testing.T) {
	svc, _ := newAccountService()
	ctx := context.Background()
	_, err := svc.Login(ctx, "asha@example.com", "secret1")
	require.NoError(t, err)

	b, err := svc.SetupBudget(ctx, BudgetInput{MonthlyIncome: "1000", MonthlyBudget: "600"})
	require.NoError(t, err)
	assert.Equal(t, 2024, b.SetupDate.Year())

	p, err := svc.Profile(ctx)
	require.NoError(t, err)
	budget, ok := p.Budget()
	require.True(t, ok)
	assert.Equal(t, int64(60000), budget.Cents)
}
