package calculator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseflow/internal/core"
)

func exp(id int64, cents int64, cat core.Category, date string) core.Expense {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Expense{ID: id, Title: "x", Amount: core.Money{Cents: cents}, Category: cat, Date: d}
}

func profileWith(incomeCents, budgetCents int64) *core.UserProfile {
	p := &core.UserProfile{Name: "Asha"}
	if incomeCents != 0 {
		p.MonthlyIncome = &core.Money{Cents: incomeCents}
	}
	if budgetCents != 0 {
		p.MonthlyBudget = &core.Money{Cents: budgetCents}
	}
	return p
}

var ref = time.Date(2026, 1, 25, 18, 30, 0, 0, time.UTC)

func TestComputeTotals(t *testing.T) {
	assert.Equal(t, int64(0), ComputeTotals(nil).Total.Cents)
	assert.Equal(t, int64(0), ComputeTotals([]core.Expense{}).Total.Cents)

	got := ComputeTotals([]core.Expense{
		exp(1, 120000, core.CategoryFood, "2026-01-25"),
		exp(2, 80000, core.CategoryFood, "2025-12-24"),
		exp(3, 1, core.CategoryOther, "2020-01-01"),
	})
	assert.Equal(t, int64(200001), got.Total.Cents)
	assert.Equal(t, 3, got.Count)
}

func TestComputeMonthly(t *testing.T) {
	expenses := []core.Expense{
		exp(1, 120000, core.CategoryFood, "2026-01-25"),
		exp(2, 80000, core.CategoryFood, "2026-01-24"),
		exp(3, 5000, core.CategoryFood, "2025-01-25"),
		exp(4, 7000, core.CategoryFood, "2026-02-01"),
	}
	m := ComputeMonthly(expenses, ref)
	assert.Equal(t, int64(200000), m.MonthTotal.Cents)
	assert.Equal(t, int64(120000), m.TodayTotal.Cents)
}

func TestComputeMonthlyUsesReferenceCalendar(t *testing.T) {
	// 23:30 on Jan 31 in UTC-5 is already Feb 1 in UTC; the reference's own
	// calendar fields decide.
	loc := time.FixedZone("EST", -5*60*60)
	late := time.Date(2026, 1, 31, 23, 30, 0, 0, loc)
	expenses := []core.Expense{exp(1, 100, core.CategoryFood, "2026-01-31")}

	m := ComputeMonthly(expenses, late)
	assert.Equal(t, int64(100), m.MonthTotal.Cents)
	assert.Equal(t, int64(100), m.TodayTotal.Cents)
}

func TestBudgetScenario(t *testing.T) {
	expenses := []core.Expense{
		exp(1, 120000, core.CategoryFood, "2026-01-25"),
		exp(2, 80000, core.CategoryShopping, "2026-01-24"),
	}
	m := ComputeMonthly(expenses, ref)
	require.Equal(t, int64(200000), m.MonthTotal.Cents)

	v := ComputeBudgetView(m.MonthTotal, profileWith(0, 500000))
	require.NotNil(t, v.Remaining)
	assert.Equal(t, int64(300000), v.Remaining.Cents)
	assert.False(t, v.OverBudget)
	require.NotNil(t, v.PercentUsed)
	assert.InDelta(t, 40.0, *v.PercentUsed, 1e-9)
}

func TestBudgetViewAbsentWithoutBudget(t *testing.T) {
	tests := []struct {
		name    string
		profile *core.UserProfile
	}{
		{"no profile", nil},
		{"budget unset", profileWith(100000, 0)},
		{"zero budget", &core.UserProfile{MonthlyBudget: &core.Money{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ComputeBudgetView(core.Money{Cents: 5000}, tt.profile)
			assert.Nil(t, v.Budget)
			assert.Nil(t, v.Remaining)
			assert.Nil(t, v.PercentUsed)
			assert.False(t, v.OverBudget)
			assert.Zero(t, v.ProgressPercent())
		})
	}
}

func TestBudgetViewOverBudget(t *testing.T) {
	v := ComputeBudgetView(core.Money{Cents: 15000}, profileWith(0, 10000))
	assert.True(t, v.OverBudget)
	assert.Equal(t, int64(-5000), v.Remaining.Cents)
	assert.InDelta(t, 150.0, *v.PercentUsed, 1e-9)
	assert.Equal(t, 100.0, v.ProgressPercent())

	exact := ComputeBudgetView(core.Money{Cents: 10000}, profileWith(0, 10000))
	assert.False(t, exact.OverBudget)
	assert.Equal(t, int64(0), exact.Remaining.Cents)
}

func TestSavingsView(t *testing.T) {
	assert.Nil(t, ComputeSavingsView(core.Money{Cents: 100}, nil).Savings)
	assert.Nil(t, ComputeSavingsView(core.Money{Cents: 100}, profileWith(0, 500)).Savings)

	s := ComputeSavingsView(core.Money{Cents: 30000}, profileWith(100000, 0))
	require.NotNil(t, s.Savings)
	assert.Equal(t, int64(70000), s.Savings.Cents)

	neg := ComputeSavingsView(core.Money{Cents: 130000}, profileWith(100000, 0))
	assert.Equal(t, int64(-30000), neg.Savings.Cents)
}

func TestComputeByCategory(t *testing.T) {
	expenses := []core.Expense{
		exp(1, 500, core.CategoryShopping, "2026-01-02"),
		exp(2, 300, core.CategoryFood, "2026-01-03"),
		exp(3, 200, core.CategoryFood, "2026-01-04"),
		exp(4, 999, core.CategoryHealthcare, "2025-12-31"),
		exp(5, 100, core.CategoryOther, "2026-01-05"),
	}
	got := ComputeByCategory(expenses, ref)
	require.Len(t, got, 3)
	// Food and Shopping tie at 500; Food comes first in display order.
	assert.Equal(t, core.CategoryFood, got[0].Category)
	assert.Equal(t, 2, got[0].Count)
	assert.Equal(t, core.CategoryShopping, got[1].Category)
	assert.Equal(t, core.CategoryOther, got[2].Category)

	assert.NotNil(t, ComputeByCategory(nil, ref))
}

func TestComputeInsights(t *testing.T) {
	m := Monthly{MonthTotal: core.Money{Cents: 250000}}
	in := ComputeInsights(m, profileWith(800000, 300000), ref)

	require.NotNil(t, in.DailyAllowance)
	assert.Equal(t, int64(10000), in.DailyAllowance.Cents)
	assert.Equal(t, int64(10000), in.AverageDailySpend.Cents)
	require.NotNil(t, in.PlannedSavings)
	assert.Equal(t, int64(500000), in.PlannedSavings.Cents)

	bare := ComputeInsights(m, nil, ref)
	assert.Nil(t, bare.DailyAllowance)
	assert.Nil(t, bare.PlannedSavings)
}

func TestCompute(t *testing.T) {
	var expenses []core.Expense
	for i := int64(1); i <= 7; i++ {
		expenses = append(expenses, exp(100-i, 1000*i, core.CategoryFood, "2026-01-0"+string(rune('0'+i))))
	}
	p := profileWith(1000000, 500000)
	p.Currency = "USD"

	s := Compute(expenses, p, ref)
	assert.Equal(t, "USD", s.Currency)
	assert.Equal(t, "2026-01-25", s.ReferenceDate.String())
	assert.Equal(t, int64(28000), s.TotalExpenses.Cents)
	assert.Equal(t, int64(28000), s.ExpensesThisMonth.Cents)
	assert.Equal(t, int64(0), s.ExpensesToday.Cents)
	assert.Equal(t, 7, s.ExpenseCount)
	require.Len(t, s.Recent, RecentLimit)
	assert.Equal(t, expenses[0].ID, s.Recent[0].ID)
	assert.Equal(t, int64(472000), s.Budget.Remaining.Cents)
	assert.Equal(t, int64(972000), s.SavingsThisMonth.Cents)
	assert.Equal(t, int64(972000), s.Statistics.Savings.Cents)
	assert.InDelta(t, 5.6, s.ProgressPercent, 1e-9)

	// Recent is a copy.
	s.Recent[0].Title = "changed"
	assert.Equal(t, "x", expenses[0].Title)
}

func TestComputeEmpty(t *testing.T) {
	s := Compute([]core.Expense{}, nil, ref)
	assert.Equal(t, core.DefaultCurrency, s.Currency)
	assert.Zero(t, s.TotalExpenses.Cents)
	assert.NotNil(t, s.Recent)
	assert.Empty(t, s.Recent)
	assert.Nil(t, s.Budget.Remaining)
	assert.Nil(t, s.SavingsThisMonth)
}
