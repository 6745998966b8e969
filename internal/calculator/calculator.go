// Package calculator derives summary figures from an expense collection and a
// user profile. Every function is pure: no I/O, no clock, no caching.
package calculator

import (
	"sort"
	"time"

	"expenseflow/internal/core"
)

// RecentLimit is the number of expenses carried in Summary.Recent.
const RecentLimit = 5

// allowanceDays is the fixed month length used for the daily allowance.
const allowanceDays = 30

type (
	Totals struct {
		Total core.Money `json:"total"`
		Count int        `json:"count"`
	}

	Monthly struct {
		MonthTotal core.Money `json:"monthTotal"`
		TodayTotal core.Money `json:"todayTotal"`
	}

	// BudgetView is empty when no budget is configured. PercentUsed is the raw
	// ratio and may exceed 100.
	BudgetView struct {
		Budget      *core.Money `json:"budget,omitempty"`
		Remaining   *core.Money `json:"remaining,omitempty"`
		PercentUsed *float64    `json:"percentUsed,omitempty"`
		OverBudget  bool        `json:"overBudget"`
	}

	SavingsView struct {
		Savings *core.Money `json:"savings,omitempty"`
	}

	CategoryTotal struct {
		Category core.Category `json:"category"`
		Total    core.Money    `json:"total"`
		Count    int           `json:"count"`
	}

	Insights struct {
		DailyAllowance    *core.Money `json:"dailyAllowance,omitempty"`
		AverageDailySpend core.Money  `json:"averageDailySpend"`
		PlannedSavings    *core.Money `json:"plannedSavings,omitempty"`
	}

	Statistics struct {
		Income   *core.Money `json:"income,omitempty"`
		Expenses core.Money  `json:"expenses"`
		Savings  *core.Money `json:"savings,omitempty"`
	}

	Summary struct {
		ReferenceDate     core.Date       `json:"referenceDate"`
		Currency          string          `json:"currency"`
		TotalExpenses     core.Money      `json:"totalExpenses"`
		ExpenseCount      int             `json:"expenseCount"`
		ExpensesThisMonth core.Money      `json:"expensesThisMonth"`
		ExpensesToday     core.Money      `json:"expensesToday"`
		Budget            BudgetView      `json:"budget"`
		ProgressPercent   float64         `json:"progressPercent"`
		SavingsThisMonth  *core.Money     `json:"savingsThisMonth,omitempty"`
		ByCategory        []CategoryTotal `json:"byCategory"`
		Recent            []core.Expense  `json:"recent"`
		Insights          Insights        `json:"insights"`
		Statistics        Statistics      `json:"statistics"`
	}
)

// ComputeTotals sums every amount. The total of an empty collection is zero.
func ComputeTotals(expenses []core.Expense) Totals {
	var t Totals
	for _, e := range expenses {
		t.Total = t.Total.Add(e.Amount)
	}
	t.Count = len(expenses)
	return t
}

// ComputeMonthly sums the expenses dated in ref's calendar month and on ref's
// calendar day. Dates are compared by their calendar fields in ref's location.
func ComputeMonthly(expenses []core.Expense, ref time.Time) Monthly {
	var m Monthly
	for _, e := range expenses {
		if !e.Date.SameMonth(ref) {
			continue
		}
		m.MonthTotal = m.MonthTotal.Add(e.Amount)
		if e.Date.SameDay(ref) {
			m.TodayTotal = m.TodayTotal.Add(e.Amount)
		}
	}
	return m
}

// ComputeBudgetView compares the month total with the configured budget.
// A missing or zero budget leaves every budget field absent.
func ComputeBudgetView(monthTotal core.Money, profile *core.UserProfile) BudgetView {
	if profile == nil {
		return BudgetView{}
	}
	budget, ok := profile.Budget()
	if !ok {
		return BudgetView{}
	}
	remaining := budget.Sub(monthTotal)
	pct := float64(monthTotal.Cents) / float64(budget.Cents) * 100
	return BudgetView{
		Budget:      &budget,
		Remaining:   &remaining,
		PercentUsed: &pct,
		OverBudget:  monthTotal.Cents > budget.Cents,
	}
}

// ProgressPercent is PercentUsed clamped to [0,100] for progress bars.
// Without a budget it is zero.
func (v BudgetView) ProgressPercent() float64 {
	if v.PercentUsed == nil {
		return 0
	}
	switch p := *v.PercentUsed; {
	case p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// ComputeSavingsView returns income minus the month total, absent without income.
func ComputeSavingsView(monthTotal core.Money, profile *core.UserProfile) SavingsView {
	if profile == nil {
		return SavingsView{}
	}
	income, ok := profile.Income()
	if !ok {
		return SavingsView{}
	}
	s := income.Sub(monthTotal)
	return SavingsView{Savings: &s}
}

// ComputeByCategory totals the expenses of ref's month per category, largest
// first. Ties keep the display order of core.Categories.
func ComputeByCategory(expenses []core.Expense, ref time.Time) []CategoryTotal {
	index := make(map[core.Category]int)
	out := []CategoryTotal{}
	for _, e := range expenses {
		if !e.Date.SameMonth(ref) {
			continue
		}
		i, ok := index[e.Category]
		if !ok {
			i = len(out)
			index[e.Category] = i
			out = append(out, CategoryTotal{Category: e.Category})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
		out[i].Count++
	}
	sort.SliceStable(out, func(a, b int) bool {
		if out[a].Total.Cents != out[b].Total.Cents {
			return out[a].Total.Cents > out[b].Total.Cents
		}
		return categoryRank(out[a].Category) < categoryRank(out[b].Category)
	})
	return out
}

// ComputeInsights derives the per-day figures shown next to the budget.
func ComputeInsights(m Monthly, profile *core.UserProfile, ref time.Time) Insights {
	var in Insights
	if day := int64(ref.Day()); day > 0 {
		in.AverageDailySpend = core.Money{Cents: divRound(m.MonthTotal.Cents, day)}
	}
	if profile == nil {
		return in
	}
	budget, hasBudget := profile.Budget()
	if hasBudget {
		allowance := core.Money{Cents: divRound(budget.Cents, allowanceDays)}
		in.DailyAllowance = &allowance
	}
	if income, ok := profile.Income(); ok && hasBudget {
		planned := income.Sub(budget)
		in.PlannedSavings = &planned
	}
	return in
}

// ComputeStatistics reports income against this month's spending.
func ComputeStatistics(m Monthly, profile *core.UserProfile) Statistics {
	st := Statistics{Expenses: m.MonthTotal}
	if profile == nil {
		return st
	}
	if income, ok := profile.Income(); ok {
		savings := income.Sub(m.MonthTotal)
		st.Income = &income
		st.Savings = &savings
	}
	return st
}

// Compute evaluates every figure for the collection and optional profile at ref.
func Compute(expenses []core.Expense, profile *core.UserProfile, ref time.Time) Summary {
	totals := ComputeTotals(expenses)
	monthly := ComputeMonthly(expenses, ref)
	budget := ComputeBudgetView(monthly.MonthTotal, profile)

	currency := core.DefaultCurrency
	if profile != nil {
		currency = profile.CurrencyOrDefault()
	}

	n := min(len(expenses), RecentLimit)
	recent := make([]core.Expense, n)
	copy(recent, expenses[:n])

	return Summary{
		ReferenceDate:     core.DateOf(ref),
		Currency:          currency,
		TotalExpenses:     totals.Total,
		ExpenseCount:      totals.Count,
		ExpensesThisMonth: monthly.MonthTotal,
		ExpensesToday:     monthly.TodayTotal,
		Budget:            budget,
		ProgressPercent:   budget.ProgressPercent(),
		SavingsThisMonth:  ComputeSavingsView(monthly.MonthTotal, profile).Savings,
		ByCategory:        ComputeByCategory(expenses, ref),
		Recent:            recent,
		Insights:          ComputeInsights(monthly, profile, ref),
		Statistics:        ComputeStatistics(monthly, profile),
	}
}

func categoryRank(c core.Category) int {
	for i, known := range core.Categories {
		if known == c {
			return i
		}
	}
	return len(core.Categories)
}

// divRound divides rounding half away from zero.
func divRound(n, d int64) int64 {
	if n < 0 {
		return -divRound(-n, d)
	}
	return (n + d/2) / d
}
