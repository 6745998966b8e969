package core

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestDateJSON(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2026-01-25"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if d.Year() != 2026 || d.Month() != 1 || d.Day() != 25 {
		t.Fatalf("unexpected date %v", d)
	}
	out, err := json.Marshal(d)
	if err != nil || string(out) != `"2026-01-25"` {
		t.Fatalf("marshal: %s err=%v", out, err)
	}
	if err := json.Unmarshal([]byte(`"2026-01-25T18:30:00.000Z"`), &d); err != nil || d.Day() != 25 {
		t.Fatalf("timestamp form: %v err=%v", d, err)
	}
	if err := json.Unmarshal([]byte(`"25/01/2026"`), &d); err == nil {
		t.Fatalf("expected error for non ISO date")
	}
}

func TestDateSameMonthUsesReferenceCalendar(t *testing.T) {
	// 23:30 on Jan 31 in UTC+5:30 is still January locally.
	ist := time.FixedZone("IST", 5*3600+1800)
	ref := time.Date(2026, 1, 31, 23, 30, 0, 0, ist)
	if !NewDate(2026, 1, 2).SameMonth(ref) {
		t.Fatalf("expected same month")
	}
	if NewDate(2025, 1, 2).SameMonth(ref) {
		t.Fatalf("different year must not match")
	}
	if !NewDate(2026, 1, 31).SameDay(ref) || NewDate(2026, 2, 1).SameDay(ref) {
		t.Fatalf("same day comparison shifted by timezone")
	}
}

func TestExpenseValidate(t *testing.T) {
	good := Expense{
		Date:     NewDate(2025, 1, 1),
		Title:    "ok",
		Amount:   Money{Cents: 100},
		Category: CategoryFood,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Expense{
		{Date: Date{Time: time.Time{}}, Title: "a", Amount: Money{Cents: 1}, Category: CategoryFood}, // zero date
		{Date: NewDate(2025, 1, 1), Title: " ", Amount: Money{Cents: 1}, Category: CategoryFood},
		{Date: NewDate(2025, 1, 1), Title: "a", Amount: Money{Cents: 0}, Category: CategoryFood},
		{Date: NewDate(2025, 1, 1), Title: "a", Amount: Money{Cents: 1}, Category: "Groceries"},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestExpenseInputParse(t *testing.T) {
	cases := []struct {
		name   string
		in     ExpenseInput
		fields []string
	}{
		{"valid", ExpenseInput{Title: "Groceries", Amount: "1200", Category: "Food", Date: "2026-01-25"}, nil},
		{"negative amount", ExpenseInput{Title: "Groceries", Amount: "-5", Date: "2026-01-25"}, []string{FieldAmount}},
		{"empty title only", ExpenseInput{Title: "", Amount: "100", Date: "2026-01-25"}, []string{FieldTitle}},
		{"missing amount", ExpenseInput{Title: "x", Date: "2026-01-25"}, []string{FieldAmount}},
		{"non numeric amount", ExpenseInput{Title: "x", Amount: "abc", Date: "2026-01-25"}, []string{FieldAmount}},
		{"missing date", ExpenseInput{Title: "x", Amount: "1"}, []string{FieldDate}},
		{"bad category", ExpenseInput{Title: "x", Amount: "1", Date: "2026-01-25", Category: "Rent"}, []string{FieldCategory}},
		{"everything wrong", ExpenseInput{Amount: "0", Date: "yesterday"}, []string{FieldTitle, FieldAmount, FieldDate}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, err := tc.in.Parse()
			if len(tc.fields) == 0 {
				if err != nil {
					t.Fatalf("expected ok, got %v", err)
				}
				if e.Amount.Cents != 120000 || e.Category != CategoryFood {
					t.Fatalf("unexpected expense %+v", e)
				}
				return
			}
			verr, ok := AsValidation(err)
			if !ok {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(verr.Fields) != len(tc.fields) {
				t.Fatalf("expected fields %v, got %v", tc.fields, verr.Fields)
			}
			for _, f := range tc.fields {
				if !verr.Has(f) {
					t.Fatalf("missing error for %s: %v", f, verr.Fields)
				}
			}
		})
	}
}

func TestExpenseInputDefaultsCategory(t *testing.T) {
	e, err := ExpenseInput{Title: " Bus ", Amount: "40", Date: "2026-01-02", Category: "transportation"}.Parse()
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if e.Title != "Bus" || e.Category != CategoryTransportation {
		t.Fatalf("unexpected %+v", e)
	}
	e, err = ExpenseInput{Title: "Lunch", Amount: "40", Date: "2026-01-02"}.Parse()
	if err != nil || e.Category != CategoryFood {
		t.Fatalf("expected default Food, got %+v err=%v", e, err)
	}
}

func TestExpensePatchApply(t *testing.T) {
	orig := Expense{ID: 7, Title: "Petrol", Amount: Money{Cents: 150000}, Category: CategoryTransportation, Date: NewDate(2026, 1, 28)}

	amount := "99.5"
	got, err := ExpensePatch{Amount: &amount}.Apply(orig)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got.ID != 7 || got.Amount.Cents != 9950 || got.Title != "Petrol" || !got.Date.Equal(orig.Date.Time) {
		t.Fatalf("unexpected merge result %+v", got)
	}

	empty := ""
	if _, err := (ExpensePatch{Title: &empty}).Apply(orig); err == nil {
		t.Fatalf("expected validation error for blank title")
	}
}

func TestProfileBudgetTieBreak(t *testing.T) {
	zero := Money{}
	p := UserProfile{MonthlyBudget: &zero}
	if _, ok := p.Budget(); ok {
		t.Fatalf("zero budget must count as unset")
	}
	b := Money{Cents: 500000}
	inc := Money{Cents: 800000}
	merged := p.WithBudgetSetup(&BudgetSetup{MonthlyBudget: &b, MonthlyIncome: &inc})
	if got, ok := merged.Budget(); !ok || got != b {
		t.Fatalf("expected fallback budget, got %v %v", got, ok)
	}
	if got, ok := merged.Income(); !ok || got != inc {
		t.Fatalf("expected fallback income, got %v %v", got, ok)
	}
	if p.CurrencyOrDefault() != "INR" {
		t.Fatalf("expected default currency")
	}
}
