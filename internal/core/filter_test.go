package core

import (
	"reflect"
	"testing"
)

func sampleExpenses() []Expense {
	return []Expense{
		{ID: 6, Title: "Medicine", Amount: Money{Cents: 35000}, Category: CategoryHealthcare, Date: NewDate(2026, 1, 30)},
		{ID: 5, Title: "Restaurant Dinner", Amount: Money{Cents: 250000}, Category: CategoryFood, Date: NewDate(2026, 1, 25), Description: "Birthday"},
		{ID: 4, Title: "Petrol", Amount: Money{Cents: 150000}, Category: CategoryTransportation, Date: NewDate(2026, 1, 28)},
		{ID: 1, Title: "Grocery Shopping", Amount: Money{Cents: 120000}, Category: CategoryFood, Date: NewDate(2026, 1, 30), Description: "weekly dinner supplies"},
	}
}

func ids(es []Expense) []int64 {
	out := make([]int64, len(es))
	for i, e := range es {
		out[i] = e.ID
	}
	return out
}

func TestFilterExpenses(t *testing.T) {
	src := sampleExpenses()
	cases := []struct {
		name   string
		filter Filter
		want   []int64
	}{
		{"all empty", Filter{Category: CategoryAll}, []int64{6, 5, 4, 1}},
		{"zero value", Filter{}, []int64{6, 5, 4, 1}},
		{"category", Filter{Category: CategoryFood}, []int64{5, 1}},
		{"search title case insensitive", Filter{Category: CategoryAll, SearchTerm: "PETROL"}, []int64{4}},
		{"search description", Filter{SearchTerm: "dinner"}, []int64{5, 1}},
		{"category and search", Filter{Category: CategoryFood, SearchTerm: "birthday"}, []int64{5}},
		{"no match", Filter{Category: CategoryEducation}, []int64{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := FilterExpenses(src, tc.filter)
			if !reflect.DeepEqual(ids(got), tc.want) {
				t.Fatalf("want %v got %v", tc.want, ids(got))
			}
		})
	}
}

func TestFilterExpensesIdentityAndIdempotence(t *testing.T) {
	src := sampleExpenses()
	if got := FilterExpenses(src, Filter{Category: CategoryAll, SearchTerm: ""}); !reflect.DeepEqual(got, src) {
		t.Fatalf("identity law violated")
	}
	f := Filter{Category: CategoryFood, SearchTerm: "d"}
	once := FilterExpenses(src, f)
	twice := FilterExpenses(once, f)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("filter is not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestFilterExpensesDoesNotMutateSource(t *testing.T) {
	src := sampleExpenses()
	before := append([]Expense(nil), src...)
	got := FilterExpenses(src, Filter{Category: CategoryFood})
	if len(got) > 0 {
		got[0].Title = "changed"
	}
	if !reflect.DeepEqual(src, before) {
		t.Fatalf("source collection was mutated")
	}
}
