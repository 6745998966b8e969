package core

import "strings"

// Filter narrows an expense list. The zero value matches everything.
type Filter struct {
	Category   Category
	SearchTerm string
}

// Matches reports whether e passes both the category and the search criteria.
func (f Filter) Matches(e Expense) bool {
	if f.Category != "" && f.Category != CategoryAll && e.Category != f.Category {
		return false
	}
	if f.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(f.SearchTerm)
	return strings.Contains(strings.ToLower(e.Title), term) ||
		strings.Contains(strings.ToLower(e.Description), term)
}

// FilterExpenses returns the expenses matching f in their original order.
// The input slice is never modified.
func FilterExpenses(expenses []Expense, f Filter) []Expense {
	out := make([]Expense, 0, len(expenses))
	for _, e := range expenses {
		if f.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}
