package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage form of expense dates.
const DateLayout = "2006-01-02"

// DefaultCurrency is assigned to profiles created without one.
const DefaultCurrency = "INR"

const (
	CategoryFood           Category = "Food"
	CategoryTransportation Category = "Transportation"
	CategoryEntertainment  Category = "Entertainment"
	CategoryShopping       Category = "Shopping"
	CategoryUtilities      Category = "Utilities"
	CategoryHealthcare     Category = "Healthcare"
	CategoryEducation      Category = "Education"
	CategoryOther          Category = "Other"

	// CategoryAll is the filter sentinel matching every category.
	CategoryAll Category = "All"
)

// Categories lists the accepted expense categories in display order.
var Categories = []Category{
	CategoryFood,
	CategoryTransportation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryEducation,
	CategoryOther,
}

type (
	Category string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Expense struct {
		ID          int64    `json:"id"`
		Title       string   `json:"title"`
		Amount      Money    `json:"amount"`
		Category    Category `json:"category"`
		Date        Date     `json:"date"`
		Description string   `json:"description"`
	}

	// ExpenseInput carries the raw values submitted by a form or CLI.
	ExpenseInput struct {
		Title       string `json:"title"`
		Amount      string `json:"amount"`
		Category    string `json:"category"`
		Date        string `json:"date"`
		Description string `json:"description"`
	}

	// ExpensePatch holds the fields to change on an existing expense; nil fields are kept.
	ExpensePatch struct {
		Title       *string `json:"title,omitempty"`
		Amount      *string `json:"amount,omitempty"`
		Category    *string `json:"category,omitempty"`
		Date        *string `json:"date,omitempty"`
		Description *string `json:"description,omitempty"`
	}

	UserProfile struct {
		Name            string    `json:"name"`
		Email           string    `json:"email"`
		MonthlyIncome   *Money    `json:"monthlyIncome,omitempty"`
		MonthlyBudget   *Money    `json:"monthlyBudget,omitempty"`
		Currency        string    `json:"currency,omitempty"`
		IsAuthenticated bool      `json:"isAuthenticated"`
		PasswordHash    string    `json:"passwordHash,omitempty"`
		CreatedAt       time.Time `json:"createdAt"`
	}

	// BudgetSetup is the record written by the standalone budget setup flow.
	BudgetSetup struct {
		MonthlyIncome *Money    `json:"monthlyIncome,omitempty"`
		MonthlyBudget *Money    `json:"monthlyBudget,omitempty"`
		SetupDate     time.Time `json:"setupDate"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrEmptyTitle      = errors.New("empty title")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidDate     = errors.New("invalid date")
)

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range Categories {
		if strings.EqualFold(string(c), s) {
			return c, true
		}
	}
	return "", false
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// DateOf returns the calendar day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

// Day returns the day of the month
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// SameMonth reports whether d falls in the calendar month and year of ref.
func (d Date) SameMonth(ref time.Time) bool {
	y, m, _ := ref.Date()
	return d.Year() == y && d.Month() == int(m)
}

// SameDay reports whether d is the calendar day of ref.
func (d Date) SameDay(ref time.Time) bool {
	y, m, day := ref.Date()
	return d.Year() == y && d.Month() == int(m) && d.Day() == day
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	// Older records may carry a full ISO timestamp.
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}
	*d = parsed
	return nil
}

func (e Expense) Validate() error {
	if err := e.Date.Validate(); err != nil {
		return ErrInvalidDate
	}
	if strings.TrimSpace(e.Title) == "" {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Parse validates the raw input and converts it to an Expense without an ID.
// Every invalid field is reported in the returned *ValidationError.
func (in ExpenseInput) Parse() (Expense, error) {
	verr := NewValidationError()
	e := Expense{
		Title:       SanitizeText(in.Title),
		Description: SanitizeText(in.Description),
	}

	if e.Title == "" {
		verr.Add(FieldTitle, "Title is required")
	} else if len(e.Title) > 200 {
		verr.Add(FieldTitle, "Title must be at most 200 characters")
	}

	if strings.TrimSpace(in.Amount) == "" {
		verr.Add(FieldAmount, "Amount is required")
	} else if cents, err := ParseDecimalToCents(in.Amount); err != nil {
		verr.Add(FieldAmount, "Amount must be a positive number")
	} else {
		e.Amount = Money{Cents: cents}
	}

	if strings.TrimSpace(in.Category) == "" {
		e.Category = CategoryFood
	} else if c, ok := ParseCategory(in.Category); ok {
		e.Category = c
	} else {
		verr.Add(FieldCategory, "Category must be one of "+categoryNames())
	}

	if strings.TrimSpace(in.Date) == "" {
		verr.Add(FieldDate, "Date is required")
	} else if d, err := ParseDate(in.Date); err != nil {
		verr.Add(FieldDate, "Date must be in YYYY-MM-DD format")
	} else {
		e.Date = d
	}

	if err := verr.Err(); err != nil {
		return Expense{}, err
	}
	return e, nil
}

// InputOf renders a stored expense back into form values.
func InputOf(e Expense) ExpenseInput {
	return ExpenseInput{
		Title:       e.Title,
		Amount:      e.Amount.String(),
		Category:    string(e.Category),
		Date:        e.Date.String(),
		Description: e.Description,
	}
}

// Apply merges the patch into e and re-validates the result. The ID is preserved.
func (p ExpensePatch) Apply(e Expense) (Expense, error) {
	in := InputOf(e)
	if p.Title != nil {
		in.Title = *p.Title
	}
	if p.Amount != nil {
		in.Amount = *p.Amount
	}
	if p.Category != nil {
		in.Category = *p.Category
	}
	if p.Date != nil {
		in.Date = *p.Date
	}
	if p.Description != nil {
		in.Description = *p.Description
	}
	updated, err := in.Parse()
	if err != nil {
		return Expense{}, err
	}
	updated.ID = e.ID
	return updated, nil
}

// IsEmpty reports whether the patch changes nothing.
func (p ExpensePatch) IsEmpty() bool {
	return p.Title == nil && p.Amount == nil && p.Category == nil && p.Date == nil && p.Description == nil
}

// Budget returns the configured monthly budget. A zero budget counts as not configured.
func (p UserProfile) Budget() (Money, bool) {
	if p.MonthlyBudget == nil || p.MonthlyBudget.Cents <= 0 {
		return Money{}, false
	}
	return *p.MonthlyBudget, true
}

// Income returns the configured monthly income. A zero income counts as not configured.
func (p UserProfile) Income() (Money, bool) {
	if p.MonthlyIncome == nil || p.MonthlyIncome.Cents <= 0 {
		return Money{}, false
	}
	return *p.MonthlyIncome, true
}

// Redacted returns a copy safe to hand to clients.
func (p UserProfile) Redacted() UserProfile {
	p.PasswordHash = ""
	return p
}

func (p UserProfile) CurrencyOrDefault() string {
	if strings.TrimSpace(p.Currency) == "" {
		return DefaultCurrency
	}
	return p.Currency
}

// WithBudgetSetup fills income and budget from the standalone setup record when the
// profile itself has none configured.
func (p UserProfile) WithBudgetSetup(b *BudgetSetup) UserProfile {
	if b == nil {
		return p
	}
	if _, ok := p.Budget(); !ok && b.MonthlyBudget != nil {
		v := *b.MonthlyBudget
		p.MonthlyBudget = &v
	}
	if _, ok := p.Income(); !ok && b.MonthlyIncome != nil {
		v := *b.MonthlyIncome
		p.MonthlyIncome = &v
	}
	return p
}

// SanitizeText trims whitespace and drops control characters except tab and newlines.
func SanitizeText(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func categoryNames() string {
	names := make([]string, len(Categories))
	for i, c := range Categories {
		names[i] = string(c)
	}
	return strings.Join(names, ", ")
}
