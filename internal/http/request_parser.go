// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Bodies may be JSON or form-encoded; both are read through the same parser.

package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"expenseflow/internal/core"
	"expenseflow/internal/services"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

var errBadID = errors.New("invalid expense id")

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body != nil {
		p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal([]byte(trimmed), &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(trimmed)
	return p.err
}

// Get returns a trimmed string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	return strings.TrimSpace(p.GetExact(key))
}

// GetExact returns the value without trimming, for secrets.
func (p *RequestBodyParser) GetExact(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Has reports whether key was present in the body, even with an empty value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// ExpenseInput collects the add form fields.
func (p *RequestBodyParser) ExpenseInput() core.ExpenseInput {
	return core.ExpenseInput{
		Title:       p.Get(core.FieldTitle),
		Amount:      p.Get(core.FieldAmount),
		Category:    p.Get(core.FieldCategory),
		Date:        p.Get(core.FieldDate),
		Description: p.Get(core.FieldDescription),
	}
}

// ExpensePatch collects only the fields present in the body.
func (p *RequestBodyParser) ExpensePatch() core.ExpensePatch {
	field := func(key string) *string {
		if !p.Has(key) {
			return nil
		}
		v := p.Get(key)
		return &v
	}
	return core.ExpensePatch{
		Title:       field(core.FieldTitle),
		Amount:      field(core.FieldAmount),
		Category:    field(core.FieldCategory),
		Date:        field(core.FieldDate),
		Description: field(core.FieldDescription),
	}
}

func (p *RequestBodyParser) ProfileInput() services.ProfileInput {
	return services.ProfileInput{
		MonthlyIncome: p.Get(core.FieldIncome),
		MonthlyBudget: p.Get(core.FieldBudget),
		Currency:      p.Get(core.FieldCurrency),
	}
}

func (p *RequestBodyParser) BudgetInput() services.BudgetInput {
	return services.BudgetInput{
		MonthlyIncome: p.Get(core.FieldIncome),
		MonthlyBudget: p.Get(core.FieldBudget),
	}
}

// ParseFilter reads the list filter from the query string.
func ParseFilter(query url.Values) core.Filter {
	return core.Filter{
		Category:   core.Category(strings.TrimSpace(query.Get("category"))),
		SearchTerm: strings.TrimSpace(query.Get("q")),
	}
}

// ParseExpenseID reads the {id} path value.
func ParseExpenseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(r.PathValue("id")), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput removes control characters except tab, newline and carriage return.
func sanitizeInput(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
