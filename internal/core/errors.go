package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Form field names used as ValidationError keys.
const (
	FieldTitle       = "title"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldDate        = "date"
	FieldName        = "name"
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldIncome      = "monthlyIncome"
	FieldBudget      = "monthlyBudget"
	FieldCurrency    = "currency"
	FieldDescription = "description"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrCorruptData        = errors.New("corrupt stored data")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError maps form fields to human readable messages.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string]string)}
}

// Add records msg for field, keeping the first message reported for a field.
func (e *ValidationError) Add(field, msg string) {
	if _, exists := e.Fields[field]; exists {
		return
	}
	e.Fields[field] = msg
}

func (e *ValidationError) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Err returns e when at least one field failed, nil otherwise.
func (e *ValidationError) Err() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CorruptDataError reports a stored value that could not be decoded.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("corrupt data under key %q: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrCorruptData) match.
func (e *CorruptDataError) Is(target error) bool { return target == ErrCorruptData }

// AsValidation extracts a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
