// Package http provides HTTP server and handler implementations.
//
// This file implements the Builder Pattern for constructing JSON responses.
// Every response shares one envelope, and notifications are mirrored into
// an HX-Trigger header so htmx front ends can show them without parsing
// the body.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	applog "expenseflow/internal/log"
)

// NotificationType represents the type of notification to display.
type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

// Notification is a non-blocking message for the user.
type Notification struct {
	Type     NotificationType `json:"type"`
	Message  string           `json:"message"`
	Duration int              `json:"duration"`
}

// envelope is the body of every API response.
type envelope struct {
	Data         any               `json:"data,omitempty"`
	Notification *Notification     `json:"notification,omitempty"`
	Error        string            `json:"error,omitempty"`
	Fields       map[string]string `json:"fields,omitempty"`
	Redirect     string            `json:"redirect,omitempty"`
}

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	headers    map[string]string
	body       envelope
	noBody     bool
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	b.triggers[name] = data
	return b
}

// TriggerExpenseChanged adds the expenses:changed trigger so lists and the dashboard refresh.
func (b *ResponseBuilder) TriggerExpenseChanged(id int64) *ResponseBuilder {
	return b.Trigger("expenses:changed", map[string]int64{"id": id})
}

// Notify sets the envelope notification and the matching show-notification trigger.
func (b *ResponseBuilder) Notify(notifType NotificationType, message string, durationMs int) *ResponseBuilder {
	n := &Notification{Type: notifType, Message: message, Duration: durationMs}
	b.body.Notification = n
	return b.Trigger("show-notification", n)
}

func (b *ResponseBuilder) Success(message string) *ResponseBuilder {
	return b.Notify(NotificationSuccess, message, 3000)
}

func (b *ResponseBuilder) Warning(message string) *ResponseBuilder {
	return b.Notify(NotificationWarning, message, 5000)
}

// Header adds a custom header to the response.
func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// Data sets the response payload.
func (b *ResponseBuilder) Data(v any) *ResponseBuilder {
	b.body.Data = v
	return b
}

// Error sets the error message and shows it as an error notification.
func (b *ResponseBuilder) Error(message string) *ResponseBuilder {
	b.body.Error = message
	return b.Trigger("show-notification", &Notification{Type: NotificationError, Message: message, Duration: 5000})
}

// Fields attaches per-field validation messages.
func (b *ResponseBuilder) Fields(fields map[string]string) *ResponseBuilder {
	b.body.Fields = fields
	return b
}

// Redirect tells the client where to go next.
func (b *ResponseBuilder) Redirect(path string) *ResponseBuilder {
	b.body.Redirect = path
	return b
}

// Empty drops the body, used for 204 responses.
func (b *ResponseBuilder) Empty() *ResponseBuilder {
	b.noBody = true
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	if b.noBody {
		w.WriteHeader(b.statusCode)
		return
	}

	payload, err := json.Marshal(b.body)
	if err != nil {
		slog.Error("Failed to encode response", applog.FieldComponent, applog.ComponentHTTP, applog.FieldError, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_, _ = w.Write(payload)
	_, _ = w.Write([]byte("\n"))
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).Error(message)
}

// BadRequestError creates a 400 Bad Request error response.
func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

// ValidationFailed creates a 422 response listing the invalid fields.
func ValidationFailed(fields map[string]string) *ResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, "Please correct the highlighted fields").Fields(fields)
}

// InternalServerError creates a 500 Internal Server Error response.
func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// NotFoundError creates a 404 Not Found error response.
func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

// UnauthorizedError creates a 401 response pointing the client at the login page.
func UnauthorizedError(message string) *ResponseBuilder {
	return NewResponse().Status(http.StatusUnauthorized).Error(message).Redirect("/login")
}

// TooManyRequestsError creates a 429 response.
func TooManyRequestsError() *ResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
