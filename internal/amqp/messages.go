package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"expenseflow/internal/core"
)

type EventType string

const (
	EventExpenseCreated EventType = "expense.created"
	EventExpenseUpdated EventType = "expense.updated"
	EventExpenseDeleted EventType = "expense.deleted"
)

// ExpenseEvent announces a change to the expense collection. Created and
// updated events carry a snapshot of the record so consumers never read the
// store; deleted events carry only the ID.
type ExpenseEvent struct {
	Type      EventType     `json:"type"`
	ID        int64         `json:"id"`
	Version   int64         `json:"version"`
	Timestamp time.Time     `json:"timestamp"`
	Expense   *core.Expense `json:"expense,omitempty"`
}

// NewExpenseEvent builds a created or updated event. The version is the
// event time in nanoseconds so later events for the same ID sort higher.
func NewExpenseEvent(t EventType, e core.Expense) *ExpenseEvent {
	now := time.Now()
	snapshot := e
	return &ExpenseEvent{
		Type:      t,
		ID:        e.ID,
		Version:   now.UnixNano(),
		Timestamp: now,
		Expense:   &snapshot,
	}
}

func NewExpenseDeletedEvent(id int64) *ExpenseEvent {
	now := time.Now()
	return &ExpenseEvent{
		Type:      EventExpenseDeleted,
		ID:        id,
		Version:   now.UnixNano(),
		Timestamp: now,
	}
}

// ToJSON converts the event to JSON bytes
func (m *ExpenseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// Validate rejects events a consumer cannot act on.
func (m *ExpenseEvent) Validate() error {
	if m.ID <= 0 {
		return fmt.Errorf("event id must be positive, got %d", m.ID)
	}
	switch m.Type {
	case EventExpenseCreated, EventExpenseUpdated:
		if m.Expense == nil {
			return fmt.Errorf("%s event %d has no expense snapshot", m.Type, m.ID)
		}
	case EventExpenseDeleted:
	default:
		return fmt.Errorf("unknown event type %q", m.Type)
	}
	return nil
}

// ExpenseEventFromJSON decodes and validates an event.
func ExpenseEventFromJSON(data []byte) (*ExpenseEvent, error) {
	var msg ExpenseEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
