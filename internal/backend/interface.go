package backend

import (
	"context"

	"expenseflow/internal/services"
	"expenseflow/internal/storage"
)

// BackendType selects where the key-value documents live.
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (t BackendType) String() string { return string(t) }

func (t BackendType) IsValid() bool {
	switch t {
	case MemoryBackend, SQLiteBackend:
		return true
	}
	return false
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult bundles the store with the services built on top of it.
type BackendResult struct {
	Store     storage.Store
	Accounts  *services.AccountService
	Expenses  *services.ExpenseService
	Dashboard *services.DashboardService

	// Publishing reports whether expense events go to a broker.
	Publishing bool

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	SQLiteDBPath string

	// AMQP publishing is optional; an empty URL disables it.
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}
