package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenseflow/internal/amqp"
	"expenseflow/internal/repository"
	"expenseflow/internal/services"
	"expenseflow/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend opens the store, stamps its schema version and wires the
// services. A broker that cannot be reached is logged and skipped.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.openStore(config)
	if err != nil {
		return nil, err
	}
	if err := storage.EnsureSchema(ctx, store); err != nil {
		store.Close()
		return nil, fmt.Errorf("check schema: %w", err)
	}

	var publisher services.EventPublisher
	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", "error", err)
			amqpClient = nil
		} else {
			publisher = amqpClient
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	expenses := repository.NewExpenseRepository(store)
	profiles := repository.NewProfileRepository(store)

	f.logger.Info("Initialized backend",
		"type", config.Type,
		"amqp_enabled", amqpClient != nil)

	return &BackendResult{
		Store:      store,
		Accounts:   services.NewAccountService(profiles),
		Expenses:   services.NewExpenseService(expenses, publisher),
		Dashboard:  services.NewDashboardService(expenses, profiles),
		Publishing: amqpClient != nil,
		Cleanup: func() error {
			var errs []error
			if amqpClient != nil {
				errs = append(errs, amqpClient.Close())
			}
			errs = append(errs, store.Close())
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) openStore(config Config) (storage.Store, error) {
	switch config.Type {
	case SQLiteBackend:
		s, err := storage.NewSQLiteStore(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, nil
	case MemoryBackend:
		f.logger.Warn("Using in-memory store, data is lost on exit")
		return storage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
