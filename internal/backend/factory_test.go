package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expenseflow/internal/config"
	"expenseflow/internal/core"
	"expenseflow/internal/storage"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "sheets"})
	assert.ErrorContains(t, err, "invalid backend type")

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:  "sqlite",
		SQLiteDBPath: "/tmp/x.db",
		AMQPURL:      "amqp://localhost/",
		AMQPExchange: "ex",
		AMQPQueue:    "q",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "/tmp/x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "q", cfg.AMQPQueue)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite with path", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown type", Config{Type: "mongo"}, true},
		{"amqp without queue", Config{Type: MemoryBackend, AMQPURL: "amqp://localhost/"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			assert.Equal(t, tt.wantErr, err != nil, "Validate() error = %v", err)
		})
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	ctx := context.Background()
	res, err := NewFactory(nil).CreateBackend(ctx, Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer res.Cleanup()

	assert.False(t, res.Publishing)
	v, err := res.Store.Get(ctx, storage.KeySchemaVersion)
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	e, err := res.Expenses.CreateExpense(ctx, core.ExpenseInput{Title: "Coffee", Amount: "3.20"})
	require.NoError(t, err)
	got, err := res.Expenses.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Title)
}

func TestCreateSQLiteBackendPersists(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "expenseflow.db")}

	res, err := NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	e, err := res.Expenses.CreateExpense(ctx, core.ExpenseInput{Title: "Train", Amount: "12", Category: "Transportation"})
	require.NoError(t, err)
	require.NoError(t, res.Cleanup())

	res, err = NewFactory(nil).CreateBackend(ctx, cfg)
	require.NoError(t, err)
	defer res.Cleanup()
	got, err := res.Expenses.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, core.CategoryTransportation, got.Category)
}

func TestCreateBackendRejectsNewerSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "expenseflow.db")

	s, err := storage.NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, storage.KeySchemaVersion, []byte("99")))
	require.NoError(t, s.Close())

	_, err = NewFactory(nil).CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	assert.ErrorIs(t, err, storage.ErrUnsupportedSchema)
}
