package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/spicecat/internal/model"
)

func createTestStorage(t *testing.T) (*SQLiteStorage, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("Failed to migrate: %v", err)
	}

	return store, func() { _ = store.Close() }
}

// Helper function to create test transactions.
func createTestTransactions(count int) []model.Transaction {
	txns := make([]model.Transaction, count)
	base := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

	for i := range txns {
		txns[i] = model.Transaction{
			ID:             fmt.Sprintf("t%d", i),
			UserID:         "u1",
			MerchantID:     "m_starbucks",
			PostedAt:       base.Add(time.Duration(i) * time.Hour),
			Amount:         decimal.NewFromFloat(float64(i) + 0.25),
			Currency:       "USD",
			RawDescription: fmt.Sprintf("STARBUCKS STORE #%d", i),
			MCC:            "5811",
			Channel:        "pos",
			AccountID:      "acc_1",
		}
	}
	return txns
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("  ")
	if !errors.Is(err, ErrEmptyString) {
		t.Fatalf("expected ErrEmptyString, got %v", err)
	}
}

func TestSQLiteStorage_Migrate(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	if err != nil {
		t.Fatalf("SchemaVersion failed: %v", err)
	}
	if version != ExpectedSchemaVersion {
		t.Errorf("schema version = %d, want %d", version, ExpectedSchemaVersion)
	}

	// Running again is a no-op.
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	for _, table := range []string{"merchants", "transactions"} {
		var name string
		err := store.db.QueryRowContext(ctx,
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}

func TestSQLiteStorage_MigrateRejectsNewerSchema(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := store.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", ExpectedSchemaVersion+1)); err != nil {
		t.Fatalf("failed to bump schema version: %v", err)
	}
	if err := store.Migrate(ctx); err == nil {
		t.Fatal("expected error for newer schema version")
	}
}

func TestSQLiteStorage_Path(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	if filepath.Base(store.Path()) != "test.db" {
		t.Errorf("unexpected path %q", store.Path())
	}
}
