// Package testutil provides shared test fixtures backed by an in-memory
// SQLite store.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/seed"
	"github.com/Veraticus/spicecat/internal/storage"
)

// SeedTime is the posted_at stamped on seeded transactions.
var SeedTime = time.Date(2025, 9, 1, 6, 6, 7, 0, time.UTC)

// TestDBOptions configures SetupTestDB.
type TestDBOptions struct {
	Merchants    []model.Merchant
	Transactions []model.Transaction
	SkipSeed     bool // Leave out the demo catalogue
}

// SetupTestDB creates a migrated in-memory store seeded with the demo
// merchants and transactions plus any extras in opts. The store is closed
// when the test ends.
func SetupTestDB(t *testing.T, opts TestDBOptions) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	ctx := context.Background()
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	if !opts.SkipSeed {
		if err := seed.Apply(ctx, store, SeedTime); err != nil {
			t.Fatalf("failed to seed test database: %v", err)
		}
	}
	if len(opts.Merchants) > 0 {
		if err := store.SaveMerchants(ctx, opts.Merchants); err != nil {
			t.Fatalf("failed to save merchants: %v", err)
		}
	}
	if len(opts.Transactions) > 0 {
		if err := store.SaveTransactions(ctx, opts.Transactions); err != nil {
			t.Fatalf("failed to save transactions: %v", err)
		}
	}

	return store
}
