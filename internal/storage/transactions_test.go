package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicecat/internal/model"
)

func TestSQLiteStorage_SaveAndGetTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txn := model.Transaction{
		ID:                    "t3",
		UserID:                "u1",
		MerchantID:            "m_uber",
		PostedAt:              time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC),
		Amount:                decimal.RequireFromString("-23.40"),
		Currency:              "USD",
		RawDescription:        "UBER*TRIP 987654",
		NormalizedDescription: "uber trip 987654",
		MCC:                   "4121",
		Channel:               "ecom",
		Geo:                   map[string]any{"city": "San Francisco", "country": "US"},
		AccountID:             "acc_1",
	}
	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{txn}))

	got, err := store.GetTransaction(ctx, "t3")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, txn.UserID, got.UserID)
	assert.Equal(t, txn.MerchantID, got.MerchantID)
	assert.True(t, txn.PostedAt.Equal(got.PostedAt))
	assert.True(t, txn.Amount.Equal(got.Amount), "amount %s", got.Amount)
	assert.Equal(t, txn.Currency, got.Currency)
	assert.Equal(t, txn.RawDescription, got.RawDescription)
	assert.Equal(t, txn.NormalizedDescription, got.NormalizedDescription)
	assert.Equal(t, txn.MCC, got.MCC)
	assert.Equal(t, txn.Channel, got.Channel)
	assert.Equal(t, txn.Geo, got.Geo)
	assert.Equal(t, txn.AccountID, got.AccountID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLiteStorage_TransactionWithoutOptionalFields(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, []model.Transaction{{ID: "bare"}}))

	got, err := store.GetTransaction(ctx, "bare")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.PostedAt.IsZero())
	assert.Nil(t, got.Geo)
	assert.True(t, got.Amount.IsZero())
	assert.Empty(t, got.RawDescription)
}

func TestSQLiteStorage_GetTransaction_NotFound(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	got, err := store.GetTransaction(context.Background(), "ghost")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteStorage_SaveTransactions_Upserts(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	txns := createTestTransactions(1)
	require.NoError(t, store.SaveTransactions(ctx, txns))

	txns[0].RawDescription = "STARBUCKS RESERVE"
	require.NoError(t, store.SaveTransactions(ctx, txns))

	got, err := store.GetTransaction(ctx, txns[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "STARBUCKS RESERVE", got.RawDescription)
}

func TestSQLiteStorage_SaveTransactions_Validation(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	tests := []struct {
		wantErr error
		name    string
		txns    []model.Transaction
	}{
		{name: "nil slice", txns: nil, wantErr: ErrNilParameter},
		{name: "empty slice", txns: []model.Transaction{}, wantErr: ErrEmptySlice},
		{name: "missing id", txns: []model.Transaction{{RawDescription: "X"}}, wantErr: ErrInvalidTransaction},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.SaveTransactions(ctx, tt.txns)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSQLiteStorage_GetTransactionsByIDs(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, createTestTransactions(maxIDsPerQuery+20)))

	ids := []string{"ghost"}
	for i := 0; i < maxIDsPerQuery+20; i += 2 {
		ids = append(ids, fmt.Sprintf("t%d", i))
	}

	got, err := store.GetTransactionsByIDs(ctx, ids)
	require.NoError(t, err)
	assert.Len(t, got, len(ids)-1)
	assert.NotContains(t, got, "ghost")
	assert.Equal(t, "STARBUCKS STORE #0", got["t0"].RawDescription)

	empty, err := store.GetTransactionsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSQLiteStorage_ListTransactions(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, store.SaveTransactions(ctx, createTestTransactions(5)))

	all, err := store.ListTransactions(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "t4", all[0].ID)

	limited, err := store.ListTransactions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}
