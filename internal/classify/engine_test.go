package classify

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicecat/internal/model"
)

func TestEngine_Classify_Examples(t *testing.T) {
	store := newMemStore().addMerchant(uberMerchant())
	engine := New(nil, store, store)
	ctx := context.Background()

	t.Run("mcc and keyword agree", func(t *testing.T) {
		result, err := engine.Classify(ctx, model.ClassificationRequest{
			ID:             "t2",
			RawDescription: "STARBUCKS STORE #123",
			MCC:            "5811",
		})
		require.NoError(t, err)

		assert.Equal(t, "Food & Drink > Coffee Shop", result.Category)
		assert.InDelta(t, 0.3, result.Confidence, 1e-9)
		assert.Equal(t, []string{
			"MCC 5811 aligns with Food & Drink > Coffee Shop",
			"Keyword rule: 'starbucks'",
		}, result.Why)
		assert.Empty(t, result.Alternatives)
	})

	t.Run("known merchant with noisy descriptor", func(t *testing.T) {
		result, err := engine.Classify(ctx, model.ClassificationRequest{
			ID:             "t3",
			MerchantID:     "m_uber",
			RawDescription: "UBER*TRIP 987654",
			MCC:            "4121",
		})
		require.NoError(t, err)

		assert.Equal(t, "Transport > Rideshare", result.Category)
		assert.InDelta(t, 1.0, result.Confidence, 1e-9)
		assert.Equal(t, []string{
			"Matched alias 'UBER' → Uber",
			"Matched alias 'UBER TRIP' → Uber",
			"Semantic similarity 1.00 with 'Uber'",
			"MCC 4121 aligns with Transport > Rideshare",
			"Keyword rule: 'uber'",
		}, result.Why)
		assert.Empty(t, result.Alternatives)
	})

	t.Run("unknown merchant without evidence", func(t *testing.T) {
		result, err := engine.Classify(ctx, model.ClassificationRequest{
			ID:             "t99",
			MerchantID:     "m_unknown",
			RawDescription: "Random Store XYZ",
		})
		require.NoError(t, err)

		assert.Equal(t, model.Uncategorized, result.Category)
		assert.InDelta(t, 0.5, result.Confidence, 1e-9)
		assert.Equal(t, []string{"No strong signals"}, result.Why)
		assert.NotNil(t, result.Alternatives)
		assert.Empty(t, result.Alternatives)
	})
}

func TestEngine_Classify_AlternativesAcrossCategories(t *testing.T) {
	engine := New(nil, nil, nil)

	result, err := engine.Classify(context.Background(), model.ClassificationRequest{
		ID:             "t1",
		RawDescription: "STARBUCKS UBER",
		MCC:            "4121",
	})
	require.NoError(t, err)

	assert.Equal(t, "Transport > Rideshare", result.Category)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
	assert.Equal(t, []model.Alternative{{Category: "Food & Drink > Coffee Shop", Confidence: 0.14}}, result.Alternatives)
}

func TestEngine_Classify_MerchantWithoutDefaultCategory(t *testing.T) {
	store := newMemStore().addMerchant(&model.Merchant{
		ID:          "m_mystery",
		DisplayName: "Mystery Shop",
		Aliases:     []string{"MYSTERY"},
	})
	engine := New(nil, store, nil)

	result, err := engine.Classify(context.Background(), model.ClassificationRequest{
		ID:             "t1",
		MerchantID:     "m_mystery",
		RawDescription: "MYSTERY SHOP 42",
	})
	require.NoError(t, err)

	assert.Equal(t, model.Uncategorized, result.Category)
	assert.InDelta(t, 0.8, result.Confidence, 1e-9)
	assert.Equal(t, []string{
		"Matched alias 'MYSTERY' → Mystery Shop",
		"Semantic similarity 1.00 with 'Mystery Shop'",
	}, result.Why)
}

func TestEngine_Classify_Deterministic(t *testing.T) {
	store := newMemStore().addMerchant(uberMerchant()).addMerchant(amazonMerchant())
	engine := New(nil, store, store)

	requests := []model.ClassificationRequest{
		{ID: "a", MerchantID: "m_amazon", RawDescription: "AMAZON MKTP US*2K3", MCC: "5942"},
		{ID: "b", MerchantID: "m_uber", RawDescription: "UBER EATS STARBUCKS", MCC: "5811"},
		{ID: "c", RawDescription: "ZELLE TRANSFER TO JOHN"},
	}

	for _, req := range requests {
		first, err := engine.Classify(context.Background(), req)
		require.NoError(t, err)
		for range 5 {
			again, err := engine.Classify(context.Background(), req)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	}
}

func TestEngine_Classify_ConfidenceBounded(t *testing.T) {
	store := newMemStore().addMerchant(uberMerchant()).addMerchant(amazonMerchant())
	engine := New(nil, store, nil)

	descriptions := []string{
		"UBER UBER TRIP UBER*TRIP LYFT",
		"AMAZON AMZN PRIME AMAZON",
		"INTEREST CHARGE OVERDRAFT BANK FEE MONTHLY FEE",
		"",
	}
	for _, merchantID := range []string{"", "m_uber", "m_amazon"} {
		for _, desc := range descriptions {
			result, err := engine.Classify(context.Background(), model.ClassificationRequest{
				ID:             "t1",
				MerchantID:     merchantID,
				RawDescription: desc,
				MCC:            "4121",
			})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, result.Confidence, 0.0)
			assert.LessOrEqual(t, result.Confidence, 1.0)
			for _, alt := range result.Alternatives {
				assert.LessOrEqual(t, alt.Confidence, 1.0)
			}
		}
	}
}

func TestEngine_Classify_Validation(t *testing.T) {
	engine := New(nil, nil, nil)

	tests := []struct {
		name    string
		wantMsg string
		req     model.ClassificationRequest
	}{
		{name: "missing id", req: model.ClassificationRequest{RawDescription: "UBER"}, wantMsg: "invalid request: transaction id is required"},
		{name: "blank id", req: model.ClassificationRequest{ID: "   "}, wantMsg: "invalid request: transaction id is required"},
		{name: "bad mcc", req: model.ClassificationRequest{ID: "t1", MCC: "58A1"}, wantMsg: `invalid request: mcc must be 4 digits, got "58A1"`},
		{name: "bad currency", req: model.ClassificationRequest{ID: "t1", Currency: "US"}, wantMsg: `invalid request: currency must be a 3-letter code, got "US"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Classify(context.Background(), tt.req)
			assert.Nil(t, result)
			require.ErrorIs(t, err, ErrValidation)
			assert.True(t, IsValidation(err))
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
}

func TestEngine_Classify_LookupFault(t *testing.T) {
	store := newMemStore()
	store.failMerchants["m_broken"] = true
	engine := New(nil, store, nil)

	result, err := engine.Classify(context.Background(), model.ClassificationRequest{
		ID:             "t1",
		MerchantID:     "m_broken",
		RawDescription: "UBER",
	})
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrLookup)
	assert.EqualError(t, err, "classification failed")

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "t1", fault.TransactionID)
	assert.Equal(t, StageMerchant, fault.Stage)
	assert.ErrorIs(t, fault.Cause(), errStoreDown)
}

func TestEngine_Classify_BackfillPanicBecomesLookupFault(t *testing.T) {
	store := newMemStore()
	store.panicStored = true
	engine := New(nil, store, store)

	var (
		result *model.ClassificationResult
		err    error
	)
	require.NotPanics(t, func() {
		result, err = engine.Classify(context.Background(), model.ClassificationRequest{ID: "t1"})
	})
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrLookup)
	assert.EqualError(t, err, "classification failed")

	var fault *FaultError
	require.ErrorAs(t, err, &fault)
	assert.Equal(t, "t1", fault.TransactionID)
	assert.Equal(t, StageBackfill, fault.Stage)
	assert.Equal(t, 1, store.singleCalls)
}

func TestEngine_Classify_PanicBecomesComputationFault(t *testing.T) {
	store := newMemStore()
	store.panicOn["m_corrupt"] = true
	engine := New(nil, store, nil)

	result, err := engine.Classify(context.Background(), model.ClassificationRequest{
		ID:         "t1",
		MerchantID: "m_corrupt",
	})
	assert.Nil(t, result)
	require.ErrorIs(t, err, ErrComputation)
	assert.EqualError(t, err, "classification failed")
}

func TestEngine_Classify_Backfill(t *testing.T) {
	store := newMemStore().addTransaction(&model.Transaction{
		ID:             "t2",
		MerchantID:     "m_starbucks",
		RawDescription: "STARBUCKS STORE #123",
		MCC:            "5811",
		Amount:         decimal.RequireFromString("5.75"),
	})
	engine := New(nil, store, store)

	result, err := engine.Classify(context.Background(), model.ClassificationRequest{ID: "t2"})
	require.NoError(t, err)
	assert.Equal(t, "Food & Drink > Coffee Shop", result.Category)
	assert.InDelta(t, 0.3, result.Confidence, 1e-9)
	assert.Equal(t, 1, store.singleCalls)
}

func TestEngine_Classify_MissingStoredTransaction(t *testing.T) {
	store := newMemStore()
	engine := New(nil, store, store)

	result, err := engine.Classify(context.Background(), model.ClassificationRequest{ID: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, model.Uncategorized, result.Category)
	assert.InDelta(t, 0.5, result.Confidence, 1e-9)
}

func TestEngine_Classify_Strict(t *testing.T) {
	posted := time.Date(2025, 8, 1, 9, 30, 0, 0, time.UTC)
	store := newMemStore().addTransaction(&model.Transaction{
		ID:             "t2",
		RawDescription: "STARBUCKS STORE #123",
		MCC:            "5811",
		Currency:       "USD",
		PostedAt:       posted,
		Amount:         decimal.RequireFromString("5.75"),
	})
	engine := NewWithConfig(nil, store, store, Config{Strict: true})
	ctx := context.Background()

	t.Run("matching fields pass", func(t *testing.T) {
		result, err := engine.Classify(ctx, model.ClassificationRequest{
			ID:       "t2",
			MCC:      "5811",
			PostedAt: &posted,
			Amount:   decimal.NewNullDecimal(decimal.RequireFromString("5.750")),
		})
		require.NoError(t, err)
		assert.Equal(t, "Food & Drink > Coffee Shop", result.Category)
	})

	t.Run("mismatching fields are rejected", func(t *testing.T) {
		_, err := engine.Classify(ctx, model.ClassificationRequest{ID: "t2", MCC: "5812", Currency: "EUR"})
		require.ErrorIs(t, err, ErrValidation)
		assert.Contains(t, err.Error(), "attribute mismatch for currency: request=EUR, db=USD")
		assert.Contains(t, err.Error(), "attribute mismatch for mcc: request=5812, db=5811")
	})

	t.Run("unknown transaction is rejected", func(t *testing.T) {
		_, err := engine.Classify(ctx, model.ClassificationRequest{ID: "ghost"})
		require.ErrorIs(t, err, ErrValidation)
		assert.EqualError(t, err, "invalid request: transaction not found: ghost")
	})
}

func TestEngine_Classify_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(nil, nil, nil).Classify(ctx, model.ClassificationRequest{ID: "t1"})
	assert.ErrorIs(t, err, context.Canceled)
}
