package seed

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/spicecat/internal/model"
)

type recordingStore struct {
	merchants    []model.Merchant
	transactions []model.Transaction
	err          error
}

func (s *recordingStore) SaveMerchants(_ context.Context, merchants []model.Merchant) error {
	s.merchants = merchants
	return s.err
}

func (s *recordingStore) SaveTransactions(_ context.Context, transactions []model.Transaction) error {
	s.transactions = transactions
	return nil
}

func TestMerchants(t *testing.T) {
	merchants := Merchants()
	require.Len(t, merchants, 9)

	ids := make(map[string]bool)
	for _, m := range merchants {
		assert.False(t, ids[m.ID], "duplicate id %s", m.ID)
		ids[m.ID] = true
		assert.NotEmpty(t, m.DisplayName)
		assert.NotEmpty(t, m.DefaultCategory)
	}
	assert.True(t, ids[UncategorizedMerchantID])
}

func TestTransactionsMerchantAssignment(t *testing.T) {
	posted := time.Date(2025, 9, 1, 6, 0, 0, 0, time.UTC)
	txns := Transactions(posted)
	require.Len(t, txns, 18)

	want := map[string]string{
		"t1":  "m_amazon",
		"t2":  "m_starbucks",
		"t3":  "m_uber",
		"t6":  "m_airbnb",
		"t4":  "m_starbucks", // 5814 is claimed by an earlier merchant
		"t5":  "m_netflix",
		"t7":  "m_cvs",
		"t8":  "m_att",
		"t9":  UncategorizedMerchantID,
		"t10": "m_amazon", // typical MCC 4899
		"t14": "m_cvs",
		"t17": "m_starbucks",
	}
	for _, txn := range txns {
		assert.Equal(t, DemoUserID, txn.UserID)
		assert.Equal(t, DemoCurrency, txn.Currency)
		assert.Equal(t, posted, txn.PostedAt)
		if expected, ok := want[txn.ID]; ok {
			assert.Equal(t, expected, txn.MerchantID, txn.ID)
		}
	}
	assert.Equal(t, "120.5", txns[0].Amount.String())
}

func TestApply(t *testing.T) {
	store := &recordingStore{}
	require.NoError(t, Apply(context.Background(), store, time.Now()))
	assert.Len(t, store.merchants, 9)
	assert.Len(t, store.transactions, 18)

	failing := &recordingStore{err: errors.New("disk full")}
	err := Apply(context.Background(), failing, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed merchants")
	assert.Nil(t, failing.transactions)
}

func TestLoadMerchants(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
		wantLen int
	}{
		{
			name: "valid catalogue",
			input: `merchants:
  - merchant_id: m_lyft
    display_name: Lyft
    aliases: [LYFT, "LYFT RIDE"]
    typical_mccs: ["4121"]
    default_category: Transport > Rideshare
  - merchant_id: m_corner
    display_name: Corner Shop
`,
			wantLen: 2,
		},
		{name: "empty", input: "", wantErr: "empty"},
		{name: "missing id", input: "merchants:\n  - display_name: X\n", wantErr: "merchant_id is required"},
		{name: "missing name", input: "merchants:\n  - merchant_id: m_x\n", wantErr: "display_name is required"},
		{
			name:    "duplicate",
			input:   "merchants:\n  - {merchant_id: m_x, display_name: X}\n  - {merchant_id: m_x, display_name: Y}\n",
			wantErr: "duplicate",
		},
		{name: "unknown field", input: "merchants:\n  - {merchant_id: m_x, display_name: X, colour: red}\n", wantErr: "failed to parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			merchants, err := LoadMerchants(strings.NewReader(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, merchants, tt.wantLen)
			assert.Equal(t, []string{"LYFT", "LYFT RIDE"}, merchants[0].Aliases)
			assert.NotNil(t, merchants[1].Aliases)
			assert.NotNil(t, merchants[1].TypicalMCCs)
		})
	}
}
