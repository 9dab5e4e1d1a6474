// Package model defines the core domain models used throughout the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Uncategorized is the category used when nothing better is known.
const Uncategorized = "Uncategorized"

// ClassificationRequest asks for a category for one transaction. Every field
// except ID is optional; empty strings, nil maps and invalid amounts are
// treated as absent.
type ClassificationRequest struct {
	PostedAt       *time.Time          `json:"posted_at,omitempty"`
	Geo            map[string]any      `json:"geo,omitempty"`
	ID             string              `json:"id"`
	UserID         string              `json:"user_id,omitempty"`
	MerchantID     string              `json:"merchant_id,omitempty"`
	Currency       string              `json:"currency,omitempty"`
	RawDescription string              `json:"raw_description,omitempty"`
	MCC            string              `json:"mcc,omitempty"`
	Channel        string              `json:"channel,omitempty"`
	AccountID      string              `json:"account_id,omitempty"`
	Amount         decimal.NullDecimal `json:"amount"`
}

// RequestFromTransaction builds a fully populated request from a stored transaction.
func RequestFromTransaction(txn Transaction) ClassificationRequest {
	req := ClassificationRequest{
		ID:             txn.ID,
		UserID:         txn.UserID,
		MerchantID:     txn.MerchantID,
		Currency:       txn.Currency,
		RawDescription: txn.RawDescription,
		MCC:            txn.MCC,
		Channel:        txn.Channel,
		AccountID:      txn.AccountID,
		Geo:            txn.Geo,
		Amount:         decimal.NewNullDecimal(txn.Amount),
	}
	if !txn.PostedAt.IsZero() {
		posted := txn.PostedAt
		req.PostedAt = &posted
	}
	return req
}

// Alternative is a non-winning category together with its confidence.
type Alternative struct {
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}

// ClassificationResult is the engine's answer for one transaction.
type ClassificationResult struct {
	TransactionID string        `json:"transaction_id"`
	Category      string        `json:"category"`
	Why           []string      `json:"why"`
	Alternatives  []Alternative `json:"alternatives"`
	Confidence    float64       `json:"confidence"`
}

// BulkItem reports the outcome of one request in a bulk call. Exactly one of
// Result and Error is set.
type BulkItem struct {
	Result        *ClassificationResult `json:"result,omitempty"`
	TransactionID string                `json:"transaction_id"`
	Error         string                `json:"error,omitempty"`
	Index         int                   `json:"index"`
}

// Failed reports whether the item carries an error instead of a result.
func (b BulkItem) Failed() bool {
	return b.Error != ""
}
