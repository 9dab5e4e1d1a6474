package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a stored financial transaction. Classification requests
// with missing fields are completed from the stored copy.
type Transaction struct {
	PostedAt              time.Time
	CreatedAt             time.Time
	Geo                   map[string]any
	ID                    string
	UserID                string
	MerchantID            string
	Currency              string
	RawDescription        string // Description as received from the bank
	NormalizedDescription string
	MCC                   string
	Channel               string // e.g. pos, ecom, atm
	AccountID             string
	Amount                decimal.Decimal
}

// TransactionFromRequest builds a transaction from the fields a request
// carries. Absent fields stay zero; NormalizedDescription is left for the
// caller.
func TransactionFromRequest(req ClassificationRequest) Transaction {
	txn := Transaction{
		ID:             req.ID,
		UserID:         req.UserID,
		MerchantID:     req.MerchantID,
		Currency:       req.Currency,
		RawDescription: req.RawDescription,
		MCC:            req.MCC,
		Channel:        req.Channel,
		AccountID:      req.AccountID,
		Geo:            req.Geo,
	}
	if req.PostedAt != nil {
		txn.PostedAt = *req.PostedAt
	}
	if req.Amount.Valid {
		txn.Amount = req.Amount.Decimal
	}
	return txn
}
