package plaid

import (
	"context"
	"time"

	"github.com/Veraticus/spicecat/internal/model"
)

// TransactionFetcher fetches transactions from a bank aggregator.
type TransactionFetcher interface {
	GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error)
	GetAccounts(ctx context.Context) ([]string, error)
}
