// Package classify implements the transaction categorization engine: it turns
// a request and the merchant it references into a category, a confidence and
// the reasons behind them.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/sourcegraph/conc/panics"

	"github.com/Veraticus/spicecat/internal/model"
	"github.com/Veraticus/spicecat/internal/taxonomy"
)

// DefaultMaxBulkSize bounds the number of requests in one bulk call.
const DefaultMaxBulkSize = 1000

// MerchantLookup reads merchant records. A missing merchant is (nil, nil).
// Merchants missing from a batch read are absent from the result.
type MerchantLookup interface {
	GetMerchant(ctx context.Context, id string) (*model.Merchant, error)
	GetMerchantsByIDs(ctx context.Context, ids []string) (map[string]*model.Merchant, error)
}

// TransactionLookup reads stored transactions used to backfill requests.
// A missing transaction is (nil, nil) and is absent from the batch result.
type TransactionLookup interface {
	GetTransaction(ctx context.Context, id string) (*model.Transaction, error)
	GetTransactionsByIDs(ctx context.Context, ids []string) (map[string]*model.Transaction, error)
}

// Config holds engine settings.
type Config struct {
	Workers     int  // Bulk worker pool size
	MaxBulkSize int  // Largest accepted bulk call
	Strict      bool // Require a matching stored transaction for every request
}

// DefaultConfig returns the default engine settings.
func DefaultConfig() Config {
	return Config{
		Workers:     runtime.NumCPU(),
		MaxBulkSize: DefaultMaxBulkSize,
	}
}

// Engine classifies transactions. It holds no mutable state and is safe for
// concurrent use as long as its lookups are.
type Engine struct {
	rules        *taxonomy.RuleSet
	merchants    MerchantLookup
	transactions TransactionLookup
	config       Config
}

// New creates an engine with the default configuration. A nil rule set means
// the built-in taxonomy; nil lookups disable merchant evidence or backfill.
func New(rules *taxonomy.RuleSet, merchants MerchantLookup, transactions TransactionLookup) *Engine {
	return NewWithConfig(rules, merchants, transactions, DefaultConfig())
}

// NewWithConfig creates an engine with custom configuration.
func NewWithConfig(rules *taxonomy.RuleSet, merchants MerchantLookup, transactions TransactionLookup, config Config) *Engine {
	if rules == nil {
		rules = taxonomy.Default()
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}
	if config.MaxBulkSize <= 0 {
		config.MaxBulkSize = DefaultMaxBulkSize
	}
	return &Engine{
		rules:        rules,
		merchants:    merchants,
		transactions: transactions,
		config:       config,
	}
}

// Rules returns the rule set the engine classifies with.
func (e *Engine) Rules() *taxonomy.RuleSet {
	return e.rules
}

// MaxBulkSize returns the largest accepted bulk call.
func (e *Engine) MaxBulkSize() int {
	return e.config.MaxBulkSize
}

type merchantFunc func(ctx context.Context, id string) (*model.Merchant, error)

// Classify categorizes one transaction. Absent request fields are filled from
// the stored transaction with the same id before any signal runs.
func (e *Engine) Classify(ctx context.Context, req model.ClassificationRequest) (*model.ClassificationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := ValidateRequest(req); err != nil {
		return nil, logFault(err.(*FaultError))
	}

	return e.protect(req.ID, func() (*model.ClassificationResult, error) {
		stored, err := e.fetchStored(ctx, req)
		if err != nil {
			return nil, err
		}
		return e.classifyWith(ctx, req, stored, e.lookupMerchant)
	})
}

// fetchStored reads the stored transaction for req when backfill or strict
// mode needs it. A failing or panicking read is a lookup fault.
func (e *Engine) fetchStored(ctx context.Context, req model.ClassificationRequest) (*model.Transaction, error) {
	if e.transactions == nil || !(e.config.Strict || needsBackfill(req)) {
		return nil, nil
	}
	var (
		stored *model.Transaction
		err    error
	)
	if recovered := panics.Try(func() { stored, err = e.transactions.GetTransaction(ctx, req.ID) }); recovered != nil {
		err = recovered.AsError()
	}
	if err != nil {
		return nil, logFault(lookupFault(req.ID, StageBackfill, err))
	}
	return stored, nil
}

func (e *Engine) lookupMerchant(ctx context.Context, id string) (*model.Merchant, error) {
	if e.merchants == nil {
		return nil, nil
	}
	return e.merchants.GetMerchant(ctx, id)
}

// protect turns a panic anywhere in fn into a computation fault.
func (e *Engine) protect(transactionID string, fn func() (*model.ClassificationResult, error)) (*model.ClassificationResult, error) {
	var (
		result *model.ClassificationResult
		err    error
	)
	if recovered := panics.Try(func() { result, err = fn() }); recovered != nil {
		return nil, logFault(computationFault(transactionID, StageSignals, recovered.AsError()))
	}
	return result, err
}

// classifyWith runs the pipeline for a validated request whose stored
// transaction, if any, is already known.
func (e *Engine) classifyWith(ctx context.Context, req model.ClassificationRequest, stored *model.Transaction, merchants merchantFunc) (*model.ClassificationResult, error) {
	if e.config.Strict {
		if mismatches := strictMismatches(req, stored); len(mismatches) > 0 {
			return nil, logFault(validationFault(req.ID, StageBackfill, strings.Join(mismatches, "; ")))
		}
	}
	req = backfill(req, stored)

	slog.Debug("Classifying transaction",
		"transaction_id", req.ID,
		"merchant_id", req.MerchantID,
		"mcc", req.MCC)

	var merchant *model.Merchant
	if req.MerchantID != "" {
		m, err := merchants(ctx, req.MerchantID)
		if err != nil {
			return nil, logFault(lookupFault(req.ID, StageMerchant, err))
		}
		merchant = m
	}

	signals := Signals(req, merchant, e.rules)
	for _, s := range signals {
		slog.Debug("Adding signal",
			"transaction_id", req.ID,
			"source", s.Source,
			"category", s.Category,
			"weight", fmt.Sprintf("%.2f", s.Weight),
			"reason", s.Reason)
	}

	result := Aggregate(req.ID, signals)
	if err := result.Validate(); err != nil {
		return nil, logFault(computationFault(req.ID, StageAggregate, err))
	}

	if len(signals) == 0 {
		slog.Debug("No strong signals", "transaction_id", req.ID)
	} else {
		slog.Debug("Classified transaction",
			"transaction_id", req.ID,
			"category", result.Category,
			"confidence", result.Confidence)
	}
	return result, nil
}
