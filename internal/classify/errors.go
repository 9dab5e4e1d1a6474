package classify

import (
	"errors"
	"log/slog"
)

// Fault kinds. A FaultError unwraps to exactly one of these.
var (
	ErrValidation  = errors.New("validation fault")
	ErrLookup      = errors.New("lookup fault")
	ErrComputation = errors.New("computation fault")
)

// Stage names the pipeline step in which a fault happened.
type Stage string

// Pipeline stages.
const (
	StageValidate  Stage = "validate"
	StagePrefetch  Stage = "prefetch"
	StageBackfill  Stage = "backfill"
	StageMerchant  Stage = "merchant_lookup"
	StageSignals   Stage = "signals"
	StageAggregate Stage = "aggregate"
)

// FaultError is returned when classification of a transaction cannot
// complete. Lookup and computation faults share one generic message; the
// underlying cause is logged but never returned to the caller.
type FaultError struct {
	Kind          error
	cause         error
	TransactionID string
	Stage         Stage
	Detail        string
}

func (e *FaultError) Error() string {
	if errors.Is(e.Kind, ErrValidation) {
		if e.Detail != "" {
			return "invalid request: " + e.Detail
		}
		return "invalid request"
	}
	return "classification failed"
}

// Unwrap returns the fault kind so callers can use errors.Is.
func (e *FaultError) Unwrap() error {
	return e.Kind
}

// Cause returns the internal error behind a lookup or computation fault.
func (e *FaultError) Cause() error {
	return e.cause
}

func validationFault(transactionID string, stage Stage, detail string) *FaultError {
	return &FaultError{Kind: ErrValidation, TransactionID: transactionID, Stage: stage, Detail: detail}
}

func lookupFault(transactionID string, stage Stage, cause error) *FaultError {
	return &FaultError{Kind: ErrLookup, TransactionID: transactionID, Stage: stage, cause: cause}
}

func computationFault(transactionID string, stage Stage, cause error) *FaultError {
	return &FaultError{Kind: ErrComputation, TransactionID: transactionID, Stage: stage, cause: cause}
}

// IsValidation reports whether err is a client-side fault.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// logFault records a fault with its context and returns it unchanged.
func logFault(f *FaultError) error {
	if errors.Is(f.Kind, ErrValidation) {
		slog.Warn("Rejected classification request",
			"transaction_id", f.TransactionID,
			"stage", f.Stage,
			"detail", f.Detail)
		return f
	}
	slog.Error("Classification failed",
		"transaction_id", f.TransactionID,
		"stage", f.Stage,
		"kind", f.Kind,
		"error", f.cause)
	return f
}
