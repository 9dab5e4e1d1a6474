package classify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"

	"github.com/Veraticus/spicecat/internal/model"
)

// bulkPlan is the read-only state shared by every worker of one bulk call.
type bulkPlan struct {
	stored    map[string]*model.Transaction
	merchants map[string]*model.Merchant
	invalid   map[int]error
}

func (p *bulkPlan) lookupMerchant(_ context.Context, id string) (*model.Merchant, error) {
	return p.merchants[id], nil
}

// ClassifyBulk classifies every request and returns one item per request in
// submission order. A fault in one item is reported in that item and does
// not affect the others.
func (e *Engine) ClassifyBulk(ctx context.Context, reqs []model.ClassificationRequest) ([]model.BulkItem, error) {
	items := make([]model.BulkItem, len(reqs))
	err := e.StreamBulk(ctx, reqs, func(item model.BulkItem) error {
		items[item.Index] = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// StreamBulk classifies every request on a bounded worker pool and passes
// each item to emit as soon as it completes, so items arrive in completion
// order. emit is never called concurrently. The call fails as a whole only
// when the batch size is out of range, the stored transaction or merchant
// prefetch fails, emit returns an error, or ctx is canceled.
func (e *Engine) StreamBulk(ctx context.Context, reqs []model.ClassificationRequest, emit func(model.BulkItem) error) error {
	if err := validateBatchSize(len(reqs), e.config.MaxBulkSize); err != nil {
		return logFault(err.(*FaultError))
	}

	batchID := uuid.NewString()
	start := time.Now()
	slog.Info("Starting bulk classification",
		"batch_id", batchID,
		"count", len(reqs),
		"workers", e.config.Workers)

	plan, err := e.prepare(ctx, reqs)
	if err != nil {
		return err
	}

	workCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan model.BulkItem)
	go func() {
		defer close(results)
		p := pool.New().WithMaxGoroutines(e.config.Workers)
		for i := range reqs {
			if workCtx.Err() != nil {
				break
			}
			p.Go(func() {
				item := e.classifyItem(workCtx, i, reqs[i], plan)
				select {
				case results <- item:
				case <-workCtx.Done():
				}
			})
		}
		p.Wait()
	}()

	var (
		emitErr error
		done    int
		failed  int
	)
	for item := range results {
		if emitErr != nil {
			continue
		}
		done++
		if item.Failed() {
			failed++
		}
		if err := emit(item); err != nil {
			emitErr = err
			cancel()
		}
	}

	slog.Info("Bulk classification finished",
		"batch_id", batchID,
		"completed", done,
		"failed", failed,
		"duration", time.Since(start))

	if emitErr != nil {
		return emitErr
	}
	return ctx.Err()
}

// prepare validates every item and prefetches, in one batch each, the stored
// transactions and the merchants the items reference.
func (e *Engine) prepare(ctx context.Context, reqs []model.ClassificationRequest) (*bulkPlan, error) {
	plan := &bulkPlan{
		stored:    map[string]*model.Transaction{},
		merchants: map[string]*model.Merchant{},
		invalid:   map[int]error{},
	}

	var ids []string
	seen := make(map[string]bool, len(reqs))
	for i, req := range reqs {
		if err := ValidateRequest(req); err != nil {
			plan.invalid[i] = err
			continue
		}
		if !seen[req.ID] {
			seen[req.ID] = true
			ids = append(ids, req.ID)
		}
	}

	if e.transactions != nil && len(ids) > 0 {
		var (
			stored map[string]*model.Transaction
			err    error
		)
		if recovered := panics.Try(func() { stored, err = e.transactions.GetTransactionsByIDs(ctx, ids) }); recovered != nil {
			err = recovered.AsError()
		}
		if err != nil {
			return nil, logFault(lookupFault("", StagePrefetch, err))
		}
		if stored != nil {
			plan.stored = stored
		}
	}

	if e.merchants == nil {
		return plan, nil
	}

	var merchantIDs []string
	wanted := map[string]bool{}
	for i, req := range reqs {
		if _, bad := plan.invalid[i]; bad {
			continue
		}
		id := req.MerchantID
		if id == "" {
			if stored := plan.stored[req.ID]; stored != nil {
				id = stored.MerchantID
			}
		}
		if id == "" || wanted[id] {
			continue
		}
		wanted[id] = true
		merchantIDs = append(merchantIDs, id)
	}
	if len(merchantIDs) == 0 {
		return plan, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		merchants map[string]*model.Merchant
		err       error
	)
	if recovered := panics.Try(func() { merchants, err = e.merchants.GetMerchantsByIDs(ctx, merchantIDs) }); recovered != nil {
		err = recovered.AsError()
	}
	if err != nil {
		return nil, logFault(lookupFault("", StagePrefetch, err))
	}
	if merchants != nil {
		plan.merchants = merchants
	}

	return plan, nil
}

func (e *Engine) classifyItem(ctx context.Context, index int, req model.ClassificationRequest, plan *bulkPlan) model.BulkItem {
	item := model.BulkItem{Index: index, TransactionID: req.ID}

	if err := plan.invalid[index]; err != nil {
		var fault *FaultError
		if errors.As(err, &fault) {
			logFault(fault)
		}
		item.Error = err.Error()
		return item
	}

	result, err := e.protect(req.ID, func() (*model.ClassificationResult, error) {
		return e.classifyWith(ctx, req, plan.stored[req.ID], plan.lookupMerchant)
	})
	if err != nil {
		item.Error = err.Error()
		return item
	}
	item.Result = result
	return item
}
