package scoring

import (
	"context"
	"sync"

	"github.com/davidleathers/fraud-scoring-backend/internal/domain/errors"
	"github.com/davidleathers/fraud-scoring-backend/internal/domain/transaction"
)

const defaultBatchWorkers = 8

// BatchInput is one item of a batch request: either a full transaction
// for the gateway pipeline, or a payment ID with pre-computed features.
type BatchInput struct {
	Transaction *transaction.Transaction
	PaymentID   string
	Features    map[string]float64
}

// BatchItemResult pairs each input with its outcome. Exactly one of
// Result and Err is set.
type BatchItemResult struct {
	Result *ScoreResult
	Err    error
}

// ScoreBatch scores a batch concurrently with a bounded worker pool.
// Results come back in input order, and one item's failure never
// affects its neighbors.
func (s *Service) ScoreBatch(ctx context.Context, items []BatchInput) []BatchItemResult {
	results := make([]BatchItemResult, len(items))
	if len(items) == 0 {
		return results
	}

	workers := s.batchWorkers
	if workers > len(items) {
		workers = len(items)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup

	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indexes {
				results[i] = s.scoreItem(ctx, items[i])
			}
		}()
	}

	for i := range items {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	if s.metrics != nil {
		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		s.metrics.RecordBatch(ctx, len(items), failed)
	}

	return results
}

func (s *Service) scoreItem(ctx context.Context, item BatchInput) BatchItemResult {
	if ctx.Err() != nil {
		return BatchItemResult{Err: errors.NewInternalError("batch canceled").WithCause(ctx.Err())}
	}

	var (
		result *ScoreResult
		err    error
	)
	switch {
	case item.Transaction != nil:
		result, err = s.Score(ctx, item.Transaction)
	default:
		result, err = s.ScoreFeatures(ctx, item.PaymentID, item.Features)
	}
	if err != nil {
		return BatchItemResult{Err: err}
	}
	return BatchItemResult{Result: result}
}
