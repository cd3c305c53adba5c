package usecase

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"lifeloop/model"

	"golang.org/x/sync/errgroup"
)

// Summary reports one batch run to the trigger caller.
type Summary struct {
	Success        bool     `json:"success"`
	Job            string   `json:"job"`
	ItemsProcessed int      `json:"items_processed"`
	ItemsChanged   int      `json:"items_changed"`
	ItemsFailed    int      `json:"items_failed"`
	Errors         []string `json:"errors"`
}

// BatchOptions bounds a batch: at most Workers units run at once and each
// unit gets ItemTimeout before it is abandoned.
type BatchOptions struct {
	Workers     int
	ItemTimeout time.Duration
}

func (o BatchOptions) workers() int {
	if o.Workers < 1 {
		return 1
	}
	return o.Workers
}

// runBatch applies fn to every id. A failing unit is recorded and the rest
// keep going. The returned error is a PartialBatchFailure when any unit
// failed; the summary is complete either way.
func runBatch(ctx context.Context, job string, ids []string, opts BatchOptions, fn func(ctx context.Context, id string) (bool, error)) (*Summary, error) {
	summary := &Summary{Job: job, Errors: []string{}}
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(opts.workers())

	for _, id := range ids {
		id := id
		if ctx.Err() != nil {
			mu.Lock()
			summary.ItemsProcessed++
			summary.ItemsFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", id, ctx.Err()))
			mu.Unlock()
			continue
		}
		g.Go(func() error {
			unitCtx := ctx
			if opts.ItemTimeout > 0 {
				var cancel context.CancelFunc
				unitCtx, cancel = context.WithTimeout(ctx, opts.ItemTimeout)
				defer cancel()
			}
			changed, err := fn(unitCtx, id)

			mu.Lock()
			defer mu.Unlock()
			summary.ItemsProcessed++
			if err != nil {
				log.Printf("%s: %s failed: %v", job, id, err)
				summary.ItemsFailed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", id, err))
				return nil
			}
			if changed {
				summary.ItemsChanged++
			}
			return nil
		})
	}
	g.Wait()

	summary.Success = summary.ItemsFailed == 0
	log.Printf("%s finished: processed=%d changed=%d failed=%d",
		job, summary.ItemsProcessed, summary.ItemsChanged, summary.ItemsFailed)

	if !summary.Success {
		return summary, model.NewError(model.KindPartialBatchFailure, "", "",
			"%s: %d of %d items failed", job, summary.ItemsFailed, summary.ItemsProcessed)
	}
	return summary, nil
}
