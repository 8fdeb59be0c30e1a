package grading

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ValidateProgressBatch aggregates many learners' progress concurrently, at
// most Workers at a time. Results are keyed like batch. A cancelled ctx stops
// scheduling and returns its error.
func (e *Engine) ValidateProgressBatch(ctx context.Context, batch map[string]Progress) (map[string]ProgressResult, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)

	var mu sync.Mutex
	out := make(map[string]ProgressResult, len(batch))
	for id, p := range batch {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r := e.ValidateProgress(p)
			mu.Lock()
			out[id] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
