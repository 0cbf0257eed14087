package organizer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/jimmysiah1111-glitch/loan-statement-analyzer/internal/models"
)

// ProcessBatches processes independent batches concurrently, at most workers
// at a time. Every batch builds its own Grouping; the groupings are merged in
// batch order once all batches have finished, so the outcome matches
// processing the batches one after another.
func ProcessBatches(ctx context.Context, o *Organizer, batches [][]models.Document, workers int) (*Result, error) {
	results := make([]*Result, len(batches))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, batch := range batches {
		g.Go(func() error {
			results[i] = o.Process(ctx, batch)
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(results...), nil
}

// Merge combines batch results in the given order.
func Merge(results ...*Result) *Result {
	out := newResult()
	for _, r := range results {
		if r == nil {
			continue
		}
		out.Grouping.Merge(r.Grouping)
		out.Documents = append(out.Documents, r.Documents...)
		out.Warnings = append(out.Warnings, r.Warnings...)
		out.Summary.Failed += r.Summary.Failed
		out.Summary.OCRPages += r.Summary.OCRPages
	}
	out.finish()
	return out
}
