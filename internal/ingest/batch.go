package ingest

import (
	"context"

	"golang.org/x/sync/errgroup"

	"salesboard/internal/engine"
	"salesboard/internal/models"
)

const (
	DefaultBatchSize  = 5000
	DefaultMaxWorkers = 8
)

type BatchOptions struct {
	BatchSize  int
	MaxWorkers int
}

func (o BatchOptions) withDefaults() BatchOptions {
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = DefaultMaxWorkers
	}
	return o
}

// NormalizeBatches normalizes rows on a bounded worker pool, one batch per
// goroutine. Output order matches input order; unusable rows are counted in
// dropped.
func NormalizeBatches(ctx context.Context, n *engine.Normalizer, rows []models.RawRecord, opts BatchOptions) (records []models.CanonicalRecord, dropped int, err error) {
	opts = opts.withDefaults()

	type slot struct {
		rec models.CanonicalRecord
		ok  bool
	}
	slots := make([]slot, len(rows))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.MaxWorkers)

	for start := 0; start < len(rows); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(rows))
		g.Go(func() error {
			for i := start; i < end; i++ {
				if i%256 == 0 {
					if err := ctx.Err(); err != nil {
						return err
					}
				}
				rec, ok := n.Normalize(rows[i])
				slots[i] = slot{rec: rec, ok: ok}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	records = make([]models.CanonicalRecord, 0, len(rows))
	for _, s := range slots {
		if s.ok {
			records = append(records, s.rec)
		} else {
			dropped++
		}
	}
	return records, dropped, nil
}
