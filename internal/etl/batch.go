package etl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/extractor"
	"github.com/chtzvt/certtab/internal/table"
)

// BatchResult holds the three tables a batch reduces to.
type BatchResult struct {
	// Main holds the valid rows, restricted to the columns that vary.
	Main *table.Table
	// Constants holds the columns with one value across Main.
	Constants *table.Constants
	// Invalid holds the raw input of rows that mapped to nothing.
	Invalid *table.Table
	// Columns is the canonical order Main and Constants recombine into.
	Columns []string

	Entries int
	Failed  int
}

// ProcessBatch maps every entry to a record on the worker pool, unifies the
// records into one table, moves the all-null rows to the invalid table and
// splits the rest into varying and constant columns.
//
// A batch with no valid rows returns table.ErrEmptyBatch together with a
// result whose Invalid table is populated.
func (p *Pipeline) ProcessBatch(ctx context.Context, entries []*ctexport.Entry) (*BatchResult, error) {
	log := p.log()
	log.Info().Int("entries", len(entries)).Int("workers", p.Workers).Msg("batch started")

	records, failed, err := p.mapEntries(ctx, entries)
	if err != nil {
		return nil, err
	}

	canonical := p.Extractor.Columns()
	unified := table.Unify(records, canonical)

	raws := make([]table.RawCertificate, len(entries))
	for i, e := range entries {
		raws[i] = e.Raw()
	}
	main, invalid, err := table.Segregate(unified, raws)
	if err != nil {
		return nil, err
	}

	res := &BatchResult{
		Invalid: invalid,
		Columns: canonical,
		Entries: len(entries),
		Failed:  failed,
	}
	p.Metrics.AddInvalid(invalid.Len())

	res.Main, res.Constants, err = table.Compact(main)
	if err != nil {
		if errors.Is(err, table.ErrEmptyBatch) {
			log.Warn().Int("invalid", invalid.Len()).Msg("batch has no valid rows")
		}
		return res, err
	}
	p.Metrics.AddRows(res.Main.Len())

	log.Info().
		Int("rows", res.Main.Len()).
		Int("invalid", invalid.Len()).
		Int("columns", len(res.Main.Columns)).
		Int("constant_columns", len(res.Constants.Columns)).
		Msg("batch finished")
	return res, nil
}

// mapEntries runs the extractor over entries with at most p.Workers in
// flight. records[i] belongs to entries[i]; a failed entry leaves an empty
// record.
func (p *Pipeline) mapEntries(ctx context.Context, entries []*ctexport.Entry) ([]table.Record, int, error) {
	records := make([]table.Record, len(entries))
	errs := make([]error, len(entries))

	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	start := time.Now()
	var ctxErr error
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			break
		}
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, e *ctexport.Entry) {
			defer func() { <-sem; wg.Done() }()
			rec, err := p.Extractor.Extract(p.Ctx, e)
			if err != nil {
				errs[i] = err
				return
			}
			records[i] = rec
		}(i, e)
	}
	wg.Wait()
	p.Metrics.AddMappingTime(time.Since(start))

	if ctxErr != nil {
		return nil, 0, fmt.Errorf("batch cancelled: %w", ctxErr)
	}

	failed := 0
	log := p.log()
	for i, err := range errs {
		if err == nil {
			p.Metrics.IncMapped()
			continue
		}
		failed++
		p.Metrics.IncFailed()
		ev := log.Debug().Int("index", i).Str("id", entries[i].ID).Err(err)
		switch {
		case errors.Is(err, extractor.ErrMalformedCertificate):
			ev.Msg("malformed certificate")
		case errors.Is(err, extractor.ErrAmbiguousNameAttribute):
			ev.Msg("ambiguous name attribute")
		default:
			ev.Msg("record not mapped")
		}
	}
	return records, failed, nil
}
