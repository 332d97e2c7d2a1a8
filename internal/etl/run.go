package etl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/google/uuid"
)

const (
	SingleValuedSuffix = "-single-valued"
	InvalidSuffix      = "-invalid"
	ManifestSuffix     = "-manifest.json"
)

// Manifest records what one run read and wrote.
type Manifest struct {
	RunID           string          `json:"run_id"`
	BaseName        string          `json:"base_name"`
	Inputs          []string        `json:"inputs"`
	Entries         int             `json:"entries"`
	Rows            int             `json:"rows"`
	Invalid         int             `json:"invalid"`
	Failed          int             `json:"failed"`
	Columns         int             `json:"columns"`
	ConstantColumns int             `json:"constant_columns"`
	Objects         []string        `json:"objects"`
	Target          string          `json:"target,omitempty"`
	StartedAt       time.Time       `json:"started_at"`
	FinishedAt      time.Time       `json:"finished_at"`
	Duration        string          `json:"duration"`
	Metrics         MetricsSnapshot `json:"metrics"`
}

// ReadInputs reads every entry of the given export files, in order.
func (p *Pipeline) ReadInputs(ctx context.Context, inputs []string) ([]*ctexport.Entry, error) {
	comp := p.Ctx.Spec.Options.Input.Compression
	var entries []*ctexport.Entry
	for _, path := range inputs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := ctexport.Open(path, comp)
		if err != nil {
			return nil, err
		}
		got, err := f.ReadAll()
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		p.log().Debug().Str("input", path).Int("entries", len(got)).Msg("read input")
		entries = append(entries, got...)
	}
	return entries, nil
}

// Run processes inputs as one batch and writes the main, single-valued and
// invalid tables plus a manifest under base. When every entry is invalid the
// invalid table and manifest are still written and the returned error wraps
// table.ErrEmptyBatch.
func (p *Pipeline) Run(ctx context.Context, base string, inputs []string) (*Manifest, error) {
	m := &Manifest{
		RunID:     uuid.NewString(),
		BaseName:  base,
		Inputs:    inputs,
		StartedAt: time.Now().UTC(),
	}
	log := p.log().With().Str("run_id", m.RunID).Str("base", base).Logger()
	log.Info().Strs("inputs", inputs).Msg("run started")

	entries, err := p.ReadInputs(ctx, inputs)
	if err != nil {
		return nil, err
	}
	m.Entries = len(entries)

	res, batchErr := p.ProcessBatch(ctx, entries)
	if batchErr != nil && !errors.Is(batchErr, table.ErrEmptyBatch) {
		return nil, batchErr
	}
	if res == nil {
		return nil, batchErr
	}
	m.Failed = res.Failed
	m.Invalid = res.Invalid.Len()

	if batchErr == nil {
		objs, err := p.WriteResult(ctx, base, res)
		if err != nil {
			return nil, err
		}
		m.Objects = objs
		m.Rows = res.Main.Len()
		m.Columns = len(res.Main.Columns)
		m.ConstantColumns = len(res.Constants.Columns)
		if p.Target != nil {
			m.Target = p.Target.Name()
		}
	} else {
		objs, err := p.WriteTable(ctx, base+InvalidSuffix, res.Invalid, false)
		if err != nil {
			return nil, err
		}
		m.Objects = objs
	}

	m.FinishedAt = time.Now().UTC()
	m.Duration = m.FinishedAt.Sub(m.StartedAt).String()
	m.Metrics = p.Metrics.Snapshot()
	name, err := p.WriteManifest(ctx, base, m)
	if err != nil {
		return nil, err
	}
	m.Objects = append(m.Objects, name)

	log.Info().Str("metrics", m.Metrics.String()).Msg("run finished")
	if batchErr != nil {
		return m, fmt.Errorf("%s: %w", base, batchErr)
	}
	return m, nil
}

// WriteResult writes the three tables of a batch and, when a target is
// configured, loads the recombined main table into it.
func (p *Pipeline) WriteResult(ctx context.Context, base string, res *BatchResult) ([]string, error) {
	var objects []string
	write := func(name string, t *table.Table, chunked bool) error {
		objs, err := p.WriteTable(ctx, name, t, chunked)
		objects = append(objects, objs...)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}

	if err := write(base, res.Main, true); err != nil {
		return objects, err
	}
	if err := write(base+SingleValuedSuffix, res.Constants.Table(), false); err != nil {
		return objects, err
	}
	if res.Invalid != nil {
		if err := write(base+InvalidSuffix, res.Invalid, false); err != nil {
			return objects, err
		}
	}

	if p.Target != nil {
		full := table.Broadcast(res.Main, res.Constants, res.Columns)
		if err := p.Target.Load(ctx, full); err != nil {
			return objects, fmt.Errorf("target %s: %w", p.Target.Name(), err)
		}
		p.log().Info().Str("target", p.Target.Name()).Int("rows", full.Len()).Msg("loaded target")
	}
	return objects, nil
}

// WriteManifest writes m as indented JSON next to the tables.
func (p *Pipeline) WriteManifest(ctx context.Context, base string, m *Manifest) (string, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	name := base + ManifestSuffix
	w, err := p.Sink.Open(ctx, name)
	if err != nil {
		return "", fmt.Errorf("open sink: %w", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		w.Close()
		return "", fmt.Errorf("manifest write: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close sink: %w", err)
	}
	p.Metrics.IncObjects()
	return name, nil
}
