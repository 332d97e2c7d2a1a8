package etl

import (
	"context"
	"fmt"
	"runtime"

	"github.com/chtzvt/certtab/internal/etl_core"
	"github.com/chtzvt/certtab/internal/extractor"
	"github.com/chtzvt/certtab/internal/job"
	"github.com/chtzvt/certtab/internal/logger"
	"github.com/chtzvt/certtab/internal/output"
	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/chtzvt/certtab/internal/sink"
	"github.com/chtzvt/certtab/internal/transformer"
)

// Pipeline orchestrates the ETL process for batches of export entries, with
// chunking support on the main table.
type Pipeline struct {
	Extractor   extractor.Extractor
	Transformer transformer.Transformer
	Sink        sink.Sink
	// Target is optional; when set the main table is also loaded into it.
	Target        output.Target
	Ctx           *etl_core.Context
	Workers       int
	MaxChunkBytes int // 0 means unlimited
	MaxChunkRecs  int // 0 means unlimited
	Metrics       *Metrics
}

func NewPipeline(ctx context.Context, spec *job.JobSpec, secrets *secrets.Store, log *logger.Logger) (*Pipeline, error) {
	ext, err := extractor.Configure(spec.Options.Extract.Extractor, spec.Options.Extract.ExtractorOptions)
	if err != nil {
		return nil, fmt.Errorf("extractor: %w", err)
	}
	tr, err := transformer.ForName(spec.Options.Output.Transformer)
	if err != nil {
		return nil, fmt.Errorf("transformer: %w", err)
	}
	sinkFactory, ok := sink.ForName(spec.Options.Output.Sink)
	if !ok {
		return nil, fmt.Errorf("sink: not found: %s", spec.Options.Output.Sink)
	}
	sinkInst, err := sinkFactory(spec.Options.Output.SinkOptions, secrets)
	if err != nil {
		return nil, fmt.Errorf("sink init: %w", err)
	}

	var tgt output.Target
	if spec.Options.Output.Target != "" {
		tgt, err = output.NewTargetFromConfig(ctx, output.TargetConfig{
			Name:    spec.Options.Output.Target,
			Options: spec.Options.Output.TargetOptions,
		}, secrets)
		if err != nil {
			return nil, fmt.Errorf("target: %w", err)
		}
	}

	if log == nil {
		log = logger.Nop()
	}
	workers := spec.Options.Extract.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Pipeline{
		Extractor:     ext,
		Transformer:   tr,
		Sink:          sinkInst,
		Target:        tgt,
		Ctx:           &etl_core.Context{Spec: spec, Logger: log},
		Workers:       workers,
		MaxChunkBytes: spec.Options.Output.ChunkBytes,
		MaxChunkRecs:  spec.Options.Output.ChunkRecords,
		Metrics:       &Metrics{},
	}, nil
}

// Close releases the target, if any.
func (p *Pipeline) Close() error {
	if p.Target == nil {
		return nil
	}
	return p.Target.Close()
}

func (p *Pipeline) log() *logger.Logger {
	return p.Ctx.Log()
}
