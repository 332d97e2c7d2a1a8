package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/chtzvt/certtab/internal/etl"
	"github.com/chtzvt/certtab/internal/logger"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func combineCmd() *cobra.Command {
	var sinkOptions, targetOptions string
	cmd := &cobra.Command{
		Use:   "combine <table>... <output>",
		Short: "Combine previously extracted main tables into one",
		Long: `Reads each main table together with its -single-valued side table, restores
the constant columns, stacks the rows and compacts the result again. <output>
is the directory and base name of the combined tables, e.g. out/all.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Named("combine")

			if err := applyOutputFlags(cmd, sinkOptions, targetOptions); err != nil {
				return err
			}
			inputs, out := args[:len(args)-1], args[len(args)-1]
			dir, base := filepath.Dir(out), filepath.Base(out)

			spec := cfg.JobSpec(inputs, dir)
			store, err := secretsFor(spec)
			if err != nil {
				return err
			}
			p, err := etl.NewPipeline(ctx, spec, store, log)
			if err != nil {
				return err
			}
			defer p.Close()

			m := &etl.Manifest{
				RunID:     uuid.NewString(),
				BaseName:  base,
				Inputs:    inputs,
				StartedAt: time.Now().UTC(),
			}

			canonical := p.Extractor.Columns()
			tables := make([]*table.Table, 0, len(inputs))
			for _, in := range inputs {
				t, err := etl.ReadMainTable(in, canonical)
				if err != nil {
					return err
				}
				log.Debug().Str("table", in).Int("rows", t.Len()).Msg("read table")
				m.Entries += t.Len()
				tables = append(tables, t)
			}

			main, consts, err := etl.Combine(tables, canonical)
			if err != nil {
				return fmt.Errorf("combine: %w", err)
			}
			res := &etl.BatchResult{Main: main, Constants: consts, Columns: canonical, Entries: m.Entries}
			objs, err := p.WriteResult(ctx, base, res)
			if err != nil {
				return err
			}

			m.Objects = objs
			m.Rows = main.Len()
			m.Columns = len(main.Columns)
			m.ConstantColumns = len(consts.Columns)
			if p.Target != nil {
				m.Target = p.Target.Name()
			}
			m.FinishedAt = time.Now().UTC()
			m.Duration = m.FinishedAt.Sub(m.StartedAt).String()
			m.Metrics = p.Metrics.Snapshot()
			name, err := p.WriteManifest(ctx, base, m)
			if err != nil {
				return err
			}
			m.Objects = append(m.Objects, name)

			log.Info().Int("tables", len(inputs)).Int("rows", m.Rows).Msg("combined")
			outResult([]*etl.Manifest{m}, printManifests)
			return nil
		},
	}
	addOutputFlags(cmd, &sinkOptions, &targetOptions)
	return cmd
}
