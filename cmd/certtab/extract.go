package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/chtzvt/certtab/internal/ctexport"
	"github.com/chtzvt/certtab/internal/etl"
	"github.com/chtzvt/certtab/internal/job"
	"github.com/chtzvt/certtab/internal/logger"
	"github.com/chtzvt/certtab/internal/secrets"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func extractCmd() *cobra.Command {
	var (
		jobFile       string
		base          string
		sinkOptions   string
		targetOptions string
	)
	cmd := &cobra.Command{
		Use:   "extract <input> <output>",
		Short: "Extract certificate tables from CT export files",
		Long: `Reads every export file under <input> (a file or a directory) and writes,
per file, the main table, its -single-valued side table, the -invalid table
and a -manifest.json run manifest to <output>.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := logger.Named("extract")

			if err := applyOutputFlags(cmd, sinkOptions, targetOptions); err != nil {
				return err
			}

			inputs, err := ctexport.DiscoverInputs(args[0])
			if err != nil {
				return err
			}
			if len(inputs) == 0 {
				return fmt.Errorf("no export files found in %s", args[0])
			}

			spec := cfg.JobSpec(inputs, args[1])
			if jobFile != "" {
				spec, err = job.LoadFromFile(jobFile)
				if err != nil {
					return fmt.Errorf("load job %s: %w", jobFile, err)
				}
				if len(spec.Inputs) > 0 {
					inputs = spec.Inputs
				}
			}

			store, err := secretsFor(spec)
			if err != nil {
				return err
			}
			p, err := etl.NewPipeline(ctx, spec, store, log)
			if err != nil {
				return err
			}
			defer p.Close()

			var manifests []*etl.Manifest
			for _, in := range inputs {
				b := baseNameFor(in)
				if base != "" && len(inputs) == 1 {
					b = base
				}
				p.Metrics = &etl.Metrics{}
				m, err := p.Run(ctx, b, []string{in})
				if err != nil {
					return err
				}
				manifests = append(manifests, m)
			}
			outResult(manifests, printManifests)
			return nil
		},
	}

	cmd.Flags().StringVar(&jobFile, "job", "", "JSON job spec (overrides config)")
	cmd.Flags().StringVar(&base, "base", "", "Base name for the tables (single input only)")
	cmd.Flags().IntVar(&cfg0.Extract.Workers, "workers", 0, "Concurrent certificate mappers (0 = NumCPU)")
	cmd.Flags().StringVar(&cfg0.Extract.Extensions, "extensions", "", `Extension filter, e.g. "*,!precert_poison"`)
	addOutputFlags(cmd, &sinkOptions, &targetOptions)
	cmd.Flags().IntVar(&cfg0.Output.ChunkRecords, "chunk-records", 0, "Rotate the main table every N rows")
	cmd.Flags().IntVar(&cfg0.Output.ChunkBytes, "chunk-bytes", 0, "Rotate the main table every N bytes")
	return cmd
}

// cfg0 collects flag values; applyOutputFlags copies the ones that were set
// over the loaded config.
var cfg0 CerttabConfig

func addOutputFlags(cmd *cobra.Command, sinkOptions, targetOptions *string) {
	cmd.Flags().StringVar(&cfg0.Output.Transformer, "transformer", "", "Table format (csv, jsonl, cbor)")
	cmd.Flags().StringVar(&cfg0.Output.Sink, "sink", "", "Sink (disk, s3, azureblob, http, stdout, null)")
	cmd.Flags().StringVar(sinkOptions, "sink-options", "", "Sink options as JSON")
	cmd.Flags().StringVar(&cfg0.Output.Compression, "compression", "", "Output compression (none, gzip, bzip2, zstd)")
	cmd.Flags().StringVar(&cfg0.Output.Target, "target", "", "Also load the main table into a target (postgres)")
	cmd.Flags().StringVar(targetOptions, "target-options", "", "Target options as JSON")
}

func applyOutputFlags(cmd *cobra.Command, sinkOptions, targetOptions string) error {
	f := cmd.Flags()
	if f.Changed("workers") {
		cfg.Extract.Workers = cfg0.Extract.Workers
	}
	if f.Changed("extensions") {
		cfg.Extract.Extensions = cfg0.Extract.Extensions
	}
	if f.Changed("transformer") {
		cfg.Output.Transformer = cfg0.Output.Transformer
	}
	if f.Changed("sink") {
		cfg.Output.Sink = cfg0.Output.Sink
	}
	if f.Changed("compression") {
		cfg.Output.Compression = cfg0.Output.Compression
	}
	if f.Changed("target") {
		cfg.Output.Target = cfg0.Output.Target
	}
	if f.Changed("chunk-records") {
		cfg.Output.ChunkRecords = cfg0.Output.ChunkRecords
	}
	if f.Changed("chunk-bytes") {
		cfg.Output.ChunkBytes = cfg0.Output.ChunkBytes
	}
	opts, err := parseOptions(sinkOptions)
	if err != nil {
		return fmt.Errorf("--sink-options: %w", err)
	}
	if opts != nil {
		cfg.Output.SinkOptions = opts
	}
	opts, err = parseOptions(targetOptions)
	if err != nil {
		return fmt.Errorf("--target-options: %w", err)
	}
	if opts != nil {
		cfg.Output.TargetOptions = opts
	}
	return nil
}

// secretsFor opens the secrets store only when the job's sink or target
// may need credentials.
func secretsFor(spec *job.JobSpec) (*secrets.Store, error) {
	switch spec.Options.Output.Sink {
	case "disk", "stdout", "null":
		if spec.Options.Output.Target == "" || spec.Options.Output.Target == "null" {
			return nil, nil
		}
	}
	return openSecrets(cfg)
}

func printManifests(data any) {
	manifests, ok := data.([]*etl.Manifest)
	if !ok || len(manifests) == 0 {
		fmt.Println("Nothing written")
		return
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Base", "Entries", "Rows", "Invalid", "Columns", "Constant", "Target", "Duration"})
	for _, m := range manifests {
		table.Append([]string{
			m.BaseName,
			strconv.Itoa(m.Entries),
			strconv.Itoa(m.Rows),
			strconv.Itoa(m.Invalid),
			strconv.Itoa(m.Columns),
			strconv.Itoa(m.ConstantColumns),
			valOrDash(m.Target),
			m.Duration,
		})
	}
	table.Render()
}
