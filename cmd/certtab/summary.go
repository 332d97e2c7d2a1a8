package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/chtzvt/certtab/internal/etl"
	"github.com/chtzvt/certtab/internal/extractor"
	"github.com/chtzvt/certtab/internal/table"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// ColumnSummary describes one column of a table.
type ColumnSummary struct {
	Column   string `json:"column"`
	NonNull  int    `json:"non_null"`
	Distinct int    `json:"distinct"`
	Sample   string `json:"sample,omitempty"`
}

func summaryCmd() *cobra.Command {
	var withConstants bool
	cmd := &cobra.Command{
		Use:   "summary <table>",
		Short: "Show per-column non-null and distinct value counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				t   *table.Table
				err error
			)
			if withConstants {
				ex, ferr := extractor.ForName(cfg.Extract.Extractor)
				if ferr != nil {
					return ferr
				}
				t, err = etl.ReadMainTable(args[0], ex.Columns())
			} else {
				t, err = etl.ReadTableFile(args[0])
			}
			if err != nil {
				return err
			}
			outResult(Summarize(t), printSummary)
			return nil
		},
	}
	cmd.Flags().BoolVar(&withConstants, "with-constants", false, "Include the columns of the -single-valued side table")
	return cmd
}

// Summarize counts the non-null and distinct values of every column.
func Summarize(t *table.Table) []ColumnSummary {
	out := make([]ColumnSummary, len(t.Columns))
	for j, col := range t.Columns {
		s := ColumnSummary{Column: col}
		seen := map[string]bool{}
		for _, row := range t.Rows {
			if row[j] == nil {
				continue
			}
			s.NonNull++
			k := cellKey(row[j])
			if !seen[k] {
				seen[k] = true
				if s.Sample == "" {
					s.Sample = k
				}
			}
		}
		s.Distinct = len(seen)
		out[j] = s
	}
	return out
}

func cellKey(v interface{}) string {
	if table.IsList(v) {
		b, _ := json.Marshal(v)
		return string(b)
	}
	return fmt.Sprint(v)
}

func printSummary(data any) {
	cols, ok := data.([]ColumnSummary)
	if !ok || len(cols) == 0 {
		fmt.Println("No columns")
		return
	}
	tw := tablewriter.NewWriter(os.Stdout)
	tw.SetHeader([]string{"Column", "Non-null", "Distinct", "Sample"})
	for _, c := range cols {
		sample := c.Sample
		if len(sample) > 40 {
			sample = sample[:37] + "..."
		}
		tw.Append([]string{c.Column, strconv.Itoa(c.NonNull), strconv.Itoa(c.Distinct), valOrDash(sample)})
	}
	tw.Render()
}
