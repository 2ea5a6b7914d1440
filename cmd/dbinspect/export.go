package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/daylogapp/daylog-server/internal/domain"
	"github.com/daylogapp/daylog-server/internal/export"
)

func newExportCmd() *cobra.Command {
	var (
		outDir  string
		preview int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write export artifacts without the server",
		Long: `Write export artifacts straight from the database.

Artifacts land in --output (default: the configured export directory).
With --preview N nothing is written; the first N rows go to stdout.

Examples:
  dbinspect export entries --start 2024-01-01 --end 2024-01-31
  dbinspect export entries --start 2024-01-01 --end 2024-01-31 --format yaml --notes
  dbinspect export day-tags --preview 10`,
	}

	cmd.PersistentFlags().StringVarP(&outDir, "output", "o", "", "artifact directory (default: EXPORT_DIR)")
	cmd.PersistentFlags().IntVar(&preview, "preview", 0, "print the first N rows instead of writing a file")

	newExporter := func(e *env) *export.Exporter {
		dir := outDir
		if dir == "" {
			dir = e.cfg.Export.Dir
		}
		aggregator := export.NewAggregator(e.store, e.store, nil)
		return export.NewExporter(aggregator, export.NewFileSink(dir), nil, e.logger)
	}

	var opts domain.ExportOptions
	var format string

	entries := &cobra.Command{
		Use:   "entries",
		Short: "Export log entries in a date range",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.store.Close()

			opts.Format = domain.ExportFormat(format)
			exporter := newExporter(e)

			if preview > 0 {
				out, err := exporter.GetExportPreview(cmd.Context(), opts, preview)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}

			return report(cmd, exporter.ExportData(cmd.Context(), opts))
		},
	}
	entries.Flags().StringVar(&opts.StartDate, "start", "", "first date, inclusive (YYYY-MM-DD)")
	entries.Flags().StringVar(&opts.EndDate, "end", "", "last date, inclusive (YYYY-MM-DD)")
	entries.Flags().StringVarP(&format, "format", "f", string(domain.ExportFormatCSV), "csv, json or yaml")
	entries.Flags().BoolVar(&opts.IncludeNotes, "notes", false, "fill the notes column")
	_ = entries.MarkFlagRequired("start")
	_ = entries.MarkFlagRequired("end")

	dayTags := &cobra.Command{
		Use:   "day-tags",
		Short: "Export every day tag association as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.store.Close()

			exporter := newExporter(e)

			if preview > 0 {
				out, err := exporter.GetDayTagsPreview(cmd.Context(), preview)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}

			return report(cmd, exporter.ExportDayTagsData(cmd.Context()))
		},
	}

	cmd.AddCommand(entries, dayTags)
	return cmd
}

// report prints an export result and turns failures into a non-zero exit.
func report(cmd *cobra.Command, res domain.ExportResult) error {
	if !res.Success {
		return fmt.Errorf("export failed [%s]: %s", res.Code, res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d row(s) to %s\n", res.EntriesCount, res.FilePath)
	return nil
}
