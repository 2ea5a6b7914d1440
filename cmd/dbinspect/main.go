// Package main provides an admin CLI for inspecting and repairing the
// Daylog database and producing exports without the server.
//
// Usage:
//
//	go run ./cmd/dbinspect stats
//	go run ./cmd/dbinspect tags
//	go run ./cmd/dbinspect reconcile
//	go run ./cmd/dbinspect export entries --start 2024-01-01 --end 2024-01-31
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/daylogapp/daylog-server/internal/config"
	"github.com/daylogapp/daylog-server/internal/logger"
	"github.com/daylogapp/daylog-server/internal/service"
	"github.com/daylogapp/daylog-server/internal/store/sqlite"
)

// env bundles what every subcommand needs.
type env struct {
	cfg     *config.Config
	store   *sqlite.Store
	dayTags *service.DayTagService
	logger  *slog.Logger
}

var (
	dataPath string
	verbose  bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dbinspect",
		Short:         "Inspect and repair the Daylog database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataPath, "data-path", "", "data directory (default: DATA_PATH or ~/Daylog)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(newStatsCmd(), newTagsCmd(), newReconcileCmd(), newExportCmd())
	return root
}

// open loads configuration and opens the store. The caller closes the store.
func open() (*env, error) {
	var args []string
	if dataPath != "" {
		args = append(args, "-data-path", dataPath)
	}
	cfg, err := config.Load(args)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	log := logger.New(logger.Config{
		Writer:      os.Stderr,
		Environment: cfg.App.Environment,
		Level:       logger.ParseLevel(level),
	})

	st, err := sqlite.Open(cfg.Storage.DatabasePath(), log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	return &env{
		cfg:     cfg,
		store:   st,
		dayTags: service.NewDayTagService(st, nil, log.Logger),
		logger:  log.Logger,
	}, nil
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show row counts and usage-count drift",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.store.Close()

			st, err := e.store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "=== Database Inspection ===")
			fmt.Fprintf(out, "Path:          %s\n", e.cfg.Storage.DatabasePath())
			fmt.Fprintf(out, "Entries:       %d\n", st.Entries)
			fmt.Fprintf(out, "Day tags:      %d\n", st.DayTags)
			fmt.Fprintf(out, "Associations:  %d\n", st.Associations)
			fmt.Fprintf(out, "Drifted tags:  %d\n", st.DriftedTags)
			if st.DriftedTags > 0 {
				fmt.Fprintln(out, "\nRun `dbinspect reconcile` to repair usage counts.")
			}
			return nil
		},
	}
}

func newTagsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tags",
		Short: "List day tags with stored and actual usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.store.Close()

			return printTags(cmd.Context(), cmd.OutOrStdout(), e.dayTags)
		},
	}
}

func printTags(ctx context.Context, w io.Writer, dayTags *service.DayTagService) error {
	tags, err := dayTags.ListTags(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDISPLAY\tUSAGE\tACTUAL\t")
	for _, t := range tags {
		dates, err := dayTags.ListDatesForTag(ctx, t.ID)
		if err != nil {
			return err
		}
		mark := ""
		if len(dates) != t.UsageCount {
			mark = "drift"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\n", t.ID, t.Name, t.DisplayName, t.UsageCount, len(dates), mark)
	}
	return tw.Flush()
}

func newReconcileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Recompute day tag usage counts from their associations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open()
			if err != nil {
				return err
			}
			defer e.store.Close()

			fixed, err := e.dayTags.ReconcileUsageCounts(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reconciled %d day tag(s)\n", fixed)
			return nil
		},
	}
}
