package export

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
	"github.com/daylogapp/daylog-server/internal/id"
)

// Artifact name stems.
const (
	entriesFilePrefix = "daylog-entries"
	dayTagsFileStem   = "daylog-day-tags"
)

// EntriesFileName returns the deterministic artifact name for an entry export.
func EntriesFileName(start, end, ext string) string {
	return fmt.Sprintf("%s_%s_%s.%s", entriesFilePrefix, start, end, ext)
}

// DayTagsFileName returns the artifact name for a day-tag export.
func DayTagsFileName(ext string) string {
	return dayTagsFileStem + "." + ext
}

// Exporter coordinates aggregation, encoding, persistence and sharing.
// Its methods never return store or encoding faults as errors to callers of
// the full-export path; those become failed ExportResults.
type Exporter struct {
	aggregator *Aggregator
	sink       Sink
	sharer     Sharer
	logger     *slog.Logger
}

// NewExporter creates an exporter. sharer may be nil, in which case
// ShareExportFile always reports false.
func NewExporter(aggregator *Aggregator, sink Sink, sharer Sharer, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		aggregator: aggregator,
		sink:       sink,
		sharer:     sharer,
		logger:     logger,
	}
}

// ExportData exports entries in the range and format given by opts.
func (e *Exporter) ExportData(ctx context.Context, opts domain.ExportOptions) domain.ExportResult {
	runID, _ := id.Generate("exp") //nolint:errcheck // Only used for log correlation
	logger := e.logger.With("export_id", runID, "kind", "entries")
	start := time.Now()

	table, err := e.aggregator.EntryTable(ctx, opts)
	if err != nil {
		return e.fail(logger, err)
	}

	enc, err := EncoderFor(opts.Format)
	if err != nil {
		return e.fail(logger, err)
	}

	path, err := e.write(ctx, enc, table, EntriesFileName(opts.StartDate, opts.EndDate, enc.Extension()))
	if err != nil {
		return e.fail(logger, err)
	}

	logger.Info("export written",
		"path", path,
		"rows", table.Len(),
		"format", enc.Format(),
		"start_date", opts.StartDate,
		"end_date", opts.EndDate,
		"include_notes", opts.IncludeNotes,
		"duration", time.Since(start),
	)
	return success(path, table.Len())
}

// ExportDayTagsData exports every day-tag association as CSV.
func (e *Exporter) ExportDayTagsData(ctx context.Context) domain.ExportResult {
	runID, _ := id.Generate("exp") //nolint:errcheck // Only used for log correlation
	logger := e.logger.With("export_id", runID, "kind", "day_tags")
	start := time.Now()

	table, err := e.aggregator.DayTagTable(ctx)
	if err != nil {
		return e.fail(logger, err)
	}

	enc := CSVEncoder{}
	path, err := e.write(ctx, enc, table, DayTagsFileName(enc.Extension()))
	if err != nil {
		return e.fail(logger, err)
	}

	logger.Info("export written", "path", path, "rows", table.Len(), "duration", time.Since(start))
	return success(path, table.Len())
}

// GetExportPreview renders at most limit rows of the export opts describes.
// Nothing is written to the sink.
func (e *Exporter) GetExportPreview(ctx context.Context, opts domain.ExportOptions, limit int) (string, error) {
	if limit < 1 {
		return "", domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"limit": "must be at least 1"})
	}

	table, err := e.aggregator.entryTable(ctx, opts, limit)
	if err != nil {
		return "", err
	}

	enc, err := EncoderFor(opts.Format)
	if err != nil {
		return "", err
	}

	return encodeString(enc, table.Head(limit))
}

// GetDayTagsPreview renders at most limit rows of the day-tag export.
func (e *Exporter) GetDayTagsPreview(ctx context.Context, limit int) (string, error) {
	if limit < 1 {
		return "", domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"limit": "must be at least 1"})
	}

	table, err := e.aggregator.dayTagTable(ctx, limit)
	if err != nil {
		return "", err
	}
	return encodeString(CSVEncoder{}, table.Head(limit))
}

// ShareExportFile hands a finished artifact to the configured sharer and
// reports whether the hand-off succeeded.
func (e *Exporter) ShareExportFile(ctx context.Context, path string) bool {
	if e.sharer == nil || path == "" {
		return false
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		e.logger.Warn("share skipped: artifact missing", "path", path)
		return false
	}

	if err := e.sharer.Share(ctx, path); err != nil {
		e.logger.Warn("share failed", "path", path, "error", err)
		return false
	}

	e.logger.Info("export shared", "path", path)
	return true
}

func (e *Exporter) write(ctx context.Context, enc Encoder, table *Table, name string) (string, error) {
	var buf bytes.Buffer
	if err := enc.Encode(&buf, table); err != nil {
		return "", err
	}
	return e.sink.Write(ctx, name, buf.Bytes())
}

func (e *Exporter) fail(logger *slog.Logger, err error) domain.ExportResult {
	code := domainerrors.CodeOf(err)
	if code == domainerrors.CodeInternal || code == domainerrors.CodeStoreUnavailable {
		logger.Error("export failed", "code", code, "error", err)
	} else {
		logger.Warn("export rejected", "code", code, "error", err)
	}
	return failure(err)
}

func encodeString(enc Encoder, table *Table) (string, error) {
	var sb strings.Builder
	if err := enc.Encode(&sb, table); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func success(path string, rows int) domain.ExportResult {
	return domain.ExportResult{Success: true, FilePath: path, EntriesCount: rows}
}

func failure(err error) domain.ExportResult {
	return domain.ExportResult{
		Success: false,
		Error:   describe(err),
		Code:    string(domainerrors.CodeOf(err)),
	}
}

// describe renders err for end users, expanding validation details.
func describe(err error) string {
	var de *domainerrors.Error
	if !domainerrors.As(err, &de) {
		return err.Error()
	}

	details, ok := de.Details.(map[string]string)
	if !ok || len(details) == 0 {
		return de.Error()
	}

	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + " " + details[f]
	}
	return de.Message + ": " + strings.Join(parts, "; ")
}
