package export

import (
	"context"
	"strconv"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
	"github.com/daylogapp/daylog-server/internal/store"
	"github.com/daylogapp/daylog-server/internal/validation"
)

// Column layouts for each export kind. Encoders emit columns in this order.
var (
	EntryColumns  = []string{"Date", "Time", "Type", "Consistency", "Urgency", "Notes"}
	DayTagColumns = []string{"Date", "Tag", "Description"}
)

// Table is the format-neutral tabular form of an export.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Head returns a table holding at most the first limit rows. The rows are
// shared with t, not copied.
func (t *Table) Head(limit int) *Table {
	if limit < 0 || limit >= len(t.Rows) {
		return t
	}
	return &Table{Columns: t.Columns, Rows: t.Rows[:limit]}
}

// Aggregator builds export tables from the store.
type Aggregator struct {
	entries     store.EntryReader
	assignments store.AssignmentReader
	validator   *validation.Validator
}

// NewAggregator creates an aggregator over the given readers.
func NewAggregator(entries store.EntryReader, assignments store.AssignmentReader, validator *validation.Validator) *Aggregator {
	if validator == nil {
		validator = validation.New()
	}
	return &Aggregator{
		entries:     entries,
		assignments: assignments,
		validator:   validator,
	}
}

// EntryTable returns one row per entry dated within the inclusive range in
// opts, ordered by date, time and id.
func (a *Aggregator) EntryTable(ctx context.Context, opts domain.ExportOptions) (*Table, error) {
	return a.entryTable(ctx, opts, 0)
}

// entryTable stops reading once limit rows are collected. A limit of 0
// reads everything.
func (a *Aggregator) entryTable(ctx context.Context, opts domain.ExportOptions, limit int) (*Table, error) {
	if err := a.checkOptions(opts); err != nil {
		return nil, err
	}

	t := &Table{Columns: EntryColumns, Rows: [][]string{}}
	for e, err := range a.entries.StreamEntriesInRange(ctx, opts.StartDate, opts.EndDate) {
		if err != nil {
			return nil, err
		}

		row, err := a.entryRow(e, opts.IncludeNotes)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)

		if limit > 0 && len(t.Rows) >= limit {
			break
		}
	}
	return t, nil
}

// DayTagTable returns one row per tag/date association, ordered by date and
// then by the order tags were attached.
func (a *Aggregator) DayTagTable(ctx context.Context) (*Table, error) {
	return a.dayTagTable(ctx, 0)
}

func (a *Aggregator) dayTagTable(ctx context.Context, limit int) (*Table, error) {
	t := &Table{Columns: DayTagColumns, Rows: [][]string{}}
	for as, err := range a.assignments.StreamDayTagAssignments(ctx) {
		if err != nil {
			return nil, err
		}

		desc := ""
		if as.Description != nil {
			desc = *as.Description
		}
		t.Rows = append(t.Rows, []string{as.Date, as.DisplayName, desc})

		if limit > 0 && len(t.Rows) >= limit {
			break
		}
	}
	return t, nil
}

// checkOptions validates field formats first, then the range ordering.
func (a *Aggregator) checkOptions(opts domain.ExportOptions) error {
	if err := a.validator.Validate(opts); err != nil {
		return err
	}
	// ISO dates order lexically.
	if opts.StartDate > opts.EndDate {
		return domainerrors.InvalidRangef("start date %s is after end date %s", opts.StartDate, opts.EndDate)
	}
	return nil
}

// entryRow projects an entry onto EntryColumns. Free text lands in Notes
// only when includeNotes is set; the row is emitted either way.
func (a *Aggregator) entryRow(e *domain.Entry, includeNotes bool) ([]string, error) {
	switch e.Type {
	case domain.EntryTypeBowelMovement:
		bm := e.BowelMovement
		if bm == nil {
			return nil, domainerrors.EncodingFailuref("entry %d: bowel_movement entry has no observation", e.ID)
		}
		if err := a.validator.Validate(bm); err != nil {
			return nil, domainerrors.Wrapf(err, domainerrors.CodeEncodingFailure,
				"entry %d: malformed bowel_movement observation", e.ID)
		}
		notes := ""
		if includeNotes {
			notes = bm.Notes
		}
		return []string{
			e.Date,
			e.Time,
			string(e.Type),
			strconv.Itoa(bm.Consistency),
			strconv.Itoa(bm.Urgency),
			notes,
		}, nil

	case domain.EntryTypeNote:
		if e.Note == nil {
			return nil, domainerrors.EncodingFailuref("entry %d: note entry has no content", e.ID)
		}
		notes := ""
		if includeNotes {
			notes = e.Note.Content
		}
		return []string{e.Date, e.Time, string(e.Type), "", "", notes}, nil

	default:
		return nil, domainerrors.EncodingFailuref("entry %d: unknown entry type %q", e.ID, e.Type)
	}
}
