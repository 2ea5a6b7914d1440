package sqlite

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/daylogapp/daylog-server/internal/domain"
)

// entryColumns is the ordered list of columns selected in entry queries.
// Must match the scan order in scanEntry.
const entryColumns = `id, date, time, type, consistency, urgency, notes, content, created_at`

// scanEntry scans a row into a domain.Entry. The payload matching Type is
// populated only when its columns are present; unknown types carry none.
func scanEntry(scanner interface{ Scan(dest ...any) error }) (*domain.Entry, error) {
	var (
		e           domain.Entry
		entryType   string
		consistency sql.NullInt64
		urgency     sql.NullInt64
		notes       sql.NullString
		content     sql.NullString
		createdAt   string
	)

	err := scanner.Scan(
		&e.ID,
		&e.Date,
		&e.Time,
		&entryType,
		&consistency,
		&urgency,
		&notes,
		&content,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	e.Type = domain.EntryType(entryType)
	switch e.Type {
	case domain.EntryTypeBowelMovement:
		if consistency.Valid {
			e.BowelMovement = &domain.BowelMovement{
				Consistency: int(consistency.Int64),
				Urgency:     int(urgency.Int64),
				Notes:       notes.String,
			}
		}
	case domain.EntryTypeNote:
		if content.Valid {
			e.Note = &domain.Note{Content: content.String}
		}
	}

	e.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &e, nil
}

// CreateEntry inserts a log entry, filling in ID and CreatedAt.
func (s *Store) CreateEntry(ctx context.Context, e *domain.Entry) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var (
		consistency sql.NullInt64
		urgency     sql.NullInt64
		notes       sql.NullString
		content     sql.NullString
	)
	if bm := e.BowelMovement; bm != nil {
		consistency = sql.NullInt64{Int64: int64(bm.Consistency), Valid: true}
		urgency = sql.NullInt64{Int64: int64(bm.Urgency), Valid: true}
		notes = nullString(bm.Notes)
	}
	if n := e.Note; n != nil {
		content = sql.NullString{String: n.Content, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (date, time, type, consistency, urgency, notes, content, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Date,
		e.Time,
		string(e.Type),
		consistency,
		urgency,
		notes,
		content,
		formatTime(e.CreatedAt),
	)
	if err != nil {
		return wrapErr("create entry", err)
	}

	e.ID, err = res.LastInsertId()
	if err != nil {
		return wrapErr("create entry", err)
	}
	return nil
}

// StreamEntriesInRange returns an iterator over entries dated within
// [start, end], ordered by date, time and id.
func (s *Store) StreamEntriesInRange(ctx context.Context, start, end string) iter.Seq2[*domain.Entry, error] {
	return func(yield func(*domain.Entry, error) bool) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT `+entryColumns+`
			FROM entries
			WHERE date >= ? AND date <= ?
			ORDER BY date ASC, time ASC, id ASC`, start, end)
		if err != nil {
			yield(nil, wrapErr("stream entries", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			e, err := scanEntry(rows)
			if err != nil {
				yield(nil, wrapErr("stream entries", err))
				return
			}

			if !yield(e, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, wrapErr("stream entries", err))
		}
	}
}
