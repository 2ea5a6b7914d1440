package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"iter"
	"time"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

// dayTagColumns is the ordered list of columns selected in day tag queries.
// Must match the scan order in scanDayTag.
const dayTagColumns = `t.id, t.name, t.display_name, t.description, t.created_at, t.usage_count`

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// scanDayTag scans a sql.Row (or sql.Rows via its Scan method) into a domain.DayTag.
func scanDayTag(scanner interface{ Scan(dest ...any) error }) (*domain.DayTag, error) {
	var (
		t           domain.DayTag
		description sql.NullString
		createdAt   string
	)

	err := scanner.Scan(
		&t.ID,
		&t.Name,
		&t.DisplayName,
		&description,
		&createdAt,
		&t.UsageCount,
	)
	if err != nil {
		return nil, err
	}

	t.Description = stringPtr(description)
	t.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func getDayTag(ctx context.Context, q querier, tagID int64) (*domain.DayTag, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+dayTagColumns+` FROM day_tags t WHERE t.id = ?`, tagID)

	t, err := scanDayTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("day tag %d not found", tagID)
	}
	return t, err
}

func getDayTagByName(ctx context.Context, q querier, name string) (*domain.DayTag, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+dayTagColumns+` FROM day_tags t WHERE t.name = ?`, name)

	t, err := scanDayTag(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainerrors.NotFoundf("day tag %q not found", name)
	}
	return t, err
}

// requireDayTag fails with NOT_FOUND unless the tag row exists.
func requireDayTag(ctx context.Context, q querier, tagID int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM day_tags WHERE id = ?`, tagID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domainerrors.NotFoundf("day tag %d not found", tagID)
	}
	return err
}

// FindOrCreateDayTag returns the tag named name, inserting it when absent.
// The insert and the read-back share one transaction so concurrent callers
// converge on a single row.
func (s *Store) FindOrCreateDayTag(ctx context.Context, name, displayName string, description *string) (*domain.DayTag, bool, error) {
	var (
		tag     *domain.DayTag
		created bool
	)

	err := s.withTx(ctx, "find or create day tag", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO day_tags (name, display_name, description, created_at, usage_count)
			VALUES (?, ?, ?, ?, 0)
			ON CONFLICT(name) DO NOTHING`,
			name,
			displayName,
			nullableString(description),
			formatTime(time.Now()),
		)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n == 1

		tag, err = getDayTagByName(ctx, tx, name)
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Debug("day tag created", "id", tag.ID, "name", tag.Name)
	}
	return tag, created, nil
}

// CreateDayTag inserts t as given. A duplicate name is a constraint violation.
func (s *Store) CreateDayTag(ctx context.Context, t *domain.DayTag) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO day_tags (name, display_name, description, created_at, usage_count)
		VALUES (?, ?, ?, ?, ?)`,
		t.Name,
		t.DisplayName,
		nullableString(t.Description),
		formatTime(t.CreatedAt),
		t.UsageCount,
	)
	if err != nil {
		return wrapErr("create day tag", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return domainerrors.StoreUnavailable("create day tag", err)
	}
	return nil
}

// GetDayTag retrieves a day tag by its ID.
func (s *Store) GetDayTag(ctx context.Context, tagID int64) (*domain.DayTag, error) {
	t, err := getDayTag(ctx, s.db, tagID)
	if err != nil {
		return nil, wrapErr("get day tag", err)
	}
	return t, nil
}

// GetDayTagByName retrieves a day tag by its normalized name.
func (s *Store) GetDayTagByName(ctx context.Context, name string) (*domain.DayTag, error) {
	t, err := getDayTagByName(ctx, s.db, name)
	if err != nil {
		return nil, wrapErr("get day tag", err)
	}
	return t, nil
}

// ListDayTags returns all day tags, most used first, ties broken by name.
func (s *Store) ListDayTags(ctx context.Context) ([]*domain.DayTag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+dayTagColumns+` FROM day_tags t ORDER BY t.usage_count DESC, t.name ASC`)
	if err != nil {
		return nil, wrapErr("list day tags", err)
	}
	defer rows.Close()

	tags, err := collectDayTags(rows)
	if err != nil {
		return nil, wrapErr("list day tags", err)
	}
	return tags, nil
}

// UpdateDayTagDescription replaces a tag's description. nil clears it.
func (s *Store) UpdateDayTagDescription(ctx context.Context, tagID int64, description *string) (*domain.DayTag, error) {
	var tag *domain.DayTag
	err := s.withTx(ctx, "update day tag description", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE day_tags SET description = ? WHERE id = ?`,
			nullableString(description), tagID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domainerrors.NotFoundf("day tag %d not found", tagID)
		}
		tag, err = getDayTag(ctx, tx, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// RenameDayTag changes the normalized name and display name of a tag.
// Renaming onto another tag's name is a constraint violation.
func (s *Store) RenameDayTag(ctx context.Context, tagID int64, name, displayName string) (*domain.DayTag, error) {
	var tag *domain.DayTag
	err := s.withTx(ctx, "rename day tag", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE day_tags SET name = ?, display_name = ? WHERE id = ?`,
			name, displayName, tagID)
		if err != nil {
			if isUniqueViolation(err) {
				return domainerrors.Wrapf(err, domainerrors.CodeConstraintViolation,
					"day tag %q already exists", name)
			}
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domainerrors.NotFoundf("day tag %d not found", tagID)
		}
		tag, err = getDayTag(ctx, tx, tagID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteDayTag removes a tag. Its associations are removed by cascade.
func (s *Store) DeleteDayTag(ctx context.Context, tagID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM day_tags WHERE id = ?`, tagID)
	if err != nil {
		return wrapErr("delete day tag", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domainerrors.StoreUnavailable("delete day tag", err)
	}
	if n == 0 {
		return domainerrors.NotFoundf("day tag %d not found", tagID)
	}

	s.logger.Debug("day tag deleted", "id", tagID)
	return nil
}

// AttachDayTag associates a tag with date. The association insert and the
// usage counter bump commit together; a repeated attach changes nothing.
func (s *Store) AttachDayTag(ctx context.Context, tagID int64, date string) (bool, error) {
	var attached bool
	err := s.withTx(ctx, "attach day tag", func(tx *sql.Tx) error {
		if err := requireDayTag(ctx, tx, tagID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO day_tag_associations (tag_id, date, created_at)
			VALUES (?, ?, ?)
			ON CONFLICT(tag_id, date) DO NOTHING`,
			tagID, date, formatTime(time.Now()))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		attached = true

		_, err = tx.ExecContext(ctx,
			`UPDATE day_tags SET usage_count = usage_count + 1 WHERE id = ?`, tagID)
		return err
	})
	if err != nil {
		return false, err
	}
	return attached, nil
}

// DetachDayTag removes the association between a tag and date, decrementing
// the usage counter in the same transaction. The counter never drops below 0.
func (s *Store) DetachDayTag(ctx context.Context, tagID int64, date string) (bool, error) {
	var detached bool
	err := s.withTx(ctx, "detach day tag", func(tx *sql.Tx) error {
		if err := requireDayTag(ctx, tx, tagID); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM day_tag_associations WHERE tag_id = ? AND date = ?`,
			tagID, date)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		detached = true

		_, err = tx.ExecContext(ctx,
			`UPDATE day_tags SET usage_count = usage_count - 1 WHERE id = ? AND usage_count > 0`, tagID)
		return err
	})
	if err != nil {
		return false, err
	}
	return detached, nil
}

// GetDayTagsForDate returns the tags attached to date in the order they were
// attached.
func (s *Store) GetDayTagsForDate(ctx context.Context, date string) ([]*domain.DayTag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dayTagColumns+`
		FROM day_tag_associations a
		JOIN day_tags t ON t.id = a.tag_id
		WHERE a.date = ?
		ORDER BY a.id ASC`, date)
	if err != nil {
		return nil, wrapErr("get day tags for date", err)
	}
	defer rows.Close()

	tags, err := collectDayTags(rows)
	if err != nil {
		return nil, wrapErr("get day tags for date", err)
	}
	return tags, nil
}

// ListDatesForDayTag returns every date carrying the tag, oldest first.
func (s *Store) ListDatesForDayTag(ctx context.Context, tagID int64) ([]string, error) {
	if err := requireDayTag(ctx, s.db, tagID); err != nil {
		return nil, wrapErr("list dates for day tag", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT date FROM day_tag_associations WHERE tag_id = ? ORDER BY date ASC`, tagID)
	if err != nil {
		return nil, wrapErr("list dates for day tag", err)
	}
	defer rows.Close()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, wrapErr("list dates for day tag", err)
		}
		dates = append(dates, d)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr("list dates for day tag", err)
	}
	return dates, nil
}

// ReconcileUsageCounts rewrites every usage counter that disagrees with the
// association table and returns how many tags changed.
func (s *Store) ReconcileUsageCounts(ctx context.Context) (int64, error) {
	var fixed int64
	err := s.withTx(ctx, "reconcile usage counts", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE day_tags
			SET usage_count = (
				SELECT COUNT(*) FROM day_tag_associations a WHERE a.tag_id = day_tags.id
			)
			WHERE usage_count <> (
				SELECT COUNT(*) FROM day_tag_associations a WHERE a.tag_id = day_tags.id
			)`)
		if err != nil {
			return err
		}
		fixed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return 0, err
	}

	if fixed > 0 {
		s.logger.Info("day tag usage counts reconciled", "fixed", fixed)
	}
	return fixed, nil
}

// StreamDayTagAssignments returns an iterator over every tag/date pair,
// ordered by date and then by attach order.
func (s *Store) StreamDayTagAssignments(ctx context.Context) iter.Seq2[*domain.DayTagAssignment, error] {
	return func(yield func(*domain.DayTagAssignment, error) bool) {
		rows, err := s.db.QueryContext(ctx, `
			SELECT a.date, t.id, t.name, t.display_name, t.description
			FROM day_tag_associations a
			JOIN day_tags t ON t.id = a.tag_id
			ORDER BY a.date ASC, a.id ASC`)
		if err != nil {
			yield(nil, wrapErr("stream day tag assignments", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			var (
				a           domain.DayTagAssignment
				description sql.NullString
			)
			if err := rows.Scan(&a.Date, &a.TagID, &a.TagName, &a.DisplayName, &description); err != nil {
				yield(nil, wrapErr("stream day tag assignments", err))
				return
			}
			a.Description = stringPtr(description)

			if !yield(&a, nil) {
				return
			}
		}

		if err := rows.Err(); err != nil {
			yield(nil, wrapErr("stream day tag assignments", err))
		}
	}
}

func collectDayTags(rows *sql.Rows) ([]*domain.DayTag, error) {
	tags := []*domain.DayTag{}
	for rows.Next() {
		t, err := scanDayTag(rows)
		if err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
