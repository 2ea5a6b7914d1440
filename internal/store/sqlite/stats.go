package sqlite

import (
	"context"
)

// Stats summarizes table sizes and usage-counter health.
type Stats struct {
	DayTags      int `json:"day_tags"`
	Associations int `json:"associations"`
	Entries      int `json:"entries"`
	// DriftedTags counts tags whose usage_count disagrees with their
	// association rows.
	DriftedTags int `json:"drifted_tags"`
}

// Stats gathers row counts in a single read.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM day_tags),
			(SELECT COUNT(*) FROM day_tag_associations),
			(SELECT COUNT(*) FROM entries),
			(SELECT COUNT(*) FROM day_tags t
			 WHERE t.usage_count <> (SELECT COUNT(*) FROM day_tag_associations a WHERE a.tag_id = t.id))`,
	).Scan(&st.DayTags, &st.Associations, &st.Entries, &st.DriftedTags)
	if err != nil {
		return nil, wrapErr("stats", err)
	}
	return &st, nil
}
