package domain

import "time"

// DayTag is a reusable label (medication, diet marker, ...) a user can attach
// to any calendar date.
// Name is the normalized identity; DisplayName keeps the casing supplied by
// whoever created the tag first.
type DayTag struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UsageCount  int       `json:"usage_count"` // Denormalized count of dates carrying this tag
}

// DescriptionOrEmpty returns the description, or "" when none is set.
func (t *DayTag) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}

// DayTagAssociation links one tag to one calendar date.
// The (TagID, Date) pair is unique.
type DayTagAssociation struct {
	ID        int64     `json:"id"`
	TagID     int64     `json:"tag_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	CreatedAt time.Time `json:"created_at"`
}

// DayTagAssignment is an association joined with its tag, as consumed by
// the day-tag export.
type DayTagAssignment struct {
	Date        string
	TagID       int64
	TagName     string
	DisplayName string
	Description *string
}
