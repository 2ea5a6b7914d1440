package domain

import "time"

// EntryType discriminates the payload carried by an Entry.
type EntryType string

const (
	// EntryTypeBowelMovement marks an entry carrying a BowelMovement payload.
	EntryTypeBowelMovement EntryType = "bowel_movement"
	// EntryTypeNote marks an entry carrying a free-text Note payload.
	EntryTypeNote EntryType = "note"
)

// Valid returns true if the entry type is recognized.
func (t EntryType) Valid() bool {
	switch t {
	case EntryTypeBowelMovement, EntryTypeNote:
		return true
	default:
		return false
	}
}

// Entry is a single symptom log record.
// Exactly one of BowelMovement or Note is set, matching Type.
type Entry struct {
	ID            int64          `json:"id"`
	Date          string         `json:"date"` // YYYY-MM-DD
	Time          string         `json:"time"` // local HH:MM
	Type          EntryType      `json:"type"`
	BowelMovement *BowelMovement `json:"bowel_movement,omitempty"`
	Note          *Note          `json:"note,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}

// BowelMovement holds a Bristol-scale observation.
type BowelMovement struct {
	Consistency int    `json:"consistency" validate:"min=1,max=7"`
	Urgency     int    `json:"urgency" validate:"gte=0"`
	Notes       string `json:"notes,omitempty"`
}

// Note holds free-text content.
type Note struct {
	Content string `json:"content"`
}
