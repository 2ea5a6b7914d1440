// Package store defines the persistence interfaces for the daylog server.
//
// Implementations report failures as *errors.Error values from
// internal/errors: NOT_FOUND for unknown ids, CONSTRAINT_VIOLATION for
// uniqueness breaches and STORE_UNAVAILABLE for underlying I/O faults.
package store

import (
	"context"
	"iter"

	"github.com/daylogapp/daylog-server/internal/domain"
)

// DayTagStore owns day-tag rows and their date associations.
// Every method runs as a single transaction.
type DayTagStore interface {
	// FindOrCreateDayTag returns the tag with the given normalized name, or
	// inserts a new one with UsageCount 0. An existing tag is returned
	// unchanged. created reports whether a row was inserted.
	FindOrCreateDayTag(ctx context.Context, name, displayName string, description *string) (tag *domain.DayTag, created bool, err error)

	// CreateDayTag inserts t directly, filling in ID and CreatedAt.
	// A duplicate name is a constraint violation.
	CreateDayTag(ctx context.Context, t *domain.DayTag) error

	GetDayTag(ctx context.Context, tagID int64) (*domain.DayTag, error)
	GetDayTagByName(ctx context.Context, name string) (*domain.DayTag, error)
	ListDayTags(ctx context.Context) ([]*domain.DayTag, error)

	// UpdateDayTagDescription replaces the description; nil clears it.
	UpdateDayTagDescription(ctx context.Context, tagID int64, description *string) (*domain.DayTag, error)

	// RenameDayTag changes both name and display name.
	RenameDayTag(ctx context.Context, tagID int64, name, displayName string) (*domain.DayTag, error)

	// DeleteDayTag removes the tag; associations go with it.
	DeleteDayTag(ctx context.Context, tagID int64) error

	// AttachDayTag associates the tag with date, incrementing UsageCount in
	// the same transaction. attached is false when the pair already existed.
	AttachDayTag(ctx context.Context, tagID int64, date string) (attached bool, err error)

	// DetachDayTag removes the association, decrementing UsageCount in the
	// same transaction. detached is false when there was nothing to remove.
	DetachDayTag(ctx context.Context, tagID int64, date string) (detached bool, err error)

	// GetDayTagsForDate returns tags on date in association creation order.
	GetDayTagsForDate(ctx context.Context, date string) ([]*domain.DayTag, error)

	// ListDatesForDayTag returns the dates carrying the tag, ascending.
	ListDatesForDayTag(ctx context.Context, tagID int64) ([]string, error)

	// ReconcileUsageCounts recomputes UsageCount from the association table
	// and returns how many tags were corrected.
	ReconcileUsageCounts(ctx context.Context) (int64, error)
}

// AssignmentReader streams the joined tag/date table for exports.
type AssignmentReader interface {
	// StreamDayTagAssignments yields every association ordered by date, then
	// association creation order. Stopping the iteration early releases the
	// underlying cursor.
	StreamDayTagAssignments(ctx context.Context) iter.Seq2[*domain.DayTagAssignment, error]
}

// EntryReader gives read-only access to log entries.
type EntryReader interface {
	// StreamEntriesInRange yields entries with start <= date <= end, sorted
	// by date, then time, then id.
	StreamEntriesInRange(ctx context.Context, start, end string) iter.Seq2[*domain.Entry, error]
}

// EntryWriter records entries. Entry capture belongs to another subsystem;
// this exists for seeding and tests.
type EntryWriter interface {
	CreateEntry(ctx context.Context, e *domain.Entry) error
}
