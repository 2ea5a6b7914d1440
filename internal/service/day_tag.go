package service

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
	"github.com/daylogapp/daylog-server/internal/normalize"
	"github.com/daylogapp/daylog-server/internal/store"
	"github.com/daylogapp/daylog-server/internal/validation"
)

// maxDescriptionLen bounds free-text tag descriptions.
const maxDescriptionLen = 500

// DayTagService orchestrates day tag operations.
// Tag identity is the normalized name; the usage counter is maintained by
// the store in the same transaction as every association change.
type DayTagService struct {
	store     store.DayTagStore
	validator *validation.Validator
	logger    *slog.Logger
}

// NewDayTagService creates a new day tag service.
func NewDayTagService(store store.DayTagStore, validator *validation.Validator, logger *slog.Logger) *DayTagService {
	if logger == nil {
		logger = slog.Default()
	}
	if validator == nil {
		validator = validation.New()
	}
	return &DayTagService{
		store:     store,
		validator: validator,
		logger:    logger,
	}
}

// CreateTag returns the tag whose normalized name matches displayName,
// creating it when none exists.
//
// An existing tag is returned as stored: neither its display name nor its
// description is overwritten by this call. Use UpdateTagDescription or
// RenameTag to change them.
func (s *DayTagService) CreateTag(ctx context.Context, displayName string, description *string) (*domain.DayTag, error) {
	display := normalize.DisplayName(displayName)
	name := normalize.TagName(display)
	if name == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"display_name": "is required"})
	}
	if err := s.checkDescription(description); err != nil {
		return nil, err
	}

	tag, created, err := s.store.FindOrCreateDayTag(ctx, name, display, description)
	if err != nil {
		return nil, err
	}

	if created {
		s.logger.Info("day tag created", "tag_id", tag.ID, "name", tag.Name)
	}
	return tag, nil
}

// GetTag returns a tag by ID.
func (s *DayTagService) GetTag(ctx context.Context, tagID int64) (*domain.DayTag, error) {
	return s.store.GetDayTag(ctx, tagID)
}

// ListTags returns every tag, most used first.
func (s *DayTagService) ListTags(ctx context.Context) ([]*domain.DayTag, error) {
	return s.store.ListDayTags(ctx)
}

// UpdateTagDescription replaces a tag's description. A nil description
// clears it.
func (s *DayTagService) UpdateTagDescription(ctx context.Context, tagID int64, description *string) (*domain.DayTag, error) {
	if err := s.checkDescription(description); err != nil {
		return nil, err
	}

	tag, err := s.store.UpdateDayTagDescription(ctx, tagID, description)
	if err != nil {
		return nil, err
	}

	s.logger.Info("day tag description updated", "tag_id", tagID, "cleared", description == nil)
	return tag, nil
}

// RenameTag changes a tag's display name and, with it, its normalized name.
func (s *DayTagService) RenameTag(ctx context.Context, tagID int64, displayName string) (*domain.DayTag, error) {
	display := normalize.DisplayName(displayName)
	name := normalize.TagName(display)
	if name == "" {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"display_name": "is required"})
	}

	tag, err := s.store.RenameDayTag(ctx, tagID, name, display)
	if err != nil {
		return nil, err
	}

	s.logger.Info("day tag renamed", "tag_id", tagID, "name", tag.Name)
	return tag, nil
}

// DeleteTag removes a tag together with all of its date associations.
func (s *DayTagService) DeleteTag(ctx context.Context, tagID int64) error {
	if err := s.store.DeleteDayTag(ctx, tagID); err != nil {
		return err
	}

	s.logger.Info("day tag deleted", "tag_id", tagID)
	return nil
}

// AttachTagToDate tags a calendar date. Attaching a tag the date already
// carries is a no-op.
func (s *DayTagService) AttachTagToDate(ctx context.Context, tagID int64, date string) error {
	if err := s.checkDate(date); err != nil {
		return err
	}

	attached, err := s.store.AttachDayTag(ctx, tagID, date)
	if err != nil {
		return err
	}

	s.logger.Debug("day tag attached", "tag_id", tagID, "date", date, "changed", attached)
	return nil
}

// DetachTagFromDate removes a tag from a date. Detaching a tag the date
// does not carry is a no-op.
func (s *DayTagService) DetachTagFromDate(ctx context.Context, tagID int64, date string) error {
	if err := s.checkDate(date); err != nil {
		return err
	}

	detached, err := s.store.DetachDayTag(ctx, tagID, date)
	if err != nil {
		return err
	}

	s.logger.Debug("day tag detached", "tag_id", tagID, "date", date, "changed", detached)
	return nil
}

// GetTagsForDate returns the tags on date in the order they were attached.
func (s *DayTagService) GetTagsForDate(ctx context.Context, date string) ([]*domain.DayTag, error) {
	if err := s.checkDate(date); err != nil {
		return nil, err
	}
	return s.store.GetDayTagsForDate(ctx, date)
}

// ListDatesForTag returns every date carrying the tag, oldest first.
func (s *DayTagService) ListDatesForTag(ctx context.Context, tagID int64) ([]string, error) {
	return s.store.ListDatesForDayTag(ctx, tagID)
}

// ReconcileUsageCounts recomputes every usage counter from the association
// table and returns the number of tags that were repaired.
func (s *DayTagService) ReconcileUsageCounts(ctx context.Context) (int64, error) {
	fixed, err := s.store.ReconcileUsageCounts(ctx)
	if err != nil {
		return 0, err
	}

	if fixed > 0 {
		s.logger.Warn("day tag usage counts drifted", "fixed", fixed)
	}
	return fixed, nil
}

func (s *DayTagService) checkDate(date string) error {
	return s.validator.Var("date", date, "required,isodate")
}

func (s *DayTagService) checkDescription(description *string) error {
	if description == nil {
		return nil
	}
	return s.validator.Var("description", *description, "max="+strconv.Itoa(maxDescriptionLen))
}
