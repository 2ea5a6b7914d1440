package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/daylogapp/daylog-server/internal/domain"
)

func (s *Server) registerDayTagRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listDayTags",
		Method:      http.MethodGet,
		Path:        "/api/v1/day-tags",
		Summary:     "List day tags",
		Description: "Returns every day tag, most used first",
		Tags:        []string{"Day Tags"},
	}, s.handleListDayTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "createDayTag",
		Method:      http.MethodPost,
		Path:        "/api/v1/day-tags",
		Summary:     "Create day tag",
		Description: "Creates a day tag, or returns the existing tag with the same normalized name unchanged",
		Tags:        []string{"Day Tags"},
	}, s.handleCreateDayTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "getDayTag",
		Method:      http.MethodGet,
		Path:        "/api/v1/day-tags/{id}",
		Summary:     "Get day tag",
		Description: "Returns a day tag by ID",
		Tags:        []string{"Day Tags"},
	}, s.handleGetDayTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateDayTagDescription",
		Method:      http.MethodPatch,
		Path:        "/api/v1/day-tags/{id}",
		Summary:     "Update day tag description",
		Description: "Replaces the description; omit or null to clear it",
		Tags:        []string{"Day Tags"},
	}, s.handleUpdateDayTagDescription)

	huma.Register(s.api, huma.Operation{
		OperationID: "renameDayTag",
		Method:      http.MethodPut,
		Path:        "/api/v1/day-tags/{id}/name",
		Summary:     "Rename day tag",
		Description: "Changes the display name and normalized name; fails if another tag already has the name",
		Tags:        []string{"Day Tags"},
	}, s.handleRenameDayTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteDayTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/day-tags/{id}",
		Summary:     "Delete day tag",
		Description: "Deletes a day tag and all of its date associations",
		Tags:        []string{"Day Tags"},
	}, s.handleDeleteDayTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "listDayTagDates",
		Method:      http.MethodGet,
		Path:        "/api/v1/day-tags/{id}/dates",
		Summary:     "List tagged dates",
		Description: "Returns the dates carrying this tag, oldest first",
		Tags:        []string{"Day Tags"},
	}, s.handleListDayTagDates)
}

func (s *Server) registerDateRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getDayTagsForDate",
		Method:      http.MethodGet,
		Path:        "/api/v1/dates/{date}/day-tags",
		Summary:     "Get tags for date",
		Description: "Returns the tags attached to a date in the order they were attached",
		Tags:        []string{"Day Tags"},
	}, s.handleGetDayTagsForDate)

	huma.Register(s.api, huma.Operation{
		OperationID: "attachDayTag",
		Method:      http.MethodPut,
		Path:        "/api/v1/dates/{date}/day-tags/{id}",
		Summary:     "Attach tag to date",
		Description: "Attaches a day tag to a date. Attaching twice is a no-op",
		Tags:        []string{"Day Tags"},
	}, s.handleAttachDayTag)

	huma.Register(s.api, huma.Operation{
		OperationID: "detachDayTag",
		Method:      http.MethodDelete,
		Path:        "/api/v1/dates/{date}/day-tags/{id}",
		Summary:     "Detach tag from date",
		Description: "Removes a day tag from a date. Detaching an absent pair is a no-op",
		Tags:        []string{"Day Tags"},
	}, s.handleDetachDayTag)
}

// === DTOs ===

// DayTagResponse contains day tag data in API responses.
type DayTagResponse struct {
	ID          int64     `json:"id" doc:"Day tag ID"`
	Name        string    `json:"name" doc:"Normalized name"`
	DisplayName string    `json:"display_name" doc:"Name as first entered"`
	Description *string   `json:"description,omitempty" doc:"Optional description"`
	CreatedAt   time.Time `json:"created_at" doc:"Creation time"`
	UsageCount  int       `json:"usage_count" doc:"Number of dates carrying this tag"`
}

// DayTagOutput wraps a single day tag for Huma.
type DayTagOutput struct {
	Body DayTagResponse
}

// ListDayTagsResponse contains a list of day tags.
type ListDayTagsResponse struct {
	DayTags []DayTagResponse `json:"day_tags" doc:"Day tags"`
}

// ListDayTagsOutput wraps a day tag list for Huma.
type ListDayTagsOutput struct {
	Body ListDayTagsResponse
}

// CreateDayTagRequest is the request body for creating a day tag.
type CreateDayTagRequest struct {
	DisplayName string  `json:"display_name" maxLength:"200" doc:"Tag name; surrounding whitespace is trimmed"`
	Description *string `json:"description,omitempty" doc:"Optional description"`
}

// CreateDayTagInput wraps the create request for Huma.
type CreateDayTagInput struct {
	Body CreateDayTagRequest
}

// DayTagIDInput addresses a single day tag.
type DayTagIDInput struct {
	ID int64 `path:"id" doc:"Day tag ID"`
}

// UpdateDayTagDescriptionRequest is the request body for changing a description.
type UpdateDayTagDescriptionRequest struct {
	Description *string `json:"description,omitempty" nullable:"true" doc:"New description; null clears it"`
}

// UpdateDayTagDescriptionInput wraps the description update for Huma.
type UpdateDayTagDescriptionInput struct {
	ID   int64 `path:"id" doc:"Day tag ID"`
	Body UpdateDayTagDescriptionRequest
}

// RenameDayTagRequest is the request body for renaming a day tag.
type RenameDayTagRequest struct {
	DisplayName string `json:"display_name" maxLength:"200" doc:"New tag name"`
}

// RenameDayTagInput wraps the rename request for Huma.
type RenameDayTagInput struct {
	ID   int64 `path:"id" doc:"Day tag ID"`
	Body RenameDayTagRequest
}

// DayTagDatesResponse lists the dates carrying a tag.
type DayTagDatesResponse struct {
	TagID int64    `json:"tag_id" doc:"Day tag ID"`
	Dates []string `json:"dates" doc:"Dates in YYYY-MM-DD form, ascending"`
}

// DayTagDatesOutput wraps the date list for Huma.
type DayTagDatesOutput struct {
	Body DayTagDatesResponse
}

// DateInput addresses a calendar date.
type DateInput struct {
	Date string `path:"date" doc:"Date in YYYY-MM-DD form"`
}

// DateDayTagInput addresses one tag on one date.
type DateDayTagInput struct {
	Date string `path:"date" doc:"Date in YYYY-MM-DD form"`
	ID   int64  `path:"id" doc:"Day tag ID"`
}

// DateDayTagsResponse lists the tags on a date.
type DateDayTagsResponse struct {
	Date    string           `json:"date" doc:"Date in YYYY-MM-DD form"`
	DayTags []DayTagResponse `json:"day_tags" doc:"Tags in attach order"`
}

// DateDayTagsOutput wraps the tags for a date for Huma.
type DateDayTagsOutput struct {
	Body DateDayTagsResponse
}

// === Handlers ===

func (s *Server) handleListDayTags(ctx context.Context, _ *struct{}) (*ListDayTagsOutput, error) {
	tags, err := s.dayTags.ListTags(ctx)
	if err != nil {
		return nil, err
	}
	return &ListDayTagsOutput{Body: ListDayTagsResponse{DayTags: toDayTagResponses(tags)}}, nil
}

func (s *Server) handleCreateDayTag(ctx context.Context, input *CreateDayTagInput) (*DayTagOutput, error) {
	tag, err := s.dayTags.CreateTag(ctx, input.Body.DisplayName, input.Body.Description)
	if err != nil {
		return nil, err
	}
	return &DayTagOutput{Body: toDayTagResponse(tag)}, nil
}

func (s *Server) handleGetDayTag(ctx context.Context, input *DayTagIDInput) (*DayTagOutput, error) {
	tag, err := s.dayTags.GetTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DayTagOutput{Body: toDayTagResponse(tag)}, nil
}

func (s *Server) handleUpdateDayTagDescription(ctx context.Context, input *UpdateDayTagDescriptionInput) (*DayTagOutput, error) {
	tag, err := s.dayTags.UpdateTagDescription(ctx, input.ID, input.Body.Description)
	if err != nil {
		return nil, err
	}
	return &DayTagOutput{Body: toDayTagResponse(tag)}, nil
}

func (s *Server) handleRenameDayTag(ctx context.Context, input *RenameDayTagInput) (*DayTagOutput, error) {
	tag, err := s.dayTags.RenameTag(ctx, input.ID, input.Body.DisplayName)
	if err != nil {
		return nil, err
	}
	return &DayTagOutput{Body: toDayTagResponse(tag)}, nil
}

func (s *Server) handleDeleteDayTag(ctx context.Context, input *DayTagIDInput) (*MessageOutput, error) {
	if err := s.dayTags.DeleteTag(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Day tag deleted"}}, nil
}

func (s *Server) handleListDayTagDates(ctx context.Context, input *DayTagIDInput) (*DayTagDatesOutput, error) {
	dates, err := s.dayTags.ListDatesForTag(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &DayTagDatesOutput{Body: DayTagDatesResponse{TagID: input.ID, Dates: dates}}, nil
}

func (s *Server) handleGetDayTagsForDate(ctx context.Context, input *DateInput) (*DateDayTagsOutput, error) {
	tags, err := s.dayTags.GetTagsForDate(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	return &DateDayTagsOutput{Body: DateDayTagsResponse{Date: input.Date, DayTags: toDayTagResponses(tags)}}, nil
}

func (s *Server) handleAttachDayTag(ctx context.Context, input *DateDayTagInput) (*MessageOutput, error) {
	if err := s.dayTags.AttachTagToDate(ctx, input.ID, input.Date); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Day tag attached"}}, nil
}

func (s *Server) handleDetachDayTag(ctx context.Context, input *DateDayTagInput) (*MessageOutput, error) {
	if err := s.dayTags.DetachTagFromDate(ctx, input.ID, input.Date); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: MessageResponse{Message: "Day tag detached"}}, nil
}

func toDayTagResponse(t *domain.DayTag) DayTagResponse {
	return DayTagResponse{
		ID:          t.ID,
		Name:        t.Name,
		DisplayName: t.DisplayName,
		Description: t.Description,
		CreatedAt:   t.CreatedAt,
		UsageCount:  t.UsageCount,
	}
}

func toDayTagResponses(tags []*domain.DayTag) []DayTagResponse {
	resp := make([]DayTagResponse, len(tags))
	for i, t := range tags {
		resp[i] = toDayTagResponse(t)
	}
	return resp
}
