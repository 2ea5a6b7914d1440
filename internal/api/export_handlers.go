package api

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/daylogapp/daylog-server/internal/domain"
	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
	"github.com/daylogapp/daylog-server/internal/export"
)

const (
	defaultPreviewLimit = 20
	maxPreviewLimit     = 1000
)

// previewKindDayTags selects the day-tag export in a preview request; any
// other kind previews entries.
const previewKindDayTags = "day_tags"

func (s *Server) registerExportRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "exportEntries",
		Method:      http.MethodPost,
		Path:        "/api/v1/exports/entries",
		Summary:     "Export entries",
		Description: "Writes the entries in a date range to an artifact. Always answers 200; check success and code in the body",
		Tags:        []string{"Exports"},
		Middlewares: huma.Middlewares{s.exportRateLimit},
	}, s.handleExportEntries)

	huma.Register(s.api, huma.Operation{
		OperationID: "exportDayTags",
		Method:      http.MethodPost,
		Path:        "/api/v1/exports/day-tags",
		Summary:     "Export day tags",
		Description: "Writes every day-tag association to a CSV artifact. Always answers 200; check success and code in the body",
		Tags:        []string{"Exports"},
		Middlewares: huma.Middlewares{s.exportRateLimit},
	}, s.handleExportDayTags)

	huma.Register(s.api, huma.Operation{
		OperationID: "previewExport",
		Method:      http.MethodPost,
		Path:        "/api/v1/exports/preview",
		Summary:     "Preview export",
		Description: "Renders the first rows of an export without writing anything",
		Tags:        []string{"Exports"},
	}, s.handlePreviewExport)

	huma.Register(s.api, huma.Operation{
		OperationID: "shareExport",
		Method:      http.MethodPost,
		Path:        "/api/v1/exports/share",
		Summary:     "Share export",
		Description: "Hands a finished artifact to the platform share target",
		Tags:        []string{"Exports"},
	}, s.handleShareExport)
}

// === DTOs ===

// ExportEntriesRequest selects the entries to export.
type ExportEntriesRequest struct {
	StartDate    string `json:"start_date,omitempty" doc:"First date, inclusive (YYYY-MM-DD)"`
	EndDate      string `json:"end_date,omitempty" doc:"Last date, inclusive (YYYY-MM-DD)"`
	Format       string `json:"format,omitempty" default:"csv" doc:"Artifact format: csv, json or yaml"`
	IncludeNotes bool   `json:"include_notes,omitempty" doc:"Fill the notes column"`
}

// ExportEntriesInput wraps the export request for Huma.
type ExportEntriesInput struct {
	Body ExportEntriesRequest
}

// ExportResultResponse reports the outcome of a full export.
type ExportResultResponse struct {
	Success      bool   `json:"success" doc:"Whether the artifact was written"`
	FilePath     string `json:"file_path,omitempty" doc:"Artifact location on success"`
	EntriesCount int    `json:"entries_count" doc:"Rows written, excluding the header"`
	Error        string `json:"error,omitempty" doc:"Failure description"`
	Code         string `json:"code,omitempty" doc:"Machine-readable failure code"`
}

// ExportResultOutput wraps the export result for Huma.
type ExportResultOutput struct {
	Body ExportResultResponse
}

// PreviewExportRequest selects what to preview.
type PreviewExportRequest struct {
	Kind         string `json:"kind,omitempty" enum:"entries,day_tags" default:"entries" doc:"Which export to preview"`
	StartDate    string `json:"start_date,omitempty" doc:"First date, inclusive (entries only)"`
	EndDate      string `json:"end_date,omitempty" doc:"Last date, inclusive (entries only)"`
	Format       string `json:"format,omitempty" default:"csv" doc:"csv, json or yaml (entries only; day tags are always csv)"`
	IncludeNotes bool   `json:"include_notes,omitempty" doc:"Fill the notes column (entries only)"`
	Limit        int    `json:"limit,omitempty" minimum:"0" maximum:"1000" doc:"Maximum data rows; 0 uses the server default"`
}

// PreviewExportInput wraps the preview request for Huma.
type PreviewExportInput struct {
	Body PreviewExportRequest
}

// PreviewExportResponse carries rendered preview text.
type PreviewExportResponse struct {
	Content   string `json:"content" doc:"Encoded preview, header included"`
	MediaType string `json:"media_type" doc:"Media type of content"`
	Limit     int    `json:"limit" doc:"Row limit applied"`
}

// PreviewExportOutput wraps the preview for Huma.
type PreviewExportOutput struct {
	Body PreviewExportResponse
}

// ShareExportRequest names the artifact to share.
type ShareExportRequest struct {
	FilePath string `json:"file_path" minLength:"1" doc:"Path returned by a previous export"`
}

// ShareExportInput wraps the share request for Huma.
type ShareExportInput struct {
	Body ShareExportRequest
}

// ShareExportResponse reports whether the hand-off succeeded.
type ShareExportResponse struct {
	Shared bool `json:"shared" doc:"True when the share target accepted the artifact"`
}

// ShareExportOutput wraps the share result for Huma.
type ShareExportOutput struct {
	Body ShareExportResponse
}

// === Handlers ===

func (s *Server) handleExportEntries(ctx context.Context, input *ExportEntriesInput) (*ExportResultOutput, error) {
	opts := domain.ExportOptions{
		StartDate:    input.Body.StartDate,
		EndDate:      input.Body.EndDate,
		Format:       domain.ExportFormat(input.Body.Format),
		IncludeNotes: input.Body.IncludeNotes,
	}
	result := s.exporter.ExportData(ctx, opts)
	return &ExportResultOutput{Body: toExportResultResponse(result)}, nil
}

func (s *Server) handleExportDayTags(ctx context.Context, _ *struct{}) (*ExportResultOutput, error) {
	result := s.exporter.ExportDayTagsData(ctx)
	return &ExportResultOutput{Body: toExportResultResponse(result)}, nil
}

func (s *Server) handlePreviewExport(ctx context.Context, input *PreviewExportInput) (*PreviewExportOutput, error) {
	limit := input.Body.Limit
	if limit == 0 {
		limit = s.opts.PreviewLimit
	}
	limit = min(limit, maxPreviewLimit)

	var (
		content   string
		mediaType string
		err       error
	)

	switch input.Body.Kind {
	case previewKindDayTags:
		content, err = s.exporter.GetDayTagsPreview(ctx, limit)
		mediaType = export.CSVEncoder{}.MediaType()
	default:
		opts := domain.ExportOptions{
			StartDate:    input.Body.StartDate,
			EndDate:      input.Body.EndDate,
			Format:       domain.ExportFormat(input.Body.Format),
			IncludeNotes: input.Body.IncludeNotes,
		}
		content, err = s.exporter.GetExportPreview(ctx, opts, limit)
		if err == nil {
			// Format was accepted by the preview, so the lookup cannot fail.
			enc, _ := export.EncoderFor(opts.Format) //nolint:errcheck // See above
			mediaType = enc.MediaType()
		}
	}
	if err != nil {
		return nil, err
	}

	return &PreviewExportOutput{
		Body: PreviewExportResponse{Content: content, MediaType: mediaType, Limit: limit},
	}, nil
}

func (s *Server) handleShareExport(ctx context.Context, input *ShareExportInput) (*ShareExportOutput, error) {
	path := filepath.Clean(input.Body.FilePath)
	if !s.insideExportDir(path) {
		return nil, domainerrors.ValidationWithDetails("validation failed",
			map[string]string{"file_path": "must name an artifact in the export directory"})
	}

	shared := s.exporter.ShareExportFile(ctx, path)
	return &ShareExportOutput{Body: ShareExportResponse{Shared: shared}}, nil
}

// insideExportDir reports whether path lives directly or indirectly under
// the configured export directory. Without a directory any path passes.
func (s *Server) insideExportDir(path string) bool {
	if s.opts.ExportDir == "" {
		return true
	}
	rel, err := filepath.Rel(filepath.Clean(s.opts.ExportDir), path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func toExportResultResponse(r domain.ExportResult) ExportResultResponse {
	return ExportResultResponse{
		Success:      r.Success,
		FilePath:     r.FilePath,
		EntriesCount: r.EntriesCount,
		Error:        r.Error,
		Code:         r.Code,
	}
}
