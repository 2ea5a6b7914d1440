package api

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylogapp/daylog-server/internal/ratelimit"
)

func TestExportHandlers_ExportEntries(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.addEntry(t, "2024-01-01", "08:00", 4, "")
	ts.addEntry(t, "2024-01-02", "09:30", 6, "after coffee")
	ts.addEntry(t, "2024-02-01", "07:00", 3, "")

	resp := ts.api.Post("/api/v1/exports/entries", map[string]any{
		"start_date":    "2024-01-01",
		"end_date":      "2024-01-31",
		"include_notes": true,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[ExportResultResponse](t, resp)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 2, result.EntriesCount)
	assert.Empty(t, result.Code)
	assert.Equal(t, filepath.Join(ts.exportDir, "daylog-entries_2024-01-01_2024-01-31.csv"), result.FilePath)

	data, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Time,Type,Consistency,Urgency,Notes", lines[0])
	assert.Equal(t, "2024-01-02,09:30,bowel_movement,6,1,after coffee", lines[2])
}

func TestExportHandlers_ExportEntriesFailureIsOK(t *testing.T) {
	ts := setupTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]any
		code string
	}{
		{"inverted range", map[string]any{"start_date": "2024-02-01", "end_date": "2024-01-01"}, "INVALID_RANGE"},
		{"bad date", map[string]any{"start_date": "yesterday", "end_date": "2024-01-01"}, "VALIDATION"},
		{"missing dates", map[string]any{}, "VALIDATION"},
		{"unknown format", map[string]any{"start_date": "2024-01-01", "end_date": "2024-01-02", "format": "xml"}, "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.api.Post("/api/v1/exports/entries", tt.body)
			require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

			result := decode[ExportResultResponse](t, resp)
			assert.False(t, result.Success)
			assert.Equal(t, tt.code, result.Code)
			assert.NotEmpty(t, result.Error)
			assert.Empty(t, result.FilePath)
		})
	}

	entries, err := os.ReadDir(ts.exportDir)
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestExportHandlers_ExportDayTags(t *testing.T) {
	ts := setupTestServer(t, nil)
	tag := ts.createDayTag(t, "Ibuprofen")
	resp := ts.api.Put(fmt.Sprintf("/api/v1/dates/2024-03-01/day-tags/%d", tag.ID))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/exports/day-tags")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	result := decode[ExportResultResponse](t, resp)
	require.True(t, result.Success, result.Error)
	assert.Equal(t, 1, result.EntriesCount)
	assert.Equal(t, filepath.Join(ts.exportDir, "daylog-day-tags.csv"), result.FilePath)
}

func TestExportHandlers_Preview(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.addEntry(t, "2024-01-01", "08:00", 4, "")
	ts.addEntry(t, "2024-01-02", "09:30", 6, "")
	ts.addEntry(t, "2024-01-03", "10:00", 5, "")

	// No limit: the server default of two rows applies.
	resp := ts.api.Post("/api/v1/exports/preview", map[string]any{
		"start_date": "2024-01-01",
		"end_date":   "2024-01-31",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	preview := decode[PreviewExportResponse](t, resp)
	assert.Equal(t, 2, preview.Limit)
	assert.Equal(t, "text/csv", preview.MediaType)
	lines := strings.Split(strings.TrimSpace(preview.Content), "\n")
	assert.Len(t, lines, 3)

	resp = ts.api.Post("/api/v1/exports/preview", map[string]any{
		"start_date": "2024-01-01",
		"end_date":   "2024-01-31",
		"format":     "json",
		"limit":      1,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	preview = decode[PreviewExportResponse](t, resp)
	assert.Equal(t, "application/json", preview.MediaType)
	assert.Contains(t, preview.Content, `"date":"2024-01-01"`)
	assert.NotContains(t, preview.Content, "2024-01-02")

	// Previews never write artifacts.
	_, err := os.Stat(ts.exportDir)
	assert.True(t, os.IsNotExist(err))
}

func TestExportHandlers_PreviewDayTags(t *testing.T) {
	ts := setupTestServer(t, nil)
	tag := ts.createDayTag(t, "Ibuprofen")
	resp := ts.api.Put(fmt.Sprintf("/api/v1/dates/2024-03-01/day-tags/%d", tag.ID))
	require.Equal(t, http.StatusOK, resp.Code)

	resp = ts.api.Post("/api/v1/exports/preview", map[string]any{"kind": "day_tags"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	preview := decode[PreviewExportResponse](t, resp)
	assert.Equal(t, "Date,Tag,Description\n2024-03-01,Ibuprofen,\n", preview.Content)
}

func TestExportHandlers_PreviewInvalidRange(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Post("/api/v1/exports/preview", map[string]any{
		"start_date": "2024-02-01",
		"end_date":   "2024-01-01",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "INVALID_RANGE", body["code"])
}

func TestExportHandlers_Share(t *testing.T) {
	ts := setupTestServer(t, nil)
	ts.addEntry(t, "2024-01-01", "08:00", 4, "")

	resp := ts.api.Post("/api/v1/exports/entries", map[string]any{
		"start_date": "2024-01-01",
		"end_date":   "2024-01-01",
	})
	result := decode[ExportResultResponse](t, resp)
	require.True(t, result.Success, result.Error)

	resp = ts.api.Post("/api/v1/exports/share", map[string]any{"file_path": result.FilePath})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.True(t, decode[ShareExportResponse](t, resp).Shared)

	_, err := os.Stat(filepath.Join(ts.shareDir, filepath.Base(result.FilePath)))
	assert.NoError(t, err)

	// Missing artifact inside the export directory.
	resp = ts.api.Post("/api/v1/exports/share", map[string]any{
		"file_path": filepath.Join(ts.exportDir, "missing.csv"),
	})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.False(t, decode[ShareExportResponse](t, resp).Shared)
}

func TestExportHandlers_ShareOutsideExportDir(t *testing.T) {
	ts := setupTestServer(t, nil)

	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("x"), 0o600))

	for _, path := range []string{outside, filepath.Join(ts.exportDir, "..", "test.db")} {
		resp := ts.api.Post("/api/v1/exports/share", map[string]any{"file_path": path})
		assert.Equal(t, http.StatusBadRequest, resp.Code, path)
	}
}

func TestExportHandlers_RateLimited(t *testing.T) {
	limiter := ratelimit.PerMinute(1)
	t.Cleanup(limiter.Stop)
	ts := setupTestServer(t, limiter)

	resp := ts.api.Post("/api/v1/exports/day-tags")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	resp = ts.api.Post("/api/v1/exports/day-tags")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "60", resp.Header().Get("Retry-After"))
	body := decode[map[string]any](t, resp)
	assert.Equal(t, "RATE_LIMITED", body["code"])

	// Previews are not limited.
	resp = ts.api.Post("/api/v1/exports/preview", map[string]any{"kind": "day_tags"})
	assert.Equal(t, http.StatusOK, resp.Code)

	// Another client has its own allowance.
	resp = ts.api.Post("/api/v1/exports/day-tags", "X-Forwarded-For: 203.0.113.50")
	assert.Equal(t, http.StatusOK, resp.Code)
}
