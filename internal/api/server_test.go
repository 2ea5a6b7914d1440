package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daylogapp/daylog-server/internal/domain"
	"github.com/daylogapp/daylog-server/internal/export"
	"github.com/daylogapp/daylog-server/internal/ratelimit"
	"github.com/daylogapp/daylog-server/internal/service"
	"github.com/daylogapp/daylog-server/internal/store/sqlite"
	"github.com/daylogapp/daylog-server/internal/validation"
)

type testServer struct {
	api       humatest.TestAPI
	server    *Server
	store     *sqlite.Store
	exportDir string
	shareDir  string
}

// setupTestServer wires a server over a temporary SQLite store, a file sink
// and a directory sharer.
func setupTestServer(t *testing.T, limiter *ratelimit.KeyedRateLimiter) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	st, err := sqlite.Open(filepath.Join(dir, "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	v := validation.New()
	exportDir := filepath.Join(dir, "exports")
	shareDir := t.TempDir()

	exporter := export.NewExporter(
		export.NewAggregator(st, st, v),
		export.NewFileSink(exportDir),
		export.NewDirSharer(shareDir),
		logger,
	)

	server := NewServer(st, service.NewDayTagService(st, v, logger), exporter, limiter, Options{
		Version:      "test",
		ExportDir:    exportDir,
		PreviewLimit: 2,
	}, logger)

	return &testServer{
		api:       humatest.Wrap(t, server.api),
		server:    server,
		store:     st,
		exportDir: exportDir,
		shareDir:  shareDir,
	}
}

func decode[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &v), resp.Body.String())
	return v
}

func (ts *testServer) addEntry(t *testing.T, date, clock string, consistency int, notes string) {
	t.Helper()
	err := ts.store.CreateEntry(context.Background(), &domain.Entry{
		Date: date,
		Time: clock,
		Type: domain.EntryTypeBowelMovement,
		BowelMovement: &domain.BowelMovement{
			Consistency: consistency,
			Urgency:     1,
			Notes:       notes,
		},
	})
	require.NoError(t, err)
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t, nil)

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[HealthResponse](t, resp)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Components["database"].Status)
}

func TestHealthCheck_DatabaseClosed(t *testing.T) {
	ts := setupTestServer(t, nil)
	require.NoError(t, ts.store.Close())

	resp := ts.api.Get("/health")
	require.Equal(t, http.StatusOK, resp.Code)

	body := decode[HealthResponse](t, resp)
	assert.Equal(t, "unhealthy", body.Status)
}

func TestUnknownRoute(t *testing.T) {
	ts := setupTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil)
	rec := httptest.NewRecorder()
	ts.server.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "NOT_FOUND", body["code"])
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain", map[string]string{"X-Forwarded-For": "203.0.113.7, 10.0.0.1"}, "10.0.0.2:5000", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.2:5000", "198.51.100.4"},
		{"remote with port", nil, "192.0.2.9:41234", "192.0.2.9"},
		{"remote without port", nil, "192.0.2.9", "192.0.2.9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(r))
		})
	}
}
