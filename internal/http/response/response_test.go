package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/daylogapp/daylog-server/internal/errors"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, map[string]int{"n": 1}, nil)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"n":1}`, rec.Body.String())
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, domainerrors.CodeConstraintViolation, "duplicate", nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "CONSTRAINT_VIOLATION", body.Code)
	assert.Equal(t, "duplicate", body.Message)
	assert.Equal(t, http.StatusConflict, body.Status)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPatch, "/nope", nil)

	rec := httptest.NewRecorder()
	NotFound(rec, req, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "no route for PATCH /nope", decodeBody(t, rec).Message)

	rec = httptest.NewRecorder()
	MethodNotAllowed(rec, req, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "METHOD_NOT_ALLOWED", decodeBody(t, rec).Code)
}

func TestTooManyRequests(t *testing.T) {
	rec := httptest.NewRecorder()
	TooManyRequests(rec, 2400*time.Millisecond, nil)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))
	assert.Equal(t, "RATE_LIMITED", decodeBody(t, rec).Code)

	rec = httptest.NewRecorder()
	TooManyRequests(rec, 0, nil)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}
