package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]string{"status": "ok"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRespondWithErrorIncludesTraceID(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(SetTraceID(r.Context()))

	RespondWithError(w, r, http.StatusNotFound, "task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "task not found", resp.Error)
	assert.Len(t, resp.TraceID, 32)
}

func TestRespondWithErrorAndLogSanitizes(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/test", nil)

	internalErr := errors.New("pq: connection to postgres://user:hunter2@db:5432 failed")
	RespondWithErrorAndLog(w, r, http.StatusInternalServerError, "internal server error", internalErr)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	// Client sees only the safe message
	body := w.Body.String()
	assert.Contains(t, body, "internal server error")
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "postgres://")
}

func TestTraceIDRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := SetTraceID(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	traceID := GetTraceID(ctx)

	assert.Len(t, traceID, 32)

	// Distinct per call
	other := GetTraceID(SetTraceID(ctx))
	assert.NotEqual(t, traceID, other)
}

func TestGetTraceIDUnset(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, GetTraceID(r.Context()))
}
