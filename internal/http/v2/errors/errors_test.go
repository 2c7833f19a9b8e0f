package errors

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m))
	return m
}

func TestWriteError_Envelope(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ErrMissingFields.WithDetail("userId is required"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))
	body := decode(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "MISSING_FIELDS", body["code"])
	assert.Equal(t, ErrMissingFields.Message, body["error"])
	assert.Equal(t, "userId is required", body["detail"])
}

func TestWriteError_RetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, ErrTooSoon.WithRetryAfter(12300*time.Millisecond))

	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "13", rr.Header().Get("Retry-After"))
	body := decode(t, rr)
	assert.EqualValues(t, 12300, body["retryAfterMs"])
}

func TestWriteError_GenericErrorIs500WithoutLeak(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, stderrors.New("pq: password authentication failed"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "password authentication")
}

func TestWithHelpers_DoNotMutateBase(t *testing.T) {
	cause := stderrors.New("boom")
	e := ErrExpired.WithField("x", 1).WithCause(cause).WithDetail("d")

	assert.Empty(t, ErrExpired.Fields)
	assert.Empty(t, ErrExpired.Detail)
	assert.Nil(t, ErrExpired.Err)
	assert.ErrorIs(t, e, cause)
	assert.Equal(t, 1, e.Fields["x"])
	assert.Equal(t, http.StatusGone, e.HTTPStatus)
}
