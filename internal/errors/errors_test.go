package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesboard/internal/observability"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStatusCodes(t *testing.T) {
	tests := map[*AppError]int{
		ValidationWrap(nil, "x"): http.StatusBadRequest,
		BadRequest("x"):          http.StatusBadRequest,
		NotFound("x"):            http.StatusNotFound,
		RateLimit("x"):           http.StatusTooManyRequests,
		ServiceUnavailable("x"):  http.StatusServiceUnavailable,
		UnsupportedFormat("x"):   http.StatusUnsupportedMediaType,
		TooLarge("x"):            http.StatusRequestEntityTooLarge,
		Internal("x"):            http.StatusInternalServerError,
	}
	for err, want := range tests {
		assert.Equal(t, want, err.StatusCode, err.Code)
	}
}

func TestFromValidation(t *testing.T) {
	type query struct {
		Key string `validate:"oneof=a b"`
		Top int    `validate:"min=1"`
	}
	err := validator.New().Struct(query{Key: "z", Top: 0})
	require.Error(t, err)

	appErr := FromValidation(err)
	assert.Equal(t, CodeValidation, appErr.Code)
	assert.Equal(t, "Key: must satisfy oneof=a b; Top: must satisfy min=1", appErr.Details)
	assert.Equal(t, err, appErr.Cause)

	plain := FromValidation(fmt.Errorf("boom"))
	assert.Equal(t, CodeValidation, plain.Code)
	assert.Empty(t, plain.Details)
}

func TestWriteError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/metrics", nil)
	req = req.WithContext(observability.WithRequestID(req.Context(), "req-42"))
	rec := httptest.NewRecorder()

	WriteError(rec, req, discard(), fmt.Errorf("wrapped: %w", NotFound("product not found")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Error struct {
			Code      string `json:"code"`
			Message   string `json:"message"`
			RequestID string `json:"request_id"`
		} `json:"error"`
		Success bool `json:"success"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.False(t, body.Success)
	assert.Equal(t, "NOT_FOUND", body.Error.Code)
	assert.Equal(t, "product not found", body.Error.Message)
	assert.Equal(t, "req-42", body.Error.RequestID)
}

func TestWriteError_HidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), discard(), fmt.Errorf("db password leaked"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "leaked")
	assert.Contains(t, rec.Body.String(), "INTERNAL_ERROR")
}

func TestWriteStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteStatus(rec, http.StatusCreated, map[string]int{"records": 3})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"data":{"records":3},"success":true}`, rec.Body.String())
}
