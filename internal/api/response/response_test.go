package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/strategylab/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusAccepted, map[string]string{"job_id": "abc"})

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp SuccessResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, map[string]any{"job_id": "abc"}, resp.Data)
	assert.False(t, resp.Meta.Timestamp.IsZero())
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, core.WrapError(core.ErrUnknownStrategy, fmt.Errorf("foo")))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_STRATEGY", resp.Error.Code)
	assert.Equal(t, "foo", resp.Error.Cause)
}

func TestError_WithPlainError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusInternalServerError, errors.New("disk on fire"))

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.Empty(t, resp.Error.Cause, "plain errors must not leak their text")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.WrapError(core.ErrConfigInvalid, nil), http.StatusBadRequest},
		{core.WrapError(core.ErrUnknownStrategy, nil), http.StatusBadRequest},
		{core.WrapError(core.ErrInsufficientHorizon, nil), http.StatusBadRequest},
		{core.WrapError(core.ErrNoData, nil), http.StatusUnprocessableEntity},
		{core.WrapError(core.ErrDatasetNotFound, nil), http.StatusNotFound},
		{core.WrapError(core.ErrJobNotFound, nil), http.StatusNotFound},
		{core.WrapError(core.ErrUnauthorized, nil), http.StatusUnauthorized},
		{fmt.Errorf("loading: %w", core.WrapError(core.ErrDatasetNotFound, nil)), http.StatusNotFound},
		{core.WrapError(core.ErrRunFailed, nil), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}

func TestFail(t *testing.T) {
	w := httptest.NewRecorder()

	Fail(w, core.WrapError(core.ErrJobNotFound, nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "JOB_NOT_FOUND", resp.Error.Code)
}
