// Package response writes the JSON envelopes returned by the API.
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/newthinker/strategylab/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// statusByCode maps core error codes to HTTP statuses. Anything else is a 500.
var statusByCode = map[string]int{
	core.ErrConfigInvalid.Code:       http.StatusBadRequest,
	core.ErrConfigMissing.Code:       http.StatusBadRequest,
	core.ErrUnknownStrategy.Code:     http.StatusBadRequest,
	core.ErrInsufficientHorizon.Code: http.StatusBadRequest,
	core.ErrNoData.Code:              http.StatusUnprocessableEntity,
	core.ErrDegenerateTarget.Code:    http.StatusUnprocessableEntity,
	core.ErrDatasetNotFound.Code:     http.StatusNotFound,
	core.ErrJobNotFound.Code:         http.StatusNotFound,
	core.ErrReportNotFound.Code:      http.StatusNotFound,
	core.ErrUnauthorized.Code:        http.StatusUnauthorized,
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		if status, ok := statusByCode[coreErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: detail})
}

// Fail writes err with the status StatusFor picks.
func Fail(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), err)
}
