package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expensetracker/internal/core"
)

// defaultUserID stands in while authentication is out of scope.
const defaultUserID = "demo-user"

// errorResponse is the JSON error envelope.
type errorResponse struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// writeDomainError maps domain errors onto HTTP statuses: missing data is
// 404, everything the caller could have avoided is 422.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "transaction not found")
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func isValidationError(err error) bool {
	for _, target := range []error{
		core.ErrInvalidAmount,
		core.ErrInvalidCurrency,
		core.ErrInvalidType,
		core.ErrMissingUser,
		core.ErrMissingOccurredAt,
		core.ErrDescriptionTooLong,
		core.ErrEmptyCategoryIDs,
		core.ErrInvalidPeriod,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// parseTimestamp accepts RFC 3339 timestamps. A timestamp without an
// offset is taken as UTC, the same normalization applied before storing.
func parseTimestamp(value string) (time.Time, error) {
	ts, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return ts, nil
	}
	if naive, naiveErr := time.ParseInLocation("2006-01-02T15:04:05.999999999", value, time.UTC); naiveErr == nil {
		return naive, nil
	}
	return time.Time{}, err
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// requestUserID resolves the acting user from the X-User-ID header.
func requestUserID(r *http.Request) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return defaultUserID
}
