package server

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/DreamCats/movierec/internal/apperr"
	"github.com/DreamCats/movierec/internal/logging"
	"github.com/DreamCats/movierec/internal/validation"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// respondJSON sends a JSON response with proper headers
func respondJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: message}})
}

// respondErr maps err onto an HTTP status through its error code.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	code := apperr.Code(err)
	status := statusForCode(code)

	body := errorBody{Error: errorDetail{Code: code, Message: err.Error()}}
	var verr *validation.Error
	if errors.As(err, &verr) {
		body.Error.Fields = verr.Fields
	}

	if status == http.StatusInternalServerError {
		logging.Error().Err(err).Str("path", r.URL.Path).Msg("API error")
		body.Error.Message = "internal error"
	}
	respondJSON(w, status, body)
}

func statusForCode(code string) int {
	switch code {
	case "NOT_FOUND":
		return http.StatusNotFound
	case "INVALID_ARGUMENT":
		return http.StatusBadRequest
	case "UPSTREAM_UNAVAILABLE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
