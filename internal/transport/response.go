// Package transport contains the HTTP router, middleware chain, and request
// handlers of the comparison API.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitabwire/ucomparison/model"
)

// statusForCode maps ErrorEnvelope codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:      http.StatusBadRequest,
	model.ErrNotFound:        http.StatusNotFound,
	model.ErrValidationError: http.StatusUnprocessableEntity,
	model.ErrRateLimited:     http.StatusTooManyRequests,
	model.ErrInternalError:   http.StatusInternalServerError,
	model.ErrSessionNotFound: http.StatusNotFound,
	model.ErrUnknownAction:   http.StatusBadRequest,
	model.ErrDataNotLoaded:   http.StatusServiceUnavailable,
	model.ErrSessionLimit:    http.StatusServiceUnavailable,
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if body != nil {
		json.NewEncoder(w).Encode(body)
	}
}

// WriteError writes an ErrorEnvelope as a JSON response with the correct
// HTTP status code. Errors that do not wrap an *ErrorEnvelope become a
// generic 500.
func WriteError(w http.ResponseWriter, err error) {
	writeEnvelope(w, envelopeOf(err), "")
}

// WriteRequestError is WriteError with the trace ID of r's context filled in.
func WriteRequestError(w http.ResponseWriter, r *http.Request, err error) {
	writeEnvelope(w, envelopeOf(err), model.TraceIDFrom(r.Context()))
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewNotFoundError(msg))
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewBadRequestError(msg))
}

// WriteValidationError writes a 422 error response with field-level details.
func WriteValidationError(w http.ResponseWriter, details []model.FieldError) {
	WriteError(w, model.NewValidationError(details))
}

func envelopeOf(err error) *model.ErrorEnvelope {
	var ee *model.ErrorEnvelope
	if errors.As(err, &ee) {
		return ee
	}
	return model.NewInternalError()
}

func writeEnvelope(w http.ResponseWriter, ee *model.ErrorEnvelope, traceID string) {
	status := statusForCode[ee.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	// Envelopes may be shared; stamp the trace ID on a copy.
	out := *ee
	if traceID != "" {
		out.TraceID = traceID
	}

	type errorResponse struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	WriteJSON(w, status, errorResponse{Error: &out})
}
