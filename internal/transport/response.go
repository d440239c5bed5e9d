// Package transport contains the HTTP router, middleware chain, and the
// request handlers of the theme API.
package transport

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pitabwire/obsthemes/internal/catalog"
	"github.com/pitabwire/obsthemes/model"
)

// statusForCode maps ErrorEnvelope codes to HTTP status codes.
var statusForCode = map[string]int{
	model.ErrBadRequest:      http.StatusBadRequest,
	model.ErrNotFound:        http.StatusNotFound,
	model.ErrConflict:        http.StatusConflict,
	model.ErrPayloadTooLarge: http.StatusRequestEntityTooLarge,
	model.ErrUnprocessable:   http.StatusUnprocessableEntity,
	model.ErrInternalError:   http.StatusInternalServerError,
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
// HTTP status code. If err is not an *ErrorEnvelope, a generic 500 is returned.
func WriteError(w http.ResponseWriter, err error) {
	var ee *model.ErrorEnvelope
	if !errors.As(err, &ee) {
		ee = model.NewInternalError()
	}

	status := statusForCode[ee.Code]
	if status == 0 {
		status = http.StatusInternalServerError
	}

	type errorResponse struct {
		Error *model.ErrorEnvelope `json:"error"`
	}
	WriteJSON(w, status, errorResponse{Error: ee})
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewNotFoundError(msg))
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, msg string) {
	WriteError(w, model.NewBadRequestError(msg))
}

// catalogError translates catalog errors into client-facing envelopes. Errors
// it does not recognise are returned unchanged and end up as a 500.
func catalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrInvalidName):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, catalog.ErrInvalidMeta):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, catalog.ErrNotFound):
		return model.NewNotFoundError("Theme not found")
	case errors.Is(err, catalog.ErrExists):
		return model.NewConflictError("File with new_name already exists")
	case errors.Is(err, catalog.ErrNoMetaBlock):
		return model.NewUnprocessableError("Could not find @OBSThemeMeta block")
	}
	return err
}

// bodyError translates a request body read or decode failure.
func bodyError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return model.NewPayloadTooLargeError(limit)
	}
	return model.NewBadRequestError("Invalid request body")
}
