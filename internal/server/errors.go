package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/emrgen/ingest/internal/content"
	"github.com/emrgen/ingest/internal/editor"
	"github.com/emrgen/ingest/internal/intake"
	"github.com/emrgen/ingest/internal/model"
	"github.com/emrgen/ingest/internal/module"
	"github.com/emrgen/ingest/internal/preview"
	"github.com/emrgen/ingest/internal/service"
	"github.com/emrgen/ingest/internal/store"
	"github.com/sirupsen/logrus"
)

var errRateLimited = errors.New("rate limit exceeded")

var statusCodes = []struct {
	err  error
	code int
}{
	{content.ErrInvalidJSON, http.StatusBadRequest},
	{content.ErrShapeMismatch, http.StatusUnprocessableEntity},
	{intake.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType},
	{intake.ErrBatchTooLarge, http.StatusRequestEntityTooLarge},
	{store.ErrRecordNotFound, http.StatusNotFound},
	{store.ErrDuplicateRecord, http.StatusConflict},
	{service.ErrMissingField, http.StatusBadRequest},
	{service.ErrKindMismatch, http.StatusBadRequest},
	{model.ErrUnknownKind, http.StatusBadRequest},
	{editor.ErrUnknownField, http.StatusBadRequest},
	{editor.ErrFieldOutOfRange, http.StatusBadRequest},
	{editor.ErrFieldType, http.StatusBadRequest},
	{editor.ErrNoWorkingCopy, http.StatusBadRequest},
	{preview.ErrHandoffNotFound, http.StatusNotFound},
	{preview.ErrUnknownContentType, http.StatusUnprocessableEntity},
	{module.ErrMissingToken, http.StatusUnauthorized},
	{module.ErrInvalidToken, http.StatusUnauthorized},
	{errRateLimited, http.StatusTooManyRequests},
}

// statusCode maps an error to the http status it is reported with.
func statusCode(err error) int {
	var br badRequest
	if errors.As(err, &br) {
		return http.StatusBadRequest
	}

	for _, s := range statusCodes {
		if errors.Is(err, s.err) {
			return s.code
		}
	}

	return http.StatusInternalServerError
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, err error) {
	code := statusCode(err)
	if code == http.StatusInternalServerError {
		logrus.Errorf("internal error: %v", err)
	}

	writeJSON(w, code, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logrus.Errorf("error writing response: %v", err)
	}
}

// badRequest marks a request body that could not be read.
type badRequest struct {
	err error
}

func (b badRequest) Error() string {
	return "bad request: " + b.err.Error()
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest{err: err}
	}

	return nil
}
