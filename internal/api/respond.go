// internal/api/respond.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"bizpilot/internal/common/errors"
	"bizpilot/internal/common/validation"
	"bizpilot/internal/store"
)

const maxBodyBytes = 1 << 20

// Envelope is the body of every JSON response.
type Envelope struct {
	Success bool                         `json:"success"`
	Message string                       `json:"message,omitempty"`
	Data    interface{}                  `json:"data,omitempty"`
	Errors  []validation.ValidationError `json:"errors,omitempty"`
	Code    errors.ErrorCode             `json:"code,omitempty"`
}

// invalidRequest carries field errors from schema validation.
type invalidRequest struct {
	errs []validation.ValidationError
}

func (e *invalidRequest) Error() string {
	return fmt.Sprintf("validation failed: %d field error(s)", len(e.errs))
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func (s *Server) ok(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

// fail maps err to a status and writes the error envelope. Server side
// failures are logged with their details, which never reach the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var invalid *invalidRequest
	if stderrors.As(err, &invalid) {
		writeJSON(w, http.StatusBadRequest, Envelope{
			Message: "Validation failed",
			Errors:  invalid.errs,
			Code:    errors.ErrCodeValidationFailed,
		})
		return
	}

	stdErr := errors.Normalize(err)
	status := errors.HTTPStatus(stdErr.Code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", map[string]interface{}{
			"method":    r.Method,
			"path":      r.URL.Path,
			"requestId": requestState(r).RequestID,
			"code":      stdErr.Code,
			"details":   stdErr.Details,
			"error":     err.Error(),
		})
	}
	writeJSON(w, status, Envelope{Message: stdErr.Message, Code: stdErr.Code})
}

// shown replaces the generic message of e with one meant for the client.
func shown(e *errors.StandardError, message string) *errors.StandardError {
	e.Message = message
	return e
}

func unauthorized(message string) *errors.StandardError {
	return shown(errors.NewUnauthorizedError(message), message)
}

func rejected(message string) *errors.StandardError {
	return shown(errors.NewUploadRejectedError(message), message)
}

// notFound translates the store's sentinel for resource.
func notFound(err error, resource, id string) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.NewNotFoundError(resource, id)
	}
	return errors.NewQueryExecutionFailedError(resource, err)
}

// bind reads a JSON body, validates it against schema and decodes it into dst.
func bind(r *http.Request, schema *validation.Schema, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return errors.NewValidationError("unreadable request body")
	}
	if len(body) > maxBodyBytes {
		return errors.NewValidationError("request body too large")
	}

	res, err := schema.ValidateJSON(body)
	if err != nil {
		return errors.NewValidationError("request body must be a JSON object")
	}
	if !res.Valid {
		return &invalidRequest{errs: res.Errors}
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

// intQuery parses a positive integer query parameter, returning def when it
// is missing or malformed.
func intQuery(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || v < 1 {
		return def
	}
	return v
}
