// Package response writes JSON replies. Success bodies are written as-is;
// failures share one envelope whose "detail" key carries the message.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/logger"
)

type failure struct {
	Status int               `json:"status"`
	Detail string            `json:"detail"`
	Errors map[string]string `json:"errors,omitempty"`
}

// JSON sends v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

// OK sends a 200 with v.
func OK(w http.ResponseWriter, v any) {
	JSON(w, http.StatusOK, v)
}

// Message sends {"message": msg}.
func Message(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusOK, map[string]string{"message": msg})
}

// Error sends the failure envelope with an explicit status.
func Error(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, failure{Status: status, Detail: detail})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	JSON(w, http.StatusUnprocessableEntity, failure{
		Status: http.StatusUnprocessableEntity,
		Detail: "Validation failed",
		Errors: errs,
	})
}

// Fail classifies err and answers accordingly. Errors that are not an
// *apperror.Error become a generic 500 and are logged with their cause.
func Fail(w http.ResponseWriter, r *http.Request, err error) {
	ae, ok := apperror.As(err)
	if !ok {
		logger.WithCtx(r.Context()).Error("unhandled error", "error", err, "path", r.URL.Path)
		Error(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	status := apperror.HTTPStatus(ae.Code)
	if status >= http.StatusInternalServerError {
		logger.WithCtx(r.Context()).Error(ae.Message, "error", ae.Err, "path", r.URL.Path)
	}
	if ae.Code == apperror.Validation {
		ValidationError(w, ae.Fields)
		return
	}
	JSON(w, status, failure{Status: status, Detail: ae.Message})
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter, detail string) {
	Error(w, http.StatusUnauthorized, detail)
}

// NotFound sends a 404.
func NotFound(w http.ResponseWriter) {
	Error(w, http.StatusNotFound, "Not Found")
}
