// Package bind decodes and validates an HTTP request body into a struct.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/atelier/storefront/pkg/apperror"
)

const defaultMaxBodyBytes = 4 << 20

// Binder is safe for concurrent use; build one at startup.
type Binder struct {
	maxBody  int64
	validate *validator.Validate
}

// New returns a Binder capping bodies at maxBody bytes (4 MB when <= 0).
func New(maxBody int64) *Binder {
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	return &Binder{maxBody: maxBody, validate: v}
}

// JSON decodes r.Body into dest and validates it. Malformed or oversized
// bodies are BadRequest; rule violations are Validation with one message
// per field.
func (b *Binder) JSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, b.maxBody)

	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return apperror.New(apperror.BadRequest, fmt.Sprintf("request body too large (max %d bytes)", maxErr.Limit))
		case errors.Is(err, io.EOF):
			return apperror.New(apperror.BadRequest, "request body is empty")
		default:
			return apperror.Wrap(apperror.BadRequest, "invalid JSON", err)
		}
	}

	return b.Struct(dest)
}

// Struct validates an already populated value.
func (b *Binder) Struct(v any) error {
	err := b.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperror.Wrap(apperror.Internal, "validation failed", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = message(fe)
	}
	return apperror.Invalid(fields)
}

// fieldPath drops the root struct name: "RegisterInput.email" → "email".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return fe.Field()
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "url":
		return "must be a valid URL"
	default:
		return "failed the " + fe.Tag() + " rule"
	}
}
