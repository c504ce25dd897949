package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atelier/storefront/pkg/apperror"
)

func TestCodeOfUnwrapsChain(t *testing.T) {
	base := apperror.New(apperror.NotFound, "Product not found")
	wrapped := fmt.Errorf("catalog: %w", base)

	assert.Equal(t, apperror.NotFound, apperror.CodeOf(wrapped))
	assert.Equal(t, apperror.Internal, apperror.CodeOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := apperror.Wrap(apperror.Internal, "could not load cart", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "could not load cart: connection reset", err.Error())
}

func TestHTTPStatus(t *testing.T) {
	cases := map[apperror.Code]int{
		apperror.BadRequest:   http.StatusBadRequest,
		apperror.Conflict:     http.StatusBadRequest,
		apperror.Unauthorized: http.StatusUnauthorized,
		apperror.Forbidden:    http.StatusForbidden,
		apperror.NotFound:     http.StatusNotFound,
		apperror.Validation:   http.StatusUnprocessableEntity,
		apperror.Internal:     http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, apperror.HTTPStatus(code), code.String())
	}
}
