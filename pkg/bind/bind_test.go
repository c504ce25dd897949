package bind_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/bind"
)

type signup struct {
	Username string   `json:"username" validate:"required,min=3"`
	Email    string   `json:"email" validate:"required,email"`
	Price    *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
}

func request(body string) (*httptest.ResponseRecorder, *http.Request) {
	return httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestJSONDecodesValidBody(t *testing.T) {
	w, r := request(`{"username":"ada","email":"ada@example.com"}`)

	var in signup
	require.NoError(t, bind.New(0).JSON(w, r, &in))
	assert.Equal(t, "ada", in.Username)
}

func TestJSONReportsFieldsByJSONName(t *testing.T) {
	w, r := request(`{"username":"a","email":"nope","price":-1}`)

	var in signup
	err := bind.New(0).JSON(w, r, &in)

	ae, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, apperror.Validation, ae.Code)
	assert.Equal(t, "must be at least 3 characters", ae.Fields["username"])
	assert.Equal(t, "must be a valid email address", ae.Fields["email"])
	assert.Equal(t, "must be greater than or equal to 0", ae.Fields["price"])
}

func TestJSONMalformed(t *testing.T) {
	w, r := request(`{"username":`)

	var in signup
	assert.Equal(t, apperror.BadRequest, apperror.CodeOf(bind.New(0).JSON(w, r, &in)))
}

func TestJSONBodyCap(t *testing.T) {
	w, r := request(`{"username":"` + strings.Repeat("x", 64) + `","email":"a@b.co"}`)

	var in signup
	err := bind.New(16).JSON(w, r, &in)
	assert.Equal(t, apperror.BadRequest, apperror.CodeOf(err))
	assert.Contains(t, err.Error(), "too large")
}
