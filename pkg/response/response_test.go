package response_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/response"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestFailUsesDetailKey(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/products/x", nil)

	response.Fail(rec, req, apperror.New(apperror.NotFound, "Product not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Product not found", body["detail"])
	assert.EqualValues(t, 404, body["status"])
}

func TestFailConflictIsBadRequest(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", nil)

	response.Fail(rec, req, apperror.New(apperror.Conflict, "Email already registered"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Email already registered", decode(t, rec)["detail"])
}

func TestFailValidationCarriesFields(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/cart/items", nil)

	response.Fail(rec, req, apperror.Invalid(map[string]string{"quantity": "must be at least 1"}))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, map[string]any{"quantity": "must be at least 1"}, body["errors"])
}

func TestFailHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)

	response.Fail(rec, req, errors.New("socket closed"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal Server Error", decode(t, rec)["detail"])
}

func TestJSONWritesRawBody(t *testing.T) {
	rec := httptest.NewRecorder()
	response.OK(rec, map[string]any{"categories": []string{"Shirts"}})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"categories":["Shirts"]}`, rec.Body.String())
}
