package reqid_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/atelier/storefront/pkg/reqid"
)

func run(header string) (seen, echoed string) {
	h := reqid.Middleware()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = reqid.FromCtx(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(reqid.Header, header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return seen, rec.Header().Get(reqid.Header)
}

func TestMiddlewareKeepsClientID(t *testing.T) {
	seen, echoed := run("client-abc")
	assert.Equal(t, "client-abc", seen)
	assert.Equal(t, "client-abc", echoed)
}

func TestMiddlewareGeneratesID(t *testing.T) {
	seen, echoed := run("")
	assert.Equal(t, seen, echoed)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestMiddlewareReplacesOversizedID(t *testing.T) {
	long := strings.Repeat("x", 200)
	seen, _ := run(long)
	assert.NotEqual(t, long, seen)
	_, err := uuid.Parse(seen)
	assert.NoError(t, err)
}

func TestFromCtxWithoutID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Equal(t, "", reqid.FromCtx(req.Context()))
}
