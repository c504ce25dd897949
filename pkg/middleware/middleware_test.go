package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/middleware"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRecoveryAnswers500(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"detail":"Internal Server Error"`)
}

func TestCORSEchoesOriginWithCredentials(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions())(ok)

	req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	req.Header.Set("Origin", "https://shop.test")
	rec := serve(h, req)

	assert.Equal(t, "https://shop.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSPreflight(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions("https://shop.test"))(ok)

	req := httptest.NewRequest(http.MethodOptions, "/api/cart", nil)
	req.Header.Set("Origin", "https://shop.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := serve(h, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = serve(h, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestMemoryLimiterWindow(t *testing.T) {
	l := middleware.NewMemoryLimiter(2, time.Minute)
	defer l.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := l.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}
	allowed, _ := l.Allow(ctx, "10.0.0.1")
	assert.False(t, allowed)

	allowed, _ = l.Allow(ctx, "10.0.0.2")
	assert.True(t, allowed)
}

func TestRateLimitRejectsOverBudget(t *testing.T) {
	l := middleware.NewMemoryLimiter(1, time.Minute)
	defer l.Close()
	h := middleware.RateLimit(l)(ok)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, http.StatusOK, serve(h, req).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(h, req).Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	assert.Equal(t, "192.0.2.1", middleware.ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", middleware.ClientIP(req))
}

type caller struct{ admin bool }

func (c caller) IsAdministrator() bool { return c.admin }

type tokenTable map[string]caller

func (t tokenTable) Authenticate(_ context.Context, token string) (middleware.Principal, error) {
	c, found := t[token]
	if !found {
		return nil, apperror.New(apperror.Unauthorized, "Invalid token")
	}
	return c, nil
}

func TestAuthAndRequireAdmin(t *testing.T) {
	tokens := tokenTable{"user-token": {}, "admin-token": {admin: true}}
	protected := middleware.Auth(tokens)(ok)
	admin := middleware.Auth(tokens)(middleware.RequireAdmin(ok))

	req := func(token string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/admin/orders", nil)
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		return r
	}

	assert.Equal(t, http.StatusUnauthorized, serve(protected, req("")).Code)
	assert.Equal(t, http.StatusUnauthorized, serve(protected, req("forged")).Code)
	assert.Equal(t, http.StatusOK, serve(protected, req("user-token")).Code)

	rec := serve(admin, req("user-token"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Admin access required")
	assert.Equal(t, http.StatusOK, serve(admin, req("admin-token")).Code)
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer abc.def")
	assert.Equal(t, "abc.def", middleware.BearerToken(r))

	r.Header.Set("Authorization", "Basic Zm9v")
	assert.Empty(t, middleware.BearerToken(r))
}
