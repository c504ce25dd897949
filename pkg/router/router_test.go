package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/pkg/router"
)

func TestGroupAppliesPrefixAndMiddleware(t *testing.T) {
	r := router.New()
	tag := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			w.Header().Set("X-Group", "api")
			next.ServeHTTP(w, req)
		})
	}

	api := r.Group("/api", tag)
	api.Get("/products/{id}", "products.show", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/p-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p-1", rec.Body.String())
	assert.Equal(t, "api", rec.Header().Get("X-Group"))
}

func TestGroupRootKeepsTrailingSlash(t *testing.T) {
	r := router.New()
	r.Group("/api").Get("/", "root", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestURLSubstitutesParams(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Group("/api/admin").Put("/orders/{id}/status", "admin.orders.status", noop)

	url, err := r.URL("admin.orders.status", map[string]string{"id": "o-9"})
	require.NoError(t, err)
	assert.Equal(t, "/api/admin/orders/o-9/status", url)

	_, err = r.URL("admin.orders.status", nil)
	assert.Error(t, err)

	_, err = r.URL("missing", nil)
	assert.Error(t, err)
}

func TestRoutesAreSorted(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}
	g := r.Group("/api")
	g.Post("/cart/items", "cart.add", noop)
	g.Get("/cart", "cart.show", noop)
	g.Delete("/cart", "cart.clear", noop)

	routes := r.Routes()
	require.Len(t, routes, 3)
	assert.Equal(t, router.RouteInfo{Method: http.MethodDelete, Path: "/api/cart", Name: "cart.clear"}, routes[0])
	assert.Equal(t, http.MethodGet, routes[1].Method)
	assert.Equal(t, "/api/cart/items", routes[2].Path)
}
