// Package kernel builds the storefront's HTTP handler: the global
// middleware stack, the operational endpoints and the API routes.
package kernel

import (
	"net/http"

	"github.com/atelier/storefront/app/routes"
	"github.com/atelier/storefront/pkg/metrics"
	"github.com/atelier/storefront/pkg/middleware"
	"github.com/atelier/storefront/pkg/reqid"
	"github.com/atelier/storefront/pkg/response"
	"github.com/atelier/storefront/pkg/router"
)

// Options configures the handler. A nil Limiter disables rate limiting; an
// empty StorageRoot leaves /storage unmounted.
type Options struct {
	CORSOrigins []string
	Limiter     middleware.Limiter
	StorageRoot string
	API         routes.Deps
}

// New returns the router with every route registered. Call Handler on it to
// serve.
func New(opts Options) *router.Router {
	r := router.New()

	// Outermost first: metrics sees total latency, recovery guards
	// everything below it, and the request ID exists before anything logs.
	r.Use(metrics.Middleware())
	r.Use(middleware.Recovery)
	r.Use(reqid.Middleware())
	r.Use(middleware.Logger)
	r.Use(middleware.CORS(middleware.DefaultCORSOptions(opts.CORSOrigins...)))
	if opts.Limiter != nil {
		r.Use(middleware.RateLimit(opts.Limiter))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.NotFound(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/metrics", "metrics", metrics.Handler())
	r.Get("/health", "health", func(w http.ResponseWriter, _ *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})
	if opts.StorageRoot != "" {
		r.Mount("/storage", http.StripPrefix("/storage", http.FileServer(http.Dir(opts.StorageRoot))))
	}

	routes.RegisterAPI(r, opts.API)
	return r
}
