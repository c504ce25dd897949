// Package controllers adapts HTTP requests to service calls. Handlers bind
// and validate input, call exactly one service operation and write its
// result; every failure goes through response.Fail.
package controllers

import (
	"net/http"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/middleware"
	"github.com/atelier/storefront/pkg/response"
)

const banner = "ATELIER API - Fashion E-Commerce"

// currentUser returns the caller resolved by middleware.Auth.
func currentUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	p, ok := middleware.PrincipalFromCtx(r.Context())
	if u, isUser := p.(*models.User); ok && isUser {
		return u, true
	}
	response.Fail(w, r, apperror.New(apperror.Unauthorized, "Not authenticated"))
	return nil, false
}

// Home answers GET /api/.
func Home(w http.ResponseWriter, _ *http.Request) {
	response.Message(w, banner)
}
