package controllers

import (
	"net/http"

	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/bind"
	"github.com/atelier/storefront/pkg/response"
)

type AuthController struct {
	service *services.AuthService
	bind    *bind.Binder
}

func NewAuthController(service *services.AuthService, b *bind.Binder) *AuthController {
	return &AuthController{service: service, bind: b}
}

func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := c.bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	tok, err := c.service.Register(r.Context(), in)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, tok)
}

func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := c.bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	tok, err := c.service.Login(r.Context(), in)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, tok)
}

// Me returns the caller's public profile.
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	response.OK(w, user)
}
