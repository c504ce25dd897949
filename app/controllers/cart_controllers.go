package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/bind"
	"github.com/atelier/storefront/pkg/response"
)

type CartController struct {
	cart *services.CartService
	bind *bind.Binder
}

func NewCartController(cart *services.CartService, b *bind.Binder) *CartController {
	return &CartController{cart: cart, bind: b}
}

func (c *CartController) Show(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(user *models.User) (*models.CartView, error) {
		return c.cart.View(r.Context(), user.ID)
	})
}

func (c *CartController) AddItem(w http.ResponseWriter, r *http.Request) {
	var in services.AddItemInput
	if err := c.bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}
	c.respond(w, r, func(user *models.User) (*models.CartView, error) {
		return c.cart.Add(r.Context(), user.ID, in)
	})
}

// UpdateItem sets the line quantity; zero or less removes the line.
func (c *CartController) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateItemInput
	if err := c.bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}
	c.respond(w, r, func(user *models.User) (*models.CartView, error) {
		return c.cart.Update(r.Context(), user.ID, chi.URLParam(r, "id"), *in.Quantity)
	})
}

func (c *CartController) RemoveItem(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(user *models.User) (*models.CartView, error) {
		return c.cart.Remove(r.Context(), user.ID, chi.URLParam(r, "id"))
	})
}

func (c *CartController) Clear(w http.ResponseWriter, r *http.Request) {
	c.respond(w, r, func(user *models.User) (*models.CartView, error) {
		return c.cart.Clear(r.Context(), user.ID)
	})
}

func (c *CartController) respond(w http.ResponseWriter, r *http.Request, op func(*models.User) (*models.CartView, error)) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	view, err := op(user)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, view)
}
