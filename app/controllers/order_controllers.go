package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/bind"
	"github.com/atelier/storefront/pkg/response"
)

type OrderController struct {
	orders *services.OrderService
	bind   *bind.Binder
}

func NewOrderController(orders *services.OrderService, b *bind.Binder) *OrderController {
	return &OrderController{orders: orders, bind: b}
}

// Store checks out the caller's cart.
func (c *OrderController) Store(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var in services.CreateOrderInput
	if err := c.bind.JSON(w, r, &in); err != nil {
		response.Fail(w, r, err)
		return
	}

	order, err := c.orders.Create(r.Context(), user.ID, in)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, order)
}

func (c *OrderController) Index(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := c.orders.List(r.Context(), user.ID)
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, orders)
}

func (c *OrderController) Show(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	order, err := c.orders.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, order)
}

func (c *OrderController) AdminIndex(w http.ResponseWriter, r *http.Request) {
	orders, err := c.orders.AdminList(r.Context())
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, orders)
}

func (c *OrderController) AdminShow(w http.ResponseWriter, r *http.Request) {
	order, err := c.orders.AdminGet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.OK(w, order)
}

// UpdateStatus reads the new status from the "status" query parameter. A
// missing parameter is a validation error; an empty one is checked like any
// other value.
func (c *OrderController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("status") {
		response.Fail(w, r, apperror.Invalid(map[string]string{"status": "is required"}))
		return
	}

	msg, err := c.orders.AdminUpdateStatus(r.Context(), chi.URLParam(r, "id"), q.Get("status"))
	if err != nil {
		response.Fail(w, r, err)
		return
	}
	response.Message(w, msg)
}
