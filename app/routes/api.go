// Package routes registers every storefront endpoint under /api.
package routes

import (
	"github.com/atelier/storefront/app/controllers"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/bind"
	"github.com/atelier/storefront/pkg/middleware"
	"github.com/atelier/storefront/pkg/router"
)

// Deps are the services the API is built from. Seed may be nil, which
// leaves POST /api/seed unmounted.
type Deps struct {
	Auth    *services.AuthService
	Catalog *services.CatalogService
	Cart    *services.CartService
	Orders  *services.OrderService
	Seed    *services.SeedService
	Binder  *bind.Binder
}

func RegisterAPI(r *router.Router, d Deps) {
	authController := controllers.NewAuthController(d.Auth, d.Binder)
	productController := controllers.NewProductController(d.Catalog, d.Binder)
	cartController := controllers.NewCartController(d.Cart, d.Binder)
	orderController := controllers.NewOrderController(d.Orders, d.Binder)

	authed := middleware.Auth(d.Auth)

	api := r.Group("/api")
	api.Get("/", "home", controllers.Home)

	api.Post("/auth/register", "auth.register", authController.Register)
	api.Post("/auth/login", "auth.login", authController.Login)
	api.Get("/auth/me", "auth.me", authController.Me, authed)

	api.Get("/products", "products.index", productController.Index)
	api.Get("/products/categories", "products.categories", productController.Categories)
	api.Get("/products/{id}", "products.show", productController.Show)

	cart := api.Group("/cart", authed)
	cart.Get("", "cart.show", cartController.Show)
	cart.Delete("", "cart.clear", cartController.Clear)
	cart.Post("/items", "cart.items.store", cartController.AddItem)
	cart.Put("/items/{id}", "cart.items.update", cartController.UpdateItem)
	cart.Delete("/items/{id}", "cart.items.destroy", cartController.RemoveItem)

	orders := api.Group("/orders", authed)
	orders.Post("", "orders.store", orderController.Store)
	orders.Get("", "orders.index", orderController.Index)
	orders.Get("/{id}", "orders.show", orderController.Show)

	admin := api.Group("/admin", authed, middleware.RequireAdmin)
	admin.Post("/products", "admin.products.store", productController.Store)
	admin.Put("/products/{id}", "admin.products.update", productController.Update)
	admin.Delete("/products/{id}", "admin.products.destroy", productController.Destroy)
	admin.Post("/products/{id}/image", "admin.products.image", productController.UploadImage)
	admin.Get("/orders", "admin.orders.index", orderController.AdminIndex)
	admin.Get("/orders/{id}", "admin.orders.show", orderController.AdminShow)
	admin.Put("/orders/{id}/status", "admin.orders.status", orderController.UpdateStatus)

	if d.Seed != nil {
		api.Post("/seed", "seed", controllers.NewSeedController(d.Seed).Seed)
	}
}
