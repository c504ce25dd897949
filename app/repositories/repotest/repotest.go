// Package repotest is the behavioural contract every repositories backend
// must pass. Backends call Run from their own tests:
//
//	func TestContract(t *testing.T) {
//	    repotest.Run(t, func(t *testing.T) *repositories.Store { return memstore.New() })
//	}
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
)

// Opener returns a fresh, empty store for one subtest.
type Opener func(t *testing.T) *repositories.Store

// Run executes every contract test against stores produced by open.
func Run(t *testing.T, open Opener) {
	t.Run("users", func(t *testing.T) { testUsers(t, open(t)) })
	t.Run("products", func(t *testing.T) { testProducts(t, open(t)) })
	t.Run("product_filters", func(t *testing.T) { testProductFilters(t, open(t)) })
	t.Run("cart_lines", func(t *testing.T) { testCartLines(t, open(t)) })
	t.Run("cart_concurrent_merge", func(t *testing.T) { testConcurrentMerge(t, open(t)) })
	t.Run("orders", func(t *testing.T) { testOrders(t, open(t)) })
}

func newUser(name string) *models.User {
	return &models.User{
		ID:           uuid.NewString(),
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newProduct(name, category string, price float64, featured bool, created time.Time) models.Product {
	return models.Product{
		ID:        uuid.NewString(),
		Name:      name,
		Price:     price,
		Category:  category,
		Sizes:     []string{"S", "M"},
		Colors:    []string{"Black"},
		Stock:     10,
		Featured:  featured,
		CreatedAt: created.UTC().Truncate(time.Millisecond),
	}
}

func testUsers(t *testing.T, s *repositories.Store) {
	ctx := context.Background()
	ada := newUser("ada")
	require.NoError(t, s.Users.Create(ctx, ada))

	got, err := s.Users.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = s.Users.FindByUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)

	got, err = s.Users.FindByID(ctx, ada.ID)
	require.NoError(t, err)
	assert.Equal(t, ada.Email, got.Email)

	_, err = s.Users.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	dupEmail := newUser("grace")
	dupEmail.Email = ada.Email
	err = s.Users.Create(ctx, dupEmail)
	assert.ErrorIs(t, err, repositories.ErrDuplicate)

	dupName := newUser("ada")
	dupName.Email = "other@example.com"
	assert.ErrorIs(t, s.Users.Create(ctx, dupName), repositories.ErrDuplicate)
}

func testProducts(t *testing.T, s *repositories.Store) {
	ctx := context.Background()
	now := time.Now()
	tee := newProduct("Essential Cotton Tee", "T-Shirts", 45, false, now)
	require.NoError(t, s.Products.Create(ctx, &tee))

	got, err := s.Products.Get(ctx, tee.ID)
	require.NoError(t, err)
	assert.Equal(t, tee.Name, got.Name)
	assert.Equal(t, []string{"S", "M"}, got.Sizes)

	name := "Heavy Cotton Tee"
	featured := true
	updated, err := s.Products.Update(ctx, tee.ID, models.ProductPatch{Name: &name, Featured: &featured})
	require.NoError(t, err)
	assert.Equal(t, "Heavy Cotton Tee", updated.Name)
	assert.True(t, updated.Featured)
	assert.Equal(t, 45.0, updated.Price, "unpatched fields survive")

	_, err = s.Products.Update(ctx, "missing", models.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	others := []models.Product{
		newProduct("Navy Polo", "Polos", 65, false, now.Add(time.Second)),
		newProduct("Silk Scarf", "Accessories", 85, false, now.Add(2*time.Second)),
	}
	require.NoError(t, s.Products.CreateMany(ctx, others))

	n, err := s.Products.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	many, err := s.Products.GetMany(ctx, []string{tee.ID, others[1].ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, many, 2)
	assert.Equal(t, "Silk Scarf", many[others[1].ID].Name)

	cats, err := s.Products.Categories(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"T-Shirts", "Polos", "Accessories"}, cats)

	require.NoError(t, s.Products.Delete(ctx, tee.ID))
	assert.ErrorIs(t, s.Products.Delete(ctx, tee.ID), repositories.ErrNotFound)
	_, err = s.Products.Get(ctx, tee.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testProductFilters(t *testing.T, s *repositories.Store) {
	ctx := context.Background()
	now := time.Now()
	seed := []models.Product{
		newProduct("Classic White Shirt", "Shirts", 89, true, now),
		newProduct("Oxford Button-Down", "Shirts", 79, false, now.Add(time.Second)),
		newProduct("Structured Wool Coat", "Outerwear", 295, true, now.Add(2*time.Second)),
		newProduct("Merino Wool Cardigan", "Knitwear", 155, false, now.Add(3*time.Second)),
		newProduct("100%_Cotton Tee", "T-Shirts", 45, false, now.Add(4*time.Second)),
	}
	require.NoError(t, s.Products.CreateMany(ctx, seed))

	names := func(ps []models.Product) []string {
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = p.Name
		}
		return out
	}
	list := func(f models.ProductFilter) []models.Product {
		ps, err := s.Products.List(ctx, f)
		require.NoError(t, err)
		return ps
	}

	assert.Len(t, list(models.ProductFilter{}), 5)
	assert.ElementsMatch(t, []string{"Classic White Shirt", "Oxford Button-Down"},
		names(list(models.ProductFilter{Category: "Shirts"})))

	yes, no := true, false
	assert.ElementsMatch(t, []string{"Classic White Shirt", "Structured Wool Coat"},
		names(list(models.ProductFilter{Featured: &yes})))
	assert.Len(t, list(models.ProductFilter{Featured: &no}), 3)

	assert.ElementsMatch(t, []string{"Structured Wool Coat", "Merino Wool Cardigan"},
		names(list(models.ProductFilter{Search: "wOOl"})))
	assert.Empty(t, list(models.ProductFilter{Search: ".*"}), "search is literal")
	assert.Equal(t, []string{"100%_Cotton Tee"}, names(list(models.ProductFilter{Search: "%_"})))

	lo, hi := 79.0, 155.0
	bounded := list(models.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	assert.ElementsMatch(t, []string{"Classic White Shirt", "Oxford Button-Down", "Merino Wool Cardigan"}, names(bounded))
	for _, p := range bounded {
		assert.True(t, p.Price >= lo && p.Price <= hi, p.Name)
	}

	assert.Len(t, list(models.ProductFilter{Limit: 2}), 2)
}

func testCartLines(t *testing.T, s *repositories.Store) {
	ctx := context.Background()
	userID := uuid.NewString()

	require.NoError(t, s.Carts.Ensure(ctx, userID))
	require.NoError(t, s.Carts.Ensure(ctx, userID), "Ensure is idempotent")

	cart, err := s.Carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)

	lazy, err := s.Carts.Get(ctx, uuid.NewString())
	require.NoError(t, err, "Get creates missing carts")
	assert.Empty(t, lazy.Items)

	first := models.CartLine{ID: uuid.NewString(), ProductID: "p-1", Quantity: 2, Size: "M", Color: "Black"}
	require.NoError(t, s.Carts.MergeLine(ctx, userID, first))
	require.NoError(t, s.Carts.MergeLine(ctx, userID, models.CartLine{ID: uuid.NewString(), ProductID: "p-1", Quantity: 3, Size: "M", Color: "Black"}))
	other := models.CartLine{ID: uuid.NewString(), ProductID: "p-1", Quantity: 1, Size: "L", Color: "Black"}
	require.NoError(t, s.Carts.MergeLine(ctx, userID, other))

	cart, err = s.Carts.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 2)
	assert.Equal(t, first.ID, cart.Items[0].ID, "merged line keeps its id")
	assert.Equal(t, 5, cart.Items[0].Quantity)
	assert.Equal(t, other.ID, cart.Items[1].ID, "lines keep insertion order")

	require.NoError(t, s.Carts.SetQuantity(ctx, userID, other.ID, 7))
	assert.ErrorIs(t, s.Carts.SetQuantity(ctx, userID, "missing", 1), repositories.ErrNotFound)

	cart, err = s.Carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.Items[1].Quantity)

	require.NoError(t, s.Carts.PullLine(ctx, userID, first.ID))
	require.NoError(t, s.Carts.PullLine(ctx, userID, first.ID), "PullLine is idempotent")
	cart, err = s.Carts.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, other.ID, cart.Items[0].ID)

	require.NoError(t, s.Carts.Clear(ctx, userID))
	cart, err = s.Carts.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
}

func testConcurrentMerge(t *testing.T, s *repositories.Store) {
	ctx := context.Background()
	userID := uuid.NewString()
	require.NoError(t, s.Carts.Ensure(ctx, userID))

	const writers = 8
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- s.Carts.MergeLine(ctx, userID, models.CartLine{
				ID: uuid.NewString(), ProductID: "p-1", Quantity: 1, Size: "M", Color: "Black",
			})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	cart, err := s.Carts.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1, "one line per variant")
	assert.Equal(t, writers, cart.Items[0].Quantity)
}

func testOrders(t *testing.T, s *repositories.Store) {
	ctx := context.Background()
	owner, stranger := uuid.NewString(), uuid.NewString()
	require.NoError(t, s.Carts.MergeLine(ctx, owner, models.CartLine{ID: uuid.NewString(), ProductID: "p-1", Quantity: 2}))

	base := time.Now().UTC().Truncate(time.Millisecond)
	older := &models.Order{
		ID:     uuid.NewString(),
		UserID: owner,
		Items: []models.OrderLine{{
			ProductID: "p-1", ProductName: "Essential Cotton Tee", Price: 45, Quantity: 2, Subtotal: 90,
		}},
		ShippingAddress: models.ShippingAddress{FullName: "Ada Lovelace", City: "London"},
		Total:           90,
		Status:          models.StatusConfirmed,
		CreatedAt:       base,
	}
	require.NoError(t, s.Orders.Place(ctx, older))

	cart, err := s.Carts.Get(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, cart.Items, "Place clears the cart")

	newer := &models.Order{ID: uuid.NewString(), UserID: owner, Items: []models.OrderLine{}, Status: models.StatusConfirmed, CreatedAt: base.Add(time.Minute)}
	require.NoError(t, s.Orders.Place(ctx, newer))
	foreign := &models.Order{ID: uuid.NewString(), UserID: stranger, Items: []models.OrderLine{}, Status: models.StatusConfirmed, CreatedAt: base.Add(2 * time.Minute)}
	require.NoError(t, s.Orders.Place(ctx, foreign))

	mine, err := s.Orders.ListByUser(ctx, owner, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, newer.ID, mine[0].ID, "newest first")
	assert.Equal(t, older.ID, mine[1].ID)

	got, err := s.Orders.GetForUser(ctx, owner, older.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, 45.0, got.Items[0].Price)
	assert.Equal(t, "Ada Lovelace", got.ShippingAddress.FullName)

	_, err = s.Orders.GetForUser(ctx, stranger, older.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound, "ownership is part of the lookup")

	all, err := s.Orders.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, foreign.ID, all[0].ID)

	require.NoError(t, s.Orders.UpdateStatus(ctx, older.ID, models.StatusShipped))
	got, err = s.Orders.Get(ctx, older.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusShipped, got.Status)

	assert.ErrorIs(t, s.Orders.UpdateStatus(ctx, "missing", models.StatusShipped), repositories.ErrNotFound)
	_, err = s.Orders.Get(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
