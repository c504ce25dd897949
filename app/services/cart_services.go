package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/logger"
	"github.com/atelier/storefront/pkg/money"
)

const msgCartItemNotFound = "Cart item not found"

// AddItemInput adds a product variant. Quantity defaults to 1.
type AddItemInput struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1"`
	Size      string `json:"size" validate:"required"`
	Color     string `json:"color" validate:"required"`
}

type UpdateItemInput struct {
	Quantity *int `json:"quantity" validate:"required"`
}

// CartService recomputes the cart against live product data after every
// read and mutation.
type CartService struct {
	carts    repositories.CartRepo
	products repositories.ProductRepo
}

func NewCartService(carts repositories.CartRepo, products repositories.ProductRepo) *CartService {
	return &CartService{carts: carts, products: products}
}

func (s *CartService) View(ctx context.Context, userID string) (*models.CartView, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "load cart", err)
	}
	products, err := s.lineProducts(ctx, cart.Items)
	if err != nil {
		return nil, err
	}

	view := &models.CartView{Items: []models.CartItemView{}}
	subtotals := make([]float64, 0, len(cart.Items))
	for _, line := range cart.Items {
		p, ok := products[line.ProductID]
		if !ok {
			logger.WithCtx(ctx).Warn("cart line references a deleted product",
				"user_id", userID, "line_id", line.ID, "product_id", line.ProductID)
			continue
		}
		sub := money.Subtotal(p.Price, line.Quantity)
		subtotals = append(subtotals, sub)
		view.Items = append(view.Items, models.CartItemView{
			ID:           line.ID,
			ProductID:    line.ProductID,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
			Price:        p.Price,
			Quantity:     line.Quantity,
			Size:         line.Size,
			Color:        line.Color,
			Subtotal:     sub,
		})
	}
	view.Total = money.Sum(subtotals...)
	view.ItemCount = len(view.Items)
	return view, nil
}

// Add merges into the line with the same product, size and color, or
// appends a new line.
func (s *CartService) Add(ctx context.Context, userID string, in AddItemInput) (*models.CartView, error) {
	if _, err := s.products.Get(ctx, in.ProductID); err != nil {
		return nil, productErr(err)
	}

	qty := 1
	if in.Quantity != nil {
		qty = *in.Quantity
	}
	line := models.CartLine{
		ID:        uuid.NewString(),
		ProductID: in.ProductID,
		Quantity:  qty,
		Size:      in.Size,
		Color:     in.Color,
	}
	if err := s.carts.MergeLine(ctx, userID, line); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "add cart line", err)
	}
	return s.View(ctx, userID)
}

// Update sets the quantity exactly; zero or less removes the line.
func (s *CartService) Update(ctx context.Context, userID, lineID string, quantity int) (*models.CartView, error) {
	if quantity <= 0 {
		return s.Remove(ctx, userID, lineID)
	}

	err := s.carts.SetQuantity(ctx, userID, lineID, quantity)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.New(apperror.NotFound, msgCartItemNotFound)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "update cart line", err)
	}
	return s.View(ctx, userID)
}

// Remove is idempotent.
func (s *CartService) Remove(ctx context.Context, userID, lineID string) (*models.CartView, error) {
	if err := s.carts.PullLine(ctx, userID, lineID); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "remove cart line", err)
	}
	return s.View(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID string) (*models.CartView, error) {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "clear cart", err)
	}
	return s.View(ctx, userID)
}

func (s *CartService) lineProducts(ctx context.Context, lines []models.CartLine) (map[string]models.Product, error) {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if !seen[l.ProductID] {
			seen[l.ProductID] = true
			ids = append(ids, l.ProductID)
		}
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "load cart products", err)
	}
	return products, nil
}
