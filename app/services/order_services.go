package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/event"
	"github.com/atelier/storefront/pkg/logger"
	"github.com/atelier/storefront/pkg/money"
)

const (
	msgCartEmpty     = "Cart is empty"
	msgOrderNotFound = "Order not found"
)

// Events fired by OrderService.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusUpdated = "order.status_updated"
)

// OrderPlaced is the payload of EventOrderPlaced.
type OrderPlaced struct {
	Order models.Order
}

// OrderStatusUpdated is the payload of EventOrderStatusUpdated.
type OrderStatusUpdated struct {
	OrderID string
	Status  models.OrderStatus
}

type CreateOrderInput struct {
	ShippingAddress *models.ShippingAddress `json:"shipping_address" validate:"required"`
}

type OrderService struct {
	orders   repositories.OrderRepo
	carts    repositories.CartRepo
	products repositories.ProductRepo
	events   *event.Dispatcher
}

// NewOrderService wires checkout. events may be nil.
func NewOrderService(orders repositories.OrderRepo, carts repositories.CartRepo, products repositories.ProductRepo, events *event.Dispatcher) *OrderService {
	return &OrderService{orders: orders, carts: carts, products: products, events: events}
}

// Create snapshots the cart into a confirmed order and empties the cart.
// Lines whose product has been deleted are skipped.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (*models.Order, error) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "load cart", err)
	}
	if len(cart.Items) == 0 {
		return nil, apperror.New(apperror.BadRequest, msgCartEmpty)
	}

	ids := make([]string, 0, len(cart.Items))
	for _, l := range cart.Items {
		ids = append(ids, l.ProductID)
	}
	products, err := s.products.GetMany(ctx, ids)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "load cart products", err)
	}

	order := &models.Order{
		ID:        uuid.NewString(),
		UserID:    userID,
		Items:     make([]models.OrderLine, 0, len(cart.Items)),
		Status:    models.StatusConfirmed,
		CreatedAt: time.Now().UTC(),
	}
	if in.ShippingAddress != nil {
		order.ShippingAddress = *in.ShippingAddress
	}

	subtotals := make([]float64, 0, len(cart.Items))
	for _, line := range cart.Items {
		p, ok := products[line.ProductID]
		if !ok {
			logger.WithCtx(ctx).Warn("checkout skipped a deleted product",
				"user_id", userID, "line_id", line.ID, "product_id", line.ProductID)
			continue
		}
		sub := money.Subtotal(p.Price, line.Quantity)
		subtotals = append(subtotals, sub)
		order.Items = append(order.Items, models.OrderLine{
			ProductID:    p.ID,
			ProductName:  p.Name,
			ProductImage: p.ImageURL,
			Price:        p.Price,
			Quantity:     line.Quantity,
			Size:         line.Size,
			Color:        line.Color,
			Subtotal:     sub,
		})
	}
	order.Total = money.Sum(subtotals...)

	if err := s.orders.Place(ctx, order); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "place order", err)
	}

	logger.WithCtx(ctx).Info("order placed", "order_id", order.ID, "user_id", userID, "total", order.Total, "lines", len(order.Items))
	s.fire(ctx, EventOrderPlaced, OrderPlaced{Order: *order})
	return order, nil
}

// List returns the caller's orders, newest first.
func (s *OrderService) List(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.orders.ListByUser(ctx, userID, repositories.MaxListLimit)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "list orders", err)
	}
	return nonNil(orders), nil
}

// Get hides orders owned by other users behind NotFound.
func (s *OrderService) Get(ctx context.Context, userID, id string) (*models.Order, error) {
	o, err := s.orders.GetForUser(ctx, userID, id)
	if err != nil {
		return nil, orderErr(err)
	}
	return o, nil
}

func (s *OrderService) AdminList(ctx context.Context) ([]models.Order, error) {
	orders, err := s.orders.List(ctx, repositories.MaxListLimit)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "list orders", err)
	}
	return nonNil(orders), nil
}

func (s *OrderService) AdminGet(ctx context.Context, id string) (*models.Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, orderErr(err)
	}
	return o, nil
}

// AdminUpdateStatus overwrites the status. Any status may follow any other.
func (s *OrderService) AdminUpdateStatus(ctx context.Context, id, status string) (string, error) {
	st := models.OrderStatus(status)
	if !st.Valid() {
		return "", apperror.New(apperror.BadRequest, "Invalid status. Valid options: "+statusOptions())
	}

	if err := s.orders.UpdateStatus(ctx, id, st); err != nil {
		return "", orderErr(err)
	}

	logger.WithCtx(ctx).Info("order status updated", "order_id", id, "status", st)
	s.fire(ctx, EventOrderStatusUpdated, OrderStatusUpdated{OrderID: id, Status: st})
	return fmt.Sprintf("Order status updated to %s", st), nil
}

func (s *OrderService) fire(ctx context.Context, name string, payload any) {
	if s.events != nil {
		s.events.FireAsync(ctx, name, payload)
	}
}

// statusOptions renders the list the way clients already parse it:
// ['confirmed', 'processing', ...].
func statusOptions() string {
	quoted := make([]string, len(models.OrderStatuses))
	for i, s := range models.OrderStatuses {
		quoted[i] = "'" + string(s) + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

func orderErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.New(apperror.NotFound, msgOrderNotFound)
	}
	return apperror.Wrap(apperror.Internal, "order store", err)
}

// nonNil keeps empty listings encoding as [] rather than null.
func nonNil(orders []models.Order) []models.Order {
	if orders == nil {
		return []models.Order{}
	}
	return orders
}
