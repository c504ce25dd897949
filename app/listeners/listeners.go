// Package listeners subscribes the default handlers to domain events.
package listeners

import (
	"context"

	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/event"
	"github.com/atelier/storefront/pkg/logger"
	"github.com/atelier/storefront/pkg/metrics"
)

// Register attaches the order listeners to d.
func Register(d *event.Dispatcher) {
	d.Listen(services.EventOrderPlaced, orderPlaced)
	d.Listen(services.EventOrderStatusUpdated, orderStatusUpdated)
}

func orderPlaced(ctx context.Context, payload any) {
	e, ok := payload.(services.OrderPlaced)
	if !ok {
		return
	}
	metrics.OrdersPlaced.Inc()
	metrics.OrderRevenue.Add(e.Order.Total)
	logger.WithCtx(ctx).Debug("order.placed handled", "order_id", e.Order.ID)
}

func orderStatusUpdated(ctx context.Context, payload any) {
	e, ok := payload.(services.OrderStatusUpdated)
	if !ok {
		return
	}
	metrics.OrderStatusChanges.WithLabelValues(string(e.Status)).Inc()
	logger.WithCtx(ctx).Debug("order.status_updated handled", "order_id", e.OrderID, "status", e.Status)
}
