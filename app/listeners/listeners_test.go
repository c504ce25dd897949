package listeners_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/atelier/storefront/app/listeners"
	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/event"
	"github.com/atelier/storefront/pkg/metrics"
)

func TestOrderListenersUpdateMetrics(t *testing.T) {
	d := event.New()
	listeners.Register(d)
	ctx := context.Background()

	placed := testutil.ToFloat64(metrics.OrdersPlaced)
	revenue := testutil.ToFloat64(metrics.OrderRevenue)
	shipped := testutil.ToFloat64(metrics.OrderStatusChanges.WithLabelValues("shipped"))

	d.Fire(ctx, services.EventOrderPlaced, services.OrderPlaced{Order: models.Order{ID: "o-1", Total: 90}})
	d.Fire(ctx, services.EventOrderStatusUpdated, services.OrderStatusUpdated{OrderID: "o-1", Status: models.StatusShipped})
	d.Fire(ctx, services.EventOrderPlaced, "not a payload")

	assert.Equal(t, placed+1, testutil.ToFloat64(metrics.OrdersPlaced))
	assert.Equal(t, revenue+90, testutil.ToFloat64(metrics.OrderRevenue))
	assert.Equal(t, shipped+1, testutil.ToFloat64(metrics.OrderStatusChanges.WithLabelValues("shipped")))
}
