package event_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atelier/storefront/pkg/event"
)

func TestFireRunsListenersInOrder(t *testing.T) {
	d := event.New()
	var seen []string
	d.Listen("order.placed", func(_ context.Context, p any) { seen = append(seen, "first:"+p.(string)) })
	d.Listen("order.placed", func(_ context.Context, p any) { seen = append(seen, "second:"+p.(string)) })
	d.Listen("order.status_updated", func(context.Context, any) { seen = append(seen, "other") })

	d.Fire(context.Background(), "order.placed", "o-1")

	assert.Equal(t, []string{"first:o-1", "second:o-1"}, seen)
}

func TestFireSurvivesPanickingListener(t *testing.T) {
	d := event.New()
	var called atomic.Int32
	d.Listen("order.placed", func(context.Context, any) { panic("listener bug") })
	d.Listen("order.placed", func(context.Context, any) { called.Add(1) })

	assert.NotPanics(t, func() { d.Fire(context.Background(), "order.placed", nil) })
	assert.EqualValues(t, 1, called.Load())
}

func TestFireAsyncOutlivesCancelledContext(t *testing.T) {
	d := event.New()
	var live atomic.Bool
	d.Listen("order.placed", func(ctx context.Context, _ any) { live.Store(ctx.Err() == nil) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.FireAsync(ctx, "order.placed", nil)
	d.Wait()

	assert.True(t, live.Load())
}

func TestFlush(t *testing.T) {
	d := event.New()
	var called atomic.Int32
	d.Listen("order.placed", func(context.Context, any) { called.Add(1) })
	d.Flush()

	d.Fire(context.Background(), "order.placed", nil)
	assert.Zero(t, called.Load())
}
