// Package event provides a small synchronous/async event dispatcher.
package event

import (
	"context"
	"fmt"
	"sync"

	"github.com/atelier/storefront/pkg/logger"
)

// Handler receives an event payload.
type Handler func(ctx context.Context, payload any)

// Dispatcher is safe for concurrent use. The zero value is not usable; call
// New.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	wg       sync.WaitGroup
}

func New() *Dispatcher {
	return &Dispatcher{handlers: map[string][]Handler{}}
}

// Listen registers a handler for the given event name.
func (d *Dispatcher) Listen(event string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[event] = append(d.handlers[event], handler)
}

// Fire dispatches an event synchronously to all registered listeners. A
// panicking listener is logged and does not stop the others.
func (d *Dispatcher) Fire(ctx context.Context, event string, payload any) {
	for _, h := range d.snapshot(event) {
		d.call(ctx, event, h, payload)
	}
}

// FireAsync dispatches the event to all listeners concurrently and returns
// immediately. The listeners see a context detached from ctx's cancellation
// so they outlive the request.
func (d *Dispatcher) FireAsync(ctx context.Context, event string, payload any) {
	detached := context.WithoutCancel(ctx)
	for _, h := range d.snapshot(event) {
		d.wg.Add(1)
		go func(h Handler) {
			defer d.wg.Done()
			d.call(detached, event, h, payload)
		}(h)
	}
}

// Wait blocks until every FireAsync listener has returned. Call it on
// shutdown.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Flush removes all listeners.
func (d *Dispatcher) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = map[string][]Handler{}
}

func (d *Dispatcher) snapshot(event string) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	hs := make([]Handler, len(d.handlers[event]))
	copy(hs, d.handlers[event])
	return hs
}

func (d *Dispatcher) call(ctx context.Context, event string, h Handler, payload any) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithCtx(ctx).Error("event listener panicked", "event", event, "error", fmt.Sprint(r))
		}
	}()
	h(ctx, payload)
}
