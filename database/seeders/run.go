// Package seeders loads the demo catalogue and the fixture admin account.
//
// Seeders register themselves by name from init():
//
//	func init() {
//	    seeders.Register("products", seedProducts)
//	}
//
// and run in registration order through RunAll, which both POST /api/seed
// and `atelier seed` call.
package seeders

import (
	"context"
	"fmt"
	"sync"

	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/auth"
	"github.com/atelier/storefront/pkg/logger"
)

// Env is what every seeder receives.
type Env struct {
	Store         *repositories.Store
	Hasher        *auth.Hasher
	AdminEmail    string
	AdminPassword string
}

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, env Env) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the registry. Call it from init().
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll executes every registered seeder in registration order and stops
// on the first error.
func RunAll(ctx context.Context, env Env) error {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	for _, e := range current {
		if err := e.fn(ctx, env); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		logger.WithCtx(ctx).Info("seeder finished", "seeder", e.name)
	}
	return nil
}
