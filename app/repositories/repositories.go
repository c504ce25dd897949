// Package repositories declares one storage interface per entity. Backends
// live in the mongostore, sqlstore and memstore subpackages and all satisfy
// the same contract, checked by the shared suite in repotest.
package repositories

import (
	"context"
	"errors"

	"github.com/atelier/storefront/app/models"
)

// MaxListLimit caps every list query.
const MaxListLimit = 100

var (
	ErrNotFound  = errors.New("repositories: not found")
	ErrDuplicate = errors.New("repositories: duplicate")
)

// DuplicateError names the unique field that collided. errors.Is matches it
// against ErrDuplicate.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return "repositories: duplicate " + e.Field
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

type UserRepo interface {
	// Create fails with *DuplicateError when email or username is taken.
	Create(ctx context.Context, u *models.User) error
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

type ProductRepo interface {
	Create(ctx context.Context, p *models.Product) error
	CreateMany(ctx context.Context, ps []models.Product) error
	Get(ctx context.Context, id string) (*models.Product, error)
	// GetMany returns the products that still exist, keyed by id.
	GetMany(ctx context.Context, ids []string) (map[string]models.Product, error)
	List(ctx context.Context, f models.ProductFilter) ([]models.Product, error)
	Categories(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// CartRepo mutations are atomic per cart; none of them read-modify-write
// the whole line list.
type CartRepo interface {
	// Ensure creates an empty cart for userID if none exists.
	Ensure(ctx context.Context, userID string) error
	// Get returns the cart, creating it if needed.
	Get(ctx context.Context, userID string) (*models.Cart, error)
	// MergeLine adds line.Quantity to the line with the same product, size
	// and color, or appends line when there is none.
	MergeLine(ctx context.Context, userID string, line models.CartLine) error
	// SetQuantity returns ErrNotFound when lineID is not in the cart.
	SetQuantity(ctx context.Context, userID, lineID string, quantity int) error
	// PullLine is a no-op for an unknown lineID.
	PullLine(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
}

type OrderRepo interface {
	// Place stores o and empties the owner's cart.
	Place(ctx context.Context, o *models.Order) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error)
	// GetForUser returns ErrNotFound for orders owned by someone else.
	GetForUser(ctx context.Context, userID, id string) (*models.Order, error)
	Get(ctx context.Context, id string) (*models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users    UserRepo
	Products ProductRepo
	Carts    CartRepo
	Orders   OrderRepo

	closer func(context.Context) error
}

// NewStore is used by the backends.
func NewStore(users UserRepo, products ProductRepo, carts CartRepo, orders OrderRepo, closer func(context.Context) error) *Store {
	return &Store{Users: users, Products: products, Carts: carts, Orders: orders, closer: closer}
}

// Close releases the backend's connections.
func (s *Store) Close(ctx context.Context) error {
	if s.closer == nil {
		return nil
	}
	return s.closer(ctx)
}

// ClampLimit maps a requested limit onto (0, MaxListLimit].
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return MaxListLimit
	}
	return limit
}
