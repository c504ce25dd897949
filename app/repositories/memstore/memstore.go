// Package memstore keeps every collection in process memory behind one
// lock. It backs DB_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
)

type db struct {
	mu       sync.RWMutex
	users    map[string]models.User
	products map[string]models.Product
	carts    map[string]models.Cart
	orders   map[string]models.Order
}

// New returns an empty store.
func New() *repositories.Store {
	d := &db{
		users:    map[string]models.User{},
		products: map[string]models.Product{},
		carts:    map[string]models.Cart{},
		orders:   map[string]models.Order{},
	}
	return repositories.NewStore(&userRepo{d}, &productRepo{d}, &cartRepo{d}, &orderRepo{d}, nil)
}

type userRepo struct{ *db }

func (r *userRepo) Create(_ context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return &repositories.DuplicateError{Field: "email"}
		}
		if existing.Username == u.Username {
			return &repositories.DuplicateError{Field: "username"}
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *userRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Email == email })
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	return r.findBy(func(u models.User) bool { return u.Username == username })
}

func (r *userRepo) findBy(match func(models.User) bool) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

type productRepo struct{ *db }

func (r *productRepo) Create(_ context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *productRepo) CreateMany(_ context.Context, ps []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range ps {
		r.products[p.ID] = cloneProduct(p)
	}
	return nil
}

func (r *productRepo) Get(_ context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	p = cloneProduct(p)
	return &p, nil
}

func (r *productRepo) GetMany(_ context.Context, ids []string) (map[string]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]models.Product, len(ids))
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = cloneProduct(p)
		}
	}
	return out, nil
}

func (r *productRepo) List(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(f.Search)
	out := []models.Product{}
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Featured != nil && p.Featured != *f.Featured {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		out = append(out, cloneProduct(p))
	}

	// Map order is random; give callers insertion order like the other
	// backends.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})

	if limit := repositories.ClampLimit(f.Limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *productRepo) Categories(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range r.products {
		if _, dup := seen[p.Category]; dup {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	sort.Strings(out)
	return out, nil
}

func (r *productRepo) Update(_ context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	patch.Apply(&p)
	r.products[id] = p

	p = cloneProduct(p)
	return &p, nil
}

func (r *productRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *productRepo) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

type cartRepo struct{ *db }

// ensureLocked must be called with mu held for writing.
func (r *cartRepo) ensureLocked(userID string) models.Cart {
	c, ok := r.carts[userID]
	if !ok {
		c = models.Cart{UserID: userID, Items: []models.CartLine{}, UpdatedAt: time.Now().UTC()}
		r.carts[userID] = c
	}
	return c
}

func (r *cartRepo) Ensure(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureLocked(userID)
	return nil
}

func (r *cartRepo) Get(_ context.Context, userID string) (*models.Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := cloneCart(r.ensureLocked(userID))
	return &c, nil
}

func (r *cartRepo) MergeLine(_ context.Context, userID string, line models.CartLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := cloneCart(r.ensureLocked(userID))
	merged := false
	for i := range c.Items {
		if c.Items[i].SameVariant(line) {
			c.Items[i].Quantity += line.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, line)
	}
	c.UpdatedAt = time.Now().UTC()
	r.carts[userID] = c
	return nil
}

func (r *cartRepo) SetQuantity(_ context.Context, userID, lineID string, quantity int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := cloneCart(r.ensureLocked(userID))
	for i := range c.Items {
		if c.Items[i].ID == lineID {
			c.Items[i].Quantity = quantity
			c.UpdatedAt = time.Now().UTC()
			r.carts[userID] = c
			return nil
		}
	}
	return repositories.ErrNotFound
}

func (r *cartRepo) PullLine(_ context.Context, userID, lineID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.ensureLocked(userID)
	kept := make([]models.CartLine, 0, len(c.Items))
	for _, l := range c.Items {
		if l.ID != lineID {
			kept = append(kept, l)
		}
	}
	c.Items = kept
	c.UpdatedAt = time.Now().UTC()
	r.carts[userID] = c
	return nil
}

func (r *cartRepo) Clear(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearLocked(userID)
	return nil
}

func (r *cartRepo) clearLocked(userID string) {
	c := r.ensureLocked(userID)
	c.Items = []models.CartLine{}
	c.UpdatedAt = time.Now().UTC()
	r.carts[userID] = c
}

type orderRepo struct{ *db }

// Place holds the single lock across both writes, so it is atomic.
func (r *orderRepo) Place(_ context.Context, o *models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.orders[o.ID] = cloneOrder(*o)
	(&cartRepo{r.db}).clearLocked(o.UserID)
	return nil
}

func (r *orderRepo) ListByUser(_ context.Context, userID string, limit int) ([]models.Order, error) {
	return r.list(limit, func(o models.Order) bool { return o.UserID == userID }), nil
}

func (r *orderRepo) List(_ context.Context, limit int) ([]models.Order, error) {
	return r.list(limit, func(models.Order) bool { return true }), nil
}

func (r *orderRepo) list(limit int, match func(models.Order) bool) []models.Order {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Order{}
	for _, o := range r.orders {
		if match(o) {
			out = append(out, cloneOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	if limit = repositories.ClampLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (r *orderRepo) GetForUser(_ context.Context, userID, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok || o.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *orderRepo) Get(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	o = cloneOrder(o)
	return &o, nil
}

func (r *orderRepo) UpdateStatus(_ context.Context, id string, status models.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return repositories.ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func cloneProduct(p models.Product) models.Product {
	p.Sizes = append([]string(nil), p.Sizes...)
	p.Colors = append([]string(nil), p.Colors...)
	return p
}

func cloneCart(c models.Cart) models.Cart {
	c.Items = append([]models.CartLine{}, c.Items...)
	return c
}

func cloneOrder(o models.Order) models.Order {
	o.Items = append([]models.OrderLine{}, o.Items...)
	return o
}
