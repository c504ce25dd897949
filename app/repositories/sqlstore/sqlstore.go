// Package sqlstore implements the repositories on GORM, for the sqlite,
// postgres, mysql and sqlserver drivers.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/metrics"
)

// cartRow marks that a user's cart exists.
type cartRow struct {
	UserID    string    `gorm:"primaryKey;size:36"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (cartRow) TableName() string { return "carts" }

// cartLineRow is one line. The unique index makes "one line per variant"
// a database guarantee, and MergeLine an upsert against it.
type cartLineRow struct {
	ID        string    `gorm:"primaryKey;size:36"`
	UserID    string    `gorm:"size:36;not null;uniqueIndex:idx_cart_variant,priority:1;index"`
	ProductID string    `gorm:"size:36;not null;uniqueIndex:idx_cart_variant,priority:2"`
	Size      string    `gorm:"size:50;not null;default:'';uniqueIndex:idx_cart_variant,priority:3"`
	Color     string    `gorm:"size:50;not null;default:'';uniqueIndex:idx_cart_variant,priority:4"`
	Quantity  int       `gorm:"not null"`
	AddedAt   time.Time `gorm:"not null;index"`
}

func (cartLineRow) TableName() string { return "cart_lines" }

// New wraps an open connection. Call Migrate before first use.
func New(db *gorm.DB) *repositories.Store {
	closer := func(context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return repositories.NewStore(&userRepo{db}, &productRepo{db}, &cartRepo{db}, &orderRepo{db}, closer)
}

// Migrate creates or updates the schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Product{}, &cartRow{}, &cartLineRow{}, &models.Order{}); err != nil {
		return fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return repositories.ErrNotFound
	}
	return err
}

type userRepo struct{ db *gorm.DB }

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	defer metrics.ObserveStoreOp("users", "create", time.Now())

	db := r.db.WithContext(ctx)
	if err := r.taken(db, u); err != nil {
		return err
	}
	if err := db.Create(u).Error; err != nil {
		// Lost a race with a concurrent registration.
		if dup := r.taken(db, u); dup != nil {
			return dup
		}
		return fmt.Errorf("sqlstore: create user: %w", err)
	}
	return nil
}

func (r *userRepo) taken(db *gorm.DB, u *models.User) error {
	var n int64
	if err := db.Model(&models.User{}).Where("email = ?", u.Email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &repositories.DuplicateError{Field: "email"}
	}
	if err := db.Model(&models.User{}).Where("username = ?", u.Username).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &repositories.DuplicateError{Field: "username"}
	}
	return nil
}

func (r *userRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userRepo) first(ctx context.Context, query string, arg string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&u).Error; err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

type productRepo struct{ db *gorm.DB }

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	defer metrics.ObserveStoreOp("products", "create", time.Now())
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) CreateMany(ctx context.Context, ps []models.Product) error {
	if len(ps) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(ps, 50).Error
}

func (r *productRepo) Get(ctx context.Context, id string) (*models.Product, error) {
	var p models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

func (r *productRepo) GetMany(ctx context.Context, ids []string) (map[string]models.Product, error) {
	out := make(map[string]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var ps []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ps).Error; err != nil {
		return nil, err
	}
	for _, p := range ps {
		out[p.ID] = p
	}
	return out, nil
}

func (r *productRepo) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	defer metrics.ObserveStoreOp("products", "list", time.Now())

	q := applyFilter(r.db.WithContext(ctx).Model(&models.Product{}), f)
	var ps []models.Product
	err := q.Order("created_at ASC").Order("id ASC").
		Limit(repositories.ClampLimit(f.Limit)).
		Find(&ps).Error
	return ps, err
}

// applyFilter adds one WHERE clause per set field.
func applyFilter(q *gorm.DB, f models.ProductFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Featured != nil {
		q = q.Where("featured = ?", *f.Featured)
	}
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '!'", likePattern(f.Search))
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	return q
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_", "[", "![")

// likePattern turns a user search term into a literal, lower-cased
// substring pattern with '!' as the escape character.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}

func (r *productRepo) Categories(ctx context.Context) ([]string, error) {
	cats := []string{}
	err := r.db.WithContext(ctx).Model(&models.Product{}).
		Distinct("category").Order("category").
		Pluck("category", &cats).Error
	return cats, err
}

func (r *productRepo) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	defer metrics.ObserveStoreOp("products", "update", time.Now())

	var p models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return notFound(err)
		}
		patch.Apply(&p)
		return tx.Save(&p).Error
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repositories.ErrNotFound
	}
	return nil
}

func (r *productRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
	return n, err
}

type cartRepo struct{ db *gorm.DB }

func ensureCart(tx *gorm.DB, userID string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&cartRow{UserID: userID, UpdatedAt: time.Now().UTC()}).Error
}

func touchCart(tx *gorm.DB, userID string) error {
	return tx.Model(&cartRow{}).Where("user_id = ?", userID).Update("updated_at", time.Now().UTC()).Error
}

func (r *cartRepo) Ensure(ctx context.Context, userID string) error {
	return ensureCart(r.db.WithContext(ctx), userID)
}

func (r *cartRepo) Get(ctx context.Context, userID string) (*models.Cart, error) {
	defer metrics.ObserveStoreOp("carts", "get", time.Now())

	db := r.db.WithContext(ctx)
	if err := ensureCart(db, userID); err != nil {
		return nil, err
	}

	var head cartRow
	if err := db.Where("user_id = ?", userID).First(&head).Error; err != nil {
		return nil, notFound(err)
	}
	var rows []cartLineRow
	if err := db.Where("user_id = ?", userID).Order("added_at ASC").Order("id ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	cart := &models.Cart{UserID: userID, Items: make([]models.CartLine, 0, len(rows)), UpdatedAt: head.UpdatedAt}
	for _, row := range rows {
		cart.Items = append(cart.Items, models.CartLine{
			ID:        row.ID,
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Size:      row.Size,
			Color:     row.Color,
		})
	}
	return cart, nil
}

func (r *cartRepo) MergeLine(ctx context.Context, userID string, line models.CartLine) error {
	defer metrics.ObserveStoreOp("carts", "merge_line", time.Now())

	db := r.db.WithContext(ctx)
	if err := ensureCart(db, userID); err != nil {
		return err
	}

	row := cartLineRow{
		ID:        line.ID,
		UserID:    userID,
		ProductID: line.ProductID,
		Size:      line.Size,
		Color:     line.Color,
		Quantity:  line.Quantity,
		AddedAt:   time.Now().UTC(),
	}
	err := db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "size"}, {Name: "color"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity": gorm.Expr("cart_lines.quantity + ?", line.Quantity),
		}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sqlstore: merge cart line: %w", err)
	}
	return touchCart(db, userID)
}

func (r *cartRepo) SetQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	db := r.db.WithContext(ctx)
	scope := db.Model(&cartLineRow{}).Where("user_id = ? AND id = ?", userID, lineID)

	res := scope.Update("quantity", quantity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports 0 rows when the value did not change.
		var n int64
		if err := db.Model(&cartLineRow{}).Where("user_id = ? AND id = ?", userID, lineID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repositories.ErrNotFound
		}
	}
	return touchCart(db, userID)
}

func (r *cartRepo) PullLine(ctx context.Context, userID, lineID string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ? AND id = ?", userID, lineID).Delete(&cartLineRow{}).Error; err != nil {
		return err
	}
	return touchCart(db, userID)
}

func (r *cartRepo) Clear(ctx context.Context, userID string) error {
	return clearCart(r.db.WithContext(ctx), userID)
}

func clearCart(tx *gorm.DB, userID string) error {
	if err := tx.Where("user_id = ?", userID).Delete(&cartLineRow{}).Error; err != nil {
		return err
	}
	return touchCart(tx, userID)
}

type orderRepo struct{ db *gorm.DB }

// Place inserts the order and clears the cart in one transaction.
func (r *orderRepo) Place(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveStoreOp("orders", "place", time.Now())

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("sqlstore: insert order: %w", err)
		}
		if err := ensureCart(tx, o.UserID); err != nil {
			return err
		}
		return clearCart(tx, o.UserID)
	})
}

func (r *orderRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Order, error) {
	return r.list(r.db.WithContext(ctx).Where("user_id = ?", userID), limit)
}

func (r *orderRepo) List(ctx context.Context, limit int) ([]models.Order, error) {
	return r.list(r.db.WithContext(ctx), limit)
}

func (r *orderRepo) list(q *gorm.DB, limit int) ([]models.Order, error) {
	orders := []models.Order{}
	err := q.Order("created_at DESC").Order("id DESC").
		Limit(repositories.ClampLimit(limit)).
		Find(&orders).Error
	return orders, err
}

func (r *orderRepo) GetForUser(ctx context.Context, userID, id string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *orderRepo) Get(ctx context.Context, id string) (*models.Order, error) {
	var o models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id string, status models.OrderStatus) error {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Order{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return repositories.ErrNotFound
		}
	}
	return nil
}
