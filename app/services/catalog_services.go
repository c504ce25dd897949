package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/cache"
	"github.com/atelier/storefront/pkg/logger"
	"github.com/atelier/storefront/pkg/metrics"
	"github.com/atelier/storefront/pkg/storage"
)

const (
	msgProductNotFound = "Product not found"
	msgProductDeleted  = "Product deleted successfully"

	categoriesKey = "catalog:categories"

	// MaxImageBytes caps product image uploads.
	MaxImageBytes = 5 << 20
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ProductInput creates a product. Omitted sizes, colors and stock take the
// catalogue defaults.
type ProductInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Price       *float64 `json:"price" validate:"required,gte=0"`
	Category    string   `json:"category" validate:"required"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	ImageURL    string   `json:"image_url"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
	Featured    bool     `json:"featured"`
}

// ImageUpload is one uploaded file.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

type CatalogService struct {
	products repositories.ProductRepo
	cache    cache.Store
	cacheTTL time.Duration
	disk     storage.Disk
}

// NewCatalogService wires the catalogue. c may be cache.Nop{} and disk may
// be nil, in which case image uploads are refused.
func NewCatalogService(products repositories.ProductRepo, c cache.Store, cacheTTL time.Duration, disk storage.Disk) *CatalogService {
	if c == nil {
		c = cache.Nop{}
	}
	return &CatalogService{products: products, cache: c, cacheTTL: cacheTTL, disk: disk}
}

func (s *CatalogService) List(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return []models.Product{}, nil
	}
	f.Limit = repositories.ClampLimit(f.Limit)

	ps, err := s.products.List(ctx, f)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "list products", err)
	}
	if ps == nil {
		ps = []models.Product{}
	}
	return ps, nil
}

// Categories is served from the cache when one is configured; product
// writes drop the cached copy.
func (s *CatalogService) Categories(ctx context.Context) ([]string, error) {
	var cats []string
	if s.cache.Get(ctx, categoriesKey, &cats) {
		metrics.CacheHits.WithLabelValues(categoriesKey).Inc()
		return cats, nil
	}
	metrics.CacheMisses.WithLabelValues(categoriesKey).Inc()

	cats, err := s.products.Categories(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "list categories", err)
	}
	if cats == nil {
		cats = []string{}
	}
	if err := s.cache.Set(ctx, categoriesKey, cats, s.cacheTTL); err != nil {
		logger.WithCtx(ctx).Warn("cache write failed", "key", categoriesKey, "error", err)
	}
	return cats, nil
}

func (s *CatalogService) Get(ctx context.Context, id string) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, productErr(err)
	}
	return p, nil
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*models.Product, error) {
	p := &models.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Category:    in.Category,
		Sizes:       in.Sizes,
		Colors:      in.Colors,
		ImageURL:    in.ImageURL,
		Stock:       models.DefaultStock,
		Featured:    in.Featured,
		CreatedAt:   time.Now().UTC(),
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if p.Sizes == nil {
		p.Sizes = append([]string(nil), models.DefaultSizes...)
	}
	if p.Colors == nil {
		p.Colors = append([]string(nil), models.DefaultColors...)
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "create product", err)
	}
	s.invalidate(ctx)

	logger.WithCtx(ctx).Info("product created", "product_id", p.ID, "name", p.Name)
	return p, nil
}

// Update applies a partial patch. Omitted and null fields are left alone.
func (s *CatalogService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	p, err := s.products.Update(ctx, id, patch)
	if err != nil {
		return nil, productErr(err)
	}
	if patch.Category != nil {
		s.invalidate(ctx)
	}
	return p, nil
}

// Delete returns the confirmation message on success.
func (s *CatalogService) Delete(ctx context.Context, id string) (string, error) {
	if err := s.products.Delete(ctx, id); err != nil {
		return "", productErr(err)
	}
	s.invalidate(ctx)

	logger.WithCtx(ctx).Info("product deleted", "product_id", id)
	return msgProductDeleted, nil
}

// UploadImage stores the file on the configured disk and points the
// product's image_url at it.
func (s *CatalogService) UploadImage(ctx context.Context, id string, up ImageUpload) (*models.Product, error) {
	if s.disk == nil {
		return nil, apperror.New(apperror.BadRequest, "Image uploads are not configured")
	}

	ext := strings.ToLower(path.Ext(up.Filename))
	contentType, ok := imageTypes[ext]
	if !ok {
		return nil, apperror.New(apperror.BadRequest, "Only jpg, jpeg, png, gif and webp images are allowed")
	}
	if up.Size > MaxImageBytes {
		return nil, apperror.New(apperror.BadRequest, "Image must be 5MB or smaller")
	}

	if _, err := s.products.Get(ctx, id); err != nil {
		return nil, productErr(err)
	}

	key := fmt.Sprintf("products/%s/%s%s", id, uuid.NewString(), ext)
	if err := s.disk.Put(ctx, key, io.LimitReader(up.Body, MaxImageBytes+1), contentType); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "store image", err)
	}

	url := s.disk.URL(key)
	p, err := s.products.Update(ctx, id, models.ProductPatch{ImageURL: &url})
	if err != nil {
		_ = s.disk.Delete(ctx, key)
		return nil, productErr(err)
	}

	logger.WithCtx(ctx).Info("product image uploaded", "product_id", id, "key", key)
	return p, nil
}

func (s *CatalogService) invalidate(ctx context.Context) {
	invalidateCategories(ctx, s.cache)
}

// invalidateCategories drops the cached category list. A failed delete is
// logged and otherwise ignored; the entry still expires with its TTL.
func invalidateCategories(ctx context.Context, c cache.Store) {
	if err := c.Del(ctx, categoriesKey); err != nil {
		logger.WithCtx(ctx).Warn("cache invalidation failed", "key", categoriesKey, "error", err)
	}
}

func productErr(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return apperror.New(apperror.NotFound, msgProductNotFound)
	}
	return apperror.Wrap(apperror.Internal, "product store", err)
}
