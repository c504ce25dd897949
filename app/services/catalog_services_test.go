package services_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/storage"
)

func TestCreateAppliesDefaults(t *testing.T) {
	e := newEnv(t)
	p := e.product(t, "Navy Polo", 65)

	assert.NotEmpty(t, p.ID)
	assert.False(t, p.CreatedAt.IsZero())
	assert.Equal(t, models.DefaultSizes, p.Sizes)
	assert.Equal(t, models.DefaultColors, p.Colors)
	assert.Equal(t, models.DefaultStock, p.Stock)
	assert.False(t, p.Featured)

	got, err := e.catalog.Get(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Navy Polo", got.Name)
}

func TestCreateKeepsExplicitZeroStock(t *testing.T) {
	e := newEnv(t)
	price, stock := 10.0, 0
	p, err := e.catalog.Create(context.Background(), services.ProductInput{
		Name: "Sold Out", Price: &price, Category: "Misc", Stock: &stock, Sizes: []string{"M"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, []string{"M"}, p.Sizes)
}

func TestGetUpdateDeleteMissing(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.catalog.Get(ctx, "missing")
	assertCode(t, err, apperror.NotFound, "Product not found")

	name := "x"
	_, err = e.catalog.Update(ctx, "missing", models.ProductPatch{Name: &name})
	assertCode(t, err, apperror.NotFound, "Product not found")

	_, err = e.catalog.Delete(ctx, "missing")
	assertCode(t, err, apperror.NotFound, "Product not found")
}

func TestUpdateIsPartial(t *testing.T) {
	e := newEnv(t)
	p := e.product(t, "Linen Blazer", 185)

	price := 150.0
	got, err := e.catalog.Update(context.Background(), p.ID, models.ProductPatch{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 150.0, got.Price)
	assert.Equal(t, "Linen Blazer", got.Name)
	assert.Equal(t, p.Sizes, got.Sizes)
}

func TestDeleteRemovesProduct(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	p := e.product(t, "Silk Scarf", 85)

	msg, err := e.catalog.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Product deleted successfully", msg)

	_, err = e.catalog.Get(ctx, p.ID)
	assertCode(t, err, apperror.NotFound, "")
}

func TestListPriceBoundsAreInclusive(t *testing.T) {
	e := newEnv(t)
	for i, price := range []float64{45, 65, 89, 95, 125} {
		e.product(t, "P"+string(rune('A'+i)), price)
	}

	lo, hi := 65.0, 95.0
	ps, err := e.catalog.List(context.Background(), models.ProductFilter{MinPrice: &lo, MaxPrice: &hi})
	require.NoError(t, err)
	require.Len(t, ps, 3)
	for _, p := range ps {
		assert.GreaterOrEqual(t, p.Price, lo)
		assert.LessOrEqual(t, p.Price, hi)
	}

	ps, err = e.catalog.List(context.Background(), models.ProductFilter{MinPrice: &hi, MaxPrice: &lo})
	require.NoError(t, err)
	assert.Empty(t, ps)
}

func TestCategoriesCacheIsInvalidatedOnWrite(t *testing.T) {
	e := newEnv(t)
	c := newMapCache()
	catalog := services.NewCatalogService(e.store.Products, c, time.Minute, nil)
	ctx := context.Background()

	price := 10.0
	_, err := catalog.Create(ctx, services.ProductInput{Name: "Tee", Price: &price, Category: "T-Shirts"})
	require.NoError(t, err)

	cats, err := catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T-Shirts"}, cats)
	assert.Equal(t, 1, c.sets)

	cats, err = catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T-Shirts"}, cats)
	assert.Equal(t, 1, c.sets, "second read is a cache hit")

	_, err = catalog.Create(ctx, services.ProductInput{Name: "Coat", Price: &price, Category: "Outerwear"})
	require.NoError(t, err)

	cats, err = catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Outerwear", "T-Shirts"}, cats)
}

func TestUploadImage(t *testing.T) {
	e := newEnv(t)
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost:8000/storage")
	require.NoError(t, err)
	catalog := services.NewCatalogService(e.store.Products, nil, time.Minute, disk)
	ctx := context.Background()
	p := e.product(t, "Denim Jacket", 125)

	body := []byte("\x89PNG fake image")
	got, err := catalog.UploadImage(ctx, p.ID, services.ImageUpload{
		Filename: "Jacket.PNG", Size: int64(len(body)), Body: bytes.NewReader(body),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got.ImageURL, "http://localhost:8000/storage/products/"+p.ID+"/"))
	assert.True(t, strings.HasSuffix(got.ImageURL, ".png"))

	key := strings.TrimPrefix(got.ImageURL, "http://localhost:8000/storage/")
	rc, err := disk.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	stored, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, body, stored)
}

func TestUploadImageRejects(t *testing.T) {
	e := newEnv(t)
	disk, err := storage.NewLocalDisk(t.TempDir(), "http://localhost/storage")
	require.NoError(t, err)
	catalog := services.NewCatalogService(e.store.Products, nil, time.Minute, disk)
	ctx := context.Background()
	p := e.product(t, "Denim Jacket", 125)

	_, err = catalog.UploadImage(ctx, p.ID, services.ImageUpload{Filename: "notes.txt", Size: 3, Body: strings.NewReader("abc")})
	assertCode(t, err, apperror.BadRequest, "")

	_, err = catalog.UploadImage(ctx, p.ID, services.ImageUpload{Filename: "big.jpg", Size: services.MaxImageBytes + 1, Body: strings.NewReader("abc")})
	assertCode(t, err, apperror.BadRequest, "Image must be 5MB or smaller")

	_, err = catalog.UploadImage(ctx, "missing", services.ImageUpload{Filename: "a.webp", Size: 3, Body: strings.NewReader("abc")})
	assertCode(t, err, apperror.NotFound, "Product not found")

	_, err = e.catalog.UploadImage(ctx, p.ID, services.ImageUpload{Filename: "a.webp", Size: 3, Body: strings.NewReader("abc")})
	assertCode(t, err, apperror.BadRequest, "Image uploads are not configured")
}
