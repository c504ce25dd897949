package services_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/pkg/logger"
)

func TestSeedIsIdempotent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	seed := services.NewSeedService(e.store, e.hasher, "admin@atelier.com", "admin123", nil)

	res, err := seed.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Database seeded successfully", res.Message)
	assert.EqualValues(t, 12, res.ProductCount)

	res, err = seed.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Database already seeded", res.Message)
	assert.EqualValues(t, 12, res.ProductCount)

	featured := true
	ps, err := e.catalog.List(ctx, models.ProductFilter{Featured: &featured})
	require.NoError(t, err)
	assert.Len(t, ps, 5)

	cats, err := e.catalog.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Accessories", "Blazers", "Knitwear", "Outerwear", "Polos", "Shirts", "T-Shirts", "Trousers"}, cats)

	tok, err := e.auth.Login(ctx, services.LoginInput{Email: "admin@atelier.com", Password: "admin123"})
	require.NoError(t, err)
	assert.True(t, tok.User.IsAdmin)
	assert.Equal(t, "admin", tok.User.Username)
}

func TestSeedSkipsExistingAdmin(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.register(t, "admin")

	seed := services.NewSeedService(e.store, e.hasher, "admin@atelier.com", "admin123", nil)
	_, err := seed.Seed(ctx)
	require.NoError(t, err)

	_, err = e.auth.Login(ctx, services.LoginInput{Email: "admin@atelier.com", Password: "admin123"})
	assert.Error(t, err, "the username is taken so no fixture admin exists")
}

// downCache fails every delete, like a Redis that has gone away.
type downCache struct {
	*mapCache
	dels int
}

func (c *downCache) Del(context.Context, ...string) error {
	c.dels++
	return errors.New("redis: connection refused")
}

func TestSeedLogsFailedInvalidation(t *testing.T) {
	e := newEnv(t)
	c := &downCache{mapCache: newMapCache()}

	var buf bytes.Buffer
	ctx := logger.InjectLogger(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	seed := services.NewSeedService(e.store, e.hasher, "admin@atelier.com", "admin123", c)
	res, err := seed.Seed(ctx)
	require.NoError(t, err, "a cache outage must not fail seeding")
	assert.Equal(t, "Database seeded successfully", res.Message)

	assert.Equal(t, 1, c.dels)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "cache invalidation failed")
	assert.Contains(t, buf.String(), "connection refused")
}
