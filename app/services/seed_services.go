package services

import (
	"context"

	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/database/seeders"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/auth"
	"github.com/atelier/storefront/pkg/cache"
	"github.com/atelier/storefront/pkg/logger"
)

// SeedResult is the body of POST /api/seed.
type SeedResult struct {
	Message      string `json:"message"`
	ProductCount int64  `json:"product_count"`
}

type SeedService struct {
	store *repositories.Store
	env   seeders.Env
	cache cache.Store
}

func NewSeedService(store *repositories.Store, hasher *auth.Hasher, adminEmail, adminPassword string, c cache.Store) *SeedService {
	if c == nil {
		c = cache.Nop{}
	}
	return &SeedService{
		store: store,
		env: seeders.Env{
			Store:         store,
			Hasher:        hasher,
			AdminEmail:    adminEmail,
			AdminPassword: adminPassword,
		},
		cache: c,
	}
}

// Seed loads the fixtures once. A catalogue that already has products is
// left untouched.
func (s *SeedService) Seed(ctx context.Context) (*SeedResult, error) {
	count, err := s.store.Products.Count(ctx)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "count products", err)
	}
	if count > 0 {
		return &SeedResult{Message: "Database already seeded", ProductCount: count}, nil
	}

	if err := seeders.RunAll(ctx, s.env); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "seed", err)
	}
	invalidateCategories(ctx, s.cache)

	logger.WithCtx(ctx).Info("database seeded", "products", seeders.CatalogueSize)
	return &SeedResult{Message: "Database seeded successfully", ProductCount: int64(seeders.CatalogueSize)}, nil
}
