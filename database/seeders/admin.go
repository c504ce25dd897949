package seeders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/logger"
)

const adminUsername = "admin"

func init() {
	Register("admin", seedAdmin)
}

// seedAdmin creates the fixture admin unless the email is already in use.
func seedAdmin(ctx context.Context, env Env) error {
	email := strings.ToLower(strings.TrimSpace(env.AdminEmail))

	_, err := env.Store.Users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := env.Hasher.Hash(env.AdminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Username:     adminUsername,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      true,
		CreatedAt:    time.Now().UTC(),
	}
	if err := env.Store.Users.Create(ctx, admin); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			logger.WithCtx(ctx).Warn("admin username already taken; fixture admin not created", "username", adminUsername)
			return nil
		}
		return err
	}
	return env.Store.Carts.Ensure(ctx, admin.ID)
}
