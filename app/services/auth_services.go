// Package services holds the storefront's business operations. Services
// receive their repositories at construction, return *apperror.Error for
// anything the client should see, and never touch http types.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/atelier/storefront/app/models"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/pkg/apperror"
	"github.com/atelier/storefront/pkg/auth"
	"github.com/atelier/storefront/pkg/logger"
	"github.com/atelier/storefront/pkg/middleware"
)

const (
	msgEmailTaken     = "Email already registered"
	msgUsernameTaken  = "Username already taken"
	msgBadCredentials = "Invalid email or password"
	msgUserNotFound   = "User not found"
	msgTokenExpired   = "Token expired"
	msgTokenInvalid   = "Invalid token"
	tokenTypeBearer   = "bearer"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

type AuthService struct {
	users  repositories.UserRepo
	carts  repositories.CartRepo
	hasher *auth.Hasher
	issuer *auth.Issuer
}

func NewAuthService(users repositories.UserRepo, carts repositories.CartRepo, hasher *auth.Hasher, issuer *auth.Issuer) *AuthService {
	return &AuthService{users: users, carts: carts, hasher: hasher, issuer: issuer}
}

// NormalizeEmail is applied on every write and lookup so addresses compare
// case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates the account and its empty cart, then signs the caller in.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*TokenResponse, error) {
	email := NormalizeEmail(in.Email)
	username := strings.TrimSpace(in.Username)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, apperror.New(apperror.Conflict, msgEmailTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(apperror.Internal, "lookup email", err)
	}
	if _, err := s.users.FindByUsername(ctx, username); err == nil {
		return nil, apperror.New(apperror.Conflict, msgUsernameTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(apperror.Internal, "lookup username", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "hash password", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration.
		var dup *repositories.DuplicateError
		if errors.As(err, &dup) {
			if dup.Field == "username" {
				return nil, apperror.New(apperror.Conflict, msgUsernameTaken)
			}
			return nil, apperror.New(apperror.Conflict, msgEmailTaken)
		}
		return nil, apperror.Wrap(apperror.Internal, "create user", err)
	}

	if err := s.carts.Ensure(ctx, user.ID); err != nil {
		return nil, apperror.Wrap(apperror.Internal, "create cart", err)
	}

	logger.WithCtx(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.tokenFor(user)
}

// Login answers unknown emails and wrong passwords identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, NormalizeEmail(in.Email))
	if errors.Is(err, repositories.ErrNotFound) {
		s.hasher.Burn(in.Password)
		return nil, apperror.New(apperror.Unauthorized, msgBadCredentials)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "lookup user", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, in.Password)
	if err != nil {
		logger.WithCtx(ctx).Error("stored password hash is unreadable", "user_id", user.ID, "error", err)
		return nil, apperror.New(apperror.Unauthorized, msgBadCredentials)
	}
	if !ok {
		return nil, apperror.New(apperror.Unauthorized, msgBadCredentials)
	}

	return s.tokenFor(user)
}

func (s *AuthService) tokenFor(user *models.User) (*TokenResponse, error) {
	token, err := s.issuer.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "issue token", err)
	}
	return &TokenResponse{AccessToken: token, TokenType: tokenTypeBearer, User: user}, nil
}

// Resolve verifies the token and loads its subject. The returned user is
// the stored record, so a revoked admin flag takes effect immediately.
func (s *AuthService) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.issuer.Parse(token)
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return nil, apperror.New(apperror.Unauthorized, msgTokenExpired)
	case err != nil:
		return nil, apperror.New(apperror.Unauthorized, msgTokenInvalid)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.New(apperror.Unauthorized, msgUserNotFound)
	}
	if err != nil {
		return nil, apperror.Wrap(apperror.Internal, "lookup user", err)
	}
	return user, nil
}

// Authenticate adapts Resolve to middleware.Authenticator.
func (s *AuthService) Authenticate(ctx context.Context, token string) (middleware.Principal, error) {
	user, err := s.Resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	return user, nil
}
