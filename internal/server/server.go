// Package server assembles the storefront from configuration and runs the
// HTTP listener until the process is told to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/atelier/storefront/app/listeners"
	"github.com/atelier/storefront/app/repositories"
	"github.com/atelier/storefront/app/repositories/memstore"
	"github.com/atelier/storefront/app/repositories/mongostore"
	"github.com/atelier/storefront/app/repositories/sqlstore"
	"github.com/atelier/storefront/app/routes"
	"github.com/atelier/storefront/app/services"
	"github.com/atelier/storefront/config"
	"github.com/atelier/storefront/internal/kernel"
	"github.com/atelier/storefront/pkg/auth"
	"github.com/atelier/storefront/pkg/bind"
	"github.com/atelier/storefront/pkg/cache"
	"github.com/atelier/storefront/pkg/database"
	"github.com/atelier/storefront/pkg/event"
	"github.com/atelier/storefront/pkg/logger"
	"github.com/atelier/storefront/pkg/middleware"
	"github.com/atelier/storefront/pkg/router"
	"github.com/atelier/storefront/pkg/storage"
)

const shutdownTimeout = 15 * time.Second

// App is a fully wired storefront.
type App struct {
	Config *config.Config
	Store  *repositories.Store
	Router *router.Router
	Events *event.Dispatcher

	closers []func(context.Context) error
}

// OpenStore connects the backend named by cfg.DBDriver and prepares its
// schema or indexes.
func OpenStore(ctx context.Context, cfg *config.Config) (*repositories.Store, error) {
	switch cfg.DBDriver {
	case "memory":
		return memstore.New(), nil
	case "mongo":
		client, err := database.OpenMongo(ctx, cfg.MongoURL)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, client, cfg.MongoDatabase); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return mongostore.New(client, cfg.MongoDatabase, mongostore.Options{Transactions: cfg.MongoTransactions}), nil
	default:
		db, err := database.OpenSQL(cfg.DBDriver, cfg.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		if err := sqlstore.Migrate(db); err != nil {
			return nil, err
		}
		return sqlstore.New(db), nil
	}
}

// NewHasher builds the password hasher cfg selects.
func NewHasher(cfg *config.Config) (*auth.Hasher, error) {
	return auth.NewHasher(cfg.PasswordHasher)
}

// Boot opens every backing service and builds the router. Close releases
// what Boot opened.
func Boot(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}
	ok := false
	defer func() {
		if !ok {
			_ = app.Close(context.Background())
		}
	}()

	store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	app.Store = store
	app.closers = append(app.closers, store.Close)

	hasher, err := NewHasher(cfg)
	if err != nil {
		return nil, err
	}
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)

	var rdb *redis.Client
	if cfg.RateLimitDriver == "redis" || cfg.CacheDriver == "redis" {
		rdb, err = cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })
	}

	var limiter middleware.Limiter
	switch {
	case cfg.RateLimit <= 0:
	case cfg.RateLimitDriver == "redis":
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit, cfg.RateLimitWindow)
	default:
		ml := middleware.NewMemoryLimiter(cfg.RateLimit, cfg.RateLimitWindow)
		limiter = ml
		app.closers = append(app.closers, func(context.Context) error { ml.Close(); return nil })
	}

	var readCache cache.Store = cache.Nop{}
	if cfg.CacheDriver == "redis" {
		readCache = cache.NewRedis(rdb, "atelier:")
	}

	disk, err := storage.Open(ctx, storage.Config{
		Driver:     cfg.StorageDisk,
		LocalRoot:  cfg.StorageLocalRoot,
		LocalURL:   cfg.StorageURL,
		S3Bucket:   cfg.S3.Bucket,
		S3Region:   cfg.S3.Region,
		S3Key:      cfg.S3.Key,
		S3Secret:   cfg.S3.Secret,
		S3Endpoint: cfg.S3.Endpoint,
		S3URL:      cfg.S3.URL,
	})
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	storageRoot := ""
	if local, isLocal := disk.(*storage.LocalDisk); isLocal {
		storageRoot = local.Root()
	}

	app.Events = event.New()
	listeners.Register(app.Events)
	app.closers = append(app.closers, func(context.Context) error { app.Events.Wait(); return nil })

	deps := routes.Deps{
		Auth:    services.NewAuthService(store.Users, store.Carts, hasher, issuer),
		Catalog: services.NewCatalogService(store.Products, readCache, cfg.CacheTTL, disk),
		Cart:    services.NewCartService(store.Carts, store.Products),
		Orders:  services.NewOrderService(store.Orders, store.Carts, store.Products, app.Events),
		Binder:  bind.New(cfg.MaxBodyBytes),
	}
	if cfg.SeedEnabled {
		deps.Seed = services.NewSeedService(store, hasher, cfg.SeedAdminEmail, cfg.SeedAdminPassword, readCache)
	}

	app.Router = kernel.New(kernel.Options{
		CORSOrigins: cfg.CORSOrigins,
		Limiter:     limiter,
		StorageRoot: storageRoot,
		API:         deps,
	})

	ok = true
	return app, nil
}

// Close runs the closers in reverse order and returns the first error.
func (a *App) Close(ctx context.Context) error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// Serve listens on cfg.AppPort until ctx is cancelled, then drains in-flight
// requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + a.Config.AppPort,
		Handler:           a.Router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", "addr", srv.Addr, "env", a.Config.AppEnv, "db_driver", a.Config.DBDriver)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// SetupLogger installs the base logger, adding the MongoDB sink when
// LOG_MONGO_URI is set. The returned func flushes the sink.
func SetupLogger(cfg *config.Config) func() {
	if cfg.LogMongoURI == "" {
		logger.Setup(cfg.IsProduction())
		return func() {}
	}

	h, err := logger.NewMongoHandler(cfg.LogMongoURI, cfg.LogMongoDatabase, cfg.LogMongoCollection, slog.LevelInfo)
	if err != nil {
		logger.Setup(cfg.IsProduction())
		logger.Warn("mongo log sink disabled", "error", err)
		return func() {}
	}
	logger.Setup(cfg.IsProduction(), h)
	return h.Close
}

// Start loads configuration, boots the app and serves until SIGINT or
// SIGTERM.
func Start() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flush := SetupLogger(cfg)
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := Boot(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.Close(closeCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	return app.Serve(ctx)
}
