// Package main is the entry point for the category console server.
// It loads configuration, opens slot storage, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"catadmin/internal/cache"
	"catadmin/internal/config"
	"catadmin/internal/database"
	"catadmin/internal/handlers"
	"catadmin/internal/metrics"
	"catadmin/internal/middleware"
	"catadmin/internal/render"
	"catadmin/internal/router"
	"catadmin/internal/session"
	"catadmin/internal/slot"
	"catadmin/internal/storage"
	"catadmin/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text at debug level in development, JSON otherwise.
	var handler slog.Handler
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"storage", cfg.StorageBackend,
	)

	// Connect to Valkey when the slot backend or the API cache needs it.
	var valkeyClient *redis.Client
	if cfg.UsesValkey() {
		valkeyClient, err = cache.ConnectValkey(cfg.ValkeyHost, cfg.ValkeyPort, cfg.ValkeyPassword, cfg.ValkeyDB)
		if err != nil {
			slog.Error("failed to connect to valkey", "error", err)
			os.Exit(1)
		}
		defer valkeyClient.Close()
	}

	slots, err := openSlots(context.Background(), cfg, valkeyClient)
	if err != nil {
		slog.Error("failed to open slot storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer slots.Close()

	categoryStore := store.NewCategoryStore(slots)
	accountStore := store.NewAccountStore(slots)
	sessionStore := session.NewStore(slots, cfg.SecureCookies)
	sessionStore.StartSweeper(session.DefaultSweepInterval)
	defer sessionStore.Stop()

	// Seed the sample catalogue (no-op if categories already exist).
	if cfg.SeedSamples {
		seeded, err := categoryStore.SeedSamples(context.Background())
		if err != nil {
			slog.Error("failed to seed sample categories", "error", err)
			os.Exit(1)
		}
		if seeded {
			slog.Info("sample categories seeded")
		}
	}

	// Initialize the HTML template renderer for admin pages.
	renderer, err := render.New(cfg.IsDev())
	if err != nil {
		slog.Error("failed to initialize template renderer", "error", err)
		os.Exit(1)
	}

	// Connect to S3-compatible object storage (optional; images are
	// preview-only without it).
	storageClient, err := storage.New(
		cfg.S3Endpoint, cfg.S3Region, cfg.S3AccessKey, cfg.S3SecretKey,
		cfg.S3Bucket, cfg.S3PublicURL,
	)
	if err != nil {
		slog.Error("failed to initialize S3 storage", "error", err)
		os.Exit(1)
	}
	if storageClient != nil {
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3Bucket)
	} else {
		slog.Warn("s3 storage not configured, category images will not be stored")
	}

	var responseCache *cache.ResponseCache
	if cfg.CacheEnabled {
		responseCache = cache.NewResponseCache(valkeyClient, cache.DefaultResponseTTL)
	}

	authLimiter := middleware.NewRateLimiter(10, time.Minute)
	defer authLimiter.Stop()

	r := router.New(router.Deps{
		Sessions:      sessionStore,
		Admin:         handlers.NewAdmin(renderer, categoryStore, storageClient, responseCache),
		Auth:          handlers.NewAuth(renderer, sessionStore, accountStore),
		API:           handlers.NewAPI(categoryStore, responseCache),
		Metrics:       metrics.Handler(metrics.NewRegistry()),
		AuthLimiter:   authLimiter,
		SecureCookies: cfg.SecureCookies,
	})

	// ReadTimeout leaves room for a 2 MB image upload on a slow link.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// openSlots returns the slot store selected by STORAGE_BACKEND. The
// postgres backend connects and migrates the database first.
func openSlots(ctx context.Context, cfg *config.Config, valkeyClient *redis.Client) (slot.Store, error) {
	switch cfg.StorageBackend {
	case config.BackendMemory:
		slog.Warn("memory storage selected, data is lost on restart")
		return slot.NewMemory(), nil
	case config.BackendFile:
		return slot.NewFile(cfg.DataDir)
	case config.BackendSQLite:
		return slot.NewSQLite(cfg.SQLitePath)
	case config.BackendPostgres:
		db, err := database.Connect(ctx, cfg.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		if _, err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate database: %w", err)
		}
		return &closingSlots{Store: slot.NewPostgres(db), close: db.Close}, nil
	case config.BackendValkey:
		return slot.NewValkey(valkeyClient, slot.DefaultValkeyPrefix), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}

// closingSlots closes an owned resource along with the slot store.
type closingSlots struct {
	slot.Store
	close func() error
}

func (c *closingSlots) Close() error {
	if err := c.Store.Close(); err != nil {
		return err
	}
	return c.close()
}
