// Package main is the entrypoint for the Receipto API server.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/receipto/receipto/internal/api"
	"github.com/receipto/receipto/internal/api/handler"
	"github.com/receipto/receipto/internal/cache"
	"github.com/receipto/receipto/internal/config"
	"github.com/receipto/receipto/internal/llm"
	"github.com/receipto/receipto/internal/ocr"
	"github.com/receipto/receipto/internal/pipeline"
	"github.com/receipto/receipto/internal/storage"
	"github.com/receipto/receipto/internal/store"
	"github.com/receipto/receipto/internal/store/cryptoutil"
	"github.com/receipto/receipto/pkg/models"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Optional .env for local development; missing file is fine.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load config, failing fast on invalid values
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env,
		"default_provider", cfg.LLM.DefaultProvider)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to database
	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	// 3. Run migrations
	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	// 4. Create Redis cache
	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	// 5. Create store with settings encryption
	encryptor, err := newEncryptor(cfg.Processing.SettingsSecretKey)
	if err != nil {
		return fmt.Errorf("create settings encryptor: %w", err)
	}
	pgStore := store.NewPostgresStore(pool, encryptor)

	// 6. Prepare file storage
	files := storage.NewFileStore(cfg.Storage.Path)
	if err := files.EnsureDirectory(); err != nil {
		return fmt.Errorf("ensure storage directory: %w", err)
	}
	slog.Info("storage ready", "path", cfg.Storage.Path)

	// 7. Build the processing pipeline
	factory := func(ctx context.Context, provider, model string) (models.ReceiptExtractor, error) {
		return llm.NewProvider(ctx, provider, model, pgStore, cfg.LLM)
	}
	pipe := pipeline.New(pgStore, redisCache, ocr.NewTextractAnalyzer(), factory,
		cfg.AWS, cfg.LLM, cfg.Processing)

	// 8. Build router with dependencies
	deps := api.Dependencies{
		HealthHandler:         handler.NewHealthHandler(),
		DetailedHealthHandler: handler.NewDetailedHealthHandler(pgStore, redisCache, files),

		UploadHandler:     handler.NewUploadHandler(pgStore, files, pipe),
		GetReceiptHandler: handler.NewGetReceiptHandler(pgStore, redisCache),

		GetSettingsHandler:     handler.NewGetSettingsHandler(pgStore),
		UpdateSettingsHandler:  handler.NewUpdateSettingsHandler(pgStore),
		UpdateAPIKeysHandler:   handler.NewUpdateAPIKeysHandler(pgStore),
		UpdateLLMConfigHandler: handler.NewUpdateLLMConfigHandler(pgStore),
		LLMModelsHandler:       handler.NewLLMModelsHandler(),

		ListCategoriesHandler: handler.NewListCategoriesHandler(pgStore),
		CreateCategoryHandler: handler.NewCreateCategoryHandler(pgStore),
		GetCategoryHandler:    handler.NewGetCategoryHandler(pgStore),
		UpdateCategoryHandler: handler.NewUpdateCategoryHandler(pgStore),
		DeleteCategoryHandler: handler.NewDeleteCategoryHandler(pgStore),
	}

	router := api.NewRouter(deps)

	// 9. Start HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}

// newEncryptor builds the settings encryptor from the hex-encoded secret.
// Without a secret, sensitive settings are stored in plaintext.
func newEncryptor(secretHex string) (cryptoutil.Encryptor, error) {
	if secretHex == "" {
		slog.Warn("SETTINGS_SECRET_KEY not set; settings stored unencrypted")
		return cryptoutil.NoopEncryptor{}, nil
	}
	key, err := hex.DecodeString(secretHex)
	if err != nil {
		return nil, fmt.Errorf("decode SETTINGS_SECRET_KEY: %w", err)
	}
	return cryptoutil.NewAESGCMEncryptor(key)
}
