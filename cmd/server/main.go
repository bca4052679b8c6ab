package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	httpadapter "cvgenius/internal/adapter/http"
	repo "cvgenius/internal/adapter/repository"
	"cvgenius/internal/config"
	"cvgenius/internal/infrastructure/migration"
	"cvgenius/internal/log"
	"cvgenius/internal/taskstore"
	"cvgenius/internal/usecase"
	"cvgenius/pkg/ai"
	infra "cvgenius/pkg/infrastructure"
)

func main() {
	logger := log.GetLogger()
	cfg := config.Load()
	ctx := context.Background()

	pool, err := infra.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Warn("database not available, records will not be persisted")
	}
	if pool != nil {
		defer pool.Close()
		if err := migration.RunMigrations(ctx, pool); err != nil {
			logger.WithError(err).Fatal("migrations failed")
		}
	}

	store := taskstore.NewStore()
	renderer := infra.NewChromedpRenderer(cfg.TemplateDir)
	client := ai.NewClient(cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GenerationTimeout)
	records := repo.NewRecordsRepo(pool)
	processor := usecase.NewProcessor(store, client, renderer, records, cfg.TemplateDir)

	app := fiber.New(fiber.Config{
		BodyLimit: cfg.MaxFileSize + 1024*1024,
	})
	app.Use(cors.New())

	// rate limit only the generation endpoints; polling stays unthrottled
	lim := limiter.New(limiter.Config{
		Max:        cfg.RateLimitRequests,
		Expiration: cfg.RateLimitWindow,
	})
	app.Use("/api/v1/generate-from-form", lim)
	app.Use("/api/v1/generate-from-upload", lim)
	app.Use("/api/v1/generate-cover-letter", lim)
	app.Use("/api/v1/generate-cv-pdf", lim)
	app.Use("/api/v1/generate-cover-letter-pdf", lim)
	app.Use("/api/v1/async/generate-from-form-async", lim)

	httpadapter.NewHandler(store, processor, records, cfg).RegisterRoutes(app)

	// age out finished tasks and their payloads
	sweepDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(cfg.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if removed := store.Sweep(cfg.TaskMaxAge); removed > 0 {
					logger.WithField("removed", removed).Info("swept aged-out tasks")
				}
			case <-sweepDone:
				return
			}
		}
	}()

	go func() {
		logger.WithField("port", cfg.Port).Info("starting server")
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	close(sweepDone)
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.WithError(err).Error("shutdown error")
	}
}
