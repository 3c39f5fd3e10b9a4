package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/florinivan/asdallinkickboxing/internal/config"
	"github.com/florinivan/asdallinkickboxing/internal/database"
	"github.com/florinivan/asdallinkickboxing/internal/database/migration"
	handlers "github.com/florinivan/asdallinkickboxing/internal/http/handler"
	"github.com/florinivan/asdallinkickboxing/internal/http/middleware"
	"github.com/florinivan/asdallinkickboxing/internal/otel"
	"github.com/florinivan/asdallinkickboxing/internal/pdf"
	"github.com/florinivan/asdallinkickboxing/internal/repository/sqlite"
	"github.com/florinivan/asdallinkickboxing/internal/service"
	"github.com/florinivan/asdallinkickboxing/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	// Archive database (SQLite, WAL mode)
	db, err := database.NewSqlite(cfg.Database)
	if err != nil {
		logger.Fatal("failed to open archive database", zap.Error(err))
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
		logger.Fatal("failed to migrate archive schema", zap.Error(err))
	}

	// Blob tiers: local keyed store always, remote object store when hosted.
	local, err := storage.NewLocalStore(cfg.Blob.Dir, cfg.Blob.MaxBytes, logger)
	if err != nil {
		logger.Fatal("failed to initialize local blob store", zap.Error(err))
	}
	var remote storage.ObjectStore
	if cfg.Remote.Enabled {
		remote, err = storage.NewMinIO(cfg.Remote)
		if err != nil {
			logger.Fatal("failed to initialize remote storage", zap.Error(err))
		}
	}
	blobs := storage.NewAdapter(remote, local, cfg.Blob.PublicBaseURL, logger)

	// Source template: URL wins over the local path when configured.
	var tmpl pdf.TemplateSource = pdf.FileTemplate{Path: cfg.Template.Path}
	if cfg.Template.URL != "" {
		tmpl = pdf.HTTPTemplate{URL: cfg.Template.URL}
	}
	filler := pdf.NewFiller(tmpl, cfg.Location, logger)

	docRepo := sqlite.NewDocumentSqlite(db)
	docs := service.NewDocumentManager(filler, docRepo, blobs, cfg.OrgPrefix, logger)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    16 * 1024 * 1024, // forms carry an embedded signature image
	})

	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(logger))
	app.Use(otelfiber.Middleware())

	promMW, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("failed to register metrics", zap.Error(err))
	}
	app.Use(promMW.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	handlers.RegisterRoutes(app, db, docs)

	addr := ":" + cfg.Port
	logger.Info("server starting", zap.String("addr", addr))
	if err := app.Listen(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
