package handler

import (
	"context"
	"database/sql"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/florinivan/asdallinkickboxing/internal/service"
)

// RegisterRoutes attaches the HTTP routes to the Fiber app. Handlers stay
// thin; all orchestration lives in the document manager.
func RegisterRoutes(app *fiber.App, db *sql.DB, docs service.DocumentManager) {
	// Health endpoint: checks DB connectivity only.
	app.Get("/health", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	})

	// Simple liveness probe.
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	api := app.Group("/api")
	api.Post("/documents", GenerateDocument(docs))
	api.Get("/documents", SearchDocuments(docs))
	api.Get("/documents/stats", DocumentStats(docs))
	api.Get("/documents/events", DocumentEvents(docs))
	api.Get("/documents/:id", GetDocument(docs))
	api.Get("/documents/:id/file", DownloadDocument(docs))
	api.Put("/documents/:id/tags", UpdateDocumentTags(docs))
	api.Delete("/documents/:id", DeleteDocument(docs))
}
