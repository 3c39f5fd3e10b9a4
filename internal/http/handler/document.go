package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/florinivan/asdallinkickboxing/internal/model"
	"github.com/florinivan/asdallinkickboxing/internal/service"
)

// GenerateDocument validates the submitted form, renders the enrollment
// PDF and archives it. The response body is the PDF itself so a degraded
// archive never blocks the download; document metadata travels in headers.
func GenerateDocument(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var form model.FormRecord
		if err := c.BodyParser(&form); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse form data")
		}

		res, err := docs.Generate(c.UserContext(), form)
		if err != nil {
			var verr *service.ValidationError
			if errors.As(err, &verr) {
				return writeValidationError(c, verr)
			}
			return writeError(c, fiber.StatusInternalServerError, "GENERATION_FAILED", "document generation failed")
		}

		c.Set("X-Document-ID", res.Document.ID)
		if res.ArchiveWarning != "" {
			c.Set("X-Archive-Warning", res.ArchiveWarning)
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+res.Document.Filename+`"`)
		c.Set(fiber.HeaderContentType, "application/pdf")
		return c.Status(fiber.StatusCreated).Send(res.PDF)
	}
}

// SearchDocuments lists archived records, optionally filtered by name,
// email and an inclusive date range (YYYY-MM-DD).
func SearchDocuments(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter, ok := searchFilterFromQuery(c)
		if !ok {
			return nil
		}

		items, err := docs.Search(c.UserContext(), filter)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": items, "total": len(items)})
	}
}

// searchFilterFromQuery reads the listing criteria shared by the search and
// event-stream endpoints. A date_to of a whole day is widened to 23:59:59 so
// the stored timestamps inside that day still match. When a date is
// malformed the 400 response is already written and ok is false.
func searchFilterFromQuery(c *fiber.Ctx) (filter model.SearchFilter, ok bool) {
	filter = model.SearchFilter{
		Nome:    c.Query("nome"),
		Cognome: c.Query("cognome"),
		Email:   c.Query("email"),
	}
	if v := c.Query("date_from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			_ = writeError(c, fiber.StatusBadRequest, "INVALID_DATE_FROM", "date_from must be YYYY-MM-DD")
			return filter, false
		}
		filter.DateFrom = t
	}
	if v := c.Query("date_to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			_ = writeError(c, fiber.StatusBadRequest, "INVALID_DATE_TO", "date_to must be YYYY-MM-DD")
			return filter, false
		}
		filter.DateTo = t.Add(24*time.Hour - time.Second)
	}
	return filter, true
}

// DocumentStats returns the archive counters for the dashboard.
func DocumentStats(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		stats, err := docs.Stats(c.UserContext())
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(stats)
	}
}

// GetDocument returns one archived record's metadata.
func GetDocument(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docs.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			switch {
			case errors.Is(err, service.ErrIDRequired):
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
			case errors.Is(err, service.ErrNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.JSON(doc)
	}
}

// DownloadDocument looks up the record and streams its blob. The storage
// tier the content came from is reported in a header.
func DownloadDocument(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := docs.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}

		res, err := docs.FetchBlob(c.UserContext(), doc.Filename)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if !res.Success {
			return writeError(c, fiber.StatusNotFound, "BLOB_NOT_FOUND", "document content not found")
		}

		c.Set("X-Storage-Kind", res.Storage)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+doc.Filename+`"`)
		c.Set(fiber.HeaderContentType, doc.ContentType)
		return c.Send(res.Blob)
	}
}

type tagsRequest struct {
	Tags []string `json:"tags"`
}

// UpdateDocumentTags replaces the tag list of a record.
func UpdateDocumentTags(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req tagsRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "cannot parse tags")
		}
		if err := docs.UpdateTags(c.UserContext(), c.Params("id"), req.Tags); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteDocument removes a record and its blob.
func DeleteDocument(docs service.DocumentManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := docs.Delete(c.UserContext(), c.Params("id")); err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func writeValidationError(c *fiber.Ctx, verr *service.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"request_id": requestIDFromCtx(c),
		"error": fiber.Map{
			"code":    "VALIDATION_FAILED",
			"message": "form validation failed",
			"fields":  verr.Fields,
		},
	})
}
