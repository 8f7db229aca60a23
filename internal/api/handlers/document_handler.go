package handlers

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/ingest"
	"github.com/hotelchat/backend/internal/service"
	"github.com/hotelchat/backend/pkg/logger"
)

type DocumentHandler struct {
	svc *service.KnowledgeService
}

func NewDocumentHandler(svc *service.KnowledgeService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// UploadDocument accepts a multipart PDF or spreadsheet upload and runs it
// through the ingest and chunking pipeline for the given hotel.
func (h *DocumentHandler) UploadDocument(c *fiber.Ctx) error {
	hotelID := c.FormValue("hotel_id")
	if hotelID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "hotel_id is required",
		})
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing file upload",
		})
	}

	tmpPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(fileHeader.Filename))
	if err := c.SaveFile(fileHeader, tmpPath); err != nil {
		logger.Error("Failed to save upload", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save upload",
		})
	}
	defer os.Remove(tmpPath)

	report, err := h.svc.IngestAndChunk(
		c.Context(),
		hotelID,
		tmpPath,
		fileHeader.Filename,
		c.FormValue("description"),
		c.FormValue("project_id"),
	)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrUnsupportedFormat):
			return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
				"error": "Unsupported document format; upload a .pdf, .xlsx or .xls file",
			})
		case errors.Is(err, ingest.ErrEmptyDocument):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Document contains no extractable text",
			})
		case errors.Is(err, ingest.ErrDocumentRead):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Document could not be read",
			})
		case errors.Is(err, service.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Document ingest failed",
			zap.String("hotel_id", hotelID),
			zap.String("file", fileHeader.Filename),
			zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Document ingest failed",
		})
	}

	return c.JSON(report)
}
