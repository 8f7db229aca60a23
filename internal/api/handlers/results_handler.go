package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/service"
	"github.com/hotelchat/backend/internal/storage/sqlite"
	"github.com/hotelchat/backend/pkg/logger"
)

type ResultsHandler struct {
	svc *service.KnowledgeService
}

func NewResultsHandler(svc *service.KnowledgeService) *ResultsHandler {
	return &ResultsHandler{svc: svc}
}

// GetResults returns the most recent crawl result for a hotel.
func (h *ResultsHandler) GetResults(c *fiber.Ctx) error {
	hotelID := c.Params("hotel_id")

	result, err := h.svc.Results(hotelID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "No crawl results for hotel",
			})
		}
		logger.Error("Failed to load results", zap.String("hotel_id", hotelID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load results",
		})
	}

	return c.JSON(result)
}

// GetChunks returns all knowledge chunks stored for a hotel, ordered by
// source and position so a downstream indexer can consume them directly.
func (h *ResultsHandler) GetChunks(c *fiber.Ctx) error {
	hotelID := c.Params("hotel_id")

	chunks, err := h.svc.Chunks(hotelID)
	if err != nil {
		logger.Error("Failed to load chunks", zap.String("hotel_id", hotelID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load chunks",
		})
	}

	return c.JSON(fiber.Map{
		"hotel_id": hotelID,
		"count":    len(chunks),
		"chunks":   chunks,
	})
}

// GetStatus reports per-hotel knowledge base freshness.
func (h *ResultsHandler) GetStatus(c *fiber.Ctx) error {
	hotelID := c.Params("hotel_id")

	status, err := h.svc.Status(hotelID)
	if err != nil {
		if errors.Is(err, sqlite.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Unknown hotel",
			})
		}
		logger.Error("Failed to load status", zap.String("hotel_id", hotelID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load status",
		})
	}

	return c.JSON(status)
}
