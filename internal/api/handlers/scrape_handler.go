package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/hotelchat/backend/internal/service"
	"github.com/hotelchat/backend/pkg/logger"
)

type ScrapeHandler struct {
	svc *service.KnowledgeService
}

func NewScrapeHandler(svc *service.KnowledgeService) *ScrapeHandler {
	return &ScrapeHandler{svc: svc}
}

type scrapeRequest struct {
	HotelID  string  `json:"hotel_id"`
	URL      string  `json:"url"`
	MaxPages int     `json:"max_pages"`
	Delay    float64 `json:"delay_seconds"`
}

func (h *ScrapeHandler) StartScrape(c *fiber.Ctx) error {
	var req scrapeRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse scrape request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	report, err := h.svc.Scrape(c.Context(), req.HotelID, req.URL, req.MaxPages, req.Delay)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Scrape failed", zap.String("hotel_id", req.HotelID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Scrape failed",
		})
	}

	return c.JSON(report)
}

func (h *ScrapeHandler) PreviewScrape(c *fiber.Ctx) error {
	var req scrapeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.svc.Preview(c.Context(), req.HotelID, req.URL)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		logger.Error("Preview failed", zap.String("hotel_id", req.HotelID), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Preview failed",
		})
	}

	return c.JSON(result)
}
