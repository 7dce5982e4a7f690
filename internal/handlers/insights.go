package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/insights"
)

// InsightsHandler serves the rule-based insights endpoint.
type InsightsHandler struct {
	Gen    *insights.Generator
	Logger *zap.Logger
}

func NewInsightsHandler(db *gorm.DB, logger *zap.Logger) *InsightsHandler {
	return &InsightsHandler{
		Gen:    insights.NewGenerator(db),
		Logger: logger,
	}
}

// Get handles GET /api/insights.
func (h *InsightsHandler) Get(c *fiber.Ctx) error {
	results, err := h.Gen.Insights(c.UserContext())
	if err != nil {
		h.Logger.Error("Failed to generate insights", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to generate insights",
		})
	}

	return c.JSON(results)
}
