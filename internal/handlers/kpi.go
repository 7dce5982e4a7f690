package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/forecast"
	"github.com/udhofarhanahmed/opensight/internal/kpi"
)

// KPIHandler serves the KPI and forecast endpoints.
type KPIHandler struct {
	KPIs   *kpi.Service
	Logger *zap.Logger
}

func NewKPIHandler(db *gorm.DB, logger *zap.Logger) *KPIHandler {
	return &KPIHandler{
		KPIs:   kpi.NewService(db),
		Logger: logger,
	}
}

// forecastHistoryDays is how much daily history feeds the seasonal model.
const forecastHistoryDays = 90

func parseDays(c *fiber.Ctx, def int) (int, error) {
	days := def
	if daysStr := c.Query("days"); daysStr != "" {
		parsed, err := strconv.Atoi(daysStr)
		if err != nil || parsed <= 0 {
			return 0, fiber.NewError(fiber.StatusBadRequest, "days must be a positive integer")
		}
		days = parsed
	}
	return days, nil
}

// Summary handles GET /api/kpis/summary?days=30.
func (h *KPIHandler) Summary(c *fiber.Ctx) error {
	days, err := parseDays(c, 30)
	if err != nil {
		return err
	}

	summary, err := h.KPIs.Summary(c.UserContext(), days)
	if err != nil {
		h.Logger.Error("Failed to compute KPI summary", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to compute KPI summary",
		})
	}

	return c.JSON(summary)
}

// Daily handles GET /api/kpis/daily?days=30.
func (h *KPIHandler) Daily(c *fiber.Ctx) error {
	days, err := parseDays(c, 30)
	if err != nil {
		return err
	}

	daily, err := h.KPIs.DailyRevenue(c.UserContext(), days)
	if err != nil {
		h.Logger.Error("Failed to compute daily revenue", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to compute daily revenue",
		})
	}

	if daily == nil {
		daily = []kpi.DailyRevenue{}
	}
	return c.JSON(daily)
}

// Channels handles GET /api/kpis/channels.
func (h *KPIHandler) Channels(c *fiber.Ctx) error {
	channels, err := h.KPIs.ChannelBreakdown(c.UserContext())
	if err != nil {
		h.Logger.Error("Failed to compute channel breakdown", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to compute channel breakdown",
		})
	}

	if channels == nil {
		channels = []kpi.ChannelStats{}
	}
	return c.JSON(channels)
}

// Forecast handles GET /api/kpis/forecast?days=30. Insufficient history
// yields an empty sequence, never an error.
func (h *KPIHandler) Forecast(c *fiber.Ctx) error {
	horizon, err := parseDays(c, 30)
	if err != nil {
		return err
	}

	daily, err := h.KPIs.DailyRevenue(c.UserContext(), forecastHistoryDays)
	if err != nil {
		h.Logger.Error("Failed to load forecast history", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load forecast history",
		})
	}

	history := make([]forecast.DailyPoint, 0, len(daily))
	for _, point := range daily {
		day, err := time.Parse("2006-01-02", point.Day)
		if err != nil {
			continue
		}
		history = append(history, forecast.DailyPoint{
			Day:     day,
			Revenue: point.Revenue,
		})
	}

	projected := forecast.Project(history, horizon)
	if projected == nil {
		projected = []forecast.DailyPoint{}
	}
	return c.JSON(projected)
}
