package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/udhofarhanahmed/opensight/internal/pipeline"
)

// ETLHandler exposes on-demand pipeline runs.
type ETLHandler struct {
	Pipe   *pipeline.Pipeline
	Logger *zap.Logger
}

func NewETLHandler(pipe *pipeline.Pipeline, logger *zap.Logger) *ETLHandler {
	return &ETLHandler{Pipe: pipe, Logger: logger}
}

// Run handles POST /api/etl/run: a synchronous pipeline run. Returns 409
// when a run is already active.
func (h *ETLHandler) Run(c *fiber.Ctx) error {
	result, err := h.Pipe.Run(c.UserContext())
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "pipeline run already in progress",
			})
		}
		h.Logger.Error("Pipeline run failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "pipeline run failed",
		})
	}

	return c.JSON(result)
}
