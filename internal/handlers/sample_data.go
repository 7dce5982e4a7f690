package handlers

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/models"
	"github.com/udhofarhanahmed/opensight/internal/pipeline"
)

// SampleDataHandler seeds synthetic demo data and runs the pipeline over
// it. Only enabled in development environments since it wipes existing
// data.
type SampleDataHandler struct {
	DB          *gorm.DB
	Pipe        *pipeline.Pipeline
	Environment string
	Logger      *zap.Logger
}

func NewSampleDataHandler(db *gorm.DB, pipe *pipeline.Pipeline, environment string, logger *zap.Logger) *SampleDataHandler {
	return &SampleDataHandler{
		DB:          db,
		Pipe:        pipe,
		Environment: environment,
		Logger:      logger,
	}
}

var (
	sampleChannels = []string{"Instagram", "WhatsApp", "Web", "Facebook"}
	sampleProducts = []string{"PROD-A", "PROD-B", "PROD-C"}
)

// Load handles POST /api/sample-data.
func (h *SampleDataHandler) Load(c *fiber.Ctx) error {
	if h.Environment != "development" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "sample data loading is only available in development",
		})
	}

	err := h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&models.SalesEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("1 = 1").Delete(&models.RawRecord{}).Error; err != nil {
			return err
		}

		records := make([]models.RawRecord, 0, 120)
		now := time.Now().UTC()
		for i := 0; i < 120; i++ {
			daysAgo := rand.Intn(61)
			timestamp := now.AddDate(0, 0, -daysAgo)
			amount := 50 + rand.Float64()*450

			records = append(records, models.RawRecord{
				Source: "demo",
				Status: models.RawStatusPending,
				Payload: models.JSONPayload{
					"order_id":    fmt.Sprintf("DEMO-%d", 1000+i),
					"customer_id": fmt.Sprintf("CUST-%d", 1+rand.Intn(50)),
					"product_id":  sampleProducts[rand.Intn(len(sampleProducts))],
					"amount":      amount,
					"currency":    "USD",
					"channel":     sampleChannels[rand.Intn(len(sampleChannels))],
					"status":      models.SaleStatusCompleted,
					"timestamp":   timestamp.Format("2006-01-02 15:04:05"),
				},
			})
		}

		return tx.Create(&records).Error
	})
	if err != nil {
		h.Logger.Error("Failed to seed sample data", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to seed sample data",
		})
	}

	result, err := h.Pipe.Run(c.UserContext())
	if err != nil {
		h.Logger.Error("Pipeline run over sample data failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "sample data loaded but pipeline run failed",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Sample data loaded and processed",
		"result":  result,
	})
}
