package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/models"
)

// RecordsHandler lists raw intake records, most recent first. Its main use
// is inspecting the failed (quarantined) records and their rejection
// reasons for later correction.
type RecordsHandler struct {
	DB     *gorm.DB
	Logger *zap.Logger
}

func NewRecordsHandler(db *gorm.DB, logger *zap.Logger) *RecordsHandler {
	return &RecordsHandler{DB: db, Logger: logger}
}

// RecordsResponse is the paginated listing for GET /api/records.
type RecordsResponse struct {
	Records []RecordDTO `json:"records"`
	HasMore bool        `json:"has_more"`
}

// RecordDTO is one raw record in the listing.
type RecordDTO struct {
	ID         uint64             `json:"id"`
	Source     string             `json:"source"`
	Status     string             `json:"status"`
	Error      *string            `json:"error,omitempty"`
	Payload    models.JSONPayload `json:"payload"`
	IngestedAt string             `json:"ingested_at"`
}

// List handles GET /api/records.
// Query parameters:
//   - status (optional): pending, processed, or failed
//   - limit (optional, default 25)
//   - offset (optional, default 0)
func (h *RecordsHandler) List(c *fiber.Ctx) error {
	limit := 25
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	offset := 0
	if offsetStr := c.Query("offset"); offsetStr != "" {
		parsed, err := strconv.Atoi(offsetStr)
		if err != nil || parsed < 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "offset must be a non-negative integer",
			})
		}
		offset = parsed
	}

	query := h.DB.WithContext(c.UserContext()).
		Model(&models.RawRecord{}).
		Order("id DESC").
		Limit(limit + 1). // Fetch one extra to determine has_more
		Offset(offset)

	if status := c.Query("status"); status != "" {
		switch status {
		case models.RawStatusPending, models.RawStatusProcessed, models.RawStatusFailed:
			query = query.Where("status = ?", status)
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "status must be pending, processed, or failed",
			})
		}
	}

	var records []models.RawRecord
	if err := query.Find(&records).Error; err != nil {
		h.Logger.Error("Failed to query raw records", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to fetch records",
		})
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}

	dtos := make([]RecordDTO, 0, len(records))
	for _, record := range records {
		dtos = append(dtos, RecordDTO{
			ID:         record.ID,
			Source:     record.Source,
			Status:     record.Status,
			Error:      record.Error,
			Payload:    record.Payload,
			IngestedAt: record.IngestedAt.UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(RecordsResponse{
		Records: dtos,
		HasMore: hasMore,
	})
}
