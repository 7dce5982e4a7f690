package handlers

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/ingest"
	"github.com/udhofarhanahmed/opensight/internal/models"
	"github.com/udhofarhanahmed/opensight/internal/rabbitmq"
)

// UploadHandler ingests CSV/XLSX uploads into raw_records and publishes a
// pipeline run trigger.
type UploadHandler struct {
	DB     *gorm.DB
	RMQ    *rabbitmq.Connection
	Queue  string
	Logger *zap.Logger
}

func NewUploadHandler(db *gorm.DB, rmq *rabbitmq.Connection, queue string, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		DB:     db,
		RMQ:    rmq,
		Queue:  queue,
		Logger: logger,
	}
}

// UploadResponse reports how many rows an upload produced.
type UploadResponse struct {
	Message string `json:"message"`
	Rows    int    `json:"rows"`
}

// Upload handles POST /api/ingest/upload.
//
// Form fields:
//   - file (required): a .csv or .xlsx file
//   - mapping (optional): JSON object of target-field → source-column,
//     applied by renaming source columns before storage
//
// Bad file types and unreadable content are rejected synchronously with a
// descriptive message. A malformed mapping degrades to unmapped ingestion.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "file form field is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to open uploaded file",
		})
	}
	defer file.Close()

	rows, err := ingest.Decode(fileHeader.Filename, file)
	if err != nil {
		status := fiber.StatusBadRequest
		if !errors.Is(err, ingest.ErrUnsupportedFile) {
			err = fmt.Errorf("error reading file: %w", err)
		}
		return c.Status(status).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if mappingJSON := c.FormValue("mapping"); mappingJSON != "" {
		var mapping map[string]string
		if err := json.Unmarshal([]byte(mappingJSON), &mapping); err != nil {
			// A broken mapping never blocks the upload.
			h.Logger.Warn("Malformed column mapping, ingesting unmapped",
				zap.String("filename", fileHeader.Filename),
				zap.Error(err),
			)
		} else {
			rows = ingest.ApplyMapping(rows, mapping)
		}
	}

	records := make([]models.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, models.RawRecord{
			Source:  fileHeader.Filename,
			Payload: models.JSONPayload(row),
			Status:  models.RawStatusPending,
		})
	}

	if len(records) > 0 {
		if err := h.DB.WithContext(c.UserContext()).Create(&records).Error; err != nil {
			h.Logger.Error("Failed to store raw records",
				zap.String("filename", fileHeader.Filename),
				zap.Error(err),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to store uploaded records",
			})
		}
	}

	h.publishRunTrigger(fileHeader.Filename, len(records))

	h.Logger.Info("File ingested",
		zap.String("filename", fileHeader.Filename),
		zap.Int("rows", len(records)),
	)

	return c.JSON(UploadResponse{
		Message: "File ingested",
		Rows:    len(records),
	})
}

// publishRunTrigger tells the dispatcher new records are pending. Publish
// failures are logged only: the records are durable and a manual run or the
// next upload's trigger processes them.
func (h *UploadHandler) publishRunTrigger(source string, count int) {
	if h.RMQ == nil || count == 0 {
		return
	}

	body, err := json.Marshal(models.RunMessage{
		Source:      source,
		RecordCount: count,
	})
	if err != nil {
		h.Logger.Error("Failed to marshal run trigger", zap.Error(err))
		return
	}

	if err := h.RMQ.PublishMessage("", h.Queue, body); err != nil {
		h.Logger.Warn("Failed to publish run trigger, records remain pending",
			zap.String("source", source),
			zap.Error(err),
		)
	}
}
