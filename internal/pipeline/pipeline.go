// Package pipeline implements the ETL core: a sequential batch run that
// pulls pending raw records, validates and normalizes them, removes
// duplicates, and commits canonical sales events in one transaction.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/udhofarhanahmed/opensight/internal/config"
	"github.com/udhofarhanahmed/opensight/internal/metrics"
	"github.com/udhofarhanahmed/opensight/internal/models"
	"github.com/udhofarhanahmed/opensight/internal/rates"
)

// ErrRunInProgress is returned when Run is invoked while another run holds
// the pipeline. Records stay pending; the caller can simply retry later.
var ErrRunInProgress = errors.New("pipeline run already in progress")

// Result summarizes a completed run.
type Result struct {
	Extracted         int `json:"extracted"`
	Loaded            int `json:"loaded"`
	Failed            int `json:"failed"`
	DuplicatesDropped int `json:"duplicates_dropped"`
}

// Pipeline orchestrates one sequential extract-transform-commit batch. The
// run mutex serializes overlapping triggers within this process; the unique
// index on sales_events.order_id backstops runs racing across processes.
type Pipeline struct {
	db      *gorm.DB
	rates   rates.Source
	base    string
	cfg     config.PipelineConfig
	logger  *zap.Logger
	metrics *metrics.Registry
	now     func() time.Time

	runMu sync.Mutex
}

func New(db *gorm.DB, rateSource rates.Source, base string, cfg config.PipelineConfig, logger *zap.Logger, reg *metrics.Registry) *Pipeline {
	return &Pipeline{
		db:      db,
		rates:   rateSource,
		base:    base,
		cfg:     cfg,
		logger:  logger,
		metrics: reg,
		now:     time.Now,
	}
}

// Run executes one full pipeline pass. An empty pending set is a no-op, not
// an error. Commit failures roll back every write of the run and leave all
// records pending for a safe retry.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	if !p.runMu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer p.runMu.Unlock()

	started := p.now()
	if p.metrics != nil {
		p.metrics.RunsTotal.Inc()
		defer func() {
			p.metrics.RunDurationSec.Observe(time.Since(started).Seconds())
		}()
	}

	result, err := p.run(ctx)
	if err != nil && p.metrics != nil {
		p.metrics.RunFailures.Inc()
	}
	return result, err
}

func (p *Pipeline) run(ctx context.Context) (*Result, error) {
	raws, err := p.fetchPending(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to extract pending records: %w", err)
	}
	if len(raws) == 0 {
		p.logger.Info("No pending records, pipeline run is a no-op")
		return &Result{}, nil
	}

	records := make([]Record, 0, len(raws))
	for _, raw := range raws {
		record := Record(raw.Payload).Clone()
		record[FieldRawRecordID] = raw.ID
		records = append(records, record)
	}

	valid, invalid := Validate(records)

	var survivors []Record
	duplicates := 0
	if len(valid) > 0 {
		// One rate fetch per run; the fallback source never errors.
		table, err := p.rates.Rates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load currency rates: %w", err)
		}

		normalized := NormalizeCurrency(valid, table, p.base, p.logger)
		survivors = DedupeExact(normalized, FieldOrderID)
		duplicates = len(normalized) - len(survivors)

		if p.cfg.FuzzyDedupEnabled {
			survivors = DedupeFuzzy(survivors, FieldCustomerName, p.cfg.FuzzyThreshold)
		}
	}

	events := make([]models.SalesEvent, 0, len(survivors))
	processedIDs := make([]uint64, 0, len(raws))
	for _, record := range survivors {
		event, err := p.buildEvent(record)
		if err != nil {
			// Shape errors on a single row must not abort the batch.
			rejected := record.Clone()
			rejected[FieldError] = fmt.Sprintf("transformation error: %v", err)
			invalid = append(invalid, rejected)
			continue
		}
		events = append(events, event)
		processedIDs = append(processedIDs, record.RawRecordID())
	}

	// Exact-dedup drops are consumed by the run without yielding an event;
	// they reach processed so extraction never re-picks them.
	duplicateIDs := duplicateRawIDs(valid, processedIDs, invalid)

	if err := p.commit(ctx, events, processedIDs, duplicateIDs, invalid); err != nil {
		p.logger.Error("Pipeline commit failed, run rolled back",
			zap.Int("events", len(events)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("pipeline commit failed: %w", err)
	}

	result := &Result{
		Extracted:         len(raws),
		Loaded:            len(events),
		Failed:            len(invalid),
		DuplicatesDropped: duplicates,
	}

	if p.metrics != nil {
		p.metrics.RecordsProcessed.Add(float64(result.Loaded + result.DuplicatesDropped))
		p.metrics.RecordsFailed.Add(float64(result.Failed))
		p.metrics.DuplicatesDropped.Add(float64(result.DuplicatesDropped))
	}

	p.logger.Info("Pipeline run completed",
		zap.Int("extracted", result.Extracted),
		zap.Int("loaded", result.Loaded),
		zap.Int("failed", result.Failed),
		zap.Int("duplicates_dropped", result.DuplicatesDropped),
	)

	return result, nil
}

// fetchPending reads the pending batch in arrival order.
func (p *Pipeline) fetchPending(ctx context.Context) ([]models.RawRecord, error) {
	var raws []models.RawRecord
	err := p.db.WithContext(ctx).
		Where("status = ?", models.RawStatusPending).
		Order("id").
		Find(&raws).Error
	if err != nil {
		return nil, err
	}
	return raws, nil
}

// buildEvent shapes a surviving record into a canonical event.
func (p *Pipeline) buildEvent(record Record) (models.SalesEvent, error) {
	amount, ok := record.Amount(FieldAmount)
	if !ok {
		return models.SalesEvent{}, fmt.Errorf("amount is not numeric")
	}
	netAmount, ok := record.Amount(FieldNetAmount)
	if !ok {
		return models.SalesEvent{}, fmt.Errorf("normalized amount missing")
	}

	currency := record.String(FieldCurrency)
	if currency == "" {
		currency = p.base
	}

	channel := record.String(FieldChannel)
	if channel == "" {
		channel = "Unknown"
	}

	status, err := models.ParseSaleStatus(record.String(FieldStatus))
	if err != nil {
		p.logger.Warn("Unknown sale status, defaulting to completed",
			zap.String("status", record.String(FieldStatus)),
			zap.String("order_id", record.String(FieldOrderID)),
		)
		status = models.SaleStatusCompleted
	}

	customerName := record.String(FieldCanonicalName)
	if customerName == "" {
		customerName = record.String(FieldCustomerName)
	}

	return models.SalesEvent{
		OrderID:      record.String(FieldOrderID),
		CustomerID:   record.String(FieldCustomerID),
		CustomerName: customerName,
		ProductID:    record.String(FieldProductID),
		Amount:       amount,
		Currency:     currency,
		NetAmount:    netAmount,
		Channel:      channel,
		Status:       status,
		TimestampUTC: record.Timestamp(p.now),
		RawRecordID:  record.RawRecordID(),
	}, nil
}

// duplicateRawIDs finds valid records that neither produced an event nor
// landed in the invalid set: the rows dropped by exact deduplication.
func duplicateRawIDs(valid []Record, processedIDs []uint64, invalid []Record) []uint64 {
	accounted := make(map[uint64]struct{}, len(processedIDs)+len(invalid))
	for _, id := range processedIDs {
		accounted[id] = struct{}{}
	}
	for _, record := range invalid {
		accounted[record.RawRecordID()] = struct{}{}
	}

	var out []uint64
	for _, record := range valid {
		id := record.RawRecordID()
		if _, ok := accounted[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

// commit persists the run's outcome atomically: canonical events, processed
// status for their sources and for dedup-dropped rows, failed status with
// the rejection reason for invalid rows.
func (p *Pipeline) commit(ctx context.Context, events []models.SalesEvent, processedIDs, duplicateIDs []uint64, invalid []Record) error {
	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return fmt.Errorf("failed to insert sales events: %w", err)
			}
		}

		terminalIDs := append(append([]uint64{}, processedIDs...), duplicateIDs...)
		if len(terminalIDs) > 0 {
			err := tx.Model(&models.RawRecord{}).
				Where("id IN ?", terminalIDs).
				Update("status", models.RawStatusProcessed).Error
			if err != nil {
				return fmt.Errorf("failed to mark records processed: %w", err)
			}
		}

		for _, record := range invalid {
			reason := record.String(FieldError)
			err := tx.Model(&models.RawRecord{}).
				Where("id = ?", record.RawRecordID()).
				Updates(map[string]interface{}{
					"status": models.RawStatusFailed,
					"error":  reason,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to mark record failed: %w", err)
			}
		}

		return nil
	})
}
