// Package dispatcher consumes ETL run triggers from the queue and executes
// the pipeline. Uploads publish one trigger per ingested file; overlapping
// triggers while a run is active are acknowledged and dropped, since the
// active run (or the next trigger) picks up the same pending records.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/udhofarhanahmed/opensight/internal/config"
	"github.com/udhofarhanahmed/opensight/internal/consumer"
	"github.com/udhofarhanahmed/opensight/internal/models"
	"github.com/udhofarhanahmed/opensight/internal/pipeline"
	"github.com/udhofarhanahmed/opensight/internal/rabbitmq"
)

type Dispatcher struct {
	cfg         *config.RabbitMQConfig
	conn        *rabbitmq.Connection
	pipe        *pipeline.Pipeline
	logger      *zap.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	consumerTag string
	started     bool
}

func NewDispatcher(cfg *config.RabbitMQConfig, conn *rabbitmq.Connection, pipe *pipeline.Pipeline, logger *zap.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		cfg:         cfg,
		conn:        conn,
		pipe:        pipe,
		logger:      logger,
		ctx:         ctx,
		cancel:      cancel,
		consumerTag: fmt.Sprintf("etl-dispatcher-%d", time.Now().Unix()),
	}
}

// Start begins consuming run triggers from the ETL queue.
func (d *Dispatcher) Start() error {
	if d.cfg.ETLQueue == "" {
		return fmt.Errorf("ETL queue is required")
	}

	// One trigger at a time; runs are sequential anyway.
	if err := d.conn.SetQoS(1); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	if err := d.startConsuming(); err != nil {
		return err
	}

	d.started = true
	d.logger.Info("Dispatcher started and consuming run triggers",
		zap.String("etl_queue", d.cfg.ETLQueue),
		zap.String("consumer_tag", d.consumerTag),
	)
	return nil
}

func (d *Dispatcher) startConsuming() error {
	messages, err := d.conn.ConsumeMessages(d.cfg.ETLQueue, d.consumerTag, false)
	if err != nil {
		return fmt.Errorf("failed to start consuming from queue %s: %w", d.cfg.ETLQueue, err)
	}

	go d.processMessages(messages)
	return nil
}

// Stop gracefully stops the dispatcher.
func (d *Dispatcher) Stop() error {
	d.logger.Info("Stopping dispatcher",
		zap.String("consumer_tag", d.consumerTag),
	)
	d.cancel()

	ch := d.conn.GetChannel()
	if ch != nil {
		if err := ch.Cancel(d.consumerTag, false); err != nil {
			d.logger.Error("Failed to cancel consumer",
				zap.String("consumer_tag", d.consumerTag),
				zap.Error(err),
			)
		}
	}

	d.logger.Info("Dispatcher stopped")
	return nil
}

func (d *Dispatcher) processMessages(messages <-chan amqp.Delivery) {
	for {
		select {
		case <-d.ctx.Done():
			d.logger.Info("Dispatcher context cancelled, stopping message processing")
			return
		case msg, ok := <-messages:
			if !ok {
				d.logger.Warn("Message channel closed, attempting to restart consumer...",
					zap.String("etl_queue", d.cfg.ETLQueue),
				)
				for d.started {
					select {
					case <-d.ctx.Done():
						return
					default:
					}

					time.Sleep(2 * time.Second)
					if !d.conn.IsHealthy() {
						continue
					}

					if err := d.startConsuming(); err != nil {
						d.logger.Error("Failed to restart consuming after channel close, will retry",
							zap.String("etl_queue", d.cfg.ETLQueue),
							zap.Error(err),
						)
						time.Sleep(5 * time.Second)
						continue
					}

					d.logger.Info("Successfully restarted consumer after channel close",
						zap.String("etl_queue", d.cfg.ETLQueue),
					)
					return
				}
				return
			}
			consumer.ProcessMessage(d.logger, d.cfg.ETLQueue, msg, d)
		}
	}
}

// HandleEvent implements consumer.EventHandler: a run trigger arrived.
func (d *Dispatcher) HandleEvent(body []byte) error {
	var trigger models.RunMessage
	if err := json.Unmarshal(body, &trigger); err != nil {
		d.logger.Error("Failed to unmarshal run trigger",
			zap.Error(err),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("failed to unmarshal run trigger: %w", err)
	}

	d.logger.Info("Processing run trigger",
		zap.String("source", trigger.Source),
		zap.Int("record_count", trigger.RecordCount),
	)

	result, err := d.pipe.Run(d.ctx)
	if err != nil {
		if errors.Is(err, pipeline.ErrRunInProgress) {
			// The active run sees the same pending records; nothing lost.
			d.logger.Info("Pipeline already running, dropping trigger",
				zap.String("source", trigger.Source),
			)
			return nil
		}
		return fmt.Errorf("pipeline run failed: %w", err)
	}

	d.logger.Info("Triggered pipeline run finished",
		zap.Int("extracted", result.Extracted),
		zap.Int("loaded", result.Loaded),
		zap.Int("failed", result.Failed),
	)
	return nil
}
