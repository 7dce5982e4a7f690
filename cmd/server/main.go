package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/udhofarhanahmed/opensight/internal/config"
	"github.com/udhofarhanahmed/opensight/internal/database"
	"github.com/udhofarhanahmed/opensight/internal/dispatcher"
	"github.com/udhofarhanahmed/opensight/internal/handlers"
	"github.com/udhofarhanahmed/opensight/internal/logger"
	"github.com/udhofarhanahmed/opensight/internal/metrics"
	"github.com/udhofarhanahmed/opensight/internal/pipeline"
	"github.com/udhofarhanahmed/opensight/internal/rabbitmq"
	"github.com/udhofarhanahmed/opensight/internal/rates"
	"github.com/udhofarhanahmed/opensight/internal/routes"
)

func main() {
	if err := logger.Init(os.Getenv("LOG_LEVEL")); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()
	log := logger.Logger

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	// Connect to PostgreSQL and apply migrations
	db, err := database.Connect(&cfg.Database, log)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, log); err != nil {
			logger.Error("Error closing database", zap.Error(err))
		}
	}()

	if err := database.RunMigrations(&cfg.Database, log); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to RabbitMQ
	rmq := rabbitmq.NewConnection(&cfg.RabbitMQ, log)
	if err := rmq.Connect(); err != nil {
		logger.Fatal("Failed to connect to RabbitMQ", zap.Error(err))
	}
	defer rmq.Close()

	// Build the ETL pipeline with a live rate source falling back to the
	// static table.
	reg := metrics.NewRegistry()
	rateSource := rates.NewFallbackSource(
		rates.NewHTTPSource(cfg.Rates.APIURL, log),
		cfg.Rates.BaseCurrency,
		log,
	)
	pipe := pipeline.New(db, rateSource, cfg.Rates.BaseCurrency, cfg.Pipeline, log, reg)

	// Start the dispatcher consuming upload-triggered runs
	disp := dispatcher.NewDispatcher(&cfg.RabbitMQ, rmq, pipe, log)
	if err := disp.Start(); err != nil {
		logger.Fatal("Failed to start dispatcher", zap.Error(err))
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "OpenSight API",
		ServerHeader: "Fiber",
		BodyLimit:    32 * 1024 * 1024, // spreadsheet uploads
	})

	// Middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Setup routes
	routes.SetupRoutes(app, &routes.Handlers{
		Health:     handlers.NewHealthHandler(db, rmq),
		Upload:     handlers.NewUploadHandler(db, rmq, cfg.RabbitMQ.ETLQueue, log),
		ETL:        handlers.NewETLHandler(pipe, log),
		KPI:        handlers.NewKPIHandler(db, log),
		Insights:   handlers.NewInsightsHandler(db, log),
		Records:    handlers.NewRecordsHandler(db, log),
		SampleData: handlers.NewSampleDataHandler(db, pipe, cfg.Server.Environment, log),
		Metrics:    reg,
	})

	// Start server in a goroutine
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		logger.Error("Error during server shutdown", zap.Error(err))
	}

	if err := disp.Stop(); err != nil {
		logger.Error("Error stopping dispatcher", zap.Error(err))
	}

	logger.Info("Server stopped")
}
