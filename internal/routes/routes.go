package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/udhofarhanahmed/opensight/internal/handlers"
	"github.com/udhofarhanahmed/opensight/internal/metrics"
)

// Handlers bundles the route dependencies.
type Handlers struct {
	Health     *handlers.HealthHandler
	Upload     *handlers.UploadHandler
	ETL        *handlers.ETLHandler
	KPI        *handlers.KPIHandler
	Insights   *handlers.InsightsHandler
	Records    *handlers.RecordsHandler
	SampleData *handlers.SampleDataHandler
	Metrics    *metrics.Registry
}

// SetupRoutes configures all application routes with dependencies
func SetupRoutes(app *fiber.App, h *Handlers) {
	app.Get("/health", h.Health.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(h.Metrics.Handler()))

	api := app.Group("/api")
	{
		api.Post("/ingest/upload", h.Upload.Upload)
		api.Post("/etl/run", h.ETL.Run)

		api.Get("/kpis/summary", h.KPI.Summary)
		api.Get("/kpis/daily", h.KPI.Daily)
		api.Get("/kpis/channels", h.KPI.Channels)
		api.Get("/kpis/forecast", h.KPI.Forecast)

		api.Get("/insights", h.Insights.Get)
		api.Get("/records", h.Records.List)

		api.Post("/sample-data", h.SampleData.Load)
	}
}
