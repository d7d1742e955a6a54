package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bilgisen/newshub/internal/middleware"
)

// RouteConfig carries the credentials and the metrics registry used by the routes.
type RouteConfig struct {
	AccessToken string
	AdminAPIKey string
	Gatherer    prometheus.Gatherer
}

// SetupRoutes configures all the routes for the application
func SetupRoutes(app *fiber.App, handlers *Handlers, cfg RouteConfig) {
	if cfg.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	// API group with versioning
	api := app.Group("/api/v1")

	api.Get("/health", handlers.HealthCheck)

	news := api.Group("/news", middleware.AccessGate(cfg.AccessToken))
	{
		query := middleware.ValidateQuery[NewsQuery]()
		news.Get("", query, handlers.ListNews)
		news.Get("/:category", query, handlers.GetCategory)
		news.Get("/:category/:id/handoff", handlers.Handoff)
		news.Post("/:category/:id/summary", handlers.Summarize)
	}

	admin := api.Group("/admin", middleware.AdminOnly(cfg.AdminAPIKey))
	{
		admin.Post("/refresh", handlers.Refresh)
	}

	// 404 Handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
		})
	})
}
