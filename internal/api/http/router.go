package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/voicedesk/escalation-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health    *handlers.HealthHandler
	Requests  *handlers.RequestsHandler
	Knowledge *handlers.KnowledgeHandler
	Customers *handlers.CustomersHandler
	Voice     *handlers.VoiceHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Live)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	api.Get("/requests", cfg.Requests.List)
	api.Get("/requests/:id", cfg.Requests.Get)
	api.Post("/requests", cfg.Requests.Create)
	api.Patch("/requests/:id/answer", cfg.Requests.SubmitAnswer)

	api.Get("/knowledge", cfg.Knowledge.List)
	api.Get("/knowledge/search", cfg.Knowledge.Search)

	api.Post("/customers", cfg.Customers.Create)
	api.Get("/customers/phone/:phone", cfg.Customers.GetByPhone)

	api.Post("/voice/request-help", cfg.Voice.RequestHelp)
	api.Post("/voice/token", cfg.Voice.RoomToken)
}
