package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/turno-service/internal/api/http/handlers"
	"github.com/spec-kit/turno-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Visitors        *handlers.VisitorsHandler
	Tickets         *handlers.TicketsHandler
	Queue           *handlers.QueueHandler
	Stats           *handlers.StatsHandler
	Events          *handlers.EventsHandler
	Agents          *handlers.AgentsHandler
	AgentMiddleware *auth.AgentMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/agents/login", cfg.Agents.Login)

	app.Post("/visitors", cfg.Visitors.RegisterVisitor)
	app.Get("/visitors/lookup", cfg.Visitors.LookupVisitor)
	app.Patch("/visitors/:id/category", cfg.Visitors.UpdateCategory)
	app.Get("/service-types", cfg.Visitors.ListServiceTypes)

	app.Post("/tickets", cfg.Tickets.CreateTicket)
	app.Get("/tickets/:id", cfg.Tickets.GetTicket)
	app.Get("/tickets/:id/notifications", cfg.Tickets.ListNotifications)
	app.Post("/notifications/:id/read", cfg.Tickets.MarkNotificationRead)

	app.Get("/events/stream", cfg.Events.Stream)

	staff := app.Group("/staff", cfg.AgentMiddleware.Handle)
	staff.Get("/me", cfg.Agents.Me)
	staff.Get("/queue", cfg.Queue.GetQueue)
	staff.Get("/tickets", cfg.Tickets.ListTickets)
	staff.Post("/tickets/:id/call", cfg.Tickets.CallTicket)
	staff.Post("/tickets/:id/start", cfg.Tickets.StartTicket)
	staff.Post("/tickets/:id/complete", cfg.Tickets.CompleteTicket)
	staff.Post("/tickets/:id/cancel", cfg.Tickets.CancelTicket)
	staff.Post("/stats/summary", cfg.Stats.Summary)
}
