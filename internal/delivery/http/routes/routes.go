package routes

import (
	"net/http"

	"skill-radar/internal/delivery/http/handler"
	"skill-radar/internal/delivery/http/middleware"
	"skill-radar/internal/ws"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
)

// Registry holds every handler the HTTP surface mounts.
type Registry struct {
	Health   *handler.HealthHandler
	Subjects *handler.SubjectHandler
	Admin    *handler.AdminHandler
	Events   *ws.Handler
	Auth     *middleware.AuthMiddleware
	Metrics  http.Handler
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	r.registerMetrics(app)
	r.registerEvents(app)
	r.registerAPI(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.Health != nil {
		r.Health.RegisterRoutes(app)
	}
}

func (r *Registry) registerMetrics(app *fiber.App) {
	if r.Metrics == nil {
		return
	}
	app.Get("/metrics", adaptor.HTTPHandler(r.Metrics))
}

func (r *Registry) registerEvents(app *fiber.App) {
	if r.Events == nil {
		return
	}
	app.Get("/ws", r.Auth.Middleware(), r.Events.HandleEvents)
}

func (r *Registry) registerAPI(app *fiber.App) {
	api := app.Group("/api")
	RegisterV1(api.Group("/v1"), r)
}
