package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"skill-radar/internal/config"
	"skill-radar/internal/delivery/http/handler"
	"skill-radar/internal/delivery/http/middleware"
	"skill-radar/internal/delivery/http/routes"
	"skill-radar/internal/ws"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// New builds the HTTP application on top of an initialized container. baseCtx bounds
// background work started by handlers, such as asynchronous batches.
func New(baseCtx context.Context, c *Container) *App {
	f := fiber.New(fiber.Config{
		AppName:      c.Config.App.Name,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
	})

	registerGlobalMiddleware(f, c)
	registerRoutes(baseCtx, f, c)

	return &App{Fiber: f, Container: c}
}

// Bootstrap wires the container and the HTTP application. The returned cleanup releases
// the container.
func Bootstrap(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, func() error, error) {
	c, err := NewContainer(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	app := New(ctx, c)
	return app, c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	// Access log wraps the error middleware so it sees the final status.
	accessLog := middleware.NewAccessLogMiddleware(c.Logger.Named("access"), c.Metrics)
	app.Use(accessLog.Middleware())

	errMw := middleware.NewErrorMiddleware(c.Logger.Named("http"))
	app.Use(errMw.Middleware())
}

func registerRoutes(baseCtx context.Context, app *fiber.App, c *Container) {
	if app == nil {
		return
	}

	auth := middleware.NewAuthMiddleware(c.JWT)

	checks := map[string]handler.HealthCheck{}
	if c.DB != nil {
		checks["database"] = c.DB.Ping
	}
	if c.Redis.Available() {
		checks["redis"] = c.Redis.Ping
	}

	reg := routes.Registry{
		Health:   handler.NewHealthHandler(checks),
		Subjects: handler.NewSubjectHandler(c.SubjectUsecase),
		Admin:    handler.NewAdminHandler(baseCtx, c.SubjectUsecase, c.StatusUsecase, c.Logger.Named("admin")),
		Events:   ws.NewHandler(c.Hub, auth.Authorize, c.Logger.Named("ws")),
		Auth:     auth,
		Metrics:  c.Metrics.Handler(),
	}
	reg.Register(app)
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
