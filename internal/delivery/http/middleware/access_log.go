package middleware

import (
	"time"

	"skill-radar/internal/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const HeaderRequestID = "X-Request-ID"

// HTTPObserver records request metrics.
type HTTPObserver interface {
	HTTPObserved(route, method string, status int, d time.Duration)
}

type AccessLogMiddleware struct {
	log      *zap.Logger
	observer HTTPObserver
}

func NewAccessLogMiddleware(log *zap.Logger, observer HTTPObserver) *AccessLogMiddleware {
	return &AccessLogMiddleware{log: logger.OrNop(log), observer: observer}
}

func (m *AccessLogMiddleware) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		start := time.Now()

		rid := c.Get(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(HeaderRequestID, rid)

		err := c.Next()

		dur := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		if m.observer != nil {
			m.observer.HTTPObserved(route, c.Method(), status, dur)
		}

		m.log.Info("http access",
			zap.String("rid", rid),
			zap.String("ip", c.IP()),
			zap.String("method", c.Method()),
			zap.String("path", c.OriginalURL()),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("latency", dur),
			zap.Int("req_bytes", c.Request().Header.ContentLength()),
			zap.Int("resp_bytes", len(c.Response().Body())),
			zap.String("ua", c.Get("User-Agent")),
		)

		return err
	}
}
