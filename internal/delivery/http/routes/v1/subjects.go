package v1

import (
	"skill-radar/internal/delivery/http/handler"
	"skill-radar/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

// RegisterSubjects mounts the public token-issuing routes before the guarded /:id group so
// they never reach the subject guard.
func RegisterSubjects(r fiber.Router, subjects *handler.SubjectHandler, auth *middleware.AuthMiddleware) {
	if r == nil || subjects == nil {
		return
	}

	subjects.RegisterPublicRoutes(r)
	subjects.RegisterRoutes(r.Group("/:id", auth.Middleware(), auth.RequireSubject("id")))
}
