package v1

import (
	"skill-radar/internal/delivery/http/handler"
	"skill-radar/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

func RegisterAdmin(r fiber.Router, admin *handler.AdminHandler, auth *middleware.AuthMiddleware) {
	if r == nil || admin == nil {
		return
	}

	admin.RegisterRoutes(r.Group("", auth.Middleware(), auth.RequireOperator()))
}
