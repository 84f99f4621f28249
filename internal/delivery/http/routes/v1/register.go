package v1

import (
	"skill-radar/internal/delivery/http/handler"
	"skill-radar/internal/delivery/http/middleware"

	"github.com/gofiber/fiber/v3"
)

type Handlers struct {
	Subjects *handler.SubjectHandler
	Admin    *handler.AdminHandler
	Auth     *middleware.AuthMiddleware
}

func Register(r fiber.Router, h Handlers) {
	if r == nil {
		return
	}

	RegisterSubjects(r.Group("/subjects"), h.Subjects, h.Auth)
	RegisterAdmin(r.Group("/admin"), h.Admin, h.Auth)
}
