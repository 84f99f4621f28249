package routes

import (
	v1 "skill-radar/internal/delivery/http/routes/v1"

	"github.com/gofiber/fiber/v3"
)

func RegisterV1(r fiber.Router, reg *Registry) {
	if r == nil || reg == nil {
		return
	}

	v1.Register(r, v1.Handlers{
		Subjects: reg.Subjects,
		Admin:    reg.Admin,
		Auth:     reg.Auth,
	})
}
