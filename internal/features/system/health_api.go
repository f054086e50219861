package system

import (
	"github.com/gofiber/fiber/v2"
)

// HealthApi exposes the unauthenticated liveness probe.
type HealthApi struct{}

func NewHealthApi() *HealthApi {
	return &HealthApi{}
}

func (api *HealthApi) Setup(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
}
