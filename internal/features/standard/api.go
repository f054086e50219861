package standard

import (
	"crm-reporting/internal/config"
	"crm-reporting/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type StandardReportApi struct {
	StandardReportController *StandardReportController
	Config                   *config.Config
}

func NewStandardReportApi(controller *StandardReportController, config *config.Config) *StandardReportApi {
	return &StandardReportApi{
		StandardReportController: controller,
		Config:                   config,
	}
}

// Setup mounts the catalog on its own prefix so the keys never race the
// /api/reports/:id parameter route.
func (api *StandardReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/standard-reports", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Get("/:key", api.StandardReportController.Run)
}
