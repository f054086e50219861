package report

import (
	"crm-reporting/internal/config"
	"crm-reporting/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportApi struct {
	ReportController *ReportController
	Config           *config.Config
}

func NewReportApi(reportController *ReportController, config *config.Config) *ReportApi {
	return &ReportApi{
		ReportController: reportController,
		Config:           config,
	}
}

func (api *ReportApi) Setup(app *fiber.App) {
	group := app.Group("/api/reports", middleware.AuthMiddleware(api.Config.SkipAuth))

	group.Post("/", api.ReportController.Create)
	group.Get("/", api.ReportController.List)
	group.Get("/:id", api.ReportController.Get)
	group.Put("/:id", api.ReportController.Update)
	group.Delete("/:id", api.ReportController.Delete)
	group.Post("/:id/run", api.ReportController.Run)
	group.Get("/:id/export", api.ReportController.Export)
	group.Get("/:id/executions", api.ReportController.Executions)
}
