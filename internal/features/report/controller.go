package report

import (
	"errors"
	"fmt"

	"crm-reporting/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ReportController struct {
	ReportService ReportService
}

func NewReportController(reportService ReportService) *ReportController {
	return &ReportController{ReportService: reportService}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (c *ReportController) Create(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	var def ReportDefinition
	if err := ctx.BodyParser(&def); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ReportService.CreateReport(ctx.Context(), rc, &def); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.Status(fiber.StatusCreated).JSON(def)
}

func (c *ReportController) List(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	defs, err := c.ReportService.ListReports(ctx.Context(), rc)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(defs)
}

func (c *ReportController) Get(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	def, err := c.ReportService.GetReport(ctx.Context(), rc, ctx.Params("id"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(def)
}

func (c *ReportController) Update(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	var def ReportDefinition
	if err := ctx.BodyParser(&def); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ReportService.UpdateReport(ctx.Context(), rc, ctx.Params("id"), &def); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(def)
}

func (c *ReportController) Delete(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	if err := c.ReportService.DeleteReport(ctx.Context(), rc, ctx.Params("id")); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

type runRequest struct {
	Filters []ReportFilter `json:"filters"`
}

func (c *ReportController) Run(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	var req runRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
	}

	result, err := c.ReportService.RunReport(ctx.Context(), rc, ctx.Params("id"), req.Filters, ExecutionAdHoc)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(result)
}

func (c *ReportController) Export(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	format := ctx.Query("format", "csv")
	data, filename, err := c.ReportService.ExportReport(ctx.Context(), rc, ctx.Params("id"), format)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	contentType := "text/csv"
	if format == "xlsx" {
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	ctx.Set("Content-Type", contentType)
	ctx.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	return ctx.Send(data)
}

func (c *ReportController) Executions(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	limit := int64(ctx.QueryInt("limit", 50))
	executions, err := c.ReportService.ListExecutions(ctx.Context(), rc, ctx.Params("id"), limit)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(executions)
}
