package standard

import (
	"errors"
	"time"

	"crm-reporting/internal/features/daterange"
	"crm-reporting/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type StandardReportController struct {
	StandardReportService StandardReportService
}

func NewStandardReportController(service StandardReportService) *StandardReportController {
	return &StandardReportController{StandardReportService: service}
}

// Run resolves the requested date window and executes one standard pipeline.
// Explicit start/end (RFC 3339) win over a range preset; with neither, the
// preset default of the resolver applies.
func (c *StandardReportController) Run(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	window := daterange.Resolve(daterange.Preset(ctx.Query("range")))
	if startParam, endParam := ctx.Query("start"), ctx.Query("end"); startParam != "" && endParam != "" {
		start, err := time.Parse(time.RFC3339, startParam)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid start date"})
		}
		end, err := time.Parse(time.RFC3339, endParam)
		if err != nil {
			return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid end date"})
		}
		window = daterange.Range{Start: start, End: end}
	}

	result, err := c.StandardReportService.Run(ctx.Context(), rc, Key(ctx.Params("key")), window.Start, window.End)
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, ErrUnknownKey) {
			status = fiber.StatusNotFound
		}
		return ctx.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return ctx.JSON(fiber.Map{
		"key":   ctx.Params("key"),
		"start": window.Start,
		"end":   window.End,
		"data":  result,
	})
}
