package schedule

import (
	"errors"

	"crm-reporting/internal/features/report"
	"crm-reporting/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type ScheduleController struct {
	ScheduleService ScheduleService
}

func NewScheduleController(scheduleService ScheduleService) *ScheduleController {
	return &ScheduleController{ScheduleService: scheduleService}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, report.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, report.ErrValidation):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (c *ScheduleController) Create(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	var sched ReportSchedule
	if err := ctx.BodyParser(&sched); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ScheduleService.CreateSchedule(ctx.Context(), rc, &sched); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.Status(fiber.StatusCreated).JSON(sched)
}

func (c *ScheduleController) List(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	scheds, err := c.ScheduleService.ListSchedules(ctx.Context(), rc)
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(scheds)
}

func (c *ScheduleController) Get(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	sched, err := c.ScheduleService.GetSchedule(ctx.Context(), rc, ctx.Params("id"))
	if err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(sched)
}

func (c *ScheduleController) Update(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	var sched ReportSchedule
	if err := ctx.BodyParser(&sched); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
	}

	if err := c.ScheduleService.UpdateSchedule(ctx.Context(), rc, ctx.Params("id"), &sched); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.JSON(sched)
}

func (c *ScheduleController) Delete(ctx *fiber.Ctx) error {
	rc, err := middleware.RequestContextFrom(ctx)
	if err != nil {
		return err
	}

	if err := c.ScheduleService.DeleteSchedule(ctx.Context(), rc, ctx.Params("id")); err != nil {
		return ctx.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}
