package main

import (
	"context"
	"fmt"
	"log"

	common_api "crm-reporting/internal/common/api"
	"crm-reporting/internal/config"
	"crm-reporting/internal/database"
	"crm-reporting/internal/features/report"
	"crm-reporting/internal/features/schedule"
	"crm-reporting/internal/features/standard"
	"crm-reporting/internal/features/system"
	"crm-reporting/internal/logger"
	"crm-reporting/internal/middleware"
	"crm-reporting/internal/registry"
	"crm-reporting/internal/store"
	"crm-reporting/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// NewFiberServer creates the Fiber app instance shared by all routes.
func NewFiberServer() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(middleware.CORSMiddleware())

	return app
}

// AsRoute tags a constructor so Fx adds its result to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(common_api.Route)),
		fx.ResultTags(`group:"routes"`),
	)
}

// RegisterAllRoutes takes the "routes" group and calls Setup on each one.
func RegisterAllRoutes(app *fiber.App, routes []common_api.Route) {
	for _, route := range routes {
		route.Setup(app)
	}
}

var RegisterAllRoutesWithAnnotation = fx.Annotate(
	RegisterAllRoutes,
	fx.ParamTags(``, `group:"routes"`),
)

// StartServer starts Fiber in a goroutine and shuts it down when the app
// exits.
func StartServer(lc fx.Lifecycle, app *fiber.App, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				port := fmt.Sprintf(":%s", cfg.Port)
				if err := app.Listen(port); err != nil {
					log.Fatalf("Server failed to start: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.Shutdown()
		},
	})
}

func main() {
	app := fx.New(
		fx.Provide(
			config.LoadConfig,
			logger.NewLogger,
			NewFiberServer,
			database.NewDatabase,

			registry.New,
			store.NewMongoStore,

			report.NewDefinitionRepository,
			report.NewExecutionRepository,
			schedule.NewScheduleRepository,

			report.NewReportService,
			standard.NewStandardReportService,
			schedule.NewScheduleService,

			report.NewReportController,
			standard.NewStandardReportController,
			schedule.NewScheduleController,

			AsRoute(report.NewReportApi),
			AsRoute(standard.NewStandardReportApi),
			AsRoute(schedule.NewScheduleApi),
			AsRoute(system.NewHealthApi),
		),
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log}
		}),
		fx.Invoke(
			func(cfg *config.Config) {
				utils.SetSecret(cfg.JWTSecret)
			},
			RegisterAllRoutesWithAnnotation,
			StartServer,
			func(lc fx.Lifecycle, scheduleService schedule.ScheduleService) {
				lc.Append(fx.Hook{
					OnStart: func(ctx context.Context) error {
						return scheduleService.InitializeScheduler(ctx)
					},
					OnStop: func(ctx context.Context) error {
						return scheduleService.StopScheduler()
					},
				})
			},
		),
	)

	app.Run()
}
