package schedule

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/features/report"

	"github.com/robfig/cron/v3"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type ScheduleService interface {
	CreateSchedule(ctx context.Context, rc common_models.RequestContext, sched *ReportSchedule) error
	GetSchedule(ctx context.Context, rc common_models.RequestContext, id string) (*ReportSchedule, error)
	ListSchedules(ctx context.Context, rc common_models.RequestContext) ([]ReportSchedule, error)
	UpdateSchedule(ctx context.Context, rc common_models.RequestContext, id string, sched *ReportSchedule) error
	DeleteSchedule(ctx context.Context, rc common_models.RequestContext, id string) error
	InitializeScheduler(ctx context.Context) error
	StopScheduler() error
}

type ScheduleServiceImpl struct {
	Repo          ScheduleRepository
	ReportService report.ReportService
	Logger        *zap.Logger

	scheduler  *cron.Cron
	jobEntries map[string]cron.EntryID
	mu         sync.Mutex
}

func NewScheduleService(repo ScheduleRepository, reportService report.ReportService, logger *zap.Logger) ScheduleService {
	return &ScheduleServiceImpl{
		Repo:          repo,
		ReportService: reportService,
		Logger:        logger,
		jobEntries:    make(map[string]cron.EntryID),
	}
}

func (s *ScheduleServiceImpl) validate(sched *ReportSchedule) (cron.Schedule, error) {
	parsed, err := cron.ParseStandard(sched.Expression)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid cron expression: %v", ErrValidation, err)
	}
	if sched.Format == "" {
		sched.Format = "csv"
	}
	if sched.Format != "csv" && sched.Format != "xlsx" {
		return nil, fmt.Errorf("%w: unsupported format %q", ErrValidation, sched.Format)
	}
	if sched.ReportID.IsZero() {
		return nil, fmt.Errorf("%w: report_id is required", ErrValidation)
	}
	return parsed, nil
}

func (s *ScheduleServiceImpl) CreateSchedule(ctx context.Context, rc common_models.RequestContext, sched *ReportSchedule) error {
	parsed, err := s.validate(sched)
	if err != nil {
		return err
	}

	// The referenced report must exist under the same tenant
	if _, err := s.ReportService.GetReport(ctx, rc, sched.ReportID.Hex()); err != nil {
		return err
	}

	sched.TenantID = rc.TenantID
	sched.OwnerID = rc.UserID
	next := parsed.Next(time.Now())
	sched.NextRun = &next

	if err := s.Repo.Create(ctx, sched); err != nil {
		return err
	}

	if sched.Active {
		if err := s.registerJob(sched); err != nil {
			s.Logger.Error("failed to register schedule", zap.String("schedule_id", sched.ID.Hex()), zap.Error(err))
		}
	}
	return nil
}

func (s *ScheduleServiceImpl) GetSchedule(ctx context.Context, rc common_models.RequestContext, id string) (*ReportSchedule, error) {
	return s.Repo.Get(ctx, rc, id)
}

func (s *ScheduleServiceImpl) ListSchedules(ctx context.Context, rc common_models.RequestContext) ([]ReportSchedule, error) {
	return s.Repo.List(ctx, rc)
}

func (s *ScheduleServiceImpl) UpdateSchedule(ctx context.Context, rc common_models.RequestContext, id string, sched *ReportSchedule) error {
	parsed, err := s.validate(sched)
	if err != nil {
		return err
	}

	existing, err := s.Repo.Get(ctx, rc, id)
	if err != nil {
		return err
	}

	next := parsed.Next(time.Now())
	sched.NextRun = &next

	if err := s.Repo.Update(ctx, rc, id, sched); err != nil {
		return err
	}

	// Re-register so expression or active changes take effect
	s.unregisterJob(existing.ID.Hex())
	if sched.Active {
		sched.ID = existing.ID
		sched.TenantID = existing.TenantID
		sched.OwnerID = existing.OwnerID
		if err := s.registerJob(sched); err != nil {
			s.Logger.Error("failed to re-register schedule", zap.String("schedule_id", id), zap.Error(err))
		}
	}
	return nil
}

func (s *ScheduleServiceImpl) DeleteSchedule(ctx context.Context, rc common_models.RequestContext, id string) error {
	if err := s.Repo.Delete(ctx, rc, id); err != nil {
		return err
	}
	s.unregisterJob(id)
	return nil
}

func (s *ScheduleServiceImpl) InitializeScheduler(ctx context.Context) error {
	s.mu.Lock()
	s.scheduler = cron.New()
	s.mu.Unlock()

	scheds, err := s.Repo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to load active schedules: %w", err)
	}

	for i := range scheds {
		if err := s.registerJob(&scheds[i]); err != nil {
			s.Logger.Error("failed to register schedule", zap.String("schedule_id", scheds[i].ID.Hex()), zap.Error(err))
		}
	}

	s.scheduler.Start()
	s.Logger.Info("report scheduler started", zap.Int("schedules", len(scheds)))
	return nil
}

func (s *ScheduleServiceImpl) StopScheduler() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduler != nil {
		<-s.scheduler.Stop().Done()
	}
	return nil
}

func (s *ScheduleServiceImpl) registerJob(sched *ReportSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler == nil {
		return fmt.Errorf("scheduler not initialized")
	}

	id := sched.ID
	entryID, err := s.scheduler.AddFunc(sched.Expression, func() {
		s.runScheduled(id)
	})
	if err != nil {
		return fmt.Errorf("failed to add schedule to scheduler: %w", err)
	}

	s.jobEntries[id.Hex()] = entryID
	return nil
}

func (s *ScheduleServiceImpl) unregisterJob(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entryID, ok := s.jobEntries[id]; ok && s.scheduler != nil {
		s.scheduler.Remove(entryID)
		delete(s.jobEntries, id)
	}
}

// runScheduled fires on the cron tick. It re-reads the schedule so edits and
// deactivations made since registration are honored, then runs the report
// under the owner's identity.
func (s *ScheduleServiceImpl) runScheduled(id primitive.ObjectID) {
	ctx := context.Background()

	sched, err := s.Repo.GetByID(ctx, id)
	if err != nil || !sched.Active {
		return
	}

	rc := common_models.RequestContext{TenantID: sched.TenantID, UserID: sched.OwnerID}
	result, err := s.ReportService.RunReport(ctx, rc, sched.ReportID.Hex(), nil, report.ExecutionScheduled)
	if err != nil {
		s.Logger.Error("scheduled report run failed",
			zap.String("schedule_id", sched.ID.Hex()),
			zap.String("report_id", sched.ReportID.Hex()),
			zap.Error(err))
		return
	}

	s.Logger.Info("scheduled report run completed",
		zap.String("schedule_id", sched.ID.Hex()),
		zap.String("report_id", sched.ReportID.Hex()),
		zap.Int64("rows", result.TotalCount),
		zap.Int64("duration_ms", result.ExecutionTimeMs))

	if parsed, err := cron.ParseStandard(sched.Expression); err == nil {
		if err := s.Repo.SetNextRun(ctx, sched.ID, parsed.Next(time.Now())); err != nil {
			s.Logger.Warn("failed to update next run", zap.String("schedule_id", sched.ID.Hex()), zap.Error(err))
		}
	}
}
