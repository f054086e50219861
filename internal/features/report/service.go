package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/features/export"
	"crm-reporting/internal/registry"
	"crm-reporting/internal/store"

	"go.uber.org/zap"
)

type ReportService interface {
	CreateReport(ctx context.Context, rc common_models.RequestContext, def *ReportDefinition) error
	GetReport(ctx context.Context, rc common_models.RequestContext, id string) (*ReportDefinition, error)
	ListReports(ctx context.Context, rc common_models.RequestContext) ([]ReportDefinition, error)
	UpdateReport(ctx context.Context, rc common_models.RequestContext, id string, def *ReportDefinition) error
	DeleteReport(ctx context.Context, rc common_models.RequestContext, id string) error
	RunReport(ctx context.Context, rc common_models.RequestContext, id string, adhoc []ReportFilter, execType ExecutionType) (*ReportResult, error)
	ExportReport(ctx context.Context, rc common_models.RequestContext, id string, format string) ([]byte, string, error)
	ListExecutions(ctx context.Context, rc common_models.RequestContext, id string, limit int64) ([]ReportExecution, error)
}

type ReportServiceImpl struct {
	DefRepo  DefinitionRepository
	ExecRepo ExecutionRepository
	Registry *registry.Registry
	Store    store.EntityStore
	Logger   *zap.Logger
}

func NewReportService(
	defRepo DefinitionRepository,
	execRepo ExecutionRepository,
	reg *registry.Registry,
	entityStore store.EntityStore,
	logger *zap.Logger,
) ReportService {
	return &ReportServiceImpl{
		DefRepo:  defRepo,
		ExecRepo: execRepo,
		Registry: reg,
		Store:    entityStore,
		Logger:   logger,
	}
}

func (s *ReportServiceImpl) CreateReport(ctx context.Context, rc common_models.RequestContext, def *ReportDefinition) error {
	if !s.Registry.Known(def.ObjectType) {
		return fmt.Errorf("%w: unknown object type %q", ErrValidation, def.ObjectType)
	}
	def.TenantID = rc.TenantID
	def.OwnerID = rc.UserID
	return s.DefRepo.Create(ctx, def)
}

func (s *ReportServiceImpl) GetReport(ctx context.Context, rc common_models.RequestContext, id string) (*ReportDefinition, error) {
	return s.DefRepo.Get(ctx, rc, id)
}

func (s *ReportServiceImpl) ListReports(ctx context.Context, rc common_models.RequestContext) ([]ReportDefinition, error) {
	return s.DefRepo.List(ctx, rc)
}

func (s *ReportServiceImpl) UpdateReport(ctx context.Context, rc common_models.RequestContext, id string, def *ReportDefinition) error {
	if !s.Registry.Known(def.ObjectType) {
		return fmt.Errorf("%w: unknown object type %q", ErrValidation, def.ObjectType)
	}
	return s.DefRepo.Update(ctx, rc, id, def)
}

func (s *ReportServiceImpl) DeleteReport(ctx context.Context, rc common_models.RequestContext, id string) error {
	return s.DefRepo.Delete(ctx, rc, id)
}

// RunReport executes one report in a single pass: resolve, merge filters,
// query, optionally group, then record the audit row and touch last_run_at.
// Any store error aborts the run before the audit write; there are no
// retries and no partial results.
func (s *ReportServiceImpl) RunReport(ctx context.Context, rc common_models.RequestContext, id string, adhoc []ReportFilter, execType ExecutionType) (*ReportResult, error) {
	start := time.Now()

	def, err := s.DefRepo.Get(ctx, rc, id)
	if err != nil {
		return nil, err
	}

	entity, ok := s.Registry.EntityFor(def.ObjectType)
	if !ok {
		return nil, fmt.Errorf("%w: unknown object type %q", ErrValidation, def.ObjectType)
	}

	// Ad-hoc filters join the persisted set for this run only
	filters := make([]ReportFilter, 0, len(def.Filters)+len(adhoc))
	filters = append(filters, def.Filters...)
	filters = append(filters, adhoc...)

	q := store.NewQuery().Select(def.Fields)
	q = ApplyFilters(q, filters)
	if def.SortField != "" {
		q.Sort(def.SortField, string(def.SortDirection))
	}

	rows, total, err := s.Store.Find(ctx, rc.TenantID, entity, q)
	if err != nil {
		return nil, fmt.Errorf("report query failed: %w", err)
	}

	result := &ReportResult{Kind: ResultDetail, Rows: rows, TotalCount: total}
	if def.Grouping != "" {
		result = groupRows(def.Grouping, rows, total)
	}

	ranAt := time.Now()
	exec := &ReportExecution{
		ReportID:        def.ID,
		TenantID:        rc.TenantID,
		UserID:          rc.UserID,
		ExecutionType:   execType,
		RowCount:        total,
		ExecutionTimeMs: time.Since(start).Milliseconds(),
		FiltersApplied:  len(filters),
		Timestamp:       ranAt,
	}
	if err := s.ExecRepo.Append(ctx, exec); err != nil {
		s.Logger.Warn("failed to record report execution",
			zap.String("report_id", id),
			zap.String("tenant", rc.TenantID.Hex()),
			zap.Error(err))
	}
	if err := s.DefRepo.TouchLastRun(ctx, def.ID, ranAt); err != nil {
		s.Logger.Warn("failed to update last_run_at",
			zap.String("report_id", id),
			zap.Error(err))
	}

	result.ExecutionTimeMs = time.Since(start).Milliseconds()
	return result, nil
}

func (s *ReportServiceImpl) ExportReport(ctx context.Context, rc common_models.RequestContext, id string, format string) ([]byte, string, error) {
	if format != "csv" && format != "xlsx" {
		return nil, "", fmt.Errorf("%w: unsupported format %q", ErrValidation, format)
	}

	def, err := s.DefRepo.Get(ctx, rc, id)
	if err != nil {
		return nil, "", err
	}

	result, err := s.RunReport(ctx, rc, id, nil, ExecutionExport)
	if err != nil {
		return nil, "", err
	}

	rows, columns := exportableRows(def, result)

	stamp := time.Now().Format("20060102_150405")
	if format == "xlsx" {
		return export.ToExcel(rows, columns, fmt.Sprintf("%s_report_%s", def.Name, stamp))
	}

	data, err := export.ToCSV(rows, columns)
	if err != nil {
		return nil, "", err
	}
	return data, fmt.Sprintf("%s_report_%s.csv", def.Name, stamp), nil
}

func (s *ReportServiceImpl) ListExecutions(ctx context.Context, rc common_models.RequestContext, id string, limit int64) ([]ReportExecution, error) {
	if _, err := s.DefRepo.Get(ctx, rc, id); err != nil {
		return nil, err
	}
	return s.ExecRepo.ListByReport(ctx, rc, id, limit)
}

// exportableRows flattens a result into uniform rows for the encoders:
// grouped results export one row per group.
func exportableRows(def *ReportDefinition, result *ReportResult) ([]map[string]any, []string) {
	if result.Kind == ResultGrouped {
		rows := make([]map[string]any, 0, len(result.Groups))
		for _, g := range result.Groups {
			rows = append(rows, map[string]any{def.Grouping: g.Key, "count": g.Count})
		}
		return rows, []string{def.Grouping, "count"}
	}
	return result.Rows, def.Fields
}

// groupRows partitions detail rows by the grouping field's stringified
// value; rows with no value land in the "Unknown" bucket. Groups come out
// sorted by descending count, then key, so output is deterministic.
func groupRows(groupField string, rows []map[string]any, total int64) *ReportResult {
	buckets := make(map[string][]map[string]any)
	for _, row := range rows {
		val, ok := row[groupField]
		if !ok || val == nil {
			val = "Unknown"
		}
		key := fmt.Sprintf("%v", val)
		buckets[key] = append(buckets[key], row)
	}

	groups := make([]Group, 0, len(buckets))
	summary := make(map[string]int, len(buckets))
	for key, items := range buckets {
		groups = append(groups, Group{Key: key, Count: len(items), Items: items})
		summary[key] = len(items)
	}

	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Key < groups[j].Key
	})

	return &ReportResult{
		Kind:       ResultGrouped,
		Groups:     groups,
		Summary:    summary,
		TotalCount: total,
	}
}
