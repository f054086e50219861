package report

import (
	"context"
	"errors"
	"testing"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/registry"
	"crm-reporting/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeDefinitionRepo struct {
	defs       map[string]*ReportDefinition
	lastRunIDs []primitive.ObjectID
}

func (f *fakeDefinitionRepo) Create(ctx context.Context, def *ReportDefinition) error {
	if def.ID.IsZero() {
		def.ID = primitive.NewObjectID()
	}
	f.defs[def.ID.Hex()] = def
	return nil
}

func (f *fakeDefinitionRepo) Get(ctx context.Context, rc common_models.RequestContext, id string) (*ReportDefinition, error) {
	def, ok := f.defs[id]
	if !ok || def.TenantID != rc.TenantID {
		return nil, ErrNotFound
	}
	return def, nil
}

func (f *fakeDefinitionRepo) List(ctx context.Context, rc common_models.RequestContext) ([]ReportDefinition, error) {
	var out []ReportDefinition
	for _, d := range f.defs {
		if d.TenantID == rc.TenantID {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDefinitionRepo) Update(ctx context.Context, rc common_models.RequestContext, id string, def *ReportDefinition) error {
	if _, ok := f.defs[id]; !ok {
		return ErrNotFound
	}
	f.defs[id] = def
	return nil
}

func (f *fakeDefinitionRepo) Delete(ctx context.Context, rc common_models.RequestContext, id string) error {
	delete(f.defs, id)
	return nil
}

func (f *fakeDefinitionRepo) TouchLastRun(ctx context.Context, id primitive.ObjectID, ranAt time.Time) error {
	f.lastRunIDs = append(f.lastRunIDs, id)
	return nil
}

type fakeExecutionRepo struct {
	executions []ReportExecution
}

func (f *fakeExecutionRepo) Append(ctx context.Context, exec *ReportExecution) error {
	f.executions = append(f.executions, *exec)
	return nil
}

func (f *fakeExecutionRepo) ListByReport(ctx context.Context, rc common_models.RequestContext, reportID string, limit int64) ([]ReportExecution, error) {
	return f.executions, nil
}

type fakeStore struct {
	rows []map[string]any
	err  error

	lastEntity string
	lastQuery  *store.Query
}

func (f *fakeStore) Find(ctx context.Context, tenantID primitive.ObjectID, entity string, q *store.Query) ([]map[string]any, int64, error) {
	f.lastEntity = entity
	f.lastQuery = q
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.rows, int64(len(f.rows)), nil
}

func (f *fakeStore) Count(ctx context.Context, tenantID primitive.ObjectID, entity string, q *store.Query) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return int64(len(f.rows)), nil
}

func (f *fakeStore) Insert(ctx context.Context, tenantID primitive.ObjectID, entity string, data map[string]any) (primitive.ObjectID, error) {
	return primitive.NewObjectID(), nil
}

func newTestService(defs map[string]*ReportDefinition, st *fakeStore) (*ReportServiceImpl, *fakeDefinitionRepo, *fakeExecutionRepo) {
	defRepo := &fakeDefinitionRepo{defs: defs}
	execRepo := &fakeExecutionRepo{}
	svc := &ReportServiceImpl{
		DefRepo:  defRepo,
		ExecRepo: execRepo,
		Registry: registry.New(),
		Store:    st,
		Logger:   zap.NewNop(),
	}
	return svc, defRepo, execRepo
}

func testContextAndDef(objectType registry.ObjectType) (common_models.RequestContext, *ReportDefinition) {
	rc := common_models.RequestContext{TenantID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}
	def := &ReportDefinition{
		ID:         primitive.NewObjectID(),
		TenantID:   rc.TenantID,
		OwnerID:    rc.UserID,
		Name:       "deals by status",
		ObjectType: objectType,
	}
	return rc, def
}

func TestRunReportNotFound(t *testing.T) {
	svc, _, _ := newTestService(map[string]*ReportDefinition{}, &fakeStore{})
	rc := common_models.RequestContext{TenantID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}

	_, err := svc.RunReport(context.Background(), rc, primitive.NewObjectID().Hex(), nil, ExecutionAdHoc)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestRunReportCrossTenantIsNotFound(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	svc, _, _ := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, &fakeStore{})

	other := common_models.RequestContext{TenantID: primitive.NewObjectID(), UserID: rc.UserID}
	_, err := svc.RunReport(context.Background(), other, def.ID.Hex(), nil, ExecutionAdHoc)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound for another tenant's report", err)
	}
}

func TestRunReportDetail(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	def.Filters = []ReportFilter{{Field: "won", Operator: OperatorEquals, Value: true}}
	st := &fakeStore{rows: []map[string]any{
		{"name": "Deal A", "value": 100.0},
		{"name": "Deal B", "value": 200.0},
	}}
	svc, defRepo, execRepo := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, st)

	adhoc := []ReportFilter{{Field: "value", Operator: OperatorGreaterThan, Value: 50.0}}
	result, err := svc.RunReport(context.Background(), rc, def.ID.Hex(), adhoc, ExecutionAdHoc)
	if err != nil {
		t.Fatalf("RunReport() error = %v", err)
	}

	if result.Kind != ResultDetail {
		t.Errorf("kind = %q, want detail", result.Kind)
	}
	if result.TotalCount != 2 || len(result.Rows) != 2 {
		t.Errorf("total = %d rows = %d, want 2/2", result.TotalCount, len(result.Rows))
	}
	if st.lastEntity != "deals" {
		t.Errorf("queried entity %q, want deals", st.lastEntity)
	}

	// persisted plus ad-hoc filters both reach the query
	filter := st.lastQuery.Filter()
	if len(filter) != 2 {
		t.Errorf("query filter = %v, want won and value conditions", filter)
	}

	if len(execRepo.executions) != 1 {
		t.Fatalf("executions = %d, want 1", len(execRepo.executions))
	}
	exec := execRepo.executions[0]
	if exec.RowCount != 2 || exec.FiltersApplied != 2 || exec.ExecutionType != ExecutionAdHoc {
		t.Errorf("audit row = %+v", exec)
	}
	if exec.TenantID != rc.TenantID || exec.UserID != rc.UserID {
		t.Error("audit row not scoped to the calling tenant/user")
	}
	if len(defRepo.lastRunIDs) != 1 || defRepo.lastRunIDs[0] != def.ID {
		t.Error("last_run_at was not touched")
	}
}

// Ad-hoc filters run once; they must not be written back to the definition.
func TestRunReportDoesNotPersistAdhocFilters(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	svc, defRepo, _ := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, &fakeStore{})

	adhoc := []ReportFilter{{Field: "value", Operator: OperatorGreaterThan, Value: 50.0}}
	if _, err := svc.RunReport(context.Background(), rc, def.ID.Hex(), adhoc, ExecutionAdHoc); err != nil {
		t.Fatalf("RunReport() error = %v", err)
	}

	if len(defRepo.defs[def.ID.Hex()].Filters) != 0 {
		t.Error("ad-hoc filters leaked into the stored definition")
	}
}

func TestRunReportGrouped(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	def.Grouping = "stage"
	st := &fakeStore{rows: []map[string]any{
		{"name": "A1", "stage": "qualified"},
		{"name": "A2", "stage": "qualified"},
		{"name": "B1", "stage": "proposal"},
		{"name": "C1"}, // no stage value
	}}
	svc, _, _ := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, st)

	result, err := svc.RunReport(context.Background(), rc, def.ID.Hex(), nil, ExecutionAdHoc)
	if err != nil {
		t.Fatalf("RunReport() error = %v", err)
	}

	if result.Kind != ResultGrouped {
		t.Fatalf("kind = %q, want grouped", result.Kind)
	}
	if result.Rows != nil {
		t.Error("grouped result must not carry top-level detail rows")
	}

	// Grouping conservation: group counts and summary both sum to TotalCount
	var groupSum, summarySum int
	for _, g := range result.Groups {
		groupSum += g.Count
		if len(g.Items) != g.Count {
			t.Errorf("group %q: %d items vs count %d", g.Key, len(g.Items), g.Count)
		}
	}
	for _, n := range result.Summary {
		summarySum += n
	}
	if int64(groupSum) != result.TotalCount || int64(summarySum) != result.TotalCount {
		t.Errorf("conservation violated: groups=%d summary=%d total=%d", groupSum, summarySum, result.TotalCount)
	}

	if result.Summary["Unknown"] != 1 {
		t.Errorf("missing grouping value should bucket as Unknown, summary = %v", result.Summary)
	}
	if result.Groups[0].Key != "qualified" || result.Groups[0].Count != 2 {
		t.Errorf("groups not sorted by descending count: %+v", result.Groups)
	}
}

// A store failure aborts the run: error to the caller, no audit row, no
// last_run_at update.
func TestRunReportStoreErrorLeavesNoSideEffects(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	st := &fakeStore{err: errors.New("connection reset")}
	svc, defRepo, execRepo := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, st)

	_, err := svc.RunReport(context.Background(), rc, def.ID.Hex(), nil, ExecutionAdHoc)
	if err == nil {
		t.Fatal("expected error from failing store")
	}
	if len(execRepo.executions) != 0 {
		t.Error("audit row written despite store failure")
	}
	if len(defRepo.lastRunIDs) != 0 {
		t.Error("last_run_at touched despite store failure")
	}
}

func TestCreateReportRejectsUnknownObjectType(t *testing.T) {
	svc, _, _ := newTestService(map[string]*ReportDefinition{}, &fakeStore{})
	rc := common_models.RequestContext{TenantID: primitive.NewObjectID(), UserID: primitive.NewObjectID()}

	err := svc.CreateReport(context.Background(), rc, &ReportDefinition{Name: "x", ObjectType: "invoices"})
	if !errors.Is(err, ErrValidation) {
		t.Errorf("error = %v, want ErrValidation", err)
	}
}

func TestExportReportCSV(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	def.Fields = []string{"name", "value"}
	st := &fakeStore{rows: []map[string]any{
		{"name": "Deal, Inc", "value": 100.0},
	}}
	svc, _, execRepo := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, st)

	data, filename, err := svc.ExportReport(context.Background(), rc, def.ID.Hex(), "csv")
	if err != nil {
		t.Fatalf("ExportReport() error = %v", err)
	}
	if len(data) == 0 {
		t.Error("empty export output")
	}
	if filename == "" {
		t.Error("empty filename")
	}
	if len(execRepo.executions) != 1 || execRepo.executions[0].ExecutionType != ExecutionExport {
		t.Errorf("export run not audited as export: %+v", execRepo.executions)
	}
}

func TestExportReportUnsupportedFormat(t *testing.T) {
	rc, def := testContextAndDef(registry.ObjectDeals)
	svc, _, _ := newTestService(map[string]*ReportDefinition{def.ID.Hex(): def}, &fakeStore{})

	if _, _, err := svc.ExportReport(context.Background(), rc, def.ID.Hex(), "pdf"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
