package standard

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/store"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// fakeStore serves canned rows per entity; pipelines fetch concurrently, so
// access is guarded.
type fakeStore struct {
	mu      sync.Mutex
	rows    map[string][]map[string]any
	failOn  string
	queries map[string]*store.Query
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:    make(map[string][]map[string]any),
		queries: make(map[string]*store.Query),
	}
}

func (f *fakeStore) Find(ctx context.Context, tenantID primitive.ObjectID, entity string, q *store.Query) ([]map[string]any, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entity == f.failOn {
		return nil, 0, errors.New("store unavailable")
	}
	f.queries[entity] = q
	rows := f.rows[entity]
	return rows, int64(len(rows)), nil
}

func (f *fakeStore) Count(ctx context.Context, tenantID primitive.ObjectID, entity string, q *store.Query) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entity == f.failOn {
		return 0, errors.New("store unavailable")
	}
	var n int64
	filter := q.Filter()
	for _, row := range f.rows[entity] {
		if status, ok := filter["status"]; ok && row["status"] != status {
			continue
		}
		n++
	}
	return n, nil
}

func (f *fakeStore) Insert(ctx context.Context, tenantID primitive.ObjectID, entity string, data map[string]any) (primitive.ObjectID, error) {
	return primitive.NewObjectID(), nil
}

func newTestService(fs *fakeStore) StandardReportService {
	return NewStandardReportService(fs, zap.NewNop())
}

func testRequestContext() common_models.RequestContext {
	return common_models.RequestContext{
		TenantID: primitive.NewObjectID(),
		UserID:   primitive.NewObjectID(),
	}
}

func run(t *testing.T, fs *fakeStore, key Key) any {
	t.Helper()
	result, err := newTestService(fs).Run(context.Background(), testRequestContext(), key,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC))
	if err != nil {
		t.Fatalf("Run(%s): %v", key, err)
	}
	return result
}

func TestRunUnknownKey(t *testing.T) {
	_, err := newTestService(newFakeStore()).Run(context.Background(), testRequestContext(), Key("nope"), time.Now(), time.Now())
	if !errors.Is(err, ErrUnknownKey) {
		t.Fatalf("expected ErrUnknownKey, got %v", err)
	}
}

func TestPipelineByStage(t *testing.T) {
	stageA, stageB, stageC := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	fs := newFakeStore()
	fs.rows[entityStages] = []map[string]any{
		{"_id": stageA, "name": "A", "order": 1},
		{"_id": stageB, "name": "B", "order": 2},
		{"_id": stageC, "name": "C", "order": 3},
	}
	fs.rows[entityDeals] = []map[string]any{
		{"stage_id": stageA, "value": float64(100)},
		{"stage_id": stageA, "value": float64(200)},
		{"stage_id": stageB, "value": float64(50)},
	}

	got := run(t, fs, KeyPipelineByStage).([]StageSummary)
	want := []StageSummary{
		{Stage: "A", Count: 2, Value: 300},
		{Stage: "B", Count: 1, Value: 50},
		{Stage: "C", Count: 0, Value: 0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pipeline_by_stage = %+v, want %+v", got, want)
	}
}

func TestSalesByRep(t *testing.T) {
	userX, userY := primitive.NewObjectID(), primitive.NewObjectID()

	fs := newFakeStore()
	fs.rows[entityUsers] = []map[string]any{
		{"_id": userX, "first_name": "X", "last_name": ""},
		{"_id": userY, "first_name": "Y", "last_name": ""},
	}
	fs.rows[entityDeals] = []map[string]any{
		{"owner_id": userX, "value": float64(1000), "won": true},
		{"owner_id": userX, "value": float64(500), "won": true},
		{"owner_id": userY, "value": float64(2000), "won": true},
		{"value": float64(9999), "won": true}, // ownerless, excluded
	}

	got := run(t, fs, KeySalesByRep).([]RepSummary)
	want := []RepSummary{
		{Name: "Y", Value: 2000, Count: 1},
		{Name: "X", Value: 1500, Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sales_by_rep = %+v, want %+v", got, want)
	}
}

func TestSalesByTeamExcludesTeamlessOwners(t *testing.T) {
	teamID := primitive.NewObjectID()
	userX, userY := primitive.NewObjectID(), primitive.NewObjectID()

	fs := newFakeStore()
	fs.rows[entityTeams] = []map[string]any{
		{"_id": teamID, "name": "East"},
	}
	fs.rows[entityUsers] = []map[string]any{
		{"_id": userX, "first_name": "X", "team_id": teamID},
		{"_id": userY, "first_name": "Y"},
	}
	fs.rows[entityDeals] = []map[string]any{
		{"owner_id": userX, "value": float64(100), "won": true},
		{"owner_id": userY, "value": float64(200), "won": true},
	}

	got := run(t, fs, KeySalesByTeam).([]RepSummary)
	want := []RepSummary{{Name: "East", Value: 100, Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("sales_by_team = %+v, want %+v", got, want)
	}
}

func TestLeadConversionRate(t *testing.T) {
	cases := []struct {
		name  string
		leads []map[string]any
		want  ConversionSummary
	}{
		{
			name:  "no leads",
			leads: nil,
			want:  ConversionSummary{},
		},
		{
			name: "one in four converted",
			leads: []map[string]any{
				{"status": "converted"},
				{"status": "new"},
				{"status": "new"},
				{"status": "lost"},
			},
			want: ConversionSummary{TotalLeads: 4, ConvertedLeads: 1, ConversionRate: 25},
		},
		{
			name: "repeating decimal rounds",
			leads: []map[string]any{
				{"status": "converted"},
				{"status": "new"},
				{"status": "new"},
			},
			want: ConversionSummary{TotalLeads: 3, ConvertedLeads: 1, ConversionRate: 33.33},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeStore()
			fs.rows[entityLeads] = tc.leads

			got := run(t, fs, KeyLeadConversionRate).(ConversionSummary)
			if got != tc.want {
				t.Fatalf("lead_conversion_rate = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestForecastVsActual(t *testing.T) {
	cases := []struct {
		name      string
		forecasts []map[string]any
		deals     []map[string]any
		want      ForecastSummary
	}{
		{
			name:  "zero forecast keeps percentage at zero",
			deals: []map[string]any{{"value": float64(500), "won": true}},
			want:  ForecastSummary{Actual: 500, Variance: 500},
		},
		{
			name:      "overshoot",
			forecasts: []map[string]any{{"amount": float64(1000)}},
			deals: []map[string]any{
				{"value": float64(700), "won": true},
				{"value": float64(500), "won": true},
			},
			want: ForecastSummary{Forecast: 1000, Actual: 1200, Variance: 200, VariancePercentage: 20},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newFakeStore()
			fs.rows[entityForecasts] = tc.forecasts
			fs.rows[entityDeals] = tc.deals

			got := run(t, fs, KeyForecastVsActual).(ForecastSummary)
			if got != tc.want {
				t.Fatalf("forecast_vs_actual = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestActivityByType(t *testing.T) {
	fs := newFakeStore()
	fs.rows[entityActivities] = []map[string]any{
		{"activity_type": "call"},
		{"activity_type": "call"},
		{"activity_type": "email"},
		{"activity_type": "meeting"},
		{"activity_type": "email"},
		{"activity_type": "call"},
	}

	got := run(t, fs, KeyActivityByType).([]ActivityCount)
	want := []ActivityCount{
		{Name: "call", Count: 3},
		{Name: "email", Count: 2},
		{Name: "meeting", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("activity_by_type = %+v, want %+v", got, want)
	}
}

func TestActivityByRepSkipsUnknownUsers(t *testing.T) {
	userX := primitive.NewObjectID()

	fs := newFakeStore()
	fs.rows[entityUsers] = []map[string]any{
		{"_id": userX, "first_name": "Ada", "last_name": "Logan"},
	}
	fs.rows[entityActivities] = []map[string]any{
		{"user_id": userX},
		{"user_id": userX},
		{"user_id": primitive.NewObjectID()},
	}

	got := run(t, fs, KeyActivityByRep).([]ActivityCount)
	want := []ActivityCount{{Name: "Ada Logan", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("activity_by_rep = %+v, want %+v", got, want)
	}
}

func TestDealsClosedWonSortsByCloseDate(t *testing.T) {
	fs := newFakeStore()
	fs.rows[entityDeals] = []map[string]any{
		{"name": "first", "won": true},
	}

	rows := run(t, fs, KeyDealsClosedWon).([]map[string]any)
	if len(rows) != 1 || rows[0]["name"] != "first" {
		t.Fatalf("deals_closed_won rows = %+v", rows)
	}

	q := fs.queries[entityDeals]
	if q.SortField() != "closed_at" || q.SortOrder() != -1 {
		t.Fatalf("expected closed_at desc sort, got %s %d", q.SortField(), q.SortOrder())
	}
	if won, ok := q.Filter()["won"].(bool); !ok || !won {
		t.Fatalf("expected won=true filter, got %v", q.Filter())
	}
}

func TestFetchErrorPropagates(t *testing.T) {
	fs := newFakeStore()
	fs.failOn = entityUsers
	fs.rows[entityDeals] = []map[string]any{{"value": float64(100), "won": true}}

	_, err := newTestService(fs).Run(context.Background(), testRequestContext(), KeySalesByRep, time.Now().Add(-time.Hour), time.Now())
	if err == nil {
		t.Fatal("expected error from failed user fetch")
	}
}
