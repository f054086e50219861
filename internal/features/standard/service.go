package standard

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Record entities the standard pipelines read. Stages, teams and forecasts
// are not reportable object types, so they live here rather than in the
// registry.
const (
	entityDeals      = "deals"
	entityStages     = "pipeline_stages"
	entityUsers      = "users"
	entityTeams      = "teams"
	entityLeads      = "leads"
	entityActivities = "activities"
	entityForecasts  = "forecasts"
)

type StandardReportService interface {
	Run(ctx context.Context, reqCtx common_models.RequestContext, key Key, start, end time.Time) (any, error)
}

type StandardReportServiceImpl struct {
	Store  store.EntityStore
	Logger *zap.Logger
}

func NewStandardReportService(entityStore store.EntityStore, logger *zap.Logger) StandardReportService {
	return &StandardReportServiceImpl{
		Store:  entityStore,
		Logger: logger,
	}
}

// Run executes one fixed pipeline over an inclusive [start, end] range. A
// failed fetch cancels any sibling fetches and propagates with no partial
// output.
func (s *StandardReportServiceImpl) Run(ctx context.Context, reqCtx common_models.RequestContext, key Key, start, end time.Time) (any, error) {
	switch key {
	case KeyPipelineByStage:
		return s.pipelineByStage(ctx, reqCtx.TenantID, start, end)
	case KeyDealsClosedWon:
		return s.dealsClosed(ctx, reqCtx.TenantID, start, end, true)
	case KeyDealsClosedLost:
		return s.dealsClosed(ctx, reqCtx.TenantID, start, end, false)
	case KeyLeadConversionRate:
		return s.leadConversionRate(ctx, reqCtx.TenantID, start, end)
	case KeySalesByRep:
		return s.salesByRep(ctx, reqCtx.TenantID, start, end)
	case KeySalesByTeam:
		return s.salesByTeam(ctx, reqCtx.TenantID, start, end)
	case KeyActivityByType:
		return s.activityByType(ctx, reqCtx.TenantID, start, end)
	case KeyActivityByRep:
		return s.activityByRep(ctx, reqCtx.TenantID, start, end)
	case KeyForecastVsActual:
		return s.forecastVsActual(ctx, reqCtx.TenantID, start, end)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
}

func rangeExpr(start, end time.Time) bson.M {
	return bson.M{"$gte": start, "$lte": end}
}

// pipelineByStage buckets open deal count and value per stage. Stage order
// drives the output order and zero-deal stages are kept at count 0.
func (s *StandardReportServiceImpl) pipelineByStage(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) ([]StageSummary, error) {
	var stages, deals []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, _, err := s.Store.Find(gctx, tenantID, entityStages, store.NewQuery().Sort("order", "asc"))
		stages = rows
		return err
	})
	g.Go(func() error {
		q := store.NewQuery().
			Where("closed_at", bson.M{"$eq": nil}).
			Where("created_at", rangeExpr(start, end))
		rows, _, err := s.Store.Find(gctx, tenantID, entityDeals, q)
		deals = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	type bucket struct {
		count int
		value float64
	}
	byStage := make(map[string]*bucket)
	for _, deal := range deals {
		id := stringID(deal["stage_id"])
		if id == "" {
			continue
		}
		b, ok := byStage[id]
		if !ok {
			b = &bucket{}
			byStage[id] = b
		}
		b.count++
		b.value += toFloat64(deal["value"])
	}

	out := make([]StageSummary, 0, len(stages))
	for _, stage := range stages {
		row := StageSummary{Stage: stringOf(stage["name"])}
		if b, ok := byStage[stringID(stage["_id"])]; ok {
			row.Count = b.count
			row.Value = b.value
		}
		out = append(out, row)
	}
	return out, nil
}

// dealsClosed lists won or lost deals closed in range, newest close first.
func (s *StandardReportServiceImpl) dealsClosed(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time, won bool) ([]map[string]any, error) {
	q := store.NewQuery().
		Where("won", won).
		Where("closed_at", rangeExpr(start, end)).
		Sort("closed_at", "desc")
	if !won {
		// Lost means explicitly closed, not merely open
		q.Where("closed_at", bson.M{"$ne": nil})
	}

	rows, _, err := s.Store.Find(ctx, tenantID, entityDeals, q)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	return rows, nil
}

func (s *StandardReportServiceImpl) leadConversionRate(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) (ConversionSummary, error) {
	var total, converted int64

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.Store.Count(gctx, tenantID, entityLeads, store.NewQuery().Where("created_at", rangeExpr(start, end)))
		total = n
		return err
	})
	g.Go(func() error {
		q := store.NewQuery().
			Where("created_at", rangeExpr(start, end)).
			Where("status", "converted")
		n, err := s.Store.Count(gctx, tenantID, entityLeads, q)
		converted = n
		return err
	})
	if err := g.Wait(); err != nil {
		return ConversionSummary{}, err
	}

	summary := ConversionSummary{TotalLeads: total, ConvertedLeads: converted}
	if total > 0 {
		summary.ConversionRate = round2(float64(converted) / float64(total) * 100)
	}
	return summary, nil
}

func (s *StandardReportServiceImpl) salesByRep(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) ([]RepSummary, error) {
	var deals, users []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, _, err := s.wonDeals(gctx, tenantID, start, end)
		deals = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := s.Store.Find(gctx, tenantID, entityUsers, store.NewQuery())
		users = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		names[stringID(user["_id"])] = fullName(user)
	}

	totals := make(map[string]*RepSummary)
	for _, deal := range deals {
		// Ownerless deals and unknown owners fall out of the rollup
		name, ok := names[stringID(deal["owner_id"])]
		if !ok {
			continue
		}
		row, ok := totals[name]
		if !ok {
			row = &RepSummary{Name: name}
			totals[name] = row
		}
		row.Value += toFloat64(deal["value"])
		row.Count++
	}
	return sortedSummaries(totals), nil
}

func (s *StandardReportServiceImpl) salesByTeam(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) ([]RepSummary, error) {
	var deals, users, teams []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, _, err := s.wonDeals(gctx, tenantID, start, end)
		deals = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := s.Store.Find(gctx, tenantID, entityUsers, store.NewQuery())
		users = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := s.Store.Find(gctx, tenantID, entityTeams, store.NewQuery())
		teams = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	teamNames := make(map[string]string, len(teams))
	for _, team := range teams {
		teamNames[stringID(team["_id"])] = stringOf(team["name"])
	}

	// owner id -> team name; teamless owners drop out here
	ownerTeam := make(map[string]string, len(users))
	for _, user := range users {
		if name, ok := teamNames[stringID(user["team_id"])]; ok {
			ownerTeam[stringID(user["_id"])] = name
		}
	}

	totals := make(map[string]*RepSummary)
	for _, deal := range deals {
		name, ok := ownerTeam[stringID(deal["owner_id"])]
		if !ok {
			continue
		}
		row, ok := totals[name]
		if !ok {
			row = &RepSummary{Name: name}
			totals[name] = row
		}
		row.Value += toFloat64(deal["value"])
		row.Count++
	}
	return sortedSummaries(totals), nil
}

func (s *StandardReportServiceImpl) activityByType(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) ([]ActivityCount, error) {
	q := store.NewQuery().Where("created_at", rangeExpr(start, end))
	activities, _, err := s.Store.Find(ctx, tenantID, entityActivities, q)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, activity := range activities {
		counts[stringOf(activity["activity_type"])]++
	}
	return sortedCounts(counts), nil
}

func (s *StandardReportServiceImpl) activityByRep(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) ([]ActivityCount, error) {
	var activities, users []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q := store.NewQuery().Where("created_at", rangeExpr(start, end))
		rows, _, err := s.Store.Find(gctx, tenantID, entityActivities, q)
		activities = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := s.Store.Find(gctx, tenantID, entityUsers, store.NewQuery())
		users = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, user := range users {
		names[stringID(user["_id"])] = fullName(user)
	}

	counts := make(map[string]int)
	for _, activity := range activities {
		name, ok := names[stringID(activity["user_id"])]
		if !ok {
			continue
		}
		counts[name]++
	}
	return sortedCounts(counts), nil
}

func (s *StandardReportServiceImpl) forecastVsActual(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) (ForecastSummary, error) {
	var forecasts, deals []map[string]any

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Any forecast period overlapping the range counts
		q := store.NewQuery().
			Where("period_start", bson.M{"$lte": end}).
			Where("period_end", bson.M{"$gte": start})
		rows, _, err := s.Store.Find(gctx, tenantID, entityForecasts, q)
		forecasts = rows
		return err
	})
	g.Go(func() error {
		rows, _, err := s.wonDeals(gctx, tenantID, start, end)
		deals = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return ForecastSummary{}, err
	}

	summary := ForecastSummary{}
	for _, forecast := range forecasts {
		summary.Forecast += toFloat64(forecast["amount"])
	}
	for _, deal := range deals {
		summary.Actual += toFloat64(deal["value"])
	}
	summary.Variance = summary.Actual - summary.Forecast
	if summary.Forecast != 0 {
		summary.VariancePercentage = round2(summary.Variance / summary.Forecast * 100)
	}
	return summary, nil
}

func (s *StandardReportServiceImpl) wonDeals(ctx context.Context, tenantID primitive.ObjectID, start, end time.Time) ([]map[string]any, int64, error) {
	q := store.NewQuery().
		Where("won", true).
		Where("closed_at", rangeExpr(start, end))
	return s.Store.Find(ctx, tenantID, entityDeals, q)
}

func sortedSummaries(totals map[string]*RepSummary) []RepSummary {
	out := make([]RepSummary, 0, len(totals))
	for _, row := range totals {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func sortedCounts(counts map[string]int) []ActivityCount {
	out := make([]ActivityCount, 0, len(counts))
	for name, count := range counts {
		out = append(out, ActivityCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// stringID normalizes the id shapes the store can hand back.
func stringID(val any) string {
	switch v := val.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return ""
	}
}

func stringOf(val any) string {
	if s, ok := val.(string); ok {
		return s
	}
	if val == nil {
		return ""
	}
	return fmt.Sprintf("%v", val)
}

func fullName(user map[string]any) string {
	return strings.TrimSpace(stringOf(user["first_name"]) + " " + stringOf(user["last_name"]))
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
