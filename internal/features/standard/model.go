package standard

import "errors"

// Key identifies one of the fixed standard reports. No persisted definition
// backs these; a key and a date range are the only inputs.
type Key string

const (
	KeyPipelineByStage    Key = "pipeline_by_stage"
	KeyDealsClosedWon     Key = "deals_closed_won"
	KeyDealsClosedLost    Key = "deals_closed_lost"
	KeyLeadConversionRate Key = "lead_conversion_rate"
	KeySalesByRep         Key = "sales_by_rep"
	KeySalesByTeam        Key = "sales_by_team"
	KeyActivityByType     Key = "activity_by_type"
	KeyActivityByRep      Key = "activity_by_rep"
	KeyForecastVsActual   Key = "forecast_vs_actual"
)

var ErrUnknownKey = errors.New("unknown standard report")

// StageSummary is one pipeline_by_stage row; stages with zero deals still
// appear with count 0.
type StageSummary struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

// RepSummary is one sales_by_rep / sales_by_team row.
type RepSummary struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// ActivityCount is one activity_by_type / activity_by_rep row.
type ActivityCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ConversionSummary is the single lead_conversion_rate row.
type ConversionSummary struct {
	TotalLeads     int64   `json:"total_leads"`
	ConvertedLeads int64   `json:"converted_leads"`
	ConversionRate float64 `json:"conversion_rate"`
}

// ForecastSummary is the single forecast_vs_actual row.
type ForecastSummary struct {
	Forecast           float64 `json:"forecast"`
	Actual             float64 `json:"actual"`
	Variance           float64 `json:"variance"`
	VariancePercentage float64 `json:"variance_percentage"`
}
