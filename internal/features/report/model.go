package report

import (
	"errors"
	"time"

	"crm-reporting/internal/registry"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrNotFound covers definitions that are absent or owned by another tenant.
	ErrNotFound = errors.New("report definition not found")
	// ErrValidation covers malformed definitions rejected before execution.
	ErrValidation = errors.New("invalid report definition")
)

type FilterOperator string

const (
	OperatorEquals      FilterOperator = "equals"
	OperatorNotEquals   FilterOperator = "not_equals"
	OperatorContains    FilterOperator = "contains"
	OperatorNotContains FilterOperator = "not_contains"
	OperatorGreaterThan FilterOperator = "greater_than"
	OperatorLessThan    FilterOperator = "less_than"
	OperatorBetween     FilterOperator = "between"
	OperatorIn          FilterOperator = "in"
	OperatorNotIn       FilterOperator = "not_in"
	OperatorIsNull      FilterOperator = "is_null"
	OperatorIsNotNull   FilterOperator = "is_not_null"
)

// ReportFilter is one declarative predicate; Value2 is only read by between.
type ReportFilter struct {
	Field    string         `json:"field" bson:"field"`
	Operator FilterOperator `json:"operator" bson:"operator"`
	Value    any            `json:"value" bson:"value"`
	Value2   any            `json:"value2,omitempty" bson:"value2,omitempty"`
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// ReportDefinition is a saved, reusable report configuration. Owned
// exclusively by its tenant and creating user; never shared across tenants.
type ReportDefinition struct {
	ID            primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	TenantID      primitive.ObjectID  `json:"tenant_id" bson:"tenant_id"`
	OwnerID       primitive.ObjectID  `json:"owner_id" bson:"owner_id"`
	Name          string              `json:"name" bson:"name"`
	Description   string              `json:"description" bson:"description"`
	ObjectType    registry.ObjectType `json:"object_type" bson:"object_type"`
	Fields        []string            `json:"fields" bson:"fields"`   // empty means all fields
	Filters       []ReportFilter      `json:"filters" bson:"filters"` // ANDed at execution time
	Grouping      string              `json:"grouping,omitempty" bson:"grouping,omitempty"`
	SortField     string              `json:"sort_field,omitempty" bson:"sort_field,omitempty"`
	SortDirection SortDirection       `json:"sort_direction,omitempty" bson:"sort_direction,omitempty"`
	LastRunAt     *time.Time          `json:"last_run_at,omitempty" bson:"last_run_at,omitempty"`
	CreatedAt     time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at" bson:"updated_at"`
}

type ExecutionType string

const (
	ExecutionAdHoc     ExecutionType = "ad_hoc"
	ExecutionExport    ExecutionType = "export"
	ExecutionScheduled ExecutionType = "scheduled"
)

// ReportExecution is the immutable audit record appended once per
// successful run.
type ReportExecution struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ReportID        primitive.ObjectID `json:"report_id" bson:"report_id"`
	TenantID        primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`
	UserID          primitive.ObjectID `json:"user_id" bson:"user_id"`
	ExecutionType   ExecutionType      `json:"execution_type" bson:"execution_type"`
	RowCount        int64              `json:"row_count" bson:"row_count"`
	ExecutionTimeMs int64              `json:"execution_time_ms" bson:"execution_time_ms"`
	FiltersApplied  int                `json:"filters_applied" bson:"filters_applied"`
	Timestamp       time.Time          `json:"timestamp" bson:"timestamp"`
}

type ResultKind string

const (
	ResultDetail  ResultKind = "detail"
	ResultGrouped ResultKind = "grouped"
)

// Group is one synthetic row of a grouped result.
type Group struct {
	Key   string           `json:"key"`
	Count int              `json:"count"`
	Items []map[string]any `json:"items"`
}

// ReportResult is the transient outcome of one run. Kind tags which half of
// the union is populated: detail results carry Rows, grouped results carry
// Groups and Summary.
type ReportResult struct {
	Kind            ResultKind       `json:"kind"`
	Rows            []map[string]any `json:"rows,omitempty"`
	Groups          []Group          `json:"groups,omitempty"`
	Summary         map[string]int   `json:"summary,omitempty"`
	TotalCount      int64            `json:"total_count"`
	ExecutionTimeMs int64            `json:"execution_time_ms"`
}
