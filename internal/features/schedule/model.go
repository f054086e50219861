package schedule

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrNotFound   = errors.New("schedule not found")
	ErrValidation = errors.New("schedule validation failed")
)

// ReportSchedule runs a saved report on a cron expression. Each run lands in
// the same audit trail as ad-hoc runs, marked as scheduled.
type ReportSchedule struct {
	ID         primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TenantID   primitive.ObjectID `json:"tenant_id" bson:"tenant_id"`
	OwnerID    primitive.ObjectID `json:"owner_id" bson:"owner_id"`
	ReportID   primitive.ObjectID `json:"report_id" bson:"report_id"`
	Expression string             `json:"expression" bson:"expression"`
	Format     string             `json:"format" bson:"format"`
	Active     bool               `json:"active" bson:"active"`
	NextRun    *time.Time         `json:"next_run,omitempty" bson:"next_run,omitempty"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}
