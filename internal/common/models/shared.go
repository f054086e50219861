package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ContextKey string

const (
	TenantIDKey ContextKey = "tenant_id"
)

// RequestContext identifies the tenant and user on whose behalf an engine
// call runs. Every engine entry point takes it explicitly; nothing reads
// tenant identity from ambient state.
type RequestContext struct {
	TenantID primitive.ObjectID
	UserID   primitive.ObjectID
}

// Log is the shape of application log entries persisted by the logger's
// async writer.
type Log struct {
	Message      string    `bson:"message" json:"message"`
	Caller       string    `bson:"caller,omitempty" json:"caller,omitempty"`
	TenantID     string    `bson:"tenant_id,omitempty" json:"tenant_id,omitempty"`
	LogLevelId   int       `bson:"log_level_id" json:"log_level_id"`
	AppId        string    `bson:"app_id" json:"app_id"`
	CreatedOnUtc time.Time `bson:"created_on_utc" json:"created_on_utc"`
}
