package report

import (
	"context"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ExecutionRepository is append-only: executions are never mutated or
// deleted by the engine.
type ExecutionRepository interface {
	Append(ctx context.Context, exec *ReportExecution) error
	ListByReport(ctx context.Context, rc common_models.RequestContext, reportID string, limit int64) ([]ReportExecution, error)
}

type ExecutionRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewExecutionRepository(db *database.MongodbDB) ExecutionRepository {
	return &ExecutionRepositoryImpl{
		Collection: db.DB.Collection("report_executions"),
	}
}

func (r *ExecutionRepositoryImpl) Append(ctx context.Context, exec *ReportExecution) error {
	if exec.ID.IsZero() {
		exec.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, exec)
	return err
}

func (r *ExecutionRepositoryImpl) ListByReport(ctx context.Context, rc common_models.RequestContext, reportID string, limit int64) ([]ReportExecution, error) {
	oid, err := primitive.ObjectIDFromHex(reportID)
	if err != nil {
		return nil, ErrNotFound
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, bson.M{"report_id": oid, "tenant_id": rc.TenantID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var executions []ReportExecution
	if err := cursor.All(ctx, &executions); err != nil {
		return nil, err
	}
	return executions, nil
}
