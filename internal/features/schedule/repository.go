package schedule

import (
	"context"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type ScheduleRepository interface {
	Create(ctx context.Context, sched *ReportSchedule) error
	Get(ctx context.Context, rc common_models.RequestContext, id string) (*ReportSchedule, error)
	List(ctx context.Context, rc common_models.RequestContext) ([]ReportSchedule, error)
	Update(ctx context.Context, rc common_models.RequestContext, id string, sched *ReportSchedule) error
	Delete(ctx context.Context, rc common_models.RequestContext, id string) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*ReportSchedule, error)
	ListActive(ctx context.Context) ([]ReportSchedule, error)
	SetNextRun(ctx context.Context, id primitive.ObjectID, next time.Time) error
}

type ScheduleRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewScheduleRepository(db *database.MongodbDB) ScheduleRepository {
	return &ScheduleRepositoryImpl{
		Collection: db.DB.Collection("report_schedules"),
	}
}

func (r *ScheduleRepositoryImpl) Create(ctx context.Context, sched *ReportSchedule) error {
	if sched.ID.IsZero() {
		sched.ID = primitive.NewObjectID()
	}
	sched.CreatedAt = time.Now()
	sched.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, sched)
	return err
}

func (r *ScheduleRepositoryImpl) Get(ctx context.Context, rc common_models.RequestContext, id string) (*ReportSchedule, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var sched ReportSchedule
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": rc.TenantID}).Decode(&sched)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

func (r *ScheduleRepositoryImpl) List(ctx context.Context, rc common_models.RequestContext) ([]ReportSchedule, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": rc.TenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scheds []ReportSchedule
	if err := cursor.All(ctx, &scheds); err != nil {
		return nil, err
	}
	return scheds, nil
}

func (r *ScheduleRepositoryImpl) Update(ctx context.Context, rc common_models.RequestContext, id string, sched *ReportSchedule) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	sched.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"report_id":  sched.ReportID,
			"expression": sched.Expression,
			"format":     sched.Format,
			"active":     sched.Active,
			"next_run":   sched.NextRun,
			"updated_at": sched.UpdatedAt,
		},
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": oid, "tenant_id": rc.TenantID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ScheduleRepositoryImpl) Delete(ctx context.Context, rc common_models.RequestContext, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": oid, "tenant_id": rc.TenantID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID is unscoped; only the scheduler uses it, to re-check a job's
// state right before firing.
func (r *ScheduleRepositoryImpl) GetByID(ctx context.Context, id primitive.ObjectID) (*ReportSchedule, error) {
	var sched ReportSchedule
	err := r.Collection.FindOne(ctx, bson.M{"_id": id}).Decode(&sched)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sched, nil
}

// ListActive spans tenants; the scheduler owns every tenant's jobs.
func (r *ScheduleRepositoryImpl) ListActive(ctx context.Context) ([]ReportSchedule, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"active": true})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var scheds []ReportSchedule
	if err := cursor.All(ctx, &scheds); err != nil {
		return nil, err
	}
	return scheds, nil
}

func (r *ScheduleRepositoryImpl) SetNextRun(ctx context.Context, id primitive.ObjectID, next time.Time) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"next_run": next}})
	return err
}
