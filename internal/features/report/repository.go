package report

import (
	"context"
	"time"

	common_models "crm-reporting/internal/common/models"
	"crm-reporting/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type DefinitionRepository interface {
	Create(ctx context.Context, def *ReportDefinition) error
	Get(ctx context.Context, rc common_models.RequestContext, id string) (*ReportDefinition, error)
	List(ctx context.Context, rc common_models.RequestContext) ([]ReportDefinition, error)
	Update(ctx context.Context, rc common_models.RequestContext, id string, def *ReportDefinition) error
	Delete(ctx context.Context, rc common_models.RequestContext, id string) error
	TouchLastRun(ctx context.Context, id primitive.ObjectID, ranAt time.Time) error
}

type DefinitionRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewDefinitionRepository(db *database.MongodbDB) DefinitionRepository {
	return &DefinitionRepositoryImpl{
		Collection: db.DB.Collection("report_definitions"),
	}
}

func (r *DefinitionRepositoryImpl) Create(ctx context.Context, def *ReportDefinition) error {
	if def.ID.IsZero() {
		def.ID = primitive.NewObjectID()
	}
	def.CreatedAt = time.Now()
	def.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, def)
	return err
}

func (r *DefinitionRepositoryImpl) Get(ctx context.Context, rc common_models.RequestContext, id string) (*ReportDefinition, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var def ReportDefinition
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid, "tenant_id": rc.TenantID}).Decode(&def)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}

func (r *DefinitionRepositoryImpl) List(ctx context.Context, rc common_models.RequestContext) ([]ReportDefinition, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{"tenant_id": rc.TenantID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var defs []ReportDefinition
	if err := cursor.All(ctx, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func (r *DefinitionRepositoryImpl) Update(ctx context.Context, rc common_models.RequestContext, id string, def *ReportDefinition) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	def.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"name":           def.Name,
			"description":    def.Description,
			"object_type":    def.ObjectType,
			"fields":         def.Fields,
			"filters":        def.Filters,
			"grouping":       def.Grouping,
			"sort_field":     def.SortField,
			"sort_direction": def.SortDirection,
			"updated_at":     def.UpdatedAt,
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

func (r *DefinitionRepositoryImpl) Delete(ctx context.Context, rc common_models.RequestContext, id string) error {
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

func (r *DefinitionRepositoryImpl) TouchLastRun(ctx context.Context, id primitive.ObjectID, ranAt time.Time) error {
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"last_run_at": ranAt}})
	return err
}
