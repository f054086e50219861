package store

import (
	"context"
	"time"

	"crm-reporting/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EntityStore is the record store collaborator: tenant-scoped reads over
// named record collections with exact counts alongside the rows.
type EntityStore interface {
	Find(ctx context.Context, tenantID primitive.ObjectID, entity string, q *Query) ([]map[string]any, int64, error)
	Count(ctx context.Context, tenantID primitive.ObjectID, entity string, q *Query) (int64, error)
	Insert(ctx context.Context, tenantID primitive.ObjectID, entity string, data map[string]any) (primitive.ObjectID, error)
}

// entityRecord is the persisted envelope: user fields live under data.
type entityRecord struct {
	ID        primitive.ObjectID `bson:"_id"`
	TenantID  primitive.ObjectID `bson:"tenant_id"`
	Entity    string             `bson:"entity"`
	Data      map[string]any     `bson:"data"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

type MongoStore struct {
	Collection *mongo.Collection
}

func NewMongoStore(mongodb *database.MongodbDB) EntityStore {
	return &MongoStore{
		Collection: mongodb.DB.Collection("records"),
	}
}

var systemFields = map[string]bool{
	"_id":        true,
	"created_at": true,
	"updated_at": true,
}

// fieldKey maps a logical field to its document path: system fields are
// stored at the top level, everything else under data.
func fieldKey(field string) string {
	if systemFields[field] {
		return field
	}
	return "data." + field
}

func (s *MongoStore) buildQuery(tenantID primitive.ObjectID, entity string, q *Query) bson.M {
	base := bson.M{
		"tenant_id": tenantID,
		"entity":    entity,
	}

	user := bson.M{}
	for field, expr := range q.Filter() {
		user[fieldKey(field)] = expr
	}

	andConditions := []bson.M{base}
	if len(user) > 0 {
		andConditions = append(andConditions, user)
	}
	return bson.M{"$and": andConditions}
}

func (s *MongoStore) Find(ctx context.Context, tenantID primitive.ObjectID, entity string, q *Query) ([]map[string]any, int64, error) {
	finalQuery := s.buildQuery(tenantID, entity, q)

	findOptions := options.Find()
	findOptions.SetLimit(q.MaxRows())

	if fields := q.Fields(); len(fields) > 0 {
		projection := bson.M{"created_at": 1, "updated_at": 1}
		for _, f := range fields {
			projection[fieldKey(f)] = 1
		}
		findOptions.SetProjection(projection)
	}

	sortBy := q.SortField()
	if sortBy == "" {
		sortBy = "created_at"
	}
	findOptions.SetSort(bson.D{{Key: fieldKey(sortBy), Value: q.SortOrder()}})

	cursor, err := s.Collection.Find(ctx, finalQuery, findOptions)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	var rows []map[string]any
	for cursor.Next(ctx) {
		var rec entityRecord
		if err := cursor.Decode(&rec); err != nil {
			return nil, 0, err
		}
		rows = append(rows, flattenRecord(&rec))
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, err
	}

	// Exact count is taken over the same predicate, ignoring the limit
	total, err := s.Collection.CountDocuments(ctx, finalQuery)
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (s *MongoStore) Count(ctx context.Context, tenantID primitive.ObjectID, entity string, q *Query) (int64, error) {
	return s.Collection.CountDocuments(ctx, s.buildQuery(tenantID, entity, q))
}

func (s *MongoStore) Insert(ctx context.Context, tenantID primitive.ObjectID, entity string, data map[string]any) (primitive.ObjectID, error) {
	rec := entityRecord{
		ID:        primitive.NewObjectID(),
		TenantID:  tenantID,
		Entity:    entity,
		Data:      data,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if _, err := s.Collection.InsertOne(ctx, rec); err != nil {
		return primitive.NilObjectID, err
	}
	return rec.ID, nil
}

func flattenRecord(rec *entityRecord) map[string]any {
	row := make(map[string]any, len(rec.Data)+3)
	for k, v := range rec.Data {
		row[k] = v
	}
	row["_id"] = rec.ID
	row["created_at"] = rec.CreatedAt
	row["updated_at"] = rec.UpdatedAt
	return row
}
