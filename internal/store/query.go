package store

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Query is the composable query the engine hands to the entity store: a set
// of per-field conditions (implicitly ANDed), an optional projection, sort
// and limit. Conditions on the same field merge by operator, so folding the
// same predicate twice has the effect of folding it once.
type Query struct {
	conditions []fieldCondition
	fields     []string
	sortField  string
	sortOrder  int
	limit      int64
}

type fieldCondition struct {
	field string
	expr  interface{}
}

func NewQuery() *Query {
	return &Query{sortOrder: -1, limit: 10000}
}

// Where adds a condition on a field. expr is either a literal value
// (equality) or an operator document like bson.M{"$gt": 5}.
func (q *Query) Where(field string, expr interface{}) *Query {
	q.conditions = append(q.conditions, fieldCondition{field: field, expr: expr})
	return q
}

// Select restricts the returned fields. Empty means all fields.
func (q *Query) Select(fields []string) *Query {
	q.fields = fields
	return q
}

// Sort sets the sort field and direction ("asc" or "desc").
func (q *Query) Sort(field, direction string) *Query {
	q.sortField = field
	q.sortOrder = -1
	if direction == "asc" {
		q.sortOrder = 1
	}
	return q
}

func (q *Query) Limit(n int64) *Query {
	q.limit = n
	return q
}

// Filter folds the accumulated conditions into a single document. Operator
// documents on the same field merge key-by-key; literal equality values
// overwrite. Applying an identical condition twice therefore yields the same
// document as applying it once.
func (q *Query) Filter() bson.M {
	out := bson.M{}
	for _, c := range q.conditions {
		existing, ok := out[c.field]
		if !ok {
			out[c.field] = c.expr
			continue
		}

		existingOps, eOK := existing.(bson.M)
		newOps, nOK := c.expr.(bson.M)
		if eOK && nOK {
			merged := bson.M{}
			for k, v := range existingOps {
				merged[k] = v
			}
			for k, v := range newOps {
				merged[k] = v
			}
			out[c.field] = merged
		} else {
			out[c.field] = c.expr
		}
	}
	return out
}

func (q *Query) Fields() []string { return q.fields }
func (q *Query) SortField() string { return q.sortField }
func (q *Query) SortOrder() int    { return q.sortOrder }
func (q *Query) MaxRows() int64    { return q.limit }
