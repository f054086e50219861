package report

import (
	"regexp"

	"crm-reporting/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// conditionBuilder turns one filter into the store condition for its field.
// The second return is false when the filter cannot produce a condition.
type conditionBuilder func(f ReportFilter) (interface{}, bool)

// operatorConditions is the operator dispatch table. A missing key is the
// explicit default case: the filter is dropped and the query is returned
// unchanged.
var operatorConditions = map[FilterOperator]conditionBuilder{
	OperatorEquals: func(f ReportFilter) (interface{}, bool) {
		return f.Value, true
	},
	OperatorNotEquals: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$ne": f.Value}, true
	},
	OperatorContains: func(f ReportFilter) (interface{}, bool) {
		s, ok := f.Value.(string)
		if !ok {
			return nil, false
		}
		return bson.M{"$regex": primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}}, true
	},
	OperatorNotContains: func(f ReportFilter) (interface{}, bool) {
		s, ok := f.Value.(string)
		if !ok {
			return nil, false
		}
		return bson.M{"$not": primitive.Regex{Pattern: regexp.QuoteMeta(s), Options: "i"}}, true
	},
	OperatorGreaterThan: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$gt": f.Value}, true
	},
	OperatorLessThan: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$lt": f.Value}, true
	},
	OperatorBetween: func(f ReportFilter) (interface{}, bool) {
		// Inclusive on both ends; Value is the lower bound, Value2 the upper
		return bson.M{"$gte": f.Value, "$lte": f.Value2}, true
	},
	OperatorIn: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$in": toSlice(f.Value)}, true
	},
	OperatorNotIn: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$nin": toSlice(f.Value)}, true
	},
	OperatorIsNull: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$eq": nil}, true
	},
	OperatorIsNotNull: func(f ReportFilter) (interface{}, bool) {
		return bson.M{"$ne": nil}, true
	},
}

// ApplyFilter folds one filter into the query. Unrecognized operators leave
// the query untouched.
func ApplyFilter(q *store.Query, f ReportFilter) *store.Query {
	build, ok := operatorConditions[f.Operator]
	if !ok {
		return q
	}
	cond, ok := build(f)
	if !ok {
		return q
	}
	return q.Where(f.Field, cond)
}

// ApplyFilters folds a filter list sequentially; the result is the implicit
// AND of every recognized filter.
func ApplyFilters(q *store.Query, filters []ReportFilter) *store.Query {
	for _, f := range filters {
		q = ApplyFilter(q, f)
	}
	return q
}

func toSlice(val any) []interface{} {
	switch v := val.(type) {
	case []interface{}:
		return v
	case primitive.A:
		return v
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	case nil:
		return nil
	default:
		return []interface{}{v}
	}
}
