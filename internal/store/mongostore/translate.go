package mongostore

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
)

var mongoOps = map[query.Op]string{
	query.Ne:  "$ne",
	query.Gt:  "$gt",
	query.Gte: "$gte",
	query.Lt:  "$lt",
	query.Lte: "$lte",
	query.In:  "$in",
}

// Filter builds the match document for the conditions and search of spec.
func Filter(spec query.Spec) bson.D {
	var clauses bson.A
	for _, cond := range spec.Conditions {
		if cond.Op == query.Eq {
			clauses = append(clauses, bson.D{{Key: cond.Field, Value: cond.Value}})
			continue
		}
		clauses = append(clauses, bson.D{{Key: cond.Field, Value: bson.D{{Key: mongoOps[cond.Op], Value: cond.Value}}}})
	}

	if spec.Search != nil && len(spec.Search.Fields) > 0 {
		pattern := regexp.QuoteMeta(spec.Search.Keyword)
		var or bson.A
		for _, field := range spec.Search.Fields {
			or = append(or, bson.D{{Key: field, Value: bson.D{
				{Key: "$regex", Value: pattern},
				{Key: "$options", Value: "i"},
			}}})
		}
		clauses = append(clauses, bson.D{{Key: "$or", Value: or}})
	}

	switch len(clauses) {
	case 0:
		return bson.D{}
	case 1:
		return clauses[0].(bson.D)
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

func Sort(spec query.Spec) bson.D {
	var sort bson.D
	for _, s := range spec.Sort {
		dir := 1
		if s.Desc {
			dir = -1
		}
		sort = append(sort, bson.E{Key: s.Field, Value: dir})
	}
	return sort
}

func Projection(spec query.Spec) bson.D {
	if spec.Projection == nil || len(spec.Projection.Fields) == 0 {
		return nil
	}
	value := 1
	if spec.Projection.Exclude {
		value = 0
	}
	var projection bson.D
	for _, field := range spec.Projection.Fields {
		projection = append(projection, bson.E{Key: field, Value: value})
	}
	return projection
}
