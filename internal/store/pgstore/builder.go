package pgstore

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
)

var sqlOps = map[query.Op]string{
	query.Eq:  "=",
	query.Ne:  "<>",
	query.Gt:  ">",
	query.Gte: ">=",
	query.Lt:  "<",
	query.Lte: "<=",
}

// builder accumulates positional arguments for a query using ? placeholders.
type builder struct {
	schema *schema.Schema
	args   []any
}

func newBuilder(s *schema.Schema) *builder {
	return &builder{schema: s}
}

func (b *builder) arg(v any) string {
	b.args = append(b.args, v)
	return "?"
}

func (b *builder) where(spec query.Spec) string {
	var clauses []string
	for _, cond := range spec.Conditions {
		clauses = append(clauses, b.condition(cond))
	}

	if spec.Search != nil && len(spec.Search.Fields) > 0 {
		pattern := "%" + escapeLike(spec.Search.Keyword) + "%"
		var or []string
		for _, field := range spec.Search.Fields {
			or = append(or, fmt.Sprintf("doc->>'%s' ILIKE %s", quoteKey(field), b.arg(pattern)))
		}
		clauses = append(clauses, "("+strings.Join(or, " OR ")+")")
	}

	if len(clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(clauses, " AND ")
}

func (b *builder) condition(cond query.Condition) string {
	f, _ := b.schema.Field(cond.Field)

	if f.IsList() {
		elements := fmt.Sprintf("jsonb_array_elements_text(COALESCE(doc->'%s', '[]'::jsonb)) AS e(v)", quoteKey(cond.Field))
		switch cond.Op {
		case query.In:
			values := sqlValues(cond.Value)
			if len(values) == 0 {
				return "FALSE"
			}
			return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE e.v IN (%s))", elements, b.arg(values))
		case query.Ne:
			return fmt.Sprintf("NOT EXISTS (SELECT 1 FROM %s WHERE e.v = %s)", elements, b.arg(sqlValue(cond.Value)))
		default:
			return fmt.Sprintf("EXISTS (SELECT 1 FROM %s WHERE e.v %s %s)", elements, sqlOps[cond.Op], b.arg(sqlValue(cond.Value)))
		}
	}

	expr := b.expr(cond.Field)
	switch cond.Op {
	case query.In:
		values := sqlValues(cond.Value)
		if len(values) == 0 {
			return "FALSE"
		}
		return fmt.Sprintf("%s IN (%s)", expr, b.arg(values))
	case query.Ne:
		return fmt.Sprintf("(%s IS NULL OR %s <> %s)", expr, expr, b.arg(sqlValue(cond.Value)))
	default:
		return fmt.Sprintf("%s %s %s", expr, sqlOps[cond.Op], b.arg(sqlValue(cond.Value)))
	}
}

func (b *builder) orderBy(spec query.Spec) string {
	var terms []string
	for _, s := range spec.Sort {
		dir := "ASC"
		if s.Desc {
			dir = "DESC"
		}
		terms = append(terms, b.expr(s.Field)+" "+dir)
	}
	// object ids grow with insertion time
	terms = append(terms, "id ASC")
	return " ORDER BY " + strings.Join(terms, ", ")
}

// expr returns the SQL expression reading field with its natural type.
func (b *builder) expr(field string) string {
	if field == schema.FieldID {
		return "id"
	}
	f, _ := b.schema.Field(field)
	key := quoteKey(field)
	switch f.Kind {
	case schema.Number, schema.Integer:
		return fmt.Sprintf("(doc->>'%s')::numeric", key)
	case schema.Time:
		return fmt.Sprintf("(doc->>'%s')::timestamptz", key)
	default:
		return fmt.Sprintf("doc->>'%s'", key)
	}
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case *primitive.ObjectID:
		if x == nil {
			return nil
		}
		return x.Hex()
	case time.Time:
		return x.UTC()
	}
	return v
}

func sqlValues(v any) []any {
	list, _ := v.([]any)
	out := make([]any, len(list))
	for i, item := range list {
		out[i] = sqlValue(item)
	}
	return out
}

func quoteKey(field string) string {
	return strings.ReplaceAll(field, "'", "''")
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
