package query

type Op string

const (
	Eq  Op = "eq"
	Ne  Op = "ne"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
	In  Op = "in"
)

var operators = map[string]Op{
	"ne":  Ne,
	"gt":  Gt,
	"gte": Gte,
	"lt":  Lt,
	"lte": Lte,
	"in":  In,
}

// Condition is one predicate on a stored field. For In the Value is a []any.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Search is a case-insensitive substring match on any of Fields.
type Search struct {
	Fields  []string
	Keyword string
}

type SortField struct {
	Field string
	Desc  bool
}

type Projection struct {
	Fields  []string
	Exclude bool
}

// Spec is a store-agnostic read request.
type Spec struct {
	Conditions []Condition
	Search     *Search
	Sort       []SortField
	Projection *Projection
	Skip       int64
	Limit      int64
}

// Filter returns the predicate part of the spec, suitable for counting.
func (s Spec) Filter() Spec {
	return Spec{Conditions: s.Conditions, Search: s.Search}
}

func Where(field string, op Op, value any) Condition {
	return Condition{Field: field, Op: op, Value: value}
}
