package query_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
)

var items = schema.New(schema.Schema{
	Resource:   "item",
	Collection: "items",
	SlugFrom:   "title",
	Search:     []string{"title", "description"},
	Fields: []schema.Field{
		{Name: "title", Kind: schema.String},
		{Name: "description", Kind: schema.String},
		{Name: "price", Kind: schema.Number},
		{Name: "quantity", Kind: schema.Integer},
		{Name: "category", Kind: schema.ObjectID},
	},
})

func features(t *testing.T, raw string) *query.Features {
	t.Helper()
	params, err := url.ParseQuery(raw)
	require.NoError(t, err)
	return query.New(params, items)
}

func TestFilter(t *testing.T) {
	f := features(t, "price[gte]=10&price[lt]=100&title=Shirt&page=2&limit=3&sort=price&fields=title&keyword=x&color=red&price[regex]=.*")
	spec := f.Filter().Spec()

	require.NoError(t, f.Err())
	assert.ElementsMatch(t, []query.Condition{
		{Field: "price", Op: query.Gte, Value: 10.0},
		{Field: "price", Op: query.Lt, Value: 100.0},
		{Field: "title", Op: query.Eq, Value: "Shirt"},
	}, spec.Conditions)
}

func TestFilterIn(t *testing.T) {
	spec := features(t, "price[in]=1,2, 3").Filter().Spec()
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, query.Condition{Field: "price", Op: query.In, Value: []any{1.0, 2.0, 3.0}}, spec.Conditions[0])

	spec = features(t, "title=a&title=b").Filter().Spec()
	require.Len(t, spec.Conditions, 1)
	assert.Equal(t, query.In, spec.Conditions[0].Op)
}

func TestFilterCastError(t *testing.T) {
	f := features(t, "price[gt]=cheap").Filter()

	var castErr *query.CastError
	require.ErrorAs(t, f.Err(), &castErr)
	assert.Equal(t, "price", castErr.Field)
}

func TestWhereMergesRouteConditions(t *testing.T) {
	spec := features(t, "title=Shirt").
		Where(query.Where("category", query.Eq, "parent")).
		Filter().
		Spec()
	assert.Len(t, spec.Conditions, 2)
	assert.Equal(t, "category", spec.Conditions[0].Field)
}

func TestPaginate(t *testing.T) {
	next := func(n int64) *int64 { return &n }

	tests := []struct {
		name  string
		query string
		total int64
		skip  int64
		limit int64
		want  query.PaginationResult
	}{
		{
			name:  "defaults",
			total: 12,
			skip:  0,
			limit: 5,
			want:  query.PaginationResult{CurrentPage: 1, Limit: 5, NumberOfPages: 3, Next: next(2)},
		},
		{
			name:  "middle page",
			query: "page=2&limit=5",
			total: 12,
			skip:  5,
			limit: 5,
			want:  query.PaginationResult{CurrentPage: 2, Limit: 5, NumberOfPages: 3, Next: next(3), Previous: next(1)},
		},
		{
			name:  "last page",
			query: "page=3&limit=5",
			total: 12,
			skip:  10,
			limit: 5,
			want:  query.PaginationResult{CurrentPage: 3, Limit: 5, NumberOfPages: 3, Previous: next(2)},
		},
		{
			name:  "exact fit has no next",
			query: "page=2&limit=5",
			total: 10,
			skip:  5,
			limit: 5,
			want:  query.PaginationResult{CurrentPage: 2, Limit: 5, NumberOfPages: 2, Previous: next(1)},
		},
		{
			name:  "page past the end",
			query: "page=5&limit=5",
			total: 12,
			skip:  12,
			limit: 5,
			want:  query.PaginationResult{CurrentPage: 5, Limit: 5, NumberOfPages: 3, Previous: next(4)},
		},
		{
			name:  "max int limit",
			query: "limit=9223372036854775807",
			total: 12,
			skip:  0,
			limit: math.MaxInt64,
			want:  query.PaginationResult{CurrentPage: 1, Limit: math.MaxInt64, NumberOfPages: 1},
		},
		{
			name:  "huge limit on a later page",
			query: "page=3&limit=4611686018427387904",
			total: 12,
			skip:  12,
			limit: 4611686018427387904,
			want:  query.PaginationResult{CurrentPage: 3, Limit: 4611686018427387904, NumberOfPages: 1, Previous: next(2)},
		},
		{
			name:  "invalid values fall back",
			query: "page=-1&limit=abc",
			total: 0,
			skip:  0,
			limit: 5,
			want:  query.PaginationResult{CurrentPage: 1, Limit: 5, NumberOfPages: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := features(t, tt.query).Paginate(tt.total)
			assert.Equal(t, tt.want, f.PaginationResult())
			assert.Equal(t, tt.skip, f.Spec().Skip)
			assert.Equal(t, tt.limit, f.Spec().Limit)
		})
	}
}

func TestSort(t *testing.T) {
	spec := features(t, "sort=-price,title%20unknown").Sort().Spec()
	assert.Equal(t, []query.SortField{
		{Field: "price", Desc: true},
		{Field: "title"},
	}, spec.Sort)

	assert.Empty(t, features(t, "").Sort().Spec().Sort)
}

func TestLimitFields(t *testing.T) {
	spec := features(t, "fields=title,price").LimitFields().Spec()
	assert.Equal(t, &query.Projection{Fields: []string{"title", "price"}}, spec.Projection)

	spec = features(t, "fields=-description").LimitFields().Spec()
	assert.Equal(t, &query.Projection{Fields: []string{"description"}, Exclude: true}, spec.Projection)

	assert.Nil(t, features(t, "fields=nope").LimitFields().Spec().Projection)
}

func TestSearch(t *testing.T) {
	spec := features(t, "keyword=Blue").Search().Spec()
	assert.Equal(t, &query.Search{Fields: []string{"title", "description"}, Keyword: "Blue"}, spec.Search)

	assert.Nil(t, features(t, "").Search().Spec().Search)
}

func TestStepOrderIndependence(t *testing.T) {
	raw := "price[gte]=5&keyword=shirt&sort=-price&fields=title&page=2&limit=2"
	a := features(t, raw).Filter().Paginate(10).Sort().LimitFields().Search().Spec()
	b := features(t, raw).Search().LimitFields().Sort().Paginate(10).Filter().Spec()
	assert.Equal(t, a, b)
}
