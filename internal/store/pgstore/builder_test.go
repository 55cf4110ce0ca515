package pgstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/query"
)

func TestBuilderWhere(t *testing.T) {
	category := primitive.NewObjectID()
	sub := primitive.NewObjectID()

	b := newBuilder(model.ProductSchema)
	where := b.where(query.Spec{
		Conditions: []query.Condition{
			query.Where("price", query.Gte, 10.0),
			query.Where("category", query.Eq, category),
			query.Where("subcategories", query.Eq, sub),
			query.Where("title", query.Ne, "x"),
			query.Where("_id", query.In, []any{category}),
		},
		Search: &query.Search{Fields: []string{"title", "description"}, Keyword: "50%_off"},
	})

	assert.Equal(t, " WHERE (doc->>'price')::numeric >= ?"+
		" AND doc->>'category' = ?"+
		" AND EXISTS (SELECT 1 FROM jsonb_array_elements_text(COALESCE(doc->'subcategories', '[]'::jsonb)) AS e(v) WHERE e.v = ?)"+
		" AND (doc->>'title' IS NULL OR doc->>'title' <> ?)"+
		" AND id IN (?)"+
		" AND (doc->>'title' ILIKE ? OR doc->>'description' ILIKE ?)", where)
	assert.Equal(t, []any{
		10.0,
		category.Hex(),
		sub.Hex(),
		"x",
		[]any{category.Hex()},
		`%50\%\_off%`,
		`%50\%\_off%`,
	}, b.args)
}

func TestBuilderEmptyIn(t *testing.T) {
	b := newBuilder(model.ProductSchema)
	assert.Equal(t, " WHERE FALSE", b.where(query.Spec{
		Conditions: []query.Condition{query.Where("price", query.In, []any{})},
	}))
	assert.Empty(t, b.args)
}

func TestBuilderOrderBy(t *testing.T) {
	b := newBuilder(model.ProductSchema)
	assert.Equal(t, " ORDER BY (doc->>'price')::numeric DESC, (doc->>'createdAt')::timestamptz ASC, id ASC",
		b.orderBy(query.Spec{Sort: []query.SortField{{Field: "price", Desc: true}, {Field: "createdAt"}}}))
	assert.Equal(t, " ORDER BY id ASC", b.orderBy(query.Spec{}))
}
