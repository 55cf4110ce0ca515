package memstore_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
	"github.com/fekuna/omnipos-catalog-service/internal/store/memstore"
)

type ProductStoreSuite struct {
	suite.Suite
	ctx      context.Context
	products *memstore.Collection[model.Product]
	shirts   primitive.ObjectID
	shoes    primitive.ObjectID
}

func TestProductStoreSuite(t *testing.T) {
	suite.Run(t, new(ProductStoreSuite))
}

func (s *ProductStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.products = memstore.NewCollection[model.Product](model.ProductSchema)
	s.shirts = primitive.NewObjectID()
	s.shoes = primitive.NewObjectID()

	s.insert("Blue Shirt", "A plain blue cotton shirt", 20, 5, s.shirts)
	s.insert("Red Shirt", "A bright red linen shirt", 35, 0, s.shirts)
	s.insert("Running Shoes", "Lightweight shoes for running", 80, 3, s.shoes)
}

func (s *ProductStoreSuite) insert(title, description string, price float64, quantity int64, category primitive.ObjectID) *model.Product {
	p, err := s.products.Insert(s.ctx, store.Document{
		"_id":         primitive.NewObjectID(),
		"title":       title,
		"description": description,
		"price":       price,
		"quantity":    quantity,
		"category":    category,
		"sold":        int64(0),
	})
	s.Require().NoError(err)
	return p
}

func (s *ProductStoreSuite) TestFindFilterSortPaginate() {
	spec := query.Spec{
		Conditions: []query.Condition{query.Where("price", query.Gte, 30.0)},
		Sort:       []query.SortField{{Field: "price", Desc: true}},
	}
	got, err := s.products.Find(s.ctx, spec)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("Running Shoes", got[0].Title)
	s.Equal("Red Shirt", got[1].Title)

	spec.Skip, spec.Limit = 1, 1
	got, err = s.products.Find(s.ctx, spec)
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Red Shirt", got[0].Title)

	spec.Skip, spec.Limit = 1, math.MaxInt64
	got, err = s.products.Find(s.ctx, spec)
	s.Require().NoError(err)
	s.Len(got, 1)

	n, err := s.products.Count(s.ctx, spec)
	s.Require().NoError(err)
	s.EqualValues(2, n)
}

func (s *ProductStoreSuite) TestFindByReferenceAndIn() {
	got, err := s.products.Find(s.ctx, query.Spec{
		Conditions: []query.Condition{query.Where("category", query.Eq, s.shirts)},
	})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.products.Find(s.ctx, query.Spec{
		Conditions: []query.Condition{query.Where("quantity", query.In, []any{0.0, 3.0})},
	})
	s.Require().NoError(err)
	s.Len(got, 2)

	got, err = s.products.Find(s.ctx, query.Spec{
		Conditions: []query.Condition{query.Where("title", query.Ne, "Blue Shirt")},
	})
	s.Require().NoError(err)
	s.Len(got, 2)
}

func (s *ProductStoreSuite) TestSearchIsCaseInsensitiveAndEscaped() {
	got, err := s.products.Find(s.ctx, query.Spec{
		Search: &query.Search{Fields: []string{"title", "description"}, Keyword: "LINEN"},
	})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal("Red Shirt", got[0].Title)

	got, err = s.products.Find(s.ctx, query.Spec{
		Search: &query.Search{Fields: []string{"title"}, Keyword: ".*"},
	})
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *ProductStoreSuite) TestUpdateIncrementDelete() {
	p := s.insert("Green Shirt", "A green shirt for the summer", 25, 10, s.shirts)
	id := p.ID.Hex()

	updated, err := s.products.UpdateByID(s.ctx, id, store.Document{"price": 22.5})
	s.Require().NoError(err)
	s.Equal(22.5, updated.Price)
	s.Equal("Green Shirt", updated.Title)

	updated, err = s.products.Increment(s.ctx, id, map[string]int64{"quantity": -4, "sold": 4})
	s.Require().NoError(err)
	s.EqualValues(6, updated.Quantity)
	s.EqualValues(4, updated.Sold)

	// guarded increment leaves the document alone when the guard fails
	_, err = s.products.Increment(s.ctx, id, map[string]int64{"quantity": -7, "sold": 7},
		query.Where("quantity", query.Gte, 7.0))
	s.ErrorIs(err, store.ErrNotFound)
	current, err := s.products.FindByID(s.ctx, id)
	s.Require().NoError(err)
	s.EqualValues(6, current.Quantity)

	updated, err = s.products.Increment(s.ctx, id, map[string]int64{"quantity": -6, "sold": 6},
		query.Where("quantity", query.Gte, 6.0))
	s.Require().NoError(err)
	s.EqualValues(0, updated.Quantity)

	s.Require().NoError(s.products.DeleteByID(s.ctx, id))
	s.ErrorIs(s.products.DeleteByID(s.ctx, id), store.ErrNotFound)

	_, err = s.products.FindByID(s.ctx, id)
	s.ErrorIs(err, store.ErrNotFound)

	_, err = s.products.UpdateByID(s.ctx, id, store.Document{"price": 1.0})
	s.ErrorIs(err, store.ErrNotFound)
}

func TestUniqueFields(t *testing.T) {
	ctx := context.Background()
	categories := memstore.NewCollection[model.Category](model.CategorySchema)

	first, err := categories.Insert(ctx, store.Document{"_id": primitive.NewObjectID(), "name": "Men"})
	require.NoError(t, err)
	second, err := categories.Insert(ctx, store.Document{"_id": primitive.NewObjectID(), "name": "Women"})
	require.NoError(t, err)

	_, err = categories.Insert(ctx, store.Document{"_id": primitive.NewObjectID(), "name": "Men"})
	var dup *store.DuplicateError
	require.ErrorAs(t, err, &dup)
	require.Equal(t, "name", dup.Field)
	require.ErrorIs(t, err, store.ErrDuplicate)

	_, err = categories.UpdateByID(ctx, second.ID.Hex(), store.Document{"name": "Men"})
	require.ErrorIs(t, err, store.ErrDuplicate)

	_, err = categories.UpdateByID(ctx, first.ID.Hex(), store.Document{"name": "Men"})
	require.NoError(t, err)
}
