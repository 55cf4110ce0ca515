package handler

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/brand"
	"github.com/fekuna/omnipos-catalog-service/internal/category"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
	"github.com/fekuna/omnipos-catalog-service/internal/subcategory"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

const maxPrice = "lte=200000"

var idRules = []validator.Chain{
	validator.Param("id").MongoID("Invalid product id format"),
}

// productRules holds the reference lookups the product rule tables need.
// On update the stored product fills in whichever side of a paired check
// (price/discount, category/subcategories) the body leaves out.
type productRules struct {
	products      product.Repository
	categories    category.Repository
	subcategories subcategory.Repository
	brands        brand.Repository
}

func (r *productRules) create() []validator.Chain {
	return []validator.Chain{
		validator.Body("title").
			Required("Product title is required").
			IsString("Product title must be a string").
			Tag("min=3", "Too short product title").
			Tag("max=64", "Too long product title"),
		validator.Body("description").
			Required("Product description is required").
			IsString("Product description must be a string").
			Tag("min=20", "Too short product description").
			Tag("max=2000", "Too long product description"),
		validator.Body("quantity").
			Required("Product quantity is required").
			Numeric("Product quantity must be a number").
			Tag("integral", "Product quantity must be an integer").
			Tag("gte=0", "Product quantity must not be negative"),
		validator.Body("sold").Opt().
			Numeric("Product sold must be a number").
			Tag("integral", "Product sold must be an integer"),
		validator.Body("price").
			Required("Product price is required").
			Numeric("Product price must be a number").
			Tag("gte=0", "Product price must not be negative").
			Tag(maxPrice, "Too long product price"),
		validator.Body("priceAfterDiscount").Opt().
			Numeric("Product priceAfterDiscount must be a number").
			Check(r.discountBelowPrice, ""),
		validator.Body("colors").Opt().
			IsArray("Available colors should be array of string").
			Check(allStrings, "Available colors should be array of string"),
		validator.Body("imageCover").
			Required("Product imageCover is required").
			IsString("Product imageCover must be a string"),
		validator.Body("images").Opt().
			IsArray("images should be array of string").
			Check(allStrings, "images should be array of string"),
		validator.Body("category").
			Required("Product must be belong to category").
			MongoID("Invalid category id format").
			Check(validator.Exists(r.categories.FindByID, "No category for this id: %v"), ""),
		validator.Body("subcategories").Opt().
			IsArray("subcategories should be array of ids").
			Check(allObjectIDs, "Invalid subcategory id format").
			Check(r.subcategoriesExist, "").
			Check(r.subcategoriesBelong, ""),
		validator.Body("brand").Opt().
			MongoID("Invalid brand id format").
			Check(validator.Exists(r.brands.FindByID, "No brand for this id: %v"), ""),
		validator.Body("ratingsAverage").Opt().
			Numeric("ratingsAverage must be a number").
			Tag("gte=1", "Rating must be above or equal 1.0").
			Tag("lte=5", "Rating must be below or equal 5.0"),
		validator.Body("ratingsQuantity").Opt().
			Numeric("ratingsQuantity must be a number").
			Tag("integral", "ratingsQuantity must be an integer"),
	}
}

func (r *productRules) update() []validator.Chain {
	return []validator.Chain{
		validator.Param("id").MongoID("Invalid product id format"),
		validator.Body("title").Opt().
			IsString("Product title must be a string").
			Tag("min=3", "Too short product title").
			Tag("max=64", "Too long product title"),
		validator.Body("description").Opt().
			IsString("Product description must be a string").
			Tag("min=20", "Too short product description").
			Tag("max=2000", "Too long product description"),
		validator.Body("quantity").Opt().
			Numeric("Product quantity must be a number").
			Tag("integral", "Product quantity must be an integer").
			Tag("gte=0", "Product quantity must not be negative"),
		validator.Body("sold").Opt().
			Numeric("Product sold must be a number").
			Tag("integral", "Product sold must be an integer"),
		validator.Body("price").Opt().
			Numeric("Product price must be a number").
			Tag("gte=0", "Product price must not be negative").
			Tag(maxPrice, "Too long product price").
			Check(r.priceAboveStoredDiscount, ""),
		validator.Body("priceAfterDiscount").Opt().
			Numeric("Product priceAfterDiscount must be a number").
			Check(r.discountBelowPrice, ""),
		validator.Body("colors").Opt().
			IsArray("Available colors should be array of string").
			Check(allStrings, "Available colors should be array of string"),
		validator.Body("imageCover").Opt().
			IsString("Product imageCover must be a string"),
		validator.Body("images").Opt().
			IsArray("images should be array of string").
			Check(allStrings, "images should be array of string"),
		validator.Body("category").Opt().
			MongoID("Invalid category id format").
			Check(validator.Exists(r.categories.FindByID, "No category for this id: %v"), "").
			Check(r.storedSubcategoriesBelong, ""),
		validator.Body("subcategories").Opt().
			IsArray("subcategories should be array of ids").
			Check(allObjectIDs, "Invalid subcategory id format").
			Check(r.subcategoriesExist, "").
			Check(r.subcategoriesBelong, ""),
		validator.Body("brand").Opt().
			MongoID("Invalid brand id format").
			Check(validator.Exists(r.brands.FindByID, "No brand for this id: %v"), ""),
		validator.Body("ratingsAverage").Opt().
			Numeric("ratingsAverage must be a number").
			Tag("gte=1", "Rating must be above or equal 1.0").
			Tag("lte=5", "Rating must be below or equal 5.0"),
		validator.Body("ratingsQuantity").Opt().
			Numeric("ratingsQuantity must be a number").
			Tag("integral", "ratingsQuantity must be an integer"),
	}
}

// stored returns the product named by the :id param, nil on create or when
// it does not exist.
func (r *productRules) stored(ctx context.Context, req validator.Request) (*model.Product, error) {
	if req.Param == nil {
		return nil, nil
	}
	id := req.Param("id")
	if !primitive.IsValidObjectID(id) {
		return nil, nil
	}
	p, err := r.products.FindByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return p, err
}

func (r *productRules) discountBelowPrice(ctx context.Context, value any, req validator.Request) error {
	discount, ok := value.(float64)
	if !ok {
		return nil
	}
	// a null price counts as absent
	price, ok := req.Body["price"].(float64)
	if !ok {
		p, err := r.stored(ctx, req)
		if err != nil || p == nil {
			return err
		}
		price = p.Price
	}
	if discount >= price {
		return validator.Fail("priceAfterDiscount must be lower than price")
	}
	return nil
}

// priceAboveStoredDiscount guards a price-only update against the stored discount.
func (r *productRules) priceAboveStoredDiscount(ctx context.Context, value any, req validator.Request) error {
	if _, ok := req.Body["priceAfterDiscount"].(float64); ok {
		return nil
	}
	price, ok := value.(float64)
	if !ok {
		return nil
	}
	p, err := r.stored(ctx, req)
	if err != nil || p == nil || p.PriceAfterDiscount == nil {
		return err
	}
	if *p.PriceAfterDiscount >= price {
		return validator.Fail("priceAfterDiscount must be lower than price")
	}
	return nil
}

func (r *productRules) subcategoriesExist(ctx context.Context, value any, _ validator.Request) error {
	ids := objectIDs(value)
	found, err := r.loadSubcategories(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			return validator.Fail("No subcategory for this id: %s", id.Hex())
		}
	}
	return nil
}

func (r *productRules) subcategoriesBelong(ctx context.Context, value any, req validator.Request) error {
	categoryID, err := r.categoryOf(ctx, req)
	if err != nil || categoryID.IsZero() {
		return err
	}
	return r.belong(ctx, objectIDs(value), categoryID)
}

// storedSubcategoriesBelong checks a category-only update against the stored subcategories.
func (r *productRules) storedSubcategoriesBelong(ctx context.Context, value any, req validator.Request) error {
	if _, ok := req.Body["subcategories"]; ok {
		return nil
	}
	categoryID, err := primitive.ObjectIDFromHex(fmt.Sprint(value))
	if err != nil {
		return nil
	}
	p, err := r.stored(ctx, req)
	if err != nil || p == nil {
		return err
	}
	return r.belong(ctx, p.Subcategories, categoryID)
}

func (r *productRules) belong(ctx context.Context, ids []primitive.ObjectID, categoryID primitive.ObjectID) error {
	found, err := r.loadSubcategories(ctx, ids)
	if err != nil {
		return err
	}
	for _, sub := range found {
		if sub.Category != categoryID {
			return validator.Fail("Subcategories not belong to category: %s", categoryID.Hex())
		}
	}
	return nil
}

// categoryOf is the body category, or the stored one when the body has none.
func (r *productRules) categoryOf(ctx context.Context, req validator.Request) (primitive.ObjectID, error) {
	if raw, ok := req.Body["category"]; ok && raw != nil {
		id, err := primitive.ObjectIDFromHex(fmt.Sprint(raw))
		if err != nil {
			return primitive.NilObjectID, nil
		}
		return id, nil
	}
	p, err := r.stored(ctx, req)
	if err != nil || p == nil {
		return primitive.NilObjectID, err
	}
	return p.Category, nil
}

func (r *productRules) loadSubcategories(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]model.Subcategory, error) {
	out := make(map[primitive.ObjectID]model.Subcategory, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	in := make([]any, len(ids))
	for i, id := range ids {
		in[i] = id
	}
	subs, err := r.subcategories.Find(ctx, query.Spec{
		Conditions: []query.Condition{query.Where("_id", query.In, in)},
	})
	if err != nil {
		return nil, err
	}
	for _, sub := range subs {
		out[sub.ID] = sub
	}
	return out, nil
}

func allStrings(_ context.Context, value any, _ validator.Request) error {
	items, _ := value.([]any)
	for _, item := range items {
		if _, ok := item.(string); !ok {
			return validator.Fail("invalid item %v", item)
		}
	}
	return nil
}

func allObjectIDs(_ context.Context, value any, _ validator.Request) error {
	items, _ := value.([]any)
	for _, item := range items {
		s, ok := item.(string)
		if !ok || !primitive.IsValidObjectID(s) {
			return validator.Fail("invalid id %v", item)
		}
	}
	return nil
}

func objectIDs(value any) []primitive.ObjectID {
	items, _ := value.([]any)
	ids := make([]primitive.ObjectID, 0, len(items))
	for _, item := range items {
		if id, err := primitive.ObjectIDFromHex(fmt.Sprint(item)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
