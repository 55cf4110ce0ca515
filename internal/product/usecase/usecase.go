package usecase

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	"github.com/fekuna/omnipos-catalog-service/internal/category"
	"github.com/fekuna/omnipos-catalog-service/internal/image"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

type productUseCase struct {
	repo       product.Repository
	categories category.Repository
	cache      cache.ListCache
	urls       image.URLs
	logger     logger.ZapLogger
}

// NewProductUseCase builds the product use case. listCache may be nil.
func NewProductUseCase(repo product.Repository, categories category.Repository, listCache cache.ListCache, urls image.URLs, log logger.ZapLogger) product.UseCase {
	return &productUseCase{
		repo:       repo,
		categories: categories,
		cache:      listCache,
		urls:       urls,
		logger:     log,
	}
}

func (uc *productUseCase) Present(ctx context.Context, items []model.Product) ([]any, error) {
	// 1. Load the referenced categories in one query
	seen := make(map[primitive.ObjectID]bool, len(items))
	ids := make([]any, 0, len(items))
	for _, p := range items {
		if p.Category.IsZero() || seen[p.Category] {
			continue
		}
		seen[p.Category] = true
		ids = append(ids, p.Category)
	}

	names := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) > 0 {
		found, err := uc.categories.Find(ctx, query.Spec{
			Conditions: []query.Condition{query.Where("_id", query.In, ids)},
		})
		if err != nil {
			return nil, errors.Wrap(err, "load product categories")
		}
		for _, c := range found {
			names[c.ID] = c.Name
		}
	}

	// 2. Build the views
	dir := model.ProductSchema.ImageDir
	out := make([]any, len(items))
	for i, p := range items {
		view := model.ProductView{Product: p}
		view.ImageCover = uc.urls.URL(dir, p.ImageCover)
		view.Images = uc.urls.List(dir, p.Images)
		if name, ok := names[p.Category]; ok {
			view.Category = &model.CategorySummary{ID: p.Category, Name: name}
		}
		out[i] = view
	}
	return out, nil
}

func (uc *productUseCase) RecordSale(ctx context.Context, productID string, quantity int64) (*model.Product, error) {
	if quantity <= 0 {
		return nil, product.ErrInvalidQuantity
	}

	// 1. Check stock
	p, err := uc.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p.Quantity < quantity {
		return nil, fmt.Errorf("%w: product %s has %d, ordered %d", product.ErrInsufficientStock, productID, p.Quantity, quantity)
	}

	// 2. Move units from quantity to sold while enough stock remains
	updated, err := uc.repo.Increment(ctx, productID, map[string]int64{
		"quantity": -quantity,
		"sold":     quantity,
	}, query.Where("quantity", query.Gte, float64(quantity)))
	if errors.Is(err, store.ErrNotFound) {
		// stock was taken by a concurrent sale after the check above
		return nil, fmt.Errorf("%w: product %s", product.ErrInsufficientStock, productID)
	}
	if err != nil {
		return nil, err
	}

	// 3. Invalidate cached product lists
	if uc.cache != nil {
		uc.cache.Invalidate(ctx, model.ProductSchema.Collection)
	}

	uc.logger.Debug("recorded product sale",
		zap.String("product_id", productID),
		zap.Int64("quantity", quantity),
		zap.Int64("remaining", updated.Quantity),
	)
	return updated, nil
}
