package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/store/memstore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/mongostore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/pgstore"
)

func NewMongoRepository(ctx context.Context, db *mongo.Database) (product.Repository, error) {
	repo, err := mongostore.NewCollection[model.Product](ctx, db, model.ProductSchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewPGRepository(ctx context.Context, db *sqlx.DB) (product.Repository, error) {
	repo, err := pgstore.NewCollection[model.Product](ctx, db, model.ProductSchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewMemoryRepository() product.Repository {
	return memstore.NewCollection[model.Product](model.ProductSchema)
}
