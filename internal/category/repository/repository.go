package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fekuna/omnipos-catalog-service/internal/category"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/store/memstore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/mongostore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/pgstore"
)

func NewMongoRepository(ctx context.Context, db *mongo.Database) (category.Repository, error) {
	repo, err := mongostore.NewCollection[model.Category](ctx, db, model.CategorySchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewPGRepository(ctx context.Context, db *sqlx.DB) (category.Repository, error) {
	repo, err := pgstore.NewCollection[model.Category](ctx, db, model.CategorySchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewMemoryRepository() category.Repository {
	return memstore.NewCollection[model.Category](model.CategorySchema)
}
