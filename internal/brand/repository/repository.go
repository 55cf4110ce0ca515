package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fekuna/omnipos-catalog-service/internal/brand"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/store/memstore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/mongostore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/pgstore"
)

func NewMongoRepository(ctx context.Context, db *mongo.Database) (brand.Repository, error) {
	repo, err := mongostore.NewCollection[model.Brand](ctx, db, model.BrandSchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewPGRepository(ctx context.Context, db *sqlx.DB) (brand.Repository, error) {
	repo, err := pgstore.NewCollection[model.Brand](ctx, db, model.BrandSchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewMemoryRepository() brand.Repository {
	return memstore.NewCollection[model.Brand](model.BrandSchema)
}
