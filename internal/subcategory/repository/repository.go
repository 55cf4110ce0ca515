package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/store/memstore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/mongostore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/pgstore"
	"github.com/fekuna/omnipos-catalog-service/internal/subcategory"
)

func NewMongoRepository(ctx context.Context, db *mongo.Database) (subcategory.Repository, error) {
	repo, err := mongostore.NewCollection[model.Subcategory](ctx, db, model.SubcategorySchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewPGRepository(ctx context.Context, db *sqlx.DB) (subcategory.Repository, error) {
	repo, err := pgstore.NewCollection[model.Subcategory](ctx, db, model.SubcategorySchema)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func NewMemoryRepository() subcategory.Repository {
	return memstore.NewCollection[model.Subcategory](model.SubcategorySchema)
}
