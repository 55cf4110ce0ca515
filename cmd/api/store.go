package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-catalog-service/config"
	"github.com/fekuna/omnipos-catalog-service/internal/brand"
	brandRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/brand/repository"
	"github.com/fekuna/omnipos-catalog-service/internal/category"
	catRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/category/repository"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	prodRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/product/repository"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
	"github.com/fekuna/omnipos-catalog-service/internal/store/mongostore"
	"github.com/fekuna/omnipos-catalog-service/internal/store/pgstore"
	"github.com/fekuna/omnipos-catalog-service/internal/subcategory"
	subRepoPkg "github.com/fekuna/omnipos-catalog-service/internal/subcategory/repository"
)

type repositories struct {
	categories    category.Repository
	subcategories subcategory.Repository
	brands        brand.Repository
	products      product.Repository
	pinger        store.Pinger
	close         func()
}

func openStore(ctx context.Context, cfg *config.Config) (*repositories, error) {
	switch cfg.Store.Driver {
	case "mongo":
		return openMongo(ctx, cfg.Mongo)
	case "postgres":
		return openPostgres(ctx, cfg.Postgres)
	case "memory":
		return &repositories{
			categories:    catRepoPkg.NewMemoryRepository(),
			subcategories: subRepoPkg.NewMemoryRepository(),
			brands:        brandRepoPkg.NewMemoryRepository(),
			products:      prodRepoPkg.NewMemoryRepository(),
			pinger:        store.PingerFunc(func(context.Context) error { return nil }),
			close:         func() {},
		}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func openMongo(ctx context.Context, cfg config.MongoConfig) (*repositories, error) {
	client, err := mongostore.NewMongoConnection(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = client.Disconnect(ctx)
	}
	db := client.Database(cfg.DBName)

	repos := &repositories{pinger: store.PingerFunc(mongostore.Pinger(client)), close: closeFn}
	if repos.categories, err = catRepoPkg.NewMongoRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	if repos.subcategories, err = subRepoPkg.NewMongoRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	if repos.brands, err = brandRepoPkg.NewMongoRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	if repos.products, err = prodRepoPkg.NewMongoRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	return repos, nil
}

func openPostgres(ctx context.Context, cfg config.PostgresConfig) (*repositories, error) {
	db, err := pgstore.NewPsqlDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closeFn := func() { _ = db.Close() }

	repos := &repositories{pinger: store.PingerFunc(db.PingContext), close: closeFn}
	if repos.categories, err = catRepoPkg.NewPGRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	if repos.subcategories, err = subRepoPkg.NewPGRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	if repos.brands, err = brandRepoPkg.NewPGRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	if repos.products, err = prodRepoPkg.NewPGRepository(ctx, db); err != nil {
		closeFn()
		return nil, err
	}
	return repos, nil
}
