package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-catalog-service/internal/brand"
	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	"github.com/fekuna/omnipos-catalog-service/internal/factory"
	"github.com/fekuna/omnipos-catalog-service/internal/image"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

var (
	idRules = []validator.Chain{
		validator.Param("id").MongoID("Invalid brand id format"),
	}

	createRules = []validator.Chain{
		validator.Body("name").
			Required("Brand required").
			IsString("Brand name must be a string").
			Tag("min=3", "Too short brand name").
			Tag("max=32", "Too long brand name"),
	}

	updateRules = []validator.Chain{
		validator.Param("id").MongoID("Invalid brand id format"),
		validator.Body("name").Opt().
			IsString("Brand name must be a string").
			Tag("min=3", "Too short brand name").
			Tag("max=32", "Too long brand name"),
	}

	uploadOptions = image.Options{
		Prefix: "brand",
		Dir:    model.BrandSchema.ImageDir,
		Width:  600,
		Height: 600,
		Fields: []image.Field{{Name: "image", MaxCount: 1}},
	}
)

type BrandHandler struct {
	resource *factory.Resource[model.Brand]
	uploader *image.Uploader
	rules    *validator.Engine
	urls     image.URLs
}

func NewBrandHandler(repo brand.Repository, uploader *image.Uploader, urls image.URLs, rules *validator.Engine, listCache cache.ListCache, log logger.ZapLogger) *BrandHandler {
	h := &BrandHandler{
		resource: factory.New[model.Brand](model.BrandSchema, repo, log),
		uploader: uploader,
		rules:    rules,
		urls:     urls,
	}
	h.resource.Cache = listCache
	h.resource.Present = h.present
	return h
}

func (h *BrandHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/brands")
	g.GET("", h.resource.ListAll())
	g.POST("",
		validator.ParseBody(),
		h.uploader.Middleware(uploadOptions),
		h.rules.Middleware(createRules...),
		h.resource.CreateOne(),
	)
	g.GET("/:id", h.rules.Middleware(idRules...), h.resource.GetOne())
	g.PUT("/:id",
		validator.ParseBody(),
		h.uploader.Middleware(uploadOptions),
		h.rules.Middleware(updateRules...),
		h.resource.UpdateOne(),
	)
	g.DELETE("/:id", h.rules.Middleware(idRules...), h.resource.DeleteOne())
}

func (h *BrandHandler) present(_ context.Context, items []model.Brand) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		item.Image = h.urls.URL(model.BrandSchema.ImageDir, item.Image)
		out[i] = item
	}
	return out, nil
}
