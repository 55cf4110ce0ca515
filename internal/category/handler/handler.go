package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	"github.com/fekuna/omnipos-catalog-service/internal/category"
	"github.com/fekuna/omnipos-catalog-service/internal/factory"
	"github.com/fekuna/omnipos-catalog-service/internal/image"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

var (
	idRules = []validator.Chain{
		validator.Param("id").MongoID("Invalid category id format"),
	}

	createRules = []validator.Chain{
		validator.Body("name").
			Required("Category required").
			IsString("Category name must be a string").
			Tag("min=3", "Too short category name").
			Tag("max=32", "Too long category name"),
	}

	updateRules = []validator.Chain{
		validator.Param("id").MongoID("Invalid category id format"),
		validator.Body("name").Opt().
			IsString("Category name must be a string").
			Tag("min=3", "Too short category name").
			Tag("max=32", "Too long category name"),
	}

	uploadOptions = image.Options{
		Prefix: "category",
		Dir:    model.CategorySchema.ImageDir,
		Width:  600,
		Height: 600,
		Fields: []image.Field{{Name: "image", MaxCount: 1}},
	}
)

type CategoryHandler struct {
	resource *factory.Resource[model.Category]
	uploader *image.Uploader
	rules    *validator.Engine
	urls     image.URLs
}

func NewCategoryHandler(repo category.Repository, uploader *image.Uploader, urls image.URLs, rules *validator.Engine, listCache cache.ListCache, log logger.ZapLogger) *CategoryHandler {
	h := &CategoryHandler{
		resource: factory.New[model.Category](model.CategorySchema, repo, log),
		uploader: uploader,
		rules:    rules,
		urls:     urls,
	}
	h.resource.Cache = listCache
	h.resource.Present = h.present
	// product reads embed the category name
	h.resource.Invalidates = []string{model.ProductSchema.Collection}
	return h
}

func (h *CategoryHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/categories")
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

func (h *CategoryHandler) present(_ context.Context, items []model.Category) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		item.Image = h.urls.URL(model.CategorySchema.ImageDir, item.Image)
		out[i] = item
	}
	return out, nil
}
