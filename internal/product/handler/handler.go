package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-catalog-service/internal/brand"
	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	"github.com/fekuna/omnipos-catalog-service/internal/category"
	"github.com/fekuna/omnipos-catalog-service/internal/factory"
	"github.com/fekuna/omnipos-catalog-service/internal/image"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/product"
	"github.com/fekuna/omnipos-catalog-service/internal/subcategory"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

var uploadOptions = image.Options{
	Prefix: "product",
	Dir:    model.ProductSchema.ImageDir,
	Width:  2000,
	Height: 1333,
	Fields: []image.Field{
		{Name: "imageCover", MaxCount: 1},
		{Name: "images", MaxCount: 5},
	},
}

// Repositories groups the stores product validation reads from.
type Repositories struct {
	Products      product.Repository
	Categories    category.Repository
	Subcategories subcategory.Repository
	Brands        brand.Repository
}

type ProductHandler struct {
	resource    *factory.Resource[model.Product]
	uploader    *image.Uploader
	rules       *validator.Engine
	createRules []validator.Chain
	updateRules []validator.Chain
}

func NewProductHandler(repos Repositories, uc product.UseCase, uploader *image.Uploader, rules *validator.Engine, listCache cache.ListCache, log logger.ZapLogger) *ProductHandler {
	pr := &productRules{
		products:      repos.Products,
		categories:    repos.Categories,
		subcategories: repos.Subcategories,
		brands:        repos.Brands,
	}
	h := &ProductHandler{
		resource:    factory.New[model.Product](model.ProductSchema, repos.Products, log),
		uploader:    uploader,
		rules:       rules,
		createRules: pr.create(),
		updateRules: pr.update(),
	}
	h.resource.Cache = listCache
	h.resource.Present = uc.Present
	return h
}

func (h *ProductHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/products")
	g.GET("", h.resource.ListAll())
	g.POST("",
		validator.ParseBody(),
		h.uploader.Middleware(uploadOptions),
		h.rules.Middleware(h.createRules...),
		h.resource.CreateOne(),
	)
	g.GET("/:id", h.rules.Middleware(idRules...), h.resource.GetOne())
	g.PUT("/:id",
		validator.ParseBody(),
		h.uploader.Middleware(uploadOptions),
		h.rules.Middleware(h.updateRules...),
		h.resource.UpdateOne(),
	)
	g.DELETE("/:id", h.rules.Middleware(idRules...), h.resource.DeleteOne())
}
