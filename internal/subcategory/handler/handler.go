package handler

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	"github.com/fekuna/omnipos-catalog-service/internal/category"
	"github.com/fekuna/omnipos-catalog-service/internal/factory"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/subcategory"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

var idRules = []validator.Chain{
	validator.Param("id").MongoID("Invalid subcategory id format"),
}

type SubcategoryHandler struct {
	resource    *factory.Resource[model.Subcategory]
	rules       *validator.Engine
	createRules []validator.Chain
	updateRules []validator.Chain
	nestedRules []validator.Chain
}

func NewSubcategoryHandler(repo subcategory.Repository, categories category.Repository, rules *validator.Engine, listCache cache.ListCache, log logger.ZapLogger) *SubcategoryHandler {
	categoryExists := validator.Exists(categories.FindByID, "No category for this id: %v")

	h := &SubcategoryHandler{
		resource: factory.New[model.Subcategory](model.SubcategorySchema, repo, log),
		rules:    rules,
		createRules: []validator.Chain{
			validator.Body("name").
				Required("Subcategory required").
				IsString("Subcategory name must be a string").
				Tag("min=2", "Too short subcategory name").
				Tag("max=32", "Too long subcategory name"),
			validator.Body("category").
				Required("Subcategory must be belong to category").
				MongoID("Invalid category id format").
				Check(categoryExists, ""),
		},
		updateRules: []validator.Chain{
			validator.Param("id").MongoID("Invalid subcategory id format"),
			validator.Body("name").Opt().
				IsString("Subcategory name must be a string").
				Tag("min=2", "Too short subcategory name").
				Tag("max=32", "Too long subcategory name"),
			validator.Body("category").Opt().
				MongoID("Invalid category id format").
				Check(categoryExists, ""),
		},
		nestedRules: []validator.Chain{
			validator.Param("id").MongoID("Invalid category id format"),
		},
	}
	h.resource.Cache = listCache
	return h
}

func (h *SubcategoryHandler) Register(rg *gin.RouterGroup) {
	g := rg.Group("/subcategories")
	g.GET("", h.resource.ListAll())
	g.POST("", validator.ParseBody(), h.rules.Middleware(h.createRules...), h.resource.CreateOne())
	g.GET("/:id", h.rules.Middleware(idRules...), h.resource.GetOne())
	g.PUT("/:id", validator.ParseBody(), h.rules.Middleware(h.updateRules...), h.resource.UpdateOne())
	g.DELETE("/:id", h.rules.Middleware(idRules...), h.resource.DeleteOne())

	// nested under the parent category, :id is the category id
	nested := rg.Group("/categories/:id/subcategories")
	nested.GET("", h.rules.Middleware(h.nestedRules...), h.resource.ListAll(byParentCategory))
	nested.POST("",
		validator.ParseBody(),
		h.rules.Middleware(h.nestedRules...),
		setCategoryFromParam,
		h.rules.Middleware(h.createRules...),
		h.resource.CreateOne(),
	)
}

// setCategoryFromParam fills the body category from the route when absent.
func setCategoryFromParam(c *gin.Context) {
	body := validator.BodyFrom(c)
	if v, ok := body["category"]; !ok || v == nil || v == "" {
		body["category"] = c.Param("id")
	}
	c.Next()
}

func byParentCategory(c *gin.Context) []query.Condition {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return nil
	}
	return []query.Condition{query.Where("category", query.Eq, id)}
}
