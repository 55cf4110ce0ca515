package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/schema"
)

type Subcategory struct {
	BaseModel `bson:",inline"`
	Name      string             `bson:"name" json:"name"`
	Slug      string             `bson:"slug" json:"slug"`
	Category  primitive.ObjectID `bson:"category" json:"category"`
}

var SubcategorySchema = schema.New(schema.Schema{
	Resource:   "subcategory",
	Collection: "subcategories",
	SlugFrom:   "name",
	Search:     []string{"name"},
	Unique:     []string{"name"},
	Fields: []schema.Field{
		{Name: "name", Kind: schema.String},
		{Name: "category", Kind: schema.ObjectID},
	},
})
