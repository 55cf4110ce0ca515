package model

import "github.com/fekuna/omnipos-catalog-service/internal/schema"

type Category struct {
	BaseModel `bson:",inline"`
	Name      string `bson:"name" json:"name"`
	Slug      string `bson:"slug" json:"slug"`
	Image     string `bson:"image,omitempty" json:"image,omitempty"`
}

var CategorySchema = schema.New(schema.Schema{
	Resource:   "category",
	Collection: "categories",
	SlugFrom:   "name",
	Search:     []string{"name"},
	Unique:     []string{"name"},
	Images:     []string{"image"},
	ImageDir:   "categories",
	Fields: []schema.Field{
		{Name: "name", Kind: schema.String},
		{Name: "image", Kind: schema.String},
	},
})
