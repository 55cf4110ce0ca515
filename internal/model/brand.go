package model

import "github.com/fekuna/omnipos-catalog-service/internal/schema"

type Brand struct {
	BaseModel `bson:",inline"`
	Name      string `bson:"name" json:"name"`
	Slug      string `bson:"slug" json:"slug"`
	Image     string `bson:"image,omitempty" json:"image,omitempty"`
}

var BrandSchema = schema.New(schema.Schema{
	Resource:   "brand",
	Collection: "brands",
	SlugFrom:   "name",
	Search:     []string{"name"},
	Unique:     []string{"name"},
	Images:     []string{"image"},
	ImageDir:   "brands",
	Fields: []schema.Field{
		{Name: "name", Kind: schema.String},
		{Name: "image", Kind: schema.String},
	},
})
