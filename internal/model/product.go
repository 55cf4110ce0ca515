package model

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/schema"
)

type Product struct {
	BaseModel          `bson:",inline"`
	Title              string               `bson:"title" json:"title"`
	Slug               string               `bson:"slug" json:"slug"`
	Description        string               `bson:"description" json:"description"`
	Quantity           int64                `bson:"quantity" json:"quantity"`
	Sold               int64                `bson:"sold" json:"sold"`
	Price              float64              `bson:"price" json:"price"`
	PriceAfterDiscount *float64             `bson:"priceAfterDiscount,omitempty" json:"priceAfterDiscount,omitempty"`
	Colors             []string             `bson:"colors,omitempty" json:"colors,omitempty"`
	ImageCover         string               `bson:"imageCover" json:"imageCover"`
	Images             []string             `bson:"images,omitempty" json:"images,omitempty"`
	Category           primitive.ObjectID   `bson:"category" json:"category"`
	Subcategories      []primitive.ObjectID `bson:"subcategories,omitempty" json:"subcategories,omitempty"`
	Brand              *primitive.ObjectID  `bson:"brand,omitempty" json:"brand,omitempty"`
	RatingsAverage     *float64             `bson:"ratingsAverage,omitempty" json:"ratingsAverage,omitempty"`
	RatingsQuantity    int64                `bson:"ratingsQuantity" json:"ratingsQuantity"`
}

// CategorySummary is the populated form of Product.Category on reads.
type CategorySummary struct {
	ID   primitive.ObjectID `json:"_id"`
	Name string             `json:"name"`
}

// ProductView is a Product as returned to clients. Category is null when the
// referenced category no longer exists.
type ProductView struct {
	Product
	Category *CategorySummary `json:"category"`
}

var ProductSchema = schema.New(schema.Schema{
	Resource:   "product",
	Collection: "products",
	SlugFrom:   "title",
	Search:     []string{"title", "description"},
	Images:     []string{"imageCover", "images"},
	ImageDir:   "products",
	Fields: []schema.Field{
		{Name: "title", Kind: schema.String},
		{Name: "description", Kind: schema.String},
		{Name: "quantity", Kind: schema.Integer},
		{Name: "sold", Kind: schema.Integer, Default: int64(0)},
		{Name: "price", Kind: schema.Number},
		{Name: "priceAfterDiscount", Kind: schema.Number},
		{Name: "colors", Kind: schema.StringList},
		{Name: "imageCover", Kind: schema.String},
		{Name: "images", Kind: schema.StringList},
		{Name: "category", Kind: schema.ObjectID},
		{Name: "subcategories", Kind: schema.ObjectIDList},
		{Name: "brand", Kind: schema.ObjectID},
		{Name: "ratingsAverage", Kind: schema.Number},
		{Name: "ratingsQuantity", Kind: schema.Integer, Default: int64(0)},
	},
})
