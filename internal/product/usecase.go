package product

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-catalog-service/internal/model"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
)

type UseCase interface {
	// Present populates the category and image urls of products for responses.
	Present(ctx context.Context, items []model.Product) ([]any, error)
	// RecordSale moves quantity units of a product from stock to sold.
	RecordSale(ctx context.Context, productID string, quantity int64) (*model.Product, error)
}
