package subcategory

import (
	"github.com/fekuna/omnipos-catalog-service/internal/model"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

type Repository interface {
	store.Collection[model.Subcategory]
}
