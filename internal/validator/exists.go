package validator

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

// Exists fails with format (given the value) when find reports no record.
func Exists[T any](find func(ctx context.Context, id string) (*T, error), format string) CheckFunc {
	return func(ctx context.Context, value any, _ Request) error {
		id, _ := value.(string)
		_, err := find(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return Fail(format, value)
		}
		return err
	}
}
