package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
)

var (
	ErrNotFound  = errors.New("document not found")
	ErrDuplicate = errors.New("duplicate value")
)

// Document is a storable record keyed by persisted field name.
type Document = map[string]any

// Collection is a document collection holding records of type T.
type Collection[T any] interface {
	// Count ignores the paging, sort and projection parts of spec.
	Count(ctx context.Context, spec query.Spec) (int64, error)
	Find(ctx context.Context, spec query.Spec) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Insert(ctx context.Context, doc Document) (*T, error)
	// UpdateByID merges set into the stored document and returns the result.
	UpdateByID(ctx context.Context, id string, set Document) (*T, error)
	// Increment atomically adds delta to numeric fields. With guard conditions
	// the update applies only while they hold; otherwise ErrNotFound.
	Increment(ctx context.Context, id string, delta map[string]int64, guard ...query.Condition) (*T, error)
	DeleteByID(ctx context.Context, id string) error
}

// Pinger reports whether the backing database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// DuplicateError names the unique field a write collided on.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value for %s", e.Field)
}

func (e *DuplicateError) Unwrap() error { return ErrDuplicate }

// DuplicateField picks the unique field whose index name appears in msg.
func DuplicateField(unique []string, msg string, indexName func(field string) string) string {
	for _, field := range unique {
		if strings.Contains(msg, indexName(field)) {
			return field
		}
	}
	if len(unique) > 0 {
		return unique[0]
	}
	return "_id"
}
