package factory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
	"github.com/fekuna/omnipos-catalog-service/internal/cache"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

const mimeJSON = "application/json; charset=utf-8"

// Presenter turns stored records into response items.
type Presenter[T any] func(ctx context.Context, items []T) ([]any, error)

// Scope adds route-derived conditions to a list, e.g. a parent id.
type Scope func(c *gin.Context) []query.Condition

// Resource provides the generic CRUD handlers for one collection.
type Resource[T any] struct {
	Schema  *schema.Schema
	Store   store.Collection[T]
	Cache   cache.ListCache
	Present Presenter[T]
	// Invalidates names other collections whose cached lists embed this one.
	Invalidates []string
	Logger      logger.ZapLogger
}

type ListResponse struct {
	Results          int                    `json:"results"`
	PaginationResult query.PaginationResult `json:"paginationResult"`
	Data             []any                  `json:"data"`
}

func New[T any](s *schema.Schema, st store.Collection[T], log logger.ZapLogger) *Resource[T] {
	return &Resource[T]{Schema: s, Store: st, Logger: log}
}

func (r *Resource[T]) ListAll(scopes ...Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		params := c.Request.URL.Query()

		var conds []query.Condition
		var scopeKeys []string
		for _, scope := range scopes {
			for _, cond := range scope(c) {
				conds = append(conds, cond)
				scopeKeys = append(scopeKeys, fmt.Sprintf("%s:%s=%v", cond.Field, cond.Op, cond.Value))
			}
		}

		// 1. Cached page for the current version
		var key string
		if r.Cache != nil {
			if version, ok := r.Cache.Version(ctx, r.Schema.Collection); ok {
				key = cache.Key(r.Schema.Collection, version, params, scopeKeys...)
				if data, ok := r.Cache.Get(ctx, key); ok {
					c.Data(http.StatusOK, mimeJSON, data)
					return
				}
			}
		}

		// 2. Count matching documents, then read the page
		features := query.New(params, r.Schema).Where(conds...).Filter().Search()
		if err := features.Err(); err != nil {
			_ = c.Error(castError(err))
			return
		}
		total, err := r.Store.Count(ctx, features.Spec())
		if err != nil {
			_ = c.Error(err)
			return
		}
		spec := features.Paginate(total).Sort().LimitFields().Spec()

		items, err := r.Store.Find(ctx, spec)
		if err != nil {
			_ = c.Error(err)
			return
		}
		data, err := r.present(ctx, items)
		if err != nil {
			_ = c.Error(err)
			return
		}
		if data, err = project(data, spec.Projection); err != nil {
			_ = c.Error(err)
			return
		}

		body, err := json.Marshal(ListResponse{
			Results:          len(data),
			PaginationResult: features.PaginationResult(),
			Data:             data,
		})
		if err != nil {
			_ = c.Error(err)
			return
		}

		// 3. Remember the rendered page under the version it was read at
		if key != "" {
			r.Cache.Set(ctx, key, body)
		}
		c.Data(http.StatusOK, mimeJSON, body)
	}
}

func (r *Resource[T]) GetOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		item, err := r.Store.FindByID(c.Request.Context(), id)
		if err != nil {
			_ = c.Error(r.storeError(err, id, nil))
			return
		}
		r.respond(c, http.StatusOK, item)
	}
}

func (r *Resource[T]) CreateOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		body := validator.BodyFrom(c)

		doc, err := r.Schema.Document(body)
		if err != nil {
			_ = c.Error(apierror.New(err.Error(), http.StatusBadRequest))
			return
		}
		for field, value := range r.Schema.Defaults() {
			if _, ok := doc[field]; !ok {
				doc[field] = value
			}
		}

		now := time.Now().UTC()
		doc[schema.FieldID] = primitive.NewObjectID()
		doc[schema.FieldCreatedAt] = now
		doc[schema.FieldUpdatedAt] = now
		r.setSlug(doc)

		item, err := r.Store.Insert(ctx, doc)
		if err != nil {
			_ = c.Error(r.storeError(err, "", body))
			return
		}
		r.invalidate(ctx)

		r.Logger.Debug("document created", zap.String("resource", r.Schema.Resource))
		r.respond(c, http.StatusCreated, item)
	}
}

func (r *Resource[T]) UpdateOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")
		body := validator.BodyFrom(c)

		set, err := r.Schema.Document(body)
		if err != nil {
			_ = c.Error(apierror.New(err.Error(), http.StatusBadRequest))
			return
		}
		set[schema.FieldUpdatedAt] = time.Now().UTC()
		r.setSlug(set)

		item, err := r.Store.UpdateByID(ctx, id, set)
		if err != nil {
			_ = c.Error(r.storeError(err, id, body))
			return
		}
		r.invalidate(ctx)

		r.respond(c, http.StatusOK, item)
	}
}

func (r *Resource[T]) DeleteOne() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		id := c.Param("id")

		if err := r.Store.DeleteByID(ctx, id); err != nil {
			_ = c.Error(r.storeError(err, id, nil))
			return
		}
		r.invalidate(ctx)

		c.Status(http.StatusNoContent)
	}
}

func (r *Resource[T]) respond(c *gin.Context, status int, item *T) {
	data, err := r.present(c.Request.Context(), []T{*item})
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(status, gin.H{"data": data[0]})
}

func (r *Resource[T]) present(ctx context.Context, items []T) ([]any, error) {
	if r.Present != nil {
		return r.Present(ctx, items)
	}
	out := make([]any, len(items))
	for i := range items {
		out[i] = items[i]
	}
	return out, nil
}

// setSlug derives the slug when the slug source is being written.
func (r *Resource[T]) setSlug(doc store.Document) {
	if r.Schema.SlugFrom == "" {
		return
	}
	if src, ok := doc[r.Schema.SlugFrom].(string); ok {
		doc[schema.FieldSlug] = schema.Slug(src)
	}
}

func (r *Resource[T]) invalidate(ctx context.Context) {
	if r.Cache == nil {
		return
	}
	r.Cache.Invalidate(ctx, append([]string{r.Schema.Collection}, r.Invalidates...)...)
}

func (r *Resource[T]) storeError(err error, id string, body map[string]any) error {
	var dup *store.DuplicateError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apierror.NotFound(r.Schema.Resource, id)
	case errors.As(err, &dup):
		return apierror.NewValidation(apierror.FieldError{
			Field:    dup.Field,
			Location: apierror.Body,
			Value:    body[dup.Field],
			Msg:      fmt.Sprintf("%s %s must be unique", r.Schema.Resource, dup.Field),
		})
	}
	return err
}

func castError(err error) error {
	var ce *query.CastError
	if errors.As(err, &ce) {
		return apierror.NewValidation(apierror.FieldError{
			Field:    ce.Field,
			Location: apierror.Query,
			Value:    ce.Value,
			Msg:      "Invalid value for " + ce.Field,
		})
	}
	return err
}
