package mongostore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

type Collection[T any] struct {
	coll   *mongo.Collection
	schema *schema.Schema
}

// NewCollection binds the schema's collection and ensures its unique indexes.
func NewCollection[T any](ctx context.Context, db *mongo.Database, s *schema.Schema) (*Collection[T], error) {
	c := &Collection[T]{coll: db.Collection(s.Collection), schema: s}

	if len(s.Unique) > 0 {
		models := make([]mongo.IndexModel, 0, len(s.Unique))
		for _, field := range s.Unique {
			models = append(models, mongo.IndexModel{
				Keys:    bson.D{{Key: field, Value: 1}},
				Options: options.Index().SetUnique(true).SetName(indexName(field)),
			})
		}
		if _, err := c.coll.Indexes().CreateMany(ctx, models); err != nil {
			return nil, errors.Wrapf(err, "mongostore: create indexes on %s", s.Collection)
		}
	}
	return c, nil
}

func (c *Collection[T]) Count(ctx context.Context, spec query.Spec) (int64, error) {
	n, err := c.coll.CountDocuments(ctx, Filter(spec))
	if err != nil {
		return 0, errors.Wrapf(err, "mongostore: count %s", c.schema.Collection)
	}
	return n, nil
}

func (c *Collection[T]) Find(ctx context.Context, spec query.Spec) ([]T, error) {
	opts := options.Find()
	if spec.Limit > 0 {
		opts.SetLimit(spec.Limit)
	}
	if spec.Skip > 0 {
		opts.SetSkip(spec.Skip)
	}
	if sort := Sort(spec); len(sort) > 0 {
		opts.SetSort(sort)
	}
	if projection := Projection(spec); projection != nil {
		opts.SetProjection(projection)
	}

	cursor, err := c.coll.Find(ctx, Filter(spec), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "mongostore: find %s", c.schema.Collection)
	}
	defer cursor.Close(ctx)

	out := []T{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Wrapf(err, "mongostore: decode %s", c.schema.Collection)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var out T
	err = c.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "mongostore: find %s %s", c.schema.Resource, id)
	}
	return &out, nil
}

func (c *Collection[T]) Insert(ctx context.Context, doc store.Document) (*T, error) {
	if _, ok := doc[schema.FieldID]; !ok {
		doc[schema.FieldID] = primitive.NewObjectID()
	}
	res, err := c.coll.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return nil, c.writeError(err, "insert")
	}

	oid, _ := res.InsertedID.(primitive.ObjectID)
	return c.FindByID(ctx, oid.Hex())
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, set store.Document) (*T, error) {
	delete(set, schema.FieldID)
	return c.findOneAndUpdate(ctx, id, bson.M{"$set": bson.M(set)})
}

func (c *Collection[T]) Increment(ctx context.Context, id string, delta map[string]int64, guard ...query.Condition) (*T, error) {
	return c.findOneAndUpdate(ctx, id, bson.M{
		"$inc": delta,
		"$set": bson.M{schema.FieldUpdatedAt: time.Now().UTC()},
	}, guard...)
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return errors.Wrapf(err, "mongostore: delete %s %s", c.schema.Resource, id)
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) findOneAndUpdate(ctx context.Context, id string, update bson.M, guard ...query.Condition) (*T, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	filter := Filter(query.Spec{Conditions: append([]query.Condition{query.Where("_id", query.Eq, oid)}, guard...)})

	var out T
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err = c.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, c.writeError(err, "update")
	}
	return &out, nil
}

func (c *Collection[T]) writeError(err error, op string) error {
	if mongo.IsDuplicateKeyError(err) {
		return &store.DuplicateError{Field: store.DuplicateField(c.schema.Unique, err.Error(), indexName)}
	}
	return errors.Wrapf(err, "mongostore: %s %s", op, c.schema.Resource)
}

func indexName(field string) string {
	return field + "_unique"
}
