package pgstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

const uniqueViolation = "23505"

// Collection stores each record as a JSONB document keyed by its object id.
type Collection[T any] struct {
	DB     *sqlx.DB
	schema *schema.Schema
}

// NewCollection creates the backing table and unique indexes when missing.
func NewCollection[T any](ctx context.Context, db *sqlx.DB, s *schema.Schema) (*Collection[T], error) {
	c := &Collection[T]{DB: db, schema: s}

	ddl := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (id TEXT PRIMARY KEY, doc JSONB NOT NULL)`, s.Collection),
	}
	for _, field := range s.Unique {
		ddl = append(ddl, fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s ON %s ((doc->>'%s'))`,
			c.indexName(field), s.Collection, quoteKey(field)))
	}
	for _, stmt := range ddl {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, errors.Wrapf(err, "pgstore: migrate %s", s.Collection)
		}
	}
	return c, nil
}

func (c *Collection[T]) Count(ctx context.Context, spec query.Spec) (int64, error) {
	b := newBuilder(c.schema)
	q := "SELECT count(*) FROM " + c.schema.Collection + b.where(spec)

	q, args, err := c.bind(q, b.args)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := c.DB.GetContext(ctx, &n, q, args...); err != nil {
		return 0, errors.Wrapf(err, "pgstore: count %s", c.schema.Collection)
	}
	return n, nil
}

func (c *Collection[T]) Find(ctx context.Context, spec query.Spec) ([]T, error) {
	b := newBuilder(c.schema)
	q := "SELECT doc FROM " + c.schema.Collection + b.where(spec) + b.orderBy(spec)
	if spec.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", spec.Limit)
	}
	if spec.Skip > 0 {
		q += fmt.Sprintf(" OFFSET %d", spec.Skip)
	}

	q, args, err := c.bind(q, b.args)
	if err != nil {
		return nil, err
	}
	var rows [][]byte
	if err := c.DB.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, errors.Wrapf(err, "pgstore: find %s", c.schema.Collection)
	}

	out := make([]T, 0, len(rows))
	for _, raw := range rows {
		item, err := decode[T](raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	var raw []byte
	q := c.DB.Rebind("SELECT doc FROM " + c.schema.Collection + " WHERE id = ?")
	err := c.DB.GetContext(ctx, &raw, q, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "pgstore: find %s %s", c.schema.Resource, id)
	}
	return decode[T](raw)
}

func (c *Collection[T]) Insert(ctx context.Context, doc store.Document) (*T, error) {
	oid, ok := doc[schema.FieldID].(primitive.ObjectID)
	if !ok {
		oid = primitive.NewObjectID()
		doc[schema.FieldID] = oid
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "pgstore: encode document")
	}

	var raw []byte
	q := c.DB.Rebind("INSERT INTO " + c.schema.Collection + " (id, doc) VALUES (?, ?::jsonb) RETURNING doc")
	if err := c.DB.GetContext(ctx, &raw, q, oid.Hex(), string(payload)); err != nil {
		return nil, c.writeError(err, "insert")
	}
	return decode[T](raw)
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, set store.Document) (*T, error) {
	delete(set, schema.FieldID)
	payload, err := json.Marshal(set)
	if err != nil {
		return nil, errors.Wrap(err, "pgstore: encode update")
	}

	q := c.DB.Rebind("UPDATE " + c.schema.Collection + " SET doc = doc || ?::jsonb WHERE id = ? RETURNING doc")
	return c.returning(ctx, q, "update", string(payload), id)
}

func (c *Collection[T]) Increment(ctx context.Context, id string, delta map[string]int64, guard ...query.Condition) (*T, error) {
	b := newBuilder(c.schema)
	expr := "doc"
	for field, d := range delta {
		key := quoteKey(field)
		expr = fmt.Sprintf("%s || jsonb_build_object('%s', COALESCE((doc->>'%s')::numeric, 0) + %s)",
			expr, key, key, b.arg(d))
	}
	expr = fmt.Sprintf("%s || jsonb_build_object('%s', %s::text)", expr, schema.FieldUpdatedAt, b.arg(time.Now().UTC().Format(time.RFC3339Nano)))

	where := " WHERE id = " + b.arg(id)
	for _, cond := range guard {
		where += " AND " + b.condition(cond)
	}

	q, args, err := c.bind("UPDATE "+c.schema.Collection+" SET doc = "+expr+where+" RETURNING doc", b.args)
	if err != nil {
		return nil, err
	}
	return c.returning(ctx, q, "increment", args...)
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	q := c.DB.Rebind("DELETE FROM " + c.schema.Collection + " WHERE id = ?")
	res, err := c.DB.ExecContext(ctx, q, id)
	if err != nil {
		return errors.Wrapf(err, "pgstore: delete %s %s", c.schema.Resource, id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "pgstore: rows affected")
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) returning(ctx context.Context, q, op string, args ...any) (*T, error) {
	var raw []byte
	err := c.DB.GetContext(ctx, &raw, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, c.writeError(err, op)
	}
	return decode[T](raw)
}

// bind expands slice arguments for IN lists and rebinds to the driver's placeholders.
func (c *Collection[T]) bind(q string, args []any) (string, []any, error) {
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return "", nil, errors.Wrap(err, "pgstore: bind query")
	}
	return c.DB.Rebind(q), args, nil
}

func (c *Collection[T]) writeError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return &store.DuplicateError{Field: store.DuplicateField(c.schema.Unique, pgErr.ConstraintName, c.indexName)}
	}
	return errors.Wrapf(err, "pgstore: %s %s", op, c.schema.Resource)
}

func (c *Collection[T]) indexName(field string) string {
	return c.schema.Collection + "_" + field + "_unique"
}

func decode[T any](raw []byte) (*T, error) {
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "pgstore: decode document")
	}
	return &out, nil
}
