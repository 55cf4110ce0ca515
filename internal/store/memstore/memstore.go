package memstore

import (
	"context"
	"encoding/json"
	"reflect"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/query"
	"github.com/fekuna/omnipos-catalog-service/internal/schema"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

// Collection keeps documents in process memory, in insertion order.
type Collection[T any] struct {
	mu     sync.RWMutex
	schema *schema.Schema
	docs   []store.Document
}

func NewCollection[T any](s *schema.Schema) *Collection[T] {
	return &Collection[T]{schema: s}
}

func (c *Collection[T]) Count(ctx context.Context, spec query.Spec) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matcher, err := newMatcher(spec)
	if err != nil {
		return 0, err
	}
	var n int64
	for _, doc := range c.docs {
		if matcher.match(doc) {
			n++
		}
	}
	return n, nil
}

func (c *Collection[T]) Find(ctx context.Context, spec query.Spec) ([]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	matcher, err := newMatcher(spec)
	if err != nil {
		return nil, err
	}
	var matched []store.Document
	for _, doc := range c.docs {
		if matcher.match(doc) {
			matched = append(matched, doc)
		}
	}

	if len(spec.Sort) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, s := range spec.Sort {
				cmp := compareValues(normalize(matched[i][s.Field]), normalize(matched[j][s.Field]))
				if cmp == 0 {
					continue
				}
				if s.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	start := min(spec.Skip, int64(len(matched)))
	end := int64(len(matched))
	if spec.Limit > 0 {
		end = start + min(spec.Limit, end-start)
	}

	out := make([]T, 0, end-start)
	for _, doc := range matched[start:end] {
		item, err := decode[T](doc)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	return decode[T](c.docs[i])
}

func (c *Collection[T]) Insert(ctx context.Context, doc store.Document) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stored := clone(doc)
	if _, ok := stored[schema.FieldID].(primitive.ObjectID); !ok {
		stored[schema.FieldID] = primitive.NewObjectID()
	}
	if c.indexOf(stored[schema.FieldID].(primitive.ObjectID).Hex()) >= 0 {
		return nil, &store.DuplicateError{Field: schema.FieldID}
	}
	if err := c.checkUnique(stored, -1); err != nil {
		return nil, err
	}
	c.docs = append(c.docs, stored)
	return decode[T](stored)
}

func (c *Collection[T]) UpdateByID(ctx context.Context, id string, set store.Document) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	updated := clone(c.docs[i])
	for k, v := range set {
		if k == schema.FieldID {
			continue
		}
		updated[k] = v
	}
	if err := c.checkUnique(updated, i); err != nil {
		return nil, err
	}
	c.docs[i] = updated
	return decode[T](updated)
}

func (c *Collection[T]) Increment(ctx context.Context, id string, delta map[string]int64, guard ...query.Condition) (*T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return nil, store.ErrNotFound
	}
	matcher, err := newMatcher(query.Spec{Conditions: guard})
	if err != nil {
		return nil, err
	}
	if !matcher.match(c.docs[i]) {
		return nil, store.ErrNotFound
	}
	updated := clone(c.docs[i])
	for field, d := range delta {
		switch v := updated[field].(type) {
		case float64:
			updated[field] = v + float64(d)
		case int64:
			updated[field] = v + d
		case nil:
			updated[field] = d
		default:
			return nil, errors.Errorf("cannot increment non-numeric field %s", field)
		}
	}
	updated[schema.FieldUpdatedAt] = time.Now().UTC()
	c.docs[i] = updated
	return decode[T](updated)
}

func (c *Collection[T]) DeleteByID(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := c.indexOf(id)
	if i < 0 {
		return store.ErrNotFound
	}
	c.docs = append(c.docs[:i], c.docs[i+1:]...)
	return nil
}

func (c *Collection[T]) Ping(ctx context.Context) error {
	return nil
}

func (c *Collection[T]) indexOf(id string) int {
	for i, doc := range c.docs {
		if oid, ok := doc[schema.FieldID].(primitive.ObjectID); ok && oid.Hex() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) checkUnique(doc store.Document, self int) error {
	for _, field := range c.schema.Unique {
		value := normalize(doc[field])
		if value == nil {
			continue
		}
		for i, other := range c.docs {
			if i != self && equalValues(normalize(other[field]), value) {
				return &store.DuplicateError{Field: field}
			}
		}
	}
	return nil
}

func clone(doc store.Document) store.Document {
	out := make(store.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}

func decode[T any](doc store.Document) (*T, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "memstore: encode document")
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errors.Wrap(err, "memstore: decode document")
	}
	return &out, nil
}

type matcher struct {
	conditions []query.Condition
	search     *regexp.Regexp
	fields     []string
}

func newMatcher(spec query.Spec) (*matcher, error) {
	m := &matcher{conditions: spec.Conditions}
	if spec.Search != nil {
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(spec.Search.Keyword))
		if err != nil {
			return nil, errors.Wrap(err, "memstore: compile search")
		}
		m.search = re
		m.fields = spec.Search.Fields
	}
	return m, nil
}

func (m *matcher) match(doc store.Document) bool {
	for _, cond := range m.conditions {
		if !matchCondition(normalize(doc[cond.Field]), cond) {
			return false
		}
	}
	if m.search == nil {
		return true
	}
	for _, field := range m.fields {
		if s, ok := doc[field].(string); ok && m.search.MatchString(s) {
			return true
		}
	}
	return false
}

func matchCondition(value any, cond query.Condition) bool {
	want := normalize(cond.Value)
	equals := func(v any) bool { return equalValues(v, want) }
	switch cond.Op {
	case query.Eq:
		return anyOf(value, equals)
	case query.Ne:
		return !anyOf(value, equals)
	case query.In:
		candidates, _ := want.([]any)
		return anyOf(value, func(v any) bool {
			for _, c := range candidates {
				if equalValues(v, c) {
					return true
				}
			}
			return false
		})
	case query.Gt, query.Gte, query.Lt, query.Lte:
		return anyOf(value, func(v any) bool {
			if v == nil || !sameKind(v, want) {
				return false
			}
			cmp := compareValues(v, want)
			switch cond.Op {
			case query.Gt:
				return cmp > 0
			case query.Gte:
				return cmp >= 0
			case query.Lt:
				return cmp < 0
			default:
				return cmp <= 0
			}
		})
	}
	return false
}

// anyOf applies fn to a scalar, or to each element of a list value.
func anyOf(value any, fn func(any) bool) bool {
	if list, ok := value.([]any); ok {
		for _, v := range list {
			if fn(v) {
				return true
			}
		}
		return false
	}
	return fn(value)
}

func normalize(v any) any {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case *primitive.ObjectID:
		if x == nil {
			return nil
		}
		return x.Hex()
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case float32:
		return float64(x)
	case *float64:
		if x == nil {
			return nil
		}
		return *x
	case []primitive.ObjectID:
		out := make([]any, len(x))
		for i, id := range x {
			out[i] = id.Hex()
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}

func sameKind(a, b any) bool {
	return reflect.TypeOf(a) == reflect.TypeOf(b)
}

func equalValues(a, b any) bool {
	if a == nil || b == nil || !sameKind(a, b) {
		return false
	}
	if t, ok := a.(time.Time); ok {
		return t.Equal(b.(time.Time))
	}
	return reflect.DeepEqual(a, b)
}

// compareValues orders nil before everything else. Values of different
// kinds compare equal.
func compareValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch x := a.(type) {
	case float64:
		if y, ok := b.(float64); ok {
			return cmpOrdered(x, y)
		}
	case string:
		if y, ok := b.(string); ok {
			return cmpOrdered(x, y)
		}
	case time.Time:
		if y, ok := b.(time.Time); ok {
			return x.Compare(y)
		}
	}
	return 0
}

func cmpOrdered[V float64 | string](a, b V) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
