package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind int

const (
	String Kind = iota
	Number
	Integer
	ObjectID
	Time
	StringList
	ObjectIDList
)

// Managed fields are written by the service, never taken from a request body.
const (
	FieldID        = "_id"
	FieldSlug      = "slug"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

type Field struct {
	Name    string
	Kind    Kind
	Default any
}

func (f Field) IsList() bool {
	return f.Kind == StringList || f.Kind == ObjectIDList
}

type Schema struct {
	// Resource is the singular name used in messages, e.g. "category".
	Resource string
	// Collection is the plural storage name, e.g. "categories".
	Collection string
	Fields     []Field
	// SlugFrom names the field the slug is derived from. Empty disables slugs.
	SlugFrom string
	Search   []string
	Unique   []string
	Images   []string
	ImageDir string

	byName map[string]Field
}

// New indexes the schema fields and adds the managed ones.
func New(s Schema) *Schema {
	s.byName = make(map[string]Field, len(s.Fields)+4)
	managed := []Field{
		{Name: FieldID, Kind: ObjectID},
		{Name: FieldCreatedAt, Kind: Time},
		{Name: FieldUpdatedAt, Kind: Time},
	}
	if s.SlugFrom != "" {
		managed = append(managed, Field{Name: FieldSlug, Kind: String})
	}
	for _, f := range append(managed, s.Fields...) {
		s.byName[f.Name] = f
	}
	return &s
}

func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

func IsManaged(name string) bool {
	switch name {
	case FieldID, FieldSlug, FieldCreatedAt, FieldUpdatedAt:
		return true
	}
	return false
}

// Slug derives the lowercase url slug of a name or title.
func Slug(s string) string {
	return slug.Make(s)
}

// CastQuery converts a raw query-string value into the field's stored representation.
func (s *Schema) CastQuery(name, raw string) (any, error) {
	f, ok := s.Field(name)
	if !ok {
		return nil, fmt.Errorf("unknown field %q", name)
	}
	switch f.Kind {
	case Number:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case Integer:
		n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, err
		}
		return n, nil
	case ObjectID, ObjectIDList:
		return primitive.ObjectIDFromHex(raw)
	case Time:
		return time.Parse(time.RFC3339, raw)
	default:
		return raw, nil
	}
}

// Document converts a validated request body into a storable document. Unknown
// and managed keys are dropped.
func (s *Schema) Document(body map[string]any) (map[string]any, error) {
	doc := make(map[string]any, len(body))
	for key, value := range body {
		f, ok := s.Field(key)
		if !ok || IsManaged(key) {
			continue
		}
		if value == nil {
			continue
		}
		v, err := convert(f, value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		doc[key] = v
	}
	return doc, nil
}

// Defaults returns a fresh copy of the schema default values.
func (s *Schema) Defaults() map[string]any {
	out := map[string]any{}
	for _, f := range s.Fields {
		if f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

func convert(f Field, value any) (any, error) {
	switch f.Kind {
	case Number:
		return toFloat(value)
	case Integer:
		n, err := toFloat(value)
		if err != nil {
			return nil, err
		}
		if n != math.Trunc(n) {
			return nil, fmt.Errorf("%v is not an integer", value)
		}
		return int64(n), nil
	case ObjectID:
		return toObjectID(value)
	case ObjectIDList:
		items, err := toList(value)
		if err != nil {
			return nil, err
		}
		ids := make([]primitive.ObjectID, 0, len(items))
		for _, item := range items {
			id, err := toObjectID(item)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return ids, nil
	case StringList:
		items, err := toList(value)
		if err != nil {
			return nil, err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, fmt.Sprint(item))
		}
		return out, nil
	case Time:
		switch t := value.(type) {
		case time.Time:
			return t, nil
		case string:
			return time.Parse(time.RFC3339, t)
		}
		return nil, fmt.Errorf("%v is not a time", value)
	default:
		if str, ok := value.(string); ok {
			return str, nil
		}
		return fmt.Sprint(value), nil
	}
}

func toFloat(value any) (float64, error) {
	switch n := value.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(n), 64)
	}
	return 0, fmt.Errorf("%v is not a number", value)
}

func toObjectID(value any) (primitive.ObjectID, error) {
	switch id := value.(type) {
	case primitive.ObjectID:
		return id, nil
	case string:
		return primitive.ObjectIDFromHex(id)
	}
	return primitive.NilObjectID, fmt.Errorf("%v is not an object id", value)
}

func toList(value any) ([]any, error) {
	switch l := value.(type) {
	case []any:
		return l, nil
	case []string:
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, nil
	}
	return nil, fmt.Errorf("%v is not a list", value)
}
