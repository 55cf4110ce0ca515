package query

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/fekuna/omnipos-catalog-service/internal/schema"
)

const (
	DefaultPage  = 1
	DefaultLimit = 5
)

var (
	reserved   = map[string]bool{"page": true, "limit": true, "sort": true, "fields": true, "keyword": true}
	operatorRe = regexp.MustCompile(`^([^\[\]]+)\[([a-z]+)\]$`)
)

type PaginationResult struct {
	CurrentPage   int64  `json:"currentPage"`
	Limit         int64  `json:"limit"`
	NumberOfPages int64  `json:"numberOfPages"`
	Next          *int64 `json:"next,omitempty"`
	Previous      *int64 `json:"previous,omitempty"`
}

// CastError reports a filter value that cannot be converted to its field kind.
type CastError struct {
	Field string
	Value string
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("invalid value %q for %s: %v", e.Value, e.Field, e.Err)
}

func (e *CastError) Unwrap() error { return e.Err }

// Features turns request query parameters into a Spec. The steps may be
// applied in any order; each one only touches its own part of the Spec.
type Features struct {
	params     url.Values
	schema     *schema.Schema
	spec       Spec
	pagination PaginationResult
	err        error
}

func New(params url.Values, s *schema.Schema) *Features {
	return &Features{params: params, schema: s}
}

// Where adds route-supplied conditions, e.g. the parent id of a nested route.
func (f *Features) Where(conds ...Condition) *Features {
	f.spec.Conditions = append(f.spec.Conditions, conds...)
	return f
}

func (f *Features) Filter() *Features {
	keys := make([]string, 0, len(f.params))
	for key := range f.params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if reserved[key] {
			continue
		}
		field, op := key, Eq
		if m := operatorRe.FindStringSubmatch(key); m != nil {
			o, ok := operators[m[2]]
			if !ok {
				continue
			}
			field, op = m[1], o
		}
		if reserved[field] {
			continue
		}
		if _, ok := f.schema.Field(field); !ok {
			continue
		}

		values := f.params[key]
		if len(values) == 0 {
			continue
		}
		if op == In {
			values = splitList(values)
		} else if op == Eq && len(values) > 1 {
			op = In
		} else {
			values = values[len(values)-1:]
		}

		cast := make([]any, 0, len(values))
		for _, raw := range values {
			v, err := f.schema.CastQuery(field, raw)
			if err != nil {
				if f.err == nil {
					f.err = &CastError{Field: field, Value: raw, Err: err}
				}
				return f
			}
			cast = append(cast, v)
		}

		if op == In {
			f.spec.Conditions = append(f.spec.Conditions, Where(field, In, cast))
		} else {
			f.spec.Conditions = append(f.spec.Conditions, Where(field, op, cast[0]))
		}
	}
	return f
}

// Paginate needs the number of documents matching the filter.
func (f *Features) Paginate(total int64) *Features {
	page := positiveInt(f.params.Get("page"), DefaultPage)
	limit := positiveInt(f.params.Get("limit"), DefaultLimit)

	// pages past the end skip everything; (page-1)*limit cannot overflow below that bound
	skip := total
	if page-1 <= total/limit {
		skip = (page - 1) * limit
	}
	pages := total / limit
	if total%limit != 0 {
		pages++
	}

	f.spec.Skip = skip
	f.spec.Limit = limit

	result := PaginationResult{
		CurrentPage:   page,
		Limit:         limit,
		NumberOfPages: pages,
	}
	if limit < total-skip {
		next := page + 1
		result.Next = &next
	}
	if page > 1 {
		previous := page - 1
		result.Previous = &previous
	}
	f.pagination = result
	return f
}

func (f *Features) Sort() *Features {
	raw := f.params.Get("sort")
	if raw == "" {
		return f
	}
	for _, token := range splitTokens(raw) {
		desc := strings.HasPrefix(token, "-")
		name := strings.TrimLeft(token, "-+")
		if _, ok := f.schema.Field(name); !ok {
			continue
		}
		f.spec.Sort = append(f.spec.Sort, SortField{Field: name, Desc: desc})
	}
	return f
}

func (f *Features) LimitFields() *Features {
	raw := f.params.Get("fields")
	if raw == "" {
		return f
	}
	var include, exclude []string
	for _, token := range splitTokens(raw) {
		if name, ok := strings.CutPrefix(token, "-"); ok {
			if _, known := f.schema.Field(name); known {
				exclude = append(exclude, name)
			}
			continue
		}
		if _, known := f.schema.Field(token); known {
			include = append(include, token)
		}
	}
	switch {
	case len(include) > 0:
		f.spec.Projection = &Projection{Fields: include}
	case len(exclude) > 0:
		f.spec.Projection = &Projection{Fields: exclude, Exclude: true}
	}
	return f
}

func (f *Features) Search() *Features {
	keyword := f.params.Get("keyword")
	if keyword == "" || len(f.schema.Search) == 0 {
		return f
	}
	f.spec.Search = &Search{Fields: f.schema.Search, Keyword: keyword}
	return f
}

func (f *Features) Spec() Spec {
	return f.spec
}

func (f *Features) PaginationResult() PaginationResult {
	return f.pagination
}

// Err returns the first cast failure seen by Filter.
func (f *Features) Err() error {
	return f.err
}

func positiveInt(raw string, fallback int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func splitTokens(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, item := range strings.Split(v, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}
