package validator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
)

// Request is what a CheckFunc can see besides the field value.
type Request struct {
	Body  map[string]any
	Param func(name string) string
}

// CheckFunc validates a value that may need the rest of the request or a
// store lookup. Rule violations are reported with Fail; any other error
// aborts validation.
type CheckFunc func(ctx context.Context, value any, req Request) error

// Failure is a rule violation raised by a CheckFunc.
type Failure struct {
	Msg string
}

func (f *Failure) Error() string { return f.Msg }

func Fail(format string, args ...any) error {
	return &Failure{Msg: fmt.Sprintf(format, args...)}
}

// Step is either a validator tag or a CheckFunc. Msg replaces the failure text.
type Step struct {
	Tag   string
	Check CheckFunc
	Msg   string
}

// Chain is the ordered rule list for one field.
type Chain struct {
	Field    string
	In       apierror.Location
	Optional bool
	Sanitize func(any) any
	Steps    []Step
}

func Body(field string) Chain {
	return Chain{Field: field, In: apierror.Body}
}

func Param(field string) Chain {
	return Chain{Field: field, In: apierror.Params}
}

func (c Chain) Opt() Chain {
	c.Optional = true
	return c
}

func (c Chain) Tag(tag, msg string) Chain {
	return c.with(Step{Tag: tag, Msg: msg})
}

func (c Chain) Required(msg string) Chain {
	return c.Tag(tagRequired, msg)
}

func (c Chain) MongoID(msg string) Chain {
	return c.Tag("objectid", msg)
}

// Numeric converts numeric strings to numbers before the remaining steps run.
func (c Chain) Numeric(msg string) Chain {
	c.Sanitize = ToNumber
	return c.Tag("numeric", msg)
}

func (c Chain) IsString(msg string) Chain {
	return c.Check(func(_ context.Context, value any, _ Request) error {
		if _, ok := value.(string); !ok {
			return Fail("must be a string")
		}
		return nil
	}, msg)
}

func (c Chain) IsArray(msg string) Chain {
	return c.Check(func(_ context.Context, value any, _ Request) error {
		if _, ok := value.([]any); !ok {
			return Fail("must be an array")
		}
		return nil
	}, msg)
}

func (c Chain) Check(fn CheckFunc, msg string) Chain {
	return c.with(Step{Check: fn, Msg: msg})
}

func (c Chain) with(step Step) Chain {
	steps := make([]Step, len(c.Steps), len(c.Steps)+1)
	copy(steps, c.Steps)
	c.Steps = append(steps, step)
	return c
}

// ToNumber parses numeric strings, leaving anything else untouched.
func ToNumber(value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return n
	}
	return value
}
