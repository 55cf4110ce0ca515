package validator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
)

const tagRequired = "required"

var (
	errRequired = errors.New("value is required")
	errMissing  = errors.New("value is missing")
)

// Engine evaluates rule chains against path params and the request body.
type Engine struct {
	validate *validator.Validate
}

func New() *Engine {
	v := validator.New()
	_ = v.RegisterValidation("integral", isIntegral)
	_ = v.RegisterValidation("objectid", isObjectID)
	return &Engine{validate: v}
}

// Run reports at most one error per chain, from its first failing step.
// Sanitized body values are written back into the body. The error result is
// set only when a check could not be evaluated.
func (e *Engine) Run(ctx context.Context, chains []Chain, req Request) ([]apierror.FieldError, error) {
	var errs []apierror.FieldError
	for _, chain := range chains {
		value, present := lookup(chain, req)
		if !present && chain.Optional {
			continue
		}
		if present && chain.Sanitize != nil {
			value = chain.Sanitize(value)
			if chain.In == apierror.Body {
				req.Body[chain.Field] = value
			}
		}

		for _, step := range chain.Steps {
			msg, err := e.runStep(ctx, step, value, present, req)
			if err != nil {
				return nil, err
			}
			if msg == "" {
				continue
			}
			errs = append(errs, apierror.FieldError{
				Field:    chain.Field,
				Location: chain.In,
				Value:    value,
				Msg:      msg,
			})
			break
		}
	}
	return errs, nil
}

// Middleware aborts with a validation error before the handler runs.
func (e *Engine) Middleware(chains ...Chain) gin.HandlerFunc {
	return func(c *gin.Context) {
		errs, err := e.Run(c.Request.Context(), chains, Request{Body: BodyFrom(c), Param: c.Param})
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if len(errs) > 0 {
			_ = c.Error(apierror.NewValidation(errs...))
			c.Abort()
			return
		}
		c.Next()
	}
}

// runStep returns the failure message of step, empty when it passes.
func (e *Engine) runStep(ctx context.Context, step Step, value any, present bool, req Request) (string, error) {
	var failure error
	switch {
	case step.Check != nil:
		err := step.Check(ctx, value, req)
		var f *Failure
		if err != nil && !errors.As(err, &f) {
			return "", err
		}
		failure = err
	case step.Tag == tagRequired:
		if isEmpty(value) {
			failure = errRequired
		}
	case !present:
		failure = errMissing
	default:
		failure = e.varCtx(ctx, value, step.Tag)
	}

	if failure == nil {
		return "", nil
	}
	if step.Msg != "" {
		return step.Msg, nil
	}
	return failure.Error(), nil
}

// varCtx reports a tag that panics on the value's kind as a plain failure.
func (e *Engine) varCtx(ctx context.Context, value any, tag string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid value for %s", tag)
		}
	}()
	return e.validate.VarCtx(ctx, value, tag)
}

func lookup(chain Chain, req Request) (any, bool) {
	if chain.In == apierror.Params {
		if req.Param == nil {
			return "", false
		}
		v := req.Param(chain.Field)
		return v, v != ""
	}
	v, ok := req.Body[chain.Field]
	return v, ok && v != nil
}

func isEmpty(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	}
	return false
}

func isIntegral(fl validator.FieldLevel) bool {
	field := fl.Field()
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		f := field.Float()
		return f == math.Trunc(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func isObjectID(fl validator.FieldLevel) bool {
	field := fl.Field()
	return field.Kind() == reflect.String && primitive.IsValidObjectID(field.String())
}
