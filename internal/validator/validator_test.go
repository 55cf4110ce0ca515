package validator_test

import (
	"bytes"
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

func noParams(string) string { return "" }

func run(t *testing.T, engine *validator.Engine, chains []validator.Chain, param func(string) string, body map[string]any) []apierror.FieldError {
	t.Helper()
	errs, err := engine.Run(context.Background(), chains, validator.Request{Body: body, Param: param})
	require.NoError(t, err)
	return errs
}

func TestRunStopsAtFirstFailingStep(t *testing.T) {
	engine := validator.New()
	chains := []validator.Chain{
		validator.Body("name").
			Required("Category required").
			Tag("min=3", "Too short category name").
			Tag("max=32", "Too long category name"),
	}

	tests := []struct {
		name string
		body map[string]any
		want []string
	}{
		{"missing", map[string]any{}, []string{"Category required"}},
		{"blank", map[string]any{"name": "   "}, []string{"Category required"}},
		{"too short", map[string]any{"name": "ab"}, []string{"Too short category name"}},
		{"too long", map[string]any{"name": strings.Repeat("x", 33)}, []string{"Too long category name"}},
		{"ok", map[string]any{"name": "Men Fashion"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := run(t, engine, chains, noParams, tt.body)
			var msgs []string
			for _, e := range errs {
				msgs = append(msgs, e.Msg)
			}
			assert.Equal(t, tt.want, msgs)
		})
	}
}

func TestRunRejectsNonStringValues(t *testing.T) {
	engine := validator.New()
	chains := []validator.Chain{
		validator.Body("name").
			Required("Category required").
			IsString("Category name must be a string").
			Tag("min=3", "Too short category name"),
	}

	for _, value := range []any{5.0, true, []any{"a", "b", "c"}, map[string]any{"x": "yz"}} {
		errs := run(t, engine, chains, noParams, map[string]any{"name": value})
		require.Len(t, errs, 1, "value %v", value)
		assert.Equal(t, "Category name must be a string", errs[0].Msg)
	}
}

func TestRunTagOnUnsupportedKind(t *testing.T) {
	engine := validator.New()
	chains := []validator.Chain{
		validator.Body("name").Tag("min=3", "Too short category name"),
	}

	var errs []apierror.FieldError
	assert.NotPanics(t, func() {
		errs = run(t, engine, chains, noParams, map[string]any{"name": true})
	})
	require.Len(t, errs, 1)
	assert.Equal(t, "Too short category name", errs[0].Msg)
}

func TestRunOptionalAndNumeric(t *testing.T) {
	engine := validator.New()
	chains := []validator.Chain{
		validator.Body("quantity").
			Required("Product quantity is required").
			Numeric("Product quantity must be a number").
			Tag("integral", "Product quantity must be an integer").
			Tag("gte=0", "Product quantity must be positive"),
		validator.Body("ratingsAverage").Opt().
			Numeric("ratingsAverage must be a number").
			Tag("gte=1", "Rating must be above or equal 1.0").
			Tag("lte=5", "Rating must be below or equal 5.0"),
	}

	body := map[string]any{"quantity": "12"}
	assert.Empty(t, run(t, engine, chains, noParams, body))
	assert.Equal(t, 12.0, body["quantity"])

	errs := run(t, engine, chains, noParams, map[string]any{"quantity": 1.5, "ratingsAverage": 7.0})
	require.Len(t, errs, 2)
	assert.Equal(t, "Product quantity must be an integer", errs[0].Msg)
	assert.Equal(t, "Rating must be below or equal 5.0", errs[1].Msg)

	errs = run(t, engine, chains, noParams, map[string]any{"quantity": "many"})
	require.Len(t, errs, 1)
	assert.Equal(t, "Product quantity must be a number", errs[0].Msg)
	assert.Equal(t, "many", errs[0].Value)
}

func TestRunParamsArraysAndChecks(t *testing.T) {
	engine := validator.New()
	chains := []validator.Chain{
		validator.Param("id").MongoID("Invalid category id format"),
		validator.Body("colors").Opt().IsArray("colors should be an array of strings"),
		validator.Body("subcategories").Opt().
			IsArray("subcategories should be an array").
			Tag("dive,objectid", "Invalid Id format"),
		validator.Body("category").
			Check(func(ctx context.Context, value any, req validator.Request) error {
				return validator.Fail("No category for this id: %v", value)
			}, ""),
	}

	params := func(name string) string { return map[string]string{"id": "nope"}[name] }
	errs := run(t, engine, chains, params, map[string]any{
		"colors":        "red",
		"subcategories": []any{"5f8d0d55b54764421b7156c9", "bad"},
		"category":      "5f8d0d55b54764421b7156c9",
	})

	require.Len(t, errs, 4)
	assert.Equal(t, apierror.FieldError{Field: "id", Location: apierror.Params, Value: "nope", Msg: "Invalid category id format"}, errs[0])
	assert.Equal(t, "colors should be an array of strings", errs[1].Msg)
	assert.Equal(t, "Invalid Id format", errs[2].Msg)
	assert.Equal(t, "No category for this id: 5f8d0d55b54764421b7156c9", errs[3].Msg)
}

func TestRunCheckInfrastructureError(t *testing.T) {
	boom := errors.New("connection refused")
	chains := []validator.Chain{
		validator.Body("category").Check(func(context.Context, any, validator.Request) error {
			return boom
		}, "No category"),
	}

	errs, err := validator.New().Run(context.Background(), chains, validator.Request{Body: map[string]any{"category": "x"}})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, errs)
}

func TestChainBuilderDoesNotAlias(t *testing.T) {
	base := validator.Body("name").Required("required")
	a := base.Tag("min=3", "a")
	b := base.Tag("min=5", "b")

	assert.Len(t, base.Steps, 1)
	assert.Equal(t, "a", a.Steps[1].Msg)
	assert.Equal(t, "b", b.Steps[1].Msg)
}

func newRouter(chains ...validator.Chain) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := apierror.NewHandler(nopLogger(), true)
	r := gin.New()
	r.Use(h.Middleware())
	r.POST("/items/:id", validator.ParseBody(), validator.New().Middleware(chains...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": validator.BodyFrom(c)})
	})
	return r
}

func TestMiddlewareJSON(t *testing.T) {
	r := newRouter(validator.Body("name").Required("Category required"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items/1", strings.NewReader(`{"name":""}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Category required")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/items/1", strings.NewReader(`{"name":"Shoes"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"name":"Shoes"}}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/items/1", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON body")
}

func TestMiddlewareMultipart(t *testing.T) {
	r := newRouter(
		validator.Body("price").Numeric("price must be a number"),
		validator.Body("colors").IsArray("colors should be an array"),
	)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("price", "19.99"))
	require.NoError(t, mw.WriteField("colors[]", "red"))
	require.NoError(t, mw.WriteField("colors[]", "blue"))
	require.NoError(t, mw.Close())

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/items/1", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"data":{"price":19.99,"colors":["red","blue"]}}`, w.Body.String())
}
