package apierror_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
)

func newRouter(production bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := apierror.NewHandler(logger.NewNop(), production)

	r := gin.New()
	r.Use(h.Recovery(), h.Middleware())
	r.NoRoute(h.NoRoute())
	r.GET("/validation", func(c *gin.Context) {
		_ = c.Error(apierror.NewValidation(apierror.FieldError{
			Field: "name", Location: apierror.Body, Value: "ab", Msg: "Too short category name",
		}))
	})
	r.GET("/missing/:id", func(c *gin.Context) {
		_ = c.Error(apierror.NotFound("category", c.Param("id")))
	})
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(pkgerrors.New("database exploded"))
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("unexpected")
	})
	return r
}

func do(t *testing.T, r http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestValidationError(t *testing.T) {
	w, body := do(t, newRouter(true), "/validation")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs := body["errors"].([]any)
	require.Len(t, errs, 1)
	first := errs[0].(map[string]any)
	assert.Equal(t, "name", first["field"])
	assert.Equal(t, "body", first["location"])
	assert.Equal(t, "Too short category name", first["msg"])
}

func TestNotFound(t *testing.T) {
	w, body := do(t, newRouter(true), "/missing/abc")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "fail", body["status"])
	assert.Equal(t, "No category for this id abc", body["message"])
}

func TestUnknownRoute(t *testing.T) {
	w, body := do(t, newRouter(true), "/api/v1/nothing?x=1")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Can't find this route: /api/v1/nothing?x=1", body["message"])
}

func TestUnhandledErrorHidesDetailsInProduction(t *testing.T) {
	w, body := do(t, newRouter(true), "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "Something went wrong", body["message"])
	assert.NotContains(t, body, "stack")
}

func TestUnhandledErrorShowsStackInDevelopment(t *testing.T) {
	w, body := do(t, newRouter(false), "/boom")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "database exploded", body["message"])
	assert.Contains(t, body["stack"], "middleware_test.go")
}

func TestPanicRecovered(t *testing.T) {
	w, body := do(t, newRouter(true), "/panic")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "error", body["status"])
}
