package apierror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-catalog-service/internal/logger"
)

const internalMessage = "Something went wrong"

// Handler renders the first error attached to the gin context.
type Handler struct {
	logger     logger.ZapLogger
	production bool
}

func NewHandler(log logger.ZapLogger, production bool) *Handler {
	return &Handler{logger: log, production: production}
}

// Middleware must run before the route handlers so it sees their errors.
func (h *Handler) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		h.Render(c, c.Errors[0].Err)
	}
}

// Recovery turns a panic into a 500 response.
func (h *Handler) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				err, ok := r.(error)
				if !ok {
					err = fmt.Errorf("panic: %v", r)
				}
				h.logger.Error("panic recovered", zap.Any("panic", r), zap.Stack("stack"))
				h.Render(c, err)
				c.Abort()
			}
		}()
		c.Next()
	}
}

func (h *Handler) NoRoute() gin.HandlerFunc {
	return func(c *gin.Context) {
		h.Render(c, RouteNotFound(c.Request.URL.String()))
	}
}

func (h *Handler) Render(c *gin.Context, err error) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		c.AbortWithStatusJSON(http.StatusBadRequest, validationErr)
		return
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		body := gin.H{"status": apiErr.Status(), "message": apiErr.Message}
		if !h.production && apiErr.StatusCode >= http.StatusInternalServerError {
			body["stack"] = fmt.Sprintf("%+v", err)
		}
		c.AbortWithStatusJSON(apiErr.StatusCode, body)
		return
	}

	h.logger.Error("unhandled error",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)

	if h.production {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"status": "error", "message": internalMessage})
		return
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
		"status":  "error",
		"message": err.Error(),
		"error":   err.Error(),
		"stack":   fmt.Sprintf("%+v", err),
	})
}
