package validator

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
)

const (
	bodyKey            = "request.body"
	maxMultipartMemory = 32 << 20
)

// ParseBody decodes a JSON, urlencoded or multipart body into a field map
// stored on the context. Multipart keys ending in "[]" or repeated keys
// become lists.
func ParseBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		body := map[string]any{}

		switch c.ContentType() {
		case gin.MIMEMultipartPOSTForm:
			if err := c.Request.ParseMultipartForm(maxMultipartMemory); err != nil {
				_ = c.Error(apierror.New("Invalid multipart body", http.StatusBadRequest))
				c.Abort()
				return
			}
			mergeForm(body, c.Request.MultipartForm.Value)
		case gin.MIMEPOSTForm:
			if err := c.Request.ParseForm(); err != nil {
				_ = c.Error(apierror.New("Invalid form body", http.StatusBadRequest))
				c.Abort()
				return
			}
			mergeForm(body, c.Request.PostForm)
		default:
			if c.Request.Body != nil && c.Request.ContentLength != 0 {
				if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
					_ = c.Error(apierror.New("Invalid JSON body", http.StatusBadRequest))
					c.Abort()
					return
				}
			}
		}
		if body == nil {
			body = map[string]any{}
		}

		c.Set(bodyKey, body)
		c.Next()
	}
}

// BodyFrom returns the parsed body, creating an empty one if none was parsed.
func BodyFrom(c *gin.Context) map[string]any {
	if v, ok := c.Get(bodyKey); ok {
		if body, ok := v.(map[string]any); ok {
			return body
		}
	}
	body := map[string]any{}
	c.Set(bodyKey, body)
	return body
}

func mergeForm(body map[string]any, form map[string][]string) {
	for key, values := range form {
		name, isList := strings.CutSuffix(key, "[]")
		if !isList && len(values) == 1 {
			body[name] = values[0]
			continue
		}
		list := make([]any, 0, len(values))
		for _, v := range values {
			list = append(list, v)
		}
		if existing, ok := body[name].([]any); ok {
			list = append(existing, list...)
		}
		body[name] = list
	}
}
