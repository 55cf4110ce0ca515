package image

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/validator"
)

const jpegQuality = 95

type Field struct {
	Name string
	// MaxCount of 1 stores a single name, anything else a list.
	MaxCount int
}

type Options struct {
	// Prefix starts every generated file name, e.g. "category".
	Prefix string
	Dir    string
	Width  int
	Height int
	Fields []Field
}

type Uploader struct {
	storage Storage
	logger  logger.ZapLogger
}

func NewUploader(storage Storage, log logger.ZapLogger) *Uploader {
	return &Uploader{storage: storage, logger: log}
}

// Middleware resizes uploaded images and puts their file names in the body.
// It must run after validator.ParseBody.
func (u *Uploader) Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		form := c.Request.MultipartForm
		if form == nil {
			c.Next()
			return
		}
		body := validator.BodyFrom(c)

		for _, field := range opts.Fields {
			var files []*multipart.FileHeader
			files = append(files, form.File[field.Name]...)
			files = append(files, form.File[field.Name+"[]"]...)
			if len(files) == 0 {
				continue
			}
			if field.MaxCount > 0 && len(files) > field.MaxCount {
				_ = c.Error(apierror.New(fmt.Sprintf("Too many files for %s, max %d", field.Name, field.MaxCount), http.StatusBadRequest))
				c.Abort()
				return
			}

			names := make([]any, 0, len(files))
			for _, fh := range files {
				name, err := u.process(c.Request.Context(), fh, opts)
				if err != nil {
					_ = c.Error(err)
					c.Abort()
					return
				}
				names = append(names, name)
			}

			if field.MaxCount == 1 {
				body[field.Name] = names[0]
			} else {
				body[field.Name] = names
			}
		}
		c.Next()
	}
}

func (u *Uploader) process(ctx context.Context, fh *multipart.FileHeader, opts Options) (string, error) {
	if !strings.HasPrefix(fh.Header.Get("Content-Type"), "image/") {
		return "", apierror.New("Only images allowed", http.StatusBadRequest)
	}

	f, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", fh.Filename, err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return "", apierror.New("Invalid image file", http.StatusBadRequest)
	}
	img = imaging.Fill(img, opts.Width, opts.Height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("encode %s: %w", fh.Filename, err)
	}

	name := FileName(opts.Prefix)
	if err := u.storage.Save(ctx, opts.Dir, name, buf.Bytes()); err != nil {
		return "", err
	}
	u.logger.Debug("image stored", zap.String("dir", opts.Dir), zap.String("name", name), zap.Int("bytes", buf.Len()))
	return name, nil
}

func FileName(prefix string) string {
	return fmt.Sprintf("%s-%s-%d.jpeg", prefix, uuid.NewString(), time.Now().UnixMilli())
}
