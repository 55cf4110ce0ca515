package server

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/fekuna/omnipos-catalog-service/config"
	"github.com/fekuna/omnipos-catalog-service/internal/apierror"
	"github.com/fekuna/omnipos-catalog-service/internal/logger"
)

const APIPrefix = "/api/v1"

// Registrar mounts a resource's routes under the API prefix.
type Registrar interface {
	Register(rg *gin.RouterGroup)
}

type RouterOptions struct {
	Production bool
	// UploadDir holds one directory per entry of ImageDirs, each served at
	// /<dir>. Empty disables static serving.
	UploadDir string
	ImageDirs []string
	Health    gin.HandlerFunc
}

func NewRouter(opts RouterOptions, log logger.ZapLogger, registrars ...Registrar) *gin.Engine {
	if opts.Production {
		gin.SetMode(gin.ReleaseMode)
	}
	errs := apierror.NewHandler(log, opts.Production)

	r := gin.New()
	r.Use(RequestID(), RequestLogger(log), errs.Recovery(), errs.Middleware())
	r.NoRoute(errs.NoRoute())

	if opts.Health != nil {
		r.GET("/healthz", opts.Health)
	}
	if opts.UploadDir != "" {
		for _, dir := range opts.ImageDirs {
			r.Static("/"+dir, filepath.Join(opts.UploadDir, dir))
		}
	}

	api := r.Group(APIPrefix)
	for _, reg := range registrars {
		reg.Register(api)
	}
	return r
}

func NewHTTPServer(cfg config.ServerConfig, handler http.Handler) *http.Server {
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", HeaderRequestID},
		ExposedHeaders: []string{HeaderRequestID},
	})

	return &http.Server{
		Addr:         cfg.HTTPPort,
		Handler:      c.Handler(handler),
		IdleTimeout:  time.Minute,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}
