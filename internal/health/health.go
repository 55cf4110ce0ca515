package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/fekuna/omnipos-catalog-service/internal/logger"
	"github.com/fekuna/omnipos-catalog-service/internal/store"
)

const (
	ServiceName = "omnipos.catalog"
	pingTimeout = 2 * time.Second
)

// Checker mirrors store reachability into the gRPC health service.
type Checker struct {
	pinger   store.Pinger
	server   *grpchealth.Server
	interval time.Duration
	logger   logger.ZapLogger
}

func NewChecker(pinger store.Pinger, interval time.Duration, log logger.ZapLogger) *Checker {
	return &Checker{
		pinger:   pinger,
		server:   grpchealth.NewServer(),
		interval: interval,
		logger:   log,
	}
}

// Server is registered on the gRPC server with healthpb.RegisterHealthServer.
func (c *Checker) Server() *grpchealth.Server {
	return c.server
}

// Check pings the store once and publishes the result.
func (c *Checker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	err := c.pinger.Ping(ctx)
	if err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		c.logger.Warn("store ping failed", zap.Error(err))
	}
	c.server.SetServingStatus("", status)
	c.server.SetServingStatus(ServiceName, status)
	return err
}

// Run checks on every interval until ctx is cancelled.
func (c *Checker) Run(ctx context.Context) {
	_ = c.Check(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			c.server.Shutdown()
			return
		case <-ticker.C:
			_ = c.Check(ctx)
		}
	}
}

func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if err := c.Check(ctx.Request.Context()); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
