package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"yatube-backend/internal/data"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db           sqlDB
	redis        *redis.Client
	kafkaBrokers []string
	log          *zap.Logger
	checkTimeout time.Duration
}

// sqlDB is the part of *sql.DB the readiness probe needs.
type sqlDB interface {
	PingContext(ctx context.Context) error
}

// NewHealthHandler builds the probes. kafkaBrokers is empty when kafka is
// disabled, in which case the broker check is skipped.
func NewHealthHandler(db sqlDB, redisClient *redis.Client, kafkaBrokers []string, log *zap.Logger) *HealthHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &HealthHandler{
		db:           db,
		redis:        redisClient,
		kafkaBrokers: kafkaBrokers,
		log:          log,
		checkTimeout: 2 * time.Second,
	}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)
}

// Healthz reports that the process is up.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz reports whether every backing store answers.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.checkTimeout)
	defer cancel()

	checks := map[string]string{}
	if h.db == nil {
		checks["mysql"] = "not configured"
	} else if err := h.db.PingContext(ctx); err != nil {
		checks["mysql"] = err.Error()
	}
	if err := data.Ping(ctx, h.redis); err != nil {
		checks["redis"] = err.Error()
	}
	if len(h.kafkaBrokers) > 0 {
		if err := checkKafka(ctx, h.kafkaBrokers); err != nil {
			checks["kafka"] = err.Error()
		}
	}

	if len(checks) > 0 {
		h.log.Warn("readiness check failed", zap.Any("checks", checks))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "fail",
			"checks": checks,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// checkKafka succeeds when any broker accepts a TCP connection.
func checkKafka(ctx context.Context, brokers []string) error {
	if len(brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	dialer := net.Dialer{Timeout: time.Second}
	var lastErr error
	for _, broker := range brokers {
		conn, err := dialer.DialContext(ctx, "tcp", broker)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		lastErr = err
	}
	return lastErr
}
