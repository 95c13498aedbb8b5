package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IdempotencyKeyHeader carries the client chosen key for a write request
const IdempotencyKeyHeader = "Idempotency-Key"

// MaxIdempotencyKeyLength bounds the header value
const MaxIdempotencyKeyLength = 255

// IdempotencyConfig holds configuration for the idempotency middleware
type IdempotencyConfig struct {
	Store  shared.IdempotencyStore
	TTL    time.Duration
	Logger *zap.Logger
}

// Idempotency rejects a write whose Idempotency-Key was already claimed within
// the TTL with 409. Keys are scoped by tenant and route. A request that ends
// without a 2xx response releases its key so the client may retry.
// Requests without the header pass through. Store failures fail open.
func Idempotency(cfg IdempotencyConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Store == nil {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > MaxIdempotencyKeyLength {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, "Idempotency-Key is too long")
			return
		}

		scoped := idempotencyScope(c) + key
		ctx := c.Request.Context()

		claimed, err := cfg.Store.MarkProcessed(ctx, scoped, cfg.TTL)
		if err != nil {
			log.Warn("Idempotency store unavailable, processing request", zap.Error(err))
			c.Next()
			return
		}
		if !claimed {
			abortWithError(c, http.StatusConflict, dto.ErrCodeDuplicateRequest, shared.ErrDuplicateRequest.Message)
			return
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			if err := cfg.Store.Release(context.WithoutCancel(ctx), scoped); err != nil {
				log.Warn("Failed to release idempotency key", zap.String("key", key), zap.Error(err))
			}
		}
	}
}

func idempotencyScope(c *gin.Context) string {
	route := c.FullPath()
	if route == "" {
		route = c.Request.URL.Path
	}
	return GetTenantID(c) + ":" + c.Request.Method + ":" + route + ":"
}
