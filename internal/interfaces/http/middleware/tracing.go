package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Limits applied to header values copied into span attributes
const (
	MaxRequestIDLength = 128
	MaxTenantIDLength  = 64
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "pos-inventory",
		Enabled:     true,
	}
}

// Tracing returns OpenTelemetry tracing middleware with default configuration.
func Tracing() gin.HandlerFunc {
	return TracingWithConfig(DefaultTracingConfig())
}

// TracingWithConfig starts a server span per request through otelgin. Span
// names follow the route pattern, e.g. "POST /api/v1/inventory/stock-in".
// Register SpanAttributes after it to attach request identity.
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// SpanAttributes enriches the active request span with request_id, tenant_id
// and user_id, then marks it as failed for 4xx and 5xx responses. The failure
// class is also kept in http.error_class because otelgin resets the status
// description of 5xx spans after this handler returns.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		if requestID := GetRequestID(c); requestID != "" {
			span.SetAttributes(attribute.String("request_id", requestID))
		}
		if tenantID := headerUUID(c, TenantHeaderKey); tenantID != "" {
			span.SetAttributes(attribute.String("tenant_id", tenantID))
		}
		if userID := headerUUID(c, UserHeaderKey); userID != "" {
			span.SetAttributes(attribute.String("user_id", userID))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		message := "Client Error"
		switch {
		case status >= http.StatusInternalServerError:
			message = "Internal Server Error"
		case status == http.StatusNotFound:
			message = "Not Found"
		case status == http.StatusConflict:
			message = "Conflict"
		}
		span.SetStatus(codes.Error, message)
		span.SetAttributes(
			attribute.Int("http.status_code", status),
			attribute.String("http.error_class", message),
		)
	}
}

// headerUUID returns the header value only when it is a well-formed UUID so
// arbitrary client input never reaches span attributes.
func headerUUID(c *gin.Context, header string) string {
	v := c.GetHeader(header)
	if v == "" || len(v) > MaxTenantIDLength {
		return ""
	}
	if _, err := uuid.Parse(v); err != nil {
		return ""
	}
	return v
}
