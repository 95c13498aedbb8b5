package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/pos/internal/infrastructure/auth"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Keys under which the caller identity is stored in gin.Context
const (
	TenantIDKey     = "tenant_id"
	UserIDKey       = "user_id"
	TenantHeaderKey = logger.HeaderTenantID
	UserHeaderKey   = logger.HeaderUserID
)

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Required determines if tenant context is mandatory
	Required bool
	// Verifier, when set, switches identity to the Authorization bearer
	// token; X-Tenant-ID and X-User-ID headers are then ignored.
	Verifier TokenVerifier
	Logger   *zap.Logger
}

// TokenVerifier validates a bearer token and returns its claims
type TokenVerifier interface {
	ValidateAccessToken(tokenString string) (*auth.Claims, error)
}

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
)

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/api/v1/health", "/swagger"},
		Required:  true,
	}
}

// TenantMiddleware extracts tenant and user identity from request headers
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration.
// X-Tenant-ID must be a UUID; X-User-ID is optional but must be a UUID when sent.
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		if cfg.Verifier != nil {
			identifyFromToken(c, cfg)
			return
		}

		tenantID := c.GetHeader(TenantHeaderKey)
		if tenantID == "" {
			if cfg.Required {
				abortWithError(c, http.StatusBadRequest, dto.ErrCodeTenantRequired, "Tenant identification required")
				return
			}
			c.Next()
			return
		}
		if _, err := uuid.Parse(tenantID); err != nil {
			abortWithError(c, http.StatusBadRequest, dto.ErrCodeInvalidTenant, "Invalid tenant ID format")
			return
		}

		userID := c.GetHeader(UserHeaderKey)
		if userID != "" {
			if _, err := uuid.Parse(userID); err != nil {
				abortWithError(c, http.StatusBadRequest, "ERR_INVALID_USER", "Invalid user ID format")
				return
			}
		}
		setIdentity(c, cfg, tenantID, userID)
		c.Next()
	}
}

func identifyFromToken(c *gin.Context, cfg TenantMiddlewareConfig) {
	header := c.GetHeader(AuthorizationHeader)
	if header == "" {
		abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authorization header is required")
		return
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid authorization header format")
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
	if token == "" {
		abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Token is required")
		return
	}

	claims, err := cfg.Verifier.ValidateAccessToken(token)
	if err != nil {
		if cfg.Logger != nil {
			cfg.Logger.Debug("Bearer token rejected", zap.Error(err))
		}
		if errors.Is(err, auth.ErrExpiredToken) {
			abortWithError(c, http.StatusUnauthorized, dto.ErrCodeTokenExpired, "Token has expired")
			return
		}
		abortWithError(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Invalid token")
		return
	}

	setIdentity(c, cfg, claims.TenantID, claims.UserID)
	c.Next()
}

func setIdentity(c *gin.Context, cfg TenantMiddlewareConfig, tenantID, userID string) {
	c.Set(TenantIDKey, tenantID)
	if userID != "" {
		c.Set(UserIDKey, userID)
	}

	ctx := logger.WithTenantID(c.Request.Context(), tenantID)
	if userID != "" {
		ctx = logger.WithUserID(ctx, userID)
	}
	c.Request = c.Request.WithContext(ctx)

	if cfg.Logger != nil {
		cfg.Logger.Debug("Tenant identified", zap.String("tenant_id", tenantID))
	}
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	return c.GetString(TenantIDKey)
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// GetUserID retrieves the acting user ID from gin.Context
func GetUserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
