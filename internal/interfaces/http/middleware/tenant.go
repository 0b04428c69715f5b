package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/interfaces/http/dto"
)

const (
	// TenantIDKey is the gin context key holding the resolved tenant ID
	TenantIDKey = "tenant_id"
	// TenantHeaderKey is the request header carrying the tenant ID
	TenantHeaderKey = "X-Tenant-ID"
)

// DefaultDevTenantID is used when no tenant header is present and the
// middleware runs with a fallback enabled. Only meant for local development.
var DefaultDevTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// TenantConfig holds tenant middleware configuration
type TenantConfig struct {
	// SkipPaths are paths that don't require tenant context. The account
	// resolver resolves across tenants and must stay on this list.
	SkipPaths []string
	// SkipPathPrefixes skip whole route subtrees, such as the tenant
	// administration endpoints that exist above any single tenant.
	SkipPathPrefixes []string
	// AllowDevFallback substitutes DefaultDevTenantID when the header is
	// missing instead of rejecting the request
	AllowDevFallback bool
}

// DefaultTenantConfig returns the default tenant middleware configuration
func DefaultTenantConfig() TenantConfig {
	return TenantConfig{
		SkipPaths: []string{
			"/health",
			"/api/v1/auth/resolve-account",
		},
		SkipPathPrefixes: []string{
			"/api/v1/tenants",
		},
		AllowDevFallback: false,
	}
}

// Tenant extracts the tenant ID from the X-Tenant-ID header and stores it in
// the gin context and the request context. Requests without a valid tenant
// are rejected unless the path is skipped or the dev fallback is enabled.
func Tenant(cfg TenantConfig) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if _, ok := skip[path]; ok {
			c.Next()
			return
		}
		for _, prefix := range cfg.SkipPathPrefixes {
			if strings.HasPrefix(path, prefix) {
				c.Next()
				return
			}
		}

		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			if !cfg.AllowDevFallback {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
					dto.ErrCodeBadRequest, "Missing X-Tenant-ID header"))
				return
			}
			raw = DefaultDevTenantID.String()
		}

		tenantID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.ErrCodeBadRequest, "Invalid X-Tenant-ID header"))
			return
		}

		c.Set(TenantIDKey, tenantID.String())

		ctx, _ := logger.WithTenantID(c.Request.Context(), logger.FromContext(c.Request.Context()), tenantID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetTenantID returns the tenant ID stored by the Tenant middleware.
// Returns uuid.Nil and false when no tenant context is present.
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(TenantIDKey)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
