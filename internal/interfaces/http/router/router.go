package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledgerly/backend/internal/infrastructure/config"
	"github.com/ledgerly/backend/internal/infrastructure/logger"
	"github.com/ledgerly/backend/internal/infrastructure/persistence"
	"github.com/ledgerly/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	apiVersion string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithAPIVersion sets the API version prefix (e.g., "v1", "v2")
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) {
		r.apiVersion = version
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:     engine,
		apiVersion: "v1",
		registrars: make([]RouteRegistrar, 0),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Register adds a RouteRegistrar to be registered later
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group("/api/" + r.apiVersion)

	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// NewEngine builds a gin engine with the standard middleware chain: request
// ID, structured request logging, panic recovery, CORS (answers OPTIONS
// preflight with 204), security headers, a per-request deadline and tenant
// extraction. Route registration stays with the caller via NewRouter. A nil
// db degrades /health to a plain liveness probe.
func NewEngine(cfg *config.Config, log *zap.Logger, db *persistence.Database) (*gin.Engine, error) {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	corsCfg := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	tenantCfg := middleware.DefaultTenantConfig()
	tenantCfg.AllowDevFallback = cfg.App.Env != "production"

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.CORSWithConfig(corsCfg))
	engine.Use(middleware.Secure())
	engine.Use(middleware.Timeout(cfg.HTTP.WriteTimeout))
	engine.Use(middleware.Tenant(tenantCfg))

	engine.GET("/health", healthHandler(cfg.App.Name, db))

	return engine, nil
}

// healthHandler reports liveness plus, when a database is attached, its
// reachability and connection pool usage.
func healthHandler(service string, db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{"status": "ok", "service": service}
		if db == nil {
			c.JSON(http.StatusOK, body)
			return
		}

		if err := db.Ping(); err != nil {
			body["status"] = "degraded"
			body["database"] = gin.H{"status": "down", "error": err.Error()}
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}

		dbStatus := gin.H{"status": "up"}
		if stats, err := db.Stats(); err == nil {
			dbStatus["open_connections"] = stats.OpenConnections
			dbStatus["in_use"] = stats.InUse
			dbStatus["idle"] = stats.Idle
			dbStatus["wait_count"] = stats.WaitCount
		}
		body["database"] = dbStatus
		c.JSON(http.StatusOK, body)
	}
}
