// Package router registers the HTTP routes of the API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/rateshop/internal/config"
	"github.com/iliyamo/rateshop/internal/handler"
	"github.com/iliyamo/rateshop/internal/middleware"
)

// Handlers groups the route targets.
type Handlers struct {
	Tenant          *handler.TenantHandler
	Recommendations *handler.RecommendationHandler
	Admin           *handler.AdminHandler
}

// Options carries what the /v1 middleware chain needs.  Redis may be nil,
// which disables rate limiting and response caching.
type Options struct {
	JWTSecret string
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
	Redis     *redis.Client
	Log       logrus.FieldLogger
}

// RegisterRoutes registers the unauthenticated endpoints.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAPI registers the tenant API under /v1.  Every route requires a
// valid JWT; the limiter keys on the tenant, so it runs after auth.
func RegisterAPI(e *echo.Echo, h Handlers, opts Options) {
	g := e.Group("/v1",
		middleware.JWTAuth(opts.JWTSecret),
		middleware.NewTokenBucket(opts.RateLimit, opts.Redis, opts.Log),
	)

	g.POST("/scans", h.Tenant.Scan)
	g.GET("/rates", h.Tenant.Rates, middleware.NewRedisCache(opts.Cache, opts.Redis, opts.Log))
	g.GET("/hotels/search", h.Tenant.SearchHotels)
	g.GET("/usage", h.Tenant.Usage)
	g.PUT("/own-rates", h.Tenant.PutOwnRate)

	g.GET("/recommendations", h.Recommendations.List)
	g.POST("/recommendations/:id/accept", h.Recommendations.Accept)
	g.POST("/recommendations/:id/reject", h.Recommendations.Reject)

	admin := g.Group("/admin", middleware.RequireRole(middleware.RoleAdmin))
	admin.PUT("/safe-mode", h.Admin.SetSafeMode)
}
