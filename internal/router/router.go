// Package router wires handlers and middleware onto an echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinema-booking/internal/config"
	"github.com/iliyamo/cinema-booking/internal/handler"
	"github.com/iliyamo/cinema-booking/internal/middleware"
	"github.com/iliyamo/cinema-booking/internal/model"
)

// Handlers groups the HTTP handlers served under /v1.
type Handlers struct {
	Auth         *handler.AuthHandler
	Rooms        *handler.RoomHandler
	Showtimes    *handler.ShowtimeHandler
	Transactions *handler.TransactionHandler
	Catalog      *handler.CatalogHandler
	Reports      *handler.ReportHandler
}

// Options carries what the middleware stack needs. Redis may be nil, which
// disables caching and rate limiting.
type Options struct {
	JWTSecret string
	Roles     middleware.RoleResolver
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Health    map[string]handler.Pinger
}

// Register mounts every route. Requests to /v1 are authenticated when they
// carry a bearer token, rate limited, and have their role resolved; each
// route then states which roles it accepts.
func Register(e *echo.Echo, h Handlers, opt Options) {
	RegisterRoutes(e, opt.Health)

	v1 := e.Group("/v1",
		middleware.OptionalJWT(opt.JWTSecret),
		middleware.NewTokenBucket(opt.RateLimit, opt.Redis),
		middleware.ResolveRole(opt.Roles),
	)
	cache := middleware.NewRedisCache(opt.Cache, opt.Redis)

	RegisterAuth(v1, h.Auth)
	RegisterPublic(v1, h, cache)
	RegisterBooking(v1, h.Transactions)
	RegisterStaff(v1, h)
}

// RegisterRoutes exposes the unauthenticated operational endpoints.
func RegisterRoutes(e *echo.Echo, checks map[string]handler.Pinger) {
	e.GET("/healthz", handler.Health(checks))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth mounts /v1/auth. Logout accepts either a refresh token in the
// body or a bearer token, so it needs no role.
func RegisterAuth(v1 *echo.Group, a *handler.AuthHandler) {
	g := v1.Group("/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	v1.GET("/me", a.Me, authenticated())
	v1.PUT("/me/password", a.ChangePassword, authenticated())
}

// authenticated accepts any signed-in account.
func authenticated() echo.MiddlewareFunc {
	return middleware.RequireRole(model.RoleCustomer, model.RoleStaff, model.RoleManager, model.RoleOwner)
}
