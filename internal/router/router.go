package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/restaurant-table-orders/internal/config"
	"github.com/iliyamo/restaurant-table-orders/internal/handler"
	"github.com/iliyamo/restaurant-table-orders/internal/middleware"
)

// Handlers bundles everything route registration needs.
type Handlers struct {
	Orders      *handler.OrderHandler
	Settlements *handler.SettlementHandler
	Tables      *handler.TableHandler
}

// RegisterRoutes wires the public surface: the health check and the
// authenticated /v1 API. Every /v1 endpoint requires a staff JWT; the
// write endpoints are additionally rate-limited, and the read-only
// table views go through the Redis response cache when one is
// configured.
func RegisterRoutes(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	v1 := e.Group("/v1")
	v1.Use(middleware.JWTAuth(jwtSecret))
	v1.Use(middleware.RequireRole("ADMIN", "MANAGER", "CASHIER", "WAITER"))

	var cached, limited echo.MiddlewareFunc
	if rdb != nil {
		cached = middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
		limited = middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	}

	// Read endpoints. The table list and detail views change rarely
	// enough for a short cache TTL to be safe.
	registerGET(v1, "/tables", h.Tables.List, cached)
	registerGET(v1, "/tables/:id", h.Tables.Get, cached)
	v1.GET("/orders/:id", h.Orders.Get)
	v1.GET("/receipts/:number", h.Settlements.GetReceipt)

	// Write endpoints. Never cached; rate-limited per user when Redis
	// is available.
	registerPOST(v1, "/orders/:id/modify", h.Orders.Modify, limited)
	registerPOST(v1, "/orders/:id/status", h.Orders.UpdateStatus, limited)
	registerPOST(v1, "/tables/:id/settle", h.Settlements.Settle, limited)
	registerPOST(v1, "/tables/:id/reconcile", h.Tables.Reconcile, limited)
	v1.PATCH("/tables/:id/status", h.Tables.SetStatus)

	// Management endpoints, restricted to the manager roles.
	admin := e.Group("/v1/admin")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole("ADMIN", "MANAGER"))
	admin.POST("/occupancy-sweep", h.Tables.Sweep)
	admin.POST("/tables", h.Tables.Create)
	admin.POST("/receipt-sequence", h.Settlements.NextReceipt)
}

func registerGET(g *echo.Group, path string, fn echo.HandlerFunc, mw echo.MiddlewareFunc) {
	if mw != nil {
		g.GET(path, fn, mw)
		return
	}
	g.GET(path, fn)
}

func registerPOST(g *echo.Group, path string, fn echo.HandlerFunc, mw echo.MiddlewareFunc) {
	if mw != nil {
		g.POST(path, fn, mw)
		return
	}
	g.POST(path, fn)
}
