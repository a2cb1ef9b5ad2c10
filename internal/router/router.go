// Package router wires HTTP routes to handlers and applies the middleware
// chain: JWT authentication and rate limiting on the API group, response
// caching on the seat-map read.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/fitgrid/studio-reservation/internal/config"
	"github.com/fitgrid/studio-reservation/internal/handler"
	"github.com/fitgrid/studio-reservation/internal/middleware"
)

// RegisterRoutes registers the unauthenticated routes. Only the health
// check lives here; everything else requires a token.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAPI registers the protected API under /v1. The rdb client may be
// nil, in which case rate limiting and caching quietly disable themselves.
func RegisterAPI(e *echo.Echo, h *handler.Handler, jwtSecret string, rdb *redis.Client) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	admin := middleware.RequireRole("admin", "staff")

	// Studio and seat administration.
	g.POST("/studios", h.CreateStudio, admin)
	g.GET("/studios/:id", h.GetStudio)
	g.PUT("/studios/:id", h.UpdateStudio, admin)
	g.GET("/studios/:id/seats", h.ListSeats)
	g.POST("/studios/:id/seats/regenerate", h.RegenerateSeats, admin)
	g.DELETE("/seats/:id", h.DeleteSeat, admin)

	// Occurrence lifecycle.
	g.POST("/occurrences", h.CreateOccurrence, admin)
	g.GET("/occurrences/:id", h.GetOccurrence)
	g.PATCH("/occurrences/:id", h.UpdateOccurrence, admin)
	g.POST("/occurrences/:id/cancel", h.CancelOccurrence, admin)
	g.PUT("/occurrences/:id/studio", h.ReassignStudio, admin)
	g.POST("/occurrences/:id/inventory", h.BuildInventory, admin)
	g.POST("/occurrences/:id/inventory/regenerate", h.RegenerateInventory, admin)

	// Seat map is the hot read; cache it briefly.
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	g.GET("/occurrences/:id/seat-map", h.SeatMap, cache)

	// Booking flow.
	g.POST("/occurrences/:id/reserve", h.Reserve)
	g.POST("/occurrences/:id/waitlist", h.JoinWaitlist)
	g.POST("/assignments/:id/confirm", h.Confirm)
	g.POST("/assignments/:id/release", h.Release)

	// Maintenance holds on individual inventory rows.
	g.POST("/assignments/:id/block", h.BlockSeat, admin)
	g.POST("/assignments/:id/unblock", h.UnblockSeat, admin)
}
