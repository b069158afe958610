package handlers

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Register mounts every route on e.
func Register(e *echo.Echo, h *Handler, cacheHandlers *CacheHandlers) {
	// System
	e.GET("/health", h.GetHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/cache/status", cacheHandlers.GetCacheStatus)
	e.POST("/cache/clear", cacheHandlers.ClearCache)

	api := e.Group("/api")

	api.GET("/status", h.GetStatus)
	api.GET("/clusters", h.ListClusters)
	api.PUT("/cluster", h.SwitchCluster)
	api.POST("/refresh", h.Refresh)

	api.GET("/nodes", h.GetNodes)
	api.GET("/nodes/:pubkey", h.GetNode)
	api.GET("/stats", h.GetStats)

	api.GET("/map", h.GetMap)
	api.GET("/map/regions", h.GetRegionalClusters)
}
