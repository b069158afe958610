package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"xandpulse/services"
)

type CacheHandlers struct {
	cache *services.CacheService
}

func NewCacheHandlers(cache *services.CacheService) *CacheHandlers {
	return &CacheHandlers{
		cache: cache,
	}
}

// GetCacheStatus reports the active backend and key counts
func (h *CacheHandlers) GetCacheStatus(c echo.Context) error {
	mode := h.cache.GetCacheMode()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"mode":    string(mode),
		"healthy": mode == services.CacheModeRedis || !h.cache.RedisConfigured(),
		"stats":   h.cache.GetCacheStats(),
	})
}

// ClearCache drops every stored cluster result; the next read re-fetches
func (h *CacheHandlers) ClearCache(c echo.Context) error {
	if err := h.cache.ClearCache(); err != nil {
		return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]string{
		"message": "Cache cleared successfully",
	})
}
