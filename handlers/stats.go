package handlers

import (
	"math"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"xandpulse/models"
	"xandpulse/utils"
)

// GetStats godoc
// @Summary Get cluster statistics
// @Description Returns node counts, storage totals and averages plus dashboard display values
// @Tags stats
// @Produce json
// @Param cluster query string false "mainnet, devnet or testnet"
// @Success 200 {object} StatsResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/stats [get]
func (h *Handler) GetStats(c echo.Context) error {
	resp, err := h.loadCluster(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, buildStatsResponse(resp, h.now()))
}

// StatsResponse is the stats payload shown on the dashboard cards
type StatsResponse struct {
	Cluster   models.NetworkCluster `json:"cluster"`
	Source    models.DataSource     `json:"source"`
	FetchedAt time.Time             `json:"fetched_at"`
	Stats     models.ClusterStats   `json:"stats"`
	Summary   StatsSummary          `json:"summary"`
}

// StatsSummary holds values derived from the stats for display.
type StatsSummary struct {
	ActivePercent      float64 `json:"active_percent"`
	StorageCapacity    string  `json:"storage_capacity"`
	StorageUsed        string  `json:"storage_used"`
	StorageUsedPercent float64 `json:"storage_used_percent"`
	AverageUptime      string  `json:"average_uptime"`
	PerformanceScore   string  `json:"performance_score"`
	LastUpdated        string  `json:"last_updated"`
}

func buildStatsResponse(resp *models.ClusterNodesResponse, now time.Time) StatsResponse {
	stats := resp.Stats
	return StatsResponse{
		Cluster:   resp.Cluster,
		Source:    resp.Source,
		FetchedAt: resp.FetchedAt,
		Stats:     stats,
		Summary: StatsSummary{
			ActivePercent:      percent(int64(stats.ActiveNodes), int64(stats.TotalNodes)),
			StorageCapacity:    utils.FormatBytes(stats.TotalStorageCapacity),
			StorageUsed:        utils.FormatBytes(stats.TotalStorageUsed),
			StorageUsedPercent: percent(stats.TotalStorageUsed, stats.TotalStorageCapacity),
			AverageUptime:      utils.FormatUptime(stats.AverageUptime),
			PerformanceScore:   utils.FormatUptime(stats.AveragePerformanceScore * 100),
			LastUpdated:        utils.FormatTimestamp(resp.FetchedAt.UnixMilli(), now),
		},
	}
}

// percent is part/total*100 rounded to one decimal, 0 when total is 0.
func percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*1000) / 10
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}
