package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"xandpulse/models"
)

// GetHealth returns OK
func (h *Handler) GetHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

type clusterStatus struct {
	Cluster   models.NetworkCluster `json:"cluster"`
	Endpoint  string                `json:"endpoint"`
	Cached    bool                  `json:"cached"`
	Source    models.DataSource     `json:"source,omitempty"`
	NodeCount int                   `json:"node_count"`
	FetchedAt *time.Time            `json:"fetched_at,omitempty"`
	Stale     bool                  `json:"stale"`
}

// GetStatus returns backend status and what is cached for each cluster
func (h *Handler) GetStatus(c echo.Context) error {
	clusters := make([]clusterStatus, 0, len(models.AllClusters))
	for _, nc := range h.Poller.Networks() {
		cs := clusterStatus{Cluster: nc.Name, Endpoint: nc.RPCEndpoint, Stale: true}
		if resp, ok := h.Cache.GetClusterNodes(nc.Name); ok {
			fetchedAt := resp.FetchedAt
			cs.Cached = true
			cs.Source = resp.Source
			cs.NodeCount = resp.Stats.TotalNodes
			cs.FetchedAt = &fetchedAt
			cs.Stale = h.Poller.IsStale(resp)
		}
		clusters = append(clusters, cs)
	}

	status := map[string]interface{}{
		"status":           "running",
		"uptime":           h.now().Sub(h.startedAt).Round(time.Second).String(),
		"selected_cluster": h.Poller.Selected(),
		"cache_mode":       h.Cache.GetCacheMode(),
		"clusters":         clusters,
		"timestamp":        h.now(),
	}
	return c.JSON(http.StatusOK, status)
}
