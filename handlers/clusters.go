package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"xandpulse/models"
)

type clusterInfo struct {
	models.NetworkConfig
	Selected bool `json:"selected"`
}

// ClustersResponse lists the known clusters and the current selection
type ClustersResponse struct {
	Selected models.NetworkCluster `json:"selected"`
	Clusters []clusterInfo         `json:"clusters"`
}

// SwitchClusterRequest is the body of PUT /api/cluster
type SwitchClusterRequest struct {
	Cluster string `json:"cluster"`
}

// ListClusters godoc
// @Summary List clusters
// @Tags clusters
// @Produce json
// @Success 200 {object} ClustersResponse
// @Router /api/clusters [get]
func (h *Handler) ListClusters(c echo.Context) error {
	return c.JSON(http.StatusOK, h.clustersResponse())
}

// SwitchCluster godoc
// @Summary Select the cluster served by default
// @Description Later reads without ?cluster= use the new selection. Fetches already running are unaffected.
// @Tags clusters
// @Accept json
// @Produce json
// @Param body body SwitchClusterRequest true "Cluster to select"
// @Success 200 {object} ClustersResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/cluster [put]
func (h *Handler) SwitchCluster(c echo.Context) error {
	var req SwitchClusterRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
	}

	cluster, err := models.ParseCluster(req.Cluster)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if err := h.Poller.SwitchCluster(cluster); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, h.clustersResponse())
}

func (h *Handler) clustersResponse() ClustersResponse {
	selected := h.Poller.Selected()
	networks := h.Poller.Networks()

	clusters := make([]clusterInfo, 0, len(networks))
	for _, nc := range networks {
		clusters = append(clusters, clusterInfo{NetworkConfig: nc, Selected: nc.Name == selected})
	}
	return ClustersResponse{Selected: selected, Clusters: clusters}
}

// Refresh godoc
// @Summary Re-fetch a cluster now, ignoring freshness
// @Tags clusters
// @Produce json
// @Param cluster query string false "mainnet, devnet or testnet"
// @Success 200 {object} StatsResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/refresh [post]
func (h *Handler) Refresh(c echo.Context) error {
	cluster, err := clusterParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	resp, err := h.Poller.Refresh(c.Request().Context(), cluster)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	c.Response().Header().Set(HeaderDataSource, string(resp.Source))
	return c.JSON(http.StatusOK, buildStatsResponse(resp, h.now()))
}
