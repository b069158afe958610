package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"xandpulse/models"
)

// MapResponse carries the map markers for one cluster
type MapResponse struct {
	Cluster  models.NetworkCluster `json:"cluster"`
	Source   models.DataSource     `json:"source"`
	Clusters []models.MapCluster   `json:"clusters"`
}

// GetMap godoc
// @Summary Node locations grouped for the network map
// @Tags topology
// @Produce json
// @Param cluster query string false "mainnet, devnet or testnet"
// @Success 200 {object} MapResponse
// @Router /api/map [get]
func (h *Handler) GetMap(c echo.Context) error {
	resp, err := h.loadCluster(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	return c.JSON(http.StatusOK, MapResponse{
		Cluster:  resp.Cluster,
		Source:   resp.Source,
		Clusters: h.Topology.MapClusters(resp.Nodes),
	})
}

// GetRegionalClusters godoc
// @Summary Node counts per country
// @Tags topology
// @Produce json
// @Param cluster query string false "mainnet, devnet or testnet"
// @Success 200 {array} models.RegionalCluster
// @Router /api/map/regions [get]
func (h *Handler) GetRegionalClusters(c echo.Context) error {
	resp, err := h.loadCluster(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	return c.JSON(http.StatusOK, h.Topology.RegionalClusters(resp.Nodes))
}
