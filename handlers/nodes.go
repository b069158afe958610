package handlers

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"xandpulse/config"
	"xandpulse/models"
	"xandpulse/services"
	"xandpulse/utils"
)

// HeaderDataSource tells clients whether a payload is live or synthetic.
const HeaderDataSource = "X-Data-Source"

type Handler struct {
	Cfg      *config.Config
	Cache    *services.CacheService
	Poller   *services.Poller
	Topology *services.TopologyService

	startedAt time.Time
	now       func() time.Time
}

func NewHandler(cfg *config.Config, cache *services.CacheService, poller *services.Poller, topology *services.TopologyService) *Handler {
	return &Handler{
		Cfg:       cfg,
		Cache:     cache,
		Poller:    poller,
		Topology:  topology,
		startedAt: time.Now(),
		now:       time.Now,
	}
}

// clusterParam reads ?cluster=, returning "" (the selected cluster) when absent.
func clusterParam(c echo.Context) (models.NetworkCluster, error) {
	raw := c.QueryParam("cluster")
	if raw == "" {
		return "", nil
	}
	return models.ParseCluster(raw)
}

// loadCluster fetches the requested cluster and tags the response with its source.
func (h *Handler) loadCluster(c echo.Context) (*models.ClusterNodesResponse, error) {
	cluster, err := clusterParam(c)
	if err != nil {
		return nil, err
	}
	resp, err := h.Poller.Fetch(c.Request().Context(), cluster)
	if err != nil {
		return nil, err
	}
	c.Response().Header().Set(HeaderDataSource, string(resp.Source))
	return resp, nil
}

// GetNodes godoc
// @Summary List nodes of a cluster
// @Description Returns a filtered, sorted and paginated node list
// @Tags nodes
// @Produce json
// @Param cluster query string false "mainnet, devnet or testnet (default: selected cluster)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 50, max: 500)"
// @Param status query string false "Filter by status (active, degraded, inactive)"
// @Param sort query string false "Sort field (pubkey, version, uptime, status, storageCapacity, lastSeen)"
// @Param order query string false "Sort order (asc, desc) (default: asc)"
// @Success 200 {object} NodesResponse
// @Failure 400 {object} ErrorResponse
// @Router /api/nodes [get]
func (h *Handler) GetNodes(c echo.Context) error {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit < 1 {
		limit = 50
	}
	if limit > 500 {
		limit = 500
	}

	statusFilter := models.NodeStatus(strings.ToLower(c.QueryParam("status")))
	if statusFilter != "" && !statusFilter.Valid() {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "status must be one of active, degraded, inactive",
		})
	}

	sortField := c.QueryParam("sort")
	if sortField == "" {
		sortField = SortStatus
	}
	if !validSortField(sortField) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unsupported sort field: " + sortField})
	}
	sortOrder := strings.ToLower(c.QueryParam("order"))
	if sortOrder == "" {
		sortOrder = "asc"
	}

	resp, err := h.loadCluster(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	// Cached results are shared, so filter into a new slice before sorting
	nodes := make([]*models.PNode, 0, len(resp.Nodes))
	for _, node := range resp.Nodes {
		if node == nil {
			continue
		}
		if statusFilter != "" && node.Status != statusFilter {
			continue
		}
		nodes = append(nodes, node)
	}

	sortNodes(nodes, sortField, sortOrder)

	totalNodes := len(nodes)
	totalPages := (totalNodes + limit - 1) / limit
	if totalPages < 1 {
		totalPages = 1
	}

	startIdx := (page - 1) * limit
	endIdx := startIdx + limit
	if startIdx > totalNodes {
		startIdx = totalNodes
	}
	if endIdx > totalNodes {
		endIdx = totalNodes
	}

	return c.JSON(http.StatusOK, NodesResponse{
		Cluster:   resp.Cluster,
		Source:    resp.Source,
		FetchedAt: resp.FetchedAt,
		Nodes:     nodes[startIdx:endIdx],
		Pagination: PaginationMeta{
			Page:       page,
			Limit:      limit,
			TotalItems: totalNodes,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
			HasPrev:    page > 1,
		},
	})
}

// GetNode godoc
// @Summary Get a single node by pubkey
// @Tags nodes
// @Produce json
// @Param pubkey path string true "Node pubkey"
// @Param cluster query string false "mainnet, devnet or testnet"
// @Success 200 {object} models.PNode
// @Failure 404 {object} ErrorResponse
// @Router /api/nodes/{pubkey} [get]
func (h *Handler) GetNode(c echo.Context) error {
	pubkey := c.Param("pubkey")

	cluster, err := clusterParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}

	node, found, err := h.Poller.NodeDetail(c.Request().Context(), cluster, pubkey)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	}
	if !found {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "Node not found"})
	}

	return c.JSON(http.StatusOK, node)
}

// Sort fields accepted by GET /api/nodes
const (
	SortPubkey          = "pubkey"
	SortVersion         = "version"
	SortUptime          = "uptime"
	SortStatus          = "status"
	SortStorageCapacity = "storageCapacity"
	SortLastSeen        = "lastSeen"
)

func validSortField(field string) bool {
	switch field {
	case SortPubkey, SortVersion, SortUptime, SortStatus, SortStorageCapacity, SortLastSeen:
		return true
	}
	return false
}

// sortNodes orders nodes in place. Ties fall back to pubkey so pages are stable.
func sortNodes(nodes []*models.PNode, field, order string) {
	desc := order == "desc"

	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]

		var cmp int
		switch field {
		case SortPubkey:
			cmp = strings.Compare(a.Pubkey, b.Pubkey)
		case SortVersion:
			cmp = utils.CompareVersions(models.Deref(a.Version), models.Deref(b.Version))
		case SortUptime:
			cmp = compareOrdered(models.Deref(a.Uptime), models.Deref(b.Uptime))
		case SortStorageCapacity:
			cmp = compareOrdered(models.Deref(a.StorageCapacity), models.Deref(b.StorageCapacity))
		case SortLastSeen:
			cmp = compareOrdered(models.Deref(a.LastSeen), models.Deref(b.LastSeen))
		default:
			cmp = compareOrdered(a.Status.Rank(), b.Status.Rank())
		}

		if cmp == 0 {
			cmp = strings.Compare(a.Pubkey, b.Pubkey)
		}
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}

func compareOrdered[T int | int64 | float64](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// NodesResponse represents the paginated nodes response
type NodesResponse struct {
	Cluster    models.NetworkCluster `json:"cluster"`
	Source     models.DataSource     `json:"source"`
	FetchedAt  time.Time             `json:"fetched_at"`
	Nodes      []*models.PNode       `json:"nodes"`
	Pagination PaginationMeta        `json:"pagination"`
}

// PaginationMeta represents pagination metadata
type PaginationMeta struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}
