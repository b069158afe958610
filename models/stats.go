package models

import "time"

// ClusterStats is a pure aggregation over one node collection.
type ClusterStats struct {
	TotalNodes    int `json:"total_nodes"`
	ActiveNodes   int `json:"active_nodes"`
	DegradedNodes int `json:"degraded_nodes"`
	InactiveNodes int `json:"inactive_nodes"`

	TotalStorageCapacity int64 `json:"total_storage_capacity"` // bytes
	TotalStorageUsed     int64 `json:"total_storage_used"`     // bytes

	AverageUptime           float64 `json:"average_uptime"`
	AveragePerformanceScore float64 `json:"average_performance_score"`
}

// DataSource tells consumers whether a result came from the cluster or was
// generated locally because the cluster could not be reached.
type DataSource string

const (
	SourceLive      DataSource = "live"
	SourceSynthetic DataSource = "synthetic"
)

// ClusterNodesResponse is the result of one fetch cycle for one cluster.
type ClusterNodesResponse struct {
	Cluster   NetworkCluster `json:"cluster"`
	Nodes     []*PNode       `json:"nodes"`
	Stats     ClusterStats   `json:"stats"`
	Source    DataSource     `json:"source"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// FindNode returns the node with the given pubkey.
func (r *ClusterNodesResponse) FindNode(pubkey string) (*PNode, bool) {
	if r == nil {
		return nil, false
	}
	for _, n := range r.Nodes {
		if n != nil && n.Pubkey == pubkey {
			return n, true
		}
	}
	return nil, false
}
