package services

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"xandpulse/models"
	"xandpulse/utils"
)

// RosterFetcher fetches the raw node roster from an endpoint.
type RosterFetcher interface {
	GetClusterNodes(ctx context.Context, endpoint string) ([]models.RawClusterNode, error)
}

// ClusterClient serves one cluster. It holds no mutable state, so a request in
// flight is never affected by another client being selected.
type ClusterClient struct {
	network       models.NetworkConfig
	rpc           RosterFetcher
	generator     *SyntheticGenerator
	syntheticSize int
	now           func() time.Time
}

func NewClusterClient(network models.NetworkConfig, rpc RosterFetcher, generator *SyntheticGenerator, syntheticSize int) *ClusterClient {
	if syntheticSize <= 0 {
		syntheticSize = 25
	}
	return &ClusterClient{
		network:       network,
		rpc:           rpc,
		generator:     generator,
		syntheticSize: syntheticSize,
		now:           time.Now,
	}
}

func (c *ClusterClient) Cluster() models.NetworkCluster {
	return c.network.Name
}

func (c *ClusterClient) Endpoint() string {
	return c.network.RPCEndpoint
}

// FetchLive makes one getClusterNodes call and builds the full result from it.
func (c *ClusterClient) FetchLive(ctx context.Context) (*models.ClusterNodesResponse, error) {
	rawNodes, err := c.rpc.GetClusterNodes(ctx, c.network.RPCEndpoint)
	if err != nil {
		return nil, err
	}

	nodes, err := c.enrich(rawNodes)
	if err != nil {
		return nil, err
	}
	annotateVersions(nodes)

	return &models.ClusterNodesResponse{
		Cluster:   c.network.Name,
		Nodes:     nodes,
		Stats:     CalculateStats(nodes),
		Source:    models.SourceLive,
		FetchedAt: c.now(),
	}, nil
}

func (c *ClusterClient) enrich(rawNodes []models.RawClusterNode) (nodes []*models.PNode, err error) {
	current := ""
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = &EnrichmentError{Pubkey: current, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	nodes = make([]*models.PNode, 0, len(rawNodes))
	for i, raw := range rawNodes {
		current = raw.Pubkey
		node, err := c.generator.Enrich(raw, i)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// Fallback builds a complete synthetic result and records why it was needed.
func (c *ClusterClient) Fallback(cause error) *models.ClusterNodesResponse {
	reason := errorKind(cause)
	log.WithFields(log.Fields{
		"cluster":  c.network.Name,
		"endpoint": c.network.RPCEndpoint,
		"reason":   reason,
	}).Warnf("RPC call failed, using synthetic data: %v", cause)
	fallbacksTotal.WithLabelValues(string(c.network.Name), reason).Inc()

	nodes := c.generator.Generate(c.syntheticSize)
	annotateVersions(nodes)

	return &models.ClusterNodesResponse{
		Cluster:   c.network.Name,
		Nodes:     nodes,
		Stats:     CalculateStats(nodes),
		Source:    models.SourceSynthetic,
		FetchedAt: c.now(),
	}
}

// GetClusterNodes returns live data when the cluster answers and synthetic data
// otherwise. It never fails.
func (c *ClusterClient) GetClusterNodes(ctx context.Context) *models.ClusterNodesResponse {
	resp, err := c.FetchLive(ctx)
	if err != nil {
		return c.Fallback(err)
	}
	return resp
}

// GetPNodeInfo fetches the roster and looks up one node.
func (c *ClusterClient) GetPNodeInfo(ctx context.Context, pubkey string) (*models.PNode, bool) {
	return c.GetClusterNodes(ctx).FindNode(pubkey)
}

// annotateVersions tags each node against the newest version in the collection.
func annotateVersions(nodes []*models.PNode) {
	versions := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if n.Version != nil {
			versions = append(versions, *n.Version)
		}
	}
	latest := utils.LatestVersion(versions)

	for _, n := range nodes {
		if n.Version == nil {
			n.VersionStatus = utils.VersionUnknown
			continue
		}
		n.VersionStatus = utils.CheckVersionStatus(*n.Version, latest)
	}
}
