package services

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xandpulse/models"
	"xandpulse/utils"
)

// fakeFetcher returns canned rosters or errors, one per call, repeating the last.
type fakeFetcher struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     int
	endpoints []string
}

type fakeResponse struct {
	nodes []models.RawClusterNode
	err   error
}

func (f *fakeFetcher) GetClusterNodes(_ context.Context, endpoint string) ([]models.RawClusterNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.endpoints = append(f.endpoints, endpoint)
	i := f.calls
	if i >= len(f.responses) {
		i = len(f.responses) - 1
	}
	f.calls++
	r := f.responses[i]
	return r.nodes, r.err
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func liveRoster() []models.RawClusterNode {
	return []models.RawClusterNode{
		{Pubkey: "Live1", Gossip: models.Ptr("10.0.0.1:8001"), Version: models.Ptr("0.6.0")},
		{Pubkey: "Live2", Gossip: models.Ptr("10.0.0.2:8001"), Version: models.Ptr("0.5.9")},
		{Pubkey: "Live3"},
	}
}

func testNetwork(cluster models.NetworkCluster) models.NetworkConfig {
	return models.NetworkConfig{Name: cluster, RPCEndpoint: "http://" + string(cluster) + ".invalid", Label: string(cluster)}
}

func TestClusterClient_FetchLive(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fakeResponse{{nodes: liveRoster()}}}
	client := NewClusterClient(testNetwork(models.Devnet), fetcher, NewSeededGenerator(1, fixedClock(testNow)), 10)

	resp, err := client.FetchLive(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.Devnet, resp.Cluster)
	assert.Equal(t, models.SourceLive, resp.Source)
	assert.False(t, resp.FetchedAt.IsZero())
	require.Len(t, resp.Nodes, 3)
	assert.Equal(t, []string{"http://devnet.invalid"}, fetcher.endpoints)

	assert.Equal(t, utils.VersionCurrent, resp.Nodes[0].VersionStatus)
	assert.Equal(t, utils.VersionOutdated, resp.Nodes[1].VersionStatus)
	assert.Equal(t, utils.VersionUnknown, resp.Nodes[2].VersionStatus)
	assert.Equal(t, models.StatusInactive, resp.Nodes[2].Status)

	stats := resp.Stats
	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, stats.TotalNodes, stats.ActiveNodes+stats.DegradedNodes+stats.InactiveNodes)
	assert.Equal(t, CalculateStats(resp.Nodes), stats)
}

func TestClusterClient_FetchLive_EmptyRoster(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fakeResponse{{nodes: []models.RawClusterNode{}}}}
	client := NewClusterClient(testNetwork(models.Mainnet), fetcher, NewSeededGenerator(1, fixedClock(testNow)), 10)

	resp, err := client.FetchLive(context.Background())
	require.NoError(t, err)
	assert.Empty(t, resp.Nodes)
	assert.Equal(t, models.ClusterStats{}, resp.Stats)
	assert.Equal(t, models.SourceLive, resp.Source)
}

func TestClusterClient_FetchLive_EnrichmentError(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fakeResponse{{nodes: []models.RawClusterNode{{Pubkey: "ok"}, {Pubkey: ""}}}}}
	client := NewClusterClient(testNetwork(models.Devnet), fetcher, NewSeededGenerator(1, fixedClock(testNow)), 10)

	resp, err := client.FetchLive(context.Background())
	assert.Nil(t, resp)

	var enrichErr *EnrichmentError
	assert.True(t, errors.As(err, &enrichErr))
}

func TestClusterClient_FetchLive_PanicReleasesGenerator(t *testing.T) {
	var mu sync.Mutex
	broken := true
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		if broken {
			panic("clock unavailable")
		}
		return testNow
	}
	gen := NewSyntheticGenerator(rand.New(rand.NewSource(1)), clock, nil)
	fetcher := &fakeFetcher{responses: []fakeResponse{{nodes: liveRoster()}}}
	client := NewClusterClient(testNetwork(models.Devnet), fetcher, gen, 10)

	resp, err := client.FetchLive(context.Background())
	assert.Nil(t, resp)
	var enrichErr *EnrichmentError
	require.True(t, errors.As(err, &enrichErr))
	assert.Equal(t, "Live1", enrichErr.Pubkey)

	mu.Lock()
	broken = false
	mu.Unlock()

	done := make(chan []*models.PNode, 1)
	go func() { done <- gen.Generate(3) }()

	select {
	case nodes := <-done:
		assert.Len(t, nodes, 3)
	case <-time.After(2 * time.Second):
		t.Fatal("generator still locked after a panic during enrichment")
	}
}

func TestClusterClient_GetClusterNodes_FallsBackOnEveryErrorKind(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"transport", &TransportError{Endpoint: "x", StatusCode: http.StatusBadGateway, Err: errors.New("502")}, "transport"},
		{"protocol", &ProtocolError{Code: -32000, Message: "busy"}, "protocol"},
		{"malformed", &MalformedResponseError{Reason: "null"}, "malformed"},
		{"context", context.DeadlineExceeded, "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fetcher := &fakeFetcher{responses: []fakeResponse{{err: tt.err}}}
			client := NewClusterClient(testNetwork(models.Testnet), fetcher, NewSeededGenerator(5, fixedClock(testNow)), 12)

			counter := fallbacksTotal.WithLabelValues(string(models.Testnet), tt.reason)
			before := testutil.ToFloat64(counter)

			resp := client.GetClusterNodes(context.Background())
			require.NotNil(t, resp)

			assert.Equal(t, models.SourceSynthetic, resp.Source)
			assert.Equal(t, models.Testnet, resp.Cluster)
			assert.Len(t, resp.Nodes, 12)
			assert.Equal(t, 12, resp.Stats.TotalNodes)
			assert.Equal(t, 1.0, testutil.ToFloat64(counter)-before)
		})
	}
}

func TestClusterClient_GetClusterNodes_RealRPCFailure(t *testing.T) {
	srv := rpcServer(t, func(models.RPCRequest, []byte) (int, string) {
		return http.StatusInternalServerError, "down"
	})
	network := models.NetworkConfig{Name: models.Devnet, RPCEndpoint: srv.URL}
	client := NewClusterClient(network, newTestRPCClient(), NewSeededGenerator(3, fixedClock(testNow)), 0)

	resp := client.GetClusterNodes(context.Background())

	assert.Equal(t, models.SourceSynthetic, resp.Source)
	assert.Len(t, resp.Nodes, 25, "non-positive size uses the default")
	for _, n := range resp.Nodes {
		assert.NotEmpty(t, n.VersionStatus)
	}
}

func TestClusterClient_GetPNodeInfo(t *testing.T) {
	fetcher := &fakeFetcher{responses: []fakeResponse{{nodes: liveRoster()}}}
	client := NewClusterClient(testNetwork(models.Devnet), fetcher, NewSeededGenerator(1, fixedClock(testNow)), 10)

	node, found := client.GetPNodeInfo(context.Background(), "Live2")
	require.True(t, found)
	assert.Equal(t, "Live2", node.Pubkey)

	_, found = client.GetPNodeInfo(context.Background(), "Nope")
	assert.False(t, found)
}
