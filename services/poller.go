package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"xandpulse/config"
	"xandpulse/models"
)

// ClientFactory builds the client for one cluster.
type ClientFactory func(network models.NetworkConfig) *ClusterClient

// Poller owns the selected cluster and keeps a result per cluster fresh. Results
// are stored under the cluster they were fetched for, so a slow fetch for a
// previously selected cluster never replaces what the current cluster shows.
type Poller struct {
	cache    *CacheService
	networks map[models.NetworkCluster]models.NetworkConfig
	factory  ClientFactory

	mu       sync.RWMutex
	selected models.NetworkCluster
	clients  map[models.NetworkCluster]*ClusterClient

	refreshInterval time.Duration
	staleTime       time.Duration
	detailStaleTime time.Duration
	maxAttempts     int
	baseDelay       time.Duration
	maxDelay        time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	stopOnce   sync.Once
	stopCtx    context.Context
	stopCancel context.CancelFunc
	wg         sync.WaitGroup
}

func NewPoller(cfg *config.Config, cache *CacheService, factory ClientFactory) *Poller {
	ctx, cancel := context.WithCancel(context.Background())

	maxAttempts := cfg.Polling.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	return &Poller{
		cache:           cache,
		networks:        cfg.NetworkConfigs(),
		factory:         factory,
		selected:        cfg.DefaultCluster(),
		clients:         make(map[models.NetworkCluster]*ClusterClient),
		refreshInterval: cfg.RefreshIntervalDuration(),
		staleTime:       cfg.StaleTimeDuration(),
		detailStaleTime: cfg.DetailStaleTimeDuration(),
		maxAttempts:     maxAttempts,
		baseDelay:       cfg.RetryBaseDelayDuration(),
		maxDelay:        cfg.RetryMaxDelayDuration(),
		now:             time.Now,
		sleep:           sleepContext,
		stopCtx:         ctx,
		stopCancel:      cancel,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start refreshes the selected cluster now and then every refresh interval.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.pollOnce()

		ticker := time.NewTicker(p.refreshInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.pollOnce()
			case <-p.stopCtx.Done():
				return
			}
		}
	}()
}

func (p *Poller) pollOnce() {
	cluster := p.Selected()
	if _, err := p.Refresh(p.stopCtx, cluster); err != nil {
		log.Errorf("Scheduled refresh of %s failed: %v", cluster, err)
	}
}

func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		p.stopCancel()
		p.wg.Wait()
	})
}

// Selected returns the currently selected cluster.
func (p *Poller) Selected() models.NetworkCluster {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.selected
}

// Networks lists the known clusters in display order.
func (p *Poller) Networks() []models.NetworkConfig {
	out := make([]models.NetworkConfig, 0, len(models.AllClusters))
	for _, c := range models.AllClusters {
		if nc, ok := p.networks[c]; ok {
			out = append(out, nc)
		}
	}
	return out
}

// SwitchCluster changes the selection. Fetches already running keep their own
// cluster and endpoint.
func (p *Poller) SwitchCluster(cluster models.NetworkCluster) error {
	if _, ok := p.networks[cluster]; !ok {
		return fmt.Errorf("unknown cluster %q", cluster)
	}

	p.mu.Lock()
	prev := p.selected
	p.selected = cluster
	p.mu.Unlock()

	if prev != cluster {
		log.WithFields(log.Fields{"from": prev, "to": cluster}).Info("Cluster selection changed")
	}
	return nil
}

// Client returns the client for a cluster, creating it on first use.
func (p *Poller) Client(cluster models.NetworkCluster) (*ClusterClient, error) {
	network, ok := p.networks[cluster]
	if !ok {
		return nil, fmt.Errorf("unknown cluster %q", cluster)
	}

	p.mu.RLock()
	client, ok := p.clients[cluster]
	p.mu.RUnlock()
	if ok {
		return client, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if client, ok := p.clients[cluster]; ok {
		return client, nil
	}
	client = p.factory(network)
	p.clients[cluster] = client
	return client, nil
}

func (p *Poller) resolve(cluster models.NetworkCluster) models.NetworkCluster {
	if cluster == "" {
		return p.Selected()
	}
	return cluster
}

func (p *Poller) isFresh(resp *models.ClusterNodesResponse, window time.Duration) bool {
	return resp != nil && p.now().Sub(resp.FetchedAt) < window
}

// Fetch returns the cluster's result, reusing a cached one younger than the
// stale time. An empty cluster means the selected one. The only error is an
// unknown cluster; fetch failures turn into synthetic data.
func (p *Poller) Fetch(ctx context.Context, cluster models.NetworkCluster) (*models.ClusterNodesResponse, error) {
	cluster = p.resolve(cluster)
	if _, ok := p.networks[cluster]; !ok {
		return nil, fmt.Errorf("unknown cluster %q", cluster)
	}

	if cached, ok := p.cache.GetClusterNodes(cluster); ok && p.isFresh(cached, p.staleTime) {
		return cached, nil
	}
	return p.Refresh(ctx, cluster)
}

// Refresh fetches the cluster now, retrying live fetches with exponential
// backoff before falling back to synthetic data.
func (p *Poller) Refresh(ctx context.Context, cluster models.NetworkCluster) (*models.ClusterNodesResponse, error) {
	cluster = p.resolve(cluster)
	client, err := p.Client(cluster)
	if err != nil {
		return nil, err
	}

	start := p.now()
	resp := p.fetchWithRetry(ctx, client)

	// Fallbacks for an abandoned caller are never stored.
	if resp.Source != models.SourceLive && ctx.Err() != nil {
		log.WithFields(log.Fields{
			"cluster": cluster,
			"reason":  ctx.Err().Error(),
		}).Debug("Fetch abandoned by caller, keeping stored result")
		return resp, nil
	}

	p.cache.SetClusterNodes(resp)
	recordClusterStats(cluster, resp.Stats)

	fields := log.Fields{
		"cluster":  cluster,
		"source":   resp.Source,
		"nodes":    resp.Stats.TotalNodes,
		"active":   resp.Stats.ActiveNodes,
		"degraded": resp.Stats.DegradedNodes,
		"inactive": resp.Stats.InactiveNodes,
		"elapsed":  p.now().Sub(start).String(),
	}
	if selected := p.Selected(); selected != cluster {
		fields["selected"] = selected
		log.WithFields(fields).Info("Fetch completed for a cluster that is no longer selected")
	} else {
		log.WithFields(fields).Info("Cluster data refreshed")
	}

	return resp, nil
}

func (p *Poller) fetchWithRetry(ctx context.Context, client *ClusterClient) *models.ClusterNodesResponse {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		fetchAttempts.WithLabelValues(string(client.Cluster())).Inc()

		resp, err := client.FetchLive(ctx)
		if err == nil {
			return resp
		}
		lastErr = err

		if isNonRetryableError(err) || attempt == p.maxAttempts-1 {
			break
		}

		delay := p.retryDelay(attempt)
		log.WithFields(log.Fields{
			"cluster": client.Cluster(),
			"attempt": attempt + 1,
			"delay":   delay.String(),
		}).Debugf("Live fetch failed, retrying: %v", err)

		if err := p.sleep(ctx, delay); err != nil {
			break
		}
	}

	return client.Fallback(lastErr)
}

// retryDelay is base * 2^attempt, capped at the max delay.
func (p *Poller) retryDelay(attempt int) time.Duration {
	delay := p.baseDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if p.maxDelay > 0 && delay >= p.maxDelay {
			return p.maxDelay
		}
	}
	if p.maxDelay > 0 && delay > p.maxDelay {
		return p.maxDelay
	}
	return delay
}

// Current returns the last stored result for the selected cluster.
func (p *Poller) Current() (*models.ClusterNodesResponse, bool) {
	return p.cache.GetClusterNodes(p.Selected())
}

// IsStale reports whether a result is older than the stale time.
func (p *Poller) IsStale(resp *models.ClusterNodesResponse) bool {
	return !p.isFresh(resp, p.staleTime)
}

// NodeDetail looks a node up in the result being displayed for the cluster,
// fetching only when there is no result or a recent one lacks the node.
// Synthetic pubkeys change on every regeneration, so a fetch is a last resort.
func (p *Poller) NodeDetail(ctx context.Context, cluster models.NetworkCluster, pubkey string) (*models.PNode, bool, error) {
	cluster = p.resolve(cluster)
	if _, ok := p.networks[cluster]; !ok {
		return nil, false, fmt.Errorf("unknown cluster %q", cluster)
	}

	if cached, ok := p.cache.GetClusterNodes(cluster); ok {
		if node, found := cached.FindNode(pubkey); found {
			return node, true, nil
		}
		if p.isFresh(cached, p.detailStaleTime) {
			return nil, false, nil
		}
	}

	resp, err := p.Refresh(ctx, cluster)
	if err != nil {
		return nil, false, err
	}
	node, found := resp.FindNode(pubkey)
	return node, found, nil
}
