package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"xandpulse/models"
)

var (
	rpcRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xandpulse_rpc_requests_total",
		Help: "JSON-RPC calls by method and outcome (ok, transport, protocol, malformed)",
	}, []string{"method", "outcome"})

	rpcLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "xandpulse_rpc_request_duration_seconds",
		Help:    "JSON-RPC round trip time",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})

	fallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xandpulse_synthetic_fallbacks_total",
		Help: "Fetches answered with synthetic data, by cluster and failure kind",
	}, []string{"cluster", "reason"})

	fetchAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "xandpulse_fetch_attempts_total",
		Help: "Live fetch attempts made by the poller, by cluster",
	}, []string{"cluster"})

	clusterNodes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xandpulse_cluster_nodes",
		Help: "Nodes in the latest result, by cluster and status",
	}, []string{"cluster", "status"})

	clusterStorageBytes = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "xandpulse_cluster_storage_bytes",
		Help: "Storage in the latest result, by cluster and kind (capacity, used)",
	}, []string{"cluster", "kind"})
)

func init() {
	prometheus.MustRegister(
		rpcRequests,
		rpcLatency,
		fallbacksTotal,
		fetchAttempts,
		clusterNodes,
		clusterStorageBytes,
	)
}

// recordClusterStats publishes the latest stats for a cluster.
func recordClusterStats(cluster models.NetworkCluster, stats models.ClusterStats) {
	c := string(cluster)
	clusterNodes.WithLabelValues(c, string(models.StatusActive)).Set(float64(stats.ActiveNodes))
	clusterNodes.WithLabelValues(c, string(models.StatusDegraded)).Set(float64(stats.DegradedNodes))
	clusterNodes.WithLabelValues(c, string(models.StatusInactive)).Set(float64(stats.InactiveNodes))
	clusterStorageBytes.WithLabelValues(c, "capacity").Set(float64(stats.TotalStorageCapacity))
	clusterStorageBytes.WithLabelValues(c, "used").Set(float64(stats.TotalStorageUsed))
}
