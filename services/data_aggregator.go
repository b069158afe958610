package services

import (
	"xandpulse/models"
)

// CalculateStats reduces a node collection to cluster-wide metrics in one pass.
// Status counts use each node's Status field; a node carrying an unrecognised
// status is counted as inactive so the counts always add up to TotalNodes.
// Missing storage counts as 0 and averages only include nodes that report the value.
func CalculateStats(nodes []*models.PNode) models.ClusterStats {
	var aggr models.ClusterStats

	var sumUptime, sumPerformance float64
	var countUptime, countPerformance int

	for _, node := range nodes {
		if node == nil {
			continue
		}
		aggr.TotalNodes++

		switch node.Status {
		case models.StatusActive:
			aggr.ActiveNodes++
		case models.StatusDegraded:
			aggr.DegradedNodes++
		default:
			aggr.InactiveNodes++
		}

		aggr.TotalStorageCapacity += models.Deref(node.StorageCapacity)
		aggr.TotalStorageUsed += models.Deref(node.StorageUsed)

		if node.Uptime != nil {
			sumUptime += *node.Uptime
			countUptime++
		}
		if node.PerformanceScore != nil {
			sumPerformance += *node.PerformanceScore
			countPerformance++
		}
	}

	if countUptime > 0 {
		aggr.AverageUptime = sumUptime / float64(countUptime)
	}
	if countPerformance > 0 {
		aggr.AveragePerformanceScore = sumPerformance / float64(countPerformance)
	}

	return aggr
}
