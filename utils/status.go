package utils

import "xandpulse/models"

// DegradedUptimeThreshold is the uptime percentage below which a reporting node is degraded.
const DegradedUptimeThreshold = 90.0

// ClassifyStatus derives a node's health. A node that never reported a version
// is inactive whatever its uptime says.
func ClassifyStatus(version *string, uptime float64) models.NodeStatus {
	if version == nil || *version == "" {
		return models.StatusInactive
	}
	if uptime < DegradedUptimeThreshold {
		return models.StatusDegraded
	}
	return models.StatusActive
}
