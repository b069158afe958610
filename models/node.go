package models

// NodeStatus is the derived three-state health of a pNode.
type NodeStatus string

const (
	StatusActive   NodeStatus = "active"
	StatusDegraded NodeStatus = "degraded"
	StatusInactive NodeStatus = "inactive"
)

// Valid reports whether s is one of the known statuses.
func (s NodeStatus) Valid() bool {
	switch s {
	case StatusActive, StatusDegraded, StatusInactive:
		return true
	}
	return false
}

// Rank orders statuses the way the dashboard table does: active first.
func (s NodeStatus) Rank() int {
	switch s {
	case StatusActive:
		return 0
	case StatusDegraded:
		return 1
	case StatusInactive:
		return 2
	default:
		return 3
	}
}

type PNode struct {
	// Identity
	Pubkey string `json:"pubkey"`

	// Network endpoints ("ip:port")
	Gossip  *string `json:"gossip"`
	TPU     *string `json:"tpu"`
	TPUQuic *string `json:"tpu_quic"`
	RPC     *string `json:"rpc"`
	PubSub  *string `json:"pubsub"`

	// Software
	Version       *string `json:"version"`
	FeatureSet    *uint32 `json:"feature_set"`
	ShredVersion  *uint16 `json:"shred_version"`
	VersionStatus string  `json:"version_status,omitempty"` // "current", "outdated", "unknown"

	// Storage (bytes)
	StorageCapacity  *int64 `json:"storage_capacity,omitempty"`
	StorageUsed      *int64 `json:"storage_used,omitempty"`
	StorageAvailable *int64 `json:"storage_available,omitempty"`

	// Performance
	Uptime           *float64 `json:"uptime,omitempty"`            // percent, 0-100
	PerformanceScore *float64 `json:"performance_score,omitempty"` // 0-1
	ResponseTime     *int64   `json:"response_time,omitempty"`     // ms

	Status NodeStatus `json:"status"`

	// Lifecycle, ms since epoch
	LastSeen  *int64 `json:"last_seen,omitempty"`
	FirstSeen *int64 `json:"first_seen,omitempty"`

	Location *NodeLocation `json:"location,omitempty"`

	// Staking
	StakedXand     *int64   `json:"staked_xand,omitempty"`
	DelegatedStake *int64   `json:"delegated_stake,omitempty"`
	Commission     *float64 `json:"commission,omitempty"`
}

type NodeLocation struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	City        string  `json:"city,omitempty"`
	Country     string  `json:"country,omitempty"`
	CountryCode string  `json:"country_code,omitempty"`
}

// Ptr returns a pointer to v. Handy for the many optional node fields.
func Ptr[T any](v T) *T {
	return &v
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
