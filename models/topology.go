package models

// MapCluster groups the nodes that share a location, for the network map.
type MapCluster struct {
	City          string   `json:"city"`
	Country       string   `json:"country"`
	CountryCode   string   `json:"country_code"`
	Lat           float64  `json:"lat"`
	Lon           float64  `json:"lon"`
	NodeCount     int      `json:"node_count"`
	ActiveNodes   int      `json:"active_nodes"`
	DegradedNodes int      `json:"degraded_nodes"`
	InactiveNodes int      `json:"inactive_nodes"`
	Pubkeys       []string `json:"pubkeys"`
}

// RegionalCluster groups nodes by country
type RegionalCluster struct {
	Region    string   `json:"region"`
	NodeCount int      `json:"node_count"`
	Pubkeys   []string `json:"pubkeys"`
}
