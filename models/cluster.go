package models

import (
	"fmt"
	"strings"
)

type NetworkCluster string

const (
	Mainnet NetworkCluster = "mainnet"
	Devnet  NetworkCluster = "devnet"
	Testnet NetworkCluster = "testnet"
)

// AllClusters in display order.
var AllClusters = []NetworkCluster{Mainnet, Devnet, Testnet}

type NetworkConfig struct {
	Name        NetworkCluster `json:"name"`
	RPCEndpoint string         `json:"rpc_endpoint"`
	WSEndpoint  string         `json:"ws_endpoint,omitempty"`
	Label       string         `json:"label"`
}

// DefaultNetworkConfigs returns a fresh copy of the built-in cluster table.
func DefaultNetworkConfigs() map[NetworkCluster]NetworkConfig {
	return map[NetworkCluster]NetworkConfig{
		Mainnet: {
			Name:        Mainnet,
			RPCEndpoint: "https://rpc.xandeum.network",
			Label:       "Mainnet",
		},
		Devnet: {
			Name:        Devnet,
			RPCEndpoint: "https://api.devnet.xandeum.com:8899",
			Label:       "Devnet",
		},
		Testnet: {
			Name:        Testnet,
			RPCEndpoint: "https://api.testnet.xandeum.com:8899",
			Label:       "Testnet",
		},
	}
}

// ParseCluster accepts a cluster name in any case.
func ParseCluster(s string) (NetworkCluster, error) {
	c := NetworkCluster(strings.ToLower(strings.TrimSpace(s)))
	switch c {
	case Mainnet, Devnet, Testnet:
		return c, nil
	}
	return "", fmt.Errorf("unknown cluster %q", s)
}
