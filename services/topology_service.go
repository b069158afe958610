package services

import (
	"fmt"
	"sort"

	"xandpulse/models"
)

// TopologyService groups a cluster's nodes geographically for the network map.
type TopologyService struct{}

func NewTopologyService() *TopologyService {
	return &TopologyService{}
}

// MapClusters groups nodes sharing a location into one marker with per-status
// counts. Nodes without a location are left off the map. Markers are ordered by
// node count, largest first.
func (ts *TopologyService) MapClusters(nodes []*models.PNode) []models.MapCluster {
	index := make(map[string]int)
	clusters := make([]models.MapCluster, 0)

	for _, node := range nodes {
		if node == nil || node.Location == nil {
			continue
		}
		loc := node.Location
		key := fmt.Sprintf("%s|%.4f|%.4f", loc.City, loc.Lat, loc.Lon)

		i, ok := index[key]
		if !ok {
			clusters = append(clusters, models.MapCluster{
				City:        loc.City,
				Country:     loc.Country,
				CountryCode: loc.CountryCode,
				Lat:         loc.Lat,
				Lon:         loc.Lon,
				Pubkeys:     []string{},
			})
			i = len(clusters) - 1
			index[key] = i
		}

		mc := &clusters[i]
		mc.NodeCount++
		mc.Pubkeys = append(mc.Pubkeys, node.Pubkey)
		switch node.Status {
		case models.StatusActive:
			mc.ActiveNodes++
		case models.StatusDegraded:
			mc.DegradedNodes++
		default:
			mc.InactiveNodes++
		}
	}

	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].NodeCount > clusters[j].NodeCount
	})
	return clusters
}

// RegionalClusters groups nodes by country
func (ts *TopologyService) RegionalClusters(nodes []*models.PNode) []models.RegionalCluster {
	countryMap := make(map[string][]string)
	for _, node := range nodes {
		if node == nil || node.Location == nil || node.Location.Country == "" {
			continue
		}
		country := node.Location.Country
		countryMap[country] = append(countryMap[country], node.Pubkey)
	}

	clusters := make([]models.RegionalCluster, 0, len(countryMap))
	for country, pubkeys := range countryMap {
		clusters = append(clusters, models.RegionalCluster{
			Region:    country,
			NodeCount: len(pubkeys),
			Pubkeys:   pubkeys,
		})
	}

	sort.Slice(clusters, func(i, j int) bool {
		if clusters[i].NodeCount != clusters[j].NodeCount {
			return clusters[i].NodeCount > clusters[j].NodeCount
		}
		return clusters[i].Region < clusters[j].Region
	})
	return clusters
}
