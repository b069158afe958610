package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xandpulse/models"
)

func TestTopologyService_MapClusters(t *testing.T) {
	london := models.NodeLocation{Lat: 51.5074, Lon: -0.1278, City: "London", Country: "United Kingdom", CountryCode: "GB"}
	tokyo := models.NodeLocation{Lat: 35.6762, Lon: 139.6503, City: "Tokyo", Country: "Japan", CountryCode: "JP"}

	nodes := []*models.PNode{
		{Pubkey: "a", Status: models.StatusActive, Location: &london},
		{Pubkey: "b", Status: models.StatusDegraded, Location: &tokyo},
		{Pubkey: "c", Status: models.StatusInactive, Location: &london},
		{Pubkey: "d", Status: models.StatusActive, Location: &london},
		{Pubkey: "e", Status: models.StatusActive},
		nil,
	}

	clusters := NewTopologyService().MapClusters(nodes)
	require.Len(t, clusters, 2)

	assert.Equal(t, "London", clusters[0].City)
	assert.Equal(t, 3, clusters[0].NodeCount)
	assert.Equal(t, 2, clusters[0].ActiveNodes)
	assert.Equal(t, 0, clusters[0].DegradedNodes)
	assert.Equal(t, 1, clusters[0].InactiveNodes)
	assert.Equal(t, []string{"a", "c", "d"}, clusters[0].Pubkeys)

	assert.Equal(t, "Tokyo", clusters[1].City)
	assert.Equal(t, 1, clusters[1].DegradedNodes)
}

func TestTopologyService_MapClusters_Empty(t *testing.T) {
	clusters := NewTopologyService().MapClusters(nil)
	assert.NotNil(t, clusters)
	assert.Empty(t, clusters)
}

func TestTopologyService_RegionalClusters(t *testing.T) {
	nodes := NewSeededGenerator(3, fixedClock(testNow)).Generate(16)

	regions := NewTopologyService().RegionalClusters(nodes)

	total := 0
	for _, r := range regions {
		total += r.NodeCount
		assert.Len(t, r.Pubkeys, r.NodeCount)
	}
	assert.Equal(t, 16, total)

	// Two of the eight fixed locations are in the United States
	require.NotEmpty(t, regions)
	assert.Equal(t, "United States", regions[0].Region)
	assert.Equal(t, 4, regions[0].NodeCount)
}
