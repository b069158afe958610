package services

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"xandpulse/models"
	"xandpulse/utils"
)

const (
	tebibyte = int64(1) << 40

	pubkeyAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz123456789"

	syntheticFeatureSet   uint32 = 4215500110
	syntheticShredVersion uint16 = 50093

	lastSeenWindow  = time.Hour
	firstSeenWindow = 30 * 24 * time.Hour
)

// Weighted towards active: 4 active, 1 degraded, 1 inactive.
var syntheticStatuses = []models.NodeStatus{
	models.StatusActive, models.StatusActive, models.StatusActive, models.StatusActive,
	models.StatusDegraded, models.StatusInactive,
}

var syntheticVersions = []string{"0.6.0", "0.6.0", "0.6.0", "0.5.9", "0.5.8"}

// Fixed placements keep the map stable between regenerations.
var syntheticLocations = []models.NodeLocation{
	{Lat: 37.7749, Lon: -122.4194, City: "San Francisco", Country: "United States", CountryCode: "US"},
	{Lat: 40.7128, Lon: -74.0060, City: "New York", Country: "United States", CountryCode: "US"},
	{Lat: 51.5074, Lon: -0.1278, City: "London", Country: "United Kingdom", CountryCode: "GB"},
	{Lat: 52.5200, Lon: 13.4050, City: "Berlin", Country: "Germany", CountryCode: "DE"},
	{Lat: 35.6762, Lon: 139.6503, City: "Tokyo", Country: "Japan", CountryCode: "JP"},
	{Lat: 1.3521, Lon: 103.8198, City: "Singapore", Country: "Singapore", CountryCode: "SG"},
	{Lat: -33.8688, Lon: 151.2093, City: "Sydney", Country: "Australia", CountryCode: "AU"},
	{Lat: 48.8566, Lon: 2.3522, City: "Paris", Country: "France", CountryCode: "FR"},
}

// Live nodes without a GeoIP match are spread over a wider list.
var enrichmentLocations = append(append([]models.NodeLocation{}, syntheticLocations...),
	models.NodeLocation{Lat: 55.7558, Lon: 37.6173, City: "Moscow", Country: "Russia", CountryCode: "RU"},
	models.NodeLocation{Lat: -23.5505, Lon: -46.6333, City: "São Paulo", Country: "Brazil", CountryCode: "BR"},
)

// Locator resolves a node address to a location.
type Locator interface {
	Locate(address string) (models.NodeLocation, bool)
}

// SyntheticGenerator produces plausible node records, either whole datasets for
// the offline fallback or the metrics a live roster does not carry yet.
type SyntheticGenerator struct {
	mu      sync.Mutex
	rng     *rand.Rand
	now     func() time.Time
	locator Locator
}

// NewSyntheticGenerator builds a generator. A nil rng is seeded from the clock,
// a nil now uses time.Now and a nil locator disables address-based placement.
func NewSyntheticGenerator(rng *rand.Rand, now func() time.Time, locator Locator) *SyntheticGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if now == nil {
		now = time.Now
	}
	return &SyntheticGenerator{
		rng:     rng,
		now:     now,
		locator: locator,
	}
}

// NewSeededGenerator is a deterministic generator for a fixed seed and clock.
func NewSeededGenerator(seed int64, now func() time.Time) *SyntheticGenerator {
	return NewSyntheticGenerator(rand.New(rand.NewSource(seed)), now, nil)
}

// Generate returns count self-consistent synthetic nodes.
func (g *SyntheticGenerator) Generate(count int) []*models.PNode {
	g.mu.Lock()
	defer g.mu.Unlock()

	nowMs := g.now().UnixMilli()
	nodes := make([]*models.PNode, 0, count)

	for i := 0; i < count; i++ {
		node := &models.PNode{
			Pubkey:       g.randomPubkey(),
			Gossip:       models.Ptr(g.randomAddress(8001)),
			TPU:          models.Ptr(g.randomAddress(8004)),
			RPC:          models.Ptr(g.randomAddress(8899)),
			Version:      models.Ptr(syntheticVersions[g.rng.Intn(len(syntheticVersions))]),
			FeatureSet:   models.Ptr(syntheticFeatureSet),
			ShredVersion: models.Ptr(syntheticShredVersion),
			Status:       syntheticStatuses[g.rng.Intn(len(syntheticStatuses))],
			Location:     models.Ptr(syntheticLocations[i%len(syntheticLocations)]),
		}
		g.fillMetrics(node, nowMs)
		nodes = append(nodes, node)
	}

	return nodes
}

// Enrich turns a raw roster entry into a full record. Storage, performance,
// timestamps and staking are synthesized since getClusterNodes does not carry
// them; status is derived from the reported version and the synthetic uptime.
func (g *SyntheticGenerator) Enrich(raw models.RawClusterNode, index int) (*models.PNode, error) {
	if raw.Pubkey == "" {
		return nil, &EnrichmentError{Pubkey: "<empty>", Err: fmt.Errorf("node %d has no pubkey", index)}
	}
	if index < 0 {
		return nil, &EnrichmentError{Pubkey: raw.Pubkey, Err: fmt.Errorf("negative index %d", index)}
	}

	node := &models.PNode{
		Pubkey:       raw.Pubkey,
		Gossip:       nonEmpty(raw.Gossip),
		TPU:          nonEmpty(raw.TPU),
		TPUQuic:      nonEmpty(raw.TPUQuic),
		RPC:          nonEmpty(raw.RPC),
		PubSub:       nonEmpty(raw.PubSub),
		Version:      nonEmpty(raw.Version),
		FeatureSet:   raw.FeatureSet,
		ShredVersion: raw.ShredVersion,
	}

	g.fillLiveMetrics(node)

	node.Status = utils.ClassifyStatus(node.Version, *node.Uptime)
	node.Location = g.locate(node, index)

	return node, nil
}

func (g *SyntheticGenerator) locate(node *models.PNode, index int) *models.NodeLocation {
	if g.locator != nil {
		for _, addr := range []*string{node.Gossip, node.RPC, node.TPU} {
			if addr == nil {
				continue
			}
			if loc, ok := g.locator.Locate(*addr); ok {
				return &loc
			}
		}
	}
	loc := enrichmentLocations[index%len(enrichmentLocations)]
	return &loc
}

func (g *SyntheticGenerator) fillLiveMetrics(node *models.PNode) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fillMetrics(node, g.now().UnixMilli())
}

// fillMetrics sets storage, performance, timestamps and staking. Caller holds g.mu.
func (g *SyntheticGenerator) fillMetrics(node *models.PNode, nowMs int64) {
	capacity := int64((1 + g.rng.Float64()*9) * float64(tebibyte))
	used := int64(g.rng.Float64() * float64(capacity))
	if used > capacity {
		used = capacity
	}

	node.StorageCapacity = models.Ptr(capacity)
	node.StorageUsed = models.Ptr(used)
	node.StorageAvailable = models.Ptr(capacity - used)

	node.Uptime = models.Ptr(85 + g.rng.Float64()*15)
	node.PerformanceScore = models.Ptr(0.7 + g.rng.Float64()*0.3)
	node.ResponseTime = models.Ptr(int64(50 + g.rng.Intn(151)))

	lastSeen := nowMs - g.rng.Int63n(lastSeenWindow.Milliseconds())
	firstSeen := lastSeen - g.rng.Int63n((firstSeenWindow - lastSeenWindow).Milliseconds())
	node.LastSeen = models.Ptr(lastSeen)
	node.FirstSeen = models.Ptr(firstSeen)

	node.StakedXand = models.Ptr(g.rng.Int63n(100000))
	node.DelegatedStake = models.Ptr(g.rng.Int63n(50000))
	node.Commission = models.Ptr(float64(g.rng.Intn(10)))
}

func (g *SyntheticGenerator) randomPubkey() string {
	var b strings.Builder
	b.Grow(15)
	for i := 0; i < 8; i++ {
		b.WriteByte(pubkeyAlphabet[g.rng.Intn(len(pubkeyAlphabet))])
	}
	b.WriteString("...")
	for i := 0; i < 4; i++ {
		b.WriteByte(pubkeyAlphabet[g.rng.Intn(len(pubkeyAlphabet))])
	}
	return b.String()
}

func (g *SyntheticGenerator) randomAddress(port int) string {
	return fmt.Sprintf("%d.%d.%d.%d:%d",
		10+g.rng.Intn(240), g.rng.Intn(256), g.rng.Intn(256), g.rng.Intn(256), port)
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
