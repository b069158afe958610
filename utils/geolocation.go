package utils

import (
	"net"
	"sync"

	"github.com/oschwald/geoip2-golang"
	log "github.com/sirupsen/logrus"

	"xandpulse/models"
)

// GeoResolver locates node addresses with a local GeoLite2/GeoIP2 City database.
// A resolver without a database resolves nothing, so callers fall back to their own placement.
type GeoResolver struct {
	db    *geoip2.Reader
	cache sync.Map // map[string]lookupResult
}

type lookupResult struct {
	loc models.NodeLocation
	ok  bool
}

// NewGeoResolver never fails; a missing or unreadable database leaves the resolver empty.
func NewGeoResolver(dbPath string) *GeoResolver {
	g := &GeoResolver{}
	if dbPath == "" {
		return g
	}

	db, err := geoip2.Open(dbPath)
	if err != nil {
		log.Warnf("Could not open GeoIP database at %s: %v. Node locations will be synthetic.", dbPath, err)
		return g
	}
	g.db = db
	return g
}

func (g *GeoResolver) Close() {
	if g != nil && g.db != nil {
		g.db.Close()
	}
}

// Enabled reports whether a database is loaded.
func (g *GeoResolver) Enabled() bool {
	return g != nil && g.db != nil
}

// Locate resolves an "ip:port" or bare IP address. Safe on a nil resolver.
func (g *GeoResolver) Locate(address string) (models.NodeLocation, bool) {
	if !g.Enabled() || address == "" {
		return models.NodeLocation{}, false
	}

	host := address
	if h, _, err := net.SplitHostPort(address); err == nil {
		host = h
	}

	if val, ok := g.cache.Load(host); ok {
		res := val.(lookupResult)
		return res.loc, res.ok
	}

	res := lookupResult{}
	if ip := net.ParseIP(host); ip != nil {
		record, err := g.db.City(ip)
		if err == nil && (record.Location.Latitude != 0 || record.Location.Longitude != 0) {
			res.loc = models.NodeLocation{
				Lat:         record.Location.Latitude,
				Lon:         record.Location.Longitude,
				City:        record.City.Names["en"],
				Country:     record.Country.Names["en"],
				CountryCode: record.Country.IsoCode,
			}
			res.ok = true
		}
	}

	g.cache.Store(host, res)
	return res.loc, res.ok
}
