package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

const (
	VersionCurrent  = "current"
	VersionOutdated = "outdated"
	VersionUnknown  = "unknown"
)

func parseVersion(v string) (*version.Version, error) {
	return version.NewVersion(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}

// CompareVersions orders two version strings semantically. Unparseable versions
// sort before parseable ones and fall back to string comparison among themselves.
func CompareVersions(a, b string) int {
	va, errA := parseVersion(a)
	vb, errB := parseVersion(b)

	switch {
	case errA == nil && errB == nil:
		return va.Compare(vb)
	case errA != nil && errB != nil:
		return strings.Compare(a, b)
	case errA != nil:
		return -1
	default:
		return 1
	}
}

// LatestVersion returns the newest parseable version, or "" when there is none.
func LatestVersion(versions []string) string {
	var latest *version.Version
	latestRaw := ""
	for _, raw := range versions {
		v, err := parseVersion(raw)
		if err != nil {
			continue
		}
		if latest == nil || v.GreaterThan(latest) {
			latest = v
			latestRaw = raw
		}
	}
	return latestRaw
}

// CheckVersionStatus compares a node version against the newest version seen in its cluster.
func CheckVersionStatus(nodeVersion, latest string) string {
	nodeVer, err := parseVersion(nodeVersion)
	if err != nil {
		return VersionUnknown
	}
	latestVer, err := parseVersion(latest)
	if err != nil {
		return VersionUnknown
	}
	if nodeVer.LessThan(latestVer) {
		return VersionOutdated
	}
	return VersionCurrent
}
