package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"0.5.9", "0.6.0", -1},
		{"0.6.0", "0.5.9", 1},
		{"1.10.0", "1.9.0", 1},
		{"0.6.0", "0.6.0", 0},
		{"v0.6.0", "0.6.0", 0},
		{"garbage", "0.1.0", -1},
		{"0.1.0", "garbage", 1},
		{"", "", 0},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CompareVersions(tt.a, tt.b), "CompareVersions(%q, %q)", tt.a, tt.b)
	}
}

func TestLatestVersion(t *testing.T) {
	assert.Equal(t, "0.6.0", LatestVersion([]string{"0.5.8", "0.6.0", "bad", "0.5.9"}))
	assert.Equal(t, "1.10.0", LatestVersion([]string{"1.9.0", "1.10.0"}))
	assert.Equal(t, "", LatestVersion(nil))
	assert.Equal(t, "", LatestVersion([]string{"bad"}))
}

func TestCheckVersionStatus(t *testing.T) {
	assert.Equal(t, VersionOutdated, CheckVersionStatus("0.5.9", "0.6.0"))
	assert.Equal(t, VersionCurrent, CheckVersionStatus("0.6.0", "0.6.0"))
	assert.Equal(t, VersionCurrent, CheckVersionStatus("0.7.0", "0.6.0"))
	assert.Equal(t, VersionUnknown, CheckVersionStatus("bad", "0.6.0"))
	assert.Equal(t, VersionUnknown, CheckVersionStatus("0.6.0", ""))
}
