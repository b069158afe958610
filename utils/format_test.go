package utils

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1023, "1023 B"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{1610612736, "1.5 GB"},
		{1 << 40, "1 TB"},
		{5*(1<<40) + (1 << 39), "5.5 TB"},
		{1 << 50, "1 PB"},
		{1 << 60, "1024 PB"},
		{-2048, "-2 KB"},
		{math.MaxInt64, "8192 PB"},
		{math.MinInt64, "-8192 PB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatBytes(tt.in), "FormatBytes(%d)", tt.in)
	}
}

func TestFormatBytes_RoundsToTwoDecimals(t *testing.T) {
	// 1234567 B = 1.17737... MB
	assert.Equal(t, "1.18 MB", FormatBytes(1234567))
}

func TestFormatUptime(t *testing.T) {
	assert.Equal(t, "95.0%", FormatUptime(95))
	assert.Equal(t, "99.9%", FormatUptime(99.94))
	assert.Equal(t, "0.0%", FormatUptime(0))
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ago := func(d time.Duration) int64 { return now.Add(-d).UnixMilli() }

	tests := []struct {
		name string
		ts   int64
		want string
	}{
		{"seconds", ago(30 * time.Second), "Just now"},
		{"future", now.Add(time.Minute).UnixMilli(), "Just now"},
		{"one minute", ago(time.Minute), "1m ago"},
		{"minutes", ago(5*time.Minute + 20*time.Second), "5m ago"},
		{"hours", ago(3*time.Hour + 59*time.Minute), "3h ago"},
		{"days", ago(49 * time.Hour), "2d ago"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTimestamp(tt.ts, now))
		})
	}
}

func TestShortenPubkey(t *testing.T) {
	assert.Equal(t, "ABCD...MNOP", ShortenPubkey("ABCDEFGHIJKLMNOP", 4))
	assert.Equal(t, "ABCDEF...KLMNOP", ShortenPubkey("ABCDEFGHIJKLMNOP", 6))
	assert.Equal(t, "short", ShortenPubkey("short", 4))
	assert.Equal(t, "ABCD...MNOP", ShortenPubkey("ABCDEFGHIJKLMNOP", 0))
}
