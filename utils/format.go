package utils

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

var byteUnits = []string{"B", "KB", "MB", "GB", "TB", "PB"}

// FormatBytes renders a byte count with 1024-based units and at most two decimals,
// e.g. 1536 -> "1.5 KB".
func FormatBytes(bytes int64) string {
	if bytes == 0 {
		return "0 B"
	}

	sign := ""
	magnitude := uint64(bytes)
	if bytes < 0 {
		sign = "-"
		magnitude = uint64(-(bytes + 1)) + 1
	}

	v := float64(magnitude)
	i := 0
	for v >= 1024 && i < len(byteUnits)-1 {
		v /= 1024
		i++
	}

	scaled := math.Round(v*100) / 100
	return sign + strconv.FormatFloat(scaled, 'f', -1, 64) + " " + byteUnits[i]
}

// FormatUptime renders an uptime percentage with one decimal.
func FormatUptime(uptime float64) string {
	return fmt.Sprintf("%.1f%%", uptime)
}

// FormatTimestamp renders a millisecond timestamp relative to now.
func FormatTimestamp(timestampMs int64, now time.Time) string {
	diff := now.UnixMilli() - timestampMs

	switch {
	case diff < time.Minute.Milliseconds():
		return "Just now"
	case diff < time.Hour.Milliseconds():
		return fmt.Sprintf("%dm ago", diff/time.Minute.Milliseconds())
	case diff < 24*time.Hour.Milliseconds():
		return fmt.Sprintf("%dh ago", diff/time.Hour.Milliseconds())
	default:
		return fmt.Sprintf("%dd ago", diff/(24*time.Hour.Milliseconds()))
	}
}

// ShortenPubkey keeps chars characters on each side of an ellipsis.
func ShortenPubkey(pubkey string, chars int) string {
	if chars <= 0 {
		chars = 4
	}
	if len(pubkey) <= chars*2+3 {
		return pubkey
	}
	return pubkey[:chars] + "..." + pubkey[len(pubkey)-chars:]
}
