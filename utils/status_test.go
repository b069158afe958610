package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"xandpulse/models"
)

func TestClassifyStatus(t *testing.T) {
	version := "0.6.0"
	empty := ""

	tests := []struct {
		name    string
		version *string
		uptime  float64
		want    models.NodeStatus
	}{
		{"no version", nil, 100, models.StatusInactive},
		{"empty version", &empty, 99.9, models.StatusInactive},
		{"no version and low uptime", nil, 10, models.StatusInactive},
		{"just below threshold", &version, 89.99, models.StatusDegraded},
		{"zero uptime", &version, 0, models.StatusDegraded},
		{"at threshold", &version, 90, models.StatusActive},
		{"full uptime", &version, 100, models.StatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyStatus(tt.version, tt.uptime))
		})
	}
}
