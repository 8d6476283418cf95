package tracking

import (
	"time"

	"github.com/WernerBudtke/moto-app/internal/ride"
)

// Config carries the tuning thresholds of the sample pipeline.
type Config struct {
	// MinDistanceKm is the minimum displacement from the last accepted route
	// point for a sample to be accepted. Keeps GPS jitter at rest from
	// accumulating spurious distance.
	MinDistanceKm float64
	// MinSpeedKmh is the noise floor; speeds at or below it never update the
	// recorded max speed.
	MinSpeedKmh float64
}

const (
	DefaultMinDistanceKm = 0.001
	DefaultMinSpeedKmh   = 0.25
)

// RawSample is one reading from the location provider. Speed is in m/s and
// nil when the provider does not report one.
type RawSample struct {
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	SpeedMps   *float64  `json:"speed,omitempty"`
	RecordedAt time.Time `json:"recorded_at,omitempty"`
}

// LiveState is the display snapshot of the ride in progress.
type LiveState struct {
	Tracking        bool              `json:"tracking"`
	Route           []ride.Coordinate `json:"route"`
	CurrentSpeedKmh float64           `json:"current_speed_kmh"`
	MaxSpeedKmh     float64           `json:"max_speed_kmh"`
	TotalDistanceKm float64           `json:"total_distance_km"`
	StartedAt       time.Time         `json:"started_at,omitempty"`
}
