package tracking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"github.com/WernerBudtke/moto-app/internal/ride"
	"github.com/WernerBudtke/moto-app/internal/shared/geo"
)

const (
	StateIdle     = "idle"
	StateTracking = "tracking"

	EventStart = "start"
	EventStop  = "stop"
)

// ErrInvalidTransition is returned when start/stop/sample are called out of
// turn. Lifecycle misuse is a caller bug and is never silently ignored.
var ErrInvalidTransition = errors.New("invalid tracking transition")

// Tracker turns a noisy location stream into a route polyline plus
// distance/speed statistics across one start-to-stop ride. It performs no
// locking; the owner must serialize calls.
type Tracker struct {
	cfg Config
	fsm *fsm.FSM

	route      []ride.Coordinate
	totalKm    float64
	currentKmh float64
	maxKmh     float64
	startedAt  time.Time
}

func NewTracker(cfg Config) *Tracker {
	if cfg.MinDistanceKm <= 0 {
		cfg.MinDistanceKm = DefaultMinDistanceKm
	}
	if cfg.MinSpeedKmh <= 0 {
		cfg.MinSpeedKmh = DefaultMinSpeedKmh
	}

	return &Tracker{
		cfg: cfg,
		fsm: fsm.NewFSM(
			StateIdle,
			fsm.Events{
				{Name: EventStart, Src: []string{StateIdle}, Dst: StateTracking},
				{Name: EventStop, Src: []string{StateTracking}, Dst: StateIdle},
			},
			fsm.Callbacks{},
		),
	}
}

// Start begins a new ride. Valid only while idle.
func (t *Tracker) Start(now time.Time) error {
	if err := t.fsm.Event(context.Background(), EventStart); err != nil {
		return fmt.Errorf("%w: start while %s", ErrInvalidTransition, t.fsm.Current())
	}
	t.reset()
	t.startedAt = now
	return nil
}

// Sample feeds one location reading through the filter. Accepted points
// extend the route and the running distance; every sample, accepted or not,
// refreshes the display speed. Valid only while tracking.
func (t *Tracker) Sample(s RawSample) (LiveState, error) {
	if t.fsm.Current() != StateTracking {
		return LiveState{}, fmt.Errorf("%w: sample while %s", ErrInvalidTransition, t.fsm.Current())
	}

	point := ride.Coordinate{Latitude: s.Latitude, Longitude: s.Longitude}
	if len(t.route) == 0 {
		// First sample seeds the route.
		t.route = append(t.route, point)
	} else {
		last := t.route[len(t.route)-1]
		d := geo.HaversineKm(last.Latitude, last.Longitude, point.Latitude, point.Longitude)
		if d >= t.cfg.MinDistanceKm {
			t.route = append(t.route, point)
			t.totalKm += d
		}
	}

	speedKmh := 0.0
	if s.SpeedMps != nil {
		speedKmh = *s.SpeedMps * 3.6
	}
	t.currentKmh = speedKmh
	if speedKmh > t.cfg.MinSpeedKmh && speedKmh > t.maxKmh {
		t.maxKmh = speedKmh
	}

	return t.State(), nil
}

// Stop finalizes the ride into an immutable summary and resets the tracker
// for the next one. Valid only while tracking. A ride whose route never grew
// past the seed point still yields a summary with zero distance.
func (t *Tracker) Stop(now time.Time) (ride.Summary, error) {
	if err := t.fsm.Event(context.Background(), EventStop); err != nil {
		return ride.Summary{}, fmt.Errorf("%w: stop while %s", ErrInvalidTransition, t.fsm.Current())
	}

	duration := now.Sub(t.startedAt).Seconds()
	avg := 0.0
	if duration > 0 {
		avg = t.totalKm / (duration / 3600)
	}

	summary := ride.Summary{
		Route:         t.route,
		MaxSpeed:      t.maxKmh,
		AvgSpeed:      avg,
		TotalDistance: t.totalKm,
		TimeTaken:     duration,
		Timestamp:     now.UTC().Format(time.RFC3339Nano),
	}
	t.reset()
	return summary, nil
}

// State returns a copy of the live ride state.
func (t *Tracker) State() LiveState {
	route := make([]ride.Coordinate, len(t.route))
	copy(route, t.route)
	return LiveState{
		Tracking:        t.fsm.Current() == StateTracking,
		Route:           route,
		CurrentSpeedKmh: t.currentKmh,
		MaxSpeedKmh:     t.maxKmh,
		TotalDistanceKm: t.totalKm,
		StartedAt:       t.startedAt,
	}
}

func (t *Tracker) Tracking() bool {
	return t.fsm.Current() == StateTracking
}

func (t *Tracker) reset() {
	t.route = nil
	t.totalKm = 0
	t.currentKmh = 0
	t.maxKmh = 0
	t.startedAt = time.Time{}
}
