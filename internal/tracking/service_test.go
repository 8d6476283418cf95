package tracking

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/WernerBudtke/moto-app/internal/stream"
)

func fixedClock(t *testing.T, at time.Time) func(time.Time) {
	t.Helper()
	old := nowFn
	nowFn = func() time.Time { return at }
	t.Cleanup(func() { nowFn = old })
	return func(next time.Time) { nowFn = func() time.Time { return next } }
}

func TestServiceRideLifecycle(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	advance := fixedClock(t, start)

	svc := NewService(Config{}, nil, nil)

	state, err := svc.Start("user-1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !state.Tracking {
		t.Fatalf("expected tracking state")
	}

	if _, err := svc.Sample("user-1", RawSample{Latitude: 0, Longitude: 0, SpeedMps: mps(10)}); err != nil {
		t.Fatalf("sample: %v", err)
	}
	state, err = svc.Sample("user-1", RawSample{Latitude: 0.0005, Longitude: 0, SpeedMps: mps(12)})
	if err != nil {
		t.Fatalf("sample: %v", err)
	}
	if len(state.Route) != 2 {
		t.Fatalf("unexpected route length: %d", len(state.Route))
	}

	advance(start.Add(time.Hour))
	summary, err := svc.Stop("user-1")
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if summary.TimeTaken != 3600 {
		t.Fatalf("unexpected duration: %v", summary.TimeTaken)
	}
	if math.Abs(summary.MaxSpeed-43.2) > 1e-9 {
		t.Fatalf("unexpected max speed: %v", summary.MaxSpeed)
	}

	last, ok := svc.LastSummary("user-1")
	if !ok || last.Timestamp != summary.Timestamp {
		t.Fatalf("expected last summary kept")
	}

	if svc.State("user-1").Tracking {
		t.Fatalf("expected idle state after stop")
	}
}

func TestServiceInvalidTransitions(t *testing.T) {
	svc := NewService(Config{}, nil, nil)

	if _, err := svc.Stop("user-1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, err := svc.Sample("user-1", RawSample{}); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if _, ok := svc.LastSummary("user-1"); ok {
		t.Fatalf("no summary should exist after failed stop")
	}
}

func TestServiceBroadcastsLiveState(t *testing.T) {
	hub := stream.NewHub(nil, nil)
	watcher := hub.Register("user-1")
	defer hub.Unregister(watcher)

	svc := NewService(Config{}, hub, nil)
	if _, err := svc.Start("user-1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := svc.Sample("user-1", RawSample{Latitude: 1, Longitude: 1}); err != nil {
		t.Fatalf("sample: %v", err)
	}

	select {
	case payload := <-watcher.Send:
		var state LiveState
		if err := json.Unmarshal(payload, &state); err != nil {
			t.Fatalf("unmarshal live state: %v", err)
		}
		if !state.Tracking || len(state.Route) != 1 {
			t.Fatalf("unexpected live state: %+v", state)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatalf("timeout waiting for broadcast")
	}
}

func TestServiceSamplesWithUnreachableRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	hub := stream.NewHub(client, nil)
	mr.Close()

	svc := NewService(Config{}, hub, nil)
	if _, err := svc.Start("user-1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := svc.Sample("user-1", RawSample{Latitude: 1})
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("sample: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("sample blocked on broadcast")
	}

	// the failed publish happens off the lock path; other users keep moving
	if _, err := svc.Start("user-2"); err != nil {
		t.Fatalf("start user-2: %v", err)
	}
	if _, err := svc.Sample("user-2", RawSample{Latitude: 2}); err != nil {
		t.Fatalf("sample user-2: %v", err)
	}
}

func TestServiceTracksUsersIndependently(t *testing.T) {
	svc := NewService(Config{}, nil, nil)

	if _, err := svc.Start("user-1"); err != nil {
		t.Fatalf("start user-1: %v", err)
	}
	if _, err := svc.Start("user-2"); err != nil {
		t.Fatalf("start user-2: %v", err)
	}

	if _, err := svc.Sample("user-1", RawSample{Latitude: 1}); err != nil {
		t.Fatalf("sample user-1: %v", err)
	}

	if len(svc.State("user-1").Route) != 1 {
		t.Fatalf("expected route for user-1")
	}
	if len(svc.State("user-2").Route) != 0 {
		t.Fatalf("expected empty route for user-2")
	}
}
