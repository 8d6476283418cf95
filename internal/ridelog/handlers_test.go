package ridelog

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/WernerBudtke/moto-app/internal/ride"
)

func ridelogTestApp(t *testing.T) (*fiber.App, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	app := fiber.New()
	RegisterRoutes(app.Group("/rides"), NewStore(client, time.Second), func(c *fiber.Ctx) error {
		c.Locals("user_id", "user-1")
		return c.Next()
	})
	return app, mr
}

func postRide(t *testing.T, app *fiber.App, summary ride.Summary) *http.Response {
	t.Helper()

	body, _ := json.Marshal(summary)
	req := httptest.NewRequest(http.MethodPost, "/rides/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("post ride: %v", err)
	}
	return resp
}

func TestRideLogHandlersSaveListGetDelete(t *testing.T) {
	app, _ := ridelogTestApp(t)
	summary := testSummary("2025-06-01T10:00:00Z")

	if resp := postRide(t, app, summary); resp.StatusCode != http.StatusCreated {
		t.Fatalf("save status: %d", resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rides/", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("list status: %v", err)
	}
	var rides []ride.Summary
	if err := json.NewDecoder(resp.Body).Decode(&rides); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(rides) != 1 || rides[0].Timestamp != summary.Timestamp {
		t.Fatalf("unexpected list: %+v", rides)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/rides/"+summary.Timestamp, nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("get status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/rides/"+summary.Timestamp, nil))
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status: %v", err)
	}

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/rides/"+summary.Timestamp, nil))
	if err != nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected not found after delete")
	}

	// deleting again is still a success
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/rides/"+summary.Timestamp, nil))
	if err != nil || resp.StatusCode != http.StatusNoContent {
		t.Fatalf("second delete status: %v", err)
	}
}

func TestRideLogHandlersBadRequest(t *testing.T) {
	app, _ := ridelogTestApp(t)

	req := httptest.NewRequest(http.MethodPost, "/rides/", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}

	// missing timestamp id
	if resp := postRide(t, app, ride.Summary{TotalDistance: 1}); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request for missing timestamp, got %d", resp.StatusCode)
	}
}

func TestRideLogHandlersCorruptData(t *testing.T) {
	app, mr := ridelogTestApp(t)
	mr.Set(logKey("user-1"), "not-json")

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rides/", nil))
	if err != nil || resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestRideLogHandlersStoreUnavailable(t *testing.T) {
	app, mr := ridelogTestApp(t)
	mr.Close()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/rides/", nil))
	if err != nil || resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected service unavailable, got %v", err)
	}

	if resp := postRide(t, app, testSummary("2025-06-01T10:00:00Z")); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected service unavailable on save, got %d", resp.StatusCode)
	}
}
