package trip

import (
	"context"
	"errors"
	"testing"
	"time"

	"navette/internal/modules/directory"
)

func TestEstimateTrip_Deterministic(t *testing.T) {
	e := NewEstimator(nil, nil, nil)

	km1, min1 := e.EstimateTrip(context.Background(), "Quimper", "Aurillac")
	km2, min2 := e.EstimateTrip(context.Background(), "Quimper", "Aurillac")
	if km1 != km2 || min1 != min2 {
		t.Errorf("repeated estimates differ: (%v, %v) vs (%v, %v)", km1, min1, km2, min2)
	}
	if km1 <= 0 {
		t.Errorf("unknown pair should still get a positive distance, got %v", km1)
	}
}

func TestEstimateTrip_DirectionIndependent(t *testing.T) {
	e := NewEstimator(nil, nil, nil)

	kmAB, _ := e.EstimateTrip(context.Background(), "Paris", "Lyon")
	kmBA, _ := e.EstimateTrip(context.Background(), "Lyon", "Paris")
	if kmAB != kmBA {
		t.Errorf("distance should not depend on direction: %v vs %v", kmAB, kmBA)
	}
	if kmAB != 465 {
		t.Errorf("Paris-Lyon should use the curated distance, got %v", kmAB)
	}
}

func TestEstimateTrip_DegenerateEndpoints(t *testing.T) {
	e := NewEstimator(nil, nil, nil)

	tests := []struct {
		name                string
		origin, destination string
	}{
		{"same place", "Paris", "Paris"},
		{"same place different spelling", "paris", " PARIS "},
		{"empty origin", "", "Lyon"},
		{"empty destination", "Paris", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			km, minutes := e.EstimateTrip(context.Background(), tt.origin, tt.destination)
			if km != 0 || minutes != 0 {
				t.Errorf("EstimateTrip() = (%v, %v), want (0, 0)", km, minutes)
			}
		})
	}
}

func TestBaselineMinutes_Floor(t *testing.T) {
	if got := baselineMinutes(3); got != 15 {
		t.Errorf("short trips floor at 15 minutes, got %d", got)
	}
	if got := baselineMinutes(120); got != 120 {
		t.Errorf("1 minute per km baseline, got %d", got)
	}
	if got := baselineMinutes(0); got != 0 {
		t.Errorf("zero distance costs no time, got %d", got)
	}
}

func TestEstimateArrival(t *testing.T) {
	departure := time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

	arrival := EstimateArrival(departure, 120, nil)
	if got := arrival.Sub(departure); got != 120*time.Minute {
		t.Errorf("baseline arrival offset = %v, want 120m", got)
	}

	coach := directory.TypeAutocarGrandTourisme
	slower := EstimateArrival(departure, 120, &coach)
	if !slower.After(arrival) {
		t.Error("grand tourisme coaches should be slower than the baseline")
	}

	berline := directory.TypeBerline
	same := EstimateArrival(departure, 120, &berline)
	if !same.Equal(arrival) {
		t.Error("berlines ride the baseline speed")
	}
}

type fakeRoutes struct {
	km      float64
	minutes int
	err     error
	calls   int
}

func (f *fakeRoutes) Route(context.Context, string, string) (float64, int, error) {
	f.calls++
	return f.km, f.minutes, f.err
}

func TestEstimateTrip_RouteSourcePreferred(t *testing.T) {
	routes := &fakeRoutes{km: 451.5, minutes: 265}
	e := NewEstimator(routes, nil, nil)

	km, minutes := e.EstimateTrip(context.Background(), "Paris", "Lyon")
	if km != 451.5 || minutes != 265 {
		t.Errorf("EstimateTrip() = (%v, %v), want route source answer", km, minutes)
	}
}

func TestEstimateTrip_RouteSourceFailureFallsBack(t *testing.T) {
	routes := &fakeRoutes{err: errors.New("quota exceeded")}
	e := NewEstimator(routes, nil, nil)

	km, _ := e.EstimateTrip(context.Background(), "Paris", "Lyon")
	if km != 465 {
		t.Errorf("route failure should fall back to the curated table, got %v", km)
	}
}

type fakeCache struct {
	entries map[string]Estimate
	puts    int
}

func (f *fakeCache) Get(_ context.Context, origin, destination string) (Estimate, bool, error) {
	e, ok := f.entries[pairKey(origin, destination)]
	return e, ok, nil
}

func (f *fakeCache) Put(_ context.Context, origin, destination string, e Estimate) error {
	f.puts++
	f.entries[pairKey(origin, destination)] = e
	return nil
}

func TestEstimateTrip_CachePinsSession(t *testing.T) {
	cache := &fakeCache{entries: map[string]Estimate{}}
	routes := &fakeRoutes{km: 300, minutes: 180}
	e := NewEstimator(routes, cache, nil)

	km1, _ := e.EstimateTrip(context.Background(), "Paris", "Lyon")

	// Even if the live route answer drifts the cached estimate holds, so one
	// booking flow never sees two different numbers.
	routes.km = 900
	km2, _ := e.EstimateTrip(context.Background(), "Paris", "Lyon")

	if km1 != km2 {
		t.Errorf("cached estimate drifted: %v vs %v", km1, km2)
	}
	if routes.calls != 1 {
		t.Errorf("route source consulted %d times, want 1", routes.calls)
	}
}
