// README: Trip estimator computes distance, duration and arrival times.
package trip

import (
	"context"
	"hash/fnv"
	"math"
	"time"

	"go.uber.org/zap"

	"navette/internal/modules/directory"
	"navette/internal/types"
)

type Estimate struct {
	DistanceKm      float64 `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
}

// RouteSource answers real route queries (Google Maps in production). The
// estimator treats it as optional: any failure falls back to the
// deterministic estimate.
type RouteSource interface {
	Route(ctx context.Context, origin, destination string) (distanceKm float64, durationMinutes int, err error)
}

// Cache pins an estimate for a (origin, destination) pair so every call in a
// booking session sees the same numbers even if the route source drifts.
type Cache interface {
	Get(ctx context.Context, origin, destination string) (Estimate, bool, error)
	Put(ctx context.Context, origin, destination string, e Estimate) error
}

type Estimator struct {
	routes RouteSource
	cache  Cache
	log    *zap.Logger
}

func NewEstimator(routes RouteSource, cache Cache, log *zap.Logger) *Estimator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Estimator{routes: routes, cache: cache, log: log}
}

// knownRoutes holds curated road distances for the common intercity pairs.
// Keys are normalized "origin|destination" with the pair sorted, so lookups
// are direction-independent.
var knownRoutes = map[string]float64{
	"lyon|paris":       465,
	"marseille|paris":  775,
	"bordeaux|paris":   584,
	"lille|paris":      225,
	"nantes|paris":     385,
	"paris|toulouse":   678,
	"lyon|marseille":   314,
	"nice|paris":       932,
	"paris|strasbourg": 489,
	"lyon|toulouse":    537,
}

// EstimateTrip returns the road distance in kilometres and a baseline driving
// duration between two named places. Same or empty endpoints cost nothing.
// The estimate is deterministic for a given pair: known pairs come from a
// lookup table, unknown pairs from a stable hash; a configured route source
// is consulted first and its answer cached.
func (e *Estimator) EstimateTrip(ctx context.Context, origin, destination string) (float64, int) {
	o := types.NormalizePlace(origin)
	d := types.NormalizePlace(destination)
	if o == "" || d == "" || o == d {
		return 0, 0
	}

	if e.cache != nil {
		if cached, ok, err := e.cache.Get(ctx, o, d); err == nil && ok {
			return cached.DistanceKm, cached.DurationMinutes
		} else if err != nil {
			e.log.Debug("estimate cache read failed", zap.Error(err))
		}
	}

	est := e.estimate(ctx, o, d)

	if e.cache != nil {
		if err := e.cache.Put(ctx, o, d, est); err != nil {
			e.log.Debug("estimate cache write failed", zap.Error(err))
		}
	}
	return est.DistanceKm, est.DurationMinutes
}

func (e *Estimator) estimate(ctx context.Context, origin, destination string) Estimate {
	if e.routes != nil {
		km, minutes, err := e.routes.Route(ctx, origin, destination)
		if err == nil && km > 0 {
			return Estimate{DistanceKm: km, DurationMinutes: minutes}
		}
		if err != nil {
			e.log.Warn("route source failed, using deterministic estimate",
				zap.String("origin", origin), zap.String("destination", destination), zap.Error(err))
		}
	}

	km, ok := knownRoutes[pairKey(origin, destination)]
	if !ok {
		km = fallbackKm(origin, destination)
	}
	return Estimate{DistanceKm: km, DurationMinutes: baselineMinutes(km)}
}

// EstimateArrival projects an arrival time from a departure and distance.
// Baseline speed is 60 km/h with a 15 minute floor for any nonzero distance;
// heavier vehicle classes get a slowdown multiplier.
func EstimateArrival(departure time.Time, distanceKm float64, vehicleType *directory.VehicleType) time.Time {
	minutes := AdjustDuration(baselineMinutes(distanceKm), vehicleType)
	return departure.Add(time.Duration(minutes) * time.Minute)
}

// AdjustDuration applies the vehicle class slowdown to a baseline duration in
// minutes.
func AdjustDuration(minutes int, vehicleType *directory.VehicleType) int {
	if vehicleType == nil {
		return minutes
	}
	return int(math.Round(float64(minutes) * speedFactor(*vehicleType)))
}

func baselineMinutes(distanceKm float64) int {
	if distanceKm <= 0 {
		return 0
	}
	minutes := int(math.Round(distanceKm))
	if minutes < 15 {
		minutes = 15
	}
	return minutes
}

// speedFactor is a tunable policy: coaches are slower than sedans on the same
// route.
func speedFactor(t directory.VehicleType) float64 {
	switch t {
	case directory.TypeAutocarGrandTourisme:
		return 1.20
	case directory.TypeAutocarStandard:
		return 1.15
	case directory.TypeMinibus:
		return 1.10
	case directory.TypeVan:
		return 1.05
	default:
		return 1.0
	}
}

// fallbackKm derives a stable pseudo-distance in [30, 600) km from the pair
// itself, so unknown places still get consistent answers across calls and
// sessions.
func fallbackKm(origin, destination string) float64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(pairKey(origin, destination)))
	return 30 + float64(h.Sum64()%570)
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}
