package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"
)

// RouteService answers route queries through the Google Maps Directions API.
// It satisfies the trip module's RouteSource interface.
type RouteService struct {
	client *maps.Client
}

// NewRouteService creates a RouteService with the given API key.
func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

// Route returns the driving distance in kilometres and duration in minutes
// for a trip from origin to destination. It assumes driving mode.
func (s *RouteService) Route(ctx context.Context, origin, destination string) (float64, int, error) {
	r := &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Region:      "FR", // bias results to France where the partner fleets operate
	}

	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found")
	}

	leg := routes[0].Legs[0]
	km := float64(leg.Distance.Meters) / 1000.0
	minutes := int(math.Round(leg.Duration.Minutes()))
	return km, minutes, nil
}
