// README: Directory service implements the resource pool filter.
package directory

import (
	"context"
	"errors"

	"navette/internal/types"
)

var ErrBadQuery = errors.New("directory: bad query")

// Pool is the read surface the service needs from its store.
type Pool interface {
	FilterVehicles(ctx context.Context, q VehicleQuery) ([]Vehicle, error)
	FilterDrivers(ctx context.Context, q DriverQuery) ([]Driver, error)
}

type Service struct {
	pool Pool
}

func NewService(pool Pool) *Service {
	return &Service{pool: pool}
}

// FilterVehicles returns Available vehicles at the requested location with
// capacity for the requested passenger count. An empty result is not an
// error.
func (s *Service) FilterVehicles(ctx context.Context, q VehicleQuery) ([]Vehicle, error) {
	if q.Location == "" || q.MinCapacity < 1 {
		return nil, ErrBadQuery
	}
	if q.Type != nil && !ValidVehicleType(*q.Type) {
		return nil, ErrBadQuery
	}
	return s.pool.FilterVehicles(ctx, q)
}

// FilterDrivers returns available drivers operating in the requested city,
// optionally restricted to those qualified for a vehicle type.
func (s *Service) FilterDrivers(ctx context.Context, q DriverQuery) ([]Driver, error) {
	if q.City == "" {
		return nil, ErrBadQuery
	}
	if q.Type != nil && !ValidVehicleType(*q.Type) {
		return nil, ErrBadQuery
	}
	return s.pool.FilterDrivers(ctx, q)
}

// MatchVehicle re-applies the vehicle filter criteria in memory. The resolver
// uses it to hold the capacity/location invariant without trusting the store
// round trip.
func MatchVehicle(v Vehicle, q VehicleQuery) bool {
	if v.Status != StatusAvailable {
		return false
	}
	if !types.SamePlace(v.Location, q.Location) {
		return false
	}
	if v.Capacity < q.MinCapacity {
		return false
	}
	if q.CompanyID != nil && v.CompanyID != *q.CompanyID {
		return false
	}
	if q.Type != nil && v.Type != *q.Type {
		return false
	}
	return true
}

// MatchDriver re-applies the driver filter criteria in memory.
func MatchDriver(d Driver, q DriverQuery) bool {
	if !d.Available {
		return false
	}
	if !types.SamePlace(d.City, q.City) {
		return false
	}
	if q.CompanyID != nil && d.CompanyID != *q.CompanyID {
		return false
	}
	if q.Type != nil && !d.QualifiedFor(*q.Type) {
		return false
	}
	return true
}
