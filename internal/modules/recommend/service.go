// README: Recommendation aggregator groups bookable resources into ranked bundles.
package recommend

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"navette/internal/modules/availability"
	"navette/internal/modules/directory"
	"navette/internal/modules/trip"
	"navette/internal/types"
)

// Resolver produces the bookable resource sets for a request.
type Resolver interface {
	Resolve(ctx context.Context, req availability.Request) (availability.Result, error)
}

// FleetDirectory is the company/fleet read surface used for grouping.
type FleetDirectory interface {
	GetCompany(ctx context.Context, id types.ID) (directory.Company, error)
	ListFleets(ctx context.Context, companyID types.ID) ([]directory.Fleet, error)
	FleetMembers(ctx context.Context, fleetID types.ID) (vehicleIDs, driverIDs []types.ID, err error)
}

// TripEstimator supplies distance/duration figures for the request's route.
type TripEstimator interface {
	EstimateTrip(ctx context.Context, origin, destination string) (distanceKm float64, durationMinutes int)
}

// Pricer quotes a price for a distance and optional vehicle type.
type Pricer interface {
	Estimate(ctx context.Context, distanceKm float64, vehicleType *directory.VehicleType) (types.Money, error)
}

const (
	defaultQueryTimeout = 5 * time.Second
	defaultFanoutLimit  = 8
)

type Service struct {
	resolver Resolver
	fleets   FleetDirectory
	trips    TripEstimator
	pricer   Pricer
	log      *zap.Logger

	queryTimeout time.Duration
	fanoutLimit  int64
}

type Option func(*Service)

func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.queryTimeout = d }
}

func WithFanoutLimit(n int64) Option {
	return func(s *Service) { s.fanoutLimit = n }
}

func NewService(resolver Resolver, fleets FleetDirectory, trips TripEstimator, pricer Pricer, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		resolver:     resolver,
		fleets:       fleets,
		trips:        trips,
		pricer:       pricer,
		log:          log,
		queryTimeout: defaultQueryTimeout,
		fanoutLimit:  defaultFanoutLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Recommend returns ranked fleet-level bundles of bookable vehicles and
// drivers for the request. An empty list is a valid outcome, not an error.
//
// Ranking is stable and documented: vehicle count descending, then fleet
// name, then company name, then fleet ID.
func (s *Service) Recommend(ctx context.Context, req availability.Request) ([]Recommendation, error) {
	res, err := s.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(res.Vehicles) == 0 {
		return []Recommendation{}, nil
	}

	vehiclesByCompany := make(map[types.ID][]directory.Vehicle)
	for _, v := range res.Vehicles {
		vehiclesByCompany[v.CompanyID] = append(vehiclesByCompany[v.CompanyID], v)
	}
	driversByCompany := make(map[types.ID][]directory.Driver)
	for _, d := range res.Drivers {
		driversByCompany[d.CompanyID] = append(driversByCompany[d.CompanyID], d)
	}

	tctx, tcancel := context.WithTimeout(ctx, s.queryTimeout)
	km, minutes := s.trips.EstimateTrip(tctx, req.Departure, req.Destination)
	tcancel()

	// Per-company grouping fans out under a semaphore; one slow or failing
	// company degrades to its own synthetic grouping instead of sinking the
	// whole request.
	sem := semaphore.NewWeighted(s.fanoutLimit)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var recs []Recommendation

	for companyID, vehicles := range vehiclesByCompany {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(companyID types.ID, vehicles []directory.Vehicle) {
			defer wg.Done()
			defer sem.Release(1)

			qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()

			groups := s.groupCompany(qctx, companyID, vehicles, driversByCompany[companyID])
			mu.Lock()
			recs = append(recs, groups...)
			mu.Unlock()
		}(companyID, vehicles)
	}
	wg.Wait()

	for i := range recs {
		dominant := dominantType(recs[i].Vehicles)
		recs[i].DistanceKm = km
		recs[i].DurationMinutes = trip.AdjustDuration(minutes, dominant)
		recs[i].Price = s.quote(ctx, km, dominant, recs[i].FleetID)
	}

	sortRecommendations(recs)
	return recs, nil
}

// quote prices one grouping under the sub-query timeout. A slow or failing
// rate lookup degrades to the default rate instead of stalling the whole
// recommendation; the default path hits no data store, so it succeeds even
// after the timeout fires.
func (s *Service) quote(ctx context.Context, km float64, vehicleType *directory.VehicleType, fleetID types.ID) types.Money {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	price, err := s.pricer.Estimate(qctx, km, vehicleType)
	if err != nil {
		s.log.Warn("price estimate failed, quoting default",
			zap.String("fleet_id", string(fleetID)), zap.Error(err))
		price, _ = s.pricer.Estimate(qctx, km, nil)
	}
	return price
}

// groupCompany partitions one company's bookable vehicles by fleet
// membership and attaches matching drivers. On directory failure it falls
// back to a single grouping marked Incomplete.
func (s *Service) groupCompany(ctx context.Context, companyID types.ID, vehicles []directory.Vehicle, drivers []directory.Driver) []Recommendation {
	company, err := s.fleets.GetCompany(ctx, companyID)
	if err != nil {
		s.log.Warn("company lookup failed, grouping degraded",
			zap.String("company_id", string(companyID)), zap.Error(err))
		return []Recommendation{degradedGrouping(companyID, "", vehicles, drivers)}
	}

	fleets, err := s.fleets.ListFleets(ctx, companyID)
	if err != nil {
		s.log.Warn("fleet lookup failed, grouping degraded",
			zap.String("company_id", string(companyID)), zap.Error(err))
		return []Recommendation{degradedGrouping(companyID, company.Name, vehicles, drivers)}
	}

	assigned := make(map[types.ID]bool, len(vehicles))
	var recs []Recommendation

	for _, fleet := range fleets {
		vehicleIDs, driverIDs, err := s.fleets.FleetMembers(ctx, fleet.ID)
		if err != nil {
			s.log.Warn("fleet membership lookup failed, skipping fleet",
				zap.String("fleet_id", string(fleet.ID)), zap.Error(err))
			continue
		}

		var fleetVehicles []directory.Vehicle
		memberSet := idSet(vehicleIDs)
		for _, v := range vehicles {
			// First fleet claiming a vehicle wins, so an ambiguous double
			// membership never duplicates the vehicle across groupings.
			if memberSet[v.ID] && !assigned[v.ID] {
				assigned[v.ID] = true
				fleetVehicles = append(fleetVehicles, v)
			}
		}
		if len(fleetVehicles) == 0 {
			continue
		}

		recs = append(recs, Recommendation{
			FleetID:     fleet.ID,
			FleetName:   fleet.Name,
			CompanyID:   companyID,
			CompanyName: company.Name,
			Vehicles:    fleetVehicles,
			Drivers:     fleetDrivers(drivers, driverIDs, fleetVehicles),
		})
	}

	var unassigned []directory.Vehicle
	for _, v := range vehicles {
		if !assigned[v.ID] {
			unassigned = append(unassigned, v)
		}
	}
	if len(unassigned) > 0 {
		recs = append(recs, Recommendation{
			FleetID:     DefaultFleetID(companyID),
			FleetName:   DefaultFleetName,
			CompanyID:   companyID,
			CompanyName: company.Name,
			Vehicles:    unassigned,
			Drivers:     fleetDrivers(drivers, nil, unassigned),
		})
	}
	return recs
}

// fleetDrivers selects the drivers for a grouping: restricted to fleet
// membership when membership data exists, then narrowed to drivers whose
// qualifications intersect the grouping's vehicle types. A grouping with
// vehicles but no matching drivers is still returned upstream with an empty
// driver list; surfacing vehicle availability beats hiding it.
func fleetDrivers(companyDrivers []directory.Driver, memberIDs []types.ID, vehicles []directory.Vehicle) []directory.Driver {
	pool := companyDrivers
	if len(memberIDs) > 0 {
		memberSet := idSet(memberIDs)
		pool = nil
		for _, d := range companyDrivers {
			if memberSet[d.ID] {
				pool = append(pool, d)
			}
		}
	}

	vehicleTypes := typesPresent(vehicles)
	var out []directory.Driver
	for _, d := range pool {
		if d.QualifiedForAny(vehicleTypes) {
			out = append(out, d)
		}
	}
	return out
}

func degradedGrouping(companyID types.ID, companyName string, vehicles []directory.Vehicle, drivers []directory.Driver) Recommendation {
	return Recommendation{
		FleetID:     DefaultFleetID(companyID),
		FleetName:   DefaultFleetName,
		CompanyID:   companyID,
		CompanyName: companyName,
		Vehicles:    vehicles,
		Drivers:     fleetDrivers(drivers, nil, vehicles),
		Incomplete:  true,
	}
}

func sortRecommendations(recs []Recommendation) {
	sort.Slice(recs, func(i, j int) bool {
		if len(recs[i].Vehicles) != len(recs[j].Vehicles) {
			return len(recs[i].Vehicles) > len(recs[j].Vehicles)
		}
		if recs[i].FleetName != recs[j].FleetName {
			return recs[i].FleetName < recs[j].FleetName
		}
		if recs[i].CompanyName != recs[j].CompanyName {
			return recs[i].CompanyName < recs[j].CompanyName
		}
		return recs[i].FleetID < recs[j].FleetID
	})
}

func typesPresent(vehicles []directory.Vehicle) []directory.VehicleType {
	seen := make(map[directory.VehicleType]bool)
	var out []directory.VehicleType
	for _, v := range vehicles {
		if !seen[v.Type] {
			seen[v.Type] = true
			out = append(out, v.Type)
		}
	}
	return out
}

// dominantType picks the most frequent vehicle type in a grouping for
// pricing, ties broken by type name for determinism.
func dominantType(vehicles []directory.Vehicle) *directory.VehicleType {
	if len(vehicles) == 0 {
		return nil
	}
	counts := make(map[directory.VehicleType]int)
	for _, v := range vehicles {
		counts[v.Type]++
	}
	var best directory.VehicleType
	bestCount := -1
	for t, n := range counts {
		if n > bestCount || (n == bestCount && t < best) {
			best, bestCount = t, n
		}
	}
	return &best
}

func idSet(ids []types.ID) map[types.ID]bool {
	set := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
