// README: Availability resolver composes the pool filter with conflict checks.
package availability

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"navette/internal/modules/directory"
	"navette/internal/modules/mission"
	"navette/internal/types"
)

// ErrInvalidRequest marks a structurally broken request (zero passengers,
// missing departure location). Stale or inverted time windows are not errors:
// they resolve to an empty result so the caller can tell "nothing bookable"
// from "you asked wrong".
var ErrInvalidRequest = errors.New("invalid availability request")

// Directory is the filtered read surface of the vehicle/driver directories.
type Directory interface {
	FilterVehicles(ctx context.Context, q directory.VehicleQuery) ([]directory.Vehicle, error)
	FilterDrivers(ctx context.Context, q directory.DriverQuery) ([]directory.Driver, error)
}

// MissionSource yields a fresh snapshot of a resource's committed missions.
type MissionSource interface {
	ListActiveForDriver(ctx context.Context, driverID types.ID) ([]mission.Mission, error)
	ListActiveForVehicle(ctx context.Context, vehicleID types.ID) ([]mission.Mission, error)
}

const (
	defaultQueryTimeout = 5 * time.Second
	defaultFanoutLimit  = 8
)

type Service struct {
	dir      Directory
	missions MissionSource
	log      *zap.Logger

	queryTimeout time.Duration
	fanoutLimit  int64
	now          func() time.Time
}

type Option func(*Service)

func WithQueryTimeout(d time.Duration) Option {
	return func(s *Service) { s.queryTimeout = d }
}

func WithFanoutLimit(n int64) Option {
	return func(s *Service) { s.fanoutLimit = n }
}

// WithClock overrides the time source; tests use it to pin "now".
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(dir Directory, missions MissionSource, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		dir:          dir,
		missions:     missions,
		log:          log,
		queryTimeout: defaultQueryTimeout,
		fanoutLimit:  defaultFanoutLimit,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Resolve returns the bookable vehicle and driver sets for the request.
// Candidates come from the directory filter; each one is then checked for
// mission conflicts against a fresh snapshot and dropped on overlap. Snapshot
// lookups fan out concurrently under a semaphore; a lookup failure drops just
// that resource (logged), never the whole resolve.
func (s *Service) Resolve(ctx context.Context, req Request) (Result, error) {
	if req.Passengers < 1 || req.Departure == "" {
		return Result{}, ErrInvalidRequest
	}
	if req.VehicleType != nil && !directory.ValidVehicleType(*req.VehicleType) {
		return Result{}, ErrInvalidRequest
	}
	if req.DepartAt.Before(s.now()) {
		return Result{}, nil
	}
	if req.ArriveAt != nil && req.ArriveAt.Before(req.DepartAt) {
		return Result{}, nil
	}

	vehicles, err := s.filterVehicles(ctx, req)
	if err != nil {
		return Result{}, err
	}
	drivers, err := s.filterDrivers(ctx, req)
	if err != nil {
		return Result{}, err
	}

	start, end := req.Window()

	freeVehicles := filterConflictFree(ctx, s, vehicles,
		func(v directory.Vehicle) types.ID { return v.ID },
		s.missions.ListActiveForVehicle, start, end)
	freeDrivers := filterConflictFree(ctx, s, drivers,
		func(d directory.Driver) types.ID { return d.ID },
		s.missions.ListActiveForDriver, start, end)

	sort.Slice(freeVehicles, func(i, j int) bool { return freeVehicles[i].ID < freeVehicles[j].ID })
	sort.Slice(freeDrivers, func(i, j int) bool { return freeDrivers[i].ID < freeDrivers[j].ID })

	return Result{Vehicles: freeVehicles, Drivers: freeDrivers}, nil
}

// Directory lookups carry the same per-query timeout as the mission
// snapshots, so one hung pool query cannot stall a resolve.

func (s *Service) filterVehicles(ctx context.Context, req Request) ([]directory.Vehicle, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.dir.FilterVehicles(qctx, directory.VehicleQuery{
		Location:    req.Departure,
		MinCapacity: req.Passengers,
		CompanyID:   req.CompanyID,
		Type:        req.VehicleType,
	})
}

func (s *Service) filterDrivers(ctx context.Context, req Request) ([]directory.Driver, error) {
	qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()
	return s.dir.FilterDrivers(qctx, directory.DriverQuery{
		City:      req.Departure,
		CompanyID: req.CompanyID,
		Type:      req.VehicleType,
	})
}

// filterConflictFree keeps the resources whose mission snapshots show no
// overlap with [start, end]. Lookups run concurrently, bounded by the
// service's semaphore.
func filterConflictFree[T any](
	ctx context.Context,
	s *Service,
	resources []T,
	id func(T) types.ID,
	snapshot func(context.Context, types.ID) ([]mission.Mission, error),
	start, end time.Time,
) []T {
	sem := semaphore.NewWeighted(s.fanoutLimit)
	var mu sync.Mutex
	var wg sync.WaitGroup
	keep := make([]T, 0, len(resources))

	for _, r := range resources {
		if err := sem.Acquire(ctx, 1); err != nil {
			break // request cancelled; return what we have
		}
		wg.Add(1)
		go func(r T) {
			defer wg.Done()
			defer sem.Release(1)

			qctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
			defer cancel()

			missions, err := snapshot(qctx, id(r))
			if err != nil {
				s.log.Warn("mission snapshot failed, excluding resource",
					zap.String("resource_id", string(id(r))), zap.Error(err))
				return
			}
			if mission.HasConflict(start, end, missions) {
				return
			}
			mu.Lock()
			keep = append(keep, r)
			mu.Unlock()
		}(r)
	}
	wg.Wait()
	return keep
}
