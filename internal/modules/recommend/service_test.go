package recommend

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"navette/internal/modules/availability"
	"navette/internal/modules/directory"
	"navette/internal/modules/pricing"
	"navette/internal/types"
)

type fakeResolver struct {
	result availability.Result
	err    error
}

func (f *fakeResolver) Resolve(context.Context, availability.Request) (availability.Result, error) {
	return f.result, f.err
}

type fakeFleets struct {
	companies map[types.ID]directory.Company
	fleets    map[types.ID][]directory.Fleet
	vehicles  map[types.ID][]types.ID // fleetID -> member vehicle IDs
	drivers   map[types.ID][]types.ID // fleetID -> member driver IDs
	failFor   map[types.ID]bool       // companyID -> fail lookups
}

func (f *fakeFleets) GetCompany(_ context.Context, id types.ID) (directory.Company, error) {
	if f.failFor[id] {
		return directory.Company{}, errors.New("directory unavailable")
	}
	c, ok := f.companies[id]
	if !ok {
		return directory.Company{}, directory.ErrNotFound
	}
	return c, nil
}

func (f *fakeFleets) ListFleets(_ context.Context, companyID types.ID) ([]directory.Fleet, error) {
	return f.fleets[companyID], nil
}

func (f *fakeFleets) FleetMembers(_ context.Context, fleetID types.ID) ([]types.ID, []types.ID, error) {
	return f.vehicles[fleetID], f.drivers[fleetID], nil
}

type fakeTrips struct{}

func (fakeTrips) EstimateTrip(context.Context, string, string) (float64, int) {
	return 465, 465
}

type fakePricer struct{}

func (fakePricer) Estimate(_ context.Context, km float64, _ *directory.VehicleType) (types.Money, error) {
	return pricing.PriceFor(pricing.DefaultRate, km), nil
}

func vehicleFor(id string, company string, vt directory.VehicleType, capacity int) directory.Vehicle {
	return directory.Vehicle{
		ID:        types.ID(id),
		CompanyID: types.ID(company),
		Capacity:  capacity,
		Type:      vt,
		Location:  "Paris",
		Status:    directory.StatusAvailable,
	}
}

func driverFor(id string, company string, quals ...directory.VehicleType) directory.Driver {
	return directory.Driver{
		ID:             types.ID(id),
		CompanyID:      types.ID(company),
		City:           "Paris",
		Available:      true,
		Qualifications: quals,
	}
}

func request() availability.Request {
	arrive := time.Date(2026, 5, 10, 18, 0, 0, 0, time.UTC)
	return availability.Request{
		Departure:   "Paris",
		Destination: "Lyon",
		Passengers:  25,
		DepartAt:    time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC),
		ArriveAt:    &arrive,
	}
}

func TestRecommend_GroupsByFleetWithDefaultGrouping(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{
			vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30),
			vehicleFor("veh-2", "co-1", directory.TypeAutocarStandard, 50),
			vehicleFor("veh-3", "co-1", directory.TypeBerline, 4), // no fleet membership
		},
		Drivers: []directory.Driver{
			driverFor("drv-1", "co-1", directory.TypeMinibus),
			driverFor("drv-2", "co-1"), // type-agnostic
		},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
		fleets: map[types.ID][]directory.Fleet{
			"co-1": {{ID: "fl-1", CompanyID: "co-1", Name: "Ile-de-France"}},
		},
		vehicles: map[types.ID][]types.ID{"fl-1": {"veh-1", "veh-2"}},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, recs, 2)

	// Fleet grouping ranks first (2 vehicles beats 1).
	assert.Equal(t, types.ID("fl-1"), recs[0].FleetID)
	assert.Equal(t, "Cars Bleus", recs[0].CompanyName)
	require.Len(t, recs[0].Vehicles, 2)
	require.Len(t, recs[0].Drivers, 2)

	// The unlinked berline falls into the synthetic default grouping, and
	// only the type-agnostic driver qualifies for it.
	assert.Equal(t, DefaultFleetID("co-1"), recs[1].FleetID)
	assert.Equal(t, DefaultFleetName, recs[1].FleetName)
	require.Len(t, recs[1].Vehicles, 1)
	assert.Equal(t, types.ID("veh-3"), recs[1].Vehicles[0].ID)
	require.Len(t, recs[1].Drivers, 1)
	assert.Equal(t, types.ID("drv-2"), recs[1].Drivers[0].ID)
}

func TestRecommend_NoVehicleDuplicationAcrossFleets(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30)},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
		fleets: map[types.ID][]directory.Fleet{
			"co-1": {
				{ID: "fl-a", CompanyID: "co-1", Name: "A"},
				{ID: "fl-b", CompanyID: "co-1", Name: "B"},
			},
		},
		// Ambiguous double membership: both fleets claim veh-1.
		vehicles: map[types.ID][]types.ID{"fl-a": {"veh-1"}, "fl-b": {"veh-1"}},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)

	seen := map[types.ID]int{}
	for _, r := range recs {
		for _, v := range r.Vehicles {
			seen[v.ID]++
		}
	}
	assert.Equal(t, 1, seen["veh-1"], "a vehicle must appear in exactly one grouping")
}

func TestRecommend_CompanyWithoutDriversStillAppears(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30)},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Vehicles, 1)
	assert.Empty(t, recs[0].Drivers, "vehicle availability surfaces even without drivers")
}

func TestRecommend_DriverMembershipRestrictsPool(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30)},
		Drivers: []directory.Driver{
			driverFor("drv-in", "co-1", directory.TypeMinibus),
			driverFor("drv-out", "co-1", directory.TypeMinibus),
		},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
		fleets: map[types.ID][]directory.Fleet{
			"co-1": {{ID: "fl-1", CompanyID: "co-1", Name: "Nord"}},
		},
		vehicles: map[types.ID][]types.ID{"fl-1": {"veh-1"}},
		drivers:  map[types.ID][]types.ID{"fl-1": {"drv-in"}},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Len(t, recs[0].Drivers, 1)
	assert.Equal(t, types.ID("drv-in"), recs[0].Drivers[0].ID)
}

func TestRecommend_QualificationMismatchExcludesDriver(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{vehicleFor("veh-1", "co-1", directory.TypeAutocarGrandTourisme, 60)},
		Drivers: []directory.Driver{
			driverFor("drv-berline-only", "co-1", directory.TypeBerline),
		},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Drivers, "driver types must intersect the grouping's vehicle types")
}

func TestRecommend_DegradedCompanyMarkedIncomplete(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{
			vehicleFor("veh-1", "co-ok", directory.TypeMinibus, 30),
			vehicleFor("veh-2", "co-down", directory.TypeMinibus, 30),
		},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-ok": {ID: "co-ok", Name: "Cars Bleus"}},
		failFor:   map[types.ID]bool{"co-down": true},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err, "one company's failure must not fail the request")
	require.Len(t, recs, 2)

	byCompany := map[types.ID]Recommendation{}
	for _, r := range recs {
		byCompany[r.CompanyID] = r
	}
	assert.False(t, byCompany["co-ok"].Incomplete)
	assert.True(t, byCompany["co-down"].Incomplete)
	assert.Len(t, byCompany["co-down"].Vehicles, 1, "degraded groupings still list bookable vehicles")
}

func TestRecommend_AttachesEstimates(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30)},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 465.0, recs[0].DistanceKm)
	// Minibus groupings carry the minibus slowdown over the baseline.
	assert.Equal(t, 512, recs[0].DurationMinutes)
	assert.Equal(t, pricing.PriceFor(pricing.DefaultRate, 465), recs[0].Price)
}

// stalledPricer hangs on typed rate lookups until its context expires, the
// way a wedged database connection would.
type stalledPricer struct {
	sawDeadline bool
}

func (p *stalledPricer) Estimate(ctx context.Context, km float64, vehicleType *directory.VehicleType) (types.Money, error) {
	if vehicleType == nil {
		return pricing.PriceFor(pricing.DefaultRate, km), nil
	}
	_, p.sawDeadline = ctx.Deadline()
	<-ctx.Done()
	return types.Money{}, ctx.Err()
}

type deadlineTrips struct {
	sawDeadline bool
}

func (tr *deadlineTrips) EstimateTrip(ctx context.Context, _, _ string) (float64, int) {
	_, tr.sawDeadline = ctx.Deadline()
	return 465, 465
}

func TestRecommend_SubQueriesBoundedByQueryTimeout(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30)},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{"co-1": {ID: "co-1", Name: "Cars Bleus"}},
	}
	pricer := &stalledPricer{}
	trips := &deadlineTrips{}
	svc := NewService(resolver, fleets, trips, pricer, nil, WithQueryTimeout(20*time.Millisecond))

	done := make(chan struct{})
	var recs []Recommendation
	var err error
	go func() {
		defer close(done)
		recs, err = svc.Recommend(context.Background(), request())
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recommend stalled on a hung rate query")
	}

	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, pricer.sawDeadline, "rate lookups must carry the sub-query deadline")
	assert.True(t, trips.sawDeadline, "trip estimates must carry the sub-query deadline")
	assert.Equal(t, pricing.PriceFor(pricing.DefaultRate, 465), recs[0].Price,
		"a hung rate query degrades to the default rate")
}

func TestRecommend_EmptyPoolIsEmptyList(t *testing.T) {
	svc := NewService(&fakeResolver{}, &fakeFleets{}, fakeTrips{}, fakePricer{}, nil)

	recs, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err, "no results is a valid outcome, not an error")
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestRecommend_ResolverErrorPropagates(t *testing.T) {
	svc := NewService(&fakeResolver{err: availability.ErrInvalidRequest}, &fakeFleets{}, fakeTrips{}, fakePricer{}, nil)

	_, err := svc.Recommend(context.Background(), request())
	assert.ErrorIs(t, err, availability.ErrInvalidRequest)
}

func TestRecommend_StableOrdering(t *testing.T) {
	resolver := &fakeResolver{result: availability.Result{
		Vehicles: []directory.Vehicle{
			vehicleFor("veh-1", "co-1", directory.TypeMinibus, 30),
			vehicleFor("veh-2", "co-2", directory.TypeMinibus, 30),
			vehicleFor("veh-3", "co-2", directory.TypeVan, 30),
		},
	}}
	fleets := &fakeFleets{
		companies: map[types.ID]directory.Company{
			"co-1": {ID: "co-1", Name: "Autocars Martin"},
			"co-2": {ID: "co-2", Name: "Cars Bleus"},
		},
	}
	svc := NewService(resolver, fleets, fakeTrips{}, fakePricer{}, nil)

	first, err := svc.Recommend(context.Background(), request())
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, types.ID("co-2"), first[0].CompanyID, "more vehicles ranks higher")

	for i := 0; i < 5; i++ {
		again, err := svc.Recommend(context.Background(), request())
		require.NoError(t, err)
		assert.Equal(t, first, again, "identical inputs must yield identically ordered output")
	}
}
