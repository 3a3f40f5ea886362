// README: Availability request/result types.
package availability

import (
	"time"

	"navette/internal/modules/directory"
	"navette/internal/types"
)

// Request is a trip request as received from the booking flow.
type Request struct {
	Departure   string
	Destination string
	Passengers  int
	DepartAt    time.Time
	ArriveAt    *time.Time
	CompanyID   *types.ID
	VehicleType *directory.VehicleType
}

// Window returns the requested occupation window. With no arrival the
// request occupies just the departure instant.
func (r Request) Window() (time.Time, time.Time) {
	if r.ArriveAt == nil {
		return r.DepartAt, r.DepartAt
	}
	return r.DepartAt, *r.ArriveAt
}

// Result holds the actually bookable resources for a request: filtered by
// capacity/location/qualification and free of mission conflicts over the
// requested window. Both slices are sorted by ID.
type Result struct {
	Vehicles []directory.Vehicle
	Drivers  []directory.Driver
}
