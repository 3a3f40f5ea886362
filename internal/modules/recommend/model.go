// README: Recommendation bundle types (derived, never persisted).
package recommend

import (
	"navette/internal/modules/directory"
	"navette/internal/types"
)

// Recommendation is a ranked bundle of bookable vehicles and drivers for one
// fleet, or for a company's synthetic default grouping, with trip estimates
// attached. It is computed per request and never stored.
type Recommendation struct {
	FleetID     types.ID
	FleetName   string
	CompanyID   types.ID
	CompanyName string
	Vehicles    []directory.Vehicle
	Drivers     []directory.Driver

	DistanceKm      float64
	DurationMinutes int
	Price           types.Money

	// Incomplete marks a grouping assembled without fleet data because the
	// company's directory lookup failed or timed out. The vehicles and
	// drivers listed are still bookable.
	Incomplete bool
}

// DefaultFleetID names the synthetic grouping that collects a company's
// vehicles with no fleet membership.
func DefaultFleetID(companyID types.ID) types.ID {
	return types.ID("default:" + string(companyID))
}

const DefaultFleetName = "Default"
