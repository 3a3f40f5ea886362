// README: Company, fleet, vehicle and driver directory entities.
package directory

import (
	"navette/internal/types"
)

type VehicleType string

const (
	TypeMinibus              VehicleType = "minibus"
	TypeMinicar              VehicleType = "minicar"
	TypeAutocarStandard      VehicleType = "autocar_standard"
	TypeAutocarGrandTourisme VehicleType = "autocar_grand_tourisme"
	TypeBerline              VehicleType = "berline"
	TypeVan                  VehicleType = "van"
)

// AllVehicleTypes lists every recognized vehicle type, used for request
// validation at the HTTP boundary.
var AllVehicleTypes = []VehicleType{
	TypeMinibus,
	TypeMinicar,
	TypeAutocarStandard,
	TypeAutocarGrandTourisme,
	TypeBerline,
	TypeVan,
}

func ValidVehicleType(t VehicleType) bool {
	for _, v := range AllVehicleTypes {
		if v == t {
			return true
		}
	}
	return false
}

type VehicleStatus string

const (
	StatusAvailable    VehicleStatus = "available"
	StatusInMission    VehicleStatus = "in_mission"
	StatusMaintenance  VehicleStatus = "maintenance"
	StatusOutOfService VehicleStatus = "out_of_service"
)

type Company struct {
	ID   types.ID
	Name string
}

type Fleet struct {
	ID          types.ID
	CompanyID   types.ID
	Name        string
	Description string
}

type Vehicle struct {
	ID        types.ID
	CompanyID types.ID
	Brand     string
	Model     string
	Capacity  int
	Type      VehicleType
	Location  string
	Status    VehicleStatus
	PhotoURL  *string
}

type Driver struct {
	ID             types.ID
	CompanyID      types.ID
	Name           string
	City           string
	Available      bool
	Qualifications []VehicleType
	Rating         *float64
}

// QualifiedFor reports whether the driver may operate the given vehicle type.
// A driver with an empty qualification set is treated as type-agnostic; this
// is a confirmed business rule, not a fallback.
func (d Driver) QualifiedFor(t VehicleType) bool {
	if len(d.Qualifications) == 0 {
		return true
	}
	for _, q := range d.Qualifications {
		if q == t {
			return true
		}
	}
	return false
}

// QualifiedForAny reports whether the driver may operate at least one of the
// given vehicle types. An empty types slice matches nothing; an empty
// qualification set matches everything.
func (d Driver) QualifiedForAny(vehicleTypes []VehicleType) bool {
	for _, t := range vehicleTypes {
		if d.QualifiedFor(t) {
			return true
		}
	}
	return false
}

// VehicleQuery describes the capacity/location/status filter applied to the
// vehicle pool.
type VehicleQuery struct {
	Location    string
	MinCapacity int
	CompanyID   *types.ID
	Type        *VehicleType
}

// DriverQuery describes the availability/city filter applied to the driver
// pool.
type DriverQuery struct {
	City      string
	CompanyID *types.ID
	Type      *VehicleType
}
